package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory repository fakes. They mirror the conditional-update semantics
// of the mongodb implementations, including the compare-and-set transitions.

type fakeLotteryRepo struct {
	mu        sync.Mutex
	lotteries map[primitive.ObjectID]*models.Lottery
	winners   *fakeWinnerRepo
}

var _ repositories.LotteryRepository = (*fakeLotteryRepo)(nil)

func newFakeLotteryRepo(winners *fakeWinnerRepo) *fakeLotteryRepo {
	return &fakeLotteryRepo{
		lotteries: make(map[primitive.ObjectID]*models.Lottery),
		winners:   winners,
	}
}

func (r *fakeLotteryRepo) Create(ctx context.Context, lottery *models.Lottery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lottery.ID.IsZero() {
		lottery.ID = primitive.NewObjectID()
	}
	copied := *lottery
	r.lotteries[lottery.ID] = &copied
	return nil
}

func (r *fakeLotteryRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Lottery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lottery, ok := r.lotteries[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *lottery
	return &copied, nil
}

func (r *fakeLotteryRepo) FindByThreadID(ctx context.Context, threadID primitive.ObjectID) (*models.Lottery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lottery := range r.lotteries {
		if lottery.ThreadID == threadID {
			copied := *lottery
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeLotteryRepo) FindByState(ctx context.Context, state models.LotteryState) ([]*models.Lottery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Lottery
	for _, lottery := range r.lotteries {
		if lottery.State == state {
			copied := *lottery
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeLotteryRepo) FindOverdue(ctx context.Context, now time.Time) ([]*models.Lottery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Lottery
	for _, lottery := range r.lotteries {
		if lottery.Overdue(now) {
			copied := *lottery
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeLotteryRepo) FindEndingBetween(ctx context.Context, from, until time.Time) ([]*models.Lottery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Lottery
	for _, lottery := range r.lotteries {
		// Mirrors the mongo filter: endsAt > from and endsAt <= until.
		if lottery.State == models.LotteryStateActive && lottery.EndsAt.After(from) && !lottery.EndsAt.After(until) {
			copied := *lottery
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeLotteryRepo) Activate(ctx context.Context, id primitive.ObjectID, endsAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lottery, ok := r.lotteries[id]
	if !ok || lottery.State != models.LotteryStateDraft {
		return false, nil
	}
	lottery.State = models.LotteryStateActive
	lottery.EndsAt = endsAt
	return true, nil
}

func (r *fakeLotteryRepo) EndAndPersist(ctx context.Context, id primitive.ObjectID, drawnAt time.Time, assignments []*models.WinnerAssignment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lottery, ok := r.lotteries[id]
	if !ok || lottery.State != models.LotteryStateActive {
		return false, nil
	}
	lottery.State = models.LotteryStateEnded
	lottery.DrawnAt = drawnAt
	r.winners.insert(assignments)
	return true, nil
}

func (r *fakeLotteryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lotteries, id)
	return nil
}

type fakePacketRepo struct {
	mu      sync.Mutex
	packets map[primitive.ObjectID]*models.Packet
}

var _ repositories.PacketRepository = (*fakePacketRepo)(nil)

func newFakePacketRepo() *fakePacketRepo {
	return &fakePacketRepo{packets: make(map[primitive.ObjectID]*models.Packet)}
}

func (r *fakePacketRepo) Create(ctx context.Context, packet *models.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if packet.ID.IsZero() {
		packet.ID = primitive.NewObjectID()
	}
	copied := *packet
	r.packets[packet.ID] = &copied
	return nil
}

func (r *fakePacketRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Packet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	packet, ok := r.packets[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *packet
	return &copied, nil
}

func (r *fakePacketRepo) FindByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.Packet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Packet
	for _, packet := range r.packets {
		if packet.LotteryID == lotteryID {
			copied := *packet
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Ordinal < result[j].Ordinal })
	return result, nil
}

func (r *fakePacketRepo) CountByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) (int64, error) {
	packets, _ := r.FindByLotteryID(ctx, lotteryID)
	return int64(len(packets)), nil
}

func (r *fakePacketRepo) DeleteByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, packet := range r.packets {
		if packet.LotteryID == lotteryID {
			delete(r.packets, id)
		}
	}
	return nil
}

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[string]*models.Entry
}

var _ repositories.EntryRepository = (*fakeEntryRepo)(nil)

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[string]*models.Entry)}
}

func entryKey(packetID, participantID primitive.ObjectID) string {
	return packetID.Hex() + "/" + participantID.Hex()
}

func (r *fakeEntryRepo) Upsert(ctx context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := entryKey(entry.PacketID, entry.ParticipantID)
	if _, exists := r.entries[key]; exists {
		return nil
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	copied := *entry
	r.entries[key] = &copied
	return nil
}

func (r *fakeEntryRepo) Delete(ctx context.Context, packetID, participantID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, entryKey(packetID, participantID))
	return nil
}

func (r *fakeEntryRepo) FindByPacketID(ctx context.Context, packetID primitive.ObjectID) ([]*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Entry
	for _, entry := range r.entries {
		if entry.PacketID == packetID {
			copied := *entry
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeEntryRepo) CountByPacketID(ctx context.Context, packetID primitive.ObjectID) (int64, error) {
	entries, _ := r.FindByPacketID(ctx, packetID)
	return int64(len(entries)), nil
}

func (r *fakeEntryRepo) FindByParticipantID(ctx context.Context, participantID primitive.ObjectID) ([]*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Entry
	for _, entry := range r.entries {
		if entry.ParticipantID == participantID {
			copied := *entry
			result = append(result, &copied)
		}
	}
	return result, nil
}

type fakeWinnerRepo struct {
	mu          sync.Mutex
	assignments []*models.WinnerAssignment
}

var _ repositories.WinnerRepository = (*fakeWinnerRepo)(nil)

func newFakeWinnerRepo() *fakeWinnerRepo {
	return &fakeWinnerRepo{}
}

func (r *fakeWinnerRepo) insert(assignments []*models.WinnerAssignment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, assignment := range assignments {
		copied := *assignment
		if copied.ID.IsZero() {
			copied.ID = primitive.NewObjectID()
		}
		r.assignments = append(r.assignments, &copied)
	}
}

func (r *fakeWinnerRepo) FindByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.WinnerAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.WinnerAssignment
	for _, assignment := range r.assignments {
		if assignment.LotteryID == lotteryID {
			copied := *assignment
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeWinnerRepo) FindByPacketID(ctx context.Context, packetID primitive.ObjectID) ([]*models.WinnerAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.WinnerAssignment
	for _, assignment := range r.assignments {
		if assignment.PacketID == packetID {
			copied := *assignment
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeWinnerRepo) FindByParticipantID(ctx context.Context, participantID primitive.ObjectID) ([]*models.WinnerAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.WinnerAssignment
	for _, assignment := range r.assignments {
		if assignment.ParticipantID == participantID {
			copied := *assignment
			result = append(result, &copied)
		}
	}
	return result, nil
}

type fakeDonationRepo struct {
	mu        sync.Mutex
	donations map[primitive.ObjectID]*models.Donation
}

var _ repositories.DonationRepository = (*fakeDonationRepo)(nil)

func newFakeDonationRepo() *fakeDonationRepo {
	return &fakeDonationRepo{donations: make(map[primitive.ObjectID]*models.Donation)}
}

func (r *fakeDonationRepo) Create(ctx context.Context, donation *models.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if donation.ID.IsZero() {
		donation.ID = primitive.NewObjectID()
	}
	copied := *donation
	r.donations[donation.ID] = &copied
	return nil
}

func (r *fakeDonationRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	donation, ok := r.donations[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *donation
	return &copied, nil
}

func (r *fakeDonationRepo) FindByCreatorID(ctx context.Context, creatorID primitive.ObjectID) ([]*models.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Donation
	for _, donation := range r.donations {
		if donation.CreatorID == creatorID {
			copied := *donation
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeDonationRepo) UpdateState(ctx context.Context, id primitive.ObjectID, state models.DonationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	donation, ok := r.donations[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	donation.State = state
	return nil
}

type fakeMerchandiseRepo struct {
	mu      sync.Mutex
	packets map[primitive.ObjectID]*models.MerchandisePacket
}

var _ repositories.MerchandiseRepository = (*fakeMerchandiseRepo)(nil)

func newFakeMerchandiseRepo() *fakeMerchandiseRepo {
	return &fakeMerchandiseRepo{packets: make(map[primitive.ObjectID]*models.MerchandisePacket)}
}

func (r *fakeMerchandiseRepo) Create(ctx context.Context, packet *models.MerchandisePacket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if packet.ID.IsZero() {
		packet.ID = primitive.NewObjectID()
	}
	copied := *packet
	r.packets[packet.ID] = &copied
	return nil
}

func (r *fakeMerchandiseRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.MerchandisePacket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	packet, ok := r.packets[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *packet
	return &copied, nil
}

func (r *fakeMerchandiseRepo) FindByDonationID(ctx context.Context, donationID primitive.ObjectID) ([]*models.MerchandisePacket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.MerchandisePacket
	for _, packet := range r.packets {
		if packet.DonationID == donationID {
			copied := *packet
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeMerchandiseRepo) FindShippedBefore(ctx context.Context, cutoff time.Time) ([]*models.MerchandisePacket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.MerchandisePacket
	for _, packet := range r.packets {
		if packet.State == models.MerchandiseStateShipped && packet.ShippedAt.Before(cutoff) {
			copied := *packet
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeMerchandiseRepo) MarkShipped(ctx context.Context, id primitive.ObjectID, shippedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	packet, ok := r.packets[id]
	if !ok || packet.State != models.MerchandiseStatePending {
		return mongo.ErrNoDocuments
	}
	packet.State = models.MerchandiseStateShipped
	packet.ShippedAt = shippedAt
	return nil
}

func (r *fakeMerchandiseRepo) Archive(ctx context.Context, id primitive.ObjectID, archivedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	packet, ok := r.packets[id]
	if !ok || packet.State != models.MerchandiseStateShipped {
		return false, nil
	}
	packet.State = models.MerchandiseStateArchived
	packet.ArchivedAt = archivedAt
	packet.DonorName = nil
	packet.Street = nil
	packet.StreetNumber = nil
	packet.Postcode = nil
	packet.City = nil
	return true, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	records []*models.NotificationRecord
}

var _ repositories.NotificationRepository = (*fakeNotificationRepo)(nil)

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, record *models.NotificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	record.CreatedAt = time.Now()
	copied := *record
	r.records = append(r.records, &copied)
	return nil
}

func (r *fakeNotificationRepo) FindByRecipientID(ctx context.Context, recipientID primitive.ObjectID, page, limit int) ([]*models.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.NotificationRecord
	for _, record := range r.records {
		if record.RecipientID == recipientID {
			copied := *record
			result = append(result, &copied)
		}
	}
	return paginate(result, page, limit), nil
}

func (r *fakeNotificationRepo) FindByLotteryID(ctx context.Context, lotteryID primitive.ObjectID, page, limit int) ([]*models.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.NotificationRecord
	for _, record := range r.records {
		if record.LotteryID == lotteryID {
			copied := *record
			result = append(result, &copied)
		}
	}
	return paginate(result, page, limit), nil
}

func paginate(records []*models.NotificationRecord, page, limit int) []*models.NotificationRecord {
	start := (page - 1) * limit
	if start >= len(records) {
		return nil
	}
	end := start + limit
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

func (r *fakeNotificationRepo) HasSucceeded(ctx context.Context, recipientID, lotteryID primitive.ObjectID, kind models.NotificationKind) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.RecipientID == recipientID && record.LotteryID == lotteryID && record.Kind == kind && record.Success {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) FindFailedReminders(ctx context.Context) ([]*models.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	succeeded := make(map[string]bool)
	for _, record := range r.records {
		if record.Kind.IsReminder() && record.Success {
			succeeded[fakeRecordKey(record)] = true
		}
	}
	latest := make(map[string]*models.NotificationRecord)
	for _, record := range r.records {
		if !record.Kind.IsReminder() || record.Success {
			continue
		}
		key := fakeRecordKey(record)
		if succeeded[key] {
			continue
		}
		latest[key] = record
	}
	var result []*models.NotificationRecord
	for _, record := range latest {
		copied := *record
		result = append(result, &copied)
	}
	return result, nil
}

func fakeRecordKey(record *models.NotificationRecord) string {
	return record.RecipientID.Hex() + "/" + record.LotteryID.Hex() + "/" + string(record.Kind)
}

func (r *fakeNotificationRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.records)), nil
}

type fakeSilenceRepo struct {
	mu       sync.Mutex
	silenced map[string]bool
}

var _ repositories.SilenceRepository = (*fakeSilenceRepo)(nil)

func newFakeSilenceRepo() *fakeSilenceRepo {
	return &fakeSilenceRepo{silenced: make(map[string]bool)}
}

func (r *fakeSilenceRepo) Upsert(ctx context.Context, recipientID, lotteryID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.silenced[recipientID.Hex()+"/"+lotteryID.Hex()] = true
	return nil
}

func (r *fakeSilenceRepo) Exists(ctx context.Context, recipientID, lotteryID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.silenced[recipientID.Hex()+"/"+lotteryID.Hex()], nil
}

// fakeTransport records deliveries and can be told to fail.
type fakeTransport struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

type sentMessage struct {
	Recipient string
	Subject   string
	Body      string
}

func (t *fakeTransport) Send(ctx context.Context, recipientID, subject, body string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail {
		return "", fmt.Errorf("transport unavailable")
	}
	t.sent = append(t.sent, sentMessage{Recipient: recipientID, Subject: subject, Body: body})
	return fmt.Sprintf("MSG-%d", len(t.sent)), nil
}

func (t *fakeTransport) setFail(fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail = fail
}

func (t *fakeTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}
