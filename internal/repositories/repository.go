package repositories

import (
	"context"
	"time"

	"github.com/commboard/lottery-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LotteryRepository defines the interface for lottery data operations
type LotteryRepository interface {
	Create(ctx context.Context, lottery *models.Lottery) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Lottery, error)
	FindByThreadID(ctx context.Context, threadID primitive.ObjectID) (*models.Lottery, error)
	FindByState(ctx context.Context, state models.LotteryState) ([]*models.Lottery, error)
	// FindOverdue returns active lotteries whose deadline has passed.
	FindOverdue(ctx context.Context, now time.Time) ([]*models.Lottery, error)
	// FindEndingBetween returns active lotteries whose deadline falls inside
	// the given window.
	FindEndingBetween(ctx context.Context, from, until time.Time) ([]*models.Lottery, error)
	// Activate performs a conditional draft -> active transition, setting
	// endsAt. It reports false when the lottery was not in draft.
	Activate(ctx context.Context, id primitive.ObjectID, endsAt time.Time) (bool, error)
	// EndAndPersist performs the active -> ended compare-and-set and inserts
	// the winner assignments in the same transaction. It reports false when
	// the compare-and-set matched nothing, meaning another trigger already
	// ended the lottery. On error nothing is committed and the lottery stays
	// active.
	EndAndPersist(ctx context.Context, id primitive.ObjectID, drawnAt time.Time, assignments []*models.WinnerAssignment) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PacketRepository defines the interface for packet data operations
type PacketRepository interface {
	Create(ctx context.Context, packet *models.Packet) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Packet, error)
	// FindByLotteryID returns the lottery's packets in ascending ordinal
	// order, which is the draw order.
	FindByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.Packet, error)
	CountByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) (int64, error)
	DeleteByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) error
}

// EntryRepository defines the interface for the entry ledger
type EntryRepository interface {
	// Upsert registers a participant for a packet. Re-registration is
	// idempotent and keeps the original registration timestamp.
	Upsert(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, packetID, participantID primitive.ObjectID) error
	FindByPacketID(ctx context.Context, packetID primitive.ObjectID) ([]*models.Entry, error)
	CountByPacketID(ctx context.Context, packetID primitive.ObjectID) (int64, error)
	FindByParticipantID(ctx context.Context, participantID primitive.ObjectID) ([]*models.Entry, error)
}

// WinnerRepository defines the interface for winner assignment queries.
// Assignments are written by LotteryRepository.EndAndPersist and never
// revised afterwards.
type WinnerRepository interface {
	FindByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.WinnerAssignment, error)
	FindByPacketID(ctx context.Context, packetID primitive.ObjectID) ([]*models.WinnerAssignment, error)
	FindByParticipantID(ctx context.Context, participantID primitive.ObjectID) ([]*models.WinnerAssignment, error)
}

// DonationRepository defines the interface for donation data operations
type DonationRepository interface {
	Create(ctx context.Context, donation *models.Donation) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Donation, error)
	FindByCreatorID(ctx context.Context, creatorID primitive.ObjectID) ([]*models.Donation, error)
	UpdateState(ctx context.Context, id primitive.ObjectID, state models.DonationState) error
}

// MerchandiseRepository defines the interface for donated-item packets
type MerchandiseRepository interface {
	Create(ctx context.Context, packet *models.MerchandisePacket) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.MerchandisePacket, error)
	FindByDonationID(ctx context.Context, donationID primitive.ObjectID) ([]*models.MerchandisePacket, error)
	// FindShippedBefore returns shipped packets whose ship date is older
	// than the cutoff.
	FindShippedBefore(ctx context.Context, cutoff time.Time) ([]*models.MerchandisePacket, error)
	MarkShipped(ctx context.Context, id primitive.ObjectID, shippedAt time.Time) error
	// Archive performs a conditional shipped -> archived transition and
	// clears the donor contact fields. It reports false when the packet was
	// not in shipped state, which makes re-runs of the sweeper no-ops.
	Archive(ctx context.Context, id primitive.ObjectID, archivedAt time.Time) (bool, error)
}

// NotificationRepository defines the interface for the notification audit log
type NotificationRepository interface {
	Create(ctx context.Context, record *models.NotificationRecord) error
	FindByRecipientID(ctx context.Context, recipientID primitive.ObjectID, page, limit int) ([]*models.NotificationRecord, error)
	FindByLotteryID(ctx context.Context, lotteryID primitive.ObjectID, page, limit int) ([]*models.NotificationRecord, error)
	// HasSucceeded reports whether a successful attempt of the given kind
	// already exists for the recipient/lottery pair.
	HasSucceeded(ctx context.Context, recipientID, lotteryID primitive.ObjectID, kind models.NotificationKind) (bool, error)
	// FindFailedReminders returns the latest failed reminder-class attempts
	// that have no later successful attempt for the same recipient, lottery
	// and kind.
	FindFailedReminders(ctx context.Context) ([]*models.NotificationRecord, error)
	Count(ctx context.Context) (int64, error)
}

// SilenceRepository defines the interface for reminder opt-outs
type SilenceRepository interface {
	// Upsert records a silence preference; repeated calls are idempotent.
	Upsert(ctx context.Context, recipientID, lotteryID primitive.ObjectID) error
	Exists(ctx context.Context, recipientID, lotteryID primitive.ObjectID) (bool, error)
}
