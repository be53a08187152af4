package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure LotteryServiceImpl implements LotteryService
var _ LotteryService = (*LotteryServiceImpl)(nil)

// CreateLotteryInput carries the fields for a new draft lottery
type CreateLotteryInput struct {
	ThreadID     primitive.ObjectID
	OwnerID      primitive.ObjectID
	Title        string
	DrawingMode  models.DrawingMode
	PacketMode   models.PacketMode
	DurationDays int
}

// AddPacketInput carries the fields for a new prize packet
type AddPacketInput struct {
	PostID                  primitive.ObjectID
	Name                    string
	Ordinal                 int
	InstanceCount           int
	RequiresConditionReport bool
}

// EndOutcome describes how an end-transition trigger resolved
type EndOutcome string

const (
	// EndOutcomeDrawn means this trigger performed the draw.
	EndOutcomeDrawn EndOutcome = "drawn"
	// EndOutcomeAlreadyEnded means another trigger got there first; nothing
	// was done and nothing is wrong.
	EndOutcomeAlreadyEnded EndOutcome = "already_ended"
)

// EndResult is the outcome of an end-transition trigger
type EndResult struct {
	Outcome     EndOutcome
	Assignments []*models.WinnerAssignment
}

// LotteryServiceImpl owns the lottery state machine and the entry ledger
type LotteryServiceImpl struct {
	lotteryRepo repositories.LotteryRepository
	packetRepo  repositories.PacketRepository
	entryRepo   repositories.EntryRepository
	winnerRepo  repositories.WinnerRepository
	notifier    NotificationService
	enabled     bool

	// locks serializes end-transition triggers per lottery within this
	// process; the store-level compare-and-set covers concurrent processes.
	locksMu sync.Mutex
	locks   map[primitive.ObjectID]*sync.Mutex
}

// NewLotteryService creates a new LotteryServiceImpl
func NewLotteryService(
	lotteryRepo repositories.LotteryRepository,
	packetRepo repositories.PacketRepository,
	entryRepo repositories.EntryRepository,
	winnerRepo repositories.WinnerRepository,
	notifier NotificationService,
	enabled bool,
) *LotteryServiceImpl {
	return &LotteryServiceImpl{
		lotteryRepo: lotteryRepo,
		packetRepo:  packetRepo,
		entryRepo:   entryRepo,
		winnerRepo:  winnerRepo,
		notifier:    notifier,
		enabled:     enabled,
		locks:       make(map[primitive.ObjectID]*sync.Mutex),
	}
}

func (s *LotteryServiceImpl) lockFor(id primitive.ObjectID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// --- Pre-commit validation ---

func validateCreateInput(input CreateLotteryInput) error {
	if input.Title == "" {
		return NewValidationError("lottery title must not be empty")
	}
	if input.DurationDays <= 0 {
		return NewValidationError("lottery duration must be at least one day")
	}
	switch input.DrawingMode {
	case models.DrawingModeAutomatic, models.DrawingModeManual:
	default:
		return NewValidationError("unknown drawing mode: " + string(input.DrawingMode))
	}
	switch input.PacketMode {
	case models.PacketModeSingle, models.PacketModeMultiple:
	default:
		return NewValidationError("unknown packet mode: " + string(input.PacketMode))
	}
	return nil
}

func validatePacketInput(input AddPacketInput) error {
	if input.Name == "" {
		return NewValidationError("packet name must not be empty")
	}
	if input.InstanceCount < 1 {
		return NewValidationError("packet instance count must be at least 1")
	}
	return nil
}

// --- Lifecycle ---

// CreateLottery creates a lottery in draft state
func (s *LotteryServiceImpl) CreateLottery(ctx context.Context, input CreateLotteryInput) (*models.Lottery, error) {
	if !s.enabled {
		return nil, ErrFeatureDisabled
	}
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	lottery := &models.Lottery{
		ThreadID:     input.ThreadID,
		OwnerID:      input.OwnerID,
		Title:        input.Title,
		State:        models.LotteryStateDraft,
		DrawingMode:  input.DrawingMode,
		PacketMode:   input.PacketMode,
		DurationDays: input.DurationDays,
	}
	if err := s.lotteryRepo.Create(ctx, lottery); err != nil {
		slog.Error("Failed to create lottery", "error", err, "threadId", input.ThreadID)
		return nil, fmt.Errorf("failed to create lottery: %w", err)
	}
	slog.Info("Lottery created", "lotteryId", lottery.ID, "title", lottery.Title)
	return lottery, nil
}

// AddPacket adds a prize packet to a draft lottery
func (s *LotteryServiceImpl) AddPacket(ctx context.Context, lotteryID primitive.ObjectID, input AddPacketInput) (*models.Packet, error) {
	if !s.enabled {
		return nil, ErrFeatureDisabled
	}
	if err := validatePacketInput(input); err != nil {
		return nil, err
	}

	lottery, err := s.lotteryRepo.FindByID(ctx, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("lottery not found: %w", err)
	}
	if lottery.IsTerminal() {
		return nil, ErrTerminalState
	}
	if lottery.State != models.LotteryStateDraft {
		return nil, ErrInvalidState
	}

	ordinal := input.Ordinal
	if ordinal == 0 {
		count, err := s.packetRepo.CountByLotteryID(ctx, lotteryID)
		if err != nil {
			return nil, fmt.Errorf("failed to count packets: %w", err)
		}
		ordinal = int(count) + 1
	}

	packet := &models.Packet{
		LotteryID:               lotteryID,
		PostID:                  input.PostID,
		Name:                    input.Name,
		Ordinal:                 ordinal,
		InstanceCount:           input.InstanceCount,
		RequiresConditionReport: input.RequiresConditionReport,
	}
	if err := s.packetRepo.Create(ctx, packet); err != nil {
		slog.Error("Failed to create packet", "error", err, "lotteryId", lotteryID)
		return nil, fmt.Errorf("failed to create packet: %w", err)
	}
	return packet, nil
}

// Publish transitions a lottery from draft to active and fixes its deadline
func (s *LotteryServiceImpl) Publish(ctx context.Context, lotteryID primitive.ObjectID) (*models.Lottery, error) {
	if !s.enabled {
		return nil, ErrFeatureDisabled
	}

	lottery, err := s.lotteryRepo.FindByID(ctx, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("lottery not found: %w", err)
	}
	if lottery.IsTerminal() {
		return nil, ErrTerminalState
	}
	if lottery.State != models.LotteryStateDraft {
		return nil, ErrInvalidState
	}

	count, err := s.packetRepo.CountByLotteryID(ctx, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("failed to count packets: %w", err)
	}
	if count == 0 {
		return nil, NewValidationError("cannot publish a lottery without packets")
	}

	endsAt := time.Now().AddDate(0, 0, lottery.DurationDays)
	ok, err := s.lotteryRepo.Activate(ctx, lotteryID, endsAt)
	if err != nil {
		slog.Error("Failed to activate lottery", "error", err, "lotteryId", lotteryID)
		return nil, fmt.Errorf("failed to activate lottery: %w", err)
	}
	if !ok {
		// State moved under us between the read and the conditional update.
		current, err := s.lotteryRepo.FindByID(ctx, lotteryID)
		if err == nil && current.IsTerminal() {
			return nil, ErrTerminalState
		}
		return nil, ErrInvalidState
	}

	lottery.State = models.LotteryStateActive
	lottery.EndsAt = endsAt
	slog.Info("Lottery published", "lotteryId", lotteryID, "endsAt", endsAt)
	return lottery, nil
}

// EndLottery transitions a lottery from active to ended and draws winners.
// A scheduled tick and a manual early-end may race here; the conditional
// update in the store decides the winner and losers report a no-op.
func (s *LotteryServiceImpl) EndLottery(ctx context.Context, lotteryID primitive.ObjectID) (*EndResult, error) {
	lock := s.lockFor(lotteryID)
	lock.Lock()
	defer lock.Unlock()

	lottery, err := s.lotteryRepo.FindByID(ctx, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("lottery not found: %w", err)
	}
	switch lottery.State {
	case models.LotteryStateDraft:
		return nil, ErrInvalidState
	case models.LotteryStateEnded:
		return &EndResult{Outcome: EndOutcomeAlreadyEnded}, nil
	}

	packets, err := s.packetRepo.FindByLotteryID(ctx, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load packets: %w", err)
	}

	// Packets arrive in ascending ordinal order, which fixes the audit
	// ordering of assignments without affecting selection.
	drawnAt := time.Now()
	var assignments []*models.WinnerAssignment
	for _, packet := range packets {
		entries, err := s.entryRepo.FindByPacketID(ctx, packet.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load entries for packet %s: %w", packet.ID.Hex(), err)
		}
		drawn, err := DrawWinners(lotteryID, packet.ID, entries, packet.InstanceCount, drawnAt)
		if err != nil {
			return nil, fmt.Errorf("draw failed for packet %s: %w", packet.ID.Hex(), err)
		}
		assignments = append(assignments, drawn...)
	}

	ok, err := s.lotteryRepo.EndAndPersist(ctx, lotteryID, drawnAt, assignments)
	if err != nil {
		// Nothing was committed; the lottery stays active and the next
		// scheduler tick retries.
		slog.Error("Failed to persist draw results", "error", err, "lotteryId", lotteryID)
		return nil, fmt.Errorf("failed to persist draw results: %w", err)
	}
	if !ok {
		slog.Info("Lottery already ended by concurrent trigger", "lotteryId", lotteryID)
		return &EndResult{Outcome: EndOutcomeAlreadyEnded}, nil
	}

	lottery.State = models.LotteryStateEnded
	lottery.DrawnAt = drawnAt
	slog.Info("Lottery ended", "lotteryId", lotteryID, "packets", len(packets), "assignments", len(assignments))

	// Notification dispatch runs outside the transition; its failures never
	// roll back the draw.
	if s.notifier != nil {
		go s.dispatchDrawCompleted(lottery, packets, assignments)
	}

	return &EndResult{Outcome: EndOutcomeDrawn, Assignments: assignments}, nil
}

func (s *LotteryServiceImpl) dispatchDrawCompleted(lottery *models.Lottery, packets []*models.Packet, assignments []*models.WinnerAssignment) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := s.notifier.DispatchDrawCompleted(ctx, lottery, packets, assignments); err != nil {
		slog.Error("Winner notification dispatch failed", "error", err, "lotteryId", lottery.ID)
	}
}

// DeleteDraft removes a draft lottery and its packets
func (s *LotteryServiceImpl) DeleteDraft(ctx context.Context, lotteryID primitive.ObjectID) error {
	lottery, err := s.lotteryRepo.FindByID(ctx, lotteryID)
	if err != nil {
		return fmt.Errorf("lottery not found: %w", err)
	}
	if lottery.IsTerminal() {
		return ErrTerminalState
	}
	if lottery.State != models.LotteryStateDraft {
		return ErrInvalidState
	}
	if err := s.packetRepo.DeleteByLotteryID(ctx, lotteryID); err != nil {
		return fmt.Errorf("failed to delete packets: %w", err)
	}
	if err := s.lotteryRepo.Delete(ctx, lotteryID); err != nil {
		return fmt.Errorf("failed to delete lottery: %w", err)
	}
	slog.Info("Draft lottery deleted", "lotteryId", lotteryID)
	return nil
}

// --- Queries ---

// GetLottery retrieves a lottery by ID
func (s *LotteryServiceImpl) GetLottery(ctx context.Context, id primitive.ObjectID) (*models.Lottery, error) {
	return s.lotteryRepo.FindByID(ctx, id)
}

// GetLotteriesByState retrieves lotteries by lifecycle state
func (s *LotteryServiceImpl) GetLotteriesByState(ctx context.Context, state models.LotteryState) ([]*models.Lottery, error) {
	return s.lotteryRepo.FindByState(ctx, state)
}

// GetPackets retrieves a lottery's packets in draw order
func (s *LotteryServiceImpl) GetPackets(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.Packet, error) {
	return s.packetRepo.FindByLotteryID(ctx, lotteryID)
}

// GetWinners retrieves the winner assignments of a lottery
func (s *LotteryServiceImpl) GetWinners(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.WinnerAssignment, error) {
	return s.winnerRepo.FindByLotteryID(ctx, lotteryID)
}

// ListOverdue returns active lotteries whose deadline has passed
func (s *LotteryServiceImpl) ListOverdue(ctx context.Context, now time.Time) ([]*models.Lottery, error) {
	return s.lotteryRepo.FindOverdue(ctx, now)
}

// --- Entry ledger ---

// RegisterEntry records a participant's interest in a packet
func (s *LotteryServiceImpl) RegisterEntry(ctx context.Context, packetID, participantID primitive.ObjectID) error {
	if !s.enabled {
		return ErrFeatureDisabled
	}

	packet, err := s.packetRepo.FindByID(ctx, packetID)
	if err != nil {
		return fmt.Errorf("packet not found: %w", err)
	}
	lottery, err := s.lotteryRepo.FindByID(ctx, packet.LotteryID)
	if err != nil {
		return fmt.Errorf("lottery not found: %w", err)
	}
	if lottery.IsTerminal() {
		return ErrTerminalState
	}
	if lottery.State != models.LotteryStateActive {
		return ErrInvalidState
	}

	entry := &models.Entry{
		PacketID:      packetID,
		ParticipantID: participantID,
		RegisteredAt:  time.Now(),
	}
	if err := s.entryRepo.Upsert(ctx, entry); err != nil {
		slog.Error("Failed to register entry", "error", err, "packetId", packetID)
		return fmt.Errorf("failed to register entry: %w", err)
	}
	return nil
}

// WithdrawEntry removes a participant's entry while the lottery is active
func (s *LotteryServiceImpl) WithdrawEntry(ctx context.Context, packetID, participantID primitive.ObjectID) error {
	packet, err := s.packetRepo.FindByID(ctx, packetID)
	if err != nil {
		return fmt.Errorf("packet not found: %w", err)
	}
	lottery, err := s.lotteryRepo.FindByID(ctx, packet.LotteryID)
	if err != nil {
		return fmt.Errorf("lottery not found: %w", err)
	}
	if lottery.IsTerminal() {
		return ErrTerminalState
	}
	if lottery.State != models.LotteryStateActive {
		return ErrInvalidState
	}
	return s.entryRepo.Delete(ctx, packetID, participantID)
}
