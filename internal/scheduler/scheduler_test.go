package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/commboard/lottery-engine/internal/config"
	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubLotteryService feeds the tick a fixed overdue list and records which
// lotteries it was asked to end.
type stubLotteryService struct {
	overdue []*models.Lottery
	failFor map[primitive.ObjectID]bool
	ended   []primitive.ObjectID
}

var _ services.LotteryService = (*stubLotteryService)(nil)

func (s *stubLotteryService) ListOverdue(ctx context.Context, now time.Time) ([]*models.Lottery, error) {
	return s.overdue, nil
}

func (s *stubLotteryService) EndLottery(ctx context.Context, lotteryID primitive.ObjectID) (*services.EndResult, error) {
	if s.failFor[lotteryID] {
		return nil, errors.New("draw failed")
	}
	s.ended = append(s.ended, lotteryID)
	return &services.EndResult{Outcome: services.EndOutcomeDrawn}, nil
}

func (s *stubLotteryService) CreateLottery(ctx context.Context, input services.CreateLotteryInput) (*models.Lottery, error) {
	return nil, nil
}

func (s *stubLotteryService) AddPacket(ctx context.Context, lotteryID primitive.ObjectID, input services.AddPacketInput) (*models.Packet, error) {
	return nil, nil
}

func (s *stubLotteryService) Publish(ctx context.Context, lotteryID primitive.ObjectID) (*models.Lottery, error) {
	return nil, nil
}

func (s *stubLotteryService) DeleteDraft(ctx context.Context, lotteryID primitive.ObjectID) error {
	return nil
}

func (s *stubLotteryService) GetLottery(ctx context.Context, id primitive.ObjectID) (*models.Lottery, error) {
	return nil, nil
}

func (s *stubLotteryService) GetLotteriesByState(ctx context.Context, state models.LotteryState) ([]*models.Lottery, error) {
	return nil, nil
}

func (s *stubLotteryService) GetPackets(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.Packet, error) {
	return nil, nil
}

func (s *stubLotteryService) GetWinners(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.WinnerAssignment, error) {
	return nil, nil
}

func (s *stubLotteryService) RegisterEntry(ctx context.Context, packetID, participantID primitive.ObjectID) error {
	return nil
}

func (s *stubLotteryService) WithdrawEntry(ctx context.Context, packetID, participantID primitive.ObjectID) error {
	return nil
}

func overdueLottery(mode models.DrawingMode) *models.Lottery {
	return &models.Lottery{
		ID:          primitive.NewObjectID(),
		State:       models.LotteryStateActive,
		DrawingMode: mode,
		EndsAt:      time.Now().Add(-time.Hour),
	}
}

func TestTickEndsOverdueLotteries(t *testing.T) {
	first := overdueLottery(models.DrawingModeAutomatic)
	second := overdueLottery(models.DrawingModeAutomatic)
	stub := &stubLotteryService{overdue: []*models.Lottery{first, second}}
	s := New(stub, nil, nil, testConfig())

	s.Tick(context.Background(), time.Now())

	if len(stub.ended) != 2 {
		t.Fatalf("expected 2 lotteries ended, got %d", len(stub.ended))
	}
}

func TestTickSkipsManualMode(t *testing.T) {
	automatic := overdueLottery(models.DrawingModeAutomatic)
	manual := overdueLottery(models.DrawingModeManual)
	stub := &stubLotteryService{overdue: []*models.Lottery{manual, automatic}}
	s := New(stub, nil, nil, testConfig())

	s.Tick(context.Background(), time.Now())

	if len(stub.ended) != 1 {
		t.Fatalf("expected 1 lottery ended, got %d", len(stub.ended))
	}
	if stub.ended[0] != automatic.ID {
		t.Errorf("ended the manual-mode lottery instead of the automatic one")
	}
}

func TestTickIsolatesFailures(t *testing.T) {
	failing := overdueLottery(models.DrawingModeAutomatic)
	healthy := overdueLottery(models.DrawingModeAutomatic)
	stub := &stubLotteryService{
		overdue: []*models.Lottery{failing, healthy},
		failFor: map[primitive.ObjectID]bool{failing.ID: true},
	}
	s := New(stub, nil, nil, testConfig())

	s.Tick(context.Background(), time.Now())

	if len(stub.ended) != 1 || stub.ended[0] != healthy.ID {
		t.Fatalf("expected the healthy lottery to end despite the failing one, ended: %v", stub.ended)
	}
}

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		TickInterval:     time.Minute,
		SweepInterval:    time.Hour,
		ReminderInterval: time.Hour,
	}
}
