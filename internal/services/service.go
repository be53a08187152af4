package services

import (
	"context"
	"time"

	"github.com/commboard/lottery-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LotteryService defines the interface for the lottery lifecycle and the
// entry ledger operations
type LotteryService interface {
	// CreateLottery creates a lottery in draft state.
	CreateLottery(ctx context.Context, input CreateLotteryInput) (*models.Lottery, error)

	// AddPacket adds a prize packet to a draft lottery.
	AddPacket(ctx context.Context, lotteryID primitive.ObjectID, input AddPacketInput) (*models.Packet, error)

	// Publish transitions a lottery from draft to active and fixes its
	// deadline at now + duration.
	Publish(ctx context.Context, lotteryID primitive.ObjectID) (*models.Lottery, error)

	// EndLottery transitions a lottery from active to ended, drawing winners
	// for every packet. Concurrent triggers for the same lottery are safe:
	// exactly one performs the draw, the rest receive a no-op result.
	EndLottery(ctx context.Context, lotteryID primitive.ObjectID) (*EndResult, error)

	// DeleteDraft removes a draft lottery and its packets. Lotteries that
	// have been published are never deleted.
	DeleteDraft(ctx context.Context, lotteryID primitive.ObjectID) error

	GetLottery(ctx context.Context, id primitive.ObjectID) (*models.Lottery, error)
	GetLotteriesByState(ctx context.Context, state models.LotteryState) ([]*models.Lottery, error)
	GetPackets(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.Packet, error)
	GetWinners(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.WinnerAssignment, error)

	// ListOverdue returns active lotteries whose deadline has passed.
	ListOverdue(ctx context.Context, now time.Time) ([]*models.Lottery, error)

	// RegisterEntry records a participant's interest in a packet. Repeat
	// registrations are idempotent. Entries are only accepted while the
	// lottery is active.
	RegisterEntry(ctx context.Context, packetID, participantID primitive.ObjectID) error

	// WithdrawEntry removes a participant's entry while the lottery is
	// still active.
	WithdrawEntry(ctx context.Context, packetID, participantID primitive.ObjectID) error
}

// NotificationService defines the interface for the notification dispatcher
type NotificationService interface {
	// DispatchDrawCompleted notifies every winner of a finished draw. One
	// record is written per attempt; delivery failures are recorded, not
	// raised.
	DispatchDrawCompleted(ctx context.Context, lottery *models.Lottery, packets []*models.Packet, assignments []*models.WinnerAssignment) error

	// NotifyEndingSoon notifies entrants of active lotteries whose deadline
	// falls within the window. Successful sends are not repeated.
	NotifyEndingSoon(ctx context.Context, now time.Time, window time.Duration) (int, error)

	// SendDonationReminder sends a reminder to a donor unless silenced.
	SendDonationReminder(ctx context.Context, recipientID primitive.ObjectID, lottery *models.Lottery) error

	// RetryFailedReminders re-attempts failed reminder notifications until
	// delivery succeeds, the lottery ends, or the recipient is silenced.
	RetryFailedReminders(ctx context.Context) (int, error)

	// Silence permanently suppresses reminders for a recipient/lottery pair.
	Silence(ctx context.Context, recipientID, lotteryID primitive.ObjectID) error

	GetRecordsByRecipient(ctx context.Context, recipientID primitive.ObjectID, page, limit int) ([]*models.NotificationRecord, error)
	GetRecordsByLottery(ctx context.Context, lotteryID primitive.ObjectID, page, limit int) ([]*models.NotificationRecord, error)
}

// RetentionService defines the interface for the donor-data retention sweeper
type RetentionService interface {
	// Sweep archives shipped merchandise packets older than the retention
	// window and clears their donor contact fields. Safe to re-run.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// DonationService defines the interface for donation and shipping operations
type DonationService interface {
	CreateDonation(ctx context.Context, creatorID primitive.ObjectID, postcode string) (*models.Donation, error)
	SubmitDonation(ctx context.Context, id primitive.ObjectID) error
	AddMerchandisePacket(ctx context.Context, packet *models.MerchandisePacket) error
	MarkShipped(ctx context.Context, id primitive.ObjectID) error
	GetMerchandiseByDonation(ctx context.Context, donationID primitive.ObjectID) ([]*models.MerchandisePacket, error)
}
