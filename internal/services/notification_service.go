package services

import (
	"context"
	"fmt"
	"time"

	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/repositories"
	"github.com/commboard/lottery-engine/pkg/notifier"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure NotificationServiceImpl implements NotificationService
var _ NotificationService = (*NotificationServiceImpl)(nil)

// --- Typed notification payloads ---

// WinnerPayload is the payload for a winner notification
type WinnerPayload struct {
	LotteryTitle   string
	PacketName     string
	InstanceNumber int
}

// EndingSoonPayload is the payload for a lottery-ending-soon notification
type EndingSoonPayload struct {
	LotteryTitle string
	EndsAt       time.Time
}

// DonationReminderPayload is the payload for a merchandise-donation reminder
type DonationReminderPayload struct {
	LotteryTitle string
}

// ConditionReportPayload is the payload for a condition-report reminder
type ConditionReportPayload struct {
	LotteryTitle string
	PacketName   string
}

// renderFunc renders one notification kind from its typed payload
type renderFunc func(payload interface{}) (subject, body string, err error)

// notificationTemplates is the closed lookup table of notification kinds.
// Unknown kinds or mismatched payload types are programming errors and fail
// the dispatch before any delivery attempt.
var notificationTemplates = map[models.NotificationKind]renderFunc{
	models.NotificationKindWinner: func(payload interface{}) (string, string, error) {
		p, ok := payload.(WinnerPayload)
		if !ok {
			return "", "", fmt.Errorf("winner notification expects WinnerPayload, got %T", payload)
		}
		subject := fmt.Sprintf("You won: %s", p.PacketName)
		body := fmt.Sprintf("Congratulations! You won instance %d of %q in the lottery %q.", p.InstanceNumber, p.PacketName, p.LotteryTitle)
		return subject, body, nil
	},
	models.NotificationKindLotteryEndingSoon: func(payload interface{}) (string, string, error) {
		p, ok := payload.(EndingSoonPayload)
		if !ok {
			return "", "", fmt.Errorf("ending-soon notification expects EndingSoonPayload, got %T", payload)
		}
		subject := fmt.Sprintf("Lottery %q ends soon", p.LotteryTitle)
		body := fmt.Sprintf("The lottery %q closes at %s. Winners are drawn right after.", p.LotteryTitle, p.EndsAt.Format(time.RFC1123))
		return subject, body, nil
	},
	models.NotificationKindDonationReminder: func(payload interface{}) (string, string, error) {
		p, ok := payload.(DonationReminderPayload)
		if !ok {
			return "", "", fmt.Errorf("donation reminder expects DonationReminderPayload, got %T", payload)
		}
		subject := fmt.Sprintf("Your donation for %q", p.LotteryTitle)
		body := fmt.Sprintf("Please ship your donated item for the lottery %q and mark it as shipped.", p.LotteryTitle)
		return subject, body, nil
	},
	models.NotificationKindConditionReportReminder: func(payload interface{}) (string, string, error) {
		p, ok := payload.(ConditionReportPayload)
		if !ok {
			return "", "", fmt.Errorf("condition report reminder expects ConditionReportPayload, got %T", payload)
		}
		subject := fmt.Sprintf("Condition report for %q", p.PacketName)
		body := fmt.Sprintf("You received %q from the lottery %q. Please file a short condition report.", p.PacketName, p.LotteryTitle)
		return subject, body, nil
	},
}

func render(kind models.NotificationKind, payload interface{}) (string, string, error) {
	fn, ok := notificationTemplates[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification kind %q", kind)
	}
	return fn(payload)
}

// NotificationServiceImpl decides who gets which message and records every
// delivery attempt
type NotificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
	silenceRepo      repositories.SilenceRepository
	lotteryRepo      repositories.LotteryRepository
	packetRepo       repositories.PacketRepository
	entryRepo        repositories.EntryRepository
	emailTransport   notifier.Transport
	inAppTransport   notifier.Transport
}

// NewNotificationService creates a new NotificationServiceImpl
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	silenceRepo repositories.SilenceRepository,
	lotteryRepo repositories.LotteryRepository,
	packetRepo repositories.PacketRepository,
	entryRepo repositories.EntryRepository,
	emailTransport notifier.Transport,
	inAppTransport notifier.Transport,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		silenceRepo:      silenceRepo,
		lotteryRepo:      lotteryRepo,
		packetRepo:       packetRepo,
		entryRepo:        entryRepo,
		emailTransport:   emailTransport,
		inAppTransport:   inAppTransport,
	}
}

func (s *NotificationServiceImpl) transportFor(method models.DeliveryMethod) notifier.Transport {
	if method == models.DeliveryMethodInApp {
		return s.inAppTransport
	}
	return s.emailTransport
}

// dispatch attempts one delivery and appends exactly one record regardless
// of delivery success. Delivery failure is captured in the record, not
// raised. A silenced reminder produces no attempt and a nil record.
func (s *NotificationServiceImpl) dispatch(ctx context.Context, kind models.NotificationKind, method models.DeliveryMethod, recipientID, lotteryID primitive.ObjectID, payload interface{}) (*models.NotificationRecord, error) {
	if kind.IsReminder() {
		silenced, err := s.silenceRepo.Exists(ctx, recipientID, lotteryID)
		if err != nil {
			return nil, fmt.Errorf("failed to check silence preference: %w", err)
		}
		if silenced {
			return nil, nil
		}
	}

	subject, body, err := render(kind, payload)
	if err != nil {
		return nil, err
	}

	_, sendErr := s.transportFor(method).Send(ctx, recipientID.Hex(), subject, body)

	record := &models.NotificationRecord{
		RecipientID:    recipientID,
		LotteryID:      lotteryID,
		Kind:           kind,
		DeliveryMethod: method,
		Subject:        subject,
		Body:           body,
		Success:        sendErr == nil,
	}
	if sendErr != nil {
		record.ErrorMessage = sendErr.Error()
		slog.Warn("Notification delivery failed", "kind", kind, "recipientId", recipientID, "error", sendErr)
	}
	if err := s.notificationRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to write notification record: %w", err)
	}
	return record, nil
}

// DispatchDrawCompleted notifies every winner of a finished draw. Winners of
// packets that require a condition report additionally get that reminder.
func (s *NotificationServiceImpl) DispatchDrawCompleted(ctx context.Context, lottery *models.Lottery, packets []*models.Packet, assignments []*models.WinnerAssignment) error {
	packetsByID := make(map[primitive.ObjectID]*models.Packet, len(packets))
	for _, packet := range packets {
		packetsByID[packet.ID] = packet
	}

	var firstErr error
	for _, assignment := range assignments {
		packet, ok := packetsByID[assignment.PacketID]
		if !ok {
			continue
		}

		_, err := s.dispatch(ctx, models.NotificationKindWinner, models.DeliveryMethodEmail, assignment.ParticipantID, lottery.ID, WinnerPayload{
			LotteryTitle:   lottery.Title,
			PacketName:     packet.Name,
			InstanceNumber: assignment.InstanceNumber,
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}

		if packet.RequiresConditionReport {
			_, err := s.dispatch(ctx, models.NotificationKindConditionReportReminder, models.DeliveryMethodEmail, assignment.ParticipantID, lottery.ID, ConditionReportPayload{
				LotteryTitle: lottery.Title,
				PacketName:   packet.Name,
			})
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// NotifyEndingSoon notifies every entrant of active lotteries closing inside
// the window. A recipient already notified successfully is not notified again.
func (s *NotificationServiceImpl) NotifyEndingSoon(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	lotteries, err := s.lotteryRepo.FindEndingBetween(ctx, now, now.Add(window))
	if err != nil {
		return 0, fmt.Errorf("failed to find ending lotteries: %w", err)
	}

	sent := 0
	for _, lottery := range lotteries {
		recipients, err := s.entrantsOf(ctx, lottery.ID)
		if err != nil {
			slog.Error("Failed to collect entrants", "error", err, "lotteryId", lottery.ID)
			continue
		}
		for _, recipientID := range recipients {
			done, err := s.notificationRepo.HasSucceeded(ctx, recipientID, lottery.ID, models.NotificationKindLotteryEndingSoon)
			if err != nil {
				slog.Error("Failed to check notification history", "error", err, "recipientId", recipientID)
				continue
			}
			if done {
				continue
			}
			record, err := s.dispatch(ctx, models.NotificationKindLotteryEndingSoon, models.DeliveryMethodInApp, recipientID, lottery.ID, EndingSoonPayload{
				LotteryTitle: lottery.Title,
				EndsAt:       lottery.EndsAt,
			})
			if err != nil {
				slog.Error("Failed to dispatch ending-soon notification", "error", err, "recipientId", recipientID)
				continue
			}
			if record != nil && record.Success {
				sent++
			}
		}
	}
	return sent, nil
}

// entrantsOf returns the distinct participants registered across a lottery's packets
func (s *NotificationServiceImpl) entrantsOf(ctx context.Context, lotteryID primitive.ObjectID) ([]primitive.ObjectID, error) {
	packets, err := s.packetRepo.FindByLotteryID(ctx, lotteryID)
	if err != nil {
		return nil, err
	}
	seen := make(map[primitive.ObjectID]bool)
	var recipients []primitive.ObjectID
	for _, packet := range packets {
		entries, err := s.entryRepo.FindByPacketID(ctx, packet.ID)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if seen[entry.ParticipantID] {
				continue
			}
			seen[entry.ParticipantID] = true
			recipients = append(recipients, entry.ParticipantID)
		}
	}
	return recipients, nil
}

// SendDonationReminder sends a shipping reminder to a donor unless silenced
func (s *NotificationServiceImpl) SendDonationReminder(ctx context.Context, recipientID primitive.ObjectID, lottery *models.Lottery) error {
	_, err := s.dispatch(ctx, models.NotificationKindDonationReminder, models.DeliveryMethodEmail, recipientID, lottery.ID, DonationReminderPayload{
		LotteryTitle: lottery.Title,
	})
	return err
}

// RetryFailedReminders re-attempts failed reminder deliveries. A reminder is
// dropped once its lottery has ended or its recipient is silenced.
func (s *NotificationServiceImpl) RetryFailedReminders(ctx context.Context) (int, error) {
	failed, err := s.notificationRepo.FindFailedReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load failed reminders: %w", err)
	}

	retried := 0
	for _, record := range failed {
		if !record.LotteryID.IsZero() {
			lottery, err := s.lotteryRepo.FindByID(ctx, record.LotteryID)
			if err != nil {
				slog.Warn("Skipping reminder retry, lottery not found", "lotteryId", record.LotteryID)
				continue
			}
			if lottery.IsTerminal() {
				continue
			}
		}

		silenced, err := s.silenceRepo.Exists(ctx, record.RecipientID, record.LotteryID)
		if err != nil {
			slog.Error("Failed to check silence preference", "error", err, "recipientId", record.RecipientID)
			continue
		}
		if silenced {
			continue
		}

		// Resend the already-rendered content; a retry is a new attempt and
		// gets its own record.
		_, sendErr := s.transportFor(record.DeliveryMethod).Send(ctx, record.RecipientID.Hex(), record.Subject, record.Body)
		attempt := &models.NotificationRecord{
			RecipientID:    record.RecipientID,
			LotteryID:      record.LotteryID,
			Kind:           record.Kind,
			DeliveryMethod: record.DeliveryMethod,
			Subject:        record.Subject,
			Body:           record.Body,
			Success:        sendErr == nil,
		}
		if sendErr != nil {
			attempt.ErrorMessage = sendErr.Error()
		}
		if err := s.notificationRepo.Create(ctx, attempt); err != nil {
			slog.Error("Failed to write retry record", "error", err, "recipientId", record.RecipientID)
			continue
		}
		if attempt.Success {
			retried++
		}
	}
	return retried, nil
}

// Silence permanently suppresses reminders for a recipient/lottery pair
func (s *NotificationServiceImpl) Silence(ctx context.Context, recipientID, lotteryID primitive.ObjectID) error {
	return s.silenceRepo.Upsert(ctx, recipientID, lotteryID)
}

// GetRecordsByRecipient retrieves a recipient's notification records
func (s *NotificationServiceImpl) GetRecordsByRecipient(ctx context.Context, recipientID primitive.ObjectID, page, limit int) ([]*models.NotificationRecord, error) {
	return s.notificationRepo.FindByRecipientID(ctx, recipientID, page, limit)
}

// GetRecordsByLottery retrieves a lottery's notification records
func (s *NotificationServiceImpl) GetRecordsByLottery(ctx context.Context, lotteryID primitive.ObjectID, page, limit int) ([]*models.NotificationRecord, error) {
	return s.notificationRepo.FindByLotteryID(ctx, lotteryID, page, limit)
}
