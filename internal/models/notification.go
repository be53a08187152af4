package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationKind is the closed set of notification types the dispatcher
// knows how to render.
type NotificationKind string

const (
	NotificationKindWinner                  NotificationKind = "winner"
	NotificationKindLotteryEndingSoon       NotificationKind = "lottery_ending_soon"
	NotificationKindDonationReminder        NotificationKind = "donation_reminder"
	NotificationKindConditionReportReminder NotificationKind = "condition_report_reminder"
)

// DeliveryMethod selects the transport a notification goes out on
type DeliveryMethod string

const (
	DeliveryMethodEmail DeliveryMethod = "email"
	DeliveryMethodInApp DeliveryMethod = "in_app"
)

// NotificationRecord is an append-only audit entry for one delivery attempt.
// Records are never mutated after creation; the dispatcher consults them for
// idempotency and retry decisions.
type NotificationRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RecipientID    primitive.ObjectID `bson:"recipientId" json:"recipientId"`
	LotteryID      primitive.ObjectID `bson:"lotteryId,omitempty" json:"lotteryId,omitempty"`
	Kind           NotificationKind   `bson:"kind" json:"kind"`
	DeliveryMethod DeliveryMethod     `bson:"deliveryMethod" json:"deliveryMethod"`
	Subject        string             `bson:"subject" json:"subject"`
	Body           string             `bson:"body" json:"body"`
	Success        bool               `bson:"success" json:"success"`
	ErrorMessage   string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsReminder reports whether a notification kind belongs to the
// reminder class eligible for scheduler-driven retries.
func (k NotificationKind) IsReminder() bool {
	return k == NotificationKindDonationReminder || k == NotificationKindConditionReportReminder
}

// SilencePreference permanently suppresses reminder notifications for a
// recipient/lottery pair. Checked before every dispatch attempt.
type SilencePreference struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RecipientID primitive.ObjectID `bson:"recipientId" json:"recipientId"`
	LotteryID   primitive.ObjectID `bson:"lotteryId" json:"lotteryId"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
