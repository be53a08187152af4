package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LotteryState represents the lifecycle state of a lottery
type LotteryState string

const (
	LotteryStateDraft  LotteryState = "draft"
	LotteryStateActive LotteryState = "active"
	LotteryStateEnded  LotteryState = "ended"
)

// DrawingMode controls whether the deadline draw fires automatically or
// waits for an explicit admin action.
type DrawingMode string

const (
	DrawingModeAutomatic DrawingMode = "automatic"
	DrawingModeManual    DrawingMode = "manual"
)

// PacketMode describes how packets are grouped in the announcement thread.
// It has no effect on winner selection.
type PacketMode string

const (
	PacketModeSingle   PacketMode = "single"
	PacketModeMultiple PacketMode = "multiple"
)

// Lottery represents one time-boxed drawing tied to an announcement thread
type Lottery struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ThreadID     primitive.ObjectID `bson:"threadId" json:"threadId"`
	OwnerID      primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Title        string             `bson:"title" json:"title"`
	State        LotteryState       `bson:"state" json:"state"`
	DrawingMode  DrawingMode        `bson:"drawingMode" json:"drawingMode"`
	PacketMode   PacketMode         `bson:"packetMode" json:"packetMode"`
	DurationDays int                `bson:"durationDays" json:"durationDays"`
	// EndsAt is set when the lottery enters the active state and never
	// changes afterwards.
	EndsAt    time.Time `bson:"endsAt,omitempty" json:"endsAt,omitempty"`
	DrawnAt   time.Time `bson:"drawnAt,omitempty" json:"drawnAt,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsTerminal reports whether the lottery has reached its final state.
func (l *Lottery) IsTerminal() bool {
	return l.State == LotteryStateEnded
}

// Overdue reports whether an active lottery's deadline has passed.
func (l *Lottery) Overdue(now time.Time) bool {
	return l.State == LotteryStateActive && !l.EndsAt.IsZero() && !now.Before(l.EndsAt)
}
