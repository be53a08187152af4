package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entry represents a participant's registration of interest in a packet.
// A participant holds at most one entry per packet; re-registration is
// idempotent.
type Entry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PacketID      primitive.ObjectID `bson:"packetId" json:"packetId"`
	ParticipantID primitive.ObjectID `bson:"participantId" json:"participantId"`
	RegisteredAt  time.Time          `bson:"registeredAt" json:"registeredAt"`
}
