package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WinnerAssignment links a winning participant to one instance of a packet.
// InstanceNumber runs 1..InstanceCount and is unique per packet; it carries
// no ranking meaning.
type WinnerAssignment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	LotteryID      primitive.ObjectID `bson:"lotteryId" json:"lotteryId"`
	PacketID       primitive.ObjectID `bson:"packetId" json:"packetId"`
	ParticipantID  primitive.ObjectID `bson:"participantId" json:"participantId"`
	InstanceNumber int                `bson:"instanceNumber" json:"instanceNumber"`
	DrawnAt        time.Time          `bson:"drawnAt" json:"drawnAt"`
}
