package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Packet represents one prize unit type within a lottery. A packet may be
// awarded in several identical instances (InstanceCount > 1).
type Packet struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	LotteryID primitive.ObjectID `bson:"lotteryId" json:"lotteryId"`
	// PostID points to the post describing the prize.
	PostID primitive.ObjectID `bson:"postId" json:"postId"`
	Name   string             `bson:"name" json:"name"`
	// Ordinal is unique per lottery and defines draw order and UI order.
	Ordinal       int `bson:"ordinal" json:"ordinal"`
	InstanceCount int `bson:"instanceCount" json:"instanceCount"`
	// RequiresConditionReport marks packets whose winner must file a report
	// after receiving the prize.
	RequiresConditionReport bool      `bson:"requiresConditionReport" json:"requiresConditionReport"`
	CreatedAt               time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time `bson:"updatedAt" json:"updatedAt"`
}
