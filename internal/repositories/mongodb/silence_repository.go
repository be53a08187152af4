package mongodb

import (
	"context"
	"time"

	"github.com/commboard/lottery-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SilenceRepository implements the repositories.SilenceRepository interface
type SilenceRepository struct {
	collection *mongo.Collection
}

// NewSilenceRepository creates a new SilenceRepository
func NewSilenceRepository(db *mongo.Database) repositories.SilenceRepository {
	return &SilenceRepository{
		collection: db.Collection("silence_preferences"),
	}
}

// Upsert records a silence preference; repeated calls are idempotent
func (r *SilenceRepository) Upsert(ctx context.Context, recipientID, lotteryID primitive.ObjectID) error {
	filter := bson.M{
		"recipientId": recipientID,
		"lotteryId":   lotteryID,
	}
	update := bson.M{"$setOnInsert": bson.M{
		"recipientId": recipientID,
		"lotteryId":   lotteryID,
		"createdAt":   time.Now(),
	}}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// Exists reports whether the recipient silenced reminders for the lottery
func (r *SilenceRepository) Exists(ctx context.Context, recipientID, lotteryID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"recipientId": recipientID,
		"lotteryId":   lotteryID,
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
