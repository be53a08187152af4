package mongodb

import (
	"context"

	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WinnerRepository implements the repositories.WinnerRepository interface.
// Writes go through LotteryRepository.EndAndPersist; this repository only
// reads the committed assignments.
type WinnerRepository struct {
	collection *mongo.Collection
}

// NewWinnerRepository creates a new WinnerRepository
func NewWinnerRepository(db *mongo.Database) repositories.WinnerRepository {
	return &WinnerRepository{
		collection: db.Collection("winner_assignments"),
	}
}

func (r *WinnerRepository) find(ctx context.Context, filter bson.M) ([]*models.WinnerAssignment, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "packetId", Value: 1},
		{Key: "instanceNumber", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []*models.WinnerAssignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	if assignments == nil {
		assignments = []*models.WinnerAssignment{}
	}
	return assignments, nil
}

// FindByLotteryID finds all winner assignments of a lottery
func (r *WinnerRepository) FindByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.WinnerAssignment, error) {
	return r.find(ctx, bson.M{"lotteryId": lotteryID})
}

// FindByPacketID finds the winner assignments of a packet
func (r *WinnerRepository) FindByPacketID(ctx context.Context, packetID primitive.ObjectID) ([]*models.WinnerAssignment, error) {
	return r.find(ctx, bson.M{"packetId": packetID})
}

// FindByParticipantID finds everything a participant has won
func (r *WinnerRepository) FindByParticipantID(ctx context.Context, participantID primitive.ObjectID) ([]*models.WinnerAssignment, error) {
	return r.find(ctx, bson.M{"participantId": participantID})
}
