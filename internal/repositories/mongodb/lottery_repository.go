package mongodb

import (
	"context"
	"time"

	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LotteryRepository implements the repositories.LotteryRepository interface
type LotteryRepository struct {
	collection *mongo.Collection
	winners    *mongo.Collection
}

// NewLotteryRepository creates a new LotteryRepository
func NewLotteryRepository(db *mongo.Database) repositories.LotteryRepository {
	return &LotteryRepository{
		collection: db.Collection("lotteries"),
		winners:    db.Collection("winner_assignments"),
	}
}

// Create creates a new lottery in draft state
func (r *LotteryRepository) Create(ctx context.Context, lottery *models.Lottery) error {
	lottery.CreatedAt = time.Now()
	lottery.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, lottery)
	if err != nil {
		return err
	}
	lottery.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a lottery by ID
func (r *LotteryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Lottery, error) {
	var lottery models.Lottery
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&lottery)
	if err != nil {
		return nil, err
	}
	return &lottery, nil
}

// FindByThreadID finds the lottery bound to an announcement thread
func (r *LotteryRepository) FindByThreadID(ctx context.Context, threadID primitive.ObjectID) (*models.Lottery, error) {
	var lottery models.Lottery
	err := r.collection.FindOne(ctx, bson.M{"threadId": threadID}).Decode(&lottery)
	if err != nil {
		return nil, err
	}
	return &lottery, nil
}

// FindByState finds lotteries by lifecycle state
func (r *LotteryRepository) FindByState(ctx context.Context, state models.LotteryState) ([]*models.Lottery, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"state": state}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var lotteries []*models.Lottery
	if err := cursor.All(ctx, &lotteries); err != nil {
		return nil, err
	}
	if lotteries == nil {
		lotteries = []*models.Lottery{}
	}
	return lotteries, nil
}

// FindOverdue finds active lotteries whose deadline has passed
func (r *LotteryRepository) FindOverdue(ctx context.Context, now time.Time) ([]*models.Lottery, error) {
	filter := bson.M{
		"state":  models.LotteryStateActive,
		"endsAt": bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.M{"endsAt": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var lotteries []*models.Lottery
	if err := cursor.All(ctx, &lotteries); err != nil {
		return nil, err
	}
	if lotteries == nil {
		lotteries = []*models.Lottery{}
	}
	return lotteries, nil
}

// FindEndingBetween finds active lotteries whose deadline falls inside the window
func (r *LotteryRepository) FindEndingBetween(ctx context.Context, from, until time.Time) ([]*models.Lottery, error) {
	filter := bson.M{
		"state": models.LotteryStateActive,
		"endsAt": bson.M{
			"$gt":  from,
			"$lte": until,
		},
	}
	opts := options.Find().SetSort(bson.M{"endsAt": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var lotteries []*models.Lottery
	if err := cursor.All(ctx, &lotteries); err != nil {
		return nil, err
	}
	if lotteries == nil {
		lotteries = []*models.Lottery{}
	}
	return lotteries, nil
}

// Activate performs the conditional draft -> active transition
func (r *LotteryRepository) Activate(ctx context.Context, id primitive.ObjectID, endsAt time.Time) (bool, error) {
	filter := bson.M{"_id": id, "state": models.LotteryStateDraft}
	update := bson.M{"$set": bson.M{
		"state":     models.LotteryStateActive,
		"endsAt":    endsAt,
		"updatedAt": time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// EndAndPersist performs the active -> ended compare-and-set and writes the
// winner assignments in the same transaction. Exactly one concurrent caller
// observes true; all others matched nothing and report false.
func (r *LotteryRepository) EndAndPersist(ctx context.Context, id primitive.ObjectID, drawnAt time.Time, assignments []*models.WinnerAssignment) (bool, error) {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return false, err
	}
	defer session.EndSession(ctx)

	ended, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		filter := bson.M{"_id": id, "state": models.LotteryStateActive}
		update := bson.M{"$set": bson.M{
			"state":     models.LotteryStateEnded,
			"drawnAt":   drawnAt,
			"updatedAt": time.Now(),
		}}
		res, err := r.collection.UpdateOne(sc, filter, update)
		if err != nil {
			return false, err
		}
		if res.ModifiedCount == 0 {
			// Lost the race: another trigger already ended this lottery.
			return false, nil
		}

		if len(assignments) > 0 {
			docs := make([]interface{}, 0, len(assignments))
			for _, a := range assignments {
				a.DrawnAt = drawnAt
				docs = append(docs, a)
			}
			if _, err := r.winners.InsertMany(sc, docs); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return ended.(bool), nil
}

// Delete deletes a lottery. The service layer only allows this in draft.
func (r *LotteryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
