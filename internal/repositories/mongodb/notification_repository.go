package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository implements the repositories.NotificationRepository
// interface. Records are append-only; there is no update method.
type NotificationRepository struct {
	collection *mongo.Collection
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *mongo.Database) repositories.NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notification_records"),
	}
}

// Create appends one delivery-attempt record
func (r *NotificationRepository) Create(ctx context.Context, record *models.NotificationRecord) error {
	record.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return err
	}
	record.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *NotificationRepository) findPaged(ctx context.Context, filter bson.M, page, limit int) ([]*models.NotificationRecord, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.NotificationRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []*models.NotificationRecord{}
	}
	return records, nil
}

// FindByRecipientID finds a recipient's records with pagination
func (r *NotificationRepository) FindByRecipientID(ctx context.Context, recipientID primitive.ObjectID, page, limit int) ([]*models.NotificationRecord, error) {
	return r.findPaged(ctx, bson.M{"recipientId": recipientID}, page, limit)
}

// FindByLotteryID finds a lottery's records with pagination
func (r *NotificationRepository) FindByLotteryID(ctx context.Context, lotteryID primitive.ObjectID, page, limit int) ([]*models.NotificationRecord, error) {
	return r.findPaged(ctx, bson.M{"lotteryId": lotteryID}, page, limit)
}

// HasSucceeded reports whether a successful attempt of the kind already
// exists for the recipient/lottery pair
func (r *NotificationRepository) HasSucceeded(ctx context.Context, recipientID, lotteryID primitive.ObjectID, kind models.NotificationKind) (bool, error) {
	filter := bson.M{
		"recipientId": recipientID,
		"lotteryId":   lotteryID,
		"kind":        kind,
		"success":     true,
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindFailedReminders returns the latest failed reminder attempt per
// recipient/lottery/kind that has no successful attempt at all.
func (r *NotificationRepository) FindFailedReminders(ctx context.Context) ([]*models.NotificationRecord, error) {
	reminderKinds := []models.NotificationKind{
		models.NotificationKindDonationReminder,
		models.NotificationKindConditionReportReminder,
	}
	filter := bson.M{"kind": bson.M{"$in": reminderKinds}}
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.NotificationRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	// A key is done once any attempt for it succeeded; otherwise the newest
	// failure is the retry candidate. Records arrive newest first.
	succeeded := make(map[string]bool)
	for _, record := range records {
		if record.Success {
			succeeded[recordKey(record)] = true
		}
	}
	picked := make(map[string]bool)
	var failed []*models.NotificationRecord
	for _, record := range records {
		key := recordKey(record)
		if record.Success || succeeded[key] || picked[key] {
			continue
		}
		picked[key] = true
		failed = append(failed, record)
	}
	if failed == nil {
		failed = []*models.NotificationRecord{}
	}
	return failed, nil
}

func recordKey(record *models.NotificationRecord) string {
	return fmt.Sprintf("%s/%s/%s", record.RecipientID.Hex(), record.LotteryID.Hex(), record.Kind)
}

// Count gets the total number of records
func (r *NotificationRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
