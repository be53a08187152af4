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

// MerchandiseRepository implements the repositories.MerchandiseRepository interface
type MerchandiseRepository struct {
	collection *mongo.Collection
}

// NewMerchandiseRepository creates a new MerchandiseRepository
func NewMerchandiseRepository(db *mongo.Database) repositories.MerchandiseRepository {
	return &MerchandiseRepository{
		collection: db.Collection("merchandise_packets"),
	}
}

// Create creates a new merchandise packet in pending state
func (r *MerchandiseRepository) Create(ctx context.Context, packet *models.MerchandisePacket) error {
	packet.CreatedAt = time.Now()
	packet.UpdatedAt = time.Now()
	if packet.State == "" {
		packet.State = models.MerchandiseStatePending
	}
	res, err := r.collection.InsertOne(ctx, packet)
	if err != nil {
		return err
	}
	packet.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a merchandise packet by ID
func (r *MerchandiseRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.MerchandisePacket, error) {
	var packet models.MerchandisePacket
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&packet)
	if err != nil {
		return nil, err
	}
	return &packet, nil
}

// FindByDonationID finds all merchandise packets backed by a donation
func (r *MerchandiseRepository) FindByDonationID(ctx context.Context, donationID primitive.ObjectID) ([]*models.MerchandisePacket, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"donationId": donationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var packets []*models.MerchandisePacket
	if err := cursor.All(ctx, &packets); err != nil {
		return nil, err
	}
	if packets == nil {
		packets = []*models.MerchandisePacket{}
	}
	return packets, nil
}

// FindShippedBefore finds shipped packets whose ship date is older than the cutoff
func (r *MerchandiseRepository) FindShippedBefore(ctx context.Context, cutoff time.Time) ([]*models.MerchandisePacket, error) {
	filter := bson.M{
		"state":     models.MerchandiseStateShipped,
		"shippedAt": bson.M{"$lt": cutoff},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var packets []*models.MerchandisePacket
	if err := cursor.All(ctx, &packets); err != nil {
		return nil, err
	}
	if packets == nil {
		packets = []*models.MerchandisePacket{}
	}
	return packets, nil
}

// MarkShipped transitions a pending packet to shipped and stamps the ship date
func (r *MerchandiseRepository) MarkShipped(ctx context.Context, id primitive.ObjectID, shippedAt time.Time) error {
	filter := bson.M{"_id": id, "state": models.MerchandiseStatePending}
	update := bson.M{"$set": bson.M{
		"state":     models.MerchandiseStateShipped,
		"shippedAt": shippedAt,
		"updatedAt": time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Archive performs the conditional shipped -> archived transition and clears
// the donor contact fields. The shipped-state filter makes re-runs no-ops.
func (r *MerchandiseRepository) Archive(ctx context.Context, id primitive.ObjectID, archivedAt time.Time) (bool, error) {
	filter := bson.M{"_id": id, "state": models.MerchandiseStateShipped}
	update := bson.M{
		"$set": bson.M{
			"state":      models.MerchandiseStateArchived,
			"archivedAt": archivedAt,
			"updatedAt":  time.Now(),
		},
		"$unset": bson.M{
			"donorName":    "",
			"street":       "",
			"streetNumber": "",
			"postcode":     "",
			"city":         "",
		},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
