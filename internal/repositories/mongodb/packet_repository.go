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

// PacketRepository implements the repositories.PacketRepository interface
type PacketRepository struct {
	collection *mongo.Collection
}

// NewPacketRepository creates a new PacketRepository
func NewPacketRepository(db *mongo.Database) repositories.PacketRepository {
	return &PacketRepository{
		collection: db.Collection("packets"),
	}
}

// Create creates a new packet
func (r *PacketRepository) Create(ctx context.Context, packet *models.Packet) error {
	packet.CreatedAt = time.Now()
	packet.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, packet)
	if err != nil {
		return err
	}
	packet.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a packet by ID
func (r *PacketRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Packet, error) {
	var packet models.Packet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&packet)
	if err != nil {
		return nil, err
	}
	return &packet, nil
}

// FindByLotteryID finds a lottery's packets in ascending ordinal order
func (r *PacketRepository) FindByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.Packet, error) {
	opts := options.Find().SetSort(bson.M{"ordinal": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"lotteryId": lotteryID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var packets []*models.Packet
	if err := cursor.All(ctx, &packets); err != nil {
		return nil, err
	}
	if packets == nil {
		packets = []*models.Packet{}
	}
	return packets, nil
}

// CountByLotteryID counts a lottery's packets
func (r *PacketRepository) CountByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"lotteryId": lotteryID})
}

// DeleteByLotteryID deletes all packets of a lottery (draft cleanup only)
func (r *PacketRepository) DeleteByLotteryID(ctx context.Context, lotteryID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"lotteryId": lotteryID})
	return err
}
