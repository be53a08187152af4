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

// EntryRepository implements the repositories.EntryRepository interface
type EntryRepository struct {
	collection *mongo.Collection
}

// NewEntryRepository creates a new EntryRepository
func NewEntryRepository(db *mongo.Database) repositories.EntryRepository {
	return &EntryRepository{
		collection: db.Collection("entries"),
	}
}

// Upsert registers a participant for a packet. The packetId+participantId
// pair carries a unique index, so re-registration updates nothing and keeps
// the original registration timestamp.
func (r *EntryRepository) Upsert(ctx context.Context, entry *models.Entry) error {
	filter := bson.M{
		"packetId":      entry.PacketID,
		"participantId": entry.ParticipantID,
	}
	registeredAt := entry.RegisteredAt
	if registeredAt.IsZero() {
		registeredAt = time.Now()
	}
	update := bson.M{"$setOnInsert": bson.M{
		"packetId":      entry.PacketID,
		"participantId": entry.ParticipantID,
		"registeredAt":  registeredAt,
	}}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// Delete withdraws a participant's entry for a packet
func (r *EntryRepository) Delete(ctx context.Context, packetID, participantID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{
		"packetId":      packetID,
		"participantId": participantID,
	})
	return err
}

// FindByPacketID finds all entries for a packet
func (r *EntryRepository) FindByPacketID(ctx context.Context, packetID primitive.ObjectID) ([]*models.Entry, error) {
	opts := options.Find().SetSort(bson.M{"registeredAt": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"packetId": packetID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.Entry{}
	}
	return entries, nil
}

// CountByPacketID counts the entries for a packet
func (r *EntryRepository) CountByPacketID(ctx context.Context, packetID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"packetId": packetID})
}

// FindByParticipantID finds all entries held by a participant
func (r *EntryRepository) FindByParticipantID(ctx context.Context, participantID primitive.ObjectID) ([]*models.Entry, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"participantId": participantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.Entry{}
	}
	return entries, nil
}
