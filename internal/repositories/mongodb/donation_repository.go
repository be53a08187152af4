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

// DonationRepository implements the repositories.DonationRepository interface
type DonationRepository struct {
	collection *mongo.Collection
}

// NewDonationRepository creates a new DonationRepository
func NewDonationRepository(db *mongo.Database) repositories.DonationRepository {
	return &DonationRepository{
		collection: db.Collection("donations"),
	}
}

// Create creates a new donation
func (r *DonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	donation.CreatedAt = time.Now()
	donation.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, donation)
	if err != nil {
		return err
	}
	donation.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a donation by ID
func (r *DonationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Donation, error) {
	var donation models.Donation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&donation)
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

// FindByCreatorID finds all donations created by a user
func (r *DonationRepository) FindByCreatorID(ctx context.Context, creatorID primitive.ObjectID) ([]*models.Donation, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"creatorId": creatorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var donations []*models.Donation
	if err := cursor.All(ctx, &donations); err != nil {
		return nil, err
	}
	if donations == nil {
		donations = []*models.Donation{}
	}
	return donations, nil
}

// UpdateState updates a donation's lifecycle state
func (r *DonationRepository) UpdateState(ctx context.Context, id primitive.ObjectID, state models.DonationState) error {
	update := bson.M{"$set": bson.M{
		"state":     state,
		"updatedAt": time.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
