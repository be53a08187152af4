package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DonationState represents the lifecycle state of a donation record
type DonationState string

const (
	DonationStateDraft     DonationState = "draft"
	DonationStateSubmitted DonationState = "submitted"
)

// MerchandiseState represents the shipping lifecycle of a donated-item packet
type MerchandiseState string

const (
	MerchandiseStatePending  MerchandiseState = "pending"
	MerchandiseStateShipped  MerchandiseState = "shipped"
	MerchandiseStateArchived MerchandiseState = "archived"
)

// Donation represents a donated-prize offer. A donation backs zero or more
// merchandise packets and outlives their archival.
type Donation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CreatorID primitive.ObjectID `bson:"creatorId" json:"creatorId"`
	Postcode  string             `bson:"postcode,omitempty" json:"postcode,omitempty"`
	State     DonationState      `bson:"state" json:"state"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MerchandisePacket represents a donated item on its way to a winner. The
// donor contact fields are cleared when the packet is archived; the state
// and ship-date audit trail stays.
type MerchandisePacket struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DonationID  primitive.ObjectID `bson:"donationId" json:"donationId"`
	PacketID    primitive.ObjectID `bson:"packetId,omitempty" json:"packetId,omitempty"`
	Description string             `bson:"description" json:"description"`
	State       MerchandiseState   `bson:"state" json:"state"`

	// Donor contact fields, nulled on archival.
	DonorName    *string `bson:"donorName,omitempty" json:"donorName,omitempty"`
	Street       *string `bson:"street,omitempty" json:"street,omitempty"`
	StreetNumber *string `bson:"streetNumber,omitempty" json:"streetNumber,omitempty"`
	Postcode     *string `bson:"postcode,omitempty" json:"postcode,omitempty"`
	City         *string `bson:"city,omitempty" json:"city,omitempty"`

	ShippedAt  time.Time `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
	ArchivedAt time.Time `bson:"archivedAt,omitempty" json:"archivedAt,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}
