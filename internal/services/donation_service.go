package services

import (
	"context"
	"fmt"
	"time"

	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure DonationServiceImpl implements DonationService
var _ DonationService = (*DonationServiceImpl)(nil)

// DonationServiceImpl handles donation records and their merchandise packets
type DonationServiceImpl struct {
	donationRepo    repositories.DonationRepository
	merchandiseRepo repositories.MerchandiseRepository
}

// NewDonationService creates a new DonationServiceImpl
func NewDonationService(donationRepo repositories.DonationRepository, merchandiseRepo repositories.MerchandiseRepository) *DonationServiceImpl {
	return &DonationServiceImpl{
		donationRepo:    donationRepo,
		merchandiseRepo: merchandiseRepo,
	}
}

// CreateDonation creates a donation in draft state
func (s *DonationServiceImpl) CreateDonation(ctx context.Context, creatorID primitive.ObjectID, postcode string) (*models.Donation, error) {
	donation := &models.Donation{
		CreatorID: creatorID,
		Postcode:  postcode,
		State:     models.DonationStateDraft,
	}
	if err := s.donationRepo.Create(ctx, donation); err != nil {
		return nil, fmt.Errorf("failed to create donation: %w", err)
	}
	return donation, nil
}

// SubmitDonation moves a donation from draft to submitted
func (s *DonationServiceImpl) SubmitDonation(ctx context.Context, id primitive.ObjectID) error {
	donation, err := s.donationRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("donation not found: %w", err)
	}
	if donation.State != models.DonationStateDraft {
		return ErrInvalidState
	}
	return s.donationRepo.UpdateState(ctx, id, models.DonationStateSubmitted)
}

// AddMerchandisePacket attaches a donated-item packet to a donation
func (s *DonationServiceImpl) AddMerchandisePacket(ctx context.Context, packet *models.MerchandisePacket) error {
	if packet.DonationID.IsZero() {
		return NewValidationError("merchandise packet requires a donation reference")
	}
	if _, err := s.donationRepo.FindByID(ctx, packet.DonationID); err != nil {
		return fmt.Errorf("donation not found: %w", err)
	}
	if err := s.merchandiseRepo.Create(ctx, packet); err != nil {
		return fmt.Errorf("failed to create merchandise packet: %w", err)
	}
	return nil
}

// MarkShipped stamps a pending merchandise packet as shipped now. The ship
// date starts the retention clock for the donor's contact data.
func (s *DonationServiceImpl) MarkShipped(ctx context.Context, id primitive.ObjectID) error {
	if err := s.merchandiseRepo.MarkShipped(ctx, id, time.Now()); err != nil {
		return fmt.Errorf("failed to mark packet shipped: %w", err)
	}
	slog.Info("Merchandise packet marked shipped", "packetId", id)
	return nil
}

// GetMerchandiseByDonation lists a donation's merchandise packets
func (s *DonationServiceImpl) GetMerchandiseByDonation(ctx context.Context, donationID primitive.ObjectID) ([]*models.MerchandisePacket, error) {
	return s.merchandiseRepo.FindByDonationID(ctx, donationID)
}
