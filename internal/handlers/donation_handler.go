package handlers

import (
	"net/http"

	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DonationHandler handles donation-related HTTP requests
type DonationHandler struct {
	donationService services.DonationService
}

// NewDonationHandler creates a new DonationHandler
func NewDonationHandler(donationService services.DonationService) *DonationHandler {
	return &DonationHandler{
		donationService: donationService,
	}
}

// CreateDonation handles POST /donations
type CreateDonationRequest struct {
	Postcode string `json:"postcode" binding:"required"`
}

func (h *DonationHandler) CreateDonation(c *gin.Context) {
	var request CreateDonationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	creatorID, err := requesterID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	donation, err := h.donationService.CreateDonation(c.Request.Context(), creatorID, request.Postcode)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, donation)
}

// SubmitDonation handles POST /donations/:id/submit
func (h *DonationHandler) SubmitDonation(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if err := h.donationService.SubmitDonation(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Donation submitted"})
}

// AddMerchandisePacket handles POST /donations/:id/merchandise
type AddMerchandiseRequest struct {
	Description  string  `json:"description" binding:"required"`
	DonorName    *string `json:"donorName"`
	Street       *string `json:"street"`
	StreetNumber *string `json:"streetNumber"`
	Postcode     *string `json:"postcode"`
	City         *string `json:"city"`
}

func (h *DonationHandler) AddMerchandisePacket(c *gin.Context) {
	donationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var request AddMerchandiseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	packet := &models.MerchandisePacket{
		DonationID:   donationID,
		Description:  request.Description,
		State:        models.MerchandiseStatePending,
		DonorName:    request.DonorName,
		Street:       request.Street,
		StreetNumber: request.StreetNumber,
		Postcode:     request.Postcode,
		City:         request.City,
	}
	if err := h.donationService.AddMerchandisePacket(c.Request.Context(), packet); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, packet)
}

// MarkShipped handles POST /merchandise/:id/ship
func (h *DonationHandler) MarkShipped(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if err := h.donationService.MarkShipped(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Merchandise packet marked shipped"})
}

// GetMerchandiseByDonation handles GET /donations/:id/merchandise
func (h *DonationHandler) GetMerchandiseByDonation(c *gin.Context) {
	donationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	packets, err := h.donationService.GetMerchandiseByDonation(c.Request.Context(), donationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve merchandise: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, packets)
}
