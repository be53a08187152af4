package handlers

import (
	"net/http"
	"strconv"

	"github.com/commboard/lottery-engine/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationService services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	return page, limit
}

// GetRecordsByRecipient handles GET /notifications/recipient/:id
func (h *NotificationHandler) GetRecordsByRecipient(c *gin.Context) {
	recipientID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	page, limit := pagination(c)
	records, err := h.notificationService.GetRecordsByRecipient(c.Request.Context(), recipientID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetRecordsByLottery handles GET /notifications/lottery/:id
func (h *NotificationHandler) GetRecordsByLottery(c *gin.Context) {
	lotteryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	page, limit := pagination(c)
	records, err := h.notificationService.GetRecordsByLottery(c.Request.Context(), lotteryID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Silence handles POST /notifications/silence
type SilenceRequest struct {
	LotteryID string `json:"lotteryId" binding:"required"`
}

// Silence permanently suppresses reminder notifications from one lottery for
// the authenticated user.
func (h *NotificationHandler) Silence(c *gin.Context) {
	var request SilenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lotteryID, err := primitive.ObjectIDFromHex(request.LotteryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lottery ID format"})
		return
	}
	recipientID, err := requesterID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err := h.notificationService.Silence(c.Request.Context(), recipientID, lotteryID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save silence preference: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reminders silenced for this lottery"})
}
