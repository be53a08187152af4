package handlers

import (
	"errors"
	"net/http"

	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/policy"
	"github.com/commboard/lottery-engine/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// LotteryHandler handles lottery-related HTTP requests
type LotteryHandler struct {
	lotteryService services.LotteryService
}

// NewLotteryHandler creates a new LotteryHandler
func NewLotteryHandler(lotteryService services.LotteryService) *LotteryHandler {
	return &LotteryHandler{
		lotteryService: lotteryService,
	}
}

// respondServiceError maps the service error taxonomy to HTTP status codes.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidationError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTerminalState):
		c.JSON(http.StatusConflict, gin.H{"error": "The lottery has already ended"})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "The operation is not allowed in the lottery's current state"})
	case errors.Is(err, services.ErrFeatureDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "The lottery feature is disabled"})
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CreateLottery handles POST /lotteries
type CreateLotteryRequest struct {
	ThreadID     string `json:"threadId" binding:"required"`
	Title        string `json:"title" binding:"required"`
	DrawingMode  string `json:"drawingMode" binding:"required"`
	PacketMode   string `json:"packetMode" binding:"required"`
	DurationDays int    `json:"durationDays" binding:"required"`
}

func (h *LotteryHandler) CreateLottery(c *gin.Context) {
	var request CreateLotteryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	threadID, err := primitive.ObjectIDFromHex(request.ThreadID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thread ID format"})
		return
	}
	ownerID, err := requesterID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	lottery, err := h.lotteryService.CreateLottery(c.Request.Context(), services.CreateLotteryInput{
		ThreadID:     threadID,
		OwnerID:      ownerID,
		Title:        request.Title,
		DrawingMode:  models.DrawingMode(request.DrawingMode),
		PacketMode:   models.PacketMode(request.PacketMode),
		DurationDays: request.DurationDays,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lottery)
}

// AddPacket handles POST /lotteries/:id/packets
type AddPacketRequest struct {
	PostID                  string `json:"postId"`
	Name                    string `json:"name" binding:"required"`
	Ordinal                 int    `json:"ordinal"`
	InstanceCount           int    `json:"instanceCount" binding:"required"`
	RequiresConditionReport bool   `json:"requiresConditionReport"`
}

func (h *LotteryHandler) AddPacket(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var request AddPacketRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorizeLottery(c, id, policy.CanEdit) {
		return
	}
	input := services.AddPacketInput{
		Name:                    request.Name,
		Ordinal:                 request.Ordinal,
		InstanceCount:           request.InstanceCount,
		RequiresConditionReport: request.RequiresConditionReport,
	}
	if request.PostID != "" {
		postID, err := primitive.ObjectIDFromHex(request.PostID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID format"})
			return
		}
		input.PostID = postID
	}

	packet, err := h.lotteryService.AddPacket(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, packet)
}

// Publish handles POST /lotteries/:id/publish
func (h *LotteryHandler) Publish(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if !h.authorizeLottery(c, id, policy.CanEdit) {
		return
	}
	lottery, err := h.lotteryService.Publish(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, lottery)
}

// EndEarly handles POST /lotteries/:id/end
func (h *LotteryHandler) EndEarly(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if !h.authorizeLottery(c, id, policy.CanEndEarly) {
		return
	}
	result, err := h.lotteryService.EndLottery(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if result.Outcome == services.EndOutcomeAlreadyEnded {
		c.JSON(http.StatusOK, gin.H{"message": "Lottery already ended", "outcome": result.Outcome})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Lottery ended and winners drawn",
		"outcome":     result.Outcome,
		"assignments": result.Assignments,
	})
}

// DeleteDraft handles DELETE /lotteries/:id
func (h *LotteryHandler) DeleteDraft(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if !h.authorizeLottery(c, id, policy.CanEdit) {
		return
	}
	if err := h.lotteryService.DeleteDraft(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draft lottery deleted"})
}

// GetLotteryByID handles GET /lotteries/:id
func (h *LotteryHandler) GetLotteryByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	lottery, err := h.lotteryService.GetLottery(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lottery not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve lottery: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, lottery)
}

// GetLotteriesByState handles GET /lotteries/state/:state
func (h *LotteryHandler) GetLotteriesByState(c *gin.Context) {
	state := models.LotteryState(c.Param("state"))
	switch state {
	case models.LotteryStateDraft, models.LotteryStateActive, models.LotteryStateEnded:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state (draft, active or ended)"})
		return
	}
	lotteries, err := h.lotteryService.GetLotteriesByState(c.Request.Context(), state)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve lotteries: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, lotteries)
}

// GetPackets handles GET /lotteries/:id/packets
func (h *LotteryHandler) GetPackets(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	packets, err := h.lotteryService.GetPackets(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve packets: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, packets)
}

// GetWinners handles GET /lotteries/:id/winners
func (h *LotteryHandler) GetWinners(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	winners, err := h.lotteryService.GetWinners(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve winners: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, winners)
}

// RegisterEntry handles POST /packets/:id/entries
func (h *LotteryHandler) RegisterEntry(c *gin.Context) {
	packetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	participantID, err := requesterID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err := h.lotteryService.RegisterEntry(c.Request.Context(), packetID, participantID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Entry registered"})
}

// WithdrawEntry handles DELETE /packets/:id/entries
func (h *LotteryHandler) WithdrawEntry(c *gin.Context) {
	packetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	participantID, err := requesterID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err := h.lotteryService.WithdrawEntry(c.Request.Context(), packetID, participantID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Entry withdrawn"})
}

// authorizeLottery loads the lottery and checks the requester against the
// given access predicate. When the predicate would deny even a staff owner,
// the state itself forbids the action; that case falls through so the state
// machine reports the proper state error instead of a permission one.
func (h *LotteryHandler) authorizeLottery(c *gin.Context, id primitive.ObjectID, allowed func(models.LotteryState, policy.Role, bool) bool) bool {
	lottery, err := h.lotteryService.GetLottery(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return false
	}
	requester, err := requesterID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return false
	}
	isOwner := lottery.OwnerID == requester
	if !allowed(lottery.State, requesterRole(c), isOwner) && allowed(lottery.State, policy.RoleStaff, true) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the lottery owner or staff may perform this action"})
		return false
	}
	return true
}

// requesterRole extracts the authenticated user's role from the request
// context. Anything but an explicit staff claim counts as a regular member.
func requesterRole(c *gin.Context) policy.Role {
	raw, exists := c.Get("userRole")
	if !exists {
		return policy.RoleMember
	}
	switch v := raw.(type) {
	case string:
		if policy.Role(v) == policy.RoleStaff {
			return policy.RoleStaff
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && policy.Role(s) == policy.RoleStaff {
				return policy.RoleStaff
			}
		}
	}
	return policy.RoleMember
}

// requesterID extracts the authenticated user's ID from the request context.
func requesterID(c *gin.Context) (primitive.ObjectID, error) {
	raw, exists := c.Get("userID")
	if !exists {
		return primitive.NilObjectID, errors.New("missing authentication context")
	}
	hex, ok := raw.(string)
	if !ok {
		return primitive.NilObjectID, errors.New("invalid authentication context")
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid user ID in token")
	}
	return id, nil
}
