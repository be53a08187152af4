package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/commboard/lottery-engine/internal/models"
	"github.com/commboard/lottery-engine/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubLotteryService returns canned results so handler tests exercise only
// the HTTP mapping.
type stubLotteryService struct {
	lottery   *models.Lottery
	endResult *services.EndResult
	err       error
	endCalls  int
}

var _ services.LotteryService = (*stubLotteryService)(nil)

func (s *stubLotteryService) CreateLottery(ctx context.Context, input services.CreateLotteryInput) (*models.Lottery, error) {
	return s.lottery, s.err
}

func (s *stubLotteryService) AddPacket(ctx context.Context, lotteryID primitive.ObjectID, input services.AddPacketInput) (*models.Packet, error) {
	return nil, s.err
}

func (s *stubLotteryService) Publish(ctx context.Context, lotteryID primitive.ObjectID) (*models.Lottery, error) {
	return s.lottery, s.err
}

func (s *stubLotteryService) EndLottery(ctx context.Context, lotteryID primitive.ObjectID) (*services.EndResult, error) {
	s.endCalls++
	return s.endResult, s.err
}

func (s *stubLotteryService) DeleteDraft(ctx context.Context, lotteryID primitive.ObjectID) error {
	return s.err
}

func (s *stubLotteryService) GetLottery(ctx context.Context, id primitive.ObjectID) (*models.Lottery, error) {
	return s.lottery, s.err
}

func (s *stubLotteryService) GetLotteriesByState(ctx context.Context, state models.LotteryState) ([]*models.Lottery, error) {
	return nil, s.err
}

func (s *stubLotteryService) GetPackets(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.Packet, error) {
	return nil, s.err
}

func (s *stubLotteryService) GetWinners(ctx context.Context, lotteryID primitive.ObjectID) ([]*models.WinnerAssignment, error) {
	return nil, s.err
}

func (s *stubLotteryService) ListOverdue(ctx context.Context, now time.Time) ([]*models.Lottery, error) {
	return nil, s.err
}

func (s *stubLotteryService) RegisterEntry(ctx context.Context, packetID, participantID primitive.ObjectID) error {
	return s.err
}

func (s *stubLotteryService) WithdrawEntry(ctx context.Context, packetID, participantID primitive.ObjectID) error {
	return s.err
}

func newTestRouter(service services.LotteryService, userID primitive.ObjectID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewLotteryHandler(service)
	router := gin.New()
	// Inject an authenticated user the way the JWT middleware would.
	router.Use(func(c *gin.Context) {
		c.Set("userID", userID.Hex())
		c.Set("userRole", role)
	})
	router.POST("/lotteries", handler.CreateLottery)
	router.POST("/lotteries/:id/publish", handler.Publish)
	router.POST("/lotteries/:id/end", handler.EndEarly)
	router.GET("/lotteries/:id", handler.GetLotteryByID)
	router.POST("/packets/:id/entries", handler.RegisterEntry)
	return router
}

func TestCreateLotteryHandler(t *testing.T) {
	lottery := &models.Lottery{ID: primitive.NewObjectID(), Title: "Spring giveaway", State: models.LotteryStateDraft}
	router := newTestRouter(&stubLotteryService{lottery: lottery}, primitive.NewObjectID(), "member")

	body, _ := json.Marshal(gin.H{
		"threadId":     primitive.NewObjectID().Hex(),
		"title":        "Spring giveaway",
		"drawingMode":  "automatic",
		"packetMode":   "multiple",
		"durationDays": 7,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/lotteries", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var got models.Lottery
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, lottery.Title, got.Title)
}

func TestCreateLotteryHandlerRejectsBadBody(t *testing.T) {
	router := newTestRouter(&stubLotteryService{}, primitive.NewObjectID(), "member")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/lotteries", bytes.NewReader([]byte(`{"title":""}`)))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServiceErrorMapping(t *testing.T) {
	id := primitive.NewObjectID().Hex()
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation error", services.NewValidationError("cannot publish a lottery without packets"), http.StatusUnprocessableEntity},
		{"invalid state", services.ErrInvalidState, http.StatusConflict},
		{"terminal state", services.ErrTerminalState, http.StatusConflict},
		{"feature disabled", services.ErrFeatureDisabled, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubLotteryService{err: tt.err}, primitive.NewObjectID(), "member")
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/lotteries/"+id+"/publish", nil)
			router.ServeHTTP(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestEndEarlyHandler(t *testing.T) {
	owner := primitive.NewObjectID()
	lottery := &models.Lottery{ID: primitive.NewObjectID(), OwnerID: owner, State: models.LotteryStateActive}
	id := lottery.ID.Hex()

	t.Run("drawn", func(t *testing.T) {
		result := &services.EndResult{
			Outcome: services.EndOutcomeDrawn,
			Assignments: []*models.WinnerAssignment{
				{ParticipantID: primitive.NewObjectID(), InstanceNumber: 1},
			},
		}
		router := newTestRouter(&stubLotteryService{lottery: lottery, endResult: result}, owner, "member")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/lotteries/"+id+"/end", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), string(services.EndOutcomeDrawn))
	})

	t.Run("concurrent trigger lost the race", func(t *testing.T) {
		result := &services.EndResult{Outcome: services.EndOutcomeAlreadyEnded}
		router := newTestRouter(&stubLotteryService{lottery: lottery, endResult: result}, owner, "member")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/lotteries/"+id+"/end", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), string(services.EndOutcomeAlreadyEnded))
	})

	t.Run("invalid id", func(t *testing.T) {
		router := newTestRouter(&stubLotteryService{}, owner, "member")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/lotteries/not-an-id/end", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEndEarlyAuthorization(t *testing.T) {
	owner := primitive.NewObjectID()
	lottery := &models.Lottery{ID: primitive.NewObjectID(), OwnerID: owner, State: models.LotteryStateActive}
	result := &services.EndResult{Outcome: services.EndOutcomeDrawn}

	t.Run("member who is not the owner is refused", func(t *testing.T) {
		stub := &stubLotteryService{lottery: lottery, endResult: result}
		router := newTestRouter(stub, primitive.NewObjectID(), "member")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/lotteries/"+lottery.ID.Hex()+"/end", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusForbidden, w.Code)
		require.Zero(t, stub.endCalls)
	})

	t.Run("staff may end any lottery", func(t *testing.T) {
		stub := &stubLotteryService{lottery: lottery, endResult: result}
		router := newTestRouter(stub, primitive.NewObjectID(), "staff")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/lotteries/"+lottery.ID.Hex()+"/end", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, 1, stub.endCalls)
	})

	t.Run("owner may end their own lottery", func(t *testing.T) {
		stub := &stubLotteryService{lottery: lottery, endResult: result}
		router := newTestRouter(stub, owner, "member")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/lotteries/"+lottery.ID.Hex()+"/end", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, 1, stub.endCalls)
	})
}

func TestPublishAuthorization(t *testing.T) {
	owner := primitive.NewObjectID()
	draft := &models.Lottery{ID: primitive.NewObjectID(), OwnerID: owner, State: models.LotteryStateDraft}

	t.Run("member who is not the owner is refused", func(t *testing.T) {
		router := newTestRouter(&stubLotteryService{lottery: draft}, primitive.NewObjectID(), "member")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/lotteries/"+draft.ID.Hex()+"/publish", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("owner may publish their draft", func(t *testing.T) {
		router := newTestRouter(&stubLotteryService{lottery: draft}, owner, "member")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/lotteries/"+draft.ID.Hex()+"/publish", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRegisterEntryHandlerRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewLotteryHandler(&stubLotteryService{})
	router := gin.New()
	router.POST("/packets/:id/entries", handler.RegisterEntry)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/packets/"+primitive.NewObjectID().Hex()+"/entries", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
