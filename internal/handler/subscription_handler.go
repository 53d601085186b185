package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/response"
	"github.com/stemsi/minilms-backend/internal/service"
)

// SubscriptionHandler handles session packages.
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	log                 zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService, log zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		log:                 log.With().Str("component", "subscription_handler").Logger(),
	}
}

// ListSubscriptions godoc
// GET /api/subscriptions/
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	params, ok := listParams(c)
	if !ok {
		return
	}

	subs, err := h.subscriptionService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, subs, pagination(params, len(subs)))
}

// ListStudentSubscriptions godoc
// GET /api/subscriptions/student/:id
func (h *SubscriptionHandler) ListStudentSubscriptions(c *gin.Context) {
	studentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	subs, err := h.subscriptionService.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, subs)
}

// GetSubscription godoc
// GET /api/subscriptions/:id
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sub, err := h.subscriptionService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, sub)
}

// CreateSubscription godoc
// POST /api/subscriptions/
// Creates an active subscription with no sessions used.
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req model.CreateSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, sub)
}

// UpdateSubscription godoc
// PUT /api/subscriptions/:id
// Updates the provided fields, including is_active.
func (h *SubscriptionHandler) UpdateSubscription(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, sub)
}

// UseSession godoc
// PATCH /api/subscriptions/:id/use-session
// Consumes one session of an active subscription.
func (h *SubscriptionHandler) UseSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sub, err := h.subscriptionService.UseSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":            "Session used successfully",
		"used_sessions":      sub.UsedSessions,
		"remaining_sessions": sub.RemainingSessions(),
		"subscription":       sub,
	})
}

// DeleteSubscription godoc
// DELETE /api/subscriptions/:id
func (h *SubscriptionHandler) DeleteSubscription(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.subscriptionService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Subscription deleted successfully"})
}
