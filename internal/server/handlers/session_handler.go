package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/service/withdrawal"
)

const defaultDeliveryLimit = 50

// WithdrawalService composes and stores deliveries.
type WithdrawalService interface {
	Start(ctx context.Context, deliveryID string) (withdrawal.SessionView, error)
	View(ctx context.Context, sessionID string) (withdrawal.SessionView, error)
	SetQuantity(ctx context.Context, sessionID string, req withdrawal.AllocationRequest) (withdrawal.SessionView, error)
	RemoveAllocation(ctx context.Context, sessionID, key string) (withdrawal.SessionView, error)
	Discard(sessionID string) error
	Submit(ctx context.Context, sessionID string, req withdrawal.SubmitRequest) (models.Delivery, error)
	ListDeliveries(ctx context.Context, limit int64) ([]models.Delivery, error)
	GetDelivery(ctx context.Context, id string) (models.Delivery, error)
}

// SessionHandler serves withdrawal sessions and stored deliveries.
type SessionHandler struct {
	svc    WithdrawalService
	logger *zap.Logger
}

// NewSessionHandler constructs the HTTP handler adapter.
func NewSessionHandler(svc WithdrawalService, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{svc: svc, logger: logger}
}

type startSessionRequest struct {
	DeliveryID string `json:"delivery_id"`
}

// Start opens a new session, or an edit session when delivery_id is given.
func (h *SessionHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}

	view, err := h.svc.Start(c.Request.Context(), req.DeliveryID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Get returns the session's rows and review summary.
func (h *SessionHandler) Get(c *gin.Context) {
	view, err := h.svc.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetAllocation validates and stores one quantity; "0" removes it.
func (h *SessionHandler) SetAllocation(c *gin.Context) {
	var req withdrawal.AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	view, err := h.svc.SetQuantity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveAllocation drops one key from the session. The key is a catch-all
// path parameter so size labels may contain slashes.
func (h *SessionHandler) RemoveAllocation(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	view, err := h.svc.RemoveAllocation(c.Request.Context(), c.Param("id"), key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Discard closes the session without saving.
func (h *SessionHandler) Discard(c *gin.Context) {
	if err := h.svc.Discard(c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Submit commits the session as a delivery.
func (h *SessionHandler) Submit(c *gin.Context) {
	var req withdrawal.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}

	delivery, err := h.svc.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, delivery)
}

// ListDeliveries returns recent deliveries, newest first.
func (h *SessionHandler) ListDeliveries(c *gin.Context) {
	limit := int64(defaultDeliveryLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	deliveries, err := h.svc.ListDeliveries(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": deliveries})
}

// GetDelivery returns one stored delivery.
func (h *SessionHandler) GetDelivery(c *gin.Context) {
	delivery, err := h.svc.GetDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}
