package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/inventory"
	"github.com/mamadbah2/coldstore/internal/repository/mongodb"
	"github.com/mamadbah2/coldstore/internal/service/receipts"
	"github.com/mamadbah2/coldstore/internal/service/withdrawal"
)

// respondError maps service errors onto HTTP statuses and a JSON body with a
// stable machine-readable code.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var conflict *inventory.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":     conflict.Error(),
			"code":      "conflict",
			"conflicts": conflict.Conflicts,
		})
		return
	}

	var qErr *inventory.QuantityError
	if errors.As(err, &qErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       qErr.Error(),
			"code":        quantityCode(qErr.Err),
			"key":         qErr.Key,
			"max_allowed": qErr.MaxAllowed,
		})
		return
	}

	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, withdrawal.ErrSessionNotFound), errors.Is(err, mongodb.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, mongodb.ErrStaleQuantity):
		status, code = http.StatusConflict, "stale_quantity"
	case errors.Is(err, inventory.ErrEmptyLedger):
		status, code = http.StatusUnprocessableEntity, "empty_ledger"
	case errors.Is(err, inventory.ErrMalformedKey):
		status, code = http.StatusBadRequest, "malformed_key"
	case errors.Is(err, withdrawal.ErrInvalidDate), errors.Is(err, receipts.ErrInvalidDate),
		errors.Is(err, receipts.ErrNoEntries), errors.Is(err, inventory.ErrNotANumber),
		errors.Is(err, inventory.ErrNotPositive):
		status, code = http.StatusBadRequest, "invalid_request"
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func quantityCode(err error) string {
	switch {
	case errors.Is(err, inventory.ErrExceedsAvailable):
		return "exceeds_available"
	case errors.Is(err, inventory.ErrNotPositive):
		return "not_positive"
	case errors.Is(err, inventory.ErrUnknownEntry):
		return "unknown_entry"
	default:
		return "not_a_number"
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": "invalid_request"})
}
