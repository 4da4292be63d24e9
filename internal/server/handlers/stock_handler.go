package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/inventory"
	"github.com/mamadbah2/coldstore/internal/service/receipts"
)

// StockService is the read side of the store.
type StockService interface {
	Summary(ctx context.Context, mode inventory.Mode, filter inventory.LocationFilter) (inventory.StockSummary, error)
	Breakdown(ctx context.Context, sel inventory.Selector, filter inventory.LocationFilter) (inventory.Breakdown, error)
	LotGroups(ctx context.Context, filter inventory.LocationFilter, order inventory.SortOrder) ([]inventory.DateGroup, error)
	Locations(ctx context.Context) (inventory.LocationValues, error)
}

// ReceiptService registers and fetches lots.
type ReceiptService interface {
	Register(ctx context.Context, req receipts.RegisterRequest) (models.Lot, error)
	Get(ctx context.Context, id string) (models.Lot, error)
}

// StockHandler serves lot browsing, receipts and stock tables.
type StockHandler struct {
	stock    StockService
	receipts ReceiptService
	logger   *zap.Logger
}

// NewStockHandler constructs the HTTP handler adapter.
func NewStockHandler(stock StockService, receipts ReceiptService, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{stock: stock, receipts: receipts, logger: logger}
}

// ListLots returns receipts grouped by date, filtered by location.
func (h *StockHandler) ListLots(c *gin.Context) {
	var filter inventory.LocationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "invalid location filter")
		return
	}

	order := inventory.SortOrder(c.DefaultQuery("order", string(inventory.SortAscending)))
	if order != inventory.SortAscending && order != inventory.SortDescending {
		badRequest(c, "order must be asc or desc")
		return
	}

	groups, err := h.stock.LotGroups(c.Request.Context(), filter, order)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// Locations returns the distinct location values for filter pickers.
func (h *StockHandler) Locations(c *gin.Context) {
	values, err := h.stock.Locations(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, values)
}

// GetLot returns one lot.
func (h *StockHandler) GetLot(c *gin.Context) {
	lot, err := h.receipts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// RegisterLot stores a new receipt.
func (h *StockHandler) RegisterLot(c *gin.Context) {
	var req receipts.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid receipt payload", zap.Error(err))
		badRequest(c, "invalid request body")
		return
	}

	lot, err := h.receipts.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, lot)
}

// Stock returns the variety by size table.
func (h *StockHandler) Stock(c *gin.Context) {
	mode, err := inventory.ParseMode(c.Query("mode"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var filter inventory.LocationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "invalid location filter")
		return
	}

	summary, err := h.stock.Summary(c.Request.Context(), mode, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Breakdown returns the lots behind one cell of the stock table.
func (h *StockHandler) Breakdown(c *gin.Context) {
	mode, err := inventory.ParseMode(c.Query("mode"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var filter inventory.LocationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "invalid location filter")
		return
	}

	isTotal := false
	if raw := c.Query("total"); raw != "" {
		isTotal, err = strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "total must be a boolean")
			return
		}
	}

	sel := inventory.Selector{
		Variety: c.Query("variety"),
		Size:    c.Query("size"),
		IsTotal: isTotal,
		Mode:    mode,
	}
	breakdown, err := h.stock.Breakdown(c.Request.Context(), sel, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}
