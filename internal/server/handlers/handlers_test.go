package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/inventory"
	"github.com/mamadbah2/coldstore/internal/repository/mongodb"
	"github.com/mamadbah2/coldstore/internal/service/receipts"
	"github.com/mamadbah2/coldstore/internal/service/withdrawal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStock struct {
	mode     inventory.Mode
	filter   inventory.LocationFilter
	order    inventory.SortOrder
	selector inventory.Selector
	err      error
}

func (f *fakeStock) Summary(ctx context.Context, mode inventory.Mode, filter inventory.LocationFilter) (inventory.StockSummary, error) {
	f.mode, f.filter = mode, filter
	return inventory.StockSummary{Mode: mode, Sizes: []string{"Seed"}, GrandTotal: decimal.NewFromInt(12)}, f.err
}

func (f *fakeStock) Breakdown(ctx context.Context, sel inventory.Selector, filter inventory.LocationFilter) (inventory.Breakdown, error) {
	f.selector = sel
	return inventory.Breakdown{Selector: sel}, f.err
}

func (f *fakeStock) LotGroups(ctx context.Context, filter inventory.LocationFilter, order inventory.SortOrder) ([]inventory.DateGroup, error) {
	f.filter, f.order = filter, order
	return []inventory.DateGroup{{Date: "2026-02-10", Label: "10 Feb 2026"}}, f.err
}

func (f *fakeStock) Locations(ctx context.Context) (inventory.LocationValues, error) {
	return inventory.LocationValues{Chambers: []string{"1", "2"}}, f.err
}

type fakeReceipts struct {
	err error
}

func (f *fakeReceipts) Register(ctx context.Context, req receipts.RegisterRequest) (models.Lot, error) {
	if f.err != nil {
		return models.Lot{}, f.err
	}
	return models.Lot{ID: "lot-new", Variety: req.Variety, ReceiptNumber: 8}, nil
}

func (f *fakeReceipts) Get(ctx context.Context, id string) (models.Lot, error) {
	if id != "lot-1" {
		return models.Lot{}, mongodb.ErrNotFound
	}
	return models.Lot{ID: id}, nil
}

type fakeWithdrawal struct {
	err        error
	startedFor string
	setReq     withdrawal.AllocationRequest
	removed    string
	submitted  withdrawal.SubmitRequest
	limit      int64
}

func (f *fakeWithdrawal) Start(ctx context.Context, deliveryID string) (withdrawal.SessionView, error) {
	f.startedFor = deliveryID
	return withdrawal.SessionView{ID: "s1", DeliveryID: deliveryID}, f.err
}

func (f *fakeWithdrawal) View(ctx context.Context, sessionID string) (withdrawal.SessionView, error) {
	if sessionID != "s1" {
		return withdrawal.SessionView{}, withdrawal.ErrSessionNotFound
	}
	return withdrawal.SessionView{ID: sessionID}, nil
}

func (f *fakeWithdrawal) SetQuantity(ctx context.Context, sessionID string, req withdrawal.AllocationRequest) (withdrawal.SessionView, error) {
	f.setReq = req
	return withdrawal.SessionView{ID: sessionID}, f.err
}

func (f *fakeWithdrawal) RemoveAllocation(ctx context.Context, sessionID, key string) (withdrawal.SessionView, error) {
	f.removed = key
	return withdrawal.SessionView{ID: sessionID}, f.err
}

func (f *fakeWithdrawal) Discard(sessionID string) error {
	return f.err
}

func (f *fakeWithdrawal) Submit(ctx context.Context, sessionID string, req withdrawal.SubmitRequest) (models.Delivery, error) {
	f.submitted = req
	if f.err != nil {
		return models.Delivery{}, f.err
	}
	return models.Delivery{ID: "d1", Number: 4, Date: req.Date}, nil
}

func (f *fakeWithdrawal) ListDeliveries(ctx context.Context, limit int64) ([]models.Delivery, error) {
	f.limit = limit
	return []models.Delivery{{ID: "d1"}}, f.err
}

func (f *fakeWithdrawal) GetDelivery(ctx context.Context, id string) (models.Delivery, error) {
	if id != "d1" {
		return models.Delivery{}, mongodb.ErrNotFound
	}
	return models.Delivery{ID: id}, nil
}

func newEngine(stock *fakeStock, rec *fakeReceipts, wd *fakeWithdrawal) *gin.Engine {
	sh := NewStockHandler(stock, rec, nil)
	wh := NewSessionHandler(wd, nil)

	r := gin.New()
	r.GET("/api/lots", sh.ListLots)
	r.GET("/api/lots/locations", sh.Locations)
	r.GET("/api/lots/:id", sh.GetLot)
	r.POST("/api/lots", sh.RegisterLot)
	r.GET("/api/stock", sh.Stock)
	r.GET("/api/stock/breakdown", sh.Breakdown)
	r.POST("/api/sessions", wh.Start)
	r.GET("/api/sessions/:id", wh.Get)
	r.PUT("/api/sessions/:id/allocations", wh.SetAllocation)
	r.DELETE("/api/sessions/:id/allocations/*key", wh.RemoveAllocation)
	r.DELETE("/api/sessions/:id", wh.Discard)
	r.POST("/api/sessions/:id/submit", wh.Submit)
	r.GET("/api/deliveries", wh.ListDeliveries)
	r.GET("/api/deliveries/:id", wh.GetDelivery)
	return r
}

func do(r http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestStock(t *testing.T) {
	stock := &fakeStock{}
	r := newEngine(stock, &fakeReceipts{}, &fakeWithdrawal{})

	rec, body := do(r, http.MethodGet, "/api/stock?mode=outgoing&chamber=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, inventory.ModeOutgoing, stock.mode)
	assert.Equal(t, "2", stock.filter.Chamber)
	assert.Equal(t, "12", body["grand_total"])

	rec, body = do(r, http.MethodGet, "/api/stock?mode=weekly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", body["code"])
}

func TestBreakdown(t *testing.T) {
	stock := &fakeStock{}
	r := newEngine(stock, &fakeReceipts{}, &fakeWithdrawal{})

	rec, _ := do(r, http.MethodGet, "/api/stock/breakdown?variety=Jyoti&size=Total&total=true&mode=initial", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, inventory.Selector{Variety: "Jyoti", Size: "Total", IsTotal: true, Mode: inventory.ModeInitial}, stock.selector)

	rec, _ = do(r, http.MethodGet, "/api/stock/breakdown?total=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListLots(t *testing.T) {
	stock := &fakeStock{}
	r := newEngine(stock, &fakeReceipts{}, &fakeWithdrawal{})

	rec, body := do(r, http.MethodGet, "/api/lots?order=desc&floor=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, inventory.SortDescending, stock.order)
	assert.Equal(t, "3", stock.filter.Floor)
	assert.Len(t, body["groups"], 1)

	rec, _ = do(r, http.MethodGet, "/api/lots?order=sideways", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(r, http.MethodGet, "/api/lots/locations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"1", "2"}, body["chambers"])

	stock.err = errors.New("mongo down")
	rec, body = do(r, http.MethodGet, "/api/lots", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", body["error"])
}

func TestLots_RegisterAndGet(t *testing.T) {
	r := newEngine(&fakeStock{}, &fakeReceipts{}, &fakeWithdrawal{})

	rec, body := do(r, http.MethodPost, "/api/lots", `{"variety":"Jyoti","entries":[{"size":"Seed","quantity":"4"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "lot-new", body["id"])

	rec, _ = do(r, http.MethodPost, "/api/lots", `{"entries":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(r, http.MethodGet, "/api/lots/lot-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, body = do(r, http.MethodGet, "/api/lots/lot-9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["code"])

	bad := newEngine(&fakeStock{}, &fakeReceipts{err: receipts.ErrNoEntries}, &fakeWithdrawal{})
	rec, _ = do(bad, http.MethodPost, "/api/lots", `{"variety":"Jyoti"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessions_StartAndGet(t *testing.T) {
	wd := &fakeWithdrawal{}
	r := newEngine(&fakeStock{}, &fakeReceipts{}, wd)

	rec, body := do(r, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s1", body["id"])
	assert.Empty(t, wd.startedFor)

	rec, _ = do(r, http.MethodPost, "/api/sessions", `{"delivery_id":"d1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "d1", wd.startedFor)

	rec, _ = do(r, http.MethodPost, "/api/sessions", `{"delivery_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(r, http.MethodGet, "/api/sessions/s1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, body = do(r, http.MethodGet, "/api/sessions/s2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "session not found", body["error"])
}

func TestSessions_SetAllocation(t *testing.T) {
	wd := &fakeWithdrawal{}
	r := newEngine(&fakeStock{}, &fakeReceipts{}, wd)

	rec, _ := do(r, http.MethodPut, "/api/sessions/s1/allocations", `{"lot_id":"lot-1","size":"Seed","location_index":1,"quantity":"2.5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, withdrawal.AllocationRequest{LotID: "lot-1", Size: "Seed", LocationIndex: 1, Quantity: "2.5"}, wd.setReq)

	rec, _ = do(r, http.MethodPut, "/api/sessions/s1/allocations", `{"lot_id":"lot-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessions_QuantityErrors(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"exceeds", &inventory.QuantityError{Err: inventory.ErrExceedsAvailable, Key: "lot-1::Seed::0", MaxAllowed: decimal.NewFromInt(7)}, "exceeds_available"},
		{"not a number", &inventory.QuantityError{Err: inventory.ErrNotANumber, Key: "lot-1::Seed::0", MaxAllowed: decimal.NewFromInt(7)}, "not_a_number"},
		{"unknown entry", &inventory.QuantityError{Err: inventory.ErrUnknownEntry, Key: "lot-1::Seed::0", MaxAllowed: decimal.NewFromInt(7)}, "unknown_entry"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngine(&fakeStock{}, &fakeReceipts{}, &fakeWithdrawal{err: tc.err})
			rec, body := do(r, http.MethodPut, "/api/sessions/s1/allocations", `{"lot_id":"lot-1","size":"Seed","quantity":"9"}`)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tc.wantCode, body["code"])
			assert.Equal(t, "lot-1::Seed::0", body["key"])
			assert.Equal(t, "7", body["max_allowed"])
		})
	}
}

func TestSessions_RemoveAndDiscard(t *testing.T) {
	wd := &fakeWithdrawal{}
	r := newEngine(&fakeStock{}, &fakeReceipts{}, wd)

	key := inventory.EncodeKey("lot-1", "Number 12", 0)
	rec, _ := do(r, http.MethodDelete, "/api/sessions/s1/allocations/"+url.PathEscape(key), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, key, wd.removed)

	slashed := inventory.EncodeKey("lot-1", "50/60", 1)
	rec, _ = do(r, http.MethodDelete, "/api/sessions/s1/allocations/"+url.PathEscape(slashed), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, slashed, wd.removed)

	rec, _ = do(r, http.MethodDelete, "/api/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	malformed := newEngine(&fakeStock{}, &fakeReceipts{}, &fakeWithdrawal{err: inventory.ErrMalformedKey})
	rec, body := do(malformed, http.MethodDelete, "/api/sessions/s1/allocations/junk", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "malformed_key", body["code"])
}

func TestSessions_Submit(t *testing.T) {
	wd := &fakeWithdrawal{}
	r := newEngine(&fakeStock{}, &fakeReceipts{}, wd)

	rec, body := do(r, http.MethodPost, "/api/sessions/s1/submit", `{"date":"2026-02-12","party":"Kumar"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(4), body["number"])
	assert.Equal(t, "Kumar", wd.submitted.Party)

	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty", inventory.ErrEmptyLedger, http.StatusUnprocessableEntity, "empty_ledger"},
		{"bad date", withdrawal.ErrInvalidDate, http.StatusBadRequest, "invalid_request"},
		{"stale", errors.Join(errors.New("commit delivery"), mongodb.ErrStaleQuantity), http.StatusConflict, "stale_quantity"},
		{"conflict", &inventory.ConflictError{Conflicts: []inventory.Conflict{{Key: "lot-1::Seed::0", Requested: decimal.NewFromInt(9), Available: decimal.NewFromInt(2)}}}, http.StatusConflict, "conflict"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngine(&fakeStock{}, &fakeReceipts{}, &fakeWithdrawal{err: tc.err})
			rec, body := do(r, http.MethodPost, "/api/sessions/s1/submit", "")
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantCode, body["code"])
		})
	}
}

func TestDeliveries(t *testing.T) {
	wd := &fakeWithdrawal{}
	r := newEngine(&fakeStock{}, &fakeReceipts{}, wd)

	rec, body := do(r, http.MethodGet, "/api/deliveries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(defaultDeliveryLimit), wd.limit)
	assert.Len(t, body["deliveries"], 1)

	rec, _ = do(r, http.MethodGet, "/api/deliveries?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), wd.limit)

	rec, _ = do(r, http.MethodGet, "/api/deliveries?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(r, http.MethodGet, "/api/deliveries/d1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(r, http.MethodGet, "/api/deliveries/d9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
