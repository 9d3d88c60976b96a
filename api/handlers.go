/*
handlers.go - HTTP API handlers for the marketplace engine

PURPOSE:
  Exposes the marketplace engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Products:
    GET    /api/products               List the catalog
    GET    /api/products/{id}          Get one product
    GET    /api/products/{id}/summary  Sales aggregates for one product

  Purchases:
    POST   /api/purchases              Buy units of a product
    POST   /api/purchases/preview      Dry-run the same preconditions

  Returns:
    POST   /api/returns/index          Return by active-list index
    POST   /api/returns/product        Return the holding of a product
    POST   /api/returns/latest         Return the most recent holding

  Buyers:
    GET    /api/buyers/{id}            Active purchase references
    GET    /api/buyers/{id}/history    Full log history, returns included
    GET    /api/buyers/{id}/summary    Spend aggregates

  Transactions:
    GET    /api/transactions           The whole append-only log

  Clock:
    GET    /api/clock                  Current logical tick

  Admin (privileged identity):
    POST   /api/admin/products                  Catalog a product
    POST   /api/admin/products/{name}/quantity  Restock
    PUT    /api/admin/products/{name}/price     Reprice
    POST   /api/admin/clock/advance             Move logical time forward

ERROR HANDLING:
  Engine errors map to statuses in one place (errorStatus):
  - 400: invalid quantities/prices, malformed bodies and params
  - 401: no caller identity on a route that needs one
  - 403: identity present but not privileged
  - 404: missing products, buyers, positions
  - 409: stock, repurchase, window, and duplicate conflicts
  - 500: anything the engine never promised

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/warp/storefront-engine/market"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers. The engine pointer is
// swapped when a scenario loads, so access goes through service(); the
// clock is shared across swaps and never replaced.
type Handler struct {
	mu    sync.RWMutex
	svc   *market.Service
	clock *market.ManualClock
	owner market.Identity

	currentScenario string
}

// NewHandler builds the engine this handler serves: a manual clock and a
// single-owner authorizer around the given identity.
func NewHandler(owner market.Identity) (*Handler, error) {
	clock := market.NewManualClock()
	svc, err := market.NewService(clock, market.SingleOwner(owner))
	if err != nil {
		return nil, err
	}
	return &Handler{svc: svc, clock: clock, owner: owner}, nil
}

// Service returns the engine currently behind the handler.
func (h *Handler) Service() *market.Service { return h.service() }

// Clock returns the shared manual clock. Scenario loads never replace it.
func (h *Handler) Clock() *market.ManualClock { return h.clock }

func (h *Handler) service() *market.Service {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.svc
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns the whole catalog.
// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.service().ListProducts()
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProduct returns one product by position.
// GET /api/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product id", err)
		return
	}
	product, err := h.service().GetProduct(id)
	if err != nil {
		writeEngineError(w, "Failed to get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(product))
}

// GetProductSummary returns replayed sales aggregates for one product.
// GET /api/products/{id}/summary
func (h *Handler) GetProductSummary(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product id", err)
		return
	}
	sum, err := h.service().ProductSummary(id)
	if err != nil {
		writeEngineError(w, "Failed to summarize product", err)
		return
	}
	writeJSON(w, http.StatusOK, ProductSummaryDTO{
		ProductID:     sum.ProductID,
		Name:          sum.Name,
		InStock:       sum.InStock,
		UnitsSold:     sum.UnitsSold,
		UnitsReturned: sum.UnitsReturned,
		NetUnits:      sum.NetUnits,
		GrossRevenue:  sum.GrossRevenue,
		NetRevenue:    sum.NetRevenue,
		BuyerCount:    sum.BuyerCount,
	})
}

// =============================================================================
// ADMIN HANDLERS - Behind RequireIdentity; the engine judges privilege
// =============================================================================

// CreateProduct catalogs a new product.
// POST /api/admin/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Product name is required", nil)
		return
	}

	svc := h.service()
	id, err := svc.AddProduct(req.Name, req.Quantity, req.Price, identityFrom(r.Context()))
	if err != nil {
		writeEngineError(w, "Failed to create product", err)
		return
	}

	product, err := svc.GetProduct(id)
	if err != nil {
		writeEngineError(w, "Failed to read back product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(product))
}

// AddQuantity restocks the named product.
// POST /api/admin/products/{name}/quantity
func (h *Handler) AddQuantity(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req AddQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "Field quantity is required", nil)
		return
	}

	svc := h.service()
	if err := svc.AddQuantity(name, *req.Quantity, identityFrom(r.Context())); err != nil {
		writeEngineError(w, "Failed to restock product", err)
		return
	}

	product, ok := svc.FindProduct(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(product))
}

// SetPrice reprices the named product.
// PUT /api/admin/products/{name}/price
func (h *Handler) SetPrice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req SetPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	svc := h.service()
	if err := svc.SetPrice(name, req.Price, identityFrom(r.Context())); err != nil {
		writeEngineError(w, "Failed to reprice product", err)
		return
	}

	product, ok := svc.FindProduct(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(product))
}

// AdvanceClock moves logical time forward. Only the owner may drive time.
// POST /api/admin/clock/advance
func (h *Handler) AdvanceClock(w http.ResponseWriter, r *http.Request) {
	if identityFrom(r.Context()) != h.owner {
		writeError(w, http.StatusForbidden, "Caller is not privileged", nil)
		return
	}

	var req AdvanceClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Ticks == 0 {
		req.Ticks = 1
	}

	now := h.clock.Advance(req.Ticks)
	zerolog.Ctx(r.Context()).Info().Uint64("now", now).Uint64("ticks", req.Ticks).Msg("clock advanced")
	writeJSON(w, http.StatusOK, ClockDTO{Now: now})
}

// =============================================================================
// PURCHASE HANDLERS
// =============================================================================

// SubmitPurchase buys units of a product for the calling identity.
// POST /api/purchases
func (h *Handler) SubmitPurchase(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePurchase(w, r)
	if !ok {
		return
	}

	svc := h.service()
	pos, err := svc.Buy(*req.ProductID, *req.Quantity, identityFrom(r.Context()))
	if err != nil {
		writeEngineError(w, "Purchase failed", err)
		return
	}

	tx, err := svc.Transaction(pos)
	if err != nil {
		writeEngineError(w, "Failed to read back transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(pos, tx))
}

// PreviewPurchase runs the purchase preconditions without buying.
// POST /api/purchases/preview
func (h *Handler) PreviewPurchase(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePurchase(w, r)
	if !ok {
		return
	}

	if err := h.service().CanBuy(*req.ProductID, *req.Quantity, identityFrom(r.Context())); err != nil {
		writeEngineError(w, "Purchase would fail", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodePurchase(w http.ResponseWriter, r *http.Request) (PurchaseRequest, bool) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return req, false
	}
	if req.ProductID == nil || req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "Fields product_id and quantity are required", nil)
		return req, false
	}
	return req, true
}

// =============================================================================
// RETURN HANDLERS
// =============================================================================

// ReturnByIndex returns the purchase at an index in the caller's active list.
// POST /api/returns/index
func (h *Handler) ReturnByIndex(w http.ResponseWriter, r *http.Request) {
	var req ReturnIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "Field index is required", nil)
		return
	}

	svc := h.service()
	pos, err := svc.ReturnByIndex(*req.Index, identityFrom(r.Context()))
	if err != nil {
		writeEngineError(w, "Return failed", err)
		return
	}
	h.writeReturn(w, svc, pos)
}

// ReturnByProduct returns the caller's active purchase of a product.
// A missing holding is idempotent success with no compensating entry.
// POST /api/returns/product
func (h *Handler) ReturnByProduct(w http.ResponseWriter, r *http.Request) {
	var req ReturnProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ProductID == nil {
		writeError(w, http.StatusBadRequest, "Field product_id is required", nil)
		return
	}

	if err := h.service().ReturnByProduct(*req.ProductID, identityFrom(r.Context())); err != nil {
		writeEngineError(w, "Return failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReturnLatest returns the caller's most recent active purchase.
// POST /api/returns/latest
func (h *Handler) ReturnLatest(w http.ResponseWriter, r *http.Request) {
	svc := h.service()
	pos, err := svc.ReturnLatest(identityFrom(r.Context()))
	if err != nil {
		writeEngineError(w, "Return failed", err)
		return
	}
	h.writeReturn(w, svc, pos)
}

func (h *Handler) writeReturn(w http.ResponseWriter, svc *market.Service, pos int) {
	tx, err := svc.Transaction(pos)
	if err != nil {
		writeEngineError(w, "Failed to read back transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(pos, tx))
}

// =============================================================================
// BUYER HANDLERS
// =============================================================================

// GetBuyer returns the identity's active purchase references.
// GET /api/buyers/{id}
func (h *Handler) GetBuyer(w http.ResponseWriter, r *http.Request) {
	id := market.Identity(chi.URLParam(r, "id"))
	buyer, err := h.service().GetBuyer(id)
	if err != nil {
		writeEngineError(w, "Failed to get buyer", err)
		return
	}
	writeJSON(w, http.StatusOK, toBuyerDTO(buyer))
}

// GetBuyerHistory returns every log entry for the identity, returns
// included, in log order.
// GET /api/buyers/{id}/history
func (h *Handler) GetBuyerHistory(w http.ResponseWriter, r *http.Request) {
	id := market.Identity(chi.URLParam(r, "id"))
	history, err := h.service().BuyerHistory(id)
	if err != nil {
		writeEngineError(w, "Failed to get buyer history", err)
		return
	}
	dtos := make([]HistoryEntryDTO, len(history))
	for i, tx := range history {
		dtos[i] = toHistoryEntryDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBuyerSummary returns replayed spend aggregates for the identity.
// GET /api/buyers/{id}/summary
func (h *Handler) GetBuyerSummary(w http.ResponseWriter, r *http.Request) {
	id := market.Identity(chi.URLParam(r, "id"))
	sum, err := h.service().BuyerSummary(id)
	if err != nil {
		writeEngineError(w, "Failed to summarize buyer", err)
		return
	}
	writeJSON(w, http.StatusOK, BuyerSummaryDTO{
		Account:        string(sum.Account),
		Purchases:      sum.Purchases,
		Returns:        sum.Returns,
		ActiveHoldings: sum.ActiveHoldings,
		NetSpend:       sum.NetSpend,
	})
}

// =============================================================================
// TRANSACTION + CLOCK HANDLERS
// =============================================================================

// ListTransactions returns the whole log with positions.
// GET /api/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := h.service().Transactions()
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(i, tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetClock reports the current logical tick.
// GET /api/clock
func (h *Handler) GetClock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ClockDTO{Now: h.service().Now()})
}

// =============================================================================
// HELPERS
// =============================================================================

func intParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

// errorStatus maps engine errors to HTTP statuses in one place.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, market.ErrUnauthorized):
		return http.StatusForbidden
	case market.IsInvalid(err):
		return http.StatusBadRequest
	case market.IsNotFound(err):
		return http.StatusNotFound
	case market.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, message string, err error) {
	writeError(w, errorStatus(err), message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
