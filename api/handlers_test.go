/*
handlers_test.go - HTTP tests for the marketplace API

Tests for:
- Purchase and return flows end to end through the router
- Admin operations (catalog, restock, reprice, clock control)
- Error-to-status mapping (400/401/403/404/409)
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/storefront-engine/market"
)

const testOwner = market.Identity("owner")

func newTestServer(t *testing.T) (*Handler, http.Handler) {
	h, err := NewHandler(testOwner)
	if err != nil {
		t.Fatalf("Failed to create handler: %v", err)
	}
	router := NewRouter(h, zerolog.Nop(), HeaderIdentity{}, []string{"*"})
	return h, router
}

// doJSON runs one request through the router. An empty identity sends no
// identity header at all.
func doJSON(t *testing.T, router http.Handler, method, path, identity string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if identity != "" {
		req.Header.Set(DefaultIdentityHeader, identity)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

func seedProduct(t *testing.T, h *Handler, name string, stock int64, price string) int {
	id, err := h.Service().AddProduct(name, stock, decimal.RequireFromString(price), testOwner)
	if err != nil {
		t.Fatalf("Failed to seed product %q: %v", name, err)
	}
	return id
}

// =============================================================================
// HEALTH + CLOCK
// =============================================================================

func TestHealth(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestClock_StartsAtZero(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/clock", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var clock ClockDTO
	decodeJSON(t, rec, &clock)
	if clock.Now != 0 {
		t.Errorf("Expected tick 0 on a fresh engine, got %d", clock.Now)
	}
}

func TestAdvanceClock_OwnerOnly(t *testing.T) {
	// GIVEN: A fresh engine
	_, router := newTestServer(t)

	// WHEN: A non-owner tries to advance the clock
	rec := doJSON(t, router, http.MethodPost, "/api/admin/clock/advance", "alice", nil)

	// THEN: Forbidden, and the clock has not moved
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for non-owner, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/clock", "", nil)
	var clock ClockDTO
	decodeJSON(t, rec, &clock)
	if clock.Now != 0 {
		t.Errorf("Expected tick 0 after rejected advance, got %d", clock.Now)
	}

	// WHEN: The owner advances with an empty body (defaults to one tick)
	rec = doJSON(t, router, http.MethodPost, "/api/admin/clock/advance", string(testOwner), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for owner, got %d", rec.Code)
	}
	decodeJSON(t, rec, &clock)
	if clock.Now != 1 {
		t.Errorf("Expected tick 1 after default advance, got %d", clock.Now)
	}

	// And an explicit tick count moves time by that much
	rec = doJSON(t, router, http.MethodPost, "/api/admin/clock/advance", string(testOwner), AdvanceClockRequest{Ticks: 5})
	decodeJSON(t, rec, &clock)
	if clock.Now != 6 {
		t.Errorf("Expected tick 6 after advancing 5, got %d", clock.Now)
	}
}

// =============================================================================
// PRODUCT ADMIN
// =============================================================================

func TestCreateProduct_Owner(t *testing.T) {
	// GIVEN: A fresh engine
	_, router := newTestServer(t)

	// WHEN: The owner catalogs a product
	rec := doJSON(t, router, http.MethodPost, "/api/admin/products", string(testOwner), CreateProductRequest{
		Name:     "walnut desk",
		Quantity: 4,
		Price:    decimal.RequireFromString("349.00"),
	})

	// THEN: Created, with the stored product echoed back
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var product ProductDTO
	decodeJSON(t, rec, &product)
	if product.ID != 0 {
		t.Errorf("Expected first product at position 0, got %d", product.ID)
	}
	if product.Name != "walnut desk" {
		t.Errorf("Expected name 'walnut desk', got %q", product.Name)
	}
	if product.Quantity != 4 {
		t.Errorf("Expected quantity 4, got %d", product.Quantity)
	}
	if len(product.Buyers) != 0 {
		t.Errorf("Expected no buyers on a new product, got %d", len(product.Buyers))
	}
}

func TestCreateProduct_RequiresIdentity(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/products", "", CreateProductRequest{
		Name: "walnut desk", Quantity: 4, Price: decimal.RequireFromString("349.00"),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without identity header, got %d", rec.Code)
	}
}

func TestCreateProduct_NotPrivileged(t *testing.T) {
	// GIVEN: A fresh engine
	h, router := newTestServer(t)

	// WHEN: A known but unprivileged identity tries to catalog
	rec := doJSON(t, router, http.MethodPost, "/api/admin/products", "mallory", CreateProductRequest{
		Name: "walnut desk", Quantity: 4, Price: decimal.RequireFromString("349.00"),
	})

	// THEN: Forbidden, and the catalog stays empty
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", rec.Code)
	}
	if got := len(h.Service().ListProducts()); got != 0 {
		t.Errorf("Expected empty catalog after rejected create, got %d products", got)
	}
}

func TestCreateProduct_DuplicateName(t *testing.T) {
	h, router := newTestServer(t)
	seedProduct(t, h, "walnut desk", 4, "349.00")

	rec := doJSON(t, router, http.MethodPost, "/api/admin/products", string(testOwner), CreateProductRequest{
		Name: "walnut desk", Quantity: 1, Price: decimal.RequireFromString("1.00"),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate name, got %d", rec.Code)
	}
}

func TestCreateProduct_MissingName(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/products", string(testOwner), CreateProductRequest{
		Quantity: 1, Price: decimal.RequireFromString("1.00"),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing name, got %d", rec.Code)
	}
}

func TestRestockAndReprice(t *testing.T) {
	// GIVEN: A cataloged product
	h, router := newTestServer(t)
	seedProduct(t, h, "reading lamp", 12, "42.50")

	// WHEN: The owner restocks it, escaping the space in the name
	qty := int64(3)
	rec := doJSON(t, router, http.MethodPost, "/api/admin/products/reading%20lamp/quantity", string(testOwner), AddQuantityRequest{Quantity: &qty})

	// THEN: The new stock level is echoed back
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var product ProductDTO
	decodeJSON(t, rec, &product)
	if product.Quantity != 15 {
		t.Errorf("Expected quantity 15 after restock, got %d", product.Quantity)
	}

	// WHEN: The owner reprices it
	rec = doJSON(t, router, http.MethodPut, "/api/admin/products/reading%20lamp/price", string(testOwner), SetPriceRequest{
		Price: decimal.RequireFromString("19.99"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	decodeJSON(t, rec, &product)
	if !product.Price.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("Expected price 19.99 after reprice, got %s", product.Price)
	}

	// And restocking an unknown name is a 404
	rec = doJSON(t, router, http.MethodPost, "/api/admin/products/ghost/quantity", string(testOwner), AddQuantityRequest{Quantity: &qty})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown product, got %d", rec.Code)
	}
}

// =============================================================================
// PRODUCT READS
// =============================================================================

func TestGetProduct(t *testing.T) {
	h, router := newTestServer(t)
	id := seedProduct(t, h, "oak chair", 8, "89.99")

	rec := doJSON(t, router, http.MethodGet, "/api/products/0", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var product ProductDTO
	decodeJSON(t, rec, &product)
	if product.ID != id || product.Name != "oak chair" {
		t.Errorf("Expected product %d 'oak chair', got %d %q", id, product.ID, product.Name)
	}

	// Unknown position is 404, malformed position is 400
	rec = doJSON(t, router, http.MethodGet, "/api/products/99", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown position, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/products/chair", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed position, got %d", rec.Code)
	}
}

// =============================================================================
// PURCHASES
// =============================================================================

func TestPurchase_Success(t *testing.T) {
	// GIVEN: A product with stock
	h, router := newTestServer(t)
	id := seedProduct(t, h, "wool rug", 3, "215.00")

	// WHEN: alice buys two units
	qty := int64(2)
	rec := doJSON(t, router, http.MethodPost, "/api/purchases", "alice", PurchaseRequest{ProductID: &id, Quantity: &qty})

	// THEN: Created, with the appended log entry echoed back
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var tx TransactionDTO
	decodeJSON(t, rec, &tx)
	if tx.Position != 0 {
		t.Errorf("Expected log position 0, got %d", tx.Position)
	}
	if tx.Kind != "purchase" {
		t.Errorf("Expected kind 'purchase', got %q", tx.Kind)
	}
	if tx.Quantity != 2 || tx.Account != "alice" || tx.Sequence != 0 {
		t.Errorf("Unexpected transaction: %+v", tx)
	}
	if !tx.UnitPrice.Equal(decimal.RequireFromString("215.00")) {
		t.Errorf("Expected unit price 215.00, got %s", tx.UnitPrice)
	}

	// And the product shows the reduced stock and the buyer
	rec = doJSON(t, router, http.MethodGet, "/api/products/0", "", nil)
	var product ProductDTO
	decodeJSON(t, rec, &product)
	if product.Quantity != 1 {
		t.Errorf("Expected stock 1 after buying 2 of 3, got %d", product.Quantity)
	}
	if len(product.Buyers) != 1 || product.Buyers[0] != "alice" {
		t.Errorf("Expected buyers [alice], got %v", product.Buyers)
	}
}

func TestPurchase_InsufficientStock(t *testing.T) {
	h, router := newTestServer(t)
	id := seedProduct(t, h, "wool rug", 3, "215.00")

	qty := int64(5)
	rec := doJSON(t, router, http.MethodPost, "/api/purchases", "alice", PurchaseRequest{ProductID: &id, Quantity: &qty})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for oversized purchase, got %d", rec.Code)
	}

	var errResp ErrorResponse
	decodeJSON(t, rec, &errResp)
	if errResp.Details == "" {
		t.Error("Expected error details naming the shortfall")
	}
}

func TestPurchase_RepeatBuyer(t *testing.T) {
	// GIVEN: alice already bought this product
	h, router := newTestServer(t)
	id := seedProduct(t, h, "wool rug", 3, "215.00")
	qty := int64(1)
	rec := doJSON(t, router, http.MethodPost, "/api/purchases", "alice", PurchaseRequest{ProductID: &id, Quantity: &qty})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Seed purchase failed: %d", rec.Code)
	}

	// WHEN: She tries to buy it again
	rec = doJSON(t, router, http.MethodPost, "/api/purchases", "alice", PurchaseRequest{ProductID: &id, Quantity: &qty})

	// THEN: Conflict
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for repeat purchase, got %d", rec.Code)
	}
}

func TestPurchase_UnknownProduct(t *testing.T) {
	_, router := newTestServer(t)

	id, qty := 42, int64(1)
	rec := doJSON(t, router, http.MethodPost, "/api/purchases", "alice", PurchaseRequest{ProductID: &id, Quantity: &qty})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown product, got %d", rec.Code)
	}
}

func TestPurchase_MissingFields(t *testing.T) {
	_, router := newTestServer(t)

	qty := int64(1)
	rec := doJSON(t, router, http.MethodPost, "/api/purchases", "alice", PurchaseRequest{Quantity: &qty})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing product_id, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/purchases", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without identity, got %d", rec.Code)
	}
}

func TestPreviewPurchase_DoesNotMutate(t *testing.T) {
	// GIVEN: A product with stock
	h, router := newTestServer(t)
	id := seedProduct(t, h, "wool rug", 3, "215.00")

	// WHEN: Previewing a valid purchase
	qty := int64(2)
	rec := doJSON(t, router, http.MethodPost, "/api/purchases/preview", "alice", PurchaseRequest{ProductID: &id, Quantity: &qty})

	// THEN: OK, and nothing changed
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for viable preview, got %d", rec.Code)
	}
	if got := len(h.Service().Transactions()); got != 0 {
		t.Errorf("Expected empty log after preview, got %d entries", got)
	}
	product, err := h.Service().GetProduct(id)
	if err != nil {
		t.Fatalf("Failed to read product: %v", err)
	}
	if product.Quantity != 3 {
		t.Errorf("Expected stock untouched at 3, got %d", product.Quantity)
	}

	// And a preview that would fail reports the same status a buy would
	qty = 5
	rec = doJSON(t, router, http.MethodPost, "/api/purchases/preview", "alice", PurchaseRequest{ProductID: &id, Quantity: &qty})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for oversized preview, got %d", rec.Code)
	}
}

// =============================================================================
// RETURNS
// =============================================================================

func TestReturnByIndex_Success(t *testing.T) {
	// GIVEN: alice holds a purchase
	h, router := newTestServer(t)
	id := seedProduct(t, h, "wool rug", 3, "215.00")
	qty := int64(2)
	doJSON(t, router, http.MethodPost, "/api/purchases", "alice", PurchaseRequest{ProductID: &id, Quantity: &qty})

	// WHEN: She returns it by active-list index
	idx := 0
	rec := doJSON(t, router, http.MethodPost, "/api/returns/index", "alice", ReturnIndexRequest{Index: &idx})

	// THEN: A compensating entry is appended
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var tx TransactionDTO
	decodeJSON(t, rec, &tx)
	if tx.Kind != "return" {
		t.Errorf("Expected kind 'return', got %q", tx.Kind)
	}
	if tx.Quantity != -2 {
		t.Errorf("Expected quantity -2, got %d", tx.Quantity)
	}
	if tx.Position != 1 {
		t.Errorf("Expected the reversal at log position 1, got %d", tx.Position)
	}

	// And her active list is empty while stock is restored
	rec = doJSON(t, router, http.MethodGet, "/api/buyers/alice", "", nil)
	var buyer BuyerDTO
	decodeJSON(t, rec, &buyer)
	if len(buyer.Transactions) != 0 {
		t.Errorf("Expected no active holdings, got %v", buyer.Transactions)
	}
	product, _ := h.Service().GetProduct(id)
	if product.Quantity != 3 {
		t.Errorf("Expected stock back to 3, got %d", product.Quantity)
	}
}

func TestReturnByIndex_WindowExpired(t *testing.T) {
	// GIVEN: alice bought at tick 0 and the window has fully elapsed
	h, router := newTestServer(t)
	id := seedProduct(t, h, "wool rug", 3, "215.00")
	qty := int64(1)
	doJSON(t, router, http.MethodPost, "/api/purchases", "alice", PurchaseRequest{ProductID: &id, Quantity: &qty})
	doJSON(t, router, http.MethodPost, "/api/admin/clock/advance", string(testOwner), AdvanceClockRequest{Ticks: 10})

	// WHEN: She tries to return
	idx := 0
	rec := doJSON(t, router, http.MethodPost, "/api/returns/index", "alice", ReturnIndexRequest{Index: &idx})

	// THEN: Conflict, and the holding stays active
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for expired window, got %d", rec.Code)
	}
	buyer, err := h.Service().GetBuyer("alice")
	if err != nil {
		t.Fatalf("Failed to read buyer: %v", err)
	}
	if len(buyer.Transactions) != 1 {
		t.Errorf("Expected the holding to remain active, got %v", buyer.Transactions)
	}
}

func TestReturnByProduct_NoHolding(t *testing.T) {
	// GIVEN: alice never bought anything
	h, router := newTestServer(t)
	id := seedProduct(t, h, "wool rug", 3, "215.00")

	// WHEN: She returns by product anyway
	rec := doJSON(t, router, http.MethodPost, "/api/returns/product", "alice", ReturnProductRequest{ProductID: &id})

	// THEN: Success with nothing appended
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for a no-op return, got %d", rec.Code)
	}
	if got := len(h.Service().Transactions()); got != 0 {
		t.Errorf("Expected empty log after no-op return, got %d entries", got)
	}
}

func TestReturnLatest_NothingActive(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/returns/latest", "alice", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 with no active holdings, got %d", rec.Code)
	}
}

// =============================================================================
// BUYERS + TRANSACTIONS
// =============================================================================

func TestGetBuyer_Unknown(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/buyers/nobody", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown buyer, got %d", rec.Code)
	}
}

func TestBuyerHistory_IncludesReturns(t *testing.T) {
	// GIVEN: alice bought and then returned
	h, router := newTestServer(t)
	id := seedProduct(t, h, "wool rug", 3, "215.00")
	qty := int64(1)
	doJSON(t, router, http.MethodPost, "/api/purchases", "alice", PurchaseRequest{ProductID: &id, Quantity: &qty})
	idx := 0
	doJSON(t, router, http.MethodPost, "/api/returns/index", "alice", ReturnIndexRequest{Index: &idx})

	// WHEN: Reading her full history
	rec := doJSON(t, router, http.MethodGet, "/api/buyers/alice/history", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	// THEN: Both entries are present in log order
	var history []HistoryEntryDTO
	decodeJSON(t, rec, &history)
	if len(history) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(history))
	}
	if history[0].Kind != "purchase" || history[1].Kind != "return" {
		t.Errorf("Expected purchase then return, got %q then %q", history[0].Kind, history[1].Kind)
	}
}

func TestListTransactions_WholeLog(t *testing.T) {
	h, router := newTestServer(t)
	rug := seedProduct(t, h, "wool rug", 3, "215.00")
	lamp := seedProduct(t, h, "reading lamp", 12, "42.50")

	qty := int64(1)
	doJSON(t, router, http.MethodPost, "/api/purchases", "alice", PurchaseRequest{ProductID: &rug, Quantity: &qty})
	doJSON(t, router, http.MethodPost, "/api/purchases", "bob", PurchaseRequest{ProductID: &lamp, Quantity: &qty})

	rec := doJSON(t, router, http.MethodGet, "/api/transactions", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var txs []TransactionDTO
	decodeJSON(t, rec, &txs)
	if len(txs) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(txs))
	}
	if txs[0].Position != 0 || txs[1].Position != 1 {
		t.Errorf("Expected positions 0 and 1, got %d and %d", txs[0].Position, txs[1].Position)
	}
	if txs[0].Account != "alice" || txs[1].Account != "bob" {
		t.Errorf("Expected alice then bob, got %q then %q", txs[0].Account, txs[1].Account)
	}
}
