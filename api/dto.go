/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

REQUIRED FIELDS:
  Positions and quantities use pointer fields in requests: 0 is a valid
  product id, a valid index, and a valid quantity, so absence must be
  distinguishable from zero. Handlers reject nil with 400.

PRICES:
  decimal.Decimal marshals as a quoted string ("19.99") and unmarshals
  from both strings and JSON numbers.

SEE ALSO:
  - handlers.go: Uses these types
  - scenarios.go: ScenarioDTO
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/storefront-engine/market"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ProductDTO represents a catalog entry in API responses.
type ProductDTO struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Buyers   []string        `json:"buyers"`
}

func toProductDTO(p market.Product) ProductDTO {
	buyers := make([]string, len(p.Buyers))
	for i, b := range p.Buyers {
		buyers[i] = string(b)
	}
	return ProductDTO{
		ID:       p.ID,
		Name:     p.Name,
		Quantity: p.Quantity,
		Price:    p.Price,
		Buyers:   buyers,
	}
}

// TransactionDTO represents one log entry. Position is the entry's place
// in the log; Kind is "purchase" or "return" for display convenience.
type TransactionDTO struct {
	Position  int             `json:"position"`
	ProductID int             `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	Sequence  uint64          `json:"sequence"`
	Account   string          `json:"account"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Kind      string          `json:"kind"`
}

func toTransactionDTO(position int, tx market.Transaction) TransactionDTO {
	kind := "purchase"
	if tx.IsReturn() {
		kind = "return"
	}
	return TransactionDTO{
		Position:  position,
		ProductID: tx.ProductID,
		Quantity:  tx.Quantity,
		Sequence:  tx.Sequence,
		Account:   string(tx.Account),
		UnitPrice: tx.UnitPrice,
		Kind:      kind,
	}
}

// HistoryEntryDTO represents one log entry in a buyer's history. Unlike
// TransactionDTO it carries no log position; history is presented as a
// chronological account statement.
type HistoryEntryDTO struct {
	ProductID int             `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	Sequence  uint64          `json:"sequence"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Kind      string          `json:"kind"`
}

func toHistoryEntryDTO(tx market.Transaction) HistoryEntryDTO {
	kind := "purchase"
	if tx.IsReturn() {
		kind = "return"
	}
	return HistoryEntryDTO{
		ProductID: tx.ProductID,
		Quantity:  tx.Quantity,
		Sequence:  tx.Sequence,
		UnitPrice: tx.UnitPrice,
		Kind:      kind,
	}
}

// BuyerDTO represents a buyer record: the positions of the active
// (not yet returned) purchases.
type BuyerDTO struct {
	ID           string `json:"id"`
	Transactions []int  `json:"transactions"`
}

func toBuyerDTO(b market.Buyer) BuyerDTO {
	txs := b.Transactions
	if txs == nil {
		txs = []int{}
	}
	return BuyerDTO{ID: string(b.ID), Transactions: txs}
}

// ProductSummaryDTO mirrors market.ProductSummary.
type ProductSummaryDTO struct {
	ProductID     int             `json:"product_id"`
	Name          string          `json:"name"`
	InStock       int64           `json:"in_stock"`
	UnitsSold     int64           `json:"units_sold"`
	UnitsReturned int64           `json:"units_returned"`
	NetUnits      int64           `json:"net_units"`
	GrossRevenue  decimal.Decimal `json:"gross_revenue"`
	NetRevenue    decimal.Decimal `json:"net_revenue"`
	BuyerCount    int             `json:"buyer_count"`
}

// BuyerSummaryDTO mirrors market.BuyerSummary.
type BuyerSummaryDTO struct {
	Account        string          `json:"account"`
	Purchases      int             `json:"purchases"`
	Returns        int             `json:"returns"`
	ActiveHoldings int             `json:"active_holdings"`
	NetSpend       decimal.Decimal `json:"net_spend"`
}

// ClockDTO reports the engine's logical time.
type ClockDTO struct {
	Now uint64 `json:"now"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateProductRequest catalogs a new product.
type CreateProductRequest struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// AddQuantityRequest restocks the product named in the URL.
type AddQuantityRequest struct {
	Quantity *int64 `json:"quantity"`
}

// SetPriceRequest reprices the product named in the URL.
type SetPriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// PurchaseRequest buys quantity units of a product.
type PurchaseRequest struct {
	ProductID *int   `json:"product_id"`
	Quantity  *int64 `json:"quantity"`
}

// ReturnIndexRequest returns the purchase at an index in the caller's
// active list.
type ReturnIndexRequest struct {
	Index *int `json:"index"`
}

// ReturnProductRequest returns the caller's active purchase of a product.
type ReturnProductRequest struct {
	ProductID *int `json:"product_id"`
}

// AdvanceClockRequest moves the logical clock forward. Zero ticks is
// treated as 1 so an empty body advances by one.
type AdvanceClockRequest struct {
	Ticks uint64 `json:"ticks"`
}
