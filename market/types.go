/*
Package market provides the core marketplace ledger engine.

PURPOSE:
  This package contains the in-memory state machine behind the storefront:
  a product catalog, per-buyer purchase records, and an append-only
  transaction log. Purchases decrement stock and are recorded as
  positive-quantity transactions; returns never erase anything - each
  return appends a compensating negative transaction and restores stock.

KEY CONCEPTS IN THIS FILE (types.go):
  - Identity: Opaque comparable caller identity
  - Product: Catalog entry; its ID is its position in the catalog
  - Buyer: Per-identity record of active (not yet returned) purchases
  - Transaction: An immutable ledger entry (positive = buy, negative = return)

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified, only negated
  2. Positional identity: Products and buyers are addressed by position;
     lookups go through explicit presence-checked indexes
  3. Injected time: The engine reads a logical tick counter, never wall time
  4. Precision: Uses decimal.Decimal for money, never float64

USAGE:
  svc, err := market.NewService(clock, market.SingleOwner("owner"))
  id, err := svc.AddProduct("lamp", 10, decimal.NewFromInt(25), "owner")
  pos, err := svc.Buy(id, 2, "alice")
  _, err = svc.ReturnLatest("alice")

SEE ALSO:
  - catalog.go: Product catalog and its name index
  - buyers.go: Buyer records and the identity index
  - txlog.go: The append-only transaction log
  - service.go: The single concurrent entry point
*/
package market

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTITY - Opaque caller identity
// =============================================================================

// Identity names a caller. The engine never interprets it; hosts decide
// what it means (a wallet address, a username, an API key subject).
type Identity string

// =============================================================================
// RETURN WINDOW
// =============================================================================

// ReturnWindow is the number of logical ticks a purchase stays returnable.
// A purchase made at sequence s is returnable while s+ReturnWindow > now.
const ReturnWindow uint64 = 10

// =============================================================================
// PRODUCT - Catalog entry
// =============================================================================

// Product is a catalog entry. ID is the product's position in the catalog
// and never changes. Buyers is the historical record of every identity
// that ever completed a purchase of this product; entries are never
// removed, not even by a full return.
type Product struct {
	ID       int
	Name     string
	Quantity int64
	Price    decimal.Decimal
	Buyers   []Identity
}

// HasBuyer reports whether id ever purchased this product.
func (p Product) HasBuyer(id Identity) bool {
	for _, b := range p.Buyers {
		if b == id {
			return true
		}
	}
	return false
}

// Clone returns a copy whose Buyers slice does not alias the original.
func (p Product) Clone() Product {
	cp := p
	cp.Buyers = append([]Identity(nil), p.Buyers...)
	return cp
}

// =============================================================================
// BUYER - Active purchase record
// =============================================================================

// Buyer tracks one identity's active purchases. Transactions holds
// positions into the transaction log, oldest first; a successful return
// removes the matched position and keeps the rest in order.
type Buyer struct {
	ID           Identity
	Transactions []int
}

// Clone returns a copy whose Transactions slice does not alias the original.
func (b Buyer) Clone() Buyer {
	cb := b
	cb.Transactions = append([]int(nil), b.Transactions...)
	return cb
}

// =============================================================================
// TRANSACTION - Immutable ledger entry
// =============================================================================

// Transaction records a single stock movement. Quantity is signed:
// positive for a purchase, negative for a return. Sequence is the logical
// clock reading at append time. UnitPrice is the product price captured
// when the purchase happened, so later repricing never rewrites history.
type Transaction struct {
	ProductID int
	Quantity  int64
	Sequence  uint64
	Account   Identity
	UnitPrice decimal.Decimal
}

// IsPurchase reports whether the entry records a purchase.
func (t Transaction) IsPurchase() bool { return t.Quantity >= 0 }

// IsReturn reports whether the entry records a return.
func (t Transaction) IsReturn() bool { return t.Quantity < 0 }

// Negated builds the compensating entry for a return: same product,
// account and captured price, opposite quantity, fresh sequence.
func (t Transaction) Negated(sequence uint64) Transaction {
	return Transaction{
		ProductID: t.ProductID,
		Quantity:  -t.Quantity,
		Sequence:  sequence,
		Account:   t.Account,
		UnitPrice: t.UnitPrice,
	}
}

// Value returns the signed monetary value of the entry.
func (t Transaction) Value() decimal.Decimal {
	return t.UnitPrice.Mul(decimal.NewFromInt(t.Quantity))
}
