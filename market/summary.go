/*
summary.go - Derived aggregates computed from the transaction log

PURPOSE:
  Answers "how is this product selling?" and "what does this buyer hold?"
  by replaying the log. Nothing here is stored: the log is the only source
  of truth, so a summary can never drift out of sync with it.

WHY REPLAY?
  - Correctness: no stored aggregate to forget to update
  - Auditability: every figure is reproducible from the entries
  - The log only grows; replay cost is linear and state stays small

SEE ALSO:
  - txlog.go: The entries being replayed
  - types.go: Transaction.Value for the money arithmetic
*/
package market

import "github.com/shopspring/decimal"

// =============================================================================
// PRODUCT SUMMARY
// =============================================================================

// ProductSummary aggregates one product's movement. UnitsSold counts
// purchased units, UnitsReturned counts returned units, NetUnits is their
// difference. GrossRevenue sums purchase values; NetRevenue also subtracts
// returns. BuyerCount is the historical buyer count, which a full return
// does not shrink.
type ProductSummary struct {
	ProductID     int
	Name          string
	InStock       int64
	UnitsSold     int64
	UnitsReturned int64
	NetUnits      int64
	GrossRevenue  decimal.Decimal
	NetRevenue    decimal.Decimal
	BuyerCount    int
}

// ProductSummary replays the log for the product at id, or ErrOutOfRange.
func (s *Service) ProductSummary(id int) (ProductSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.catalog.Get(id)
	if err != nil {
		return ProductSummary{}, err
	}

	sum := ProductSummary{
		ProductID:    id,
		Name:         p.Name,
		InStock:      p.Quantity,
		GrossRevenue: decimal.Zero,
		NetRevenue:   decimal.Zero,
		BuyerCount:   len(p.Buyers),
	}
	for _, tx := range s.log.entries {
		if tx.ProductID != id {
			continue
		}
		if tx.IsPurchase() {
			sum.UnitsSold += tx.Quantity
			sum.GrossRevenue = sum.GrossRevenue.Add(tx.Value())
		} else {
			sum.UnitsReturned += -tx.Quantity
		}
		sum.NetRevenue = sum.NetRevenue.Add(tx.Value())
	}
	sum.NetUnits = sum.UnitsSold - sum.UnitsReturned
	return sum, nil
}

// =============================================================================
// BUYER SUMMARY
// =============================================================================

// BuyerSummary aggregates one identity's activity. Purchases and Returns
// count log entries, ActiveHoldings counts not-yet-returned purchases,
// NetSpend is money out minus money back.
type BuyerSummary struct {
	Account        Identity
	Purchases      int
	Returns        int
	ActiveHoldings int
	NetSpend       decimal.Decimal
}

// BuyerSummary replays the log for the identity, or ErrNotFound.
func (s *Service) BuyerSummary(id Identity) (BuyerSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.buyers.Position(id)
	if !ok {
		return BuyerSummary{}, ErrNotFound
	}

	sum := BuyerSummary{
		Account:        id,
		ActiveHoldings: len(s.buyers.buyers[pos].Transactions),
		NetSpend:       decimal.Zero,
	}
	for _, tx := range s.log.entries {
		if tx.Account != id {
			continue
		}
		if tx.IsPurchase() {
			sum.Purchases++
		} else {
			sum.Returns++
		}
		sum.NetSpend = sum.NetSpend.Add(tx.Value())
	}
	return sum, nil
}
