package market_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/storefront-engine/market"
)

func purchaseTx(productID int, qty int64, seq uint64, account string) market.Transaction {
	return market.Transaction{
		ProductID: productID,
		Quantity:  qty,
		Sequence:  seq,
		Account:   market.Identity(account),
		UnitPrice: decimal.NewFromInt(25),
	}
}

func TestTransactionLog_Append_ReturnsPositions(t *testing.T) {
	l := market.NewTransactionLog()

	assert.Equal(t, 0, l.Append(purchaseTx(0, 3, 1, "alice")))
	assert.Equal(t, 1, l.Append(purchaseTx(1, 1, 2, "bob")))
	assert.Equal(t, 2, l.Len())
}

func TestTransactionLog_All_SnapshotIndependence(t *testing.T) {
	l := market.NewTransactionLog()
	l.Append(purchaseTx(0, 3, 1, "alice"))

	snap := l.All()
	require.Len(t, snap, 1)
	snap[0].Quantity = -99

	again := l.All()
	assert.Equal(t, int64(3), again[0].Quantity, "snapshot mutation must not leak into the log")
}

func TestTransaction_Negated(t *testing.T) {
	// GIVEN: A purchase entry
	// WHEN: Building its compensating entry at a later sequence
	// THEN: Product, account, and price carry over; quantity flips; the
	//       sequence is the fresh one

	orig := purchaseTx(2, 3, 5, "alice")
	rev := orig.Negated(9)

	assert.Equal(t, orig.ProductID, rev.ProductID)
	assert.Equal(t, -orig.Quantity, rev.Quantity)
	assert.Equal(t, uint64(9), rev.Sequence)
	assert.Equal(t, orig.Account, rev.Account)
	assert.True(t, rev.UnitPrice.Equal(orig.UnitPrice))

	assert.True(t, orig.IsPurchase())
	assert.False(t, orig.IsReturn())
	assert.True(t, rev.IsReturn())
	assert.False(t, rev.IsPurchase())
}
