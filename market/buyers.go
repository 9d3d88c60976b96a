/*
buyers.go - Buyer records with an identity index

PURPOSE:
  One record per identity that ever completed a purchase, holding the log
  positions of that identity's active (not yet returned) purchases. Like
  the catalog, records are positional and never removed; the identity
  index is read with the comma-ok form so the record at position 0 is
  never mistaken for a missing one.

SEE ALSO:
  - catalog.go: The same positional pattern for products
  - service.go: The only writer
*/
package market

// =============================================================================
// BUYER LEDGER - Ordered buyer records + identity index
// =============================================================================

type BuyerLedger struct {
	buyers []Buyer
	byID   map[Identity]int
}

func NewBuyerLedger() *BuyerLedger {
	return &BuyerLedger{byID: make(map[Identity]int)}
}

// ResolveOrCreate returns the position of the identity's record, creating
// an empty one on first sight. It never fails.
func (l *BuyerLedger) ResolveOrCreate(id Identity) int {
	if pos, ok := l.byID[id]; ok {
		return pos
	}
	pos := len(l.buyers)
	l.buyers = append(l.buyers, Buyer{ID: id})
	l.byID[id] = pos
	return pos
}

// Position returns the identity's record position. The second return value
// reports presence; position 0 is a valid answer.
func (l *BuyerLedger) Position(id Identity) (int, bool) {
	pos, ok := l.byID[id]
	return pos, ok
}

// Get returns a copy of the identity's record, or ErrNotFound. Reads are
// strict: unlike ResolveOrCreate, Get never materializes a record.
func (l *BuyerLedger) Get(id Identity) (Buyer, error) {
	pos, ok := l.byID[id]
	if !ok {
		return Buyer{}, ErrNotFound
	}
	return l.buyers[pos].Clone(), nil
}

// Len returns the number of buyer records.
func (l *BuyerLedger) Len() int { return len(l.buyers) }

// ref returns the live buyer record. Callers must hold the service write
// lock and must not retain the pointer.
func (l *BuyerLedger) ref(pos int) *Buyer { return &l.buyers[pos] }
