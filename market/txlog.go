/*
txlog.go - Append-only transaction log

PURPOSE:
  The log is the immutable source of truth for every stock movement.
  Purchases and returns are both appends; nothing is ever updated or
  deleted. Summaries are always computed by replaying entries - there is
  no stored aggregate that can drift out of sync.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. IMMUTABLE: Once appended, an entry never changes
  3. POSITIONAL: Append returns the entry's position; buyer records hold
     these positions as their purchase references

CORRECTIONS:
  A return does not touch the original purchase entry. It appends a new
  entry with the quantity negated and a fresh sequence; both remain in the
  log and the net effect is the correction.

EXAMPLE FLOW:
  1. alice buys 3 lamps:   {product 0, +3, seq 5, alice}
  2. alice returns them:   {product 0, -3, seq 9, alice}

  Log: [+3, -3]; lamp stock is back where it started, history intact.

SEE ALSO:
  - summary.go: Replays the log into aggregates
  - service.go: The only writer
*/
package market

// =============================================================================
// TRANSACTION LOG - Append-only entries
// =============================================================================

type TransactionLog struct {
	entries []Transaction
}

func NewTransactionLog() *TransactionLog {
	return &TransactionLog{}
}

// Append adds an entry and returns its position. This is the only write
// operation.
func (l *TransactionLog) Append(tx Transaction) int {
	pos := len(l.entries)
	l.entries = append(l.entries, tx)
	return pos
}

// All returns a snapshot copy of the log, oldest first.
func (l *TransactionLog) All() []Transaction {
	return append([]Transaction(nil), l.entries...)
}

// Len returns the number of entries.
func (l *TransactionLog) Len() int { return len(l.entries) }

// at returns the entry at pos. Callers must hold the service lock and
// must pass a position obtained from Append.
func (l *TransactionLog) at(pos int) Transaction { return l.entries[pos] }
