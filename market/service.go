/*
service.go - The marketplace service: the single concurrent entry point

PURPOSE:
  Service owns the three collections (catalog, buyer ledger, transaction
  log) and is the only way to mutate them. Every operation validates all
  its preconditions before touching any state, so a failed call leaves
  the engine exactly as it found it.

CONCURRENCY:
  One RWMutex guards all three collections. Mutating operations hold the
  write lock across their whole validate-then-apply span; reads hold the
  read lock and return copies. The collection types themselves are not
  individually safe - nothing outside this file touches them.

AUTHORIZATION:
  Catalog mutations (add, restock, reprice) require a privileged caller,
  as judged by the injected Authorizer. Purchases and returns are open to
  any identity.

TIME:
  Transactions are stamped with the injected Clock's current tick. Each
  mutating operation reads the clock once inside its held write lock, so
  one operation sees one consistent tick. Clock implementations must be
  safe for concurrent reads.

SEE ALSO:
  - catalog.go, buyers.go, txlog.go: The owned collections
  - summary.go: Read-side aggregates over the same lock
*/
package market

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	mu      sync.RWMutex
	catalog *Catalog
	buyers  *BuyerLedger
	log     *TransactionLog

	clock Clock
	authz Authorizer
}

// NewService builds an empty engine around the given collaborators.
func NewService(clock Clock, authz Authorizer) (*Service, error) {
	if clock == nil {
		return nil, errors.New("market: clock is required")
	}
	if authz == nil {
		return nil, errors.New("market: authorizer is required")
	}
	return &Service{
		catalog: NewCatalog(),
		buyers:  NewBuyerLedger(),
		log:     NewTransactionLog(),
		clock:   clock,
		authz:   authz,
	}, nil
}

// Now returns the engine's current logical tick.
func (s *Service) Now() uint64 { return s.clock.Now() }

func (s *Service) requirePrivilege(caller Identity) error {
	if !s.authz.IsPrivileged(caller) {
		return ErrUnauthorized
	}
	return nil
}

// =============================================================================
// CATALOG ADMINISTRATION - Privileged
// =============================================================================

// AddProduct catalogs a new product and returns its position.
func (s *Service) AddProduct(name string, quantity int64, price decimal.Decimal, caller Identity) (int, error) {
	if err := s.requirePrivilege(caller); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Add(name, quantity, price)
}

// AddQuantity adds delta units of stock to the named product.
func (s *Service) AddQuantity(name string, delta int64, caller Identity) error {
	if err := s.requirePrivilege(caller); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.AddQuantity(name, delta)
}

// SetPrice replaces the named product's unit price.
func (s *Service) SetPrice(name string, price decimal.Decimal, caller Identity) error {
	if err := s.requirePrivilege(caller); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.SetPrice(name, price)
}

// =============================================================================
// PURCHASES
// =============================================================================

// Buy purchases quantity units of the product at productID for caller and
// returns the position of the appended transaction.
//
// Preconditions, checked in order with no effects until all pass:
//  1. productID resolves to a product (ErrNotFound)
//  2. quantity is non-negative (ErrInvalidQuantity)
//  3. quantity does not exceed stock (InsufficientStockError)
//  4. caller never purchased this product before (ErrAlreadyPurchased);
//     history is permanent, so a full return does not reopen this
func (s *Service) Buy(productID int, quantity int64, caller Identity) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.buyPrecheckLocked(productID, quantity, caller); err != nil {
		return 0, err
	}

	p := s.catalog.ref(productID)
	p.Quantity -= quantity
	p.Buyers = append(p.Buyers, caller)

	pos := s.log.Append(Transaction{
		ProductID: productID,
		Quantity:  quantity,
		Sequence:  s.clock.Now(),
		Account:   caller,
		UnitPrice: p.Price,
	})

	b := s.buyers.ref(s.buyers.ResolveOrCreate(caller))
	b.Transactions = append(b.Transactions, pos)
	return pos, nil
}

// CanBuy runs Buy's precondition chain without mutating anything and
// returns the error Buy would return, or nil.
func (s *Service) CanBuy(productID int, quantity int64, caller Identity) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buyPrecheckLocked(productID, quantity, caller)
}

func (s *Service) buyPrecheckLocked(productID int, quantity int64, caller Identity) error {
	if !s.catalog.ExistsByID(productID) {
		return ErrNotFound
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	p := s.catalog.ref(productID)
	if quantity > p.Quantity {
		return &InsufficientStockError{ProductID: productID, Requested: quantity, Available: p.Quantity}
	}
	if p.HasBuyer(caller) {
		return ErrAlreadyPurchased
	}
	return nil
}

// =============================================================================
// RETURNS
// =============================================================================

// ReturnByIndex returns the purchase at localIndex in caller's active list
// and returns the position of the appended compensating transaction.
//
// Preconditions, checked in order with no effects until all pass:
//  1. caller has a buyer record (ErrNotFound)
//  2. localIndex is a valid position in the active list (ErrNotFound)
//  3. the purchase is still inside the return window (ReturnWindowError)
func (s *Service) ReturnByIndex(localIndex int, caller Identity) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.buyers.Position(caller)
	if !ok {
		return 0, ErrNotFound
	}
	b := s.buyers.ref(pos)
	if localIndex < 0 || localIndex >= len(b.Transactions) {
		return 0, ErrNotFound
	}
	return s.returnAtLocked(b, localIndex)
}

// ReturnByProduct returns caller's oldest active purchase of productID.
// When no active purchase matches - including when caller has no buyer
// record at all - it succeeds as a no-op: hosts treat "nothing to return"
// as idempotent success. Failures from the matched return (an expired
// window) propagate.
func (s *Service) ReturnByProduct(productID int, caller Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.buyers.Position(caller)
	if !ok {
		return nil
	}
	b := s.buyers.ref(pos)
	for i, txPos := range b.Transactions {
		if s.log.at(txPos).ProductID == productID {
			_, err := s.returnAtLocked(b, i)
			return err
		}
	}
	return nil
}

// ReturnLatest returns caller's most recent active purchase and returns
// the position of the appended compensating transaction. It fails with
// ErrNoActiveTransactions when caller has nothing to return.
func (s *Service) ReturnLatest(caller Identity) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.buyers.Position(caller)
	if !ok {
		return 0, ErrNoActiveTransactions
	}
	b := s.buyers.ref(pos)
	if len(b.Transactions) == 0 {
		return 0, ErrNoActiveTransactions
	}
	return s.returnAtLocked(b, len(b.Transactions)-1)
}

// returnAtLocked performs the shared return flow for the purchase at
// localIndex in b's active list. The window check is the only failable
// step; after it passes the effects are:
//   - append the compensating entry (negated quantity, fresh sequence)
//   - restore the product's stock
//   - drop the reference from b, preserving the order of the rest
//
// The product's historical Buyers list is deliberately untouched.
func (s *Service) returnAtLocked(b *Buyer, localIndex int) (int, error) {
	orig := s.log.at(b.Transactions[localIndex])

	now := s.clock.Now()
	if orig.Sequence+ReturnWindow <= now {
		return 0, &ReturnWindowError{Sequence: orig.Sequence, Now: now}
	}

	revPos := s.log.Append(orig.Negated(now))
	s.catalog.ref(orig.ProductID).Quantity += orig.Quantity
	b.Transactions = append(b.Transactions[:localIndex], b.Transactions[localIndex+1:]...)
	return revPos, nil
}

// =============================================================================
// READS - Snapshot copies under the read lock
// =============================================================================

// GetProduct returns a copy of the product at id, or ErrOutOfRange.
func (s *Service) GetProduct(id int) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Get(id)
}

// ListProducts returns a snapshot copy of the catalog.
func (s *Service) ListProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.List()
}

// FindProduct returns a copy of the named product. The second return
// value reports presence; the product at position 0 is found like any
// other.
func (s *Service) FindProduct(name string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.catalog.Position(name)
	if !ok {
		return Product{}, false
	}
	p, err := s.catalog.Get(pos)
	if err != nil {
		return Product{}, false
	}
	return p, true
}

// GetBuyer returns a copy of the identity's buyer record, or ErrNotFound.
func (s *Service) GetBuyer(id Identity) (Buyer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buyers.Get(id)
}

// Transactions returns a snapshot copy of the whole log, oldest first.
func (s *Service) Transactions() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.All()
}

// Transaction returns the log entry at pos, or ErrOutOfRange.
func (s *Service) Transaction(pos int) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pos < 0 || pos >= s.log.Len() {
		return Transaction{}, ErrOutOfRange
	}
	return s.log.at(pos), nil
}

// BuyerHistory returns every log entry for the identity, purchases and
// returns alike, in log order. Unlike the active list on the buyer
// record, history includes returned purchases and the returns themselves.
func (s *Service) BuyerHistory(id Identity) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.buyers.Position(id); !ok {
		return nil, ErrNotFound
	}
	var out []Transaction
	for _, tx := range s.log.entries {
		if tx.Account == id {
			out = append(out, tx)
		}
	}
	return out, nil
}
