/*
catalog.go - Ordered product catalog with a name index

PURPOSE:
  Products live in an ordered list; a product's ID is its position in that
  list and never changes. A name index answers by-name lookups without
  scanning.

CRITICAL INVARIANTS:
  1. APPEND-ONLY POSITIONS: products are never removed or reordered, so a
     position handed out once stays valid forever
  2. UNIQUE NAMES: one catalog entry per name
  3. PRESENCE IS EXPLICIT: the name index is read with the comma-ok form;
     a missing name must never be conflated with the product at position 0
  4. NON-NEGATIVE STOCK AND PRICE: enforced on every mutation

CONCURRENCY:
  Catalog is not safe for concurrent use on its own. The Service owns the
  lock and is the only concurrent entry point.

SEE ALSO:
  - buyers.go: The same positional pattern for buyer records
  - service.go: Authorization and the purchase/return flows
*/
package market

import "github.com/shopspring/decimal"

// =============================================================================
// CATALOG - Ordered products + name index
// =============================================================================

type Catalog struct {
	products []Product
	byName   map[string]int
}

func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]int)}
}

// Add appends a new product with an empty purchase history and indexes its
// name. It returns the product's position.
func (c *Catalog) Add(name string, quantity int64, price decimal.Decimal) (int, error) {
	if _, ok := c.byName[name]; ok {
		return 0, ErrAlreadyExists
	}
	if quantity < 0 {
		return 0, ErrInvalidQuantity
	}
	if price.IsNegative() {
		return 0, ErrInvalidPrice
	}
	id := len(c.products)
	c.products = append(c.products, Product{
		ID:       id,
		Name:     name,
		Quantity: quantity,
		Price:    price,
	})
	c.byName[name] = id
	return id, nil
}

// AddQuantity adds delta units of stock to the named product.
func (c *Catalog) AddQuantity(name string, delta int64) error {
	id, ok := c.byName[name]
	if !ok {
		return ErrNotFound
	}
	if delta < 0 {
		return ErrInvalidQuantity
	}
	c.products[id].Quantity += delta
	return nil
}

// SetPrice replaces the named product's unit price. Prices are
// informational: transactions capture the price current at purchase time,
// so repricing never rewrites history.
func (c *Catalog) SetPrice(name string, price decimal.Decimal) error {
	id, ok := c.byName[name]
	if !ok {
		return ErrNotFound
	}
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	c.products[id].Price = price
	return nil
}

// Position returns the named product's position. The second return value
// reports presence; position 0 is a valid answer.
func (c *Catalog) Position(name string) (int, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// ExistsByName reports whether the name is cataloged.
func (c *Catalog) ExistsByName(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// ExistsByID reports whether id is a valid catalog position.
func (c *Catalog) ExistsByID(id int) bool {
	return id >= 0 && id < len(c.products)
}

// Get returns a copy of the product at id, or ErrOutOfRange. By-position
// reads keep the range-error identity; only purchase paths translate a
// missing product into ErrNotFound.
func (c *Catalog) Get(id int) (Product, error) {
	if !c.ExistsByID(id) {
		return Product{}, ErrOutOfRange
	}
	return c.products[id].Clone(), nil
}

// List returns a snapshot copy of the whole catalog.
func (c *Catalog) List() []Product {
	out := make([]Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out
}

// Len returns the number of cataloged products.
func (c *Catalog) Len() int { return len(c.products) }

// ref returns the live product record. Callers must hold the service
// write lock and must not retain the pointer.
func (c *Catalog) ref(id int) *Product { return &c.products[id] }
