/*
errors.go - Centralized error types for the marketplace engine

PURPOSE:
  All failure identities in one place. Every operation fails with exactly
  one of the sentinels below (possibly wrapped in a structured error), so
  callers and hosts match with errors.Is and map to their own surfaces.

ERROR CATEGORIES:
  1. Authorization - caller lacks privilege
  2. Lookup - missing names, identities, or positions
  3. Conflict - business rule violations (stock, history, window)
  4. Input - malformed quantities and prices

USAGE:
  if errors.Is(err, market.ErrAlreadyPurchased) { ... }

  var stockErr *market.InsufficientStockError
  if errors.As(err, &stockErr) {
      log.Printf("short by %d", stockErr.Requested-stockErr.Available)
  }

SEE ALSO:
  - service.go: Produces these errors
  - api/handlers.go: Maps them to HTTP statuses
*/
package market

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnauthorized is returned when a non-privileged caller invokes an
	// administrative operation.
	ErrUnauthorized = errors.New("caller is not privileged")

	// ErrAlreadyExists is returned when adding a product whose name is
	// already cataloged.
	ErrAlreadyExists = errors.New("product already exists")

	// ErrNotFound is returned when a name, identity, or purchase reference
	// does not resolve. Buying an unknown product id also fails with this,
	// not with ErrOutOfRange: a purchase targets a missing resource.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange is returned by positional reads with an id outside the
	// catalog bounds.
	ErrOutOfRange = errors.New("position out of range")

	// ErrInsufficientStock is returned when a purchase asks for more units
	// than the product has.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAlreadyPurchased is returned when a caller purchases a product a
	// second time. Purchase history is permanent, so this holds even after
	// a full return.
	ErrAlreadyPurchased = errors.New("product already purchased by caller")

	// ErrReturnWindowExpired is returned when the purchase is older than
	// the return window.
	ErrReturnWindowExpired = errors.New("return window expired")

	// ErrNoActiveTransactions is returned by ReturnLatest when the caller
	// has nothing to return.
	ErrNoActiveTransactions = errors.New("no active transactions")

	// ErrInvalidQuantity is returned for negative quantities.
	ErrInvalidQuantity = errors.New("quantity must not be negative")

	// ErrInvalidPrice is returned for negative prices.
	ErrInvalidPrice = errors.New("price must not be negative")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports how far a purchase overshot the stock.
type InsufficientStockError struct {
	ProductID int
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ReturnWindowError reports when the purchase happened and when the return
// was attempted. The window width is the ReturnWindow constant.
type ReturnWindowError struct {
	Sequence uint64
	Now      uint64
}

func (e *ReturnWindowError) Error() string {
	return fmt.Sprintf("return window expired: purchased at %d, now %d, window %d",
		e.Sequence, e.Now, ReturnWindow)
}

func (e *ReturnWindowError) Unwrap() error {
	return ErrReturnWindowExpired
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource or an
// out-of-range position.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrOutOfRange)
}

// IsConflict returns true if the error is a business rule violation on
// otherwise well-formed input.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrAlreadyPurchased) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrReturnWindowExpired) ||
		errors.Is(err, ErrNoActiveTransactions)
}

// IsInvalid returns true if the error is due to malformed client input.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidPrice)
}
