package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrConcurrencyConflict means a compare-and-swap write found the row
	// changed since it was read. Callers retry with a fresh read.
	ErrConcurrencyConflict = errors.New("row was modified by another transaction")

	// ErrNegativeQuantity guards the product quantity invariant at the write site.
	ErrNegativeQuantity = errors.New("quantity cannot become negative")
)

// IsNotFound reports whether err is GORM's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// forUpdate adds a row lock on dialects that support one. SQLite has no
// row-level locks and serializes writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
