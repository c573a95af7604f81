package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ErrLedgerBusy is returned when a transaction kept losing the race for its
// product row and the retry budget ran out. Resubmitting may succeed.
var ErrLedgerBusy = errors.New("could not record the transaction, please try again")

var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrUserInactive = errors.New("user account is inactive")

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InsufficientStockError is returned when an outbound movement asks for more
// than is on hand. Nothing has been written when it is returned.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// ConflictError reports a request that is well-formed but clashes with
// existing state, such as deleting a supplier that still has products.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
