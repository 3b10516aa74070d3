package apierror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers unknown ids and any cross-owner access attempt.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock is returned when a sale asks for more units than
	// are available, including races lost after the initial read.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict is a transaction aborted by the store because of
	// contention. Callers may retry with a fresh request.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrPersistence wraps any other failure of the underlying store.
	ErrPersistence = errors.New("persistence failure")
	// ErrDuplicate is a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrUnauthorized is a failed credential check.
	ErrUnauthorized = errors.New("invalid credentials")
)

// ValidationError reports malformed or missing input. It doubles as the
// 422 response body.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation error", Fields: fields}
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, reason string) *ValidationError {
	return NewValidation(map[string]string{field: reason})
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// StockError carries the quantities behind an ErrInsufficientStock.
// Available is -1 when the shortfall was detected by the conditional
// decrement and the current level is unknown.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	if e.Available < 0 {
		return fmt.Sprintf("insufficient stock for product %s: requested %d", e.ProductID, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }
