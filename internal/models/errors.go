// internal/models/errors.go
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidationError is raised before any remote call is made.
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// ConflictError reports a barcode already held by another active product.
type ConflictError struct {
	Barcode     string
	ProductID   uuid.UUID
	ProductName string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("barcode %s already assigned to product %q", e.Barcode, e.ProductName)
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

// RemoteError wraps a failure reported by, or reaching, the data store.
type RemoteError struct {
	Op      string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Op == "" {
		return "remote store: " + e.Message
	}
	return fmt.Sprintf("remote store %s: %s", e.Op, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
