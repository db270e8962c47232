// Package ops implements the field-scoped update operations. Every variant
// is a read-verify-write-log sequence: read the current value, write the new
// one with user-entered semantics, and append a change-log entry only when
// the value actually changed (string comparison). Audit failures never fail
// the operation.
package ops

import (
	"context"
	"fmt"

	"github.com/dmelero/compra/internal/changelog"
	"github.com/dmelero/compra/internal/sheet"
)

// Service executes update operations against one list sheet.
type Service struct {
	store *sheet.Store
	log   *changelog.Writer
}

// NewService builds an operation service over the adapter and change log.
func NewService(store *sheet.Store, log *changelog.Writer) *Service {
	return &Service{store: store, log: log}
}

// Store exposes the underlying adapter for read-side handlers.
func (s *Service) Store() *sheet.Store { return s.store }

// SingleFieldInput is the request for the status, quantity and unit price
// operations. Value is a pointer so an absent field is distinguishable from
// an explicit empty string.
type SingleFieldInput struct {
	RowIndex int
	Value    *string
	User     string
}

// UpdateStatus sets the status cell of one row.
func (s *Service) UpdateStatus(ctx context.Context, in SingleFieldInput) (string, error) {
	return s.updateSingle(ctx, in, ColStatus, "Update Status", "status", "newStatus")
}

// UpdateQuantity sets the quantity cell of one row.
func (s *Service) UpdateQuantity(ctx context.Context, in SingleFieldInput) (string, error) {
	return s.updateSingle(ctx, in, ColQuantity, "Update Quantity", "quantity", "newQuantity")
}

// UpdateUnitPrice sets the unit price cell of one row.
func (s *Service) UpdateUnitPrice(ctx context.Context, in SingleFieldInput) (string, error) {
	return s.updateSingle(ctx, in, ColUnitPrice, "Update Unit Price", "unit price", "newUnitPrice")
}

func (s *Service) updateSingle(ctx context.Context, in SingleFieldInput, column, action, noun, fieldName string) (string, error) {
	if in.RowIndex == 0 || in.Value == nil {
		return "", validationf("rowIndex and %s are required.", fieldName)
	}
	newValue := *in.Value

	// Product description first, for the log message.
	description, err := s.store.Cell(ctx, ColDescription, in.RowIndex)
	if err != nil {
		return "", err
	}
	if description == "" {
		description = fmt.Sprintf("Row %d", in.RowIndex)
	}

	oldValue, err := s.store.Cell(ctx, column, in.RowIndex)
	if err != nil {
		return "", err
	}

	if err := s.store.SetCell(ctx, column, in.RowIndex, newValue); err != nil {
		return "", err
	}

	if oldValue != newValue {
		s.log.Log(ctx, in.User, action,
			fmt.Sprintf("Product %q %s changed from %q to %q", description, noun, oldValue, newValue))
	}

	return fmt.Sprintf("Row %d %s updated to %s", in.RowIndex, noun, newValue), nil
}
