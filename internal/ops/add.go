package ops

import (
	"context"
	"fmt"

	"github.com/dmelero/compra/internal/sheet"
)

// AddProductInput carries the fields of a new product row. All seven are
// mandatory; empty strings are legal values.
type AddProductInput struct {
	Description *string
	Type        *string
	UnitPrice   *string
	Quantity    *string
	Notes       *string
	Assignee    *string
	Location    *string
	User        string
}

// AddProduct finds the next free row by probing the description column from
// the header boundary, then writes a full row across every known column:
// unset columns as empty strings, the Total cell as a live formula
// referencing quantity × unit price in the new row, and the status defaulted
// to pending.
func (s *Service) AddProduct(ctx context.Context, in AddProductInput) (string, error) {
	if in.Description == nil || in.Type == nil || in.UnitPrice == nil || in.Quantity == nil ||
		in.Notes == nil || in.Assignee == nil || in.Location == nil {
		return "", validationf("newDescription, newType, newUnitPrice, newQuantity, newNotes, newAssignedTo and newLugarDeCompra are required.")
	}

	rowIndex, err := s.store.NextFreeRow(ctx, ColDescription)
	if err != nil {
		return "", err
	}

	index, _, err := s.store.Header(ctx)
	if err != nil {
		return "", err
	}
	quantityLetter, err := s.store.Letter(ctx, ColQuantity)
	if err != nil {
		return "", err
	}
	priceLetter, err := s.store.Letter(ctx, ColUnitPrice)
	if err != nil {
		return "", err
	}
	totalFormula := fmt.Sprintf("=%s%d*%s%d", quantityLetter, rowIndex, priceLetter, rowIndex)

	byColumn := map[string]string{
		ColLocation:    *in.Location,
		ColType:        *in.Type,
		ColAssignee:    *in.Assignee,
		ColDescription: *in.Description,
		ColQuantity:    *in.Quantity,
		ColUnitPrice:   *in.UnitPrice,
		ColTotal:       totalFormula,
		ColNotes:       *in.Notes,
		ColStatus:      StatusPending,
	}

	width := 0
	for column := range byColumn {
		i, ok := index[column]
		if !ok {
			return "", &sheet.ConfigurationError{Column: column}
		}
		if i+1 > width {
			width = i + 1
		}
	}
	cells := make([]string, width)
	for column, value := range byColumn {
		cells[index[column]] = value
	}

	if err := s.store.WriteRow(ctx, rowIndex, cells); err != nil {
		return "", err
	}

	s.log.Log(ctx, in.User, "Add Product", fmt.Sprintf("New product added: %q", *in.Description))

	return "Product added successfully.", nil
}
