package ops

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DetailsInput carries the full detail set for one row. All seven fields are
// mandatory even when unchanged; the per-field diff decides what gets
// logged.
type DetailsInput struct {
	RowIndex    int
	Location    *string
	Type        *string
	Assignee    *string
	Description *string
	Quantity    *string
	UnitPrice   *string
	Notes       *string
	User        string
}

// detailField pairs a column with its requested value.
type detailField struct {
	column string
	value  string
}

func (in DetailsInput) fields() ([]detailField, error) {
	if in.RowIndex == 0 || in.Location == nil || in.Type == nil || in.Assignee == nil ||
		in.Description == nil || in.Quantity == nil || in.UnitPrice == nil || in.Notes == nil {
		return nil, validationf("rowIndex and all new detail fields are required.")
	}
	return []detailField{
		{ColLocation, *in.Location},
		{ColType, *in.Type},
		{ColAssignee, *in.Assignee},
		{ColDescription, *in.Description},
		{ColQuantity, *in.Quantity},
		{ColUnitPrice, *in.UnitPrice},
		{ColNotes, *in.Notes},
	}, nil
}

// UpdateDetails rewrites the seven detail cells of one row. The cell writes
// have no ordering dependency and are issued concurrently; the operation
// succeeds only if all of them do. A failure can leave the row partially
// written, so callers should re-fetch to reconcile; there is no rollback.
func (s *Service) UpdateDetails(ctx context.Context, in DetailsInput) (string, error) {
	fields, err := in.fields()
	if err != nil {
		return "", err
	}

	old, err := s.store.Row(ctx, in.RowIndex)
	if err != nil {
		return "", err
	}
	oldDescription := old.Get(ColDescription)
	if oldDescription == "" {
		oldDescription = fmt.Sprintf("Row %d", in.RowIndex)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fields {
		g.Go(func() error {
			return s.store.SetCell(gctx, f.column, in.RowIndex, f.value)
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var changes []string
	for _, f := range fields {
		if old.Get(f.column) != f.value {
			changes = append(changes,
				fmt.Sprintf("field %q from %q to %q", f.column, old.Get(f.column), f.value))
		}
	}
	if len(changes) > 0 {
		s.log.Log(ctx, in.User, "Update Details",
			fmt.Sprintf("Product %q updated: %s", oldDescription, strings.Join(changes, ", ")))
	}

	return fmt.Sprintf("Row %d details updated.", in.RowIndex), nil
}
