package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmelero/compra/internal/sheet"
)

// BulkInput targets a set of rows with the bulk-settable fields. A field
// with an empty value is skipped entirely: bulk update can set a field
// across rows, never clear it (an empty value is indistinguishable from an
// untouched form field, a known limitation).
type BulkInput struct {
	RowIndexes []int
	Location   string
	Type       string
	Assignee   string
	Status     string
	User       string
}

// BulkUpdate schedules one cell write per non-empty field per target row and
// applies them as a single batch. One aggregate log entry names the changed
// field set and the row count. Partial failure leaves some cells written;
// callers should re-fetch to reconcile.
func (s *Service) BulkUpdate(ctx context.Context, in BulkInput) (string, error) {
	if len(in.RowIndexes) == 0 {
		return "", validationf("rowIndexes array is required.")
	}

	fields := []detailField{
		{ColLocation, in.Location},
		{ColType, in.Type},
		{ColAssignee, in.Assignee},
		{ColStatus, in.Status},
	}

	var data []sheet.RangeValues
	var changed []string
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		changed = append(changed, f.column)
		for _, rowIndex := range in.RowIndexes {
			rng, err := s.store.CellRange(ctx, f.column, rowIndex)
			if err != nil {
				return "", err
			}
			data = append(data, sheet.RangeValues{Range: rng, Values: [][]string{{f.value}}})
		}
	}
	if len(data) == 0 {
		return "", validationf("No fields to update were provided.")
	}

	if err := s.store.Values().BatchUpdate(ctx, data); err != nil {
		return "", err
	}

	s.log.Log(ctx, in.User, "Bulk Update",
		fmt.Sprintf("Updated %d products. Changed fields: %s", len(in.RowIndexes), strings.Join(changed, ", ")))

	return fmt.Sprintf("%d rows updated successfully.", len(in.RowIndexes)), nil
}
