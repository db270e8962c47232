// Package export renders a snapshot to an .xlsx workbook for sharing outside
// the spreadsheet.
package export

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/dmelero/compra/internal/ops"
	"github.com/dmelero/compra/internal/snapshot"
	"github.com/dmelero/compra/internal/view"
)

// XLSX builds a workbook from the snapshot. The first sheet carries the list
// in header order; a second sheet carries the computed totals.
func XLSX(snap snapshot.Snapshot, title string) ([]byte, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if title != "" {
		if err := f.SetSheetName(sheet, clampSheetName(title)); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
		sheet = clampSheetName(title)
	}

	visible := snap.Visible().Sorted()
	headers := headerOrder(visible)

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for r, rec := range visible {
		for c, key := range headers {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, rec.Get(key)); err != nil {
				return nil, err
			}
		}
	}

	if err := writeTotals(f, visible); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the snapshot and writes the workbook to path.
func WriteFile(path string, snap snapshot.Snapshot, title string) error {
	data, err := XLSX(snap, title)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

func writeTotals(f *excelize.File, snap snapshot.Snapshot) error {
	const sheet = "Resumen"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create totals sheet: %w", err)
	}
	t := view.Sum(snap)
	rows := [][]any{
		{"Artículos", t.Items},
		{ops.StatusPending, t.Pending},
		{ops.StatusBought, t.Bought},
		{"Cantidad total", t.Quantity},
		{"Importe total", t.Total},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func headerOrder(snap snapshot.Snapshot) []string {
	if len(snap) > 0 {
		return snap[0].Keys()
	}
	return []string{
		ops.ColLocation, ops.ColType, ops.ColAssignee, ops.ColDescription,
		ops.ColQuantity, ops.ColUnitPrice, ops.ColTotal, ops.ColNotes, ops.ColStatus,
	}
}

// clampSheetName keeps the sheet name inside Excel's 31-character limit.
func clampSheetName(name string) string {
	runes := []rune(name)
	if len(runes) <= 31 {
		return name
	}
	return string(runes[:31])
}
