// Package sheettest provides an in-memory sheet.Values implementation that
// mimics the Sheets API value surface closely enough for adapter, operation,
// and handler tests: ragged rows, trailing-empty trimming, open-ended
// ranges, and row-appending after the last populated row.
package sheettest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dmelero/compra/internal/sheet"
)

// Fake is an in-memory spreadsheet. Cells are addressed by sheet tab, then
// 1-based row and column. Safe for concurrent use.
type Fake struct {
	mu            sync.Mutex
	Name          string
	tabs          map[string]map[int]map[int]string
	order         []string
	GetErr        error
	UpdateErr     error
	BatchErr      error
	AppendErr     error
	UpdateCount   int
	AppendedRows  int
	UpdatedRanges []string
}

// New creates a fake spreadsheet with the given title.
func New(title string) *Fake {
	return &Fake{Name: title, tabs: map[string]map[int]map[int]string{}}
}

// AddTab creates an empty sheet tab.
func (f *Fake) AddTab(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addTabLocked(title)
}

func (f *Fake) addTabLocked(title string) {
	if _, ok := f.tabs[title]; !ok {
		f.tabs[title] = map[int]map[int]string{}
		f.order = append(f.order, title)
	}
}

// Seed fills a tab row-major starting at the given 1-based row and column 1.
func (f *Fake) Seed(tab string, startRow int, rows [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addTabLocked(tab)
	for i, row := range rows {
		for j, v := range row {
			f.setLocked(tab, startRow+i, j+1, v)
		}
	}
}

// CellValue returns the raw value of one cell, empty when unset.
func (f *Fake) CellValue(tab string, row, col int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cells, ok := f.tabs[tab]; ok {
		return cells[row][col]
	}
	return ""
}

// RowValues returns the cells of one row up to the last populated column.
func (f *Fake) RowValues(tab string, row int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	cells, ok := f.tabs[tab]
	if !ok {
		return nil
	}
	max := 0
	for col := range cells[row] {
		if col > max {
			max = col
		}
	}
	out := make([]string, max)
	for col, v := range cells[row] {
		out[col-1] = v
	}
	return out
}

// LastRow returns the last populated 1-based row of a tab, 0 when empty.
func (f *Fake) LastRow(tab string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRowLocked(tab)
}

func (f *Fake) lastRowLocked(tab string) int {
	last := 0
	for row, cells := range f.tabs[tab] {
		if len(cells) > 0 && row > last {
			last = row
		}
	}
	return last
}

func (f *Fake) setLocked(tab string, row, col int, value string) {
	cells := f.tabs[tab]
	if cells[row] == nil {
		cells[row] = map[int]string{}
	}
	if value == "" {
		delete(cells[row], col)
		return
	}
	cells[row][col] = value
}

// HasTab reports whether a sheet tab exists.
func (f *Fake) HasTab(title string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tabs[title]
	return ok
}

func (f *Fake) Get(_ context.Context, rangeA1 string) ([][]string, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tab, r, err := f.resolveLocked(rangeA1)
	if err != nil {
		return nil, err
	}
	endRow := r.endRow
	if endRow == 0 || endRow > f.lastRowLocked(tab) {
		endRow = f.lastRowLocked(tab)
	}
	var out [][]string
	for row := r.startRow; row <= endRow; row++ {
		cells := f.tabs[tab][row]
		lastCol := 0
		for col := r.startCol; col <= r.endCol; col++ {
			if cells[col] != "" {
				lastCol = col
			}
		}
		var vals []string
		for col := r.startCol; col <= lastCol; col++ {
			vals = append(vals, cells[col])
		}
		out = append(out, vals)
	}
	// The API omits trailing empty rows.
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *Fake) Update(_ context.Context, rangeA1 string, values [][]string) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tab, r, err := f.resolveLocked(rangeA1)
	if err != nil {
		return err
	}
	for i, row := range values {
		for j, v := range row {
			f.setLocked(tab, r.startRow+i, r.startCol+j, v)
		}
	}
	f.UpdateCount++
	f.UpdatedRanges = append(f.UpdatedRanges, rangeA1)
	return nil
}

func (f *Fake) BatchUpdate(ctx context.Context, data []sheet.RangeValues) error {
	if f.BatchErr != nil {
		return f.BatchErr
	}
	for _, d := range data {
		if err := f.Update(ctx, d.Range, d.Values); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fake) Append(_ context.Context, rangeA1 string, values [][]string) error {
	if f.AppendErr != nil {
		return f.AppendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tab, _, err := f.resolveLocked(rangeA1)
	if err != nil {
		return err
	}
	start := f.lastRowLocked(tab) + 1
	for i, row := range values {
		for j, v := range row {
			f.setLocked(tab, start+i, j+1, v)
		}
	}
	f.AppendedRows += len(values)
	return nil
}

func (f *Fake) Title(_ context.Context) (string, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Name, append([]string(nil), f.order...), nil
}

func (f *Fake) AddSheet(_ context.Context, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tabs[title]; ok {
		return fmt.Errorf("sheet %q already exists", title)
	}
	f.addTabLocked(title)
	return nil
}

type fakeRange struct {
	startCol, startRow int
	endCol, endRow     int // endRow 0 means open-ended
}

func (f *Fake) resolveLocked(rangeA1 string) (string, fakeRange, error) {
	tab, spec, ok := strings.Cut(rangeA1, "!")
	if !ok {
		return "", fakeRange{}, fmt.Errorf("range %q missing sheet name", rangeA1)
	}
	if _, exists := f.tabs[tab]; !exists {
		return "", fakeRange{}, fmt.Errorf("unable to parse range: %s", rangeA1)
	}
	startRef, endRef, hasEnd := strings.Cut(spec, ":")
	startCol, startRow, err := parseCellRef(startRef)
	if err != nil {
		return "", fakeRange{}, err
	}
	if startRow == 0 {
		startRow = 1
	}
	r := fakeRange{startCol: startCol, startRow: startRow, endCol: startCol, endRow: startRow}
	if hasEnd {
		endCol, endRow, err := parseCellRef(endRef)
		if err != nil {
			return "", fakeRange{}, err
		}
		r.endCol = endCol
		r.endRow = endRow // 0 when the ref has no row digits: open-ended
	}
	return tab, r, nil
}

// parseCellRef splits "D11" into column 4 and row 11. A bare column like
// "D" yields row 0.
func parseCellRef(ref string) (int, int, error) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	if i == 0 {
		return 0, 0, fmt.Errorf("bad cell ref %q", ref)
	}
	col := 0
	for _, c := range ref[:i] {
		col = col*26 + int(c-'A') + 1
	}
	row := 0
	if i < len(ref) {
		n, err := strconv.Atoi(ref[i:])
		if err != nil {
			return 0, 0, fmt.Errorf("bad cell ref %q", ref)
		}
		row = n
	}
	return col, row, nil
}
