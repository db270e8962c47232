package sheet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/dmelero/compra/internal/snapshot"
)

// HeaderRow is the 1-based row holding the column names; data starts on the
// row below. Rows above hold the budget summary block.
const HeaderRow = 11

// DataStartRow is the first data row.
const DataStartRow = HeaderRow + 1

// lastFetchColumn bounds open-ended fetches, same as the A:Z ranges the
// sheet layout has always fit in.
const lastFetchColumn = "Z"

// ConfigurationError reports a required column missing from the header row.
// It surfaces to API callers as a 500 with a fixed message, never as a
// silent default.
type ConfigurationError struct {
	Column string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("required column %q not found in header row", e.Column)
}

// Store adapts the raw cell surface into keyed row records for one list
// sheet. Header resolution is cached, keyed by a hash of the header row
// itself, so a layout change invalidates the cache without a restart.
type Store struct {
	vals      Values
	sheetName string

	mu          sync.Mutex
	headerHash  string
	headerIndex map[string]int
	headerOrder []string
}

// NewStore builds a Store over the given cell surface and sheet tab name.
func NewStore(vals Values, sheetName string) *Store {
	return &Store{vals: vals, sheetName: sheetName}
}

// SheetName returns the list sheet tab name.
func (s *Store) SheetName() string { return s.sheetName }

// Values exposes the raw cell surface for collaborators that address other
// sheet tabs (change log, members roster).
func (s *Store) Values() Values { return s.vals }

// ColumnLetter converts a 0-based column index to spreadsheet letters
// (A, B, ..., Z, AA, AB, ...).
func ColumnLetter(index int) string {
	letters := ""
	n := index
	for n >= 0 {
		letters = string(rune('A'+n%26)) + letters
		n = n/26 - 1
	}
	return letters
}

// Header returns the column name → 0-based index mapping and the header key
// order, resolving and caching from the header row. The cache is keyed by a
// digest of the header row: resolving again after the header changed
// refreshes the mapping instead of serving the process-lifetime copy.
func (s *Store) Header(ctx context.Context) (map[string]int, []string, error) {
	rows, err := s.vals.Get(ctx, fmt.Sprintf("%s!A%d:%s%d", s.sheetName, HeaderRow, lastFetchColumn, HeaderRow))
	if err != nil {
		return nil, nil, fmt.Errorf("fetch header row: %w", err)
	}
	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	digest := headerDigest(header)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.headerHash != digest {
		index := make(map[string]int, len(header))
		var order []string
		for i, name := range header {
			if name == "" {
				continue
			}
			if _, dup := index[name]; dup {
				continue
			}
			index[name] = i
			order = append(order, name)
		}
		s.headerIndex = index
		s.headerOrder = order
		s.headerHash = digest
	}
	return s.headerIndex, append([]string(nil), s.headerOrder...), nil
}

// InvalidateHeader drops the cached header mapping.
func (s *Store) InvalidateHeader() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headerHash = ""
	s.headerIndex = nil
	s.headerOrder = nil
}

func headerDigest(header []string) string {
	sum := sha256.Sum256([]byte(strings.Join(header, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// Letter resolves a column name to its sheet letter. A missing column is a
// ConfigurationError.
func (s *Store) Letter(ctx context.Context, column string) (string, error) {
	index, _, err := s.Header(ctx)
	if err != nil {
		return "", err
	}
	i, ok := index[column]
	if !ok {
		return "", &ConfigurationError{Column: column}
	}
	return ColumnLetter(i), nil
}

// CellRange returns the A1 range of a single named-column cell on a row.
func (s *Store) CellRange(ctx context.Context, column string, rowIndex int) (string, error) {
	letter, err := s.Letter(ctx, column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!%s%d:%s%d", s.sheetName, letter, rowIndex, letter, rowIndex), nil
}

// Cell reads a single cell by column name and absolute row, empty string
// when the cell is unset.
func (s *Store) Cell(ctx context.Context, column string, rowIndex int) (string, error) {
	rng, err := s.CellRange(ctx, column, rowIndex)
	if err != nil {
		return "", err
	}
	rows, err := s.vals.Get(ctx, rng)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil
	}
	return rows[0][0], nil
}

// SetCell writes a single cell by column name and absolute row.
func (s *Store) SetCell(ctx context.Context, column string, rowIndex int, value string) error {
	rng, err := s.CellRange(ctx, column, rowIndex)
	if err != nil {
		return err
	}
	return s.vals.Update(ctx, rng, [][]string{{value}})
}

// Row reads one data row as a record keyed by the header.
func (s *Store) Row(ctx context.Context, rowIndex int) (snapshot.Record, error) {
	index, order, err := s.Header(ctx)
	if err != nil {
		return snapshot.Record{}, err
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", s.sheetName, rowIndex, lastFetchColumn, rowIndex)
	rows, err := s.vals.Get(ctx, rng)
	if err != nil {
		return snapshot.Record{}, err
	}
	var cells []string
	if len(rows) > 0 {
		cells = rows[0]
	}
	return recordFromCells(rowIndex, order, index, cells), nil
}

// Snapshot fetches the full current row set, header included in the range
// but not in the records, each record tagged with its absolute row index.
func (s *Store) Snapshot(ctx context.Context) (snapshot.Snapshot, error) {
	rows, err := s.vals.Get(ctx, fmt.Sprintf("%s!A%d:%s", s.sheetName, HeaderRow, lastFetchColumn))
	if err != nil {
		return nil, fmt.Errorf("fetch rows: %w", err)
	}
	if len(rows) == 0 {
		return snapshot.Snapshot{}, nil
	}
	index, order, err := s.Header(ctx)
	if err != nil {
		return nil, err
	}
	out := make(snapshot.Snapshot, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		out = append(out, recordFromCells(DataStartRow+i, order, index, cells))
	}
	return out, nil
}

// NextFreeRow probes the length of the given column from the header row down
// and returns the first row past the last populated cell.
func (s *Store) NextFreeRow(ctx context.Context, column string) (int, error) {
	letter, err := s.Letter(ctx, column)
	if err != nil {
		return 0, err
	}
	rows, err := s.vals.Get(ctx, fmt.Sprintf("%s!%s%d:%s", s.sheetName, letter, HeaderRow, letter))
	if err != nil {
		return 0, fmt.Errorf("probe %s column: %w", column, err)
	}
	return HeaderRow + len(rows), nil
}

// WriteRow writes a full row spanning from column A through the last header
// column.
func (s *Store) WriteRow(ctx context.Context, rowIndex int, cells []string) error {
	last := ColumnLetter(len(cells) - 1)
	rng := fmt.Sprintf("%s!A%d:%s%d", s.sheetName, rowIndex, last, rowIndex)
	return s.vals.Update(ctx, rng, [][]string{cells})
}

func recordFromCells(rowIndex int, order []string, index map[string]int, cells []string) snapshot.Record {
	values := make(map[string]string, len(order))
	for _, name := range order {
		i := index[name]
		if i < len(cells) {
			values[name] = cells[i]
		} else {
			values[name] = ""
		}
	}
	return snapshot.NewRecord(rowIndex, order, values)
}
