// Package sheet is the row store adapter: the only package that talks to the
// backing spreadsheet. It translates tabular cell ranges into keyed records,
// resolves column letters from the header row, and issues user-entered
// writes so the store keeps interpreting formulas and locale number formats.
package sheet

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// RangeValues is one write target in a batch.
type RangeValues struct {
	Range  string
	Values [][]string
}

// Values is the raw cell access contract. The real implementation wraps the
// Google Sheets v4 service; tests use the in-memory fake in sheettest.
type Values interface {
	// Get fetches a range. Trailing empty rows and cells are absent, rows
	// may be ragged, matching the Sheets API.
	Get(ctx context.Context, rangeA1 string) ([][]string, error)
	// Update writes values starting at the range origin with user-entered
	// semantics.
	Update(ctx context.Context, rangeA1 string, values [][]string) error
	// BatchUpdate applies several Update targets in one request.
	BatchUpdate(ctx context.Context, data []RangeValues) error
	// Append inserts rows after the last data row of the ranged table.
	Append(ctx context.Context, rangeA1 string, values [][]string) error
	// Title returns the spreadsheet title and the titles of its sheets.
	Title(ctx context.Context) (string, []string, error)
	// AddSheet creates a new sheet tab with the given title.
	AddSheet(ctx context.Context, title string) error
}

// Service is the Google Sheets v4 implementation of Values, bound to one
// spreadsheet.
type Service struct {
	api           *sheets.Service
	spreadsheetID string
}

// NewService builds a Values implementation from service account credentials
// JSON (the GOOGLE_CREDENTIALS payload) and a spreadsheet ID.
func NewService(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*Service, error) {
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("sheet: credentials JSON is empty")
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheet: spreadsheet ID is empty")
	}
	api, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheet: create service: %w", err)
	}
	return &Service{api: api, spreadsheetID: spreadsheetID}, nil
}

func (s *Service) Get(ctx context.Context, rangeA1 string) ([][]string, error) {
	resp, err := s.api.Spreadsheets.Values.Get(s.spreadsheetID, rangeA1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rangeA1, err)
	}
	return fromInterfaceRows(resp.Values), nil
}

func (s *Service) Update(ctx context.Context, rangeA1 string, values [][]string) error {
	vr := &sheets.ValueRange{Values: toInterfaceRows(values)}
	_, err := s.api.Spreadsheets.Values.Update(s.spreadsheetID, rangeA1, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rangeA1, err)
	}
	return nil
}

func (s *Service) BatchUpdate(ctx context.Context, data []RangeValues) error {
	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED"}
	for _, d := range data {
		req.Data = append(req.Data, &sheets.ValueRange{
			Range:  d.Range,
			Values: toInterfaceRows(d.Values),
		})
	}
	_, err := s.api.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}
	return nil
}

func (s *Service) Append(ctx context.Context, rangeA1 string, values [][]string) error {
	vr := &sheets.ValueRange{Values: toInterfaceRows(values)}
	_, err := s.api.Spreadsheets.Values.Append(s.spreadsheetID, rangeA1, vr).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", rangeA1, err)
	}
	return nil
}

func (s *Service) Title(ctx context.Context) (string, []string, error) {
	resp, err := s.api.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	var titles []string
	for _, sh := range resp.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	var title string
	if resp.Properties != nil {
		title = resp.Properties.Title
	}
	return title, titles, nil
}

func (s *Service) AddSheet(ctx context.Context, title string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}
	_, err := s.api.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	return nil
}

func toInterfaceRows(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

func fromInterfaceRows(rows [][]interface{}) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			if s, ok := v.(string); ok {
				cells[j] = s
			} else if v != nil {
				cells[j] = fmt.Sprintf("%v", v)
			}
		}
		out[i] = cells
	}
	return out
}
