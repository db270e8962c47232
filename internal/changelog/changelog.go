// Package changelog appends audit entries for every effective mutation to a
// secondary sheet. Logging is best-effort by design: an audit outage must
// never block the write the user asked for.
package changelog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmelero/compra/internal/sheet"
)

// SheetName is the audit log sheet tab.
const SheetName = "Historial de cambios"

// header is the fixed first row written when the sheet is created.
var header = []string{"Timestamp", "User", "Action", "Details"}

// Entry is one append-only audit record.
type Entry struct {
	Timestamp time.Time
	User      string
	Action    string
	Details   string
}

// Writer appends entries to the audit sheet, creating it with its header on
// first use.
type Writer struct {
	vals sheet.Values

	mu      sync.Mutex
	ensured bool
}

// NewWriter builds a Writer over the raw cell surface.
func NewWriter(vals sheet.Values) *Writer {
	return &Writer{vals: vals}
}

// Defuse neutralizes spreadsheet formula injection: a value starting with
// "=" gets a leading apostrophe so it round-trips as literal text.
func Defuse(value string) string {
	if strings.HasPrefix(value, "=") {
		return "'" + value
	}
	return value
}

// Append records one entry. The user defaults to "Unknown" when empty.
// Returns the append error so callers can decide; Log is the fire-and-forget
// variant most operations use.
func (w *Writer) Append(ctx context.Context, e Entry) error {
	if err := w.ensureSheet(ctx); err != nil {
		return fmt.Errorf("ensure log sheet: %w", err)
	}

	user := e.User
	if user == "" {
		user = "Unknown"
	}
	action := e.Action
	if action == "" {
		action = "Unknown"
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	row := []string{
		ts.UTC().Format(time.RFC3339),
		Defuse(user),
		Defuse(action),
		Defuse(e.Details),
	}
	if err := w.vals.Append(ctx, fmt.Sprintf("%s!A1", SheetName), [][]string{row}); err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

// Log appends an entry, swallowing failures. The write the entry describes
// already succeeded; a logging outage is reported to the operational log and
// nowhere else.
func (w *Writer) Log(ctx context.Context, user, action, details string) {
	if err := w.Append(ctx, Entry{User: user, Action: action, Details: details}); err != nil {
		slog.Error("change log append failed", "action", action, "err", err)
	}
}

// ensureSheet creates the audit sheet and header row if absent. The check
// runs once per Writer; creation races with another process are tolerated
// (the duplicate AddSheet error is treated as created).
func (w *Writer) ensureSheet(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ensured {
		return nil
	}

	_, titles, err := w.vals.Title(ctx)
	if err != nil {
		return fmt.Errorf("list sheets: %w", err)
	}
	for _, t := range titles {
		if t == SheetName {
			w.ensured = true
			return nil
		}
	}

	if err := w.vals.AddSheet(ctx, SheetName); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("create log sheet: %w", err)
		}
	} else if err := w.vals.Update(ctx, fmt.Sprintf("%s!A1", SheetName), [][]string{header}); err != nil {
		return fmt.Errorf("write log header: %w", err)
	}
	w.ensured = true
	return nil
}
