// Package notify delivers external-change notifications from the
// reconciliation engine: styled terminal output for the watch command and an
// optional Telegram channel.
package notify

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmelero/compra/internal/reconcile"
	"github.com/dmelero/compra/internal/snapshot"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	deletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	editedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Terminal writes change summaries to w.
type Terminal struct {
	w io.Writer
}

// NewTerminal creates a terminal notifier.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// ExternalChange prints the staged diff.
func (t *Terminal) ExternalChange(change reconcile.Staged) {
	fmt.Fprintln(t.w, headerStyle.Render("La lista ha cambiado:"))
	fmt.Fprint(t.w, FormatDiff(change.Diff))
}

// FormatDiff renders a diff as styled lines, one per change.
func FormatDiff(diff snapshot.Diff) string {
	var b strings.Builder
	for _, rec := range diff.Added {
		b.WriteString(addedStyle.Render(fmt.Sprintf("+ fila %d: %s", rec.RowIndex, label(rec))))
		b.WriteByte('\n')
	}
	for _, rec := range diff.Deleted {
		b.WriteString(deletedStyle.Render(fmt.Sprintf("- fila %d: %s", rec.RowIndex, label(rec))))
		b.WriteByte('\n')
	}
	for _, edit := range diff.Edited {
		b.WriteString(editedStyle.Render(fmt.Sprintf("~ fila %d: %s", edit.RowIndex, label(edit.Record))))
		b.WriteByte('\n')
		for _, ch := range edit.Changes {
			b.WriteString(subtleStyle.Render(fmt.Sprintf("    %s: %q → %q", ch.Field, ch.From, ch.To)))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func label(rec snapshot.Record) string {
	if desc := rec.Description(); desc != "" {
		return desc
	}
	return "(sin descripción)"
}
