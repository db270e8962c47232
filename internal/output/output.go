// Package output provides styled terminal output helpers (success, error,
// list formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmelero/compra/internal/ops"
	"github.com/dmelero/compra/internal/snapshot"
	"github.com/dmelero/compra/internal/view"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusStyles = map[string]lipgloss.Style{
		ops.StatusPending: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		ops.StatusBought:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// Title prints a bold heading
func Title(format string, args ...interface{}) {
	fmt.Println(titleStyle.Render(fmt.Sprintf(format, args...)))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// FormatStatus formats a status with color
func FormatStatus(s string) string {
	style, ok := statusStyles[s]
	if !ok {
		return s
	}
	return style.Render(s)
}

// Record prints one list row: index, status, description, then the numeric
// and secondary fields dimmed.
func Record(rec snapshot.Record) {
	desc := rec.Description()
	if desc == "" {
		desc = "(sin descripción)"
	}
	line := fmt.Sprintf("%4d  %-10s %s", rec.RowIndex, FormatStatus(rec.Get(ops.ColStatus)), desc)
	var extras []string
	if q := strings.TrimSpace(rec.Get(ops.ColQuantity)); q != "" {
		extras = append(extras, "x"+q)
	}
	if p := strings.TrimSpace(rec.Get(ops.ColUnitPrice)); p != "" {
		extras = append(extras, p+" €")
	}
	if a := strings.TrimSpace(rec.Get(ops.ColAssignee)); a != "" {
		extras = append(extras, a)
	}
	if l := strings.TrimSpace(rec.Get(ops.ColLocation)); l != "" {
		extras = append(extras, l)
	}
	if len(extras) > 0 {
		line += "  " + subtleStyle.Render(strings.Join(extras, " · "))
	}
	fmt.Println(line)
}

// List prints the grouped records with a totals footer.
func List(groups []view.Group, totals view.Totals) {
	for _, g := range groups {
		if g.Name != "" {
			Title("%s", g.Name)
		}
		for _, rec := range g.Records {
			Record(rec)
		}
	}
	fmt.Println(subtleStyle.Render(fmt.Sprintf(
		"%d artículos · %d pendientes · %d comprados · total %.2f €",
		totals.Items, totals.Pending, totals.Bought, totals.Total)))
}
