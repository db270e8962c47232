// Package view contains the pure list transforms: filtering, grouping and
// totals. It never talks to the network, so the commands and tests can share
// it directly.
package view

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dmelero/compra/internal/cache"
	"github.com/dmelero/compra/internal/ops"
	"github.com/dmelero/compra/internal/snapshot"
)

// Ungrouped is the bucket name for records with an empty value in the
// grouping column.
const Ungrouped = "Sin asignar"

// Apply filters the snapshot with f, hiding placeholder rows. Empty filter
// fields match everything; matching is case-insensitive and exact.
func Apply(snap snapshot.Snapshot, f cache.Filter) snapshot.Snapshot {
	out := make(snapshot.Snapshot, 0, len(snap))
	for _, rec := range snap.Visible() {
		if !matches(rec, ops.ColStatus, f.Status) {
			continue
		}
		if !matches(rec, ops.ColAssignee, f.Assignee) {
			continue
		}
		if !matches(rec, ops.ColLocation, f.Location) {
			continue
		}
		if !matches(rec, ops.ColType, f.Type) {
			continue
		}
		if !matchesSearch(rec, f.Search) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matches(rec snapshot.Record, field, want string) bool {
	if want == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(rec.Get(field)), strings.TrimSpace(want))
}

// matchesSearch does a case-insensitive substring match over the description
// and notes columns.
func matchesSearch(rec snapshot.Record, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range []string{snapshot.DescriptionColumn, ops.ColNotes} {
		if strings.Contains(strings.ToLower(rec.Get(field)), query) {
			return true
		}
	}
	return false
}

// Group is one bucket of a grouped listing.
type Group struct {
	Name    string
	Records snapshot.Snapshot
}

// GroupBy buckets the records by the given column, sorted by bucket name with
// the empty-value bucket last. An empty column yields a single unnamed group.
func GroupBy(snap snapshot.Snapshot, column string) []Group {
	if column == "" {
		return []Group{{Records: snap}}
	}
	buckets := make(map[string]snapshot.Snapshot)
	for _, rec := range snap {
		name := strings.TrimSpace(rec.Get(column))
		if name == "" {
			name = Ungrouped
		}
		buckets[name] = append(buckets[name], rec)
	}
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == Ungrouped {
			return false
		}
		if names[j] == Ungrouped {
			return true
		}
		return names[i] < names[j]
	})
	groups := make([]Group, 0, len(names))
	for _, name := range names {
		groups = append(groups, Group{Name: name, Records: buckets[name]})
	}
	return groups
}

// Totals aggregates the numeric columns of a listing.
type Totals struct {
	Items    int
	Pending  int
	Bought   int
	Quantity float64
	Total    float64
}

// Sum computes totals over the records, parsing numbers leniently.
func Sum(snap snapshot.Snapshot) Totals {
	var t Totals
	for _, rec := range snap {
		t.Items++
		switch strings.TrimSpace(rec.Get(ops.ColStatus)) {
		case ops.StatusBought:
			t.Bought++
		default:
			t.Pending++
		}
		if qty, ok := ParseNumber(rec.Get(ops.ColQuantity)); ok {
			t.Quantity += qty
		}
		if total, ok := ParseNumber(rec.Get(ops.ColTotal)); ok {
			t.Total += total
		}
	}
	return t
}

// ParseNumber reads a sheet cell as a number. Cells come back as display
// strings in the sheet's locale, so it accepts comma decimals, currency
// symbols and thousands separators; anything else parses as no-value.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ',', r == '.':
			b.WriteRune(r)
		}
	}
	s = b.String()
	// "1.234,56" and "12,5" are comma-decimal; "1,234.56" is dot-decimal.
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	if lastComma > lastDot {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
