package api

import (
	"fmt"
	"net/http"

	"github.com/dmelero/compra/internal/ops"
	"github.com/dmelero/compra/internal/sheet"
	"github.com/dmelero/compra/internal/snapshot"
)

// getAction enumerates the read actions.
type getAction string

const (
	actionGetItems      getAction = "get_items"
	actionGetHash       getAction = "get_hash"
	actionGetOptions    getAction = "get_options"
	actionGetSummary    getAction = "get_summary"
	actionGetMembers    getAction = "get_members"
	actionGetSheetTitle getAction = "get_sheet_title"
)

// summaryEndRow bounds the budget summary block at the top of the sheet.
const summaryEndRow = sheet.HeaderRow - 1

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	switch getAction(r.URL.Query().Get("action")) {
	case actionGetHash:
		s.handleGetHash(w, r)
	case actionGetOptions:
		s.handleGetOptions(w, r)
	case actionGetSummary:
		s.handleGetSummary(w, r)
	case actionGetMembers:
		s.handleGetMembers(w, r)
	case actionGetSheetTitle:
		s.handleGetSheetTitle(w, r)
	case actionGetItems:
		s.handleGetItems(w, r)
	default:
		// Unknown or absent action falls through to the item list.
		s.handleGetItems(w, r)
	}
}

// handleGetItems returns the full row set with row indexes attached.
func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleGetHash returns the content hash of the current row set, the cheap
// equality oracle the polling clients use.
func (s *Server) handleGetHash(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hash": snapshot.Hash(snap)})
}

// handleGetOptions returns the unique non-empty status values in column
// order, with the two default statuses always present.
func (s *Server) handleGetOptions(w http.ResponseWriter, r *http.Request) {
	letter, err := s.store.Letter(r.Context(), ops.ColStatus)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rows, err := s.store.Values().Get(r.Context(),
		fmt.Sprintf("%s!%s%d:%s", s.store.SheetName(), letter, sheet.DataStartRow, letter))
	if err != nil {
		respondError(w, r, err)
		return
	}

	options := make([]string, 0, len(rows)+len(ops.DefaultStatuses))
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, v := range row {
			if v != "" && !seen[v] {
				seen[v] = true
				options = append(options, v)
			}
		}
	}
	for _, v := range ops.DefaultStatuses {
		if !seen[v] {
			seen[v] = true
			options = append(options, v)
		}
	}
	writeJSON(w, http.StatusOK, options)
}

// summaryItem is one labelled value of the budget block.
type summaryItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// handleGetSummary parses the budget summary block above the header row:
// the label in the first column, the value the first non-empty cell of the
// rest of the row. Rows missing either are dropped.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.Values().Get(r.Context(),
		fmt.Sprintf("%s!A1:B%d", s.store.SheetName(), summaryEndRow))
	if err != nil {
		respondError(w, r, err)
		return
	}

	summary := make([]summaryItem, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		value := ""
		for _, v := range row[1:] {
			if v != "" {
				value = v
				break
			}
		}
		if value == "" {
			continue
		}
		summary = append(summary, summaryItem{Label: row[0], Value: value})
	}
	writeJSON(w, http.StatusOK, summary)
}

// member is one roster entry.
type member struct {
	Name   string `json:"name"`
	Access string `json:"access"`
}

// handleGetMembers reads the roster sheet. The roster has its own header
// row; the name and access columns are located by name and both are
// required.
func (s *Server) handleGetMembers(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.Values().Get(r.Context(),
		fmt.Sprintf("%s!A%d:D", MembersSheet, membersHeaderRow))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if len(rows) == 0 {
		writeJSON(w, http.StatusOK, []member{})
		return
	}

	nameCol, accessCol := -1, -1
	for i, h := range rows[0] {
		switch h {
		case "Miembro":
			nameCol = i
		case "¿Acceso App?":
			accessCol = i
		}
	}
	if nameCol == -1 || accessCol == -1 {
		writeError(w, http.StatusInternalServerError, "Required columns not found in Miembros sheet.", "")
		return
	}

	members := make([]member, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := member{}
		if nameCol < len(row) {
			m.Name = row[nameCol]
		}
		if accessCol < len(row) {
			m.Access = row[accessCol]
		}
		if m.Name == "" {
			continue
		}
		members = append(members, m)
	}
	writeJSON(w, http.StatusOK, members)
}

// handleGetSheetTitle returns the spreadsheet title.
func (s *Server) handleGetSheetTitle(w http.ResponseWriter, r *http.Request) {
	title, _, err := s.store.Values().Title(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"title": title})
}
