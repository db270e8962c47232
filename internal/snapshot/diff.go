package snapshot

// TotalColumn holds a derived formula value and is excluded from diffing:
// it changes as a side effect of quantity or price edits.
const TotalColumn = "Total"

// ignoredFields are never reported as per-field edits.
var ignoredFields = map[string]bool{
	"rowIndex":  true,
	TotalColumn: true,
}

// FieldChange is one differing field on a row present in both snapshots.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Edit is a row present in both snapshots with at least one differing field.
type Edit struct {
	RowIndex int           `json:"rowIndex"`
	Record   Record        `json:"record"`
	Changes  []FieldChange `json:"changedFields"`
}

// Diff is the structural difference between two snapshots, keyed by row
// index.
type Diff struct {
	Added   []Record `json:"added"`
	Deleted []Record `json:"deleted"`
	Edited  []Edit   `json:"edited"`
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Deleted) == 0 && len(d.Edited) == 0
}

// Compare computes the structural diff from an old snapshot to a new one.
// Rows are matched by rowIndex. For matched rows every field in the union of
// both key sets is compared as a string, except the ignore list (rowIndex and
// the derived Total column). Output order follows the new snapshot for added
// and edited rows and the old snapshot for deleted rows.
func Compare(old, current Snapshot) Diff {
	oldByIndex := make(map[int]Record, len(old))
	for _, r := range old {
		oldByIndex[r.RowIndex] = r
	}
	newByIndex := make(map[int]Record, len(current))
	for _, r := range current {
		newByIndex[r.RowIndex] = r
	}

	var d Diff
	for _, r := range current {
		prev, ok := oldByIndex[r.RowIndex]
		if !ok {
			d.Added = append(d.Added, r)
			continue
		}
		changes := fieldChanges(prev, r)
		if len(changes) > 0 {
			d.Edited = append(d.Edited, Edit{RowIndex: r.RowIndex, Record: r, Changes: changes})
		}
	}
	for _, r := range old {
		if _, ok := newByIndex[r.RowIndex]; !ok {
			d.Deleted = append(d.Deleted, r)
		}
	}
	return d
}

// fieldChanges compares two matched records over the union of their keys,
// old record's key order first, then keys only the new record has.
func fieldChanges(prev, next Record) []FieldChange {
	var changes []FieldChange
	seen := make(map[string]bool)
	union := prev.Keys()
	for _, k := range union {
		seen[k] = true
	}
	for _, k := range next.Keys() {
		if !seen[k] {
			union = append(union, k)
		}
	}
	for _, k := range union {
		if ignoredFields[k] {
			continue
		}
		from, to := prev.Get(k), next.Get(k)
		if from != to {
			changes = append(changes, FieldChange{Field: k, From: from, To: to})
		}
	}
	return changes
}
