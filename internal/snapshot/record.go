// Package snapshot defines the row record data model shared by the server
// and the reconciliation client: ordered column→value records keyed by their
// absolute sheet row, canonical serialization, content hashing, and
// structural diffing between two captures of the list.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// DescriptionColumn is the column that decides whether a row is a real
// product or a placeholder/separator row.
const DescriptionColumn = "Descripción"

// Record is one row of the list: header-derived column names mapped to cell
// values, plus the 1-based absolute row index in the backing sheet. The key
// order follows the header row so that serialization is stable.
type Record struct {
	RowIndex int
	keys     []string
	values   map[string]string
}

// NewRecord builds a record with the given header key order. Keys absent
// from values serialize as empty strings.
func NewRecord(rowIndex int, keys []string, values map[string]string) Record {
	vals := make(map[string]string, len(values))
	for k, v := range values {
		vals[k] = v
	}
	return Record{RowIndex: rowIndex, keys: append([]string(nil), keys...), values: vals}
}

// Keys returns the column names in header order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the value for a column, empty string when unset.
func (r Record) Get(key string) string {
	return r.values[key]
}

// Set assigns a column value, appending the key if it is new.
func (r *Record) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		found := false
		for _, k := range r.keys {
			if k == key {
				found = true
				break
			}
		}
		if !found {
			r.keys = append(r.keys, key)
		}
	}
	r.values[key] = value
}

// Description returns the product description, empty for placeholder rows.
func (r Record) Description() string {
	return r.values[DescriptionColumn]
}

// IsPlaceholder reports whether the row has no description and is therefore
// a separator row: part of the data model, hidden from presentation.
func (r Record) IsPlaceholder() bool {
	return r.Description() == ""
}

// MarshalJSON serializes the record as an object with keys in header order
// and rowIndex last, matching the canonical form the hash is computed over.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	if len(r.keys) > 0 {
		buf.WriteByte(',')
	}
	fmt.Fprintf(&buf, `"rowIndex":%d`, r.RowIndex)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a record from its canonical object form. Key order
// is recovered by scanning the raw object, so a marshal/unmarshal round trip
// preserves the hash.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}

	r.keys = nil
	r.values = make(map[string]string)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		if key == "rowIndex" {
			valTok, err := dec.Token()
			if err != nil {
				return err
			}
			num, ok := valTok.(json.Number)
			if !ok {
				return fmt.Errorf("record: rowIndex is not a number")
			}
			n, err := num.Int64()
			if err != nil {
				return err
			}
			r.RowIndex = int(n)
			continue
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		val, ok := valTok.(string)
		if !ok {
			val = fmt.Sprintf("%v", valTok)
		}
		r.keys = append(r.keys, key)
		r.values[key] = val
	}
	return nil
}

// Snapshot is the full ordered row set at one instant.
type Snapshot []Record

// Visible returns the records that are not placeholder rows, preserving
// order. The result is a new slice; the snapshot is not modified.
func (s Snapshot) Visible() Snapshot {
	out := make(Snapshot, 0, len(s))
	for _, r := range s {
		if !r.IsPlaceholder() {
			out = append(out, r)
		}
	}
	return out
}

// ByRowIndex returns the record with the given row index.
func (s Snapshot) ByRowIndex(idx int) (Record, bool) {
	for _, r := range s {
		if r.RowIndex == idx {
			return r, true
		}
	}
	return Record{}, false
}

// Sorted returns a copy ordered by row index. Fetches already come back in
// sheet order; this exists for callers that rebuild snapshots from caches.
func (s Snapshot) Sorted() Snapshot {
	out := append(Snapshot(nil), s...)
	sort.Slice(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	return out
}
