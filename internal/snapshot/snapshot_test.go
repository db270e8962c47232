package snapshot

import (
	"encoding/json"
	"strings"
	"testing"
)

var testKeys = []string{"Descripción", "Cantidad", "Estado"}

func rec(row int, desc, qty, status string) Record {
	return NewRecord(row, testKeys, map[string]string{
		"Descripción": desc,
		"Cantidad":    qty,
		"Estado":      status,
	})
}

func TestRecord_MarshalKeyOrder(t *testing.T) {
	r := rec(12, "Leche", "2", "Pendiente")
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Descripción":"Leche","Cantidad":"2","Estado":"Pendiente","rowIndex":12}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestRecord_RoundTripPreservesHash(t *testing.T) {
	snap := Snapshot{rec(12, "Leche", "2", "Pendiente"), rec(13, "Pan", "1", "Comprado")}
	before := Hash(snap)

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Snapshot
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if after := Hash(restored); after != before {
		t.Errorf("hash changed over round trip: %s vs %s", before, after)
	}
	if restored[0].RowIndex != 12 || restored[0].Get("Descripción") != "Leche" {
		t.Errorf("restored record mismatch: %+v", restored[0])
	}
}

func TestHash_EmptySnapshot(t *testing.T) {
	// An empty list must hash like the JSON empty array, nil or not.
	if Hash(nil) != Hash(Snapshot{}) {
		t.Error("nil and empty snapshots hash differently")
	}
	if string(Canonical(nil)) != "[]" {
		t.Errorf("canonical form of empty snapshot is %q", Canonical(nil))
	}
}

func TestHash_SensitiveToValues(t *testing.T) {
	a := Snapshot{rec(12, "Leche", "2", "Pendiente")}
	b := Snapshot{rec(12, "Leche", "3", "Pendiente")}
	if Hash(a) == Hash(b) {
		t.Error("different snapshots produced the same hash")
	}
	if Hash(a) != Hash(Snapshot{rec(12, "Leche", "2", "Pendiente")}) {
		t.Error("equal snapshots produced different hashes")
	}
}

func TestVisible_HidesPlaceholders(t *testing.T) {
	snap := Snapshot{rec(12, "Leche", "", ""), rec(13, "", "", ""), rec(14, "Pan", "", "")}
	vis := snap.Visible()
	if len(vis) != 2 {
		t.Fatalf("got %d visible rows, want 2", len(vis))
	}
	if vis[0].RowIndex != 12 || vis[1].RowIndex != 14 {
		t.Errorf("wrong rows survived: %d, %d", vis[0].RowIndex, vis[1].RowIndex)
	}
}

func TestCompare_AddedDeletedEdited(t *testing.T) {
	old := Snapshot{
		rec(12, "Leche", "2", "Pendiente"),
		rec(13, "Pan", "1", "Pendiente"),
		rec(14, "Huevos", "12", "Pendiente"),
	}
	current := Snapshot{
		rec(12, "Leche", "2", "Comprado"),
		rec(14, "Huevos", "12", "Pendiente"),
		rec(15, "Queso", "1", "Pendiente"),
	}

	d := Compare(old, current)
	if len(d.Added) != 1 || d.Added[0].RowIndex != 15 {
		t.Errorf("added = %+v, want row 15", d.Added)
	}
	if len(d.Deleted) != 1 || d.Deleted[0].RowIndex != 13 {
		t.Errorf("deleted = %+v, want row 13", d.Deleted)
	}
	if len(d.Edited) != 1 {
		t.Fatalf("edited = %+v, want one row", d.Edited)
	}
	edit := d.Edited[0]
	if edit.RowIndex != 12 {
		t.Errorf("edited row = %d, want 12", edit.RowIndex)
	}
	if len(edit.Changes) != 1 {
		t.Fatalf("changes = %+v, want one", edit.Changes)
	}
	ch := edit.Changes[0]
	if ch.Field != "Estado" || ch.From != "Pendiente" || ch.To != "Comprado" {
		t.Errorf("unexpected change %+v", ch)
	}
}

func TestCompare_IgnoresTotalColumn(t *testing.T) {
	keys := []string{"Descripción", "Cantidad", "Total"}
	old := Snapshot{NewRecord(12, keys, map[string]string{"Descripción": "Leche", "Cantidad": "2", "Total": "3,00"})}
	current := Snapshot{NewRecord(12, keys, map[string]string{"Descripción": "Leche", "Cantidad": "2", "Total": "3,50"})}
	if d := Compare(old, current); !d.Empty() {
		t.Errorf("Total-only change reported: %+v", d)
	}
}

func TestCompare_KeyUnion(t *testing.T) {
	old := Snapshot{NewRecord(12, []string{"Descripción"}, map[string]string{"Descripción": "Leche"})}
	current := Snapshot{NewRecord(12, []string{"Descripción", "Notas"}, map[string]string{"Descripción": "Leche", "Notas": "entera"})}
	d := Compare(old, current)
	if len(d.Edited) != 1 || len(d.Edited[0].Changes) != 1 {
		t.Fatalf("diff = %+v, want one change", d)
	}
	ch := d.Edited[0].Changes[0]
	if ch.Field != "Notas" || ch.From != "" || ch.To != "entera" {
		t.Errorf("unexpected change %+v", ch)
	}
}

func TestCompare_EmptyToEmpty(t *testing.T) {
	if d := Compare(nil, nil); !d.Empty() {
		t.Errorf("empty compare yielded %+v", d)
	}
}

func TestCanonical_EscapesConsistently(t *testing.T) {
	// Two canonicalizations of the same content must be byte-identical;
	// that is all the hash needs.
	snap := Snapshot{rec(12, `Azúcar "blanca" <500g>`, "1", "Pendiente")}
	if !strings.Contains(string(Canonical(snap)), "rowIndex") {
		t.Fatal("canonical form lost rowIndex")
	}
	if string(Canonical(snap)) != string(Canonical(snap)) {
		t.Error("canonicalization is not deterministic")
	}
}
