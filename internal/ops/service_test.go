package ops_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmelero/compra/internal/changelog"
	"github.com/dmelero/compra/internal/ops"
	"github.com/dmelero/compra/internal/sheet"
	"github.com/dmelero/compra/internal/sheet/sheettest"
)

var listHeader = []string{
	"Lugar de Compra", "Tipo de Elemento", "Asignado a", "Descripción",
	"Cantidad", "Precio unidad", "Total", "Notas", "Estado",
}

const (
	colDescription = 4 // 1-based fake columns
	colQuantity    = 5
	colUnitPrice   = 6
	colTotal       = 7
	colStatus      = 9
)

func newService(t *testing.T, rows [][]string) (*ops.Service, *sheettest.Fake) {
	t.Helper()
	fake := sheettest.New("Compra 2026")
	fake.AddTab("Lista")
	fake.AddTab(changelog.SheetName)
	fake.Seed(changelog.SheetName, 1, [][]string{{"Timestamp", "User", "Action", "Details"}})
	fake.Seed("Lista", sheet.HeaderRow, append([][]string{listHeader}, rows...))
	store := sheet.NewStore(fake, "Lista")
	return ops.NewService(store, changelog.NewWriter(fake)), fake
}

func str(s string) *string { return &s }

// logEntries returns the appended audit rows, header excluded.
func logEntries(fake *sheettest.Fake) [][]string {
	var out [][]string
	for row := 2; row <= fake.LastRow(changelog.SheetName); row++ {
		out = append(out, fake.RowValues(changelog.SheetName, row))
	}
	return out
}

func TestUpdateStatus_WritesAndLogs(t *testing.T) {
	svc, fake := newService(t, [][]string{
		{"Mercadona", "Comida", "Ana", "Leche", "2", "1,05", "2,10", "", "Pendiente"},
	})
	msg, err := svc.UpdateStatus(context.Background(), ops.SingleFieldInput{
		RowIndex: sheet.DataStartRow, Value: str("Comprado"), User: "Ana",
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if msg != "Row 12 status updated to Comprado" {
		t.Errorf("message = %q", msg)
	}
	if got := fake.CellValue("Lista", sheet.DataStartRow, colStatus); got != "Comprado" {
		t.Errorf("status cell = %q", got)
	}
	entries := logEntries(fake)
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	details := entries[0][3]
	if !strings.Contains(details, `"Leche"`) || !strings.Contains(details, `"Pendiente"`) || !strings.Contains(details, `"Comprado"`) {
		t.Errorf("log details = %q", details)
	}
}

func TestUpdateStatus_NoopSkipsLog(t *testing.T) {
	svc, fake := newService(t, [][]string{
		{"", "", "", "Leche", "2", "", "", "", "Pendiente"},
	})
	_, err := svc.UpdateStatus(context.Background(), ops.SingleFieldInput{
		RowIndex: sheet.DataStartRow, Value: str("Pendiente"), User: "Ana",
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if entries := logEntries(fake); len(entries) != 0 {
		t.Errorf("no-op write logged: %v", entries)
	}
}

func TestUpdateStatus_MissingFieldsAreValidationErrors(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	var valErr *ops.ValidationError
	if _, err := svc.UpdateStatus(ctx, ops.SingleFieldInput{Value: str("x")}); !errors.As(err, &valErr) {
		t.Errorf("missing rowIndex: got %v", err)
	}
	_, err := svc.UpdateStatus(ctx, ops.SingleFieldInput{RowIndex: 12})
	if !errors.As(err, &valErr) {
		t.Fatalf("missing value: got %v", err)
	}
	if valErr.Message != "rowIndex and newStatus are required." {
		t.Errorf("message = %q", valErr.Message)
	}
}

func TestUpdateQuantity_EmptyStringIsLegal(t *testing.T) {
	svc, fake := newService(t, [][]string{
		{"", "", "", "Leche", "2", "", "", "", "Pendiente"},
	})
	msg, err := svc.UpdateQuantity(context.Background(), ops.SingleFieldInput{
		RowIndex: sheet.DataStartRow, Value: str(""), User: "Ana",
	})
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if msg != "Row 12 quantity updated to " {
		t.Errorf("message = %q", msg)
	}
	if got := fake.CellValue("Lista", sheet.DataStartRow, colQuantity); got != "" {
		t.Errorf("quantity cell = %q, want cleared", got)
	}
	// Clearing is still a change and must be logged.
	if entries := logEntries(fake); len(entries) != 1 {
		t.Errorf("got %d log entries, want 1", len(entries))
	}
}

func TestUpdateSingle_AnonymousRowUsesRowLabel(t *testing.T) {
	svc, fake := newService(t, [][]string{
		{"", "", "", "", "1", "", "", "", ""},
	})
	_, err := svc.UpdateUnitPrice(context.Background(), ops.SingleFieldInput{
		RowIndex: sheet.DataStartRow, Value: str("2,50"), User: "Ana",
	})
	if err != nil {
		t.Fatalf("update price: %v", err)
	}
	entries := logEntries(fake)
	if len(entries) != 1 || !strings.Contains(entries[0][3], `"Row 12"`) {
		t.Errorf("log entries = %v", entries)
	}
}

func TestUpdateDetails_RewritesAllAndLogsDiff(t *testing.T) {
	svc, fake := newService(t, [][]string{
		{"Mercadona", "Comida", "Ana", "Leche", "2", "1,05", "2,10", "", "Pendiente"},
	})
	msg, err := svc.UpdateDetails(context.Background(), ops.DetailsInput{
		RowIndex:    sheet.DataStartRow,
		Location:    str("Lidl"),
		Type:        str("Comida"),
		Assignee:    str("Ana"),
		Description: str("Leche entera"),
		Quantity:    str("3"),
		UnitPrice:   str("1,05"),
		Notes:       str(""),
		User:        "Luis",
	})
	if err != nil {
		t.Fatalf("update details: %v", err)
	}
	if msg != "Row 12 details updated." {
		t.Errorf("message = %q", msg)
	}
	if got := fake.CellValue("Lista", sheet.DataStartRow, colDescription); got != "Leche entera" {
		t.Errorf("description cell = %q", got)
	}
	entries := logEntries(fake)
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	details := entries[0][3]
	// Diff is against the pre-write row, labelled by the old description.
	if !strings.Contains(details, `Product "Leche" updated`) {
		t.Errorf("log label wrong: %q", details)
	}
	for _, want := range []string{`"Lugar de Compra"`, `"Descripción"`, `"Cantidad"`} {
		if !strings.Contains(details, want) {
			t.Errorf("log missing %s: %q", want, details)
		}
	}
	if strings.Contains(details, `"Precio unidad"`) {
		t.Errorf("unchanged field logged: %q", details)
	}
}

func TestUpdateDetails_RequiresEveryField(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.UpdateDetails(context.Background(), ops.DetailsInput{
		RowIndex: sheet.DataStartRow, Location: str("Lidl"),
	})
	var valErr *ops.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

func TestAddProduct_PlacementAndFormula(t *testing.T) {
	svc, fake := newService(t, [][]string{
		{"", "", "", "Leche", "2", "1,05", "2,10", "", "Pendiente"},
		{"", "", "", "Pan", "1", "0,90", "0,90", "", "Comprado"},
	})
	msg, err := svc.AddProduct(context.Background(), ops.AddProductInput{
		Description: str("Huevos"),
		Type:        str("Comida"),
		UnitPrice:   str("2,20"),
		Quantity:    str("12"),
		Notes:       str("talla L"),
		Assignee:    str(""),
		Location:    str("Mercadona"),
		User:        "Ana",
	})
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	if msg != "Product added successfully." {
		t.Errorf("message = %q", msg)
	}

	newRow := sheet.DataStartRow + 2
	if got := fake.CellValue("Lista", newRow, colDescription); got != "Huevos" {
		t.Errorf("description = %q at row %d", got, newRow)
	}
	if got := fake.CellValue("Lista", newRow, colTotal); got != "=E14*F14" {
		t.Errorf("total formula = %q", got)
	}
	if got := fake.CellValue("Lista", newRow, colStatus); got != "Pendiente" {
		t.Errorf("status = %q, want default pending", got)
	}

	entries := logEntries(fake)
	if len(entries) != 1 || !strings.Contains(entries[0][3], `New product added: "Huevos"`) {
		t.Errorf("log entries = %v", entries)
	}
}

func TestAddProduct_RequiresEveryField(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.AddProduct(context.Background(), ops.AddProductInput{Description: str("Huevos")})
	var valErr *ops.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

func TestBulkUpdate_SkipsEmptyFields(t *testing.T) {
	svc, fake := newService(t, [][]string{
		{"", "", "", "Leche", "", "", "", "", "Pendiente"},
		{"", "", "", "Pan", "", "", "", "", "Pendiente"},
	})
	msg, err := svc.BulkUpdate(context.Background(), ops.BulkInput{
		RowIndexes: []int{sheet.DataStartRow, sheet.DataStartRow + 1},
		Status:     "Comprado",
		User:       "Ana",
	})
	if err != nil {
		t.Fatalf("bulk update: %v", err)
	}
	if msg != "2 rows updated successfully." {
		t.Errorf("message = %q", msg)
	}
	for _, row := range []int{sheet.DataStartRow, sheet.DataStartRow + 1} {
		if got := fake.CellValue("Lista", row, colStatus); got != "Comprado" {
			t.Errorf("row %d status = %q", row, got)
		}
		// Empty fields stay untouched, not cleared.
		if got := fake.CellValue("Lista", row, 1); got != "" {
			t.Errorf("row %d location written: %q", row, got)
		}
	}
	entries := logEntries(fake)
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if !strings.Contains(entries[0][3], "Updated 2 products") || !strings.Contains(entries[0][3], "Estado") {
		t.Errorf("log details = %q", entries[0][3])
	}
}

func TestBulkUpdate_AllFieldsEmptyIsZeroWrites(t *testing.T) {
	svc, fake := newService(t, [][]string{
		{"", "", "", "Leche", "", "", "", "", "Pendiente"},
	})
	before := fake.UpdateCount
	_, err := svc.BulkUpdate(context.Background(), ops.BulkInput{
		RowIndexes: []int{sheet.DataStartRow}, User: "Ana",
	})
	var valErr *ops.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if valErr.Message != "No fields to update were provided." {
		t.Errorf("message = %q", valErr.Message)
	}
	if fake.UpdateCount != before {
		t.Error("sheet was written despite empty field set")
	}
}

func TestBulkUpdate_RequiresRows(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.BulkUpdate(context.Background(), ops.BulkInput{Status: "Comprado"})
	var valErr *ops.ValidationError
	if !errors.As(err, &valErr) || valErr.Message != "rowIndexes array is required." {
		t.Fatalf("got %v", err)
	}
}
