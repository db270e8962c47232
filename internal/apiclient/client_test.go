package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmelero/compra/internal/snapshot"
)

func TestGetItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		if r.URL.Query().Get("action") != "" {
			t.Errorf("items request carried action %q", r.URL.Query().Get("action"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"Descripción":"Leche","Estado":"Pendiente","rowIndex":12}]`))
	}))
	defer srv.Close()

	snap, err := New(srv.URL).GetItems(context.Background())
	if err != nil {
		t.Fatalf("get items: %v", err)
	}
	if len(snap) != 1 || snap[0].RowIndex != 12 || snap[0].Get("Descripción") != "Leche" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snapshot.Hash(snap) == "" {
		t.Error("restored snapshot not hashable")
	}
}

func TestGetHash_SendsAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "get_hash" {
			t.Errorf("action = %q", r.URL.Query().Get("action"))
		}
		w.Write([]byte(`{"hash":"abc123"}`))
	}))
	defer srv.Close()

	hash, err := New(srv.URL).GetHash(context.Background())
	if err != nil {
		t.Fatalf("get hash: %v", err)
	}
	if hash != "abc123" {
		t.Errorf("hash = %q", hash)
	}
}

func TestUpdateStatus_PostBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"success":true,"message":"Row 12 status updated to Comprado"}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).UpdateStatus(context.Background(), 12, "Comprado", "Ana")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if !resp.Success || resp.Message == "" {
		t.Errorf("response = %+v", resp)
	}
	if got["action"] != "update_status" || got["newStatus"] != "Comprado" || got["user"] != "Ana" {
		t.Errorf("body = %v", got)
	}
	if got["rowIndex"] != float64(12) {
		t.Errorf("rowIndex = %v", got["rowIndex"])
	}
}

func TestBulkUpdate_Body(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true,"message":"2 rows updated successfully."}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).BulkUpdate(context.Background(), []int{12, 13},
		BulkFields{Status: "Comprado"}, "Ana")
	if err != nil {
		t.Fatalf("bulk update: %v", err)
	}
	rows, ok := got["rowIndexes"].([]any)
	if !ok || len(rows) != 2 {
		t.Errorf("rowIndexes = %v", got["rowIndexes"])
	}
	if got["newStatus"] != "Comprado" || got["newLugarDeCompra"] != "" {
		t.Errorf("body = %v", got)
	}
}

func TestNon2xxIsGenericError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"An API error occurred.","details":"quota exceeded"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetItems(context.Background())
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
	// The upstream detail must not leak into the user-facing error.
	if errors.Is(err, ErrServer) && err.Error() != ErrServer.Error() {
		t.Errorf("error text = %q", err.Error())
	}
}

func TestNon2xxNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetHash(context.Background())
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
}
