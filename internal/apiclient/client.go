// Package apiclient is the typed HTTP client for the list API, used by the
// CLI commands and the reconciliation engine. Non-2xx responses surface as a
// generic retry-suggesting error; the raw upstream message only reaches the
// debug log.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dmelero/compra/internal/snapshot"
)

// ErrServer is the generic error for any non-2xx response.
var ErrServer = errors.New("the server could not complete the request, try again later")

// Client talks to one compra API server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// HashResponse is the body of action=get_hash.
type HashResponse struct {
	Hash string `json:"hash"`
}

// TitleResponse is the body of action=get_sheet_title.
type TitleResponse struct {
	Title string `json:"title"`
}

// SummaryItem is one labelled value of the budget summary.
type SummaryItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Member is one roster entry.
type Member struct {
	Name   string `json:"name"`
	Access string `json:"access"`
}

// MutationResponse is the body of every successful POST.
type MutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GetItems fetches the full current snapshot.
func (c *Client) GetItems(ctx context.Context) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	if err := c.get(ctx, "", &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// GetHash fetches the content hash of the current snapshot.
func (c *Client) GetHash(ctx context.Context) (string, error) {
	var resp HashResponse
	if err := c.get(ctx, "get_hash", &resp); err != nil {
		return "", err
	}
	return resp.Hash, nil
}

// GetOptions fetches the status option list.
func (c *Client) GetOptions(ctx context.Context) ([]string, error) {
	var resp []string
	if err := c.get(ctx, "get_options", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetSummary fetches the budget summary block.
func (c *Client) GetSummary(ctx context.Context) ([]SummaryItem, error) {
	var resp []SummaryItem
	if err := c.get(ctx, "get_summary", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetMembers fetches the roster.
func (c *Client) GetMembers(ctx context.Context) ([]Member, error) {
	var resp []Member
	if err := c.get(ctx, "get_members", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetSheetTitle fetches the spreadsheet title.
func (c *Client) GetSheetTitle(ctx context.Context) (string, error) {
	var resp TitleResponse
	if err := c.get(ctx, "get_sheet_title", &resp); err != nil {
		return "", err
	}
	return resp.Title, nil
}

// UpdateStatus sets the status of one row.
func (c *Client) UpdateStatus(ctx context.Context, rowIndex int, status, user string) (*MutationResponse, error) {
	return c.post(ctx, map[string]any{
		"action": "update_status", "rowIndex": rowIndex, "newStatus": status, "user": user,
	})
}

// UpdateQuantity sets the quantity of one row.
func (c *Client) UpdateQuantity(ctx context.Context, rowIndex int, quantity, user string) (*MutationResponse, error) {
	return c.post(ctx, map[string]any{
		"action": "update_quantity", "rowIndex": rowIndex, "newQuantity": quantity, "user": user,
	})
}

// UpdateUnitPrice sets the unit price of one row.
func (c *Client) UpdateUnitPrice(ctx context.Context, rowIndex int, price, user string) (*MutationResponse, error) {
	return c.post(ctx, map[string]any{
		"action": "update_unit_price", "rowIndex": rowIndex, "newUnitPrice": price, "user": user,
	})
}

// Details carries all seven detail fields for UpdateDetails and AddProduct.
type Details struct {
	Description string
	Type        string
	Quantity    string
	UnitPrice   string
	Notes       string
	Assignee    string
	Location    string
}

func (d Details) body(action string, user string) map[string]any {
	return map[string]any{
		"action":           action,
		"newDescription":   d.Description,
		"newType":          d.Type,
		"newQuantity":      d.Quantity,
		"newUnitPrice":     d.UnitPrice,
		"newNotes":         d.Notes,
		"newAssignedTo":    d.Assignee,
		"newLugarDeCompra": d.Location,
		"user":             user,
	}
}

// UpdateDetails rewrites the detail fields of one row.
func (c *Client) UpdateDetails(ctx context.Context, rowIndex int, d Details, user string) (*MutationResponse, error) {
	body := d.body("update_details", user)
	body["rowIndex"] = rowIndex
	return c.post(ctx, body)
}

// AddProduct appends a new product row.
func (c *Client) AddProduct(ctx context.Context, d Details, user string) (*MutationResponse, error) {
	return c.post(ctx, d.body("add_product", user))
}

// BulkFields are the bulk-settable fields; empty values are skipped
// server-side.
type BulkFields struct {
	Location string
	Type     string
	Assignee string
	Status   string
}

// BulkUpdate applies the non-empty fields to every target row.
func (c *Client) BulkUpdate(ctx context.Context, rowIndexes []int, f BulkFields, user string) (*MutationResponse, error) {
	return c.post(ctx, map[string]any{
		"action":           "bulk_update",
		"rowIndexes":       rowIndexes,
		"newLugarDeCompra": f.Location,
		"newType":          f.Type,
		"newAssignedTo":    f.Assignee,
		"newStatus":        f.Status,
		"user":             user,
	})
}

// --- HTTP helpers ---

// serverError is the structured error body from the server.
type serverError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (c *Client) get(ctx context.Context, action string, result any) error {
	endpoint := c.BaseURL + "/api"
	if action != "" {
		endpoint += "?" + url.Values{"action": {action}}.Encode()
	}
	return c.do(ctx, http.MethodGet, endpoint, nil, result)
}

func (c *Client) post(ctx context.Context, body map[string]any) (*MutationResponse, error) {
	var resp MutationResponse
	if err := c.do(ctx, http.MethodPost, c.BaseURL+"/api", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 25<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var se serverError
		if json.Unmarshal(respBody, &se) == nil && se.Error != "" {
			slog.Debug("api error response", "status", resp.StatusCode, "error", se.Error, "details", se.Details)
		} else {
			slog.Debug("api error response", "status", resp.StatusCode, "body", string(respBody))
		}
		return ErrServer
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
