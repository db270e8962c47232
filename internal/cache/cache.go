// Package cache persists CLI-side state between runs: the last acknowledged
// snapshot and hash, named filters, pinned summary labels, and the login
// session. Backed by a small sqlite database under the user's config
// directory.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dmelero/compra/internal/snapshot"
)

const dbFile = "compra.db"

// SessionTTL is how long a login stays valid.
const SessionTTL = 8 * time.Hour

// ErrNoSession is returned when nobody is logged in or the session expired.
var ErrNoSession = errors.New("no active session: run 'compra login' first")

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    hash TEXT NOT NULL,
    body TEXT NOT NULL,
    saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS filters (
    name TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    user TEXT NOT NULL,
    started_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pins (
    label TEXT PRIMARY KEY,
    saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Cache wraps the sqlite connection.
type Cache struct {
	conn *sql.DB
}

// DefaultDir returns the per-user cache directory, creating it if needed.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	dir := filepath.Join(base, "compra")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	return dir, nil
}

// Open opens (creating if absent) the cache database in dir.
func Open(dir string) (*Cache, error) {
	conn, err := sql.Open("sqlite", filepath.Join(dir, dbFile))
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	// WAL allows a concurrent watch process to read while a command writes
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Cache{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Cache) Close() error {
	return c.conn.Close()
}

// SaveSnapshot stores the snapshot and its hash, replacing any previous one.
func (c *Cache) SaveSnapshot(snap snapshot.Snapshot, hash string) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = c.conn.Exec(`
		INSERT INTO snapshots (id, hash, body, saved_at) VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET hash = excluded.hash, body = excluded.body, saved_at = excluded.saved_at`,
		hash, string(body))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot and hash. ok is false when nothing
// has been saved yet.
func (c *Cache) LoadSnapshot() (snap snapshot.Snapshot, hash string, ok bool, err error) {
	var body string
	row := c.conn.QueryRow(`SELECT hash, body FROM snapshots WHERE id = 1`)
	if err := row.Scan(&hash, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", false, nil
		}
		return nil, "", false, fmt.Errorf("load snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, "", false, fmt.Errorf("unmarshal cached snapshot: %w", err)
	}
	return snap, hash, true, nil
}

// Filter is a saved list filter.
type Filter struct {
	Status   string `json:"status,omitempty"`
	Assignee string `json:"assignee,omitempty"`
	Location string `json:"location,omitempty"`
	Type     string `json:"type,omitempty"`
	Search   string `json:"search,omitempty"`
	GroupBy  string `json:"groupBy,omitempty"`
}

// SaveFilter stores a named filter, replacing any previous definition.
func (c *Cache) SaveFilter(name string, f Filter) error {
	body, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal filter: %w", err)
	}
	_, err = c.conn.Exec(`
		INSERT INTO filters (name, body, saved_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, saved_at = excluded.saved_at`,
		name, string(body))
	if err != nil {
		return fmt.Errorf("save filter: %w", err)
	}
	return nil
}

// LoadFilter returns the named filter; ok is false when it does not exist.
func (c *Cache) LoadFilter(name string) (Filter, bool, error) {
	var body string
	row := c.conn.QueryRow(`SELECT body FROM filters WHERE name = ?`, name)
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Filter{}, false, nil
		}
		return Filter{}, false, fmt.Errorf("load filter: %w", err)
	}
	var f Filter
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		return Filter{}, false, fmt.Errorf("unmarshal filter: %w", err)
	}
	return f, true, nil
}

// FilterNames lists saved filter names in alphabetical order.
func (c *Cache) FilterNames() ([]string, error) {
	rows, err := c.conn.Query(`SELECT name FROM filters ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan filter name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteFilter removes a saved filter. Deleting a missing filter is not an
// error.
func (c *Cache) DeleteFilter(name string) error {
	if _, err := c.conn.Exec(`DELETE FROM filters WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete filter: %w", err)
	}
	return nil
}

// Pin marks a summary label as pinned. Pinning twice is not an error.
func (c *Cache) Pin(label string) error {
	if _, err := c.conn.Exec(`INSERT INTO pins (label) VALUES (?) ON CONFLICT(label) DO NOTHING`, label); err != nil {
		return fmt.Errorf("pin label: %w", err)
	}
	return nil
}

// Unpin removes a pinned label. Unpinning a missing label is not an error.
func (c *Cache) Unpin(label string) error {
	if _, err := c.conn.Exec(`DELETE FROM pins WHERE label = ?`, label); err != nil {
		return fmt.Errorf("unpin label: %w", err)
	}
	return nil
}

// PinnedLabels lists pinned summary labels in the order they were pinned.
func (c *Cache) PinnedLabels() ([]string, error) {
	rows, err := c.conn.Query(`SELECT label FROM pins ORDER BY saved_at, label`)
	if err != nil {
		return nil, fmt.Errorf("list pinned labels: %w", err)
	}
	defer rows.Close()
	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan pinned label: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// Login records the given user as the active session.
func (c *Cache) Login(user string) error {
	_, err := c.conn.Exec(`
		INSERT INTO sessions (id, user, started_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET user = excluded.user, started_at = excluded.started_at`,
		user, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// CurrentUser returns the logged-in user, or ErrNoSession when nobody is
// logged in or the session outlived SessionTTL.
func (c *Cache) CurrentUser() (string, error) {
	var user, started string
	row := c.conn.QueryRow(`SELECT user, started_at FROM sessions WHERE id = 1`)
	if err := row.Scan(&user, &started); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("load session: %w", err)
	}
	startedAt, err := time.Parse(time.RFC3339, started)
	if err != nil {
		return "", ErrNoSession
	}
	if time.Since(startedAt) > SessionTTL {
		return "", ErrNoSession
	}
	return user, nil
}

// Logout clears the active session.
func (c *Cache) Logout() error {
	if _, err := c.conn.Exec(`DELETE FROM sessions WHERE id = 1`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
