// Package testutil provides shared test helpers for setting up catalog databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/raido/internal/store"
)

// TestStore creates a temporary SQLite database that is automatically cleaned up.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	st, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// SeedCategory inserts an active category and returns its internal id.
func SeedCategory(t *testing.T, st *store.Store, legacyID int64, name string, order int) int64 {
	t.Helper()
	res, err := st.Conn().Exec(
		`INSERT INTO categories (legacy_id, name, icon, display_order) VALUES (?, ?, '', ?)`,
		legacyID, name, order,
	)
	if err != nil {
		t.Fatal(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// SeedTool inserts an active tool and returns its internal id.
func SeedTool(t *testing.T, st *store.Store, legacyID int64, name string, categoryID int64) int64 {
	t.Helper()
	res, err := st.Conn().Exec(
		`INSERT INTO tools (legacy_id, name, description, logo, url, category_id, added_date)
		 VALUES (?, ?, ?, '', '', ?, datetime('now'))`,
		legacyID, name, name+" description", categoryID,
	)
	if err != nil {
		t.Fatal(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// WriteSeedFile writes raw seed JSON into a temp directory and returns its path.
func WriteSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tools.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
