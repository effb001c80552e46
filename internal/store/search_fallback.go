//go:build !sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not compiled in; search uses a LIKE scan over the active-tool view.
	return nil
}

func (s *Store) initSearch() error { return nil }

// Search performs a LIKE-based scan (fallback when FTS5 is not compiled in).
// The contract matches the FTS build: blank queries return nothing without a
// database round-trip.
func (s *Store) Search(query string, limit int) ([]ToolRow, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	// Strip FTS operators so "Chat*" still prefix-matches under LIKE.
	like := "%" + strings.TrimSuffix(strings.TrimSpace(query), "*") + "%"
	rows, err := s.conn.Query(`
		SELECT id, legacy_id, name, description, logo, url,
		       category_id, category_legacy_id, category_name,
		       is_featured, is_new, view_count, added_date, tags
		FROM v_active_tools
		WHERE name LIKE ? OR description LIKE ? OR COALESCE(tags, '') LIKE ? OR category_name LIKE ?
		ORDER BY view_count DESC
		LIMIT ?
	`, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var out []ToolRow
	for rows.Next() {
		t, err := scanToolRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// RebuildSearchIndex is a no-op without FTS5; the LIKE fallback reads the
// source tables directly.
func (s *Store) RebuildSearchIndex() error { return nil }
