//go:build sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// The FTS index is a derived projection of the active tool rows. It is kept
// in sync by triggers and is always rebuildable from the source tables.
const ftsSchemaSQL = `
CREATE VIRTUAL TABLE IF NOT EXISTS tools_fts USING fts5(
	name,
	description,
	tags,
	category_name,
	tokenize = 'unicode61 remove_diacritics 2'
);

CREATE TRIGGER IF NOT EXISTS tools_fts_insert
AFTER INSERT ON tools
WHEN NEW.is_deleted = 0
BEGIN
	INSERT INTO tools_fts(rowid, name, description, tags, category_name)
	SELECT
		NEW.id,
		NEW.name,
		NEW.description,
		COALESCE((SELECT GROUP_CONCAT(tg.name, ' ')
		          FROM tool_tags tt JOIN tags tg ON tt.tag_id = tg.id
		          WHERE tt.tool_id = NEW.id), ''),
		COALESCE((SELECT name FROM categories WHERE id = NEW.category_id), '');
END;

CREATE TRIGGER IF NOT EXISTS tools_fts_update
AFTER UPDATE ON tools
WHEN NEW.is_deleted = 0
BEGIN
	DELETE FROM tools_fts WHERE rowid = OLD.id;
	INSERT INTO tools_fts(rowid, name, description, tags, category_name)
	SELECT
		NEW.id,
		NEW.name,
		NEW.description,
		COALESCE((SELECT GROUP_CONCAT(tg.name, ' ')
		          FROM tool_tags tt JOIN tags tg ON tt.tag_id = tg.id
		          WHERE tt.tool_id = NEW.id), ''),
		COALESCE((SELECT name FROM categories WHERE id = NEW.category_id), '');
END;

CREATE TRIGGER IF NOT EXISTS tools_fts_soft_delete
AFTER UPDATE ON tools
WHEN NEW.is_deleted = 1
BEGIN
	DELETE FROM tools_fts WHERE rowid = OLD.id;
END;

CREATE TRIGGER IF NOT EXISTS tools_fts_tag_insert
AFTER INSERT ON tool_tags
BEGIN
	DELETE FROM tools_fts WHERE rowid = NEW.tool_id;
	INSERT INTO tools_fts(rowid, name, description, tags, category_name)
	SELECT
		t.id,
		t.name,
		t.description,
		COALESCE((SELECT GROUP_CONCAT(tg.name, ' ')
		          FROM tool_tags tt JOIN tags tg ON tt.tag_id = tg.id
		          WHERE tt.tool_id = t.id), ''),
		COALESCE(c.name, '')
	FROM tools t
	LEFT JOIN categories c ON t.category_id = c.id
	WHERE t.id = NEW.tool_id AND t.is_deleted = 0;
END;

CREATE TRIGGER IF NOT EXISTS tools_fts_tag_delete
AFTER DELETE ON tool_tags
BEGIN
	DELETE FROM tools_fts WHERE rowid = OLD.tool_id;
	INSERT INTO tools_fts(rowid, name, description, tags, category_name)
	SELECT
		t.id,
		t.name,
		t.description,
		COALESCE((SELECT GROUP_CONCAT(tg.name, ' ')
		          FROM tool_tags tt JOIN tags tg ON tt.tag_id = tg.id
		          WHERE tt.tool_id = t.id), ''),
		COALESCE(c.name, '')
	FROM tools t
	LEFT JOIN categories c ON t.category_id = c.id
	WHERE t.id = OLD.tool_id AND t.is_deleted = 0;
END;
`

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(ftsSchemaSQL)
	return err
}

// initSearch compiles the ranked MATCH query into the registry.
func (s *Store) initSearch() error {
	if s.searchStmt != nil {
		return nil
	}
	stmt, err := s.conn.Prepare(`
		SELECT t.id, t.legacy_id, t.name, t.description, t.logo, t.url,
		       t.category_id, t.category_legacy_id, t.category_name,
		       t.is_featured, t.is_new, t.view_count, t.added_date, t.tags
		FROM tools_fts fts
		JOIN v_active_tools t ON fts.rowid = t.id
		WHERE tools_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("store: prepare search: %w", err)
	}
	s.searchStmt = stmt
	return nil
}

// Search runs a ranked FTS5 MATCH query over active tools. A blank query
// returns no results without touching the database, and malformed FTS
// syntax is treated as "no results" since the query is user input.
func (s *Store) Search(query string, limit int) ([]ToolRow, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.searchStmt.Query(query, limit)
	if err != nil {
		if isFTSSyntaxErr(err) {
			return nil, nil
		}
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

func isFTSSyntaxErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "fts5") ||
		strings.Contains(msg, "malformed MATCH") ||
		strings.Contains(msg, "unterminated string")
}

// RebuildSearchIndex re-derives the whole index from the source tables.
// Used by the migration pipeline after a bulk load; normal writes rely on
// the triggers instead.
func (s *Store) RebuildSearchIndex() error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM tools_fts`); err != nil {
		return fmt.Errorf("store: clear search index: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO tools_fts(rowid, name, description, tags, category_name)
		SELECT
			t.id,
			t.name,
			t.description,
			COALESCE((SELECT GROUP_CONCAT(tg.name, ' ')
			          FROM tool_tags tt JOIN tags tg ON tt.tag_id = tg.id
			          WHERE tt.tool_id = t.id), ''),
			COALESCE(c.name, '')
		FROM tools t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.is_deleted = 0
	`)
	if err != nil {
		return fmt.Errorf("store: rebuild search index: %w", err)
	}
	return tx.Commit()
}
