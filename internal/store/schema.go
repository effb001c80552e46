// Package store provides SQLite-backed persistence for the tool catalog
// with optional FTS5 full-text search.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS categories (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	legacy_id     INTEGER NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	icon          TEXT NOT NULL DEFAULT '',
	display_order INTEGER NOT NULL DEFAULT 0,
	is_deleted    INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_categories_order ON categories(display_order);

CREATE TABLE IF NOT EXISTS tools (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	legacy_id   INTEGER NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	logo        TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	category_id INTEGER REFERENCES categories(id),
	is_featured INTEGER NOT NULL DEFAULT 0,
	is_new      INTEGER NOT NULL DEFAULT 0,
	view_count  INTEGER NOT NULL DEFAULT 0,
	added_date  TEXT NOT NULL DEFAULT '',
	is_deleted  INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tools_category ON tools(category_id);
CREATE INDEX IF NOT EXISTS idx_tools_view_count ON tools(view_count DESC);

CREATE TABLE IF NOT EXISTS tags (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE COLLATE NOCASE
);

CREATE TABLE IF NOT EXISTS tool_tags (
	tool_id INTEGER NOT NULL REFERENCES tools(id),
	tag_id  INTEGER NOT NULL REFERENCES tags(id),
	UNIQUE(tool_id, tag_id)
);

CREATE TABLE IF NOT EXISTS site_config (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	site_name   TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT OR IGNORE INTO site_config (id) VALUES (1);

CREATE TABLE IF NOT EXISTS site_keywords (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	keyword TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS migration_log (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_name       TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'running',
	records_migrated INTEGER NOT NULL DEFAULT 0,
	error_message    TEXT NOT NULL DEFAULT '',
	started_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at     DATETIME
);

CREATE VIEW IF NOT EXISTS v_active_tools AS
SELECT
	t.id,
	t.legacy_id,
	t.name,
	t.description,
	t.logo,
	t.url,
	t.category_id,
	c.name      AS category_name,
	c.legacy_id AS category_legacy_id,
	t.is_featured,
	t.is_new,
	t.view_count,
	t.added_date,
	(SELECT GROUP_CONCAT(tg.name, ',')
	 FROM tool_tags tt
	 JOIN tags tg ON tt.tag_id = tg.id
	 WHERE tt.tool_id = t.id) AS tags
FROM tools t
JOIN categories c ON t.category_id = c.id
WHERE t.is_deleted = 0 AND c.is_deleted = 0;

CREATE VIEW IF NOT EXISTS v_category_stats AS
SELECT
	c.id,
	c.legacy_id,
	c.name,
	c.icon,
	c.display_order,
	(SELECT COUNT(*)
	 FROM tools t
	 WHERE t.category_id = c.id AND t.is_deleted = 0) AS tool_count
FROM categories c
WHERE c.is_deleted = 0;
`

func applySchema(conn *sql.DB) error {
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		return fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		return fmt.Errorf("store: apply fts schema: %w", err)
	}
	return nil
}
