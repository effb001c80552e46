package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Store wraps a sql.DB with catalog-specific operations. All recurring query
// shapes are compiled once at Open time and reused for the lifetime of the
// connection.
type Store struct {
	conn  *sql.DB
	stmts *statements

	// searchStmt is prepared by initSearch when FTS5 is compiled in.
	searchStmt *sql.Stmt
}

// statements is the prepared-statement registry. Every field is non-nil once
// prepareStatements returns successfully.
type statements struct {
	activeTools          *sql.Stmt
	activeCategories     *sql.Stmt
	toolIDByLegacyID     *sql.Stmt
	categoryIDByLegacyID *sql.Stmt
	toolByID             *sql.Stmt
	toolByLegacyID       *sql.Stmt
	incrementViewCount   *sql.Stmt
	softDeleteTool       *sql.Stmt
	maxToolLegacyID      *sql.Stmt
	siteConfig           *sql.Stmt
	siteKeywords         *sql.Stmt
	toolTagsByID         *sql.Stmt
	tagByName            *sql.Stmt
	insertTag            *sql.Stmt
	insertToolTag        *sql.Stmt
	deleteToolTag        *sql.Stmt
	allTags              *sql.Stmt
}

// errNotReady is returned when a helper runs before the statement registry
// finished initializing.
var errNotReady = errors.New("store: statement registry not initialized")

// Open opens (or creates) the SQLite database, applies the schema, and
// compiles the statement registry.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := applySchema(conn); err != nil {
		conn.Close()
		return nil, err
	}

	s := &Store{conn: conn}
	if err := s.prepareStatements(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := s.initSearch(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// prepareStatements compiles the registry. Repeated calls are no-ops so a
// second initialization never recompiles or leaks statement handles.
func (s *Store) prepareStatements() error {
	if s.stmts != nil {
		return nil
	}

	st := &statements{}
	for _, p := range []struct {
		dst **sql.Stmt
		sql string
	}{
		{&st.activeTools, `SELECT id, legacy_id, name, description, logo, url, category_id, category_legacy_id, category_name, is_featured, is_new, view_count, added_date, tags FROM v_active_tools ORDER BY view_count DESC`},
		{&st.activeCategories, `SELECT id, legacy_id, name, icon, display_order, tool_count FROM v_category_stats ORDER BY display_order`},
		{&st.toolIDByLegacyID, `SELECT id FROM tools WHERE legacy_id = ? AND is_deleted = 0`},
		{&st.categoryIDByLegacyID, `SELECT id FROM categories WHERE legacy_id = ? AND is_deleted = 0`},
		{&st.toolByID, `SELECT id, legacy_id, name, description, logo, url, category_id, category_legacy_id, category_name, is_featured, is_new, view_count, added_date, tags FROM v_active_tools WHERE id = ?`},
		{&st.toolByLegacyID, `SELECT id, legacy_id, name, description, logo, url, category_id, category_legacy_id, category_name, is_featured, is_new, view_count, added_date, tags FROM v_active_tools WHERE legacy_id = ?`},
		{&st.incrementViewCount, `UPDATE tools SET view_count = view_count + 1 WHERE id = ? AND is_deleted = 0`},
		{&st.softDeleteTool, `UPDATE tools SET is_deleted = 1 WHERE id = ? AND is_deleted = 0`},
		{&st.maxToolLegacyID, `SELECT COALESCE(MAX(legacy_id), 0) FROM tools`},
		{&st.siteConfig, `SELECT site_name, description FROM site_config WHERE id = 1`},
		{&st.siteKeywords, `SELECT keyword FROM site_keywords ORDER BY id`},
		{&st.toolTagsByID, `SELECT t.id, t.name FROM tags t JOIN tool_tags tt ON t.id = tt.tag_id WHERE tt.tool_id = ? ORDER BY t.name`},
		{&st.tagByName, `SELECT id FROM tags WHERE name = ? COLLATE NOCASE`},
		{&st.insertTag, `INSERT INTO tags (name) VALUES (?)`},
		{&st.insertToolTag, `INSERT OR IGNORE INTO tool_tags (tool_id, tag_id) VALUES (?, ?)`},
		{&st.deleteToolTag, `DELETE FROM tool_tags WHERE tool_id = ? AND tag_id = ?`},
		{&st.allTags, `SELECT id, name FROM tags ORDER BY name`},
	} {
		stmt, err := s.conn.Prepare(p.sql)
		if err != nil {
			return fmt.Errorf("store: prepare %q: %w", p.sql, err)
		}
		*p.dst = stmt
	}

	s.stmts = st
	return nil
}

// ready guards helpers against use before the registry is built.
func (s *Store) ready() error {
	if s.stmts == nil {
		return errNotReady
	}
	return nil
}

// Conn exposes the underlying connection for the migration pipeline, which
// owns its own statement set.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Close closes the underlying database connection. Prepared statements are
// finalized by the driver along with the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
