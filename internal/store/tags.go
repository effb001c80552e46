package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// TagRow is a single tag.
type TagRow struct {
	ID   int64
	Name string
}

// ToolTags returns a tool's tags ordered by name.
func (s *Store) ToolTags(toolID int64) ([]TagRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.stmts.toolTagsByID.Query(toolID)
	if err != nil {
		return nil, fmt.Errorf("store: tags for tool %d: %w", toolID, err)
	}
	defer rows.Close()

	var out []TagRow
	for rows.Next() {
		var t TagRow
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AllTags returns every tag ordered by name.
func (s *Store) AllTags() ([]TagRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.stmts.allTags.Query()
	if err != nil {
		return nil, fmt.Errorf("store: all tags: %w", err)
	}
	defer rows.Close()

	var out []TagRow
	for rows.Next() {
		var t TagRow
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddTagToTool associates a tag with a tool, creating the tag on first use.
// Name matching is case-insensitive so near-duplicate tags are never created.
func (s *Store) AddTagToTool(toolID int64, name string) error {
	if err := s.ready(); err != nil {
		return err
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	tagID, err := s.findOrCreateTagTx(tx, name)
	if err != nil {
		return err
	}
	if _, err := tx.Stmt(s.stmts.insertToolTag).Exec(toolID, tagID); err != nil {
		return fmt.Errorf("store: associate tag %q with tool %d: %w", name, toolID, err)
	}
	return tx.Commit()
}

// RemoveTagFromTool deletes the association row only; the tag itself is
// kept since it may be shared between tools.
func (s *Store) RemoveTagFromTool(toolID, tagID int64) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	res, err := s.stmts.deleteToolTag.Exec(toolID, tagID)
	if err != nil {
		return false, fmt.Errorf("store: remove tag %d from tool %d: %w", tagID, toolID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// findOrCreateTagTx resolves a tag id by case-insensitive name, inserting
// the tag on first use.
func (s *Store) findOrCreateTagTx(tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.Stmt(s.stmts.tagByName).QueryRow(name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("store: lookup tag %q: %w", name, err)
	}
	res, err := tx.Stmt(s.stmts.insertTag).Exec(name)
	if err != nil {
		return 0, fmt.Errorf("store: insert tag %q: %w", name, err)
	}
	return res.LastInsertId()
}
