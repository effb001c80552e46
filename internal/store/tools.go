package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/raido/internal/apperr"
)

// ToolRow is an active tool joined with its category name and a comma-joined
// tag list, as projected by v_active_tools.
type ToolRow struct {
	ID               int64
	LegacyID         int64
	Name             string
	Description      string
	Logo             string
	URL              string
	CategoryID       int64
	CategoryLegacyID int64
	CategoryName     string
	IsFeatured       bool
	IsNew            bool
	ViewCount        int64
	AddedDate        string
	Tags             string // comma-joined tag names, empty when untagged
}

func scanToolRow(row interface{ Scan(...any) error }) (*ToolRow, error) {
	var t ToolRow
	var tags sql.NullString
	err := row.Scan(&t.ID, &t.LegacyID, &t.Name, &t.Description, &t.Logo, &t.URL,
		&t.CategoryID, &t.CategoryLegacyID, &t.CategoryName,
		&t.IsFeatured, &t.IsNew, &t.ViewCount, &t.AddedDate, &tags)
	if err != nil {
		return nil, err
	}
	t.Tags = tags.String
	return &t, nil
}

// ActiveTools returns every non-deleted tool whose category is also active,
// ordered by view count descending.
func (s *Store) ActiveTools() ([]ToolRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.stmts.activeTools.Query()
	if err != nil {
		return nil, fmt.Errorf("store: active tools: %w", err)
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

// ToolByID returns the joined tool row for an internal id, or
// apperr.ErrNotFound when the tool is absent or soft-deleted.
func (s *Store) ToolByID(id int64) (*ToolRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	t, err := scanToolRow(s.stmts.toolByID.QueryRow(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: tool %d: %w", id, err)
	}
	return t, nil
}

// ToolByLegacyID returns the joined tool row for a legacy id, or
// apperr.ErrNotFound.
func (s *Store) ToolByLegacyID(legacyID int64) (*ToolRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	t, err := scanToolRow(s.stmts.toolByLegacyID.QueryRow(legacyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: tool legacy %d: %w", legacyID, err)
	}
	return t, nil
}

// IncrementViewCount bumps a tool's view counter by one. The increment is
// expressed at the engine level, so concurrent callers never lose updates.
func (s *Store) IncrementViewCount(id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.stmts.incrementViewCount.Exec(id); err != nil {
		return fmt.Errorf("store: increment view count for tool %d: %w", id, err)
	}
	return nil
}

// SoftDeleteTool marks a tool as deleted. The second call on the same tool
// is a no-op and reports false.
func (s *Store) SoftDeleteTool(id int64) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	res, err := s.stmts.softDeleteTool.Exec(id)
	if err != nil {
		return false, fmt.Errorf("store: soft delete tool %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ToolUpdate is a typed partial update: nil fields are left untouched.
type ToolUpdate struct {
	Name        *string
	Description *string
	Logo        *string
	URL         *string
	CategoryID  *int64
	IsFeatured  *bool
	IsNew       *bool
}

// UpdateTool applies the non-nil fields of upd to an active tool. An update
// with no recognized field present returns without executing SQL.
func (s *Store) UpdateTool(id int64, upd ToolUpdate) error {
	var set []string
	var args []any

	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Logo != nil {
		add("logo", *upd.Logo)
	}
	if upd.URL != nil {
		add("url", *upd.URL)
	}
	if upd.CategoryID != nil {
		add("category_id", *upd.CategoryID)
	}
	if upd.IsFeatured != nil {
		add("is_featured", boolToInt(*upd.IsFeatured))
	}
	if upd.IsNew != nil {
		add("is_new", boolToInt(*upd.IsNew))
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	q := `UPDATE tools SET ` + strings.Join(set, ", ") + ` WHERE id = ? AND is_deleted = 0`
	if _, err := s.conn.Exec(q, args...); err != nil {
		return fmt.Errorf("store: update tool %d: %w", id, err)
	}
	return nil
}

// CreateToolParams describes a new tool. CategoryLegacyID references the
// target category by its stable external id.
type CreateToolParams struct {
	Name             string
	Description      string
	Logo             string
	URL              string
	CategoryLegacyID int64
	IsFeatured       bool
	IsNew            bool
	Tags             []string
}

// CreateTool inserts a tool plus its tag associations in one transaction.
// The new legacy id is max(existing)+1 and never reuses ids of deleted
// tools. Returns apperr.ErrNotFound when the category does not exist.
func (s *Store) CreateTool(p CreateToolParams) (id, legacyID int64, err error) {
	if err := s.ready(); err != nil {
		return 0, 0, err
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var categoryID int64
	err = tx.Stmt(s.stmts.categoryIDByLegacyID).QueryRow(p.CategoryLegacyID).Scan(&categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("store: category %d: %w", p.CategoryLegacyID, apperr.ErrNotFound)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("store: resolve category %d: %w", p.CategoryLegacyID, err)
	}

	var maxLegacy int64
	if err := tx.Stmt(s.stmts.maxToolLegacyID).QueryRow().Scan(&maxLegacy); err != nil {
		return 0, 0, fmt.Errorf("store: max legacy id: %w", err)
	}
	legacyID = maxLegacy + 1

	res, err := tx.Exec(`
		INSERT INTO tools (legacy_id, name, description, logo, url, category_id, is_featured, is_new, added_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`, legacyID, p.Name, p.Description, p.Logo, p.URL, categoryID,
		boolToInt(p.IsFeatured), boolToInt(p.IsNew))
	if err != nil {
		return 0, 0, fmt.Errorf("store: insert tool: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	for _, name := range p.Tags {
		tagID, err := s.findOrCreateTagTx(tx, name)
		if err != nil {
			return 0, 0, err
		}
		if _, err := tx.Stmt(s.stmts.insertToolTag).Exec(id, tagID); err != nil {
			return 0, 0, fmt.Errorf("store: associate tag %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("store: commit create tool: %w", err)
	}
	return id, legacyID, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
