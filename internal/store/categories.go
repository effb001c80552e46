package store

import (
	"fmt"
)

// CategoryRow is an active category annotated with a live count of its
// active tools, as projected by v_category_stats.
type CategoryRow struct {
	ID           int64
	LegacyID     int64
	Name         string
	Icon         string
	DisplayOrder int
	ToolCount    int
}

// CategoryOrder assigns a new display order to the category with the given
// legacy id.
type CategoryOrder struct {
	LegacyID     int64
	DisplayOrder int
}

// ActiveCategories returns all non-deleted categories ordered by display
// order ascending.
func (s *Store) ActiveCategories() ([]CategoryRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.stmts.activeCategories.Query()
	if err != nil {
		return nil, fmt.Errorf("store: active categories: %w", err)
	}
	defer rows.Close()

	var out []CategoryRow
	for rows.Next() {
		var c CategoryRow
		if err := rows.Scan(&c.ID, &c.LegacyID, &c.Name, &c.Icon, &c.DisplayOrder, &c.ToolCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReorderCategories applies all display-order updates in a single
// transaction so concurrent readers only ever observe the pre- or
// post-reorder state.
func (s *Store) ReorderCategories(orders []CategoryOrder) error {
	if len(orders) == 0 {
		return nil
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`
		UPDATE categories
		SET display_order = ?, updated_at = datetime('now')
		WHERE legacy_id = ? AND is_deleted = 0
	`)
	if err != nil {
		return fmt.Errorf("store: prepare reorder: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		if _, err := stmt.Exec(o.DisplayOrder, o.LegacyID); err != nil {
			return fmt.Errorf("store: reorder category %d: %w", o.LegacyID, err)
		}
	}
	return tx.Commit()
}
