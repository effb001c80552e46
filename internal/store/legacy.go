package store

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/starford/raido/internal/apperr"
)

// legacyIDPattern matches the trailing numeric part of slug-style
// identifiers such as "tool-001" or "category-6".
var legacyIDPattern = regexp.MustCompile(`-(\d+)$`)

// ExtractLegacyID returns the trailing integer of a slug-style identifier.
// Bare numeric strings ("42") are accepted as-is.
func ExtractLegacyID(idString string) (int64, error) {
	if n, err := strconv.ParseInt(idString, 10, 64); err == nil {
		return n, nil
	}
	m := legacyIDPattern.FindStringSubmatch(idString)
	if m == nil {
		return 0, fmt.Errorf("store: no legacy id in %q", idString)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("store: parse legacy id in %q: %w", idString, err)
	}
	return n, nil
}

// ToolIDByLegacyID resolves a tool's legacy id to its internal row id.
// Returns apperr.ErrNotFound when no active tool matches.
func (s *Store) ToolIDByLegacyID(legacyID int64) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	var id int64
	err := s.stmts.toolIDByLegacyID.QueryRow(legacyID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("store: resolve tool legacy id %d: %w", legacyID, err)
	}
	return id, nil
}

// CategoryIDByLegacyID resolves a category's legacy id to its internal row
// id. Returns apperr.ErrNotFound when no active category matches.
func (s *Store) CategoryIDByLegacyID(legacyID int64) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	var id int64
	err := s.stmts.categoryIDByLegacyID.QueryRow(legacyID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("store: resolve category legacy id %d: %w", legacyID, err)
	}
	return id, nil
}
