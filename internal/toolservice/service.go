// Package toolservice coordinates store operations into the business-level
// catalog operations consumed by the API and MCP layers.
package toolservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/store"
)

// MaxSearchLimit bounds the search result window.
const MaxSearchLimit = 100

// Publisher receives catalog change notifications. A nil publisher
// disables events.
type Publisher interface {
	PublishToolEvent(kind string, legacyID int64, name string)
}

// Service coordinates catalog operations against the store.
type Service struct {
	st     *store.Store
	events Publisher
	retry  store.RetryConfig
}

// NewService creates a new catalog service.
func NewService(st *store.Store, events Publisher) *Service {
	return &Service{st: st, events: events, retry: store.DefaultRetryConfig()}
}

// Tool is the external representation of a tool: legacy ids, camelCase
// fields, tags as a list.
type Tool struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Logo         string   `json:"logo"`
	URL          string   `json:"url"`
	CategoryID   int64    `json:"categoryId"`
	CategoryName string   `json:"categoryName"`
	IsFeatured   bool     `json:"isFeatured"`
	IsNew        bool     `json:"isNew"`
	ViewCount    int64    `json:"viewCount"`
	AddedDate    string   `json:"addedDate"`
	Tags         []string `json:"tags"`
}

// Category is the external representation of a category.
type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	ToolCount int    `json:"toolCount"`
}

// Tag is a tag with its internal id, used for tag management.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SiteConfig is the site-wide configuration block.
type SiteConfig struct {
	SiteName    string   `json:"siteName"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Settings is the full payload the browsing UI boots from.
type Settings struct {
	SiteConfig SiteConfig `json:"siteConfig"`
	Categories []Category `json:"categories"`
	Tools      []Tool     `json:"tools"`
}

func toTool(r *store.ToolRow) Tool {
	var tags []string
	if r.Tags != "" {
		tags = strings.Split(r.Tags, ",")
	}
	if tags == nil {
		tags = []string{}
	}
	return Tool{
		ID:           r.LegacyID,
		Name:         r.Name,
		Description:  r.Description,
		Logo:         r.Logo,
		URL:          r.URL,
		CategoryID:   r.CategoryLegacyID,
		CategoryName: r.CategoryName,
		IsFeatured:   r.IsFeatured,
		IsNew:        r.IsNew,
		ViewCount:    r.ViewCount,
		AddedDate:    r.AddedDate,
		Tags:         tags,
	}
}

func toCategory(r store.CategoryRow) Category {
	return Category{ID: r.LegacyID, Name: r.Name, Icon: r.Icon, ToolCount: r.ToolCount}
}

// Settings returns the site configuration, active categories with tool
// counts, and active tools ordered by popularity.
func (s *Service) Settings(ctx context.Context) (*Settings, error) {
	cfg, err := s.st.SiteConfig()
	if err != nil {
		return nil, err
	}
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	tools, err := s.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	keywords := cfg.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return &Settings{
		SiteConfig: SiteConfig{SiteName: cfg.SiteName, Description: cfg.Description, Keywords: keywords},
		Categories: cats,
		Tools:      tools,
	}, nil
}

// ListTools returns all active tools ordered by view count descending.
func (s *Service) ListTools(_ context.Context) ([]Tool, error) {
	rows, err := s.st.ActiveTools()
	if err != nil {
		return nil, err
	}
	out := make([]Tool, len(rows))
	for i := range rows {
		out[i] = toTool(&rows[i])
	}
	return out, nil
}

// ListCategories returns all active categories ordered by display order.
func (s *Service) ListCategories(_ context.Context) ([]Category, error) {
	rows, err := s.st.ActiveCategories()
	if err != nil {
		return nil, err
	}
	out := make([]Category, len(rows))
	for i, r := range rows {
		out[i] = toCategory(r)
	}
	return out, nil
}

// GetTool returns one active tool by its legacy id.
func (s *Service) GetTool(ctx context.Context, legacyID int64) (*Tool, error) {
	row, err := store.WithRetry(ctx, s.retry, func() (*store.ToolRow, error) {
		return s.st.ToolByLegacyID(legacyID)
	})
	if err != nil {
		return nil, err
	}
	t := toTool(row)
	return &t, nil
}

// CreateToolInput describes a new tool. CategoryID is the category's
// legacy id.
type CreateToolInput struct {
	Name        string
	Description string
	Logo        string
	URL         string
	CategoryID  int64
	IsFeatured  bool
	IsNew       bool
	Tags        []string
}

// CreateTool creates a tool with its tags and returns the created row.
// A missing category surfaces as apperr.ErrValidation.
func (s *Service) CreateTool(ctx context.Context, in CreateToolInput) (*Tool, error) {
	type created struct{ id, legacyID int64 }
	res, err := store.WithRetry(ctx, s.retry, func() (created, error) {
		id, legacyID, err := s.st.CreateTool(store.CreateToolParams{
			Name:             strings.TrimSpace(in.Name),
			Description:      strings.TrimSpace(in.Description),
			Logo:             strings.TrimSpace(in.Logo),
			URL:              strings.TrimSpace(in.URL),
			CategoryLegacyID: in.CategoryID,
			IsFeatured:       in.IsFeatured,
			IsNew:            in.IsNew,
			Tags:             in.Tags,
		})
		return created{id, legacyID}, err
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("category %d does not exist: %w", in.CategoryID, apperr.ErrValidation)
		}
		return nil, err
	}

	row, err := s.st.ToolByID(res.id)
	if err != nil {
		return nil, err
	}
	t := toTool(row)
	if s.events != nil {
		s.events.PublishToolEvent("created", t.ID, t.Name)
	}
	return &t, nil
}

// UpdateToolInput is a typed partial update; nil fields are untouched.
// CategoryID, when set, is the target category's legacy id.
type UpdateToolInput struct {
	Name        *string
	Description *string
	Logo        *string
	URL         *string
	CategoryID  *int64
	IsFeatured  *bool
	IsNew       *bool
}

// UpdateTool applies a partial update to the tool with the given legacy id
// and returns the updated row. An input with no fields set is a no-op, not
// an error.
func (s *Service) UpdateTool(ctx context.Context, legacyID int64, in UpdateToolInput) (*Tool, error) {
	id, err := store.WithRetry(ctx, s.retry, func() (int64, error) {
		return s.st.ToolIDByLegacyID(legacyID)
	})
	if err != nil {
		return nil, err
	}

	upd := store.ToolUpdate{
		Name:        in.Name,
		Description: in.Description,
		Logo:        in.Logo,
		URL:         in.URL,
		IsFeatured:  in.IsFeatured,
		IsNew:       in.IsNew,
	}
	if in.CategoryID != nil {
		categoryID, err := s.st.CategoryIDByLegacyID(*in.CategoryID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, fmt.Errorf("category %d does not exist: %w", *in.CategoryID, apperr.ErrValidation)
			}
			return nil, err
		}
		upd.CategoryID = &categoryID
	}

	if _, err := store.WithRetry(ctx, s.retry, func() (struct{}, error) {
		return struct{}{}, s.st.UpdateTool(id, upd)
	}); err != nil {
		return nil, err
	}

	row, err := s.st.ToolByID(id)
	if err != nil {
		return nil, err
	}
	t := toTool(row)
	if s.events != nil {
		s.events.PublishToolEvent("updated", t.ID, t.Name)
	}
	return &t, nil
}

// DeleteTool soft-deletes the tool with the given legacy id.
func (s *Service) DeleteTool(ctx context.Context, legacyID int64) error {
	row, err := s.st.ToolByLegacyID(legacyID)
	if err != nil {
		return err
	}
	if _, err := store.WithRetry(ctx, s.retry, func() (bool, error) {
		return s.st.SoftDeleteTool(row.ID)
	}); err != nil {
		return err
	}
	if s.events != nil {
		s.events.PublishToolEvent("deleted", row.LegacyID, row.Name)
	}
	return nil
}

// RecordView atomically increments a tool's view counter and returns the
// new count.
func (s *Service) RecordView(ctx context.Context, legacyID int64) (int64, error) {
	id, err := store.WithRetry(ctx, s.retry, func() (int64, error) {
		return s.st.ToolIDByLegacyID(legacyID)
	})
	if err != nil {
		return 0, err
	}
	if _, err := store.WithRetry(ctx, s.retry, func() (struct{}, error) {
		return struct{}{}, s.st.IncrementViewCount(id)
	}); err != nil {
		return 0, err
	}
	row, err := s.st.ToolByID(id)
	if err != nil {
		return 0, err
	}
	return row.ViewCount, nil
}

// Tags returns a tool's tags.
func (s *Service) Tags(_ context.Context, legacyID int64) ([]Tag, error) {
	id, err := s.st.ToolIDByLegacyID(legacyID)
	if err != nil {
		return nil, err
	}
	rows, err := s.st.ToolTags(id)
	if err != nil {
		return nil, err
	}
	out := make([]Tag, len(rows))
	for i, r := range rows {
		out[i] = Tag{ID: r.ID, Name: r.Name}
	}
	return out, nil
}

// AddTag associates a tag (created on first use, matched case-insensitively)
// with a tool and returns the tool's updated tag list.
func (s *Service) AddTag(ctx context.Context, legacyID int64, name string) ([]Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tag name is empty: %w", apperr.ErrValidation)
	}
	id, err := s.st.ToolIDByLegacyID(legacyID)
	if err != nil {
		return nil, err
	}
	if _, err := store.WithRetry(ctx, s.retry, func() (struct{}, error) {
		return struct{}{}, s.st.AddTagToTool(id, name)
	}); err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.PublishToolEvent("updated", legacyID, "")
	}
	return s.Tags(ctx, legacyID)
}

// RemoveTag deletes a (tool, tag) association. The tag itself is never
// removed. Returns apperr.ErrNotFound when no such association exists.
func (s *Service) RemoveTag(ctx context.Context, legacyID, tagID int64) error {
	id, err := s.st.ToolIDByLegacyID(legacyID)
	if err != nil {
		return err
	}
	removed, err := store.WithRetry(ctx, s.retry, func() (bool, error) {
		return s.st.RemoveTagFromTool(id, tagID)
	})
	if err != nil {
		return err
	}
	if !removed {
		return apperr.ErrNotFound
	}
	if s.events != nil {
		s.events.PublishToolEvent("updated", legacyID, "")
	}
	return nil
}

// CategoryOrderInput assigns a display order to a category legacy id.
type CategoryOrderInput struct {
	ID           int64 `json:"id"`
	DisplayOrder int   `json:"displayOrder"`
}

// ReorderCategories applies all order updates atomically.
func (s *Service) ReorderCategories(ctx context.Context, orders []CategoryOrderInput) error {
	if len(orders) == 0 {
		return fmt.Errorf("no category orders supplied: %w", apperr.ErrValidation)
	}
	updates := make([]store.CategoryOrder, len(orders))
	for i, o := range orders {
		updates[i] = store.CategoryOrder{LegacyID: o.ID, DisplayOrder: o.DisplayOrder}
	}
	_, err := store.WithRetry(ctx, s.retry, func() (struct{}, error) {
		return struct{}{}, s.st.ReorderCategories(updates)
	})
	return err
}

// Search runs a ranked full-text query. The limit defaults to 20 and is
// clamped to MaxSearchLimit.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Tool, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	rows, err := store.WithRetry(ctx, s.retry, func() ([]store.ToolRow, error) {
		return s.st.Search(query, limit)
	})
	if err != nil {
		return nil, err
	}
	out := make([]Tool, len(rows))
	for i := range rows {
		out[i] = toTool(&rows[i])
	}
	return out, nil
}
