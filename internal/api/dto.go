package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/toolservice"
)

// CreateToolRequest is the request body for creating a tool.
// CategoryID refers to the category's public id.
type CreateToolRequest struct {
	Name        string   `json:"name" example:"ChatGPT" validate:"required"`
	Description string   `json:"description" example:"Conversational AI assistant" validate:"required"`
	Logo        string   `json:"logo" example:"https://example.com/logo.png"`
	URL         string   `json:"url" example:"https://chat.openai.com"`
	CategoryID  int64    `json:"categoryId" example:"3" validate:"required"`
	IsFeatured  bool     `json:"isFeatured"`
	IsNew       bool     `json:"isNew"`
	Tags        []string `json:"tags" example:"NLP,Chat"`
}

// Validate checks the request body.
func (r CreateToolRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.CategoryID, validation.Required, validation.Min(int64(1))),
	)
}

// UpdateToolRequest is the request body for a partial tool update.
// Absent fields are left untouched.
type UpdateToolRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Logo        *string `json:"logo"`
	URL         *string `json:"url"`
	CategoryID  *int64  `json:"categoryId"`
	IsFeatured  *bool   `json:"isFeatured"`
	IsNew       *bool   `json:"isNew"`
}

// Validate checks the request body. Fields that are present must be valid.
func (r UpdateToolRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(0, 200)),
		validation.Field(&r.CategoryID, validation.By(func(v any) error {
			if id, ok := v.(*int64); ok && id != nil {
				return validation.Validate(*id, validation.Min(int64(1)))
			}
			return nil
		})),
	)
}

// AddTagRequest is the request body for attaching a tag to a tool.
type AddTagRequest struct {
	Name string `json:"name" example:"NLP" validate:"required"`
}

// Validate checks the request body.
func (r AddTagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

// ReorderCategoriesRequest assigns new display orders to categories by
// their public ids.
type ReorderCategoriesRequest struct {
	Categories []toolservice.CategoryOrderInput `json:"categories" validate:"required"`
}

// Validate checks the request body.
func (r ReorderCategoriesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Categories, validation.Required),
	)
}

// Tool is the tool representation in API responses (aliased from the domain layer).
type Tool = toolservice.Tool

// Category is the category representation in API responses (aliased from the domain layer).
type Category = toolservice.Category

// Settings is the full site payload (aliased from the domain layer).
type Settings = toolservice.Settings

// SearchResponse wraps ranked search results.
type SearchResponse struct {
	Results []Tool `json:"results" validate:"required"`
}

// TagListResponse wraps a tool's tags.
type TagListResponse struct {
	Tags []toolservice.Tag `json:"tags" validate:"required"`
}

// ViewResponse is returned after recording a tool view.
type ViewResponse struct {
	ViewCount int64 `json:"viewCount" example:"42" validate:"required"`
}
