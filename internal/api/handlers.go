package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/store"
	"github.com/starford/raido/internal/toolservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *toolservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *toolservice.Service) *Handler {
	return &Handler{svc: svc}
}

// toolID extracts the tool's public id from the URL parameter. Accepts
// both bare numbers ("42") and prefixed identifiers ("tool-42").
func toolID(r *http.Request) (int64, error) {
	return store.ExtractLegacyID(chi.URLParam(r, "toolID"))
}

// respondError maps domain errors onto HTTP statuses. The same taxonomy
// applies to every handler: missing rows are 404, bad input is 400, a
// contended database is 503, everything else is a logged 500.
func respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case apperr.IsBusy(err):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("database is busy, try again"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Get site configuration, categories and tools in one payload
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	Settings
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Settings(r.Context())
	if err != nil {
		respondError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across tools
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results (default 20, max 100)"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a positive number"))
			return
		}
		if n > toolservice.MaxSearchLimit {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be at most 100"))
			return
		}
		limit = n
	}
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		respondError(w, "search", err)
		return
	}
	if results == nil {
		results = []Tool{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// CreateTool handles POST /api/tools.
//
//	@Summary		Create a tool with optional tags
//	@Tags			tools
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateToolRequest	true	"Tool to create"
//	@Success		201		{object}	Tool
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tools [post]
func (h *Handler) CreateTool(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	tool, err := h.svc.CreateTool(r.Context(), toolservice.CreateToolInput{
		Name:        req.Name,
		Description: req.Description,
		Logo:        req.Logo,
		URL:         req.URL,
		CategoryID:  req.CategoryID,
		IsFeatured:  req.IsFeatured,
		IsNew:       req.IsNew,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(w, "create tool", err)
		return
	}
	writeJSON(w, http.StatusCreated, tool)
}

// GetTool handles GET /api/tools/{toolID}.
//
//	@Summary		Get a single tool by id
//	@Tags			tools
//	@Produce		json
//	@Param			toolID	path		string	true	"Tool id"
//	@Success		200		{object}	Tool
//	@Failure		404		{object}	errResponse
//	@Router			/tools/{toolID} [get]
func (h *Handler) GetTool(w http.ResponseWriter, r *http.Request) {
	id, err := toolID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid tool id"))
		return
	}
	tool, err := h.svc.GetTool(r.Context(), id)
	if err != nil {
		respondError(w, "get tool", err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

// UpdateTool handles PUT /api/tools/{toolID}.
//
//	@Summary		Partially update a tool
//	@Tags			tools
//	@Accept			json
//	@Produce		json
//	@Param			toolID	path		string				true	"Tool id"
//	@Param			body	body		UpdateToolRequest	true	"Fields to change"
//	@Success		200		{object}	Tool
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tools/{toolID} [put]
func (h *Handler) UpdateTool(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id, err := toolID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid tool id"))
		return
	}
	var req UpdateToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	tool, err := h.svc.UpdateTool(r.Context(), id, toolservice.UpdateToolInput{
		Name:        req.Name,
		Description: req.Description,
		Logo:        req.Logo,
		URL:         req.URL,
		CategoryID:  req.CategoryID,
		IsFeatured:  req.IsFeatured,
		IsNew:       req.IsNew,
	})
	if err != nil {
		respondError(w, "update tool", err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

// DeleteTool handles DELETE /api/tools/{toolID}.
//
//	@Summary		Soft-delete a tool
//	@Tags			tools
//	@Param			toolID	path	string	true	"Tool id"
//	@Success		204		"Tool deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tools/{toolID} [delete]
func (h *Handler) DeleteTool(w http.ResponseWriter, r *http.Request) {
	id, err := toolID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid tool id"))
		return
	}
	if err := h.svc.DeleteTool(r.Context(), id); err != nil {
		respondError(w, "delete tool", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordView handles POST /api/tools/{toolID}/view.
//
//	@Summary		Increment a tool's view counter
//	@Tags			tools
//	@Produce		json
//	@Param			toolID	path		string	true	"Tool id"
//	@Success		200		{object}	ViewResponse
//	@Failure		404		{object}	errResponse
//	@Router			/tools/{toolID}/view [post]
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	id, err := toolID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid tool id"))
		return
	}
	count, err := h.svc.RecordView(r.Context(), id)
	if err != nil {
		respondError(w, "record view", err)
		return
	}
	writeJSON(w, http.StatusOK, ViewResponse{ViewCount: count})
}

// ListTags handles GET /api/tools/{toolID}/tags.
//
//	@Summary		List a tool's tags
//	@Tags			tags
//	@Produce		json
//	@Param			toolID	path		string	true	"Tool id"
//	@Success		200		{object}	TagListResponse
//	@Failure		404		{object}	errResponse
//	@Router			/tools/{toolID}/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	id, err := toolID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid tool id"))
		return
	}
	tags, err := h.svc.Tags(r.Context(), id)
	if err != nil {
		respondError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// AddTag handles POST /api/tools/{toolID}/tags.
//
//	@Summary		Attach a tag to a tool, creating the tag on first use
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			toolID	path		string			true	"Tool id"
//	@Param			body	body		AddTagRequest	true	"Tag to attach"
//	@Success		200		{object}	TagListResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tools/{toolID}/tags [post]
func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id, err := toolID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid tool id"))
		return
	}
	var req AddTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	tags, err := h.svc.AddTag(r.Context(), id, req.Name)
	if err != nil {
		respondError(w, "add tag", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// RemoveTag handles DELETE /api/tools/{toolID}/tags/{tagID}.
//
//	@Summary		Detach a tag from a tool
//	@Tags			tags
//	@Param			toolID	path	string	true	"Tool id"
//	@Param			tagID	path	int		true	"Tag id"
//	@Success		204		"Tag detached"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tools/{toolID}/tags/{tagID} [delete]
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	id, err := toolID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid tool id"))
		return
	}
	tagID, err := strconv.ParseInt(chi.URLParam(r, "tagID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid tag id"))
		return
	}
	if err := h.svc.RemoveTag(r.Context(), id, tagID); err != nil {
		respondError(w, "remove tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderCategories handles PUT /api/categories/order.
//
//	@Summary		Atomically reassign category display orders
//	@Tags			categories
//	@Accept			json
//	@Param			body	body	ReorderCategoriesRequest	true	"New ordering"
//	@Success		204		"Order updated"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/categories/order [put]
func (h *Handler) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ReorderCategoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.svc.ReorderCategories(r.Context(), req.Categories); err != nil {
		respondError(w, "reorder categories", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
