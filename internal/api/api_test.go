package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/starford/raido/internal/testutil"
	"github.com/starford/raido/internal/toolservice"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := testutil.TestStore(t)
	catID := testutil.SeedCategory(t, st, 1, "Chatbots", 0)
	testutil.SeedCategory(t, st, 2, "Imaging", 1)
	testutil.SeedTool(t, st, 10, "ChatGPT", catID)

	svc := toolservice.NewService(st, nil)
	srv := httptest.NewServer(NewRouter(svc, false, "", nil))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestGetSettings(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/settings", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	settings := decode[Settings](t, resp)
	if len(settings.Categories) != 2 || len(settings.Tools) != 1 {
		t.Errorf("settings = %d categories / %d tools", len(settings.Categories), len(settings.Tools))
	}
}

func TestGetTool(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/tools/tool-10", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	tool := decode[Tool](t, resp)
	if tool.ID != 10 || tool.Name != "ChatGPT" {
		t.Errorf("tool = %+v", tool)
	}

	// Bare numeric ids work too.
	resp = doJSON(t, http.MethodGet, srv.URL+"/tools/10", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("numeric id status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/tools/tool-999", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing tool status = %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/tools/not-an-id", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed id status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateTool(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/tools", CreateToolRequest{
		Name:        "Claude",
		Description: "Assistant",
		CategoryID:  1,
		Tags:        []string{"NLP"},
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	tool := decode[Tool](t, resp)
	if tool.ID != 11 || tool.CategoryName != "Chatbots" {
		t.Errorf("tool = %+v", tool)
	}
}

func TestCreateTool_Validation(t *testing.T) {
	srv := newTestServer(t)

	// Missing name.
	resp := doJSON(t, http.MethodPost, srv.URL+"/tools", CreateToolRequest{
		Description: "x", CategoryID: 1,
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", resp.StatusCode)
	}

	// Unknown category.
	resp = doJSON(t, http.MethodPost, srv.URL+"/tools", CreateToolRequest{
		Name: "X", Description: "x", CategoryID: 99,
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown category status = %d, want 400", resp.StatusCode)
	}

	// Broken JSON.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/tools", bytes.NewBufferString(`{`))
	r, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusBadRequest {
		t.Errorf("broken JSON status = %d, want 400", r.StatusCode)
	}
}

func TestUpdateTool(t *testing.T) {
	srv := newTestServer(t)

	name := "ChatGPT Plus"
	resp := doJSON(t, http.MethodPut, srv.URL+"/tools/tool-10", UpdateToolRequest{Name: &name}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	tool := decode[Tool](t, resp)
	if tool.Name != "ChatGPT Plus" {
		t.Errorf("name = %q", tool.Name)
	}

	resp = doJSON(t, http.MethodPut, srv.URL+"/tools/tool-999", UpdateToolRequest{Name: &name}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing tool status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteTool(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/tools/tool-10", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/tools/tool-10", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted tool status = %d, want 404", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodDelete, srv.URL+"/tools/tool-10", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestRecordView(t *testing.T) {
	srv := newTestServer(t)

	for want := int64(1); want <= 2; want++ {
		resp := doJSON(t, http.MethodPost, srv.URL+"/tools/tool-10/view", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		view := decode[ViewResponse](t, resp)
		if view.ViewCount != want {
			t.Errorf("view count = %d, want %d", view.ViewCount, want)
		}
	}
}

func TestTagEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/tools/tool-10/tags", AddTagRequest{Name: "NLP"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add tag status = %d", resp.StatusCode)
	}
	tags := decode[TagListResponse](t, resp)
	if len(tags.Tags) != 1 || tags.Tags[0].Name != "NLP" {
		t.Fatalf("tags = %+v", tags)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/tools/tool-10/tags", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list tags status = %d", resp.StatusCode)
	}

	tagID := tags.Tags[0].ID
	url := srv.URL + "/tools/tool-10/tags/" + strconv.FormatInt(tagID, 10)
	resp = doJSON(t, http.MethodDelete, url, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("remove tag status = %d, want 204", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodDelete, url, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second remove status = %d, want 404", resp.StatusCode)
	}
}

func TestReorderCategoriesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/categories/order", ReorderCategoriesRequest{
		Categories: []toolservice.CategoryOrderInput{
			{ID: 2, DisplayOrder: 0},
			{ID: 1, DisplayOrder: 1},
		},
	}, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/settings", nil, nil)
	settings := decode[Settings](t, resp)
	if settings.Categories[0].Name != "Imaging" {
		t.Errorf("first category = %q, want Imaging", settings.Categories[0].Name)
	}

	resp = doJSON(t, http.MethodPut, srv.URL+"/categories/order", ReorderCategoriesRequest{}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty reorder status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/search?q=ChatGPT", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	results := decode[SearchResponse](t, resp)
	if len(results.Results) != 1 {
		t.Errorf("results = %+v", results)
	}

	// The HTTP surface requires q; the blank-query-is-empty contract lives
	// at the service level.
	resp = doJSON(t, http.MethodGet, srv.URL+"/search?q=", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank query status = %d, want 400", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/search?q=%20%20", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("whitespace query status = %d, want 400", resp.StatusCode)
	}

	// Queries that match nothing give an empty list, not null.
	resp = doJSON(t, http.MethodGet, srv.URL+"/search?q=zzzznope", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("no-match status = %d", resp.StatusCode)
	}
	results = decode[SearchResponse](t, resp)
	if results.Results == nil || len(results.Results) != 0 {
		t.Errorf("no-match results = %+v, want empty list", results.Results)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/search?q=x&limit=101", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("oversized limit status = %d, want 400", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/search?q=x&limit=abc", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-numeric limit status = %d, want 400", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/search?q=x&limit=0", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero limit status = %d, want 400", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/search?q=x&limit=-5", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", resp.StatusCode)
	}
}

func TestAuthMiddleware(t *testing.T) {
	st := testutil.TestStore(t)
	testutil.SeedCategory(t, st, 1, "Chatbots", 0)
	svc := toolservice.NewService(st, nil)
	srv := httptest.NewServer(NewRouter(svc, true, "secret", nil))
	t.Cleanup(srv.Close)

	body := CreateToolRequest{Name: "X", Description: "y", CategoryID: 1}

	resp := doJSON(t, http.MethodPost, srv.URL+"/tools", body, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/tools", body, map[string]string{"Authorization": "Bearer wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/tools", body, map[string]string{"Authorization": "Bearer secret"})
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("valid token status = %d, want 201", resp.StatusCode)
	}

	// Reads stay public in token mode.
	resp = doJSON(t, http.MethodGet, srv.URL+"/settings", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("public read status = %d, want 200", resp.StatusCode)
	}
}
