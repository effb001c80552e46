package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/starford/raido/internal/apperr"
)

func TestCreateToolRoundTrip(t *testing.T) {
	st := testStore(t)
	seedCategory(t, st, 3, "Chatbots", 0)

	id, legacyID, err := st.CreateTool(CreateToolParams{
		Name:             "ChatGPT",
		Description:      "Conversational AI assistant",
		URL:              "https://chat.openai.com",
		CategoryLegacyID: 3,
		IsFeatured:       true,
		Tags:             []string{"NLP", "Chat"},
	})
	if err != nil {
		t.Fatalf("CreateTool: %v", err)
	}
	if legacyID != 1 {
		t.Errorf("legacy id = %d, want 1 on empty table", legacyID)
	}

	got, err := st.ToolByLegacyID(legacyID)
	if err != nil {
		t.Fatalf("ToolByLegacyID: %v", err)
	}
	if got.ID != id || got.Name != "ChatGPT" || got.CategoryName != "Chatbots" || !got.IsFeatured {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.CategoryLegacyID != 3 {
		t.Errorf("category legacy id = %d, want 3", got.CategoryLegacyID)
	}

	tags, err := st.ToolTags(id)
	if err != nil {
		t.Fatalf("ToolTags: %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "Chat" || tags[1].Name != "NLP" {
		t.Errorf("tags = %+v, want [Chat NLP]", tags)
	}
}

func TestCreateTool_LegacyIDIsMaxPlusOne(t *testing.T) {
	st := testStore(t)
	catID := seedCategory(t, st, 1, "Chatbots", 0)
	seedTool(t, st, 10, "Existing", catID)

	// A soft-deleted tool still holds its legacy id.
	deletedID := seedTool(t, st, 25, "Gone", catID)
	if _, err := st.SoftDeleteTool(deletedID); err != nil {
		t.Fatal(err)
	}

	_, legacyID, err := st.CreateTool(CreateToolParams{Name: "New", CategoryLegacyID: 1})
	if err != nil {
		t.Fatalf("CreateTool: %v", err)
	}
	if legacyID != 26 {
		t.Errorf("legacy id = %d, want 26 (max over all rows including deleted)", legacyID)
	}
}

func TestCreateTool_TagsDedupeCaseInsensitive(t *testing.T) {
	st := testStore(t)
	seedCategory(t, st, 1, "Chatbots", 0)

	id, _, err := st.CreateTool(CreateToolParams{
		Name:             "A",
		CategoryLegacyID: 1,
		Tags:             []string{"NLP", "nlp", "Nlp"},
	})
	if err != nil {
		t.Fatalf("CreateTool: %v", err)
	}
	tags, err := st.ToolTags(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 {
		t.Fatalf("tags = %d, want 1 (case-insensitive dedupe)", len(tags))
	}
	all, err := st.AllTags()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Name != "NLP" {
		t.Errorf("all tags = %+v, want the first spelling only", all)
	}
}

func TestCreateTool_MissingCategory(t *testing.T) {
	st := testStore(t)
	_, _, err := st.CreateTool(CreateToolParams{Name: "A", CategoryLegacyID: 99})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIncrementViewCount_Concurrent(t *testing.T) {
	st := testStore(t)
	catID := seedCategory(t, st, 1, "Chatbots", 0)
	id := seedTool(t, st, 1, "ChatGPT", catID)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := st.IncrementViewCount(id); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("IncrementViewCount: %v", err)
	}

	got, err := st.ToolByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.ViewCount != n {
		t.Errorf("view count = %d, want %d (no lost updates)", got.ViewCount, n)
	}
}

func TestSoftDeleteIdempotent(t *testing.T) {
	st := testStore(t)
	catID := seedCategory(t, st, 1, "Chatbots", 0)
	id := seedTool(t, st, 1, "ChatGPT", catID)

	deleted, err := st.SoftDeleteTool(id)
	if err != nil {
		t.Fatalf("SoftDeleteTool: %v", err)
	}
	if !deleted {
		t.Error("first delete should report true")
	}

	deleted, err = st.SoftDeleteTool(id)
	if err != nil {
		t.Fatalf("second SoftDeleteTool: %v", err)
	}
	if deleted {
		t.Error("second delete should report false")
	}

	if _, err := st.ToolByID(id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted tool fetch: err = %v, want ErrNotFound", err)
	}
	tools, err := st.ActiveTools()
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 0 {
		t.Errorf("active tools = %d, want 0", len(tools))
	}
}

func TestUpdateTool_Partial(t *testing.T) {
	st := testStore(t)
	catID := seedCategory(t, st, 1, "Chatbots", 0)
	seedCategory(t, st, 2, "Imaging", 1)
	id := seedTool(t, st, 1, "ChatGPT", catID)

	name := "ChatGPT Plus"
	featured := true
	if err := st.UpdateTool(id, ToolUpdate{Name: &name, IsFeatured: &featured}); err != nil {
		t.Fatalf("UpdateTool: %v", err)
	}

	got, err := st.ToolByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "ChatGPT Plus" || !got.IsFeatured {
		t.Errorf("updated fields not applied: %+v", got)
	}
	if got.Description != "ChatGPT description" {
		t.Errorf("untouched field changed: %q", got.Description)
	}

	// Category move.
	newCat, err := st.CategoryIDByLegacyID(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.UpdateTool(id, ToolUpdate{CategoryID: &newCat}); err != nil {
		t.Fatal(err)
	}
	got, _ = st.ToolByID(id)
	if got.CategoryName != "Imaging" {
		t.Errorf("category = %q, want Imaging", got.CategoryName)
	}
}

func TestUpdateTool_EmptyIsNoOp(t *testing.T) {
	st := testStore(t)
	catID := seedCategory(t, st, 1, "Chatbots", 0)
	id := seedTool(t, st, 1, "ChatGPT", catID)

	if err := st.UpdateTool(id, ToolUpdate{}); err != nil {
		t.Fatalf("empty update: %v", err)
	}
	got, err := st.ToolByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "ChatGPT" {
		t.Errorf("name changed by empty update: %q", got.Name)
	}
}

func TestActiveTools_OrderedByViewCount(t *testing.T) {
	st := testStore(t)
	catID := seedCategory(t, st, 1, "Chatbots", 0)
	a := seedTool(t, st, 1, "A", catID)
	seedTool(t, st, 2, "B", catID)

	for i := 0; i < 3; i++ {
		if err := st.IncrementViewCount(a); err != nil {
			t.Fatal(err)
		}
	}

	tools, err := st.ActiveTools()
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 2 {
		t.Fatalf("tools = %d, want 2", len(tools))
	}
	if tools[0].Name != "A" {
		t.Errorf("most viewed first: got %q", tools[0].Name)
	}
}
