package store

import (
	"sync"
	"testing"
)

func TestActiveCategories(t *testing.T) {
	st := testStore(t)
	chat := seedCategory(t, st, 1, "Chatbots", 1)
	seedCategory(t, st, 2, "Imaging", 0)

	// Tool counts exclude soft-deleted tools.
	seedTool(t, st, 1, "A", chat)
	deleted := seedTool(t, st, 2, "B", chat)
	if _, err := st.SoftDeleteTool(deleted); err != nil {
		t.Fatal(err)
	}

	cats, err := st.ActiveCategories()
	if err != nil {
		t.Fatalf("ActiveCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("categories = %d, want 2", len(cats))
	}
	if cats[0].Name != "Imaging" || cats[1].Name != "Chatbots" {
		t.Errorf("order = [%s %s], want display order ascending", cats[0].Name, cats[1].Name)
	}
	if cats[1].ToolCount != 1 {
		t.Errorf("Chatbots tool count = %d, want 1 (deleted excluded)", cats[1].ToolCount)
	}
}

func TestReorderCategories(t *testing.T) {
	st := testStore(t)
	seedCategory(t, st, 1, "Chatbots", 0)
	seedCategory(t, st, 2, "Imaging", 1)
	seedCategory(t, st, 3, "Coding", 2)

	err := st.ReorderCategories([]CategoryOrder{
		{LegacyID: 3, DisplayOrder: 0},
		{LegacyID: 1, DisplayOrder: 1},
		{LegacyID: 2, DisplayOrder: 2},
	})
	if err != nil {
		t.Fatalf("ReorderCategories: %v", err)
	}

	cats, err := st.ActiveCategories()
	if err != nil {
		t.Fatal(err)
	}
	got := []string{cats[0].Name, cats[1].Name, cats[2].Name}
	want := []string{"Coding", "Chatbots", "Imaging"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestReorderCategories_AtomicVisibility(t *testing.T) {
	st := testStore(t)
	const n = 6
	names := []string{"Chatbots", "Imaging", "Coding", "Audio", "Video", "Writing"}

	// Two complete orderings with disjoint display values, so any mix of
	// the two is detectable.
	var orderA, orderB []CategoryOrder
	wantA := make(map[int64]int, n)
	wantB := make(map[int64]int, n)
	for i := int64(1); i <= n; i++ {
		seedCategory(t, st, i, names[i-1], int(i))
		orderA = append(orderA, CategoryOrder{LegacyID: i, DisplayOrder: int(i)})
		orderB = append(orderB, CategoryOrder{LegacyID: i, DisplayOrder: int(100 - i)})
		wantA[i] = int(i)
		wantB[i] = int(100 - i)
	}

	done := make(chan struct{})
	errs := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < 20; i++ {
			orders := orderB
			if i%2 == 1 {
				orders = orderA
			}
			if err := st.ReorderCategories(orders); err != nil {
				errs <- err
				return
			}
		}
	}()

	matches := func(got map[int64]int, want map[int64]int) bool {
		for id, order := range want {
			if got[id] != order {
				return false
			}
		}
		return true
	}

	// Every snapshot a concurrent reader observes must be entirely the old
	// ordering or entirely the new one, never a mix.
	for {
		select {
		case <-done:
			wg.Wait()
			select {
			case err := <-errs:
				t.Fatalf("ReorderCategories: %v", err)
			default:
			}
			return
		default:
		}

		cats, err := st.ActiveCategories()
		if err != nil {
			t.Fatalf("ActiveCategories: %v", err)
		}
		got := make(map[int64]int, len(cats))
		for _, c := range cats {
			got[c.LegacyID] = c.DisplayOrder
		}
		if !matches(got, wantA) && !matches(got, wantB) {
			t.Fatalf("observed mixed ordering %v, want all-old %v or all-new %v", got, wantA, wantB)
		}
	}
}

func TestReorderCategories_UnknownIDIsIgnored(t *testing.T) {
	st := testStore(t)
	seedCategory(t, st, 1, "Chatbots", 0)

	err := st.ReorderCategories([]CategoryOrder{
		{LegacyID: 1, DisplayOrder: 5},
		{LegacyID: 99, DisplayOrder: 0},
	})
	if err != nil {
		t.Fatalf("ReorderCategories: %v", err)
	}
	cats, _ := st.ActiveCategories()
	if cats[0].DisplayOrder != 5 {
		t.Errorf("display order = %d, want 5", cats[0].DisplayOrder)
	}
}

func TestReorderCategories_Empty(t *testing.T) {
	st := testStore(t)
	if err := st.ReorderCategories(nil); err != nil {
		t.Fatalf("empty reorder: %v", err)
	}
}
