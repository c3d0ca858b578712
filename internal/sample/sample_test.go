package sample

import (
	"testing"
	"time"

	"wiki_tracker/internal/models"
)

func history(n int) []models.Revision {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	revs := make([]models.Revision, n)
	for i := range revs {
		revs[i] = models.Revision{ID: int64(1000 + i), Timestamp: base.AddDate(0, 0, i)}
	}
	return revs
}

func TestPlanIsSubsetAndIncludesLatest(t *testing.T) {
	revs := history(47)
	known := make(map[int64]bool)
	for _, r := range revs {
		known[r.ID] = true
	}

	for _, stride := range []int{1, 2, 7, 10, 100} {
		plan := Plan(revs, stride, nil)
		if len(plan) == 0 {
			t.Fatalf("stride %d: empty plan", stride)
		}
		for _, r := range plan {
			if !known[r.ID] {
				t.Fatalf("stride %d: planned id %d not in revision list", stride, r.ID)
			}
		}
		if plan[len(plan)-1].ID != revs[len(revs)-1].ID {
			t.Fatalf("stride %d: most recent revision missing from plan", stride)
		}
	}
}

func TestPlanStride(t *testing.T) {
	revs := history(10)
	plan := Plan(revs, 4, nil)

	want := []int64{1000, 1004, 1008, 1009}
	if len(plan) != len(want) {
		t.Fatalf("expected %d revisions, got %d", len(want), len(plan))
	}
	for i, id := range want {
		if plan[i].ID != id {
			t.Errorf("plan[%d] = %d, want %d", i, plan[i].ID, id)
		}
	}
}

func TestPlanExcludesCached(t *testing.T) {
	revs := history(10)
	cached := map[int64]bool{1000: true, 1008: true}

	plan := Plan(revs, 4, func(id int64) bool { return cached[id] })

	want := []int64{1004, 1009}
	if len(plan) != len(want) {
		t.Fatalf("expected %d revisions, got %d: %v", len(want), len(plan), plan)
	}
	for i, id := range want {
		if plan[i].ID != id {
			t.Errorf("plan[%d] = %d, want %d", i, plan[i].ID, id)
		}
	}
}

func TestPlanFullyCachedFetchesNothing(t *testing.T) {
	revs := history(25)
	plan := Plan(revs, 5, func(int64) bool { return true })
	if len(plan) != 0 {
		t.Fatalf("expected zero fetches for a fully cached history, got %d", len(plan))
	}
}

func TestPlanEmptyHistory(t *testing.T) {
	if plan := Plan(nil, 10, nil); plan != nil {
		t.Fatalf("expected nil plan for empty history, got %v", plan)
	}
}

func TestPlanStrideBelowOne(t *testing.T) {
	revs := history(5)
	plan := Plan(revs, 0, nil)
	if len(plan) != 5 {
		t.Fatalf("stride 0 should select everything, got %d of 5", len(plan))
	}
}
