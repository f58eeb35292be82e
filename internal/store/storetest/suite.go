package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/voxlingua/voxlingua/internal/model"
	"github.com/voxlingua/voxlingua/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// makeStore must return a clean, isolated store seeded with the default
// situation catalogue.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	const day = "2026-03-01"
	const cap = 300

	// Usage: missing row reads as zero, not an error.
	if used, err := s.Usage().Get(ctx, userID, day); err != nil || used != 0 {
		t.Fatalf("Get on fresh day: used=%d err=%v", used, err)
	}

	// Add creates the row and accumulates.
	if used, err := s.Usage().Add(ctx, userID, day, 10, cap); err != nil || used != 10 {
		t.Fatalf("first Add: used=%d err=%v", used, err)
	}
	if used, err := s.Usage().Add(ctx, userID, day, 20, cap); err != nil || used != 30 {
		t.Fatalf("second Add: used=%d err=%v", used, err)
	}
	if used, err := s.Usage().Get(ctx, userID, day); err != nil || used != 30 {
		t.Fatalf("Get after Adds: used=%d err=%v", used, err)
	}

	// Add caps at the daily limit and stays there.
	if used, err := s.Usage().Add(ctx, userID, day, 1000, cap); err != nil || used != cap {
		t.Fatalf("capping Add: used=%d err=%v", used, err)
	}
	if used, err := s.Usage().Add(ctx, userID, day, 10, cap); err != nil || used != cap {
		t.Fatalf("Add past cap: used=%d err=%v", used, err)
	}

	// A new day starts a fresh counter; the old day is untouched.
	if used, err := s.Usage().Get(ctx, userID, "2026-03-02"); err != nil || used != 0 {
		t.Fatalf("Get next day: used=%d err=%v", used, err)
	}
	if used, err := s.Usage().Get(ctx, userID, day); err != nil || used != cap {
		t.Fatalf("Get old day after rollover: used=%d err=%v", used, err)
	}

	// A first Add larger than the cap still respects it.
	other := "u-" + uuid.New().String()
	if used, err := s.Usage().Add(ctx, other, day, 999, cap); err != nil || used != cap {
		t.Fatalf("oversized first Add: used=%d err=%v", used, err)
	}

	// Situations: seed catalogue is present.
	sits, err := s.Situations().List(ctx)
	if err != nil || len(sits) == 0 {
		t.Fatalf("List situations: n=%d err=%v", len(sits), err)
	}
	first := sits[0]
	got, err := s.Situations().Get(ctx, first.ID)
	if err != nil || got.Title != first.Title {
		t.Fatalf("Get situation: got=%v err=%v", got, err)
	}
	if _, err := s.Situations().Get(ctx, "no-such-situation"); err != model.ErrNotFound {
		t.Fatalf("Get unknown situation: err=%v, want ErrNotFound", err)
	}

	// Partial update: only the provided fields change.
	newPrompt := "Updated scenario prompt."
	updated, err := s.Situations().Update(ctx, first.ID, model.UpdateSituationRequest{Prompt: &newPrompt})
	if err != nil {
		t.Fatalf("Update situation: %v", err)
	}
	if updated.Prompt != newPrompt || updated.Title != first.Title || len(updated.Links) != len(first.Links) {
		t.Fatalf("Update merged wrong: %+v", updated)
	}
	if updated.UpdatedAt.Before(first.UpdatedAt) {
		t.Fatalf("Update did not refresh updatedAt")
	}
	if _, err := s.Situations().Update(ctx, "no-such-situation", model.UpdateSituationRequest{}); err != model.ErrNotFound {
		t.Fatalf("Update unknown situation: err=%v, want ErrNotFound", err)
	}
}
