package store

import (
	"context"

	"github.com/voxlingua/voxlingua/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., sqlite, postgres).
type Store interface {
	Usage() Usage
	Situations() Situations

	// HealthPing reports connectivity to the backing database.
	HealthPing(ctx context.Context) error
}

// Usage is the per-(user, day) counter behind the quota ledger.
//
// Add must behave as a conditional upsert: it creates the row if absent and
// sets used_seconds to min(used_seconds + delta, cap), returning the new
// value. Both bundled drivers compute the expression inside a single SQL
// statement, so concurrent Adds for the same key serialize in the database.
// A third-party driver that reads, computes and writes in separate
// statements reintroduces a lost-update window between concurrent callers;
// that under-counts usage but can never exceed the cap.
type Usage interface {
	// Get returns the seconds used for the given day key. A missing row
	// reads as (0, nil); absence is not an error.
	Get(ctx context.Context, userID, date string) (int, error)
	Add(ctx context.Context, userID, date string, delta, cap int) (int, error)
}

// Situations is the flat keyed record store behind the situation catalogue.
type Situations interface {
	List(ctx context.Context) ([]*model.Situation, error)
	Get(ctx context.Context, id string) (*model.Situation, error)
	// Update applies a partial update and returns the stored record.
	// Returns model.ErrNotFound when id is unknown.
	Update(ctx context.Context, id string, req model.UpdateSituationRequest) (*model.Situation, error)
}
