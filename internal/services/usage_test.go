package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlingua/voxlingua/internal/model"
	"github.com/voxlingua/voxlingua/internal/store"
	"github.com/voxlingua/voxlingua/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	return s
}

func fixedClock(day string) func() time.Time {
	ts, _ := time.Parse("2006-01-02", day)
	return func() time.Time { return ts }
}

func TestGetUsageFreshUserReadsZero(t *testing.T) {
	svc := NewUsageService(newTestStore(t), 300).WithClock(fixedClock("2026-03-01"))

	u, err := svc.GetUsage(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Equal(t, 0, u.UsedSeconds)
	assert.Equal(t, "2026-03-01", u.UsageDate)
	assert.Equal(t, 300, svc.Remaining(u))
}

func TestIncrementIsMonotoneAndCapped(t *testing.T) {
	svc := NewUsageService(newTestStore(t), 300).WithClock(fixedClock("2026-03-01"))
	ctx := context.Background()

	prev := 0
	for _, delta := range []int{10, 10, 250, 10, 10, 10, 500} {
		u, err := svc.Increment(ctx, "user-a", delta)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, u.UsedSeconds, prev, "usedSeconds must be non-decreasing")
		assert.LessOrEqual(t, u.UsedSeconds, 300, "usedSeconds must never exceed the cap")
		prev = u.UsedSeconds
	}
	assert.Equal(t, 300, prev)
}

func TestIncrementThenGetAgree(t *testing.T) {
	svc := NewUsageService(newTestStore(t), 300).WithClock(fixedClock("2026-03-01"))
	ctx := context.Background()

	inc, err := svc.Increment(ctx, "user-a", 42)
	require.NoError(t, err)
	got, err := svc.GetUsage(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, inc.UsedSeconds, got.UsedSeconds)
}

func TestIncrementRejectsNonPositiveSeconds(t *testing.T) {
	svc := NewUsageService(newTestStore(t), 300)

	for _, bad := range []int{0, -1, -300} {
		_, err := svc.Increment(context.Background(), "user-a", bad)
		assert.ErrorIs(t, err, model.ErrInvalidInput, "seconds=%d", bad)
	}
}

func TestNewDayStartsFreshCounter(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	day1 := NewUsageService(st, 300).WithClock(fixedClock("2026-03-01"))
	_, err := day1.Increment(ctx, "user-a", 300)
	require.NoError(t, err)

	day2 := NewUsageService(st, 300).WithClock(fixedClock("2026-03-02"))
	u, err := day2.GetUsage(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 0, u.UsedSeconds)
	assert.Equal(t, 300, day2.Remaining(u))
}
