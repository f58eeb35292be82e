package services

import (
	"context"
	"fmt"
	"time"

	"github.com/voxlingua/voxlingua/internal/model"
	"github.com/voxlingua/voxlingua/internal/store"
)

// dayKeyFormat is the ledger's per-day key, taken from the process-local
// clock. A new day value implicitly starts a fresh counter; there is no
// midnight rollover job.
const dayKeyFormat = "2006-01-02"

// UsageService is the quota ledger: it meters connected seconds per user per
// calendar day and enforces the daily cap.
type UsageService struct {
	store store.Store
	limit int
	now   func() time.Time
}

// NewUsageService creates the ledger over the given store with the given
// daily limit in seconds.
func NewUsageService(s store.Store, dailyLimitSeconds int) *UsageService {
	return &UsageService{store: s, limit: dailyLimitSeconds, now: time.Now}
}

// WithClock overrides the ledger's clock. Test hook.
func (s *UsageService) WithClock(now func() time.Time) *UsageService {
	s.now = now
	return s
}

// DailyLimit returns the configured cap in seconds.
func (s *UsageService) DailyLimit() int { return s.limit }

func (s *UsageService) today() string {
	return s.now().Format(dayKeyFormat)
}

// GetUsage returns today's counter for the user. A user with no record for
// today reads as zero used seconds.
func (s *UsageService) GetUsage(ctx context.Context, userID string) (*model.Usage, error) {
	day := s.today()
	used, err := s.store.Usage().Get(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	return &model.Usage{UserID: userID, UsageDate: day, UsedSeconds: used}, nil
}

// Increment adds seconds to today's counter, capped at the daily limit, and
// returns the resulting record. seconds must be positive.
func (s *UsageService) Increment(ctx context.Context, userID string, seconds int) (*model.Usage, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("%w: seconds must be positive, got %d", model.ErrInvalidInput, seconds)
	}
	day := s.today()
	used, err := s.store.Usage().Add(ctx, userID, day, seconds, s.limit)
	if err != nil {
		return nil, err
	}
	return &model.Usage{UserID: userID, UsageDate: day, UsedSeconds: used}, nil
}

// Remaining converts a usage record into seconds left under the cap.
func (s *UsageService) Remaining(u *model.Usage) int {
	remaining := s.limit - u.UsedSeconds
	if remaining < 0 {
		return 0
	}
	return remaining
}
