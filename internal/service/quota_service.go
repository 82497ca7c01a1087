package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/platform/logger"
	"github.com/deckhand-app/deckhand-api/internal/store"
)

// QuotaUsage summarizes a user's AI generation quota for the current UTC day.
type QuotaUsage struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// QuotaService reports per-user daily AI generation usage. Usage is always
// derived from the generation log; this service never mutates it. The
// authoritative quota check happens inside the generation transaction where
// the log append is serialized per user.
type QuotaService interface {
	// Usage returns the user's consumption for the current UTC day, the
	// configured limit, what remains, and when the window resets.
	Usage(ctx context.Context, userID uuid.UUID) (*QuotaUsage, error)

	// Remaining returns how many more cards the user may generate today.
	// Never negative.
	Remaining(ctx context.Context, userID uuid.UUID) (int, error)
}

// quotaServiceImpl implements the QuotaService interface
type quotaServiceImpl struct {
	logStore store.GenerationLogStore
	limit    int
	logger   *slog.Logger
	now      func() time.Time
}

// NewQuotaService creates a new QuotaService with the given generation log
// store and daily card limit.
// It returns an error if any of the required dependencies are invalid.
func NewQuotaService(
	logStore store.GenerationLogStore,
	dailyCardLimit int,
	logger *slog.Logger,
) (QuotaService, error) {
	if logStore == nil {
		return nil, NewServiceError("new_quota_service", "logStore cannot be nil", nil)
	}
	if dailyCardLimit <= 0 {
		return nil, NewServiceError("new_quota_service", "dailyCardLimit must be positive", nil)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &quotaServiceImpl{
		logStore: logStore,
		limit:    dailyCardLimit,
		logger:   logger.With(slog.String("component", "quota_service")),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Usage implements QuotaService.Usage
func (s *quotaServiceImpl) Usage(ctx context.Context, userID uuid.UUID) (*QuotaUsage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.now()
	from, to := dayWindow(now)

	used, err := s.logStore.SumCardsGenerated(ctx, userID, from, to)
	if err != nil {
		log.Error("failed to sum daily usage",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("get_usage", "failed to compute daily usage", err)
	}

	remaining := s.limit - used
	if remaining < 0 {
		remaining = 0
	}

	log.Debug("computed daily usage",
		slog.String("user_id", userID.String()),
		slog.Int("used", used),
		slog.Int("remaining", remaining))

	return &QuotaUsage{
		Used:      used,
		Limit:     s.limit,
		Remaining: remaining,
		ResetAt:   to,
	}, nil
}

// Remaining implements QuotaService.Remaining
func (s *quotaServiceImpl) Remaining(ctx context.Context, userID uuid.UUID) (int, error) {
	usage, err := s.Usage(ctx, userID)
	if err != nil {
		return 0, err
	}
	return usage.Remaining, nil
}

// dayWindow returns the half-open UTC day window [from, to) containing now.
// Quota accounting and its reset boundary are defined entirely by this
// window; there is no per-user timezone handling.
func dayWindow(now time.Time) (time.Time, time.Time) {
	from := domain.DateOf(now)
	return from, from.AddDate(0, 0, 1)
}
