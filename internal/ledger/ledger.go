// Package ledger tracks how many redesigns an account has created in its
// current 30 day window.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"yardcraft/internal/domain"
)

// Period is the length of one usage window.
const Period = 30 * 24 * time.Hour

// Service reads and mutates usage ledgers.
type Service struct {
	repo   domain.LedgerRepository
	logger zerolog.Logger
	now    func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service backed by repo.
func New(repo domain.LedgerRepository, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckLimit returns the account's current usage. The entry is created on
// first use and reset when its window has elapsed.
func (s *Service) CheckLimit(ctx context.Context, acc domain.Account) (domain.LimitStatus, error) {
	if acc.ID == "" {
		return domain.LimitStatus{}, domain.ErrUnauthorized
	}
	now := s.now().UTC()

	entry, err := s.load(ctx, acc, now)
	if err != nil {
		return domain.LimitStatus{}, err
	}

	if acc.Plan.IsUnlimited() {
		return domain.LimitStatus{
			Used:        entry.Used,
			Limit:       domain.UnlimitedRemaining,
			Remaining:   domain.UnlimitedRemaining,
			IsUnlimited: true,
			PeriodStart: entry.PeriodStart,
			ResetsAt:    entry.PeriodStart.Add(Period),
		}, nil
	}

	remaining := entry.Limit - entry.Used
	if remaining < 0 {
		remaining = 0
	}
	return domain.LimitStatus{
		Used:            entry.Used,
		Limit:           entry.Limit,
		Remaining:       remaining,
		HasReachedLimit: entry.Used >= entry.Limit,
		PeriodStart:     entry.PeriodStart,
		ResetsAt:        entry.PeriodStart.Add(Period),
	}, nil
}

func (s *Service) load(ctx context.Context, acc domain.Account, now time.Time) (*domain.LedgerEntry, error) {
	entry, err := s.repo.GetLedger(ctx, acc.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		entry = &domain.LedgerEntry{
			AccountID:   acc.ID,
			Used:        0,
			Limit:       acc.Plan.MonthlyLimit(),
			PeriodStart: now,
		}
		if err := s.repo.SaveLedger(ctx, entry); err != nil {
			return nil, fmt.Errorf("create ledger: %w", err)
		}
		s.logger.Info().Str("account_id", acc.ID).Int("limit", entry.Limit).Msg("ledger created")
		return entry, nil
	case err != nil:
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	if now.Sub(entry.PeriodStart) >= Period {
		s.logger.Info().
			Str("account_id", acc.ID).
			Int("used", entry.Used).
			Time("period_start", entry.PeriodStart).
			Msg("ledger rollover")
		entry.Used = 0
		entry.PeriodStart = now
		entry.Limit = acc.Plan.MonthlyLimit()
		if err := s.repo.SaveLedger(ctx, entry); err != nil {
			return nil, fmt.Errorf("rollover ledger: %w", err)
		}
		return entry, nil
	}

	if limit := acc.Plan.MonthlyLimit(); entry.Limit != limit {
		entry.Limit = limit
		if err := s.repo.SaveLedger(ctx, entry); err != nil {
			return nil, fmt.Errorf("sync ledger limit: %w", err)
		}
	}
	return entry, nil
}

// RecordUsage adds one to the account's counter and returns the new total.
// It doesn't re-check the limit; callers gate on CheckLimit first. A window
// that ended since that check is rolled over first so the use lands in the
// current period.
func (s *Service) RecordUsage(ctx context.Context, acc domain.Account) (int, error) {
	if _, err := s.load(ctx, acc, s.now().UTC()); err != nil {
		return 0, err
	}
	used, err := s.repo.IncrementUsage(ctx, acc.ID)
	if err != nil {
		return 0, fmt.Errorf("record usage: %w", err)
	}
	return used, nil
}

// SetPlan stores the plan-derived limit on the ledger, optionally starting
// a fresh window.
func (s *Service) SetPlan(ctx context.Context, accountID string, plan domain.Plan, resetUsage bool) error {
	now := s.now().UTC()
	entry, err := s.repo.GetLedger(ctx, accountID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		entry = &domain.LedgerEntry{AccountID: accountID, PeriodStart: now}
	case err != nil:
		return fmt.Errorf("load ledger: %w", err)
	}
	entry.Limit = plan.MonthlyLimit()
	if resetUsage {
		entry.Used = 0
		entry.PeriodStart = now
	}
	if err := s.repo.SaveLedger(ctx, entry); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}
