// Package notify delivers redesign progress and terminal events to logs
// and email.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"yardcraft/internal/domain"
)

// Notifier mirrors the callbacks the redesign workflow emits.
type Notifier interface {
	Progress(ctx context.Context, ev domain.ProgressEvent)
	Completed(ctx context.Context, acc domain.Account, rec *domain.RedesignRecord)
	LimitReached(ctx context.Context, acc domain.Account, status domain.LimitStatus)
}

// LogNotifier writes every event to the structured log.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Progress(ctx context.Context, ev domain.ProgressEvent) {
	n.logger.Info().
		Str("request_id", ev.RequestID).
		Str("account_id", ev.AccountID).
		Str("state", ev.State).
		Int("attempt", ev.Attempt).
		Int("max_attempts", ev.MaxAttempts).
		Msg(ev.Message)
}

func (n *LogNotifier) Completed(ctx context.Context, acc domain.Account, rec *domain.RedesignRecord) {
	n.logger.Info().Str("account_id", acc.ID).Str("redesign_id", rec.ID).Msg("redesign completed")
}

func (n *LogNotifier) LimitReached(ctx context.Context, acc domain.Account, status domain.LimitStatus) {
	n.logger.Info().
		Str("account_id", acc.ID).
		Int("used", status.Used).
		Int("limit", status.Limit).
		Time("resets_at", status.ResetsAt).
		Msg("monthly limit reached")
}

// Multi fans events out to several notifiers in order.
type Multi []Notifier

func (m Multi) Progress(ctx context.Context, ev domain.ProgressEvent) {
	for _, n := range m {
		n.Progress(ctx, ev)
	}
}

func (m Multi) Completed(ctx context.Context, acc domain.Account, rec *domain.RedesignRecord) {
	for _, n := range m {
		n.Completed(ctx, acc, rec)
	}
}

func (m Multi) LimitReached(ctx context.Context, acc domain.Account, status domain.LimitStatus) {
	for _, n := range m {
		n.LimitReached(ctx, acc, status)
	}
}
