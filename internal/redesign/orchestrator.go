// Package redesign runs the generate, validate and persist workflow behind
// a single redesign request.
package redesign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"yardcraft/internal/domain"
)

// MaxRetries is the total number of generation attempts per request.
const MaxRetries = 2

// DefaultAttemptTimeout bounds one generate plus validate round trip.
const DefaultAttemptTimeout = 90 * time.Second

// State is a step of the workflow state machine.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateValidating State = "validating"
	StateRetrying   State = "retrying"
	StatePersisting State = "persisting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
	StateSuperseded State = "superseded"
)

// Generator produces a redesigned image and catalog.
type Generator interface {
	Generate(ctx context.Context, source domain.Image, prompt string) (*domain.GenerationResult, error)
}

// Validator grades a generated image against the request.
type Validator interface {
	Validate(ctx context.Context, original, generated domain.Image, req domain.RedesignRequest) (domain.ValidationResult, error)
}

// Persister stores both images and the record, and records usage.
type Persister interface {
	Persist(ctx context.Context, acc domain.Account, original, generated domain.Image, catalog domain.DesignCatalog, req domain.RedesignRequest) (*domain.RedesignRecord, error)
}

// Ledger gates runs on the account's monthly allowance.
type Ledger interface {
	CheckLimit(ctx context.Context, acc domain.Account) (domain.LimitStatus, error)
	RecordUsage(ctx context.Context, acc domain.Account) (int, error)
}

// Tracker hands out request tokens per (account, UI context). Only the most
// recent token of a pair is current.
type Tracker interface {
	Begin(ctx context.Context, accountID, uiContext string) (string, error)
	IsCurrent(ctx context.Context, accountID, uiContext, token string) (bool, error)
	End(ctx context.Context, accountID, uiContext, token string) error
}

// Notifier receives progress and terminal events.
type Notifier interface {
	Progress(ctx context.Context, ev domain.ProgressEvent)
	Completed(ctx context.Context, acc domain.Account, rec *domain.RedesignRecord)
	LimitReached(ctx context.Context, acc domain.Account, status domain.LimitStatus)
}

// Deps groups the collaborators of an Orchestrator.
type Deps struct {
	Ledger    Ledger
	Generator Generator
	Validator Validator
	Persister Persister
	Tracker   Tracker
	Notifier  Notifier
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithAttemptTimeout overrides DefaultAttemptTimeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.attemptTimeout = d
		}
	}
}

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator drives one redesign request to a terminal state.
type Orchestrator struct {
	deps           Deps
	logger         zerolog.Logger
	attemptTimeout time.Duration
	now            func() time.Time
}

// NewOrchestrator wires deps. Tracker and Notifier may be nil.
func NewOrchestrator(deps Deps, logger zerolog.Logger, opts ...Option) *Orchestrator {
	if deps.Tracker == nil {
		deps.Tracker = noopTracker{}
	}
	if deps.Notifier == nil {
		deps.Notifier = noopNotifier{}
	}
	o := &Orchestrator{
		deps:           deps,
		logger:         logger,
		attemptTimeout: DefaultAttemptTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Outcome describes a finished run.
type Outcome struct {
	RequestID  string
	Record     *domain.RedesignRecord
	Attempts   int
	Validation domain.ValidationResult
	Events     []domain.ProgressEvent
}

type run struct {
	o         *Orchestrator
	acc       domain.Account
	uiContext string
	token     string
	untracked bool
	outcome   *Outcome
	logger    zerolog.Logger
}

// Run checks the ledger, then generates and validates up to MaxRetries
// times and persists the first passing result. The returned error is always
// a *domain.Error once the ledger check has passed; outcome is non-nil
// whenever a request token was issued.
func (o *Orchestrator) Run(ctx context.Context, acc domain.Account, uiContext string, req domain.RedesignRequest) (*Outcome, error) {
	if acc.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	status, err := o.deps.Ledger.CheckLimit(ctx, acc)
	if err != nil {
		return nil, fmt.Errorf("check limit: %w", err)
	}
	if status.HasReachedLimit {
		o.deps.Notifier.LimitReached(ctx, acc, status)
		return nil, domain.QuotaExceeded(status.Limit)
	}

	token, err := o.deps.Tracker.Begin(ctx, acc.ID, uiContext)
	untracked := err != nil
	if untracked {
		o.logger.Warn().Err(err).Str("account_id", acc.ID).Msg("request tracker unavailable")
		token = uuid.NewString()
	} else {
		defer func() {
			if err := o.deps.Tracker.End(context.WithoutCancel(ctx), acc.ID, uiContext, token); err != nil {
				o.logger.Warn().Err(err).Str("request_id", token).Msg("release request token")
			}
		}()
	}

	r := &run{
		o:         o,
		acc:       acc,
		uiContext: uiContext,
		token:     token,
		untracked: untracked,
		outcome:   &Outcome{RequestID: token},
		logger:    o.logger.With().Str("account_id", acc.ID).Str("request_id", token).Logger(),
	}
	rec, err := r.execute(ctx, req)
	r.outcome.Record = rec
	return r.outcome, err
}

func (r *run) execute(ctx context.Context, req domain.RedesignRequest) (*domain.RedesignRecord, error) {
	basePrompt := BuildPrompt(req.Styles, req.AllowStructuralChanges, req.ClimateZone, req.LockAspectRatio, req.Density)
	prompt := basePrompt

	var lastErr error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		r.outcome.Attempts = attempt
		if r.superseded(ctx) {
			return nil, r.supersede()
		}
		if attempt > 1 {
			r.emit(ctx, StateRetrying, attempt, fmt.Sprintf("Retry %d of %d: the last design didn't pass review, generating a new one", attempt-1, MaxRetries-1))
		}

		generated, validation, err := r.attempt(ctx, req, prompt, attempt)
		if err != nil {
			if ctx.Err() != nil {
				r.emit(ctx, StateFailed, attempt, "The request was cancelled.")
				return nil, domain.NewError(domain.KindUnclassified, "request cancelled", ctx.Err())
			}
			r.logger.Warn().Err(err).Int("attempt", attempt).Str("kind", string(domain.KindOf(err))).Msg("redesign attempt failed")
			lastErr = err
			if domain.IsKind(err, domain.KindValidationFailed) {
				prompt = WithFeedback(basePrompt, validation.Reasons)
			}
			continue
		}

		if r.superseded(ctx) {
			return nil, r.supersede()
		}

		r.emit(ctx, StatePersisting, attempt, "Saving your redesign.")
		rec, err := r.o.deps.Persister.Persist(ctx, r.acc, req.SourceImage, generated.Image, generated.Catalog, req)
		if err != nil {
			r.logger.Error().Err(err).Msg("persist redesign")
			r.emit(ctx, StateFailed, attempt, domain.UserMessage(err))
			if domain.KindOf(err) == domain.KindUnclassified {
				err = domain.NewError(domain.KindUnclassified, "persist redesign", err)
			}
			return nil, err
		}
		r.outcome.Validation = validation
		r.emit(ctx, StateSuccess, attempt, "Your redesign is ready.")
		r.o.deps.Notifier.Completed(ctx, r.acc, rec)
		return rec, nil
	}

	final := classify(lastErr)
	r.emit(ctx, StateFailed, MaxRetries, domain.UserMessage(final))
	return nil, final
}

// attempt runs one generate plus validate pass under the attempt timeout.
func (r *run) attempt(ctx context.Context, req domain.RedesignRequest, prompt string, attempt int) (*domain.GenerationResult, domain.ValidationResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.o.attemptTimeout)
	defer cancel()

	r.emit(ctx, StateGenerating, attempt, fmt.Sprintf("Generating design (attempt %d of %d).", attempt, MaxRetries))
	generated, err := r.o.deps.Generator.Generate(attemptCtx, req.SourceImage, prompt)
	if err != nil {
		return nil, domain.ValidationResult{}, timeoutAware(attemptCtx, err)
	}
	if generated == nil || len(generated.Image.Data) == 0 {
		return nil, domain.ValidationResult{}, domain.NewError(domain.KindGenerationEmpty, "no image returned", nil)
	}
	generated.Catalog = generated.Catalog.Normalized()

	if r.superseded(ctx) {
		return nil, domain.ValidationResult{}, r.supersede()
	}

	r.emit(ctx, StateValidating, attempt, "Checking the design against your selections.")
	validation, err := r.o.deps.Validator.Validate(attemptCtx, req.SourceImage, generated.Image, req)
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		// A deadline is a timeout, not a validator outage.
		return nil, domain.ValidationResult{}, domain.NewError(domain.KindUnclassified, "attempt timed out", attemptCtx.Err())
	}
	if err != nil {
		// Validator outages never block a redesign.
		r.logger.Warn().Err(err).Str("kind", string(domain.KindValidatorUnavailable)).Msg("validator failed open")
		validation = domain.AllPass()
	}
	if !validation.OverallPass() {
		msg := "design did not pass validation"
		if len(validation.Reasons) > 0 {
			msg = strings.Join(validation.Reasons, "; ")
		}
		return nil, validation, domain.NewError(domain.KindValidationFailed, msg, nil)
	}
	return generated, validation, nil
}

func timeoutAware(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewError(domain.KindUnclassified, "attempt timed out", err)
	}
	return err
}

// classify maps the last attempt error to the error returned to callers.
func classify(lastErr error) error {
	switch domain.KindOf(lastErr) {
	case domain.KindValidationFailed, domain.KindGenerationBlocked, domain.KindSuperseded:
		return lastErr
	case domain.KindUnclassified:
		var de *domain.Error
		if errors.As(lastErr, &de) {
			return de
		}
	}
	return domain.NewError(domain.KindUnclassified, "redesign failed", lastErr)
}

// superseded reports whether a newer request took over. Runs whose token
// was never registered cannot be superseded.
func (r *run) superseded(ctx context.Context) bool {
	if r.untracked {
		return false
	}
	current, err := r.o.deps.Tracker.IsCurrent(ctx, r.acc.ID, r.uiContext, r.token)
	if err != nil {
		r.logger.Warn().Err(err).Msg("request tracker lookup failed")
		return false
	}
	return !current
}

func (r *run) supersede() error {
	r.logger.Info().Msg("redesign superseded by a newer request")
	return domain.NewError(domain.KindSuperseded, "superseded by a newer request", nil)
}

// emit drops events of superseded runs.
func (r *run) emit(ctx context.Context, state State, attempt int, msg string) {
	if state != StateSuperseded && r.superseded(ctx) {
		return
	}
	ev := domain.ProgressEvent{
		RequestID:   r.token,
		AccountID:   r.acc.ID,
		State:       string(state),
		Attempt:     attempt,
		MaxAttempts: MaxRetries,
		Message:     msg,
		At:          r.o.now().UTC(),
	}
	r.outcome.Events = append(r.outcome.Events, ev)
	r.o.deps.Notifier.Progress(ctx, ev)
}

// WithFeedback appends the validator's reasons to prompt for the next
// attempt.
func WithFeedback(prompt string, reasons []string) string {
	cleaned := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		if reason = strings.TrimSpace(reason); reason != "" {
			cleaned = append(cleaned, "- "+reason)
		}
	}
	if len(cleaned) == 0 {
		return prompt
	}
	return prompt + "\n\nA previous attempt was rejected for these reasons. Fix them in this attempt:\n" + strings.Join(cleaned, "\n")
}

type noopTracker struct{}

func (noopTracker) Begin(context.Context, string, string) (string, error) {
	return uuid.NewString(), nil
}
func (noopTracker) IsCurrent(context.Context, string, string, string) (bool, error) { return true, nil }
func (noopTracker) End(context.Context, string, string, string) error { return nil }

type noopNotifier struct{}

func (noopNotifier) Progress(context.Context, domain.ProgressEvent) {}
func (noopNotifier) Completed(context.Context, domain.Account, *domain.RedesignRecord) {}
func (noopNotifier) LimitReached(context.Context, domain.Account, domain.LimitStatus) {}
