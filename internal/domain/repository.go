package domain

import (
	"context"
	"time"
)

// LedgerRepository persists usage ledger entries keyed by account id.
type LedgerRepository interface {
	// GetLedger returns ErrNotFound when the account has no entry yet.
	GetLedger(ctx context.Context, accountID string) (*LedgerEntry, error)
	// SaveLedger creates or replaces the entry.
	SaveLedger(ctx context.Context, entry *LedgerEntry) error
	// IncrementUsage adds one to Used and returns the new value.
	IncrementUsage(ctx context.Context, accountID string) (int, error)
}

// RedesignRepository persists redesign records.
type RedesignRepository interface {
	CreateRedesign(ctx context.Context, rec *RedesignRecord) error
	GetRedesign(ctx context.Context, accountID, id string) (*RedesignRecord, error)
	// ListRedesigns orders by pinned desc, created_at desc.
	ListRedesigns(ctx context.Context, accountID string, limit, offset int) ([]RedesignRecord, error)
	SetPinned(ctx context.Context, accountID, id string, pinned bool) (*RedesignRecord, error)
	DeleteRedesign(ctx context.Context, accountID, id string) error
}

// AccountRepository stores the plan of each known account.
type AccountRepository interface {
	UpsertAccount(ctx context.Context, acc Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	SetAccountPlan(ctx context.Context, id string, plan Plan) error
}

// WebhookEventRepository records processed billing webhook events.
type WebhookEventRepository interface {
	// MarkProcessed returns false when eventID was already recorded.
	MarkProcessed(ctx context.Context, eventID, eventType string, receivedAt time.Time) (bool, error)
	// UnmarkProcessed releases eventID so a redelivery is applied again.
	UnmarkProcessed(ctx context.Context, eventID string) error
}
