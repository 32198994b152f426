package repo

import (
	"context"
	"fmt"

	"yardcraft/internal/domain"
	"yardcraft/internal/infra"
	"yardcraft/internal/sqlinline"
)

// LedgerRepositoryPG implements domain.LedgerRepository backed by PostgreSQL.
type LedgerRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewLedgerRepository creates a new LedgerRepositoryPG.
func NewLedgerRepository(sql infra.SQLExecutor) *LedgerRepositoryPG {
	return &LedgerRepositoryPG{sql: sql}
}

// GetLedger loads the usage ledger of an account.
func (r *LedgerRepositoryPG) GetLedger(ctx context.Context, accountID string) (*domain.LedgerEntry, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectLedger, accountID)
	var entry domain.LedgerEntry
	if err := row.Scan(&entry.AccountID, &entry.Used, &entry.Limit, &entry.PeriodStart, &entry.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// SaveLedger creates or replaces the ledger entry.
func (r *LedgerRepositoryPG) SaveLedger(ctx context.Context, entry *domain.LedgerEntry) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QUpsertLedger, entry.AccountID, entry.Used, entry.Limit, entry.PeriodStart); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// IncrementUsage adds one redesign to the ledger and returns the new count.
func (r *LedgerRepositoryPG) IncrementUsage(ctx context.Context, accountID string) (int, error) {
	var used int
	if err := r.sql.QueryRow(ctx, sqlinline.QIncrementLedger, accountID).Scan(&used); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("increment ledger: %w", err)
	}
	return used, nil
}

var _ domain.LedgerRepository = (*LedgerRepositoryPG)(nil)
