package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"yardcraft/internal/domain"
	"yardcraft/internal/infra"
	"yardcraft/internal/sqlinline"
)

// AccountRepositoryPG implements domain.AccountRepository backed by PostgreSQL.
type AccountRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAccountRepository creates a new AccountRepositoryPG.
func NewAccountRepository(sql infra.SQLExecutor) *AccountRepositoryPG {
	return &AccountRepositoryPG{sql: sql}
}

// UpsertAccount inserts the account or refreshes its email.
func (r *AccountRepositoryPG) UpsertAccount(ctx context.Context, acc domain.Account) error {
	plan := acc.Plan
	if plan == "" {
		plan = domain.PlanFree
	}
	if _, err := r.sql.Exec(ctx, sqlinline.QUpsertAccount, acc.ID, acc.Email, string(plan)); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

// GetAccount fetches an account by id.
func (r *AccountRepositoryPG) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(r.sql.QueryRow(ctx, sqlinline.QSelectAccountByID, id))
}

// GetAccountByEmail fetches an account by case-insensitive email.
func (r *AccountRepositoryPG) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return scanAccount(r.sql.QueryRow(ctx, sqlinline.QSelectAccountByEmail, email))
}

// SetAccountPlan stores a new plan for the account.
func (r *AccountRepositoryPG) SetAccountPlan(ctx context.Context, id string, plan domain.Plan) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateAccountPlan, id, string(plan))
	if err != nil {
		return fmt.Errorf("update account plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	var plan string
	if err := row.Scan(&acc.ID, &acc.Email, &plan); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	acc.Plan = domain.Plan(plan)
	return &acc, nil
}

var _ domain.AccountRepository = (*AccountRepositoryPG)(nil)
