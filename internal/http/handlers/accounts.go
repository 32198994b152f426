package handlers

import (
	"context"
	"fmt"

	"yardcraft/internal/domain"
	"yardcraft/internal/middleware"
)

// ResolveAccount registers the token subject on first sight and returns the
// stored account. The stored plan wins over the plan claim once the account
// exists, so billing changes apply before tokens are reissued.
func (a *App) ResolveAccount(ctx context.Context, claims *middleware.TokenClaims) (domain.Account, error) {
	plan, err := domain.ParsePlan(claims.Plan)
	if err != nil {
		plan = domain.PlanFree
	}
	if err := a.Accounts.UpsertAccount(ctx, domain.Account{
		ID:    claims.Subject,
		Email: claims.Email,
		Plan:  plan,
	}); err != nil {
		return domain.Account{}, fmt.Errorf("upsert account: %w", err)
	}

	stored, err := a.Accounts.GetAccount(ctx, claims.Subject)
	if err != nil {
		return domain.Account{}, fmt.Errorf("load account: %w", err)
	}
	return *stored, nil
}
