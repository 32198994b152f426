package domain

import (
	"strings"
	"time"
)

// Plan enumerates billing plans.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

const (
	FreeMonthlyLimit = 3
	ProMonthlyLimit  = 50

	// UnlimitedRemaining is reported as the remaining count for unlimited plans.
	UnlimitedRemaining = 999999
)

// ParsePlan normalizes a plan name coming from a token, CLI flag or webhook.
func ParsePlan(raw string) (Plan, error) {
	switch Plan(strings.ToLower(strings.TrimSpace(raw))) {
	case PlanFree, "":
		return PlanFree, nil
	case PlanPro:
		return PlanPro, nil
	case PlanBusiness:
		return PlanBusiness, nil
	default:
		return "", ErrInvalidPlan
	}
}

// MonthlyLimit returns the plan-derived redesign allowance.
func (p Plan) MonthlyLimit() int {
	switch p {
	case PlanPro:
		return ProMonthlyLimit
	case PlanBusiness:
		return UnlimitedRemaining
	default:
		return FreeMonthlyLimit
	}
}

// IsUnlimited reports whether the plan bypasses the monthly limit.
func (p Plan) IsUnlimited() bool {
	return p == PlanBusiness
}

// Account is the explicit identity passed into every workflow call.
type Account struct {
	ID    string
	Email string
	Plan  Plan
}

// LedgerEntry is the persisted monthly usage counter of an account.
type LedgerEntry struct {
	AccountID   string
	Used        int
	Limit       int
	PeriodStart time.Time
	UpdatedAt   time.Time
}

// LimitStatus is the read model returned by the usage ledger.
type LimitStatus struct {
	Used            int       `json:"used"`
	Limit           int       `json:"limit"`
	Remaining       int       `json:"remaining"`
	HasReachedLimit bool      `json:"has_reached_limit"`
	IsUnlimited     bool      `json:"is_unlimited"`
	PeriodStart     time.Time `json:"period_start"`
	ResetsAt        time.Time `json:"resets_at"`
}
