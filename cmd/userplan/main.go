package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"yardcraft/internal/adapter/repo"
	"yardcraft/internal/domain"
	"yardcraft/internal/infra"
	"yardcraft/internal/ledger"
)

type planLedger interface {
	CheckLimit(ctx context.Context, acc domain.Account) (domain.LimitStatus, error)
	SetPlan(ctx context.Context, accountID string, plan domain.Plan, resetUsage bool) error
}

type env struct {
	accounts domain.AccountRepository
	ledger   planLedger
}

type opener func(ctx context.Context) (*env, func(), error)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(openDatabase).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDatabase(ctx context.Context) (*env, func(), error) {
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		return nil, nil, errors.New("DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect database: %w", err)
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "userplan").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	return &env{
		accounts: repo.NewAccountRepository(runner),
		ledger:   ledger.New(repo.NewLedgerRepository(runner), logger),
	}, pool.Close, nil
}

func newRootCmd(open opener) *cobra.Command {
	var (
		idFlag    string
		emailFlag string
	)

	root := &cobra.Command{
		Use:           "userplan",
		Short:         "Inspect and change account plans and monthly usage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&idFlag, "id", "", "account id")
	root.PersistentFlags().StringVar(&emailFlag, "email", "", "account email")

	withAccount := func(cmd *cobra.Command, fn func(ctx context.Context, e *env, acc *domain.Account) error) error {
		id, email := strings.TrimSpace(idFlag), strings.TrimSpace(emailFlag)
		if id == "" && email == "" {
			return errors.New("either --id or --email must be provided")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		e, closeFn, err := open(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		var acc *domain.Account
		if id != "" {
			acc, err = e.accounts.GetAccount(ctx, id)
		} else {
			acc, err = e.accounts.GetAccountByEmail(ctx, email)
		}
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		return fn(ctx, e, acc)
	}

	var (
		planFlag  string
		resetFlag bool
	)
	setPlan := &cobra.Command{
		Use:   "set-plan",
		Short: "Assign a plan and sync the monthly limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := domain.ParsePlan(planFlag)
			if err != nil {
				return fmt.Errorf("unsupported plan %q", planFlag)
			}
			return withAccount(cmd, func(ctx context.Context, e *env, acc *domain.Account) error {
				if err := e.accounts.SetAccountPlan(ctx, acc.ID, plan); err != nil {
					return fmt.Errorf("failed to update plan: %w", err)
				}
				if err := e.ledger.SetPlan(ctx, acc.ID, plan, resetFlag); err != nil {
					return fmt.Errorf("failed to update ledger: %w", err)
				}
				acc.Plan = plan
				return printStatus(ctx, cmd.OutOrStdout(), e, *acc)
			})
		},
	}
	setPlan.Flags().StringVar(&planFlag, "plan", string(domain.PlanPro), "plan to assign (free, pro, business)")
	setPlan.Flags().BoolVar(&resetFlag, "reset-usage", false, "start a fresh usage window")

	resetUsage := &cobra.Command{
		Use:   "reset-usage",
		Short: "Zero the usage counter and start a new window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccount(cmd, func(ctx context.Context, e *env, acc *domain.Account) error {
				if err := e.ledger.SetPlan(ctx, acc.ID, acc.Plan, true); err != nil {
					return fmt.Errorf("failed to reset usage: %w", err)
				}
				return printStatus(ctx, cmd.OutOrStdout(), e, *acc)
			})
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the plan and current usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccount(cmd, func(ctx context.Context, e *env, acc *domain.Account) error {
				return printStatus(ctx, cmd.OutOrStdout(), e, *acc)
			})
		},
	}

	root.AddCommand(setPlan, resetUsage, show)
	return root
}

func printStatus(ctx context.Context, w io.Writer, e *env, acc domain.Account) error {
	status, err := e.ledger.CheckLimit(ctx, acc)
	if err != nil {
		return fmt.Errorf("failed to load usage: %w", err)
	}
	fmt.Fprintf(w, "Account %s (%s) is on plan %s\n", acc.ID, acc.Email, acc.Plan)
	if status.IsUnlimited {
		fmt.Fprintf(w, "used=%d limit=unlimited\n", status.Used)
	} else {
		fmt.Fprintf(w, "used=%d limit=%d remaining=%d\n", status.Used, status.Limit, status.Remaining)
	}
	fmt.Fprintf(w, "resets_at=%s\n", status.ResetsAt.Format(time.RFC3339))
	return nil
}
