package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/ecocycle/backend/internal/app"
	"github.com/vanshika/ecocycle/backend/internal/config"
	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/logging"
	"github.com/vanshika/ecocycle/backend/internal/service"
)

// backendFunc opens the backend for one command invocation. Logs go to
// logOut so command output stays machine readable.
type backendFunc func(ctx context.Context, logOut io.Writer) (*app.App, error)

// errNoDatabase is returned when rewardctl would otherwise fall back to an
// empty in-memory store.
var errNoDatabase = errors.New("DATABASE_URL is required for rewardctl")

func defaultBackend(ctx context.Context, logOut io.Writer) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return openConfigured(ctx, logOut, cfg)
}

func openConfigured(ctx context.Context, logOut io.Writer, cfg config.Config) (*app.App, error) {
	if cfg.Database.URL == "" {
		return nil, errNoDatabase
	}
	logger := logging.NewWithWriter(logOut, cfg.Logging).With("component", "rewardctl")
	return app.Build(ctx, logger, cfg, app.Options{})
}

type cli struct {
	open   backendFunc
	out    io.Writer
	logOut io.Writer
}

func newRootCmd(open backendFunc, out, logOut io.Writer) *cobra.Command {
	c := &cli{open: open, out: out, logOut: logOut}

	root := &cobra.Command{
		Use:   "rewardctl",
		Short: "Inspect and maintain the recycling reward ledger",
		Long: `rewardctl reads the transaction log and reward accounts directly from the
configured store (DATABASE_URL).

Available subcommands:
  balance      - Show the derived balance and cached account of a user
  transactions - List a user's ledger entries, newest first
  rebuild      - Re-derive cached reward accounts from the log
  leaderboard  - Show the highest point balances
  watch        - Stream a user's unread notifications`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(logOut)

	root.AddCommand(
		c.balanceCmd(),
		c.transactionsCmd(),
		c.rebuildCmd(),
		c.leaderboardCmd(),
		c.watchCmd(),
	)
	return root
}

// withBackend opens the backend, runs fn, and closes it again.
func (c *cli) withBackend(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := c.open(ctx, c.logOut)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(ctx, a)
}

func (c *cli) lookup(ctx context.Context, a *app.App, email string) (domain.User, error) {
	if email == "" {
		return domain.User{}, fmt.Errorf("--email is required")
	}
	user, err := a.Users.Lookup(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup %s: %w", email, err)
	}
	return user, nil
}

func (c *cli) balanceCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the derived balance and cached account of a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, a *app.App) error {
				user, err := c.lookup(ctx, a, email)
				if err != nil {
					return err
				}
				balance, err := a.Ledger.ComputeBalance(ctx, user.ID)
				if err != nil {
					return err
				}
				account, err := a.Ledger.Account(ctx, user.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "user:    %s (%s)\n", user.Name, user.Email)
				fmt.Fprintf(c.out, "balance: %d\n", balance)
				fmt.Fprintf(c.out, "cached:  %d points, level %d\n", account.Points, account.Level)
				if balance != account.Points {
					fmt.Fprintln(c.out, "warning: cached points differ from the log; run 'rewardctl rebuild'")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	return cmd
}

func (c *cli) transactionsCmd() *cobra.Command {
	var (
		email string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List a user's ledger entries, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, a *app.App) error {
				user, err := c.lookup(ctx, a, email)
				if err != nil {
					return err
				}
				txs, err := a.Ledger.Transactions(ctx, user.ID, limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DATE\tKIND\tAMOUNT\tDESCRIPTION")
				for _, tx := range txs {
					fmt.Fprintf(tw, "%s\t%s\t%+d\t%s\n", tx.CreatedAt.UTC().Format(time.RFC3339), tx.Kind, tx.Signed(), tx.Description)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show (0 for all)")
	return cmd
}

func (c *cli) rebuildCmd() *cobra.Command {
	var (
		email       string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Re-derive cached reward accounts from the transaction log",
		Long: `Re-derive cached reward accounts from the transaction log.

With --email only that user's account is rebuilt; otherwise every user is
processed with --concurrency workers.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, a *app.App) error {
				if email != "" {
					user, err := c.lookup(ctx, a, email)
					if err != nil {
						return err
					}
					account, err := a.Ledger.RebuildAccount(ctx, user.ID)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.out, "rebuilt %s: %d points, level %d\n", user.Email, account.Points, account.Level)
					return nil
				}
				count, err := a.Ledger.RebuildAll(ctx, concurrency)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "rebuilt %d accounts\n", count)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "rebuild a single user")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "parallel rebuilds when processing every user")
	return cmd
}

func (c *cli) leaderboardCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the highest point balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, a *app.App) error {
				entries, err := a.Ledger.Leaderboard(ctx, limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RANK\tNAME\tPOINTS\tLEVEL")
				for i, e := range entries {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", i+1, e.UserName, e.Points, e.Level)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of entries (0 for all)")
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	var (
		email    string
		interval time.Duration
		markRead bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream a user's unread notifications until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, a *app.App) error {
				user, err := c.lookup(ctx, a, email)
				if err != nil {
					return err
				}
				if interval <= 0 {
					interval = a.PollInterval()
				}
				seen := make(map[string]bool)
				poller := service.NewPoller(a.Notifications, interval, a.Logger)
				poller.Run(ctx, user.ID, func(items []domain.Notification) {
					for _, n := range items {
						if seen[n.ID] {
							continue
						}
						seen[n.ID] = true
						fmt.Fprintf(c.out, "%s  %s\n", n.CreatedAt.UTC().Format(time.RFC3339), n.Message)
						if markRead {
							if err := a.Notifications.MarkRead(ctx, user.ID, n.ID); err != nil {
								a.Logger.Warn("mark notification read", "id", n.ID, "error", err)
							}
						}
					}
				})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (defaults to the policy value)")
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "mark notifications read once printed")
	return cmd
}
