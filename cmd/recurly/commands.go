package main

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/go-recurly"
)

// collection is a resource the CLI can list and count.
type collection struct {
	list  func(ctx context.Context, c *recurly.Client, f recurly.Filter) iter.Seq2[string, error]
	count func(ctx context.Context, c *recurly.Client, f recurly.Filter) (int, error)
}

var collections = map[string]collection{
	"accounts": {
		list: func(ctx context.Context, c *recurly.Client, f recurly.Filter) iter.Seq2[string, error] {
			return recurly.Map(c.Accounts.List(ctx, f), func(a *recurly.Account) string {
				return strings.Join([]string{a.AccountCode, string(a.State), a.Email}, "\t")
			})
		},
		count: func(ctx context.Context, c *recurly.Client, f recurly.Filter) (int, error) {
			return c.Accounts.Count(ctx, f)
		},
	},
	"subscriptions": {
		list: func(ctx context.Context, c *recurly.Client, f recurly.Filter) iter.Seq2[string, error] {
			return recurly.Map(c.Subscriptions.List(ctx, f), func(s *recurly.Subscription) string {
				return strings.Join([]string{s.UUID, string(s.State), s.Plan.PlanCode, s.AccountCode()}, "\t")
			})
		},
		count: func(ctx context.Context, c *recurly.Client, f recurly.Filter) (int, error) {
			return c.Subscriptions.Count(ctx, f)
		},
	},
	"invoices": {
		list: func(ctx context.Context, c *recurly.Client, f recurly.Filter) iter.Seq2[string, error] {
			return recurly.Map(c.Invoices.List(ctx, f), func(i *recurly.Invoice) string {
				return fmt.Sprintf("%s\t%s\t%d %s", i.Number(), i.State, i.TotalInCents, i.Currency)
			})
		},
		count: func(ctx context.Context, c *recurly.Client, f recurly.Filter) (int, error) {
			return c.Invoices.Count(ctx, f)
		},
	},
	"transactions": {
		list: func(ctx context.Context, c *recurly.Client, f recurly.Filter) iter.Seq2[string, error] {
			return recurly.Map(c.Transactions.List(ctx, f), func(t *recurly.Transaction) string {
				return fmt.Sprintf("%s\t%s\t%s\t%d %s", t.UUID, t.Action, t.Status, t.AmountInCents, t.Currency)
			})
		},
		count: func(ctx context.Context, c *recurly.Client, f recurly.Filter) (int, error) {
			return c.Transactions.Count(ctx, f)
		},
	},
	"plans": {
		list: func(ctx context.Context, c *recurly.Client, f recurly.Filter) iter.Seq2[string, error] {
			return recurly.Map(c.Plans.List(ctx, f), func(p *recurly.Plan) string {
				return strings.Join([]string{p.PlanCode, p.Name}, "\t")
			})
		},
		count: func(ctx context.Context, c *recurly.Client, f recurly.Filter) (int, error) {
			return c.Plans.Count(ctx, f)
		},
	},
	"coupons": {
		list: func(ctx context.Context, c *recurly.Client, f recurly.Filter) iter.Seq2[string, error] {
			return recurly.Map(c.Coupons.List(ctx, f), func(cp *recurly.Coupon) string {
				return strings.Join([]string{cp.CouponCode, cp.State, string(cp.DiscountType)}, "\t")
			})
		},
		count: func(ctx context.Context, c *recurly.Client, f recurly.Filter) (int, error) {
			return c.Coupons.Count(ctx, f)
		},
	},
}

func collectionNames() []string {
	return slices.Sorted(maps.Keys(collections))
}

func lookup(name string) (collection, error) {
	c, ok := collections[name]
	if !ok {
		return collection{}, fmt.Errorf("unknown resource %q, expected one of %s",
			name, strings.Join(collectionNames(), ", "))
	}
	return c, nil
}

// app carries what the subcommands share once the root command has run.
type app struct {
	client *recurly.Client
	debug  bool
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "recurly",
		Short: "Query a Recurly site",
		Long: `recurly lists and counts the records of a Recurly site through the v2 API.

Examples:
  RECURLY_SUBDOMAIN=acme RECURLY_API_KEY=... recurly list accounts --state active
  recurly count subscriptions --state live
  recurly summary`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			level := cfg.level()
			if a.debug {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			a.client, err = recurly.NewClient(cfg.clientOptions(logger)...)
			if err != nil {
				return fmt.Errorf("creating client: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log every API request")

	root.AddCommand(newListCommand(a))
	root.AddCommand(newCountCommand(a))
	root.AddCommand(newSummaryCommand(a))
	return root
}

func newListCommand(a *app) *cobra.Command {
	var (
		state string
		limit int
	)

	cmd := &cobra.Command{
		Use:       "list <resource>",
		Short:     "Print the records of a collection, one per line",
		Args:      cobra.ExactArgs(1),
		ValidArgs: collectionNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookup(args[0])
			if err != nil {
				return err
			}

			rows := c.list(cmd.Context(), a.client, stateFilter(state))
			if limit > 0 {
				rows = recurly.Take(rows, limit)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for row, err := range rows {
				if err != nil {
					_ = w.Flush()
					return err
				}
				fmt.Fprintln(w, row)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Only records in this state")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many records (0 for all)")
	return cmd
}

func newCountCommand(a *app) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:       "count <resource>",
		Short:     "Print the number of records in a collection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: collectionNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookup(args[0])
			if err != nil {
				return err
			}

			n, err := c.count(cmd.Context(), a.client, stateFilter(state))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Only records in this state")
	return cmd
}

func newSummaryCommand(a *app) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count every collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := collectionNames()
			counts := make([]int, len(names))

			g, ctx := errgroup.WithContext(cmd.Context())
			if concurrency > 0 {
				g.SetLimit(concurrency)
			}
			for i, name := range names {
				g.Go(func() error {
					n, err := collections[name].count(ctx, a.client, nil)
					if err != nil {
						return fmt.Errorf("counting %s: %w", name, err)
					}
					counts[i] = n
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for i, name := range names {
				fmt.Fprintf(w, "%s\t%d\n", name, counts[i])
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 3, "Collections counted at once")
	return cmd
}

func stateFilter(state string) recurly.Filter {
	if state == "" {
		return nil
	}
	return recurly.Filter{"state": state}
}
