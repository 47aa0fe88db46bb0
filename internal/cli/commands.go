package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"storefront_v1_202610/internal/app"
)

// ==================== automerge ====================

func newAutoMergeCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "automerge",
		Short: "Merge same-name products of a category into variant groups",
		Long:  "Groups active products by category and base name, then merges every bucket with at least two distinct variant labels. Safe to run repeatedly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, open, func(ctx context.Context, deps *app.Dependencies) error {
				report, err := deps.Services.Variant.AutoMergeVariants(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "candidates: %d\nmerged: %d\nskipped: %d\nwrites: %d\n",
					report.Candidates, len(report.Merged), report.Skipped, report.Writes)
				for _, g := range report.Merged {
					fmt.Fprintf(out, "  group %d: %v\n", g.GroupID, g.MemberIDs)
				}
				return nil
			})
		},
	}
}

// ==================== rates ====================

func newRatesCmd(open Opener) *cobra.Command {
	ratesCmd := &cobra.Command{
		Use:   "rates",
		Short: "Exchange rate maintenance",
	}

	var onlyStale bool
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch exchange rates for the current base currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, open, func(ctx context.Context, deps *app.Dependencies) error {
				currency := deps.Services.Currency
				if onlyStale {
					stale, err := currency.RatesStale(ctx, time.Now())
					if err != nil {
						return err
					}
					if !stale {
						fmt.Fprintln(cmd.OutOrStdout(), "rates are fresh, nothing to do")
						return nil
					}
				}
				count, err := currency.RefreshRates(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d rates\n", count)
				return nil
			})
		},
	}
	refreshCmd.Flags().BoolVar(&onlyStale, "if-stale", false, "refresh only when rates are older than the configured refresh days")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the base currency and current rate table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, open, func(ctx context.Context, deps *app.Dependencies) error {
				base, rates, err := deps.Services.Currency.Rates(ctx)
				if err != nil {
					return err
				}
				table := make(map[string]string, len(rates))
				for code, rate := range rates {
					table[code] = rate.String()
				}
				return printYAML(cmd.OutOrStdout(), map[string]interface{}{
					"base":  base,
					"rates": table,
				})
			})
		},
	}

	ratesCmd.AddCommand(refreshCmd, showCmd)
	return ratesCmd
}

// ==================== consolidate ====================

func newConsolidateCmd(open Opener) *cobra.Command {
	var (
		categoryID int64
		prefer     string
	)
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge duplicate attributes (same key) across a category tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if categoryID <= 0 {
				return fmt.Errorf("--category is required")
			}
			return withDeps(cmd, open, func(ctx context.Context, deps *app.Dependencies) error {
				svc := deps.Services.Attribute
				if prefer == "" {
					prefer = svc.CanonicalSlug
				}
				report, err := svc.ConsolidateAttributes(ctx, categoryID, prefer)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, k := range report.Keys {
					fmt.Fprintf(out, "merged %-20s -> attribute %d (%d values moved)\n", k.Key, k.CanonicalID, k.MovedValues)
				}
				for _, c := range report.Conflicts {
					fmt.Fprintf(out, "conflict %s\n", c)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&categoryID, "category", 0, "root category id of the tree to consolidate")
	cmd.Flags().StringVar(&prefer, "prefer", "", "slug of the category that should own merged attributes")
	return cmd
}

// ==================== translations ====================

func newTranslationsCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "translations",
		Short: "Translation provider call statistics",
	}

	var days int
	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "Summarize translation calls per provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, open, func(ctx context.Context, deps *app.Dependencies) error {
				since := time.Now().AddDate(0, 0, -days)
				stats, err := deps.Services.Audit.Usage(ctx, since)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(stats) == 0 {
					fmt.Fprintln(out, "no translation calls recorded")
					return nil
				}
				for _, s := range stats {
					fmt.Fprintf(out, "%-8s calls=%d chars=%d failed=%d avg_ms=%.0f tokens_in=%d tokens_out=%d\n",
						s.Provider, s.TotalCalls, s.TotalChars, s.FailedCount, s.AvgDurationMs,
						s.TotalInputTokens, s.TotalOutputTokens)
				}
				return nil
			})
		},
	}
	usageCmd.Flags().IntVar(&days, "days", 7, "look-back window in days")

	root.AddCommand(usageCmd)
	return root
}
