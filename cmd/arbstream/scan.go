package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/arbstream/internal/datasource"
	"github.com/yourusername/arbstream/internal/execution"
	"github.com/yourusername/arbstream/internal/models"
	"github.com/yourusername/arbstream/internal/scanner"
	"github.com/yourusername/arbstream/internal/store"
)

var (
	paperExecute bool
	jsonOutput   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan, print the opportunities and exit",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&paperExecute, "paper-execute", false, "Place every published stake plan with the paper executor")
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the snapshot as JSON")
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := setup(ctx); err != nil {
		return err
	}

	sources, err := datasource.NewFactory(cfg, appLog).NewSources()
	if err != nil {
		return fmt.Errorf("failed to create sources: %w", err)
	}

	sc := scanner.New(scanner.ConfigFrom(cfg), sources, store.New(), appLog)
	defer sc.Stop()

	snap, err := sc.RunOnce(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return err
		}
	} else {
		printOpportunities(out, snap)
	}

	if paperExecute {
		return paperTrade(ctx, out, snap.Opportunities)
	}
	return nil
}

func printOpportunities(out io.Writer, snap *store.Snapshot) {
	if len(snap.Opportunities) == 0 {
		fmt.Fprintln(out, "No arbitrage opportunities found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EVENT\tMARKET\tMARGIN\tPROFIT\tINVEST\tROI\tLEGS")
	for _, o := range snap.Opportunities {
		fmt.Fprintf(w, "%s\t%s\t%.2f%%\t%.2f\t%.0f\t%.2f%%\t%s\n",
			o.EventName, o.MarketType, o.Margin, o.GuaranteedProfit, o.TotalInvestment, o.ROI, formatLegs(o.Legs))
	}
	_ = w.Flush()

	if snap.LastScanTime != nil {
		fmt.Fprintf(out, "\n%d opportunities as of %s\n", len(snap.Opportunities), snap.LastScanTime.Format(time.RFC3339))
	}
}

func formatLegs(legs []models.Leg) string {
	parts := make([]string, len(legs))
	for i, leg := range legs {
		parts[i] = fmt.Sprintf("%s %s @%.2f x%d", leg.Bookmaker, leg.Market, leg.Odds, leg.Stake)
	}
	return strings.Join(parts, ", ")
}

func paperTrade(ctx context.Context, out io.Writer, opps []models.Opportunity) error {
	executor := execution.NewPaperExecutor(appLog)
	runner := execution.NewPlanRunner(executor, appLog)

	incomplete := 0
	for _, opp := range opps {
		result, err := runner.Execute(ctx, opp)
		if err != nil {
			appLog.WithError(err).WithField("opportunity_id", opp.ID.String()).Warn("Stake plan only partially placed")
		}
		if result != nil && !result.Complete() {
			incomplete++
		}
	}

	stats := executor.Stats()
	fmt.Fprintf(out, "\nPaper execution: %d bets placed, %d rejected, %d incomplete plans\n",
		stats.Placed, stats.Rejected, incomplete)
	return nil
}
