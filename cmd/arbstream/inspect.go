package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yourusername/arbstream/internal/cache"
	"github.com/yourusername/arbstream/internal/database"
	"github.com/yourusername/arbstream/internal/models"
	"github.com/yourusername/arbstream/internal/repository"
)

var (
	historyLimit int
	historyID    string
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the snapshot last published to Redis",
	RunE:  runLatest,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print opportunities recorded in the Postgres history",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of recent publications to show")
	historyCmd.Flags().StringVar(&historyID, "id", "", "Show every publication of one opportunity")
}

func runLatest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := setup(ctx); err != nil {
		return err
	}
	if !cfg.Redis.Enabled {
		return errors.New("redis is not enabled in the configuration")
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	out := cmd.OutOrStdout()
	snap, err := cache.NewRedisSnapshotPublisher(rdb, cfg.Redis.Key, cfg.Redis.Channel, appLog).Latest(ctx)
	if errors.Is(err, cache.ErrNoSnapshot) {
		fmt.Fprintln(out, "No snapshot published yet")
		return nil
	}
	if err != nil {
		return err
	}

	printOpportunities(out, snap)
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := setup(ctx); err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return errors.New("database is not enabled in the configuration")
	}

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db, appLog)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var records []repository.HistoryRecord
	if historyID != "" {
		id, err := uuid.Parse(historyID)
		if err != nil {
			return fmt.Errorf("invalid opportunity id %q: %w", historyID, err)
		}
		records, err = repos.History.GetByOpportunityID(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			fmt.Fprintf(out, "No history for opportunity %s\n", id)
			return nil
		}
		if err != nil {
			return err
		}
	} else {
		records, err = repos.History.Recent(ctx, historyLimit)
		if err != nil {
			return err
		}
	}

	printHistory(out, records)
	return nil
}

func printHistory(out io.Writer, records []repository.HistoryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No opportunity history recorded")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PUBLISHED\tVERSION\tID\tEVENT\tMARKET\tMARGIN\tPROFIT")
	for _, rec := range records {
		o := rec.Opportunity
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%.2f%%\t%.2f\n",
			rec.PublishedAt.Format(time.RFC3339), rec.SnapshotVersion, o.ID, o.EventName, o.MarketType, o.Margin, o.GuaranteedProfit)
	}
	_ = w.Flush()
}
