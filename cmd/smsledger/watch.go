package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/config"
	"github.com/Veraticus/smsledger/internal/deferred"
	"github.com/Veraticus/smsledger/internal/engine"
	"github.com/Veraticus/smsledger/internal/storage"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Classify messages on a schedule",
		Long: `Classify new messages periodically according to watch.schedule (a cron
expression or @every interval). Reconciliation runs on a bounded worker pool
and is allowed to finish when the command is interrupted.`,
		RunE: runWatch,
	}

	cmd.Flags().String("schedule", "", "override watch.schedule")
	cmd.Flags().Bool("now", true, "run once immediately before waiting for the schedule")

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, store, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	schedule := cfg.Watch.Schedule
	if override, _ := cmd.Flags().GetString("schedule"); override != "" {
		schedule = override
	}

	// Deferred work outlives the run that submitted it, so it gets its own
	// context and is waited for on shutdown.
	workers := deferred.NewPool(context.WithoutCancel(ctx), cfg.Workers)
	defer workers.Close()

	classifier := newClassifier(ctx, cfg, store, workers)
	job := func() { runScheduled(ctx, cfg, store, classifier) }

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Watching account %s (%s)", cfg.Account, schedule)))

	if runNow, _ := cmd.Flags().GetBool("now"); runNow {
		job()
	}

	scheduler.Start()
	<-ctx.Done()

	slog.Info("Stopping watcher")
	<-scheduler.Stop().Done()
	return nil
}

func runScheduled(ctx context.Context, cfg *config.Config, store *storage.CachedStorage, classifier *engine.Classifier) {
	if ctx.Err() != nil {
		return
	}

	since := watchSince(time.Now(), cfg.Watch.Lookback)
	messages, err := store.ListMessagesSince(ctx, cfg.Account, since)
	if err != nil {
		slog.Error("Failed to load messages", "error", err)
		return
	}

	stats, err := classifier.Classify(ctx, cfg.Account, messages)
	if err != nil {
		slog.Error("Scheduled classification failed", "error", err)
		return
	}

	slog.Info("Scheduled classification finished",
		"messages", len(messages),
		"matched", stats.Matched,
		"rejected", stats.Rejected,
		"unprocessed", stats.Unprocessed,
		"written", stats.Written)
}

// watchSince returns the start of the window a scheduled run re-reads.
func watchSince(now time.Time, lookback time.Duration) time.Time {
	if lookback <= 0 {
		return startOfMonth(now)
	}
	return now.Add(-lookback)
}
