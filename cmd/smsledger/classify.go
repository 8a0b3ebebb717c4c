package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/deferred"
	"github.com/Veraticus/smsledger/internal/engine"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify stored messages and reconcile transactions",
		Long: `Run every message received since --since through the sender gate and the
extraction rules, update message statuses and reconcile the resulting
transactions into the ledger. Reconciliation runs after the summary is printed.`,
		RunE: runClassify,
	}

	cmd.Flags().String("since", "", "only classify messages received on or after this date (YYYY-MM-DD, default: start of month)")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, store, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sinceFlag, _ := cmd.Flags().GetString("since")
	since, err := parseSince(sinceFlag, time.Now())
	if err != nil {
		return err
	}

	messages, err := store.ListMessagesSince(ctx, cfg.Account, since)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}

	queue := deferred.NewQueue()
	classifier := newClassifier(ctx, cfg, store, queue)

	stats, err := classifier.Classify(ctx, cfg.Account, messages)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	printClassifyStats(cmd, stats)

	if ran := queue.Drain(ctx); ran > 0 {
		slog.Debug("Deferred work finished", "tasks", ran)
	}
	return nil
}

func printClassifyStats(cmd *cobra.Command, stats engine.ClassifyStats) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle("Classification"))
	fmt.Fprintf(out, "  Matched:      %d\n", stats.Matched)
	fmt.Fprintf(out, "  Rejected:     %d\n", stats.Rejected)
	fmt.Fprintf(out, "  Unprocessed:  %d\n", stats.Unprocessed)
	fmt.Fprintf(out, "  Skipped:      %d\n", stats.Skipped)
	fmt.Fprintf(out, "  Written:      %d\n", stats.Written)
	if stats.Transactions > 0 {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%d transactions queued for reconciliation", stats.Transactions)))
	}
}
