package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/config"
	"github.com/Veraticus/smsledger/internal/mail"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger to Google Sheets",
		Long: `Write a category summary and the transaction list for the selected period to
a Google Sheets tab, replacing its contents. Requires sheets.enabled and a token
from 'smsledger auth' that includes spreadsheet access.`,
		RunE: runExport,
	}

	cmd.Flags().String("since", "", "first day to export (YYYY-MM-DD, default: start of month)")
	cmd.Flags().String("until", "", "last day to export (YYYY-MM-DD, default: today)")
	cmd.Flags().String("spreadsheet", "", "spreadsheet ID (overrides sheets.spreadsheet_id)")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, store, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if !cfg.Sheets.Enabled {
		return fmt.Errorf("sheets export is disabled, set sheets.enabled and rerun 'smsledger auth'")
	}

	now := time.Now()
	sinceFlag, _ := cmd.Flags().GetString("since")
	since, err := parseSince(sinceFlag, now)
	if err != nil {
		return err
	}
	until := now
	if untilFlag, _ := cmd.Flags().GetString("until"); untilFlag != "" {
		if until, err = parseSince(untilFlag, now); err != nil {
			return err
		}
	}
	if until.Before(since) {
		return fmt.Errorf("--until %s is before --since %s", until.Format(time.DateOnly), since.Format(time.DateOnly))
	}

	txns, err := store.ListTransactions(ctx, cfg.Account, since)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}
	report := sheets.BuildReport(cfg.Account, since, until, transactionsBefore(txns, endOfDay(until)))

	writerCfg := sheetsConfig(cfg)
	if id, _ := cmd.Flags().GetString("spreadsheet"); id != "" {
		writerCfg.SpreadsheetID = id
	}

	oauthCfg, err := mail.LoadOAuthConfig(cfg.Gmail.CredentialsPath, googleScopes(cfg)...)
	if err != nil {
		return err
	}
	source, err := mail.TokenSource(ctx, oauthCfg, cfg.Gmail.TokenPath)
	if err != nil {
		return err
	}
	svc, err := sheets.NewService(ctx, source)
	if err != nil {
		return err
	}
	writer, err := sheets.NewWriter(svc, writerCfg)
	if err != nil {
		return err
	}

	spreadsheetID, err := writer.Write(ctx, report)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to spreadsheet %s", len(report.Transactions), spreadsheetID)))
	return nil
}

func sheetsConfig(cfg *config.Config) sheets.Config {
	out := sheets.DefaultConfig()
	out.SpreadsheetID = cfg.Sheets.SpreadsheetID
	out.SpreadsheetName = cfg.Sheets.SpreadsheetName
	out.SheetTitle = cfg.Sheets.Tab
	return out
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// transactionsBefore keeps transactions strictly before cutoff.
func transactionsBefore(txns []model.Transaction, cutoff time.Time) []model.Transaction {
	out := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		if txn.Timestamp.Before(cutoff) {
			out = append(out, txn)
		}
	}
	return out
}
