package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/engine"
	"github.com/Veraticus/smsledger/internal/model"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn"},
		Short:   "Review and edit reconciled transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(ledgerActionCmd("ignore <id>", "Exclude a transaction from the ledger", 1,
		func(cmd *cobra.Command, l *engine.Ledger, account string, args []string) error {
			return l.Ignore(cmd.Context(), account, args[0])
		}))
	cmd.AddCommand(ledgerActionCmd("unignore <id>", "Include a previously ignored transaction", 1,
		func(cmd *cobra.Command, l *engine.Ledger, account string, args []string) error {
			return l.Unignore(cmd.Context(), account, args[0])
		}))
	cmd.AddCommand(ledgerActionCmd("categorize <id> <category>", "Set a transaction's category and remember it for the merchant", 2,
		func(cmd *cobra.Command, l *engine.Ledger, account string, args []string) error {
			return l.Categorize(cmd.Context(), account, args[0], args[1])
		}))
	cmd.AddCommand(ledgerActionCmd("reason <id> <text>", "Attach a note to a transaction", 2,
		func(cmd *cobra.Command, l *engine.Ledger, account string, args []string) error {
			return l.AddReason(cmd.Context(), account, args[0], args[1])
		}))

	return cmd
}

type ledgerAction func(cmd *cobra.Command, l *engine.Ledger, account string, args []string) error

func ledgerActionCmd(use, short string, nargs int, action ledgerAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ledger := engine.NewLedger(store, store, store)
			if err := action(cmd, ledger, cfg.Account, args); err != nil {
				return err
			}

			verb, _, _ := strings.Cut(use, " ")
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Transaction %s updated (%s)", args[0], verb)))
			return nil
		},
	}
}

func listTransactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			showIgnored, _ := cmd.Flags().GetBool("ignored")
			category, _ := cmd.Flags().GetString("category")

			txns, err := store.ListTransactions(ctx, cfg.Account, since)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			txns = filterTransactions(txns, showIgnored, category)

			if len(txns) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No transactions found."))
				return nil
			}

			out := cmd.OutOrStdout()
			table := cli.NewTable(out, "ID", "Date", "Amount", "Merchant", "Category", "Type", "Email", "Reason")
			for _, txn := range txns {
				table.Row(
					txn.ID,
					txn.Timestamp.Local().Format(time.DateOnly),
					formatAmount(txn),
					cli.Truncate(txn.Merchant, 30),
					categoryLabel(txn),
					txn.Type,
					emailLabel(txn),
					cli.Truncate(txn.Reason, 30),
				)
			}
			if err := table.Flush(); err != nil {
				return err
			}

			debits, credits := totals(txns)
			fmt.Fprintf(out, "\n%s  debits %s  credits %s\n",
				cli.TitleStyle.Render(fmt.Sprintf("%d transactions", len(txns))),
				debits.StringFixed(2), credits.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().String("since", "", "only list transactions on or after this date (YYYY-MM-DD, default: start of month)")
	cmd.Flags().Bool("ignored", false, "include ignored transactions")
	cmd.Flags().String("category", "", "only list transactions in this category")

	return cmd
}

func filterTransactions(txns []model.Transaction, showIgnored bool, category string) []model.Transaction {
	category = strings.ToLower(strings.TrimSpace(category))
	out := txns[:0]
	for _, txn := range txns {
		if txn.Ignore && !showIgnored {
			continue
		}
		if category != "" && txn.Category != category {
			continue
		}
		out = append(out, txn)
	}
	return out
}

func formatAmount(txn model.Transaction) string {
	amount := txn.Amount.StringFixed(2)
	if txn.Kind == model.KindCredit {
		return cli.SuccessStyle.Render("+" + amount)
	}
	return "-" + amount
}

func categoryLabel(txn model.Transaction) string {
	label := txn.Category
	if txn.IsUncategorized() {
		label = cli.WarningStyle.Render(model.Uncategorized)
	}
	if txn.Ignore {
		label += cli.SubtleStyle.Render(" (ignored)")
	}
	return label
}

func emailLabel(txn model.Transaction) string {
	switch {
	case txn.MultipleMails:
		return cli.WarningStyle.Render("multiple")
	case txn.EmailChecked:
		return cli.SuccessStyle.Render(cli.SuccessIcon)
	}
	return ""
}

// totals sums the non-ignored debits and credits.
func totals(txns []model.Transaction) (debits, credits decimal.Decimal) {
	for _, txn := range txns {
		if txn.Ignore {
			continue
		}
		if txn.Kind == model.KindCredit {
			credits = credits.Add(txn.Amount)
		} else {
			debits = debits.Add(txn.Amount)
		}
	}
	return debits, credits
}
