package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/model"
)

func sendersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "senders",
		Short: "Manage trusted SMS senders",
		Long: `Senders seen for the first time are registered as unprocessed and stay
trusted until rejected. Approve or reject them here.`,
	}

	cmd.AddCommand(listSendersCmd())
	cmd.AddCommand(addSenderCmd())
	cmd.AddCommand(setSenderStatusCmd("approve", model.SenderApproved))
	cmd.AddCommand(setSenderStatusCmd("reject", model.SenderRejected))

	return cmd
}

func listSendersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sender rules in match order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			_, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.SenderRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list senders: %w", err)
			}

			if len(rules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No senders registered yet. Run 'smsledger classify' or 'smsledger senders add'."))
				return nil
			}

			table := cli.NewTable(cmd.OutOrStdout(), "ID", "Name", "Comparison", "Status", "Added")
			for _, rule := range rules {
				table.Row(
					rule.ID,
					rule.Name,
					string(rule.Comparison),
					cli.StatusStyle(string(rule.Status)).Render(string(rule.Status)),
					rule.CreatedAt.Local().Format(time.DateOnly),
				)
			}
			return table.Flush()
		},
	}
}

func addSenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a sender name",
		Long: `Register a sender rule. Any sender identifier containing the name
(case-insensitively) is governed by the rule.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			status, _ := cmd.Flags().GetString("status")
			rule := &model.SenderRule{
				Name:       args[0],
				Comparison: model.ComparisonContains,
				Status:     model.SenderStatus(status),
			}
			if err := store.AddSender(ctx, rule); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added sender %s (%s) as %s", rule.Name, rule.ID, rule.Status)))
			return nil
		},
	}

	cmd.Flags().String("status", string(model.SenderApproved), "initial status (approved, unprocessed, rejected)")

	return cmd
}

func setSenderStatusCmd(verb string, status model.SenderStatus) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <sender-id>",
		Short: fmt.Sprintf("Mark a sender as %s", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.UpdateSenderStatus(ctx, args[0], status); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Sender %s is now %s", args[0], status)))
			return nil
		},
	}
}
