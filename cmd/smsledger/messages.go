package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/storage"
)

// importBatchSize bounds how many messages are written per transaction.
const importBatchSize = 200

// messageRecord is the JSON shape accepted by "messages import".
type messageRecord struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func messagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Import and inspect SMS messages",
	}

	cmd.AddCommand(importMessagesCmd())
	cmd.AddCommand(listMessagesCmd())
	cmd.AddCommand(unprocessMessageCmd())

	return cmd
}

func importMessagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import messages from a JSON array",
		Long: `Import messages exported from a phone. The file holds a JSON array of
objects with id, sender, body and RFC 3339 timestamp. Use "-" to read stdin.
Messages already stored for the account keep their status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			messages, err := readMessages(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(messages), "Importing messages")
			for start := 0; start < len(messages); start += importBatchSize {
				end := min(start+importBatchSize, len(messages))
				if err := store.SaveMessages(ctx, cfg.Account, messages[start:end]); err != nil {
					return fmt.Errorf("failed to save messages: %w", err)
				}
				_ = bar.Add(end - start)
			}
			_ = bar.Finish()

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d messages into %s", len(messages), cfg.Account)))
			return nil
		},
	}
}

func readMessages(stdin io.Reader, path string) ([]model.Message, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	return decodeMessages(r)
}

func decodeMessages(r io.Reader) ([]model.Message, error) {
	var records []messageRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	messages := make([]model.Message, 0, len(records))
	for i, rec := range records {
		if strings.TrimSpace(rec.ID) == "" {
			return nil, fmt.Errorf("message at index %d has no id", i)
		}
		messages = append(messages, model.Message{
			ID:        rec.ID,
			Sender:    rec.Sender,
			Body:      rec.Body,
			Timestamp: rec.Timestamp,
			Status:    model.MessageUnprocessed,
		})
	}
	return messages, nil
}

func listMessagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored messages",
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
			status, _ := cmd.Flags().GetString("status")
			if status != "" && !model.MessageStatus(status).IsValid() {
				return fmt.Errorf("unknown status %q", status)
			}
			sender, _ := cmd.Flags().GetString("sender")
			limit, _ := cmd.Flags().GetUint64("limit")

			messages, err := store.ListMessages(ctx, cfg.Account, storage.MessageFilter{
				Since:  since,
				Status: model.MessageStatus(status),
				Sender: sender,
				Limit:  limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list messages: %w", err)
			}

			if len(messages) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No messages found."))
				return nil
			}

			table := cli.NewTable(cmd.OutOrStdout(), "ID", "Received", "Sender", "Status", "Body")
			for _, msg := range messages {
				table.Row(
					msg.ID,
					msg.Timestamp.Local().Format(time.DateTime),
					msg.Sender,
					cli.StatusStyle(string(msg.Status)).Render(string(msg.Status)),
					cli.Truncate(strings.Join(strings.Fields(msg.Body), " "), 60),
				)
			}
			return table.Flush()
		},
	}

	cmd.Flags().String("since", "", "only list messages received on or after this date (YYYY-MM-DD, default: start of month)")
	cmd.Flags().String("status", "", "filter by status (unprocessed, matched, rejected)")
	cmd.Flags().String("sender", "", "filter by sender identifier")
	cmd.Flags().Uint64("limit", 50, "maximum number of messages to show (0 for all)")

	return cmd
}

func unprocessMessageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unprocess <message-id>",
		Short: "Reset a message so the next classify run evaluates it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.UnprocessMessage(ctx, cfg.Account, args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Message %s marked unprocessed", args[0])))
			return nil
		},
	}
}
