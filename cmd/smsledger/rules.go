package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

// ruleFile is the YAML document accepted by "rules import".
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Metadata map[string]string `yaml:"metadata"`
	ID       string            `yaml:"id"`
	Sender   string            `yaml:"sender"`
	Pattern  string            `yaml:"pattern"`
	Outcome  string            `yaml:"outcome"`
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage extraction rules",
		Long: `Extraction rules pair a sender filter with a regular expression. Named
capture groups (amount, merchant, date, type, kind, balance, category) become
transaction fields. Reject rules mark matching messages as noise.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(deleteRuleCmd())
	cmd.AddCommand(testRuleCmd())
	cmd.AddCommand(importRulesCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List extraction rules in evaluation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			_, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.ExtractionRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No extraction rules. Use 'smsledger rules add' to create one."))
				return nil
			}

			table := cli.NewTable(cmd.OutOrStdout(), "ID", "Sender", "Outcome", "Metadata", "Pattern")
			for _, rule := range rules {
				table.Row(
					rule.ID,
					rule.SenderFilter,
					cli.StatusStyle(string(rule.Outcome)).Render(string(rule.Outcome)),
					formatMetadata(rule.Metadata),
					cli.Truncate(rule.Pattern, 60),
				)
			}
			return table.Flush()
		},
	}
}

func formatMetadata(fields model.FieldSet) string {
	if len(fields) == 0 {
		return "-"
	}
	pairs := make([]string, 0, len(fields))
	for _, key := range fields.Keys() {
		pairs = append(pairs, key+"="+fields[key])
	}
	return strings.Join(pairs, ",")
}

// parseMetadata turns key=value flags into a field set.
func parseMetadata(pairs []string) (model.FieldSet, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := make(model.FieldSet, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		fields[model.Canonical(key)] = strings.TrimSpace(value)
	}
	return fields, nil
}

func addRuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <pattern>",
		Short: "Add an extraction rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sender, _ := cmd.Flags().GetString("sender")
			outcome, _ := cmd.Flags().GetString("outcome")
			pairs, _ := cmd.Flags().GetStringSlice("meta")

			metadata, err := parseMetadata(pairs)
			if err != nil {
				return err
			}

			rule := model.ExtractionRule{
				ID:           uuid.NewString(),
				SenderFilter: sender,
				Pattern:      args[0],
				Outcome:      model.RuleOutcome(outcome),
				Metadata:     metadata,
				CreatedBy:    "cli",
			}
			if err := pattern.ValidateRule(rule); err != nil {
				return err
			}

			_, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.UpsertExtractionRule(ctx, &rule); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Added rule "+rule.ID))
			return nil
		},
	}

	cmd.Flags().String("sender", "", "sender filter (substring of the sender identifier)")
	cmd.Flags().String("outcome", string(model.OutcomeApprove), "rule outcome (approve, reject)")
	cmd.Flags().StringSlice("meta", nil, "static fields overlaid on captures, as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("sender")

	return cmd
}

func deleteRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete an extraction rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteExtractionRule(ctx, args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted rule "+args[0]))
			return nil
		},
	}
}

func testRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <pattern> <message-body>",
		Short: "Show the fields a pattern captures from a message body",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			matched, fields := pattern.ExtractFields(args[0], args[1])
			if !matched {
				fmt.Fprintln(out, cli.FormatWarning("Pattern did not match"))
				return nil
			}

			fmt.Fprintln(out, cli.FormatSuccess("Pattern matched"))
			table := cli.NewTable(out, "Field", "Value")
			for _, key := range fields.Keys() {
				table.Row(key, fields[key])
			}
			return table.Flush()
		},
	}
}

func importRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <rules.yaml>",
		Short: "Import extraction rules from a YAML file",
		Long: `Import rules from a YAML document with a top-level "rules" list. Each entry
has sender, pattern, outcome and optional id and metadata. Entries with an id
replace the stored rule with that id. Every rule is validated before any is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			rules, err := decodeRules(f)
			if err != nil {
				return err
			}

			_, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for i := range rules {
				if err := store.UpsertExtractionRule(ctx, &rules[i]); err != nil {
					return fmt.Errorf("failed to save rule %d: %w", i+1, err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d rules", len(rules))))
			return nil
		},
	}
}

// decodeRules parses and validates a rule file.
func decodeRules(r io.Reader) ([]model.ExtractionRule, error) {
	var doc ruleFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	rules := make([]model.ExtractionRule, 0, len(doc.Rules))
	for i, entry := range doc.Rules {
		outcome := entry.Outcome
		if outcome == "" {
			outcome = string(model.OutcomeApprove)
		}

		var metadata model.FieldSet
		if len(entry.Metadata) > 0 {
			metadata = make(model.FieldSet, len(entry.Metadata))
			for key, value := range entry.Metadata {
				metadata[model.Canonical(key)] = value
			}
		}

		id := entry.ID
		if id == "" {
			id = uuid.NewString()
		}

		rule := model.ExtractionRule{
			ID:           id,
			SenderFilter: entry.Sender,
			Pattern:      entry.Pattern,
			Outcome:      model.RuleOutcome(strings.ToLower(outcome)),
			Metadata:     metadata,
			CreatedBy:    "import",
		}
		if err := pattern.ValidateRule(rule); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
