package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply pending schema migrations. Every other command migrates automatically; use --status to inspect the schema version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := storage.NewSQLiteStorage(cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			current, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}

			if status, _ := cmd.Flags().GetBool("status"); status {
				fmt.Fprintf(out, "Database: %s\n", cfg.Database)
				fmt.Fprintf(out, "Schema version: %d (latest %d)\n", current, storage.ExpectedSchemaVersion)
				if current < storage.ExpectedSchemaVersion {
					fmt.Fprintln(out, cli.FormatWarning("Migrations pending"))
				} else {
					fmt.Fprintln(out, cli.FormatSuccess("Up to date"))
				}
				return nil
			}

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Schema at version %d (was %d)", storage.ExpectedSchemaVersion, current)))
			return nil
		},
	}

	cmd.Flags().Bool("status", false, "show the current schema version without migrating")

	return cmd
}
