package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/mail"
)

func authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google access for email cross-verification and export",
		Long: `Run the OAuth2 consent flow for the Google account that receives PhonePe
payment emails. Requires gmail.credentials_path (or GMAIL_CREDENTIALS_PATH)
pointing at a desktop OAuth client JSON. The token is saved to gmail.token_path.
When sheets.enabled is set, spreadsheet access is requested too.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Gmail.CredentialsPath == "" {
				return fmt.Errorf("gmail.credentials_path is not set")
			}

			oauthCfg, err := mail.LoadOAuthConfig(cfg.Gmail.CredentialsPath, googleScopes(cfg)...)
			if err != nil {
				return err
			}

			if _, err := mail.Authenticate(cmd.Context(), oauthCfg, cfg.Gmail.TokenPath); err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Google access authorized, token saved to "+cfg.Gmail.TokenPath))
			return nil
		},
	}
}
