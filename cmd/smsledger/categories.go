package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage spending categories",
		Long:  `List and add the categories transactions can be assigned to.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(merchantsCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			_, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.Categories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No categories found. Use 'smsledger categories add' to create one."))
				return nil
			}

			table := cli.NewTable(cmd.OutOrStdout(), "ID", "Name")
			for _, c := range categories {
				table.Row(fmt.Sprintf("%d", c.ID), c.Name)
			}
			return table.Flush()
		},
	}
}

func addCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := store.CreateCategory(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created category %q (ID: %d)", category.Name, category.ID)))
			return nil
		},
	}
}

func merchantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merchants",
		Short: "Show the remembered category for each merchant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			_, store, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			merchants, err := store.MerchantCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get merchant categories: %w", err)
			}

			if len(merchants) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No merchant categories yet. Categorize a transaction to record one."))
				return nil
			}

			table := cli.NewTable(cmd.OutOrStdout(), "Merchant", "Category")
			for _, name := range sortedKeys(merchants) {
				table.Row(name, merchants[name])
			}
			return table.Flush()
		},
	}
}
