package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-triage/internal/bootstrap"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "List the document types classification resolves against",
	RunE:  runTaxonomy,
}

func runTaxonomy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "classifier"})
	if err != nil {
		return err
	}
	defer app.Close()

	entries, err := app.Taxonomies.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("list taxonomy: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No document types configured.")
		return nil
	}

	fmt.Printf("Document types (%d):\n\n", len(entries))
	for _, entry := range entries {
		fmt.Printf("- %s  %s", entry.ID, entry.Name)
		if entry.Category != "" {
			fmt.Printf(" [%s]", entry.Category)
		}
		fmt.Println()
		if entry.Description != "" {
			fmt.Printf("  %s\n", entry.Description)
		}
	}
	return nil
}
