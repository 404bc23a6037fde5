package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Simpactsoft/now-core/internal/application/handlers"
	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
)

type importFlags struct {
	entityType  string
	format      string
	dryRun      bool
	onDuplicate string
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import organizations or people from JSON or CSV",
		Long: `Imports records from a structured file. Each record is validated like an API create;
invalid records are reported by line and the rest are imported.

CSV columns named custom.<key> fill custom fields; tags are separated by ";".

Records matching an existing entity (people by email, organizations by tax_id
or else name) are skipped, merged into it (--on-duplicate update) or reported
as failed (--on-duplicate error).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.entityType, "type", "t", "", "Entity type (organizations, people)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.onDuplicate, "on-duplicate", string(services.DuplicateSkip), "How to handle records matching an existing entity (skip, update, error)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	t, err := entities.ParseEntityType(flags.entityType)
	if err != nil {
		return err
	}
	policy, err := services.ParseDuplicatePolicy(flags.onDuplicate)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		opts := handlers.ImportOptions{
			EntityType:  t,
			Format:      flags.format,
			DryRun:      flags.dryRun,
			OnDuplicate: policy,
		}

		fmt.Fprintf(stdout, "Importing %s into %s...\n", filePath, t.Plural())

		result, err := d.ImportHandler.Handle(ctx, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Fprintf(stdout, "\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Fprintf(stdout, "  %s\n", e.Error())
			}
		}

		fmt.Fprintln(stdout)
		printImportSummary(stdout, result, flags.dryRun)
		return nil
	})
}

func printImportSummary(w io.Writer, result *services.ImportResult, dryRun bool) {
	if dryRun {
		fmt.Fprintf(w, "Dry run: %d records would be imported", result.Imported)
	} else {
		fmt.Fprintf(w, "Imported: %d records", result.Imported)
	}
	if result.Updated > 0 {
		fmt.Fprintf(w, ", %d updated", result.Updated)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped as duplicates", result.Skipped)
	}
	if result.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", result.Failed)
	}
	fmt.Fprintln(w)
}
