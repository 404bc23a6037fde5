package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

type entityListFlags struct {
	page     int
	pageSize int
	search   string
	format   string
}

// newEntitiesCmd builds the read-only command group for one entity type.
// Writes go through the HTTP API or import.
func newEntitiesCmd(t entities.EntityType, use string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Browse %s", t.Plural()),
	}

	cmd.AddCommand(
		newEntityListCmd(t),
		newEntityGetCmd(t),
	)

	return cmd
}

func newEntityListCmd(t entities.EntityType) *cobra.Command {
	var flags entityListFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", t.Plural()),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntityList(cmd, t, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.page, "page", "p", 1, "Page number (1-indexed)")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "Results per page (defaults to server.default_page_size)")
	cmd.Flags().StringVarP(&flags.search, "search", "s", "", "Case-insensitive search on name or email")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format: table, json")

	return cmd
}

func runEntityList(cmd *cobra.Command, t entities.EntityType, flags entityListFlags) error {
	if err := checkFormat(flags.format); err != nil {
		return err
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		req, err := d.Pagination.Request(flags.page, flags.pageSize)
		if err != nil {
			return err
		}

		page, err := d.EntityHandler.HandleList(ctx, t, req, flags.search)
		if err != nil {
			return fmt.Errorf("listing %s: %w", t.Plural(), err)
		}

		if flags.format == "json" {
			return printJSON(stdout, page.Items)
		}
		printEntities(stdout, page)
		return nil
	})
}

func newEntityGetCmd(t entities.EntityType) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				e, err := d.EntityHandler.HandleGet(ctx, t, args[0])
				if err != nil {
					return fmt.Errorf("getting %s: %w", args[0], err)
				}
				return printJSON(stdout, e)
			})
		},
	}
}
