package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Simpactsoft/now-core/internal/application/handlers"
)

type relationsFlags struct {
	page     int
	pageSize int
	format   string
}

func newRelationsCmd() *cobra.Command {
	var flags relationsFlags

	cmd := &cobra.Command{
		Use:   "relations",
		Short: "List relationships",
		Long: `Lists relationships newest first, with the names of both endpoints.

Examples:
  now relations
  now relations --page 2 --page-size 50
  now relations get 0194...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelations(cmd, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.page, "page", "p", 1, "Page number (1-indexed)")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "Results per page (defaults to server.default_page_size)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format: table, json")

	cmd.AddCommand(newRelationsGetCmd())

	return cmd
}

func runRelations(cmd *cobra.Command, flags relationsFlags) error {
	if err := checkFormat(flags.format); err != nil {
		return err
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		req, err := d.Pagination.Request(flags.page, flags.pageSize)
		if err != nil {
			return err
		}

		page, err := d.RelationshipHandler.HandleList(ctx, req)
		if err != nil {
			return fmt.Errorf("listing relationships: %w", err)
		}

		if flags.format == "json" {
			return printJSON(stdout, page.Items)
		}
		printRelations(stdout, page.Items)
		fmt.Fprintln(stdout, pageSummary(page.Page, page.TotalPages(), len(page.Items), page.Total))
		return nil
	})
}

func newRelationsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <relationship-id>",
		Short: "Show one relationship as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				info, err := d.RelationshipHandler.HandleGet(ctx, args[0])
				if err != nil {
					return fmt.Errorf("getting relationship: %w", err)
				}
				return printJSON(stdout, info)
			})
		},
	}
}

func printRelations(w io.Writer, rels []handlers.RelationshipInfo) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tRELATIONSHIP\tCREATED")
	for _, r := range rels {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, describeRelationship(&r), formatTime(r.CreatedAt))
	}
	tw.Flush()
}

// describeRelationship renders "Acme Ltd -[Employee]-> Israel Israeli".
func describeRelationship(r *handlers.RelationshipInfo) string {
	return fmt.Sprintf("%s -[%s]-> %s",
		endpointName(r.Source, r.SourceID), r.RelationshipType, endpointName(r.Target, r.TargetID))
}

func endpointName(s *handlers.EntitySummary, id string) string {
	if s == nil {
		return id + " (deleted)"
	}
	if s.Name == "" {
		return s.ID
	}
	return s.Name
}
