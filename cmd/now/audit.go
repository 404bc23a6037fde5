package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simpactsoft/now-core/internal/application/handlers"
)

func newAuditCmd() *cobra.Command {
	var q handlers.AuditQuery

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log",
		Long: `Shows the change history of one record, or the latest entries for one action.

Examples:
  now audit --subject 0192...
  now audit --action entity.deleted --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				entries, err := d.AuditHandler.Handle(ctx, q)
				if err != nil {
					return fmt.Errorf("reading audit log: %w", err)
				}
				if len(entries) == 0 {
					fmt.Fprintln(stdout, "No audit entries found.")
					return nil
				}
				printAudit(stdout, entries)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&q.SubjectID, "subject", "", "Record, field or key ID")
	cmd.Flags().StringVar(&q.Action, "action", "", "Action name, e.g. entity.created")
	cmd.Flags().IntVarP(&q.Limit, "limit", "l", DefaultAuditLimit, "Maximum entries for --action")

	return cmd
}
