package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simpactsoft/now-core/internal/domain/services"
)

type relateFlags struct {
	metadata string
}

func newRelateCmd() *cobra.Command {
	var flags relateFlags

	cmd := &cobra.Command{
		Use:   "relate <source-id> <relationship-type> <target-id>",
		Short: "Create a relationship between two records",
		Long: `Creates a directed relationship from the source record to the target record.

Examples:
  now relate 0192... Employee 0193...
  now relate 0192... Employee 0193... --metadata '{"job_title":"CEO"}'
  now relate delete 0194...`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelate(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.metadata, "metadata", "m", "", "Relationship metadata as a JSON object")

	cmd.AddCommand(newRelateDeleteCmd())

	return cmd
}

func runRelate(cmd *cobra.Command, args []string, flags relateFlags) error {
	ctx := cmd.Context()

	in := services.RelationshipInput{
		SourceID:         args[0],
		RelationshipType: args[1],
		TargetID:         args[2],
	}
	if flags.metadata != "" {
		if err := json.Unmarshal([]byte(flags.metadata), &in.Metadata); err != nil {
			return fmt.Errorf("parsing --metadata: %w", err)
		}
	}

	return withDeps(ctx, func(d *Deps) error {
		info, err := d.RelationshipHandler.HandleCreate(ctx, in)
		if err != nil {
			return fmt.Errorf("creating relationship: %w", err)
		}

		fmt.Fprintf(stdout, "Created relationship %s: %s\n", info.ID, describeRelationship(info))
		return nil
	})
}

func newRelateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <relationship-id>",
		Short: "Delete a relationship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				if err := d.RelationshipHandler.HandleDelete(ctx, args[0]); err != nil {
					return fmt.Errorf("deleting relationship: %w", err)
				}
				fmt.Fprintf(stdout, "Deleted relationship %s\n", args[0])
				return nil
			})
		},
	}
}
