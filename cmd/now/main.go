// Package main provides the entry point for the now CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

var version = "0.1.0-dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "now",
		Short:         "CRM backend for organizations, people and their relationships",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newFieldsCmd(),
		newKeysCmd(),
		newEntitiesCmd(entities.EntityTypeOrganization, "orgs"),
		newEntitiesCmd(entities.EntityTypePerson, "people"),
		newRelateCmd(),
		newRelationsCmd(),
		newImportCmd(),
		newAuditCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
