package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Simpactsoft/now-core/internal/application/handlers"
	"github.com/Simpactsoft/now-core/internal/infrastructure/logging"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new now workspace",
		Long:  "Creates a .now directory with default configuration, creates the database schema and seeds the default custom fields.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	logger, err := logging.New(os.Stderr, "warn", logging.FormatText)
	if err != nil {
		return err
	}

	result, err := handlers.NewInitHandler(openDatabase, logger).Handle(ctx, cwd)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Created %s\n", result.ConfigPath)
	fmt.Fprintf(stdout, "Database: %s\n", result.Driver)
	if result.FieldsSeeded > 0 {
		fmt.Fprintf(stdout, "Seeded %d default custom fields\n", result.FieldsSeeded)
	}
	fmt.Fprintln(stdout, "now initialized successfully!")
	fmt.Fprintln(stdout, "Next: create an API key with `now keys create <name>`.")

	return nil
}
