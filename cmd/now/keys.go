package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}

	cmd.AddCommand(
		newKeysCreateCmd(),
		newKeysListCmd(),
		newKeysRevokeCmd(),
	)

	return cmd
}

func newKeysCreateCmd() *cobra.Command {
	var scopes []string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API key",
		Long:  "Creates an API key and prints it once. Only a hash of the key is stored.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				created, err := d.APIKeyHandler.HandleCreate(ctx, args[0], scopes)
				if err != nil {
					return fmt.Errorf("creating key: %w", err)
				}

				fmt.Fprintf(stdout, "Created key %s (%s)\n", created.Key.ID, created.Key.Name)
				fmt.Fprintf(stdout, "Scopes: %v\n\n", []string(created.Key.Scopes))
				fmt.Fprintf(stdout, "  %s\n\n", created.RawKey)
				fmt.Fprintln(stdout, "Store this key now. It cannot be shown again.")
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scopes", nil, "Scopes to grant (read, write, admin); defaults to read,write")

	return cmd
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				keys, err := d.APIKeyHandler.HandleList(ctx)
				if err != nil {
					return fmt.Errorf("listing keys: %w", err)
				}
				if len(keys) == 0 {
					fmt.Fprintln(stdout, "No API keys found.")
					return nil
				}
				printKeys(stdout, keys)
				return nil
			})
		},
	}
}

func newKeysRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				key, err := d.APIKeyHandler.HandleRevoke(ctx, args[0])
				if err != nil {
					return fmt.Errorf("revoking key: %w", err)
				}
				fmt.Fprintf(stdout, "Revoked key %s (%s)\n", key.ID, key.Name)
				return nil
			})
		},
	}
}
