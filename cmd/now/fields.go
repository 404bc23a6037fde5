package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/services"
)

type fieldAddFlags struct {
	entityType string
	label      string
	valueType  string
	required   bool
	options    []string
	defaultVal string
}

func newFieldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Manage custom field definitions",
		Long: `Custom fields extend organizations and people with administrator-defined values.

Examples:
  now fields list people
  now fields add organizations tier --type enum --options gold,silver --default silver
  now fields remove people job_title`,
	}

	cmd.AddCommand(
		newFieldsListCmd(),
		newFieldsAddCmd(),
		newFieldsRemoveCmd(),
	)

	return cmd
}

func newFieldsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [entity-type]",
		Short: "List custom fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFieldsList(cmd, args)
		},
	}
}

func runFieldsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	types := entities.EntityTypes
	if len(args) == 1 {
		t, err := entities.ParseEntityType(args[0])
		if err != nil {
			return err
		}
		types = []entities.EntityType{t}
	}

	return withDeps(ctx, func(d *Deps) error {
		for i, t := range types {
			defs, err := d.SchemaHandler.HandleList(ctx, t)
			if err != nil {
				return fmt.Errorf("listing fields: %w", err)
			}
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			fmt.Fprintf(stdout, "%s (%d fields)\n", t.Plural(), len(defs))
			if len(defs) > 0 {
				printFields(stdout, defs)
			}
		}
		return nil
	})
}

func newFieldsAddCmd() *cobra.Command {
	var flags fieldAddFlags

	cmd := &cobra.Command{
		Use:   "add <entity-type> <key>",
		Short: "Add a custom field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFieldsAdd(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.valueType, "type", "t", string(entities.ValueTypeString), "Value type (string, number, boolean, date, enum)")
	cmd.Flags().StringVarP(&flags.label, "label", "l", "", "Display label (defaults to the key)")
	cmd.Flags().BoolVar(&flags.required, "required", false, "Require a value on every record")
	cmd.Flags().StringSliceVar(&flags.options, "options", nil, "Allowed values for enum fields")
	cmd.Flags().StringVar(&flags.defaultVal, "default", "", "Default value applied on create (JSON literal or plain text)")

	return cmd
}

func runFieldsAdd(cmd *cobra.Command, args []string, flags fieldAddFlags) error {
	ctx := cmd.Context()

	t, err := entities.ParseEntityType(args[0])
	if err != nil {
		return err
	}

	in := services.FieldInput{
		EntityType: t,
		Name:       args[1],
		Label:      flags.label,
		ValueType:  flags.valueType,
		Required:   flags.required,
		EnumValues: flags.options,
	}
	if cmd.Flags().Changed("default") {
		in.DefaultValue = parseDefault(flags.defaultVal)
	}

	return withDeps(ctx, func(d *Deps) error {
		def, err := d.SchemaHandler.HandleAdd(ctx, in)
		if err != nil {
			return fmt.Errorf("adding field: %w", err)
		}
		fmt.Fprintf(stdout, "Added field %q (%s) to %s\n", def.Name, def.ValueType, t.Plural())
		return nil
	})
}

// parseDefault reads a JSON scalar so numbers and booleans keep their type;
// anything else is taken as text.
func parseDefault(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		switch v.(type) {
		case string, float64, bool:
			return v
		}
	}
	return s
}

func newFieldsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <entity-type> <key>",
		Short: "Remove a custom field",
		Long:  "Removes the field definition. Values already stored on records are dropped the next time they are updated.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			t, err := entities.ParseEntityType(args[0])
			if err != nil {
				return err
			}

			return withDeps(ctx, func(d *Deps) error {
				if err := d.SchemaHandler.HandleRemove(ctx, t, args[1]); err != nil {
					return fmt.Errorf("removing field: %w", err)
				}
				fmt.Fprintf(stdout, "Removed field %q from %s\n", args[1], t.Plural())
				return nil
			})
		},
	}
}
