package main

import (
	"encoding/json"
	"fmt"

	"github.com/easyworld/worldgen/core/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var schemaJSON bool

var schemaCmd = &cobra.Command{
	Use:   "schema [kind]",
	Short: "Print module field definitions",
	Long: `Print the field definitions every generated value is checked against.

Kinds: heights, textures, grass, trees, water, objects, atmosphere, city.

Examples:
  worldgen schema
  worldgen schema water
  worldgen schema --json heights`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().BoolVar(&schemaJSON, "json", false, "print JSON instead of YAML")
}

func runSchema(cmd *cobra.Command, args []string) error {
	reg := schema.Default()

	var v any = reg.Modules()
	if len(args) == 1 {
		m, err := reg.SchemaFor(schema.Kind(args[0]))
		if err != nil {
			return err
		}
		v = m
	}

	out := cmd.OutOrStdout()
	if schemaJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	_, err = out.Write(data)
	return err
}
