package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/neuroconv/internal/schema"
)

var (
	schemaOptions bool
	schemaRun     string
)

var schemaCmd = &cobra.Command{
	Use:   "schema [KIND]",
	Short: "Print the JSON schema of an interface kind or a run",
	Long: `Prints the Draft 7 source schema of an interface kind. With --options the
conversion options schema is printed instead.

With --run the combined schema of every interface in a run file is printed,
keyed by interface name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaOptions, "options", false, "print the conversion options schema")
	schemaCmd.Flags().StringVar(&schemaRun, "run", "", "print the combined schema of a run file")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	var (
		s   *schema.Schema
		err error
	)
	switch {
	case schemaRun != "" && len(args) > 0:
		return fmt.Errorf("pass either KIND or --run, not both")
	case schemaRun != "":
		s, err = runSchemaFor(schemaRun)
	case len(args) == 1:
		s, err = kindSchema(args[0])
	default:
		return fmt.Errorf("KIND or --run is required")
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	cmd.Println(string(out))
	return nil
}

func kindSchema(kind string) (*schema.Schema, error) {
	class, err := catalog.Get(kind)
	if err != nil {
		return nil, err
	}
	if schemaOptions {
		return class.ConversionOptionsSchema(), nil
	}
	return class.SourceSchema(), nil
}

func runSchemaFor(runPath string) (*schema.Schema, error) {
	_, req, err := loadRequest(runPath)
	if err != nil {
		return nil, err
	}
	if schemaOptions {
		return catalog.ConversionOptionsSchema(req.Plugins)
	}
	return catalog.SourceSchema(req.Plugins)
}
