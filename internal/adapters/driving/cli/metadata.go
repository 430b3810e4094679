package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var metadataJSON bool

var metadataCmd = &cobra.Command{
	Use:   "metadata RUNFILE",
	Short: "Show the merged metadata of a run without converting",
	Long: `Instantiates every interface of the run file, merges their metadata
proposals and applies the override. Nothing is written.

Edit the output and place it under [metadata] in the run file to override
individual fields.`,
	Args: cobra.ExactArgs(1),
	RunE: runMetadata,
}

func init() {
	metadataCmd.Flags().BoolVar(&metadataJSON, "json", false, "print JSON instead of YAML")
	rootCmd.AddCommand(metadataCmd)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	_, req, err := loadRequest(args[0])
	if err != nil {
		return err
	}

	md, err := converter.Metadata(cmd.Context(), req.SourceData, req.Plugins, req.Metadata)
	if err != nil {
		return fmt.Errorf("collecting metadata: %w", err)
	}

	var out []byte
	if metadataJSON {
		out, err = json.MarshalIndent(md, "", "  ")
		out = append(out, '\n')
	} else {
		out, err = yaml.Marshal(md)
	}
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	cmd.Print(string(out))
	return nil
}
