package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/neuroconv/internal/adapters/driven/config/file"
	"github.com/custodia-labs/neuroconv/internal/core/domain"
)

var (
	initInterfaces []string
	initOutput     string
	initForce      bool
)

var initCmd = &cobra.Command{
	Use:   "init RUNFILE",
	Short: "Write a skeleton run file",
	Long: `Writes a run file listing the given interfaces. Each --interface takes
NAME=KIND. Required source fields are left empty for you to fill in.

The format follows the extension: .toml, .yaml or .yml.`,
	Example: `  neuroconv init run.toml --interface Recording=spikeglx-nidq --interface Trials=csv-time-intervals`,
	Args:    cobra.ExactArgs(1),
	RunE:    runInit,
}

func init() {
	initCmd.Flags().StringArrayVarP(&initInterfaces, "interface", "i", nil, "interface as NAME=KIND (repeatable)")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "session.db", "output document path")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing run file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	path := args[0]
	if len(initInterfaces) == 0 {
		return fmt.Errorf("%w: at least one --interface is required", domain.ErrInvalidInput)
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s exists (use --force to replace it)", domain.ErrInvalidInput, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	rf := &file.RunFile{Output: file.Output{Path: initOutput, Mode: string(domain.ModeCreate)}}
	for _, arg := range initInterfaces {
		name, kind, ok := strings.Cut(arg, "=")
		if !ok || name == "" || kind == "" {
			return fmt.Errorf("%w: interface %q is not NAME=KIND", domain.ErrInvalidInput, arg)
		}
		class, err := catalog.Get(kind)
		if err != nil {
			return err
		}

		source := make(map[string]any)
		for _, required := range class.SourceSchema().Required {
			source[required] = ""
		}
		rf.Interfaces = append(rf.Interfaces, file.InterfaceEntry{Name: name, Kind: kind, Source: source})
	}

	if err := rf.Save(path); err != nil {
		return err
	}
	cmd.Printf("Wrote %s with %d interface(s)\n", path, len(rf.Interfaces))
	return nil
}
