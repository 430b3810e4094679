package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var interfacesCmd = &cobra.Command{
	Use:     "interfaces",
	Aliases: []string{"kinds"},
	Short:   "List the available data interface kinds",
	Args:    cobra.NoArgs,
	RunE:    runInterfaces,
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}

func runInterfaces(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	width := terminalWidth()
	for _, kind := range catalog.Kinds() {
		class, err := catalog.Get(kind)
		if err != nil {
			return err
		}
		cmd.Println(kind)
		cmd.Printf("  %s\n", truncate(class.Description(), width-2))

		dims := class.OptionDimensions()
		if len(dims.Independent) > 0 {
			cmd.Printf("  Options:       %s\n", strings.Join(dims.Independent, ", "))
		}
		for _, group := range dims.Joint {
			cmd.Printf("  Joint options: %s\n", strings.Join(group, " x "))
		}
	}
	return nil
}
