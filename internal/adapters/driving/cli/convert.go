package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/neuroconv/internal/adapters/driven/config/file"
	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driving"
)

var (
	convertOutput   string
	convertMode     string
	convertWatch    bool
	convertDebounce time.Duration
)

var convertCmd = &cobra.Command{
	Use:   "convert RUNFILE",
	Short: "Run a conversion described by a run file",
	Long: `Instantiates every interface listed in the run file, merges their metadata
with the override, and writes all of them into the output document in one
transaction. A failed run leaves no partial output behind.

Modes:
  create      build a new document (replaces an existing one on success)
  overwrite   replace an existing document on success
  append      add to an existing document (created if missing)
  in-memory   build the document without writing a file and print a summary`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output document path (overrides the run file)")
	convertCmd.Flags().StringVarP(&convertMode, "mode", "m", "", "create, overwrite, append or in-memory (overrides the run file)")
	convertCmd.Flags().BoolVarP(&convertWatch, "watch", "w", false, "re-run whenever the run file or a source file changes")
	convertCmd.Flags().DurationVar(&convertDebounce, "debounce", 500*time.Millisecond, "quiet period before a watched change triggers a run")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	ctx := cmd.Context()
	runPath := args[0]

	if err := convertOnce(ctx, cmd, runPath); err != nil {
		if !convertWatch {
			return err
		}
		cmd.PrintErrf("Conversion failed: %v\n", err)
	}
	if !convertWatch {
		return nil
	}

	return watchRun(ctx, cmd, runPath, convertDebounce, func(ctx context.Context) {
		if err := convertOnce(ctx, cmd, runPath); err != nil {
			cmd.PrintErrf("Conversion failed: %v\n", err)
		}
	})
}

func convertOnce(ctx context.Context, cmd *cobra.Command, runPath string) error {
	rf, req, err := loadRequest(runPath)
	if err != nil {
		return err
	}
	req.Target, err = rf.Target(convertOutput, convertMode)
	if err != nil {
		return err
	}

	result, err := converter.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	printResult(cmd, result)
	return nil
}

// loadRequest reads a run file and resolves its interface kinds.
func loadRequest(runPath string) (*file.RunFile, driving.ConversionRequest, error) {
	rf, err := file.LoadRunFile(runPath)
	if err != nil {
		return nil, driving.ConversionRequest{}, fmt.Errorf("loading run file: %w", err)
	}
	table, err := catalog.Table(rf.Bindings())
	if err != nil {
		return nil, driving.ConversionRequest{}, err
	}
	override, err := rf.Override()
	if err != nil {
		return nil, driving.ConversionRequest{}, fmt.Errorf("%w: metadata: %w", domain.ErrInvalidInput, err)
	}
	return rf, driving.ConversionRequest{
		SourceData: rf.SourceData(),
		Plugins:    table,
		Metadata:   override,
		Options:    rf.ConversionOptions(),
	}, nil
}

func printResult(cmd *cobra.Command, result *driving.ConversionResult) {
	cmd.Printf("Run %s\n", result.RunID)
	for _, name := range result.Plugins {
		cmd.Printf("  - %s\n", name)
	}

	if result.Target.Mode == domain.ModeInMemory {
		cmd.Println("Document built in memory:")
		printDocument(cmd, result.Document)
		return
	}

	size := ""
	if info, err := os.Stat(result.Target.Path); err == nil {
		size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
	}
	cmd.Printf("Wrote %s%s [%s]\n", result.Target.Path, size, result.Target.Mode)
}
