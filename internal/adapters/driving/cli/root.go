// Package cli implements the neuroconv command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driving"
	"github.com/custodia-labs/neuroconv/internal/logger"
)

// version is set at build time through SetVersion.
var version = "dev"

var verbose bool

// Services wired by the composition root.
var (
	converter    driving.Converter
	catalog      driving.Catalog
	readDocument func(ctx context.Context, path string) (*domain.Document, error)
)

// Services groups the application services the commands use.
type Services struct {
	Converter driving.Converter
	Catalog   driving.Catalog
	// ReadDocument loads a persisted document for inspection.
	ReadDocument func(ctx context.Context, path string) (*domain.Document, error)
}

var rootCmd = &cobra.Command{
	Use:   "neuroconv",
	Short: "Convert instrument recordings into one unified session document",
	Long: `neuroconv drives several data interfaces (recordings, synthetic signals,
interval tables) into one shared session document.

A run file lists the interfaces in order with their source configuration and
conversion options, the metadata override and the output target.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log conversion progress to stderr")
}

// SetServices wires the application services.
func SetServices(s Services) {
	converter = s.Converter
	catalog = s.Catalog
	readDocument = s.ReadDocument
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Exit codes distinguish the failure classes of a run.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitConflict = 3
	ExitSource   = 4
	ExitWrite    = 5
)

// ExitCode maps an error onto the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrConfiguration),
		errors.Is(err, domain.ErrUnknownPlugin),
		errors.Is(err, domain.ErrConversionOptions),
		errors.Is(err, domain.ErrInvalidInput):
		return ExitUsage
	case errors.Is(err, domain.ErrMetadataConflict),
		errors.Is(err, domain.ErrTargetExistsConflict):
		return ExitConflict
	case errors.Is(err, domain.ErrSourceUnavailable):
		return ExitSource
	case errors.Is(err, domain.ErrWrite):
		return ExitWrite
	default:
		return ExitFailure
	}
}

func requireServices() error {
	if converter == nil || catalog == nil {
		return errors.New("conversion services not configured")
	}
	return nil
}
