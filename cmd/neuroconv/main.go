// Command neuroconv converts instrument recordings and interval tables into a
// single session document.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/neuroconv/internal/adapters/driven/storage"
	"github.com/custodia-labs/neuroconv/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/neuroconv/internal/adapters/driving/cli"
	"github.com/custodia-labs/neuroconv/internal/core/services"
	"github.com/custodia-labs/neuroconv/internal/datainterfaces"
)

// Set by the linker: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Converter:    services.NewConverter(storage.NewOpener()),
		Catalog:      datainterfaces.Default(),
		ReadDocument: sqlite.ReadDocument,
	})

	err := cli.Execute(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	stop()
	os.Exit(cli.ExitCode(err))
}
