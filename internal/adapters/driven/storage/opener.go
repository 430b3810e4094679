// Package storage selects the document target adapter for a run.
package storage

import (
	"context"

	"github.com/custodia-labs/neuroconv/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/neuroconv/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
)

// Ensure Opener implements the interface.
var _ driven.TargetOpener = Opener{}

// Opener opens SQLite document files for persisted modes and in-memory
// documents otherwise.
type Opener struct{}

// NewOpener creates a target opener.
func NewOpener() Opener {
	return Opener{}
}

// Open prepares the target described by desc.
func (Opener) Open(ctx context.Context, desc domain.TargetDescriptor) (driven.DocumentTarget, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if desc.Mode == domain.ModeInMemory {
		return memory.NewTarget(desc.Document), nil
	}
	return sqlite.OpenTarget(ctx, desc.Path, desc.Mode)
}
