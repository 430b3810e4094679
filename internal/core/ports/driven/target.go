package driven

import (
	"context"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
)

// DocumentWriter is the part of the shared target that data interfaces write to.
//
// Every Add method is idempotent for identical content and returns
// domain.ErrTargetExistsConflict when the name is taken by different content.
type DocumentWriter interface {
	// AddDevice records acquisition hardware.
	AddDevice(ctx context.Context, device domain.Device) error

	// AddTimeSeries stores a time series. An empty module stores it under
	// acquisition; otherwise the processing module must exist.
	AddTimeSeries(ctx context.Context, module string, ts domain.TimeSeries) error

	// AddProcessingModule creates a processing module.
	AddProcessingModule(ctx context.Context, module domain.ProcessingModule) error

	// AddTimeIntervals stores an interval table.
	AddTimeIntervals(ctx context.Context, table domain.TimeIntervals) error
}

// DocumentTarget is the shared output of a conversion run.
// A target is used by one run at a time.
type DocumentTarget interface {
	DocumentWriter

	// SetSession writes the document header. Appending to a target whose
	// header differs returns domain.ErrTargetExistsConflict.
	SetSession(ctx context.Context, session domain.Session) error

	// Document returns a snapshot of everything written so far.
	Document(ctx context.Context) (*domain.Document, error)

	// Finalize makes the written content durable. After Finalize the target
	// must not be used.
	Finalize(ctx context.Context) error

	// Abort discards everything written since Open. It is safe to call after
	// Finalize, in which case it does nothing.
	Abort() error
}

// TargetOpener opens shared targets.
type TargetOpener interface {
	// Open prepares a target according to the descriptor's mode.
	Open(ctx context.Context, desc domain.TargetDescriptor) (DocumentTarget, error)
}
