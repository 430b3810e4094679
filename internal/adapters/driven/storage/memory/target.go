package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
)

// Ensure Target implements the interface.
var _ driven.DocumentTarget = (*Target)(nil)

// ErrClosed is returned when a finalized or aborted target is used.
var ErrClosed = errors.New("target closed")

// Target is an in-memory implementation of driven.DocumentTarget.
//
// Writes go to a private working copy. Finalize publishes the copy into the
// caller's document, if one was given; Abort drops it.
type Target struct {
	mu     sync.Mutex
	dst    *domain.Document
	work   *domain.Document
	closed bool
}

// NewTarget creates an in-memory target. With a non-nil dst the run appends
// to dst's existing content and publishes into it on Finalize.
func NewTarget(dst *domain.Document) *Target {
	work := domain.NewDocument()
	if dst != nil {
		work = dst.Clone()
	}
	return &Target{dst: dst, work: work}
}

// SetSession writes the document header.
func (t *Target) SetSession(_ context.Context, session domain.Session) error {
	return t.apply(func(doc *domain.Document) error { return doc.SetSession(session) })
}

// AddDevice records a device.
func (t *Target) AddDevice(_ context.Context, device domain.Device) error {
	return t.apply(func(doc *domain.Document) error { return doc.AddDevice(device) })
}

// AddTimeSeries stores a time series.
func (t *Target) AddTimeSeries(_ context.Context, module string, ts domain.TimeSeries) error {
	return t.apply(func(doc *domain.Document) error { return doc.AddTimeSeries(module, ts) })
}

// AddProcessingModule creates a processing module.
func (t *Target) AddProcessingModule(_ context.Context, module domain.ProcessingModule) error {
	return t.apply(func(doc *domain.Document) error { return doc.AddProcessingModule(module) })
}

// AddTimeIntervals stores an interval table.
func (t *Target) AddTimeIntervals(_ context.Context, table domain.TimeIntervals) error {
	return t.apply(func(doc *domain.Document) error { return doc.AddTimeIntervals(table) })
}

// Document returns a copy of the working document.
func (t *Target) Document(_ context.Context) (*domain.Document, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	return t.work.Clone(), nil
}

// Finalize publishes the working document.
func (t *Target) Finalize(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.dst != nil {
		*t.dst = *t.work
	}
	t.closed = true
	return nil
}

// Abort drops the working document.
func (t *Target) Abort() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.work = nil
	return nil
}

func (t *Target) apply(fn func(doc *domain.Document) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	return fn(t.work)
}
