package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
)

// Ensure Target implements the interface.
var _ driven.DocumentTarget = (*Target)(nil)

// ErrClosed is returned when a finalized or aborted target is used.
var ErrClosed = errors.New("target closed")

// buildSuffix names the file a fresh document is built in before it replaces
// the target path.
const buildSuffix = ".tmp"

// Target is a document file being written by one conversion run.
//
// Every write of the run happens inside one transaction. Create and overwrite
// build a fresh file beside the target and rename it over the target on
// Finalize, so a failed run never clobbers an existing file. Append writes into
// the existing file and rolls back on Abort.
type Target struct {
	mu      sync.Mutex
	store   *Store
	tx      *sql.Tx
	path    string
	build   string
	created bool
	closed  bool
}

// OpenTarget opens the document file at path for a run in the given mode.
func OpenTarget(ctx context.Context, path string, mode domain.Mode) (*Target, error) {
	t := &Target{path: path, build: path}

	switch mode {
	case domain.ModeCreate, domain.ModeOverwrite:
		t.build = path + buildSuffix
		t.created = true
		if err := removeFile(t.build); err != nil {
			return nil, fmt.Errorf("%w: removing stale build file: %w", domain.ErrWrite, err)
		}
	case domain.ModeAppend:
		_, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			t.created = true
		case err != nil:
			return nil, fmt.Errorf("%w: stat %s: %w", domain.ErrWrite, path, err)
		default:
			if err := checkDocumentFile(ctx, path); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: mode %q is not a file mode", domain.ErrInvalidInput, mode)
	}

	store, err := OpenStore(ctx, t.build)
	if err != nil {
		t.discard()
		return nil, fmt.Errorf("%w: %w", domain.ErrWrite, err)
	}
	t.store = store

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		store.Close()
		t.discard()
		return nil, fmt.Errorf("%w: beginning transaction: %w", domain.ErrWrite, err)
	}
	t.tx = tx
	return t, nil
}

// SetSession writes the document header.
func (t *Target) SetSession(ctx context.Context, session domain.Session) error {
	return t.within(func(tx *sql.Tx) error {
		existing, err := readSession(ctx, tx)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		case existing.SameContent(session):
			return nil
		default:
			return fmt.Errorf("%w: session %q differs from existing session %q",
				domain.ErrTargetExistsConflict, session.Identifier, existing.Identifier)
		}

		extra, err := marshalMetadata(session.Extra)
		if err != nil {
			return fmt.Errorf("marshalling session extra: %w", err)
		}
		subject, err := marshalMetadata(session.Subject)
		if err != nil {
			return fmt.Errorf("marshalling subject: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO document (id, identifier, description, start_time, extra, subject)
			VALUES (1, ?, ?, ?, ?, ?)
		`, session.Identifier, session.Description, session.StartTime, extra, subject)
		if err != nil {
			return fmt.Errorf("%w: saving session: %w", domain.ErrWrite, err)
		}
		return nil
	})
}

// AddDevice records a device.
func (t *Target) AddDevice(ctx context.Context, device domain.Device) error {
	if device.Name == "" {
		return fmt.Errorf("%w: device without name", domain.ErrInvalidInput)
	}
	return t.within(func(tx *sql.Tx) error {
		existing := domain.Device{Name: device.Name}
		err := tx.QueryRowContext(ctx, "SELECT description, manufacturer FROM devices WHERE name = ?", device.Name).
			Scan(&existing.Description, &existing.Manufacturer)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("querying device: %w", err)
		case existing == device:
			return nil
		default:
			return fmt.Errorf("%w: device %q", domain.ErrTargetExistsConflict, device.Name)
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO devices (name, description, manufacturer) VALUES (?, ?, ?)",
			device.Name, device.Description, device.Manufacturer)
		if err != nil {
			return fmt.Errorf("%w: saving device: %w", domain.ErrWrite, err)
		}
		return nil
	})
}

// AddProcessingModule creates a processing module, then adds any series it carries.
func (t *Target) AddProcessingModule(ctx context.Context, module domain.ProcessingModule) error {
	if module.Name == "" {
		return fmt.Errorf("%w: processing module without name", domain.ErrInvalidInput)
	}
	err := t.within(func(tx *sql.Tx) error {
		existing := domain.ProcessingModule{Name: module.Name}
		err := tx.QueryRowContext(ctx, "SELECT description FROM processing_modules WHERE name = ?", module.Name).
			Scan(&existing.Description)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("querying processing module: %w", err)
		case existing.SameHeader(module):
			return nil
		default:
			return fmt.Errorf("%w: processing module %q", domain.ErrTargetExistsConflict, module.Name)
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO processing_modules (name, description) VALUES (?, ?)",
			module.Name, module.Description)
		if err != nil {
			return fmt.Errorf("%w: saving processing module: %w", domain.ErrWrite, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, ts := range module.TimeSeries {
		if err := t.AddTimeSeries(ctx, module.Name, ts); err != nil {
			return err
		}
	}
	return nil
}

// AddTimeSeries stores a series and its chunks.
func (t *Target) AddTimeSeries(ctx context.Context, module string, ts domain.TimeSeries) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	return t.within(func(tx *sql.Tx) error {
		if module != "" {
			var n int
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM processing_modules WHERE name = ?", module).
				Scan(&n); err != nil {
				return fmt.Errorf("querying processing module: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("%w: processing module %q", domain.ErrNotFound, module)
			}
		}

		id, err := findSeries(ctx, tx, module, ts.Name)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		default:
			existing, err := readSeries(ctx, tx, id)
			if err != nil {
				return err
			}
			if existing.SameContent(ts) {
				return nil
			}
			return fmt.Errorf("%w: time series %q", domain.ErrTargetExistsConflict, ts.Name)
		}

		return insertSeries(ctx, tx, module, ts)
	})
}

func insertSeries(ctx context.Context, tx *sql.Tx, module string, ts domain.TimeSeries) error {
	channelIDs, err := json.Marshal(ts.ChannelIDs)
	if err != nil {
		return fmt.Errorf("marshalling channel ids: %w", err)
	}
	channelConversion, err := json.Marshal(ts.ChannelConversion)
	if err != nil {
		return fmt.Errorf("marshalling channel conversion: %w", err)
	}

	frames := ts.NumFrames()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO time_series (module, name, description, unit, rate, starting_time, conversion,
			offset_value, channel_ids, channel_conversion, num_channels, num_frames, chunk_frames)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, module, ts.Name, ts.Description, ts.Unit, ts.Rate, ts.StartingTime, ts.Conversion,
		ts.Offset, string(channelIDs), string(channelConversion), ts.NumChannels, frames, ts.ChunkFrames)
	if err != nil {
		return fmt.Errorf("%w: saving time series: %w", domain.ErrWrite, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: reading time series id: %w", domain.ErrWrite, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO time_series_chunks (series_id, idx, data) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	chunk := ts.ChunkFrames
	if chunk <= 0 {
		chunk = frames
	}
	for idx, start := 0, 0; start < frames; idx, start = idx+1, start+chunk {
		end := min(start+chunk, frames)
		blob, err := encodeChunk(ts.Data[start*ts.NumChannels : end*ts.NumChannels])
		if err != nil {
			return fmt.Errorf("%w: encoding chunk %d: %w", domain.ErrWrite, idx, err)
		}
		if _, err := stmt.ExecContext(ctx, id, idx, blob); err != nil {
			return fmt.Errorf("%w: saving chunk %d: %w", domain.ErrWrite, idx, err)
		}
	}
	return nil
}

// AddTimeIntervals stores an interval table.
func (t *Target) AddTimeIntervals(ctx context.Context, table domain.TimeIntervals) error {
	if err := table.Validate(); err != nil {
		return err
	}
	return t.within(func(tx *sql.Tx) error {
		existing, err := readIntervals(ctx, tx, table.Name)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		case existing.SameContent(table):
			return nil
		default:
			return fmt.Errorf("%w: interval table %q", domain.ErrTargetExistsConflict, table.Name)
		}

		columns, err := json.Marshal(table.Columns)
		if err != nil {
			return fmt.Errorf("%w: marshalling columns: %w", domain.ErrWrite, err)
		}
		_, err = tx.ExecContext(ctx, "INSERT INTO time_intervals (name, description, columns) VALUES (?, ?, ?)",
			table.Name, table.Description, string(columns))
		if err != nil {
			return fmt.Errorf("%w: saving time intervals: %w", domain.ErrWrite, err)
		}
		return nil
	})
}

// Document reads everything written so far, including uncommitted writes.
func (t *Target) Document(ctx context.Context) (*domain.Document, error) {
	var doc *domain.Document
	err := t.within(func(tx *sql.Tx) error {
		var err error
		doc, err = readDocument(ctx, tx)
		return err
	})
	return doc, err
}

// Finalize commits the run and moves the document into place.
func (t *Target) Finalize(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.closed = true

	if err := t.tx.Commit(); err != nil {
		t.store.Close()
		t.discard()
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrWrite, err)
	}
	if err := t.store.Close(); err != nil {
		t.discard()
		return fmt.Errorf("%w: closing database: %w", domain.ErrWrite, err)
	}
	if t.build != t.path {
		if err := os.Rename(t.build, t.path); err != nil {
			t.discard()
			return fmt.Errorf("%w: replacing %s: %w", domain.ErrWrite, t.path, err)
		}
	}
	return nil
}

// Abort rolls back the run. Files created by the run are removed.
func (t *Target) Abort() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	rollbackErr := t.tx.Rollback()
	closeErr := t.store.Close()
	t.discard()
	return errors.Join(rollbackErr, closeErr)
}

// discard removes the file a run created.
func (t *Target) discard() {
	if !t.created {
		return
	}
	_ = removeFile(t.build)
}

func (t *Target) within(fn func(tx *sql.Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	return fn(t.tx)
}

// removeFile removes path and its SQLite side files, ignoring missing files.
func removeFile(path string) error {
	var errs []error
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
