package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/neuroconv/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/neuroconv/internal/core/domain"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is a document file backed by SQLite.
type Store struct {
	db *sql.DB
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OpenStore opens (creating if needed) the document file at path and brings
// its schema up to date.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	// A single connection keeps every statement of a run on one transaction.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}

	// Run migrations
	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Document reads the whole document.
func (s *Store) Document(ctx context.Context) (*domain.Document, error) {
	return readDocument(ctx, s.db)
}

// ReadDocument reads a finalized document file.
// Returns domain.ErrNotFound if no file exists at path.
func ReadDocument(ctx context.Context, path string) (*domain.Document, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := checkDocumentFile(ctx, path); err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.Document(ctx)
}

// checkDocumentFile verifies an existing file is a document store before
// anything writes to it.
func checkDocumentFile(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var count int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('schema_migrations', 'document')",
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("%w: %s is not a document file: %w", domain.ErrTargetExistsConflict, path, err)
	}
	if count != 2 {
		return fmt.Errorf("%w: %s is not a document file", domain.ErrTargetExistsConflict, path)
	}
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(ctx, name, version, string(content)); err != nil {
			return err
		}
	}

	return nil
}

// applyMigration runs one migration and records its version in a single
// transaction, so a failing migration leaves the schema unchanged.
func (s *Store) applyMigration(ctx context.Context, name string, version int, content string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration %s: %w", name, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, content); err != nil {
		return fmt.Errorf("executing migration %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("recording migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %s: %w", name, err)
	}
	return nil
}

// ==================== Readers ====================

func readDocument(ctx context.Context, q querier) (*domain.Document, error) {
	doc := domain.NewDocument()

	session, err := readSession(ctx, q)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if session != nil {
		doc.Session = *session
	}

	if err := readDevices(ctx, q, doc); err != nil {
		return nil, err
	}
	if err := readProcessingModules(ctx, q, doc); err != nil {
		return nil, err
	}
	if err := readAllSeries(ctx, q, doc); err != nil {
		return nil, err
	}
	if err := readAllIntervals(ctx, q, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func readSession(ctx context.Context, q querier) (*domain.Session, error) {
	var s domain.Session
	var extraJSON, subjectJSON string
	err := q.QueryRowContext(ctx, `
		SELECT identifier, description, start_time, extra, subject
		FROM document WHERE id = 1
	`).Scan(&s.Identifier, &s.Description, &s.StartTime, &extraJSON, &subjectJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	if s.Extra, err = unmarshalMetadata(extraJSON); err != nil {
		return nil, fmt.Errorf("unmarshaling session extra: %w", err)
	}
	if s.Subject, err = unmarshalMetadata(subjectJSON); err != nil {
		return nil, fmt.Errorf("unmarshaling subject: %w", err)
	}
	return &s, nil
}

func readDevices(ctx context.Context, q querier, doc *domain.Document) error {
	rows, err := q.QueryContext(ctx, "SELECT name, description, manufacturer FROM devices ORDER BY name")
	if err != nil {
		return fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.Name, &d.Description, &d.Manufacturer); err != nil {
			return fmt.Errorf("scanning device: %w", err)
		}
		doc.Devices[d.Name] = d
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating devices: %w", err)
	}
	return nil
}

func readProcessingModules(ctx context.Context, q querier, doc *domain.Document) error {
	rows, err := q.QueryContext(ctx, "SELECT name, description FROM processing_modules ORDER BY name")
	if err != nil {
		return fmt.Errorf("querying processing modules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := domain.ProcessingModule{TimeSeries: make(map[string]domain.TimeSeries)}
		if err := rows.Scan(&m.Name, &m.Description); err != nil {
			return fmt.Errorf("scanning processing module: %w", err)
		}
		doc.Processing[m.Name] = m
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating processing modules: %w", err)
	}
	return nil
}

type seriesRef struct {
	id     int64
	module string
	name   string
}

func readAllSeries(ctx context.Context, q querier, doc *domain.Document) error {
	rows, err := q.QueryContext(ctx, "SELECT id, module, name FROM time_series ORDER BY module, name")
	if err != nil {
		return fmt.Errorf("querying time series: %w", err)
	}
	var refs []seriesRef //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r seriesRef
		if err := rows.Scan(&r.id, &r.module, &r.name); err != nil {
			rows.Close()
			return fmt.Errorf("scanning time series: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating time series: %w", err)
	}
	rows.Close()

	for _, r := range refs {
		ts, err := readSeries(ctx, q, r.id)
		if err != nil {
			return err
		}
		if r.module == "" {
			doc.Acquisition[r.name] = *ts
			continue
		}
		mod, ok := doc.Processing[r.module]
		if !ok {
			return fmt.Errorf("time series %q references missing processing module %q", r.name, r.module)
		}
		mod.TimeSeries[r.name] = *ts
	}
	return nil
}

// findSeries returns the id of a stored series, or domain.ErrNotFound.
func findSeries(ctx context.Context, q querier, module, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, "SELECT id FROM time_series WHERE module = ? AND name = ?", module, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("querying time series: %w", err)
	}
	return id, nil
}

func readSeries(ctx context.Context, q querier, id int64) (*domain.TimeSeries, error) {
	var ts domain.TimeSeries
	var channelIDs, channelConversion string
	var numFrames int
	err := q.QueryRowContext(ctx, `
		SELECT name, description, unit, rate, starting_time, conversion, offset_value,
			channel_ids, channel_conversion, num_channels, num_frames, chunk_frames
		FROM time_series WHERE id = ?
	`, id).Scan(&ts.Name, &ts.Description, &ts.Unit, &ts.Rate, &ts.StartingTime, &ts.Conversion,
		&ts.Offset, &channelIDs, &channelConversion, &ts.NumChannels, &numFrames, &ts.ChunkFrames)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning time series: %w", err)
	}
	if err := json.Unmarshal([]byte(channelIDs), &ts.ChannelIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling channel ids: %w", err)
	}
	if err := json.Unmarshal([]byte(channelConversion), &ts.ChannelConversion); err != nil {
		return nil, fmt.Errorf("unmarshaling channel conversion: %w", err)
	}

	rows, err := q.QueryContext(ctx, "SELECT data FROM time_series_chunks WHERE series_id = ? ORDER BY idx", id)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	ts.Data = make([]int16, 0, numFrames*ts.NumChannels)
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		samples, err := decodeChunk(blob)
		if err != nil {
			return nil, fmt.Errorf("time series %q: %w", ts.Name, err)
		}
		ts.Data = append(ts.Data, samples...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	if len(ts.Data) != numFrames*ts.NumChannels {
		return nil, fmt.Errorf("time series %q: stored %d samples, want %d",
			ts.Name, len(ts.Data), numFrames*ts.NumChannels)
	}
	return &ts, nil
}

func readAllIntervals(ctx context.Context, q querier, doc *domain.Document) error {
	rows, err := q.QueryContext(ctx, "SELECT name, description, columns FROM time_intervals ORDER BY name")
	if err != nil {
		return fmt.Errorf("querying time intervals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.TimeIntervals
		var columnsJSON string
		if err := rows.Scan(&t.Name, &t.Description, &columnsJSON); err != nil {
			return fmt.Errorf("scanning time intervals: %w", err)
		}
		if err := json.Unmarshal([]byte(columnsJSON), &t.Columns); err != nil {
			return fmt.Errorf("unmarshaling columns: %w", err)
		}
		doc.Intervals[t.Name] = t
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating time intervals: %w", err)
	}
	return nil
}

func readIntervals(ctx context.Context, q querier, name string) (*domain.TimeIntervals, error) {
	t := domain.TimeIntervals{Name: name}
	var columnsJSON string
	err := q.QueryRowContext(ctx, "SELECT description, columns FROM time_intervals WHERE name = ?", name).
		Scan(&t.Description, &columnsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning time intervals: %w", err)
	}
	if err := json.Unmarshal([]byte(columnsJSON), &t.Columns); err != nil {
		return nil, fmt.Errorf("unmarshaling columns: %w", err)
	}
	return &t, nil
}

// ==================== Helper Functions ====================

func marshalMetadata(m domain.Metadata) (string, error) {
	if len(m) == 0 {
		return jsonNull, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalMetadata(s string) (domain.Metadata, error) {
	if s == "" || s == jsonNull {
		return nil, nil
	}
	var m domain.Metadata
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}
