package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchSet_Matches(t *testing.T) {
	dir := t.TempDir()
	runPath := filepath.Join(dir, "run.toml")
	bin := filepath.Join(dir, "data", "rec_g0_t0.nidq.bin")

	ws := newWatchSet(runPath, filepath.Join(dir, "session.db"), []string{bin})

	assert.True(t, ws.matches(runPath))
	assert.True(t, ws.matches(bin))
	assert.True(t, ws.matches(filepath.Join(dir, "data", "rec_g0_t0.nidq.meta")))
	assert.False(t, ws.matches(filepath.Join(dir, "session.db")))
	assert.False(t, ws.matches(filepath.Join(dir, "run.yaml")))
	assert.ElementsMatch(t, []string{dir, filepath.Join(dir, "data")}, ws.dirs)
}

func TestWatchSet_Relevant(t *testing.T) {
	runPath := filepath.Join(t.TempDir(), "run.toml")
	ws := newWatchSet(runPath, "", nil)

	assert.True(t, ws.relevant(fsnotify.Event{Name: runPath, Op: fsnotify.Write}))
	assert.True(t, ws.relevant(fsnotify.Event{Name: runPath, Op: fsnotify.Create}))
	assert.True(t, ws.relevant(fsnotify.Event{Name: runPath, Op: fsnotify.Remove}))
	assert.False(t, ws.relevant(fsnotify.Event{Name: runPath, Op: fsnotify.Chmod}))
	assert.False(t, ws.relevant(fsnotify.Event{Name: runPath + ".bak", Op: fsnotify.Write}))
}

func TestWatchSet_IgnoresOutputSharingSourceStem(t *testing.T) {
	dir := t.TempDir()
	runPath := filepath.Join(dir, "run.toml")
	trials := filepath.Join(dir, "trials.csv")
	output := filepath.Join(dir, "trials.db")

	ws := newWatchSet(runPath, output, []string{trials})

	for _, name := range []string{output, output + ".tmp", output + "-journal", output + "-wal", output + ".tmp-journal"} {
		assert.False(t, ws.relevant(fsnotify.Event{Name: name, Op: fsnotify.Create}), name)
		assert.False(t, ws.relevant(fsnotify.Event{Name: name, Op: fsnotify.Rename}), name)
	}
	assert.True(t, ws.relevant(fsnotify.Event{Name: trials, Op: fsnotify.Write}))
	assert.True(t, ws.relevant(fsnotify.Event{Name: filepath.Join(dir, "trials.tsv"), Op: fsnotify.Create}))
}

func TestLoadWatchSet_ExcludesOutput(t *testing.T) {
	dir, runPath := writeTestRun(t)
	require.NoError(t, os.WriteFile(runPath, []byte(strings.Replace(testRunFile, `path = "session.db"`, `path = "trials.db"`, 1)), 0o600))

	ws := loadWatchSet(runPath, "")
	assert.False(t, ws.matches(filepath.Join(dir, "trials.db")))
	assert.True(t, ws.matches(filepath.Join(dir, "trials.csv")))

	other := filepath.Join(dir, "trials.sqlite")
	ws = loadWatchSet(runPath, other)
	assert.False(t, ws.matches(other))
	assert.False(t, ws.matches(other+".tmp"))
}

func TestLoadWatchSet_IncludesSources(t *testing.T) {
	dir, runPath := writeTestRun(t)

	ws := loadWatchSet(runPath, "")
	assert.True(t, ws.matches(filepath.Join(dir, "trials.csv")))

	require.NoError(t, os.WriteFile(runPath, []byte("not toml ["), 0o600))
	ws = loadWatchSet(runPath, "")
	assert.True(t, ws.matches(runPath))
	assert.False(t, ws.matches(filepath.Join(dir, "trials.csv")))
}

func TestWatchRun_RerunsOnChange(t *testing.T) {
	dir, runPath := writeTestRun(t)
	trials := filepath.Join(dir, "trials.csv")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchRun(ctx, convertCmd, runPath, 10*time.Millisecond, func(context.Context) {
			runs.Add(1)
		})
	}()

	// The watcher starts asynchronously; keep touching the source until it fires.
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(trials, []byte(testTrials), 0o600)
		return runs.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
