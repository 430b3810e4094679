package cli

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/neuroconv/internal/adapters/driven/config/file"
	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/logger"
)

// watchSet is the set of files whose changes trigger a new run.
type watchSet struct {
	files   map[string]bool
	// stems match companion files such as the .meta beside a .bin.
	stems   map[string]bool
	// ignored are the output document and its build and journal files.
	ignored map[string]bool
	dirs    []string
}

// outputSuffixes name the files SQLite and the target write beside the output.
var outputSuffixes = []string{"", ".tmp", "-journal", "-wal", "-shm", ".tmp-journal", ".tmp-wal", ".tmp-shm"}

func newWatchSet(runPath, output string, sources []string) *watchSet {
	ws := &watchSet{
		files:   make(map[string]bool),
		stems:   make(map[string]bool),
		ignored: make(map[string]bool),
	}
	if output != "" {
		output = filepath.Clean(output)
		for _, suffix := range outputSuffixes {
			ws.ignored[output+suffix] = true
		}
	}
	seenDir := make(map[string]bool)

	add := func(p string, companions bool) {
		p = filepath.Clean(p)
		ws.files[p] = true
		if companions {
			ws.stems[stem(p)] = true
		}
		dir := filepath.Dir(p)
		if !seenDir[dir] {
			seenDir[dir] = true
			ws.dirs = append(ws.dirs, dir)
		}
	}

	add(runPath, false)
	for _, p := range sources {
		add(p, true)
	}
	return ws
}

// matches reports whether an event on path concerns the run.
func (ws *watchSet) matches(path string) bool {
	path = filepath.Clean(path)
	if ws.ignored[path] {
		return false
	}
	return ws.files[path] || ws.stems[stem(path)]
}

// relevant filters the event kinds that change file content.
func (ws *watchSet) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	return ws.matches(event.Name)
}

func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// loadWatchSet reads the run file to learn which sources it depends on and
// where it writes. outputFlag overrides the output path of the file.
// A run file that no longer parses still watches itself.
func loadWatchSet(runPath, outputFlag string) *watchSet {
	rf, err := file.LoadRunFile(runPath)
	if err != nil {
		return newWatchSet(runPath, outputFlag, nil)
	}
	output := outputFlag
	if target, err := rf.Target(outputFlag, string(domain.ModeCreate)); err == nil {
		output = target.Path
	}
	return newWatchSet(runPath, output, rf.Paths())
}

// watchRun calls run after every debounced change to the run file or one of
// its sources, until ctx is cancelled.
func watchRun(ctx context.Context, cmd *cobra.Command, runPath string, debounce time.Duration, run func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	ws := loadWatchSet(runPath, convertOutput)
	watched := make(map[string]bool)
	addDirs := func() {
		for _, dir := range ws.dirs {
			if watched[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				logger.Warn("Cannot watch %s: %v", dir, err)
				continue
			}
			watched[dir] = true
		}
	}
	addDirs()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", runPath)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ws.relevant(event) {
				continue
			}
			logger.Debug("Change detected: %s %s", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			run(ctx)
			// The run file may now list different sources.
			ws = loadWatchSet(runPath, convertOutput)
			addDirs()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}
