// Package watch reruns the ETL script whenever new input files land in the
// input folder.
package watch

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"etlrun/internal/inputs"
	e "etlrun/pkg/errors"
	"etlrun/pkg/logger"
)

// DefaultDebounce is the quiet period after the last event before a run.
const DefaultDebounce = 2 * time.Second

// RunFunc performs one ETL run for the files that changed.
type RunFunc func(ctx context.Context, changed []string)

// Watcher observes one folder. Runs never overlap: changes seen while a run
// is in progress queue a single follow-up run.
type Watcher struct {
	Folder   string
	Matcher  *inputs.Matcher
	Debounce time.Duration
	Run      RunFunc

	mu      sync.Mutex
	pending map[string]struct{}
	runs    int
}

// New returns a Watcher for folder.
func New(folder string, m *inputs.Matcher, debounce time.Duration, run RunFunc) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{Folder: folder, Matcher: m, Debounce: debounce, Run: run}
}

// Runs returns how many runs have completed.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Watch blocks until ctx is cancelled. The folder is created when missing.
// An in-flight run is waited for before Watch returns.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := os.MkdirAll(w.Folder, 0o755); err != nil {
		return e.Wrap(err, e.ErrWatchFailed, "Cannot create input folder").
			WithContext("folder", w.Folder)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return e.Wrap(err, e.ErrWatchFailed, "Cannot start file watcher")
	}
	defer fw.Close()
	if err := fw.Add(w.Folder); err != nil {
		return e.Wrap(err, e.ErrWatchFailed, "Cannot watch input folder").
			WithContext("folder", w.Folder)
	}
	logger.Verbosef("Watching %s (debounce %v)", w.Folder, w.Debounce)

	timer := time.NewTimer(w.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var (
		done    chan struct{}
		running bool
		queued  bool
	)
	start := func() {
		batch := w.drain()
		if len(batch) == 0 {
			return
		}
		running = true
		done = make(chan struct{})
		go func(ch chan struct{}) {
			defer close(ch)
			logger.Verbosef("Input changed: %d file(s)", len(batch))
			w.Run(ctx, batch)
			w.mu.Lock()
			w.runs++
			w.mu.Unlock()
		}(done)
	}

	for {
		select {
		case <-ctx.Done():
			if running {
				<-done
			}
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			logger.Debugf("watch: %s %s", ev.Op, ev.Name)
			w.add(ev.Name)
			if running {
				queued = true
				continue
			}
			timer.Reset(w.Debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watch error: %v", err)

		case <-timer.C:
			if !running {
				start()
			}

		case <-done:
			running = false
			done = nil
			if queued {
				queued = false
				timer.Reset(w.Debounce)
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return w.Matcher.Match(ev.Name)
}

func (w *Watcher) add(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		w.pending = make(map[string]struct{})
	}
	w.pending[name] = struct{}{}
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	files := make([]string, 0, len(w.pending))
	for f := range w.pending {
		files = append(files, f)
	}
	w.pending = nil
	sort.Strings(files)
	return files
}
