package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"etlrun/internal/inputs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const debounce = 50 * time.Millisecond

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) run(_ context.Context, changed []string) {
	r.mu.Lock()
	r.batches = append(r.batches, changed)
	r.mu.Unlock()
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func startWatcher(t *testing.T, w *Watcher) (cancel func()) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Watch(ctx) }()

	// Give the watcher time to register the folder.
	time.Sleep(100 * time.Millisecond)
	return func() {
		cancelCtx()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func write(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))
}

func newMatcher(t *testing.T) *inputs.Matcher {
	t.Helper()
	m, err := inputs.NewMatcher(nil)
	require.NoError(t, err)
	return m
}

func TestWatch_BatchesChanges(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	rec := &recorder{}
	w := New(dir, newMatcher(t), debounce, rec.run)
	stop := startWatcher(t, w)

	write(t, filepath.Join(dir, "a.csv"))
	write(t, filepath.Join(dir, "b.xlsx"))

	require.Eventually(t, func() bool { return w.Runs() == 1 }, 5*time.Second, 10*time.Millisecond)
	stop()

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.xlsx")}, batches[0])
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	rec := &recorder{}
	w := New(dir, newMatcher(t), debounce, rec.run)
	stop := startWatcher(t, w)

	write(t, filepath.Join(dir, "notes.txt"))
	time.Sleep(5 * debounce)
	stop()

	assert.Empty(t, rec.snapshot())
}

func TestWatch_RunsNeverOverlap(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()

	var active, maxActive int32
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	run := func(_ context.Context, _ []string) {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		started <- struct{}{}
		<-release
		atomic.AddInt32(&active, -1)
	}
	w := New(dir, newMatcher(t), debounce, run)
	stop := startWatcher(t, w)

	write(t, filepath.Join(dir, "first.csv"))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not start")
	}

	// Changes during a run queue exactly one follow-up.
	write(t, filepath.Join(dir, "second.csv"))
	write(t, filepath.Join(dir, "third.csv"))
	time.Sleep(3 * debounce)
	release <- struct{}{}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("follow-up run did not start")
	}
	close(release)

	require.Eventually(t, func() bool { return w.Runs() >= 2 }, 5*time.Second, 10*time.Millisecond)
	stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestWatch_CreatesMissingFolder(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := filepath.Join(t.TempDir(), "input")
	w := New(dir, newMatcher(t), 0, func(context.Context, []string) {})
	assert.Equal(t, DefaultDebounce, w.Debounce)

	stop := startWatcher(t, w)
	stop()
	assert.DirExists(t, dir)
}
