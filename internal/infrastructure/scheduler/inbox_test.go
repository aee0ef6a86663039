package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ComplianceReview/internal/config"
)

type collector struct {
	mu    sync.Mutex
	paths []string
	seen  chan string
}

func newCollector() *collector {
	return &collector{seen: make(chan string, 16)}
}

func (c *collector) job(path string) {
	c.mu.Lock()
	c.paths = append(c.paths, path)
	c.mu.Unlock()
	c.seen <- path
}

func (c *collector) next(t *testing.T) string {
	t.Helper()
	select {
	case p := <-c.seen:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("no job within 5s")
		return ""
	}
}

func watcher(t *testing.T, dir string) *InboxWatcher {
	return NewInboxWatcher(config.WatcherConfig{
		Inbox:      dir,
		Debounce:   50 * time.Millisecond,
		Extensions: []string{".txt", "PDF"},
	}, zaptest.NewLogger(t).Sugar())
}

func TestInboxWatcherPicksUpExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o600))

	w := watcher(t, dir)
	c := newCollector()
	require.NoError(t, w.Start(context.Background(), c.job))
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	assert.Equal(t, filepath.Join(dir, "a.pdf"), c.next(t))
	assert.Equal(t, filepath.Join(dir, "b.txt"), c.next(t))

	target := filepath.Join(dir, "new.txt")
	f, err := os.Create(target)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = f.WriteString("chunk\n")
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	assert.Equal(t, target, c.next(t))

	// The burst of writes is handed over once.
	select {
	case p := <-c.seen:
		t.Fatalf("unexpected second job for %s", p)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestInboxWatcherIgnoresFilteredFiles(t *testing.T) {
	dir := t.TempDir()
	w := watcher(t, dir)
	c := newCollector()
	require.NoError(t, w.Start(context.Background(), c.job))
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("x"), 0o600))

	assert.Equal(t, filepath.Join(dir, "ok.txt"), c.next(t))
}

func TestInboxWatcherCreatesInboxAndStopsTwice(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	w := watcher(t, dir)
	require.NoError(t, w.Start(context.Background(), func(string) {}))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, w.Stop(context.Background()))
	assert.NoError(t, w.Stop(context.Background()))
}

func TestAccepts(t *testing.T) {
	w := NewInboxWatcher(config.WatcherConfig{}, zaptest.NewLogger(t).Sugar())
	assert.True(t, w.accepts("any.bin"))
	assert.False(t, w.accepts("draft.txt~"))
	assert.False(t, w.accepts(".DS_Store"))
}
