// Package scheduler triggers review jobs when documents land in the inbox
// directory.
package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/ports"
)

// InboxWatcher reports files created in or written to the inbox. Events for
// the same file are debounced so a document is handed over once its writer
// has gone quiet. Jobs run one at a time in arrival order.
type InboxWatcher struct {
	dir        string
	debounce   time.Duration
	extensions map[string]bool
	log        *zap.SugaredLogger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timers  map[string]*time.Timer
	queue   chan string
	stop    chan struct{}
	done    sync.WaitGroup
}

var _ ports.Watcher = (*InboxWatcher)(nil)

// NewInboxWatcher builds a watcher for cfg.Inbox.
func NewInboxWatcher(cfg config.WatcherConfig, log *zap.SugaredLogger) *InboxWatcher {
	ext := make(map[string]bool, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		ext[e] = true
	}
	return &InboxWatcher{
		dir:        cfg.Inbox,
		debounce:   cfg.Debounce,
		extensions: ext,
		log:        log,
	}
}

// Start queues the documents already in the inbox and then follows new
// arrivals until ctx is canceled or Stop is called.
func (w *InboxWatcher) Start(ctx context.Context, job func(path string)) error {
	if job == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return errors.Wrapf(err, "create inbox %s", w.dir)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create fsnotify watcher")
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return errors.Wrapf(err, "watch inbox %s", w.dir)
	}

	w.watcher = fw
	w.timers = map[string]*time.Timer{}
	w.queue = make(chan string, 64)
	w.stop = make(chan struct{})

	existing, err := w.existing()
	if err != nil {
		w.log.Warnw("inbox scan failed", "dir", w.dir, "error", err)
	}

	w.done.Add(2)
	go w.watchLoop(ctx, fw, w.stop)
	go w.runLoop(ctx, job, existing, w.queue, w.stop)

	w.log.Infow("watching inbox", "dir", w.dir, "pending", len(existing))
	return nil
}

// Stop halts the watcher and waits for the running job to return.
func (w *InboxWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.stop == nil {
		w.mu.Unlock()
		return nil
	}
	close(w.stop)
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = nil
	err := w.watcher.Close()
	w.stop = nil
	w.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		w.done.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *InboxWatcher) existing() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if p := filepath.Join(w.dir, e.Name()); !e.IsDir() && w.accepts(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (w *InboxWatcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if len(w.extensions) == 0 {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(base))]
}

func (w *InboxWatcher) watchLoop(ctx context.Context, fw *fsnotify.Watcher, stop <-chan struct{}) {
	defer w.done.Done()
	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.accepts(event.Name) {
				continue
			}
			w.log.Debugw("inbox event", "file", event.Name, "op", event.Op.String())
			w.schedule(event.Name, stop)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Warnw("inbox watcher error", "error", err)

		case <-ctx.Done():
			return
		case <-stop:
			return
		}
	}
}

// schedule (re)arms the debounce timer for path.
func (w *InboxWatcher) schedule(path string, stop <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timers == nil {
		return
	}

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return
		}
		select {
		case w.queue <- path:
		case <-stop:
		}
	})
}

func (w *InboxWatcher) runLoop(ctx context.Context, job func(string), pending []string, queue <-chan string, stop <-chan struct{}) {
	defer w.done.Done()
	for _, p := range pending {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		default:
		}
		job(p)
	}
	for {
		select {
		case p := <-queue:
			job(p)
		case <-ctx.Done():
			return
		case <-stop:
			return
		}
	}
}
