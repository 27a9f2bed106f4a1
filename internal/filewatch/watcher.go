// Package filewatch re-runs work when any of a set of files changes.
package filewatch

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/logger"
)

// DefaultDebounce coalesces the burst of events one editor save produces
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc receives the sorted set of files that changed in one burst
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher watches files through their parent directories, since editors
// often save by renaming a temp file over the original.
type Watcher struct {
	watcher  *fsnotify.Watcher
	targets  map[string]bool
	debounce time.Duration
	onChange ChangeFunc
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
	running sync.WaitGroup
}

// Options configure a Watcher
type Options struct {
	Debounce time.Duration // 0 = DefaultDebounce
	Logger   *zap.SugaredLogger
}

// New watches paths and calls onChange after each debounced burst
func New(paths []string, onChange ChangeFunc, opts Options) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.NewInvalidRequestError("no files to watch")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		watcher:  fw,
		targets:  make(map[string]bool, len(paths)),
		debounce: opts.Debounce,
		onChange: onChange,
		logger:   logger.OrNop(opts.Logger),
		pending:  make(map[string]bool),
	}

	dirs := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to resolve %s", p)
		}
		w.targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
	}
	return w, nil
}

// Run delivers changes until ctx is done, then waits for any in-flight
// onChange call and closes the underlying watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		w.running.Wait()
		w.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.targets[abs] {
				continue
			}
			w.logger.Debugw("Watched file changed", logger.FieldPath, abs, "op", event.Op.String())
			w.schedule(ctx, abs)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("File watcher error", logger.FieldError, err.Error())
		}
	}
}

// schedule restarts the debounce timer with path added to the burst
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.fire(ctx) })
}

func (w *Watcher) fire(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 || ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]bool)
	w.running.Add(1)
	w.mu.Unlock()

	defer w.running.Done()
	sort.Strings(changed)
	w.onChange(ctx, changed)
}
