// Package watch notifies when a guest binary on disk changes, so hosts
// can hot reload it. It watches the file's parent directory rather than
// the file itself: build tools replace outputs by rename, which would
// silently detach a direct watch.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for a change burst to
// settle before notifying. Compilers write output in several chunks; a
// reload halfway through would pick up a torn binary.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	// Logger receives watch errors. Nil means silent.
	Logger *zap.Logger
}

// Watcher delivers a notification on Changes after the watched file is
// written, created, or renamed and the debounce window passes.
type Watcher struct {
	path     string
	dir      string
	base     string
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger

	changes  chan time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// New returns a watcher for the file at path. Call Start to begin
// watching and Stop to release the underlying OS watch.
func New(path string, opts *Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if opts == nil {
		opts = &Options{}
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		base:     filepath.Base(abs),
		fsw:      fsw,
		debounce: debounce,
		logger:   logger,
		changes:  make(chan time.Time, 1),
		done:     make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Changes returns the notification channel. The channel holds at most
// one pending notification; bursts that arrive while the receiver is
// busy coalesce into it.
func (w *Watcher) Changes() <-chan time.Time { return w.changes }

// Start begins watching. The loop runs until Stop is called or ctx is
// canceled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}
	go w.loop(ctx)
	return nil
}

// Stop releases the watch. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsw.Close()
	})
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case t := <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.changes <- t:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watch error", zap.String("path", w.path), zap.Error(err))
		}
	}
}
