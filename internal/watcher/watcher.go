package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Operation is a file system operation.
type Operation int

const (
	// OpCreate indicates the file appeared.
	OpCreate Operation = iota
	// OpModify indicates the file was written.
	OpModify
	// OpDelete indicates the file was removed.
	OpDelete
	// OpRename indicates the file was renamed away.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is a change of the watched file.
type FileEvent struct {
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Options configures Watch.
type Options struct {
	// Debounce is the quiet period before events are delivered.
	// Default: 500ms
	Debounce time.Duration

	// PollInterval is used when fsnotify is unavailable.
	// Default: 2s
	PollInterval time.Duration

	// ForcePolling skips fsnotify.
	ForcePolling bool

	Logger *slog.Logger
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Debounce:     500 * time.Millisecond,
		PollInterval: 2 * time.Second,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Debounce <= 0 {
		o.Debounce = d.Debounce
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Watch calls fn after each debounced change of path until ctx is
// cancelled. fn runs on a single goroutine, one event at a time; when a file
// changes repeatedly within the debounce window fn sees one coalesced
// event. Watch returns nil on cancellation.
func Watch(ctx context.Context, path string, debounce time.Duration, fn func(FileEvent)) error {
	return WatchWithOptions(ctx, path, Options{Debounce: debounce}, fn)
}

// WatchWithOptions is Watch with full options.
func WatchWithOptions(ctx context.Context, path string, opts Options, fn func(FileEvent)) error {
	opts = opts.WithDefaults()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}

	d := NewDebouncer(opts.Debounce)
	defer d.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case batch, ok := <-d.Output():
				if !ok {
					return
				}
				for _, ev := range batch {
					fn(ev)
				}
			}
		}
	}()

	if !opts.ForcePolling {
		err = watchNotify(ctx, abs, d.Add, opts.Logger)
		if err == nil {
			cancel()
			<-done
			return nil
		}
		opts.Logger.Warn("fsnotify unavailable, polling instead",
			slog.String("path", abs), slog.String("error", err.Error()))
	}

	err = pollFile(ctx, abs, opts.PollInterval, d.Add)
	cancel()
	<-done
	return err
}

// watchNotify watches the parent directory of path. It returns an error only
// when the watch cannot be set up.
func watchNotify(ctx context.Context, path string, emit func(FileEvent), logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if op, ok := translate(ev.Op); ok {
				emit(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
}

// translate maps an fsnotify op to an Operation. Chmod is ignored.
func translate(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpModify, true
	case op.Has(fsnotify.Remove):
		return OpDelete, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	default:
		return 0, false
	}
}
