package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"
)

type fileSnapshot struct {
	exists  bool
	modTime time.Time
	size    int64
}

func snapshot(path string) (fileSnapshot, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileSnapshot{}, nil
	}
	if err != nil {
		return fileSnapshot{}, err
	}
	return fileSnapshot{exists: true, modTime: info.ModTime(), size: info.Size()}, nil
}

// diff returns the operation that turns prev into cur.
func diff(prev, cur fileSnapshot) (Operation, bool) {
	switch {
	case !prev.exists && cur.exists:
		return OpCreate, true
	case prev.exists && !cur.exists:
		return OpDelete, true
	case cur.exists && (prev.modTime != cur.modTime || prev.size != cur.size):
		return OpModify, true
	default:
		return 0, false
	}
}

// pollFile stats path every interval and emits the differences until ctx is
// cancelled.
func pollFile(ctx context.Context, path string, interval time.Duration, emit func(FileEvent)) error {
	prev, err := snapshot(path)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cur, err := snapshot(path)
			if err != nil {
				continue
			}
			if op, changed := diff(prev, cur); changed {
				emit(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
			}
			prev = cur
		}
	}
}
