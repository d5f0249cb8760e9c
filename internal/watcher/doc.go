// Package watcher re-runs work when a single file changes.
//
// The file's parent directory is watched with fsnotify so that editors that
// save through a temporary file and a rename are seen. Where fsnotify cannot
// be used the file is polled instead. Bursts of events are debounced and
// coalesced before the callback runs.
//
// Usage:
//
//	err := watcher.Watch(ctx, "/etc/dbadmin/config.yaml", 500*time.Millisecond,
//	    func(ev watcher.FileEvent) {
//	        // re-run the advisory pass
//	    })
package watcher
