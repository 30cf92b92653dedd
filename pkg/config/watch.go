package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFile watches path's containing directory (fsnotify cannot watch
// a bare file across editors that write via rename-into-place) and
// invokes onChange whenever path itself is created, written, or
// renamed into place. The returned watcher must be closed by the
// caller to stop watching.
func WatchFile(path string, onChange func()) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	target := filepath.Clean(path)
	go func() {
		for event := range watcher.Events {
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				onChange()
			}
		}
	}()

	return watcher, nil
}
