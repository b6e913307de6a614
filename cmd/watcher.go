package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/outbound-caller/cli/cmd/utils"
)

const watchDebounce = 100 * time.Millisecond

// StartFileWatcher watches the given files and calls onChange with the path of
// any that is created, written, removed or renamed. The parent directories are
// watched rather than the files themselves because editors and the agent
// replace files instead of writing them in place, and a pid-file may not
// exist yet. A burst of events on the same file produces one call, made once
// the file has been quiet for watchDebounce. The watcher stops when ctx is
// done.
func StartFileWatcher(ctx context.Context, files []string, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	targets := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		targets[filepath.Clean(abs)] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		utils.LogDebug(fmt.Sprintf("Watching directory: %s", dir))
	}

	go func() {
		defer watcher.Close()

		var mu sync.Mutex
		pending := make(map[string]*time.Timer)
		defer func() {
			mu.Lock()
			for _, t := range pending {
				t.Stop()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				path := filepath.Clean(event.Name)
				if !targets[path] {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				utils.LogDebug(fmt.Sprintf("File changed: %s (%s)", path, event.Op))

				mu.Lock()
				if t, ok := pending[path]; ok {
					t.Reset(watchDebounce)
				} else {
					pending[path] = time.AfterFunc(watchDebounce, func() {
						mu.Lock()
						delete(pending, path)
						mu.Unlock()
						if ctx.Err() == nil {
							onChange(path)
						}
					})
				}
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				utils.LogDebug(fmt.Sprintf("Watcher error: %v", err))
			}
		}
	}()

	return nil
}
