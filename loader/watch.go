package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for a burst of changes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watch reloads the project in dir whenever a .json file in it or one of
// its content directories changes, and passes the result to fn. It blocks
// until ctx is done.
func Watch(ctx context.Context, dir string, debounce time.Duration, fn func(*Project, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	for _, sub := range append(contentDirs(), "regions") {
		// Missing content directories are simply not watched.
		_ = w.Add(filepath.Join(dir, sub))
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fn(nil, fmt.Errorf("watching %s: %w", dir, err))
		case <-timer.C:
			fn(Load(dir))
		}
	}
}

func contentDirs() []string {
	out := make([]string, 0, len(categoryDirs))
	for _, cd := range categoryDirs {
		out = append(out, cd.dir)
	}
	return out
}
