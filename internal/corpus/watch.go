package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/eras-labs/consilium/internal/logger"
)

// DefaultDebounce is the settle window for corpus change batches.
const DefaultDebounce = 500 * time.Millisecond

// Watch observes the corpus directory and emits one signal per settled
// batch of filesystem changes. Rapid sequences of events (an editor
// save, a bulk copy) collapse into a single signal once the directory
// has been quiet for the debounce window. Subdirectories are watched
// too, including ones created after the watch starts.
//
// The returned channel closes when ctx is cancelled or the underlying
// watcher fails.
func Watch(ctx context.Context, root string, debounce time.Duration) (<-chan struct{}, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch corpus dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path is not a directory: %s", root)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := addDirTree(watcher, root); err != nil {
		watcher.Close()
		return nil, err
	}

	changed := make(chan struct{}, 1)

	go func() {
		defer close(changed)
		defer watcher.Close()

		var timer *time.Timer
		var settle <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !relevantEvent(event) {
					continue
				}
				logger.Debug("Corpus change: %s %s", event.Op, event.Name)

				// New directories must join the watch before their
				// contents produce events.
				if event.Op.Has(fsnotify.Create) {
					if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
						if err := addDirTree(watcher, event.Name); err != nil {
							logger.Warn("Watch new directory %s: %v", event.Name, err)
						}
					}
				}

				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(debounce)
				}
				settle = timer.C

			case <-settle:
				settle = nil
				timer = nil
				select {
				case changed <- struct{}{}:
				default:
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Corpus watcher error: %v", err)
			}
		}
	}()

	return changed, nil
}

// relevantEvent filters out events that cannot change corpus content.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) && !event.Op.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasPrefix(base, ".")
}

// addDirTree registers dir and every non-hidden subdirectory with the
// watcher.
func addDirTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
