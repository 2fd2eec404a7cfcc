package fs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"skillhub/internal/logger"
)

// Watcher reports changes to skill files under a set of roots. Bursts of
// events are coalesced: onChange runs once per quiet period, on a single
// goroutine, with the sorted set of paths that changed.
type Watcher struct {
	walker *Walker
	roots  []string
	delay  time.Duration
}

func NewWatcher(walker *Walker, roots []string, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	abs := make([]string, 0, len(roots))
	for _, root := range roots {
		if a, err := filepath.Abs(root); err == nil {
			root = a
		}
		abs = append(abs, filepath.Clean(root))
	}
	return &Watcher{walker: walker, roots: abs, delay: delay}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	for _, root := range w.roots {
		if err := w.addTree(ctx, watcher, root); err != nil {
			return errors.Wrapf(err, "failed to watch %s", root)
		}
	}
	logger.G(ctx).WithField("roots", len(w.roots)).Info("watching for skill changes")

	var (
		pending = make(map[string]struct{})
		timer   *time.Timer
		fire    = make(chan struct{}, 1)
	)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 && !w.excludedDir(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(ctx, watcher, event.Name); err != nil {
						logger.G(ctx).WithError(err).WithField("directory", event.Name).Warn("failed to watch new directory")
					}
				}
			}
			if !w.relevant(event.Name) {
				continue
			}

			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.delay, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.delay)
			}

		case <-fire:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			if len(paths) == 0 {
				continue
			}
			pending = make(map[string]struct{})
			sort.Strings(paths)

			logger.G(ctx).WithField("files", len(paths)).Debug("skill change detected")
			onChange(ctx, paths)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Error("error watching files")

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		}
	}
}

// relPath returns path relative to the watched root containing it.
func (w *Watcher) relPath(path string) (string, bool) {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return filepath.ToSlash(rel), true
	}
	return "", false
}

func (w *Watcher) excludedDir(path string) bool {
	rel, ok := w.relPath(path)
	return ok && rel != "." && w.walker.ShouldExclude(rel+"/")
}

// relevant reports whether a path could hold a skill definition. Removed
// directories cannot be stat'ed, so extensionless paths count too.
func (w *Watcher) relevant(path string) bool {
	rel, ok := w.relPath(path)
	if !ok || w.walker.ShouldExclude(rel) || w.walker.ShouldExclude(rel+"/") {
		return false
	}
	return w.walker.ShouldInclude(rel) || filepath.Ext(rel) == ""
}

func (w *Watcher) addTree(ctx context.Context, watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.excludedDir(path) {
			return filepath.SkipDir
		}
		logger.G(ctx).WithField("directory", path).Debug("adding directory to watcher")
		return watcher.Add(path)
	})
}
