package scan

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ScanFunc receives the outcome of every scan performed by Watch.
type ScanFunc func(summary *Summary, err error)

// Watch runs a scan, then rescans whenever the manifest or one of the files
// it lists changes, until ctx is cancelled. Bursts of events within the
// configured debounce window collapse into one rescan, and scans never
// overlap. Scan failures are reported to onScan and do not stop watching.
func (s *Scanner) Watch(ctx context.Context, onScan ScanFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	w := &watchState{
		watcher: watcher,
		logger:  s.logger,
		dirs:    make(map[string]struct{}),
	}

	scan := func() {
		summary, err := s.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		onScan(summary, err)
		w.track(s.watchedPaths())
	}
	scan()

	// Holds at most one pending rescan.
	trigger := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !w.isTracked(event.Name) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(s.cfg.Debounce, func() {
				s.logger.Debug("file changed, rescanning", slog.String("file", name))
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			scan()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

// watchedPaths lists the manifest and every source it currently names.
// An unreadable manifest still leaves the manifest itself watched so fixing
// it triggers a rescan.
func (s *Scanner) watchedPaths() []string {
	paths := []string{s.cfg.Manifest}
	sources, err := ReadManifest(s.cfg.Manifest)
	if err != nil {
		return paths
	}
	for _, src := range sources {
		if s.filter.Accept(src.Path) {
			paths = append(paths, src.Resolved)
		}
	}
	return paths
}

// watchState tracks individual files by watching their parent directories,
// which survives editors that save by renaming a temp file over the original.
type watchState struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	dirs    map[string]struct{}
	files   map[string]struct{}
}

func (w *watchState) track(paths []string) {
	files := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		files[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch directory", slog.String("dir", dir), slog.Any("error", err))
			continue
		}
		w.dirs[dir] = struct{}{}
	}
	w.files = files
}

func (w *watchState) isTracked(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}
