// Package discover finds convertible documents below a folder and
// watches folders for new ones.
package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/queue"
	"github.com/muesli/gitcha"
)

// ErrNotDir is returned when the search root is not a directory.
var ErrNotDir = errors.New("not a directory")

// Find walks dir recursively and returns the absolute paths of files
// matching patterns, sorted. Hidden and .gitignore'd files are included.
func Find(ctx context.Context, dir string, patterns []string) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrNotDir)
	}

	ch, err := gitcha.FindAllFilesExcept(root, patterns, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to search %s: %w", root, err)
	}

	var paths []string
	for {
		select {
		case <-ctx.Done():
			// drain so the walker goroutine can finish
			go func() {
				for range ch { //nolint:revive
				}
			}()
			return nil, ctx.Err()
		case res, ok := <-ch:
			if !ok {
				sort.Strings(paths)
				log.Debug("Discovered documents", "dir", root, "count", len(paths))
				return paths, nil
			}
			if res.Info != nil && res.Info.IsDir() {
				continue
			}
			paths = append(paths, res.Path)
		}
	}
}

// AddAll enqueues every path not yet queued and returns how many were
// added.
func AddAll(q *queue.Queue, paths []string) int {
	added := 0
	for _, p := range paths {
		if q.AddPath(p) {
			added++
		}
	}
	return added
}

// Matches reports whether the base name of path matches one of patterns.
func Matches(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

// Watch reports matching files created or moved into dir or any of its
// subfolders until ctx is cancelled. found is called from the watching
// goroutine.
func Watch(ctx context.Context, dir string, patterns []string, found func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck

	if err := addTree(w, dir); err != nil {
		return err
	}
	log.Info("Watching for new documents", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			log.Debug("Folder watch ended", "dir", dir)
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if err := addTree(w, event.Name); err != nil {
					log.Debug("Could not watch new folder", "dir", event.Name, "err", err)
				}
				continue
			}
			if Matches(event.Name, patterns) {
				log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
				found(event.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "dir", dir, "error", err)
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		return nil
	})
}
