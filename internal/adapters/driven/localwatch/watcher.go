package localwatch

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
	"github.com/custodia-labs/ctxpack/internal/logger"
)

// Watcher marks local resources update-available on filesystem writes.
type Watcher struct {
	Resources driven.ResourceStore
}

// New wires a Watcher.
func New(resources driven.ResourceStore) *Watcher {
	return &Watcher{Resources: resources}
}

// Watch adds dir and its subdirectories to an fsnotify watch and runs until
// ctx is cancelled. Any write, create, rename, or remove event under dir
// flips resourceID's UpdateAvailable flag. Errors setting up the watch are
// logged and swallowed; dir is then not watched at all, since the update
// checker does not check local resources.
func (w *Watcher) Watch(ctx context.Context, resourceID, dir string) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("localwatch: create watcher failed", "resource", resourceID, "err", err)
		return
	}
	defer fw.Close() //nolint:errcheck

	if err := addRecursive(fw, dir); err != nil {
		logger.Warn("localwatch: add watch failed", "resource", resourceID, "dir", dir, "err", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Debug("localwatch: watch error", "resource", resourceID, "err", err)
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				w.markAvailable(ctx, resourceID)
			}
		}
	}
}

func (w *Watcher) markAvailable(ctx context.Context, resourceID string) {
	r, err := w.Resources.Get(ctx, resourceID)
	if err != nil {
		return
	}
	if r.Kind != domain.KindLocal || r.UpdateAvailable {
		return
	}
	r.UpdateAvailable = true
	if err := w.Resources.Update(ctx, r); err != nil {
		logger.Warn("localwatch: persist update-available failed", "resource", resourceID, "err", err)
	}
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
