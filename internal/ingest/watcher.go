package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/extract"
)

type WatchConfig struct {
	Root        string        // directory backing the bucket (recursive)
	Bucket      string        // bucket name reported with each key
	InitialScan bool          // emit files already present at start
	Debounce    time.Duration // coalesce create/write bursts per file
}

// Watcher turns files appearing under Root into object-created notifications,
// standing in for bucket event notifications on the local backend.
type Watcher struct {
	cfg    WatchConfig
	sink   Notifier
	logger *slog.Logger
}

func NewWatcher(cfg WatchConfig, sink Notifier, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{cfg: cfg, sink: sink, logger: logger}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.Root == "" {
		return errors.New("watcher: no root provided")
	}
	if err := os.MkdirAll(w.cfg.Root, 0o755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("failed to create fsnotify watcher", "error", err)
		return err
	}
	defer func() {
		if err := fw.Close(); err != nil {
			w.logger.Warn("failed to close watcher", "error", err)
		}
	}()

	pending := map[string]struct{}{}
	if err := w.addTree(fw, w.cfg.Root, pending); err != nil {
		w.logger.Error("failed to add root directory", "root", w.cfg.Root, "error", err)
		return err
	}
	if !w.cfg.InitialScan {
		clear(pending)
	}
	w.flush(ctx, pending)
	w.logger.Info("watching for new documents", "root", w.cfg.Root, "bucket", w.cfg.Bucket)

	var timerC <-chan time.Time
	var timer *time.Timer
	if w.cfg.Debounce > 0 {
		timer = time.NewTimer(w.cfg.Debounce)
		timer.Stop()
		timerC = timer.C
		defer timer.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if e.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, e.Name, pending); err != nil {
						w.logger.Warn("failed to watch new directory", "path", e.Name, "error", err)
					}
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 || !constants.IsAnalyzable(e.Name) {
				continue
			}
			pending[e.Name] = struct{}{}
			if timer != nil {
				timer.Reset(w.cfg.Debounce)
			} else {
				w.flush(ctx, pending)
			}
		case <-timerC:
			w.flush(ctx, pending)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// addTree watches dir and its subdirectories, queueing the files it finds.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string, pending map[string]struct{}) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return fw.Add(p)
		}
		if constants.IsAnalyzable(p) {
			pending[p] = struct{}{}
		}
		return nil
	})
}

func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) {
	for p := range pending {
		delete(pending, p)
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		rel, err := filepath.Rel(w.cfg.Root, p)
		if err != nil {
			continue
		}
		doc := extract.DocumentRef{Bucket: w.cfg.Bucket, Key: filepath.ToSlash(rel)}
		if err := w.sink.Notify(ctx, doc); err != nil {
			w.logger.Warn("failed to schedule analysis", "key", doc.Key, "error", err)
			continue
		}
		w.logger.Debug("new document detected", "key", doc.Key)
	}
}
