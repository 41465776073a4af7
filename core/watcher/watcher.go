package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mdlkit/mdlkit/core/locator"
	"github.com/mdlkit/mdlkit/core/logger"
)

const debounceDelay = 500 * time.Millisecond

// ModelWatcher watches the model search paths and fires OnChange
// (debounced) whenever a model file is written, created, or removed.
type ModelWatcher struct {
	watcher  *fsnotify.Watcher
	roots    []string
	OnChange func() error

	mu            sync.Mutex
	debounceTimer *time.Timer
}

func NewModelWatcher(roots []string) (*ModelWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &ModelWatcher{
		watcher:  w,
		roots:    roots,
		OnChange: func() error { return fmt.Errorf("OnChange not set") },
	}, nil
}

// Watch blocks, dispatching debounced OnChange calls until the event
// stream closes or an unrecoverable error occurs.
func (mw *ModelWatcher) Watch() error {
	for _, root := range mw.roots {
		if err := mw.addWatchersRecursively(root); err != nil {
			return fmt.Errorf("failed to add watchers: %w", err)
		}
	}

	for {
		select {
		case event, ok := <-mw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			logger.Debug("File event: %s %s", event.Op, event.Name)

			if event.Has(fsnotify.Create) {
				if stat, err := os.Stat(event.Name); err == nil && stat.IsDir() {
					logger.Debug("Adding watcher for new directory: %s", event.Name)
					mw.watcher.Add(event.Name)
					continue
				}
			}

			if !locator.IsModelFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				mw.debounce()
			}

		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("Watcher error: %v", err)
		}
	}
}

func (mw *ModelWatcher) debounce() {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	if mw.debounceTimer != nil {
		mw.debounceTimer.Stop()
	}
	mw.debounceTimer = time.AfterFunc(debounceDelay, func() {
		logger.Debug("Model changes detected, re-running...")
		if err := mw.OnChange(); err != nil {
			logger.Error("Watcher OnChange failed: %v", err)
		}
	})
}

func (mw *ModelWatcher) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	if mw.debounceTimer != nil {
		mw.debounceTimer.Stop()
	}
	return mw.watcher.Close()
}

func (mw *ModelWatcher) addWatchersRecursively(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		switch info.Name() {
		case ".git", "node_modules", "vendor":
			return filepath.SkipDir
		}

		logger.Debug("Adding watcher for: %s", path)
		if err := mw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to add watcher for %s: %w", path, err)
		}
		return nil
	})
}
