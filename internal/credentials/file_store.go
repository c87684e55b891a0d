package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"skilllink/internal/errors"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileStore serves secrets from a YAML key-value file
// (service name -> secret) and optionally reloads it when the file
// changes on disk.
type FileStore struct {
	*StaticStore

	path   string
	logger *errors.Logger

	mu            sync.Mutex
	fsWatcher     *fsnotify.Watcher
	debounceTimer *time.Timer
	stopChan      chan struct{}
	running       bool
}

const fileStoreDebounce = time.Second

// NewFileStore loads the credentials file and, when watch is true,
// starts a watcher that reloads it on change.
func NewFileStore(path string, watch bool, logger *errors.Logger) (*FileStore, error) {
	fs := &FileStore{
		StaticStore: NewStaticStore(nil),
		path:        path,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}

	if err := fs.reload(); err != nil {
		return nil, err
	}

	if watch {
		if err := fs.startWatcher(); err != nil {
			return nil, err
		}
	}

	return fs, nil
}

// reload re-reads the credentials file and swaps the secret map
func (fs *FileStore) reload() error {
	raw, err := os.ReadFile(fs.path)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read credentials file: %s", fs.path), err)
	}

	secrets := make(map[string]string)
	if err := yaml.Unmarshal(raw, &secrets); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Credentials file is not a flat key-value document: %s", fs.path), err)
	}

	fs.replace(secrets)
	if fs.logger != nil {
		fs.logger.Debug("Credentials file loaded", "path", fs.path, "entries", len(secrets))
	}
	return nil
}

// startWatcher begins watching the credentials file for changes.
// Editors typically replace files via rename, so the parent directory
// is watched and events are filtered by path.
func (fs *FileStore) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create credentials watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(fs.path)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil && fs.logger != nil {
			fs.logger.LogError(closeErr, "Failed to close credentials watcher during cleanup")
		}
		return fmt.Errorf("failed to watch credentials directory: %w", err)
	}

	fs.fsWatcher = watcher
	fs.running = true
	go fs.watchLoop()

	if fs.logger != nil {
		fs.logger.Info("Credentials file watcher started", "path", fs.path)
	}
	return nil
}

// watchLoop processes file system events until the store is closed
func (fs *FileStore) watchLoop() {
	for {
		select {
		case event, ok := <-fs.fsWatcher.Events:
			if !ok {
				return
			}
			fs.handleEvent(event)
		case err, ok := <-fs.fsWatcher.Errors:
			if !ok {
				return
			}
			if fs.logger != nil {
				fs.logger.LogError(err, "Credentials watcher error", "path", fs.path)
			}
		case <-fs.stopChan:
			return
		}
	}
}

// handleEvent debounces bursts of write events before reloading
func (fs *FileStore) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(fs.path) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.debounceTimer != nil {
		fs.debounceTimer.Stop()
	}
	fs.debounceTimer = time.AfterFunc(fileStoreDebounce, func() {
		if err := fs.reload(); err != nil {
			// Keep serving the previous secrets on a bad reload
			if fs.logger != nil {
				fs.logger.LogError(err, "Credentials reload failed, keeping previous values", "path", fs.path)
			}
			return
		}
		if fs.logger != nil {
			fs.logger.Info("Credentials reloaded", "path", fs.path)
		}
	})
}

// Close stops the watcher goroutine
func (fs *FileStore) Close() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.running {
		return
	}
	fs.running = false
	close(fs.stopChan)
	if fs.debounceTimer != nil {
		fs.debounceTimer.Stop()
	}
	if fs.fsWatcher != nil {
		if err := fs.fsWatcher.Close(); err != nil && fs.logger != nil {
			fs.logger.LogError(err, "Failed to close credentials watcher")
		}
	}
}
