package credential

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/nexconsole/internal/errors"
	"github.com/felixgeelhaar/nexconsole/internal/log"
)

// document is the on-disk layout of the credentials file.
type document struct {
	AccessToken string `json:"accessToken,omitempty"`
	Writer      string `json:"writer"`
	Revision    int64  `json:"revision"`
}

func (d document) fingerprint() string {
	return fmt.Sprintf("%s/%d", d.Writer, d.Revision)
}

const removedFingerprint = "removed"

// FileStore keeps the token in a JSON file and watches the file's directory
// so that writes from other processes are reported to OnChange handlers.
type FileStore struct {
	path      string
	contextID string
	logger    *log.Logger

	writeMu sync.Mutex

	mu          sync.Mutex
	handlers    handlerSet
	lastPrint   string
	watcher     *fsnotify.Watcher
	watcherDone chan struct{}
	closed      bool
}

// OpenFileStore opens the credential file at path, creating its directory.
// Failure here means storage is unavailable, which callers treat as fatal.
func OpenFileStore(path string, logger *log.Logger) (*FileStore, error) {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.NewStorageUnavailableError(dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewStorageUnavailableError(dir, fmt.Errorf("create watcher: %w", err))
	}
	// fsnotify watches directories; the file is replaced by rename on every write.
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, errors.NewStorageUnavailableError(dir, fmt.Errorf("watch directory: %w", err))
	}

	s := &FileStore{
		path:        path,
		contextID:   uuid.NewString(),
		logger:      logger.WithComponent("credential"),
		watcher:     watcher,
		watcherDone: make(chan struct{}),
	}
	s.lastPrint = s.currentFingerprint()

	go s.watchLoop()

	return s, nil
}

// ContextID identifies this store instance as a writer.
func (s *FileStore) ContextID() string {
	return s.contextID
}

// Path returns the credentials file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the stored token.
func (s *FileStore) Get() (string, bool) {
	doc, ok := s.read()
	if !ok || doc.AccessToken == "" {
		return "", false
	}
	return doc.AccessToken, true
}

// Set stores token.
func (s *FileStore) Set(token string) error {
	return s.write(document{AccessToken: token})
}

// Clear removes the token slot.
func (s *FileStore) Clear() error {
	return s.write(document{})
}

// OnChange registers handler for mutations made by other contexts.
func (s *FileStore) OnChange(handler func()) func() {
	s.mu.Lock()
	id := s.handlers.add(handler)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.handlers.remove(id)
		s.mu.Unlock()
	}
}

// Close stops watching the file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.watcher.Close()
	<-s.watcherDone
	return err
}

func (s *FileStore) read() (document, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Debug("read credentials failed")
		}
		return document{}, false
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.WithError(err).Debug("decode credentials failed")
		return document{}, false
	}
	return doc, true
}

func (s *FileStore) currentFingerprint() string {
	doc, ok := s.read()
	if !ok {
		return removedFingerprint
	}
	return doc.fingerprint()
}

func (s *FileStore) write(doc document) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc.Writer = s.contextID
	doc.Revision = time.Now().UnixNano()

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.KindStorage, errors.ErrCodeStorageWrite, "encode credentials", err)
	}

	// Record our own fingerprint first so the watcher recognises the event.
	s.mu.Lock()
	s.lastPrint = doc.fingerprint()
	s.mu.Unlock()

	if err := writeFileAtomic(s.path, s.contextID, b); err != nil {
		return errors.Wrap(errors.KindStorage, errors.ErrCodeStorageWrite, "write credentials", err)
	}
	return nil
}

func writeFileAtomic(path, owner string, b []byte) error {
	tmp := fmt.Sprintf("%s.%s.tmp", path, owner[:8])
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err == nil {
		return nil
	}

	defer os.Remove(tmp)

	if runtime.GOOS == "windows" {
		_ = os.Remove(path)
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) watchLoop() {
	defer close(s.watcherDone)

	target := filepath.Clean(s.path)
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			s.check()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.WithError(err).Warn("credential watcher error")
		}
	}
}

// check compares the file's fingerprint with the last one observed and
// notifies handlers when a foreign writer changed it.
func (s *FileStore) check() {
	doc, ok := s.read()
	fp := removedFingerprint
	if ok {
		fp = doc.fingerprint()
	}

	s.mu.Lock()
	if s.closed || fp == s.lastPrint {
		s.mu.Unlock()
		return
	}
	s.lastPrint = fp
	own := ok && doc.Writer == s.contextID
	var handlers []func()
	if !own {
		handlers = s.handlers.snapshot()
	}
	s.mu.Unlock()

	if own {
		return
	}

	s.logger.Debug("credentials changed by another context", "present", ok && doc.AccessToken != "")
	for _, fn := range handlers {
		fn()
	}
}
