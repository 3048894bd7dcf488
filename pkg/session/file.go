package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// fileData is the root JSON structure stored on disk.
type fileData struct {
	Entries map[string]fileEntry `json:"entries"`
}

type fileEntry struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// File stores values in a JSON file. An advisory lock file next to it
// serializes access from several processes, and writes replace the file
// atomically.
type File struct {
	path string
	mu   sync.RWMutex
}

// NewFile creates a file store at path. The file and its directory are
// created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the location of the backing file.
func (f *File) Path() string {
	return f.path
}

// Get returns the value stored for key.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var entry fileEntry
	var found bool

	err := f.withFileLock(syscall.LOCK_SH, func() error {
		data, err := f.load()
		if err != nil {
			return err
		}
		entry, found = data.Entries[key]
		return nil
	})
	if err != nil {
		return "", false, err
	}

	return entry.Value, found, nil
}

// Set stores value under key.
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.withFileLock(syscall.LOCK_EX, func() error {
		data, err := f.load()
		if err != nil {
			return err
		}
		data.Entries[key] = fileEntry{Value: value, UpdatedAt: time.Now()}
		return f.save(data)
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.withFileLock(syscall.LOCK_EX, func() error {
		data, err := f.load()
		if err != nil {
			return err
		}
		if _, ok := data.Entries[key]; !ok {
			return nil
		}
		delete(data.Entries, key)
		return f.save(data)
	})
}

// withFileLock acquires a lock on the sidecar lock file, executes fn, then
// releases the lock.
func (f *File) withFileLock(lockType int, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(f.path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer lock.Close() //nolint:errcheck

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer syscall.Flock(int(lock.Fd()), syscall.LOCK_UN) //nolint:errcheck

	return fn()
}

// load reads the file. A missing or empty file is an empty store.
func (f *File) load() (fileData, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileData{Entries: make(map[string]fileEntry)}, nil
		}
		return fileData{}, err
	}

	if len(raw) == 0 {
		return fileData{Entries: make(map[string]fileEntry)}, nil
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fileData{}, fmt.Errorf("parse %s: %w", f.path, err)
	}
	if data.Entries == nil {
		data.Entries = make(map[string]fileEntry)
	}
	return data, nil
}

// save writes the file atomically through a temp file and rename.
func (f *File) save(data fileData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp) // best effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
