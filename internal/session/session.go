// Package session tracks which installed packages are loaded into the active
// host session, and identifies the running tool so that it never unloads itself.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Host is the active-session module registry.
type Host interface {
	IsLoaded(name string) bool
	Load(name, path string) error
	Unload(name string) error
}

// Self is the identity of the running tool instance.
type Self struct {
	Name string
}

// Is reports whether name refers to the running tool. Names compare
// case-insensitively; an empty Self matches nothing.
func (s Self) Is(name string) bool {
	return s.Name != "" && strings.EqualFold(s.Name, name)
}

// Memory is an in-process Host.
type Memory struct {
	mu      sync.Mutex
	loaded  map[string]string
	Unloads []string
	Loads   []string
}

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{loaded: map[string]string{}}
}

func (m *Memory) IsLoaded(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loaded[name]
	return ok
}

func (m *Memory) Load(name, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded[name] = path
	m.Loads = append(m.Loads, name)
	return nil
}

func (m *Memory) Unload(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.loaded, name)
	m.Unloads = append(m.Unloads, name)
	return nil
}

// Path returns the loaded path for name, or "".
func (m *Memory) Path(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded[name]
}

const (
	sessionDir  = ".session"
	sessionFile = "loaded.json"
)

// FileHost persists the loaded set in <installRoot>/.session/loaded.json,
// which the host runtime reads when it starts.
type FileHost struct {
	path string
}

// Entry is one loaded package.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// NewFileHost returns a FileHost rooted at installRoot.
func NewFileHost(installRoot string) *FileHost {
	return &FileHost{path: filepath.Join(installRoot, sessionDir, sessionFile)}
}

// Path returns the state file location.
func (f *FileHost) Path() string { return f.path }

func (f *FileHost) IsLoaded(name string) bool {
	entries, err := f.Entries()
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

func (f *FileHost) Load(name, path string) error {
	entries, err := f.Entries()
	if err != nil {
		return err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.Name != name {
			out = append(out, e)
		}
	}
	out = append(out, Entry{Name: name, Path: path})
	return f.save(out)
}

func (f *FileHost) Unload(name string) error {
	entries, err := f.Entries()
	if err != nil {
		return err
	}
	out := entries[:0]
	found := false
	for _, e := range entries {
		if e.Name == name {
			found = true
			continue
		}
		out = append(out, e)
	}
	if !found {
		return fmt.Errorf("%s is not loaded", name)
	}
	return f.save(out)
}

// Entries returns the loaded packages sorted by name.
func (f *FileHost) Entries() ([]Entry, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return entries, nil
}

func (f *FileHost) save(entries []Entry) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
