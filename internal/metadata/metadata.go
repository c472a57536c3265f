// Package metadata manages the per-package bookkeeping records written to
// <installRoot>/.metadata/<name>.json. Each record is overwritten as a whole;
// there is no merge with prior content.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kb-labs/devpkg/internal/logger"
)

const (
	schemaVersion = 1
	metadataDir   = ".metadata"
	fileExt       = ".json"
)

// ErrCorrupt marks a metadata file that exists but cannot be parsed.
var ErrCorrupt = errors.New("metadata corrupt")

// SourceType tells where a package was installed from.
type SourceType string

const (
	SourceLocal  SourceType = "Local"
	SourceRemote SourceType = "Remote"
)

// Record is the persistent state written to <root>/.metadata/<name>.json.
type Record struct {
	InstallDate       time.Time  `json:"installDate"`
	Name              string     `json:"name"`
	Version           string     `json:"version"`
	SourceType        SourceType `json:"sourceType"`
	SourcePath        string     `json:"sourcePath"`
	SourceHost        string     `json:"sourceHost,omitempty"`
	Branch            string     `json:"branch,omitempty"`
	ModuleSubPath     string     `json:"moduleSubPath,omitempty"`
	InstallPath       string     `json:"installPath"`
	LatestVersionPath string     `json:"latestVersionPath"`
	SchemaVersion     int        `json:"schemaVersion"`
}

// Store reads and writes records under one install root.
type Store struct {
	Root string
	Log  *logger.Logger
}

// NewStore returns a store for installRoot. log may be nil.
func NewStore(installRoot string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Store{Root: installRoot, Log: log}
}

// Dir returns <root>/.metadata.
func (s *Store) Dir() string {
	return filepath.Join(s.Root, metadataDir)
}

// Path returns the metadata file path for name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir(), name+fileExt)
}

// Write persists rec, creating the metadata directory if needed.
func (s *Store) Write(rec *Record) error {
	if rec.Name == "" {
		return fmt.Errorf("write metadata: record has no name")
	}
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}

	rec.SchemaVersion = schemaVersion
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	// Write to a sibling temp file and rename so readers never see half a record.
	path := s.Path(rec.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Read loads the record for name. A missing file returns (nil, nil).
func (s *Store) Read(name string) (*Record, error) {
	rec, err := readFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the metadata file for name. A missing file is not an error.
func (s *Store) Delete(name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete metadata: %w", err)
	}
	return nil
}

// List parses every record in the metadata directory, sorted by name.
// Corrupt files are skipped with a warning; a missing directory yields nil.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.Dir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata dir: %w", err)
	}

	var out []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		rec, err := readFile(filepath.Join(s.Dir(), e.Name()))
		if err != nil {
			s.Log.Warn("skipping metadata file", "file", e.Name(), "err", err)
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func readFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	if rec.Name == "" {
		return nil, fmt.Errorf("%w: %s: missing name", ErrCorrupt, filepath.Base(path))
	}

	// Future: migrate rec.SchemaVersion < schemaVersion here.

	return &rec, nil
}
