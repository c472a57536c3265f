package installer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/kb-labs/devpkg/internal/metadata"
)

// Orphan is a package directory under the install root with no metadata record.
type Orphan struct {
	Name   string
	Latest *metadata.LatestVersion
}

// List returns the installed records under root, optionally only the one
// whose name equals filter. It never mutates state; a missing root yields
// an empty list.
func (ins *Installer) List(root, filter string) ([]metadata.Record, error) {
	records, err := metadata.NewStore(root, ins.Log).List()
	if err != nil {
		return nil, opErr("list", filter, err)
	}
	if filter == "" {
		return records, nil
	}
	var out []metadata.Record
	for _, r := range records {
		if r.Name == filter {
			out = append(out, r)
		}
	}
	return out, nil
}

// Orphans scans root for package directories that have no record, computing
// each one's newest version from disk.
func (ins *Installer) Orphans(root string) ([]Orphan, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, opErr("list", "", err)
	}

	store := metadata.NewStore(root, ins.Log)
	var out []Orphan
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := os.Stat(store.Path(e.Name())); err == nil {
			continue
		}
		latest, err := metadata.ComputeVersion(filepath.Join(root, e.Name()), e.Name())
		if err != nil {
			ins.Log.Debug("no version directories", "name", e.Name())
		}
		out = append(out, Orphan{Name: e.Name(), Latest: latest})
	}
	return out, nil
}
