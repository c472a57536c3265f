package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/kb-labs/devpkg/internal/manifest"
)

// ErrNoVersions is returned when a package base directory holds no version
// subdirectories.
var ErrNoVersions = errors.New("no version directories")

// LatestVersion describes the newest version directory under a package base path.
type LatestVersion struct {
	// Dir is the version directory name, e.g. "1.2.0".
	Dir string
	// Path is the absolute path of the version directory.
	Path string
	// Version is the descriptor's version, or Dir when it has none.
	Version string
}

// ComputeVersion picks the newest version subdirectory of basePath
// (<root>/<name>) and reads the authoritative version from its descriptor,
// falling back to the directory name.
func ComputeVersion(basePath, name string) (*LatestVersion, error) {
	dirs, err := VersionDirs(basePath)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoVersions)
	}

	newest := dirs[len(dirs)-1]
	path := filepath.Join(basePath, newest)
	version, ok := manifest.ReadVersion(path)
	if !ok {
		version = newest
	}
	return &LatestVersion{Dir: newest, Path: path, Version: version}, nil
}

// VersionDirs lists the version subdirectories of basePath, oldest first.
func VersionDirs(basePath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", basePath, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, e.Name())
		}
	}
	SortVersions(dirs)
	return dirs, nil
}

// SortVersions orders version strings ascending. Two valid semantic versions
// compare semantically; anything else compares lexicographically.
func SortVersions(vs []string) {
	sort.SliceStable(vs, func(i, j int) bool {
		return CompareVersions(vs[i], vs[j]) < 0
	})
}

// CompareVersions returns -1, 0 or +1.
func CompareVersions(a, b string) int {
	sa, sb := canonical(a), canonical(b)
	if sa != "" && sb != "" {
		if c := semver.Compare(sa, sb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
