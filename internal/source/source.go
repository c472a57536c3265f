// Package source materializes a package source tree locally, either from a
// filesystem directory or from a hosted repository branch archive.
// Use Detect() to classify a user-supplied source string.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kb-labs/devpkg/internal/metadata"
)

var (
	// ErrSourceNotFound is returned when a local source directory does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrSourceNoLongerExists is returned on update when the recorded local
	// source directory has been removed since install.
	ErrSourceNoLongerExists = errors.New("source no longer exists")
	// ErrInvalidFormat is returned for remote identifiers that do not parse.
	ErrInvalidFormat = errors.New("invalid source format")
	// ErrFetchFailed wraps network and extraction failures.
	ErrFetchFailed = errors.New("fetch failed")
)

// Request describes one fetch.
type Request struct {
	Type metadata.SourceType
	// Path is a directory for Local, owner/repo or a repository URL for Remote.
	Path string
	// Branch and SubPath apply to Remote only.
	Branch  string
	SubPath string
	// Token is an optional bearer token. Fetchers use it for the request
	// and never retain it.
	Token string
	// OnProgress, if set, receives human-readable progress lines.
	OnProgress func(line string)
}

// Origin is the normalized provenance of a fetched tree, as recorded in metadata.
type Origin struct {
	Type    metadata.SourceType
	Path    string // absolute dir for Local, owner/repo for Remote
	Host    string
	Branch  string
	SubPath string
}

// Tree is a fetched source tree. Close releases any temporary working area
// and must be called on every path once the tree is no longer needed.
type Tree struct {
	Root    string
	Origin  Origin
	cleanup func() error
}

// Close removes the tree's working area, if any. It is safe to call twice.
func (t *Tree) Close() error {
	if t == nil || t.cleanup == nil {
		return nil
	}
	fn := t.cleanup
	t.cleanup = nil
	return fn()
}

// Fetcher materializes a source tree.
type Fetcher interface {
	// Fetch returns the package root described by req.
	Fetch(ctx context.Context, req Request) (*Tree, error)
}

// Fetchers dispatches a request to the fetcher registered for its type.
type Fetchers map[metadata.SourceType]Fetcher

// Fetch implements Fetcher.
func (f Fetchers) Fetch(ctx context.Context, req Request) (*Tree, error) {
	fetcher, ok := f[req.Type]
	if !ok {
		return nil, fmt.Errorf("no fetcher for source type %q", req.Type)
	}
	return fetcher.Fetch(ctx, req)
}

// Detect returns Local when path names an existing directory and Remote otherwise.
func Detect(path string) metadata.SourceType {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return metadata.SourceLocal
	}
	return metadata.SourceRemote
}

func progress(req Request, format string, args ...any) {
	if req.OnProgress != nil {
		req.OnProgress(fmt.Sprintf(format, args...))
	}
}
