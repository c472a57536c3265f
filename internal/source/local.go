package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kb-labs/devpkg/internal/metadata"
)

// Local reads packages straight from a filesystem directory. The returned
// tree points at the source itself, so Close is a no-op.
type Local struct{}

// Fetch implements Fetcher.
func (l *Local) Fetch(_ context.Context, req Request) (*Tree, error) {
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", req.Path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, abs)
		}
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceNotFound, abs)
	}

	progress(req, "Reading %s", abs)
	return &Tree{
		Root:   abs,
		Origin: Origin{Type: metadata.SourceLocal, Path: abs},
	}, nil
}
