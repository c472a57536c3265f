package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Plan is the computed destination of one version install.
type Plan struct {
	// BasePath is <root>/<name>.
	BasePath string
	// Destination is <root>/<name>/<version>.
	Destination string
	// Exists reports whether Destination was already present.
	Exists bool
}

var safeComponent = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.+-]*$`)

// PlanPath computes where name@version goes under root. An existing
// destination is an error unless force is set.
func PlanPath(root, name, version string, force bool) (*Plan, error) {
	if err := validComponent("package name", name); err != nil {
		return nil, err
	}
	if err := validComponent("version", version); err != nil {
		return nil, err
	}

	base := filepath.Join(root, name)
	p := &Plan{BasePath: base, Destination: filepath.Join(base, version)}

	info, err := os.Stat(p.Destination)
	switch {
	case err == nil && info.IsDir():
		p.Exists = true
	case err == nil:
		return nil, fmt.Errorf("%s exists and is not a directory", p.Destination)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("stat %s: %w", p.Destination, err)
	}

	if p.Exists && !force {
		return nil, fmt.Errorf("%w: %s (use --force to reinstall)", ErrVersionAlreadyExists, p.Destination)
	}
	return p, nil
}

// Prepare leaves Destination as a fresh empty directory. An existing one is
// deleted first so no stale files survive a reinstall.
func (p *Plan) Prepare() error {
	if p.Exists {
		if err := os.RemoveAll(p.Destination); err != nil {
			return fmt.Errorf("remove %s: %w", p.Destination, err)
		}
	}
	if err := os.MkdirAll(p.Destination, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", p.Destination, err)
	}
	return nil
}

func validComponent(what, s string) error {
	if !safeComponent.MatchString(s) {
		return fmt.Errorf("%w: %s %q", ErrInvalidName, what, s)
	}
	return nil
}

// checkRoot fails when neither root nor its parent exists.
func checkRoot(root string) error {
	if root == "" {
		return fmt.Errorf("install root is empty")
	}
	if info, err := os.Stat(root); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("install root %s is not a directory", root)
		}
		return nil
	}
	parent := filepath.Dir(filepath.Clean(root))
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return fmt.Errorf("parent of install root does not exist: %s", parent)
	}
	return nil
}
