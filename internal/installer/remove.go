package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kb-labs/devpkg/internal/metadata"
)

// RemoveOptions describes one Remove call.
type RemoveOptions struct {
	Name string
	Root string
	// Force skips the confirmation prompt.
	Force bool
}

// Remove deletes every version directory of name together with its
// metadata record. The returned result carries the record as it was before
// removal. A declined confirmation returns StatusCancelled and no error.
func (ins *Installer) Remove(_ context.Context, opts RemoveOptions) (*Result, error) {
	const op = "remove"
	start := time.Now()

	if err := validComponent("package name", opts.Name); err != nil {
		return nil, opErr(op, opts.Name, err)
	}
	store := metadata.NewStore(opts.Root, ins.Log)
	rec, err := store.Read(opts.Name)
	if err != nil {
		return nil, opErr(op, opts.Name, err)
	}
	if rec == nil {
		return nil, opErr(op, opts.Name, ErrNotInstalled)
	}

	if err := validComponent("package name", rec.Name); err != nil {
		return nil, opErr(op, rec.Name, err)
	}

	if !opts.Force && ins.Confirm != nil {
		ok, err := ins.Confirm(rec)
		if err != nil {
			return nil, opErr(op, rec.Name, err)
		}
		if !ok {
			ins.Log.Info("removal cancelled", "name", rec.Name)
			return &Result{Record: rec, Status: StatusCancelled, Duration: time.Since(start)}, nil
		}
	}

	res := &Result{Record: rec, Status: StatusSuccess}

	base := filepath.Join(opts.Root, rec.Name)
	ins.persistLog()
	if err := os.RemoveAll(base); err != nil {
		return nil, opErr(op, rec.Name, fmt.Errorf("delete %s: %w", base, err))
	}
	if err := store.Delete(rec.Name); err != nil {
		res.Status = StatusPartial
		ins.warn(res, "metadata delete failed", "name", rec.Name, "err", err)
	}

	ins.unload(res, rec.Name)

	res.Duration = time.Since(start)
	ins.Log.Info("removed", "name", rec.Name, "version", rec.Version)
	return res, nil
}

// unload drops name from the session. Removing the running tool keeps it
// loaded so the rest of a batch of removals can finish.
func (ins *Installer) unload(res *Result, name string) {
	if ins.Session == nil || !ins.Session.IsLoaded(name) {
		return
	}
	if ins.Self.Is(name) {
		ins.warn(res, "skipping unload of the running tool", "name", name)
		return
	}
	if err := ins.Session.Unload(name); err != nil {
		ins.warn(res, "could not unload package", "name", name, "err", err)
	}
}
