package installer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kb-labs/devpkg/internal/manifest"
	"github.com/kb-labs/devpkg/internal/metadata"
	"github.com/kb-labs/devpkg/internal/source"
)

// UpdateOptions describes one Update call.
type UpdateOptions struct {
	Name string
	Root string
	// Token is an optional bearer token for remote sources. It is passed to
	// the fetch and not kept afterwards.
	Token string
}

// Update re-fetches name from the source recorded at install time and lands
// the fetched version in a fresh version directory. Older version
// directories stay on disk; only the record's active pointer moves.
func (ins *Installer) Update(ctx context.Context, opts UpdateOptions) (*Result, error) {
	const op = "update"
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

	req := requestFor(rec)
	req.Token = opts.Token
	if rec.SourceType == metadata.SourceLocal && !dirExists(rec.SourcePath) {
		return nil, opErr(op, rec.Name, fmt.Errorf("%w: %s", source.ErrSourceNoLongerExists, rec.SourcePath))
	}

	ins.step(1, 4, fmt.Sprintf("Fetching %s", rec.SourcePath))
	tree, err := ins.fetch(ctx, req)
	req.Token = ""
	if err != nil {
		if errors.Is(err, source.ErrSourceNotFound) {
			err = fmt.Errorf("%w: %w", source.ErrSourceNoLongerExists, err)
		}
		return nil, opErr(op, rec.Name, err)
	}
	defer ins.closeTree(tree)

	ins.step(2, 4, "Reading manifest")
	desc, err := manifest.Load(tree.Root)
	if err != nil {
		return nil, opErr(op, rec.Name, err)
	}

	// The version directory is always recreated, even when it already
	// exists (a same-version reinstall).
	plan, err := PlanPath(opts.Root, rec.Name, desc.Version, true)
	if err != nil {
		return nil, opErr(op, rec.Name, err)
	}

	ins.persistLog()
	ins.step(3, 4, fmt.Sprintf("Copying %s@%s", rec.Name, desc.Version))
	if err := populate(plan, tree.Root); err != nil {
		return nil, opErr(op, rec.Name, err)
	}

	updated := *rec
	updated.Version = desc.Version
	updated.InstallPath = plan.Destination
	updated.LatestVersionPath = plan.Destination
	updated.InstallDate = ins.now()
	if tree.Origin.Type == metadata.SourceRemote {
		updated.Branch = tree.Origin.Branch
	}

	res := &Result{Record: &updated, Status: StatusSuccess, PreviousVersion: rec.Version}

	ins.step(4, 4, "Writing metadata")
	ins.writeRecord(opts.Root, &updated, res)
	ins.reload(res, rec.Name, plan.Destination)

	res.Duration = time.Since(start)
	ins.Log.Info("updated", "name", rec.Name, "from", rec.Version, "to", updated.Version)
	return res, nil
}

// reload swaps a loaded package for its new version directory. The running
// tool is never unloaded: doing so mid-update would pull the code out from
// under the operation in progress.
func (ins *Installer) reload(res *Result, name, path string) {
	if ins.Session == nil || !ins.Session.IsLoaded(name) {
		return
	}
	if ins.Self.Is(name) {
		ins.warn(res, "skipping reload of the running tool; restart to use the new version", "name", name)
		return
	}
	if err := ins.Session.Unload(name); err != nil {
		ins.warn(res, "could not unload package", "name", name, "err", err)
		return
	}
	ins.load(res, name, path)
}

// requestFor rebuilds the fetch request that produced rec.
func requestFor(rec *metadata.Record) source.Request {
	req := source.Request{Type: rec.SourceType, Path: rec.SourcePath}
	if rec.SourceType == metadata.SourceRemote {
		if rec.SourceHost != "" {
			req.Path = "https://" + rec.SourceHost + "/" + rec.SourcePath
		}
		req.Branch = rec.Branch
		req.SubPath = rec.ModuleSubPath
	}
	return req
}
