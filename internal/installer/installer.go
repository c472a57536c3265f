// Package installer orchestrates the package lifecycle: install, update,
// remove and list. It fetches sources through a source.Fetcher, lays out
// version directories, and keeps the metadata store and the active session
// in step with what is on disk.
package installer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kb-labs/devpkg/internal/logger"
	"github.com/kb-labs/devpkg/internal/manifest"
	"github.com/kb-labs/devpkg/internal/metadata"
	"github.com/kb-labs/devpkg/internal/session"
	"github.com/kb-labs/devpkg/internal/source"
)

// Status tags the outcome of an operation.
type Status string

const (
	StatusSuccess   Status = "Success"
	StatusPartial   Status = "Partial"
	StatusCancelled Status = "Cancelled"
)

// InstallOptions describes one Install call.
type InstallOptions struct {
	// Name overrides the package name read from the descriptor.
	Name   string
	Source source.Request
	Root   string
	// Force reinstalls over an existing version directory.
	Force bool
	// SkipLoad leaves the package out of the active session.
	SkipLoad bool
}

// Result is returned after an operation that reached its mutation phase.
type Result struct {
	Record *metadata.Record
	Status Status
	// PreviousVersion is set by Update.
	PreviousVersion string
	// Warnings lists non-fatal problems, already logged.
	Warnings []string
	Duration time.Duration
}

// Installer orchestrates package installs, updates and removals.
type Installer struct {
	Fetcher source.Fetcher
	Session session.Host
	Self    session.Self
	Log     *logger.Logger
	// Confirm asks the user before a removal. Nil means proceed.
	Confirm func(rec *metadata.Record) (bool, error)
	OnStep  func(step, total int, label string) // called at each named stage
	OnLine  func(line string)                   // called for each fetch progress line
	// Now returns the timestamp stored in records. Defaults to time.Now.
	Now func() time.Time
}

// Install fetches opts.Source and installs it as <root>/<name>/<version>.
func (ins *Installer) Install(ctx context.Context, opts InstallOptions) (*Result, error) {
	const op = "install"
	start := time.Now()

	if err := checkRoot(opts.Root); err != nil {
		return nil, opErr(op, opts.Name, err)
	}
	if opts.Name != "" {
		if err := validComponent("package name", opts.Name); err != nil {
			return nil, opErr(op, opts.Name, err)
		}
	}
	if opts.Source.Type == metadata.SourceRemote {
		if _, err := source.ParseIdentifier(opts.Source.Path); err != nil {
			return nil, opErr(op, opts.Name, err)
		}
	}

	ins.step(1, 4, fmt.Sprintf("Fetching %s", opts.Source.Path))
	tree, err := ins.fetch(ctx, opts.Source)
	if err != nil {
		return nil, opErr(op, opts.Name, err)
	}
	defer ins.closeTree(tree)

	ins.step(2, 4, "Reading manifest")
	desc, err := manifest.Load(tree.Root)
	if err != nil {
		return nil, opErr(op, opts.Name, err)
	}
	name := desc.Name
	if opts.Name != "" {
		name = opts.Name
	}
	if !desc.HasVersion {
		ins.Log.Warn("descriptor has no version, using default", "name", name, "version", desc.Version)
	}

	plan, err := PlanPath(opts.Root, name, desc.Version, opts.Force)
	if err != nil {
		return nil, opErr(op, name, err)
	}

	ins.persistLog()
	ins.step(3, 4, fmt.Sprintf("Copying %s@%s", name, desc.Version))
	if err := populate(plan, tree.Root); err != nil {
		return nil, opErr(op, name, err)
	}

	now := ins.now()
	rec := &metadata.Record{
		Name:              name,
		Version:           desc.Version,
		SourceType:        tree.Origin.Type,
		SourcePath:        tree.Origin.Path,
		InstallPath:       plan.Destination,
		LatestVersionPath: plan.Destination,
		InstallDate:       now,
	}
	if tree.Origin.Type == metadata.SourceRemote {
		rec.SourceHost = tree.Origin.Host
		rec.Branch = tree.Origin.Branch
		rec.ModuleSubPath = tree.Origin.SubPath
	}

	res := &Result{Record: rec, Status: StatusSuccess}

	ins.step(4, 4, "Writing metadata")
	ins.writeRecord(opts.Root, rec, res)

	if !opts.SkipLoad {
		ins.load(res, name, plan.Destination)
	}

	res.Duration = time.Since(start)
	ins.Log.Info("installed", "name", name, "version", rec.Version, "path", rec.InstallPath)
	return res, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (ins *Installer) step(n, total int, label string) {
	ins.Log.Printf("[%d/%d] %s", n, total, label)
	if ins.OnStep != nil {
		ins.OnStep(n, total, label)
	}
}

func (ins *Installer) fetch(ctx context.Context, req source.Request) (*source.Tree, error) {
	req.OnProgress = func(line string) {
		ins.Log.Debug(line)
		if ins.OnLine != nil {
			ins.OnLine(line)
		}
	}
	return ins.Fetcher.Fetch(ctx, req)
}

// persistLog materializes the log file. Called right before the first change
// under the install root, so failed validation leaves no trace on disk.
func (ins *Installer) persistLog() {
	if err := ins.Log.Persist(); err != nil {
		ins.Log.Warn("file logging disabled", "err", err)
	}
}

func (ins *Installer) closeTree(tree *source.Tree) {
	if err := tree.Close(); err != nil {
		ins.Log.Warn("could not remove fetch work dir", "err", err)
	}
}

func (ins *Installer) now() time.Time {
	if ins.Now != nil {
		return ins.Now()
	}
	return time.Now().UTC()
}

// warn logs a non-fatal problem and records it on the result.
func (ins *Installer) warn(res *Result, msg string, keyvals ...any) {
	ins.Log.Warn(msg, keyvals...)
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	res.Warnings = append(res.Warnings, b.String())
}

// writeRecord persists rec. Failure downgrades the result to Partial: the
// files on disk are the source of truth, the record is bookkeeping.
func (ins *Installer) writeRecord(root string, rec *metadata.Record, res *Result) {
	store := metadata.NewStore(root, ins.Log)
	if err := store.Write(rec); err != nil {
		res.Status = StatusPartial
		ins.warn(res, "metadata write failed", "name", rec.Name, "err", err)
	}
}

func (ins *Installer) load(res *Result, name, path string) {
	if ins.Session == nil {
		return
	}
	if err := ins.Session.Load(name, path); err != nil {
		ins.warn(res, "could not load package into session", "name", name, "err", err)
	}
}

// populate prepares the plan's destination and copies root into it.
func populate(plan *Plan, root string) error {
	if err := plan.Prepare(); err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	if err := copyTree(root, plan.Destination); err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
