package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kb-labs/devpkg/internal/installer"
	"github.com/kb-labs/devpkg/internal/metadata"
	"github.com/kb-labs/devpkg/internal/source"
	"github.com/kb-labs/devpkg/internal/wizard"
)

var installCmd = &cobra.Command{
	Use:     "install [source]",
	Aliases: []string{"add"},
	Short:   "Install a package from a directory or GitHub",
	Long: `Installs the package found at source into <root>/<name>/<version>.

source is a local directory, owner/repo, or https://<host>/<owner>/<repo>.
Without a source, an interactive wizard asks for one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

var (
	flagName     string
	flagForce    bool
	flagSkipLoad bool
	flagBranch   string
	flagSubPath  string
	flagRemote   bool
	flagTokenEnv string
	flagYes      bool
)

func init() {
	rootCmd.AddCommand(installCmd)
	f := installCmd.Flags()
	f.StringVar(&flagName, "name", "", "install under this name instead of the descriptor's")
	f.BoolVarP(&flagForce, "force", "f", false, "reinstall over an existing version")
	f.BoolVar(&flagSkipLoad, "skip-load", false, "do not load the package into the session")
	f.StringVar(&flagBranch, "branch", "", "branch to download for remote sources")
	f.StringVar(&flagSubPath, "subpath", "", "package directory inside the repository")
	f.BoolVar(&flagRemote, "remote", false, "treat source as owner/repo even if a local directory matches")
	f.StringVar(&flagTokenEnv, "token-env", "", "environment variable holding a GitHub token")
	f.BoolVarP(&flagYes, "yes", "y", false, "never start the wizard")
}

func runInstall(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}

	sel, err := installSelection(args, root)
	if err != nil {
		return err
	}

	log := openLogger(sel.Root, "install")
	defer log.Close()

	req := source.Request{
		Type:    sel.Type,
		Path:    sel.Source,
		Branch:  sel.Branch,
		SubPath: flagSubPath,
	}
	if sel.Type == metadata.SourceRemote {
		req.Token = token(flagTokenEnv)
	}

	ctx, cancel := fetchContext(cmd.Context())
	defer cancel()

	fmt.Println()
	sp := newSpinner()
	ins := newInstaller(sel.Root, log)
	ins.OnStep = func(step, total int, label string) {
		sp.setLabel(fmt.Sprintf("[%d/%d] %s", step, total, label))
	}
	ins.OnLine = sp.setDetail

	opts := installer.InstallOptions{
		Name:     flagName,
		Source:   req,
		Root:     sel.Root,
		Force:    sel.Force,
		SkipLoad: sel.SkipLoad,
	}
	req.Token = ""

	sp.start()
	res, err := install(ctx, ins, &opts)
	sp.stop(err)

	if err != nil {
		if errors.Is(err, installer.ErrVersionAlreadyExists) {
			return fmt.Errorf("installation failed: %w\nuse --force to reinstall", err)
		}
		return fmt.Errorf("installation failed: %w", err)
	}

	printInstalled("Installation complete", res, log.LogPath())
	return nil
}

// installSelection builds the selection from args and flags, or from the
// wizard when no source was given on an interactive terminal.
func installSelection(args []string, root string) (*wizard.Selection, error) {
	if len(args) == 0 {
		if flagYes || !interactive() {
			return nil, fmt.Errorf("a source is required: devpkg install <dir|owner/repo>")
		}
		sel, err := wizard.Run(wizard.WizardOptions{
			DefaultBranch: flagBranch,
			DefaultRoot:   root,
		})
		if err != nil {
			return nil, err
		}
		sel.Force = sel.Force || flagForce
		sel.SkipLoad = sel.SkipLoad || flagSkipLoad
		if sel.Type == metadata.SourceLocal {
			if sel.Source, err = filepath.Abs(sel.Source); err != nil {
				return nil, err
			}
		}
		return sel, nil
	}

	src := expandHome(args[0])
	sel := &wizard.Selection{
		Source:   src,
		Type:     source.Detect(src),
		Root:     root,
		Force:    flagForce,
		SkipLoad: flagSkipLoad,
	}
	if flagRemote {
		sel.Type = metadata.SourceRemote
	}
	if sel.Type == metadata.SourceRemote {
		sel.Branch = flagBranch
	} else if flagBranch != "" || flagSubPath != "" {
		return nil, fmt.Errorf("--branch and --subpath apply to remote sources only")
	}
	return sel, nil
}

// install runs ins.Install and drops the token from opts once it returns.
func install(ctx context.Context, ins *installer.Installer, opts *installer.InstallOptions) (*installer.Result, error) {
	defer func() { opts.Source.Token = "" }()
	return ins.Install(ctx, *opts)
}

// update runs ins.Update and drops the token from opts once it returns.
func update(ctx context.Context, ins *installer.Installer, opts *installer.UpdateOptions) (*installer.Result, error) {
	defer func() { opts.Token = "" }()
	return ins.Update(ctx, *opts)
}

// token reads the bearer token from the named variable, or the configured one.
func token(envName string) string {
	if envName != "" {
		return os.Getenv(envName)
	}
	return settings.Token()
}

// fetchContext bounds network work by the configured timeout.
func fetchContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if settings.FetchTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, settings.FetchTimeout)
}

// ── success banner ────────────────────────────────────────────────────────────

func printInstalled(title string, r *installer.Result, logPath string) {
	rec := r.Record
	heading := boldOK.Render("✓ " + title)
	if r.Status == installer.StatusPartial {
		heading = warnStyle.Bold(true).Render("! " + title + " with warnings")
	}

	fmt.Println()
	fmt.Println(heading + dimStyle.Render(fmt.Sprintf("  (%s)", r.Duration.Round(100*time.Millisecond))))
	fmt.Println()
	fmt.Printf("  Package:   %s\n", valStyle.Render(rec.Name))
	if r.PreviousVersion != "" && r.PreviousVersion != rec.Version {
		fmt.Printf("  Version:   %s → %s\n", dimStyle.Render(r.PreviousVersion), valStyle.Render(rec.Version))
	} else {
		fmt.Printf("  Version:   %s\n", valStyle.Render(rec.Version))
	}
	fmt.Printf("  Source:    %s %s\n", describeSource(rec), dimStyle.Render("("+string(rec.SourceType)+")"))
	fmt.Printf("  Path:      %s\n", valStyle.Render(rec.InstallPath))
	if logPath != "" {
		fmt.Printf("  Log:       %s\n", dimStyle.Render(logPath))
	}
	if len(r.Warnings) > 0 {
		fmt.Println()
		printWarnings(r)
	}
	fmt.Println()
}

func describeSource(rec *metadata.Record) string {
	if rec.SourceType != metadata.SourceRemote {
		return rec.SourcePath
	}
	s := rec.SourcePath
	if rec.SourceHost != "" && rec.SourceHost != "github.com" {
		s = rec.SourceHost + "/" + s
	}
	if rec.Branch != "" {
		s += "@" + rec.Branch
	}
	if rec.ModuleSubPath != "" {
		s += " " + rec.ModuleSubPath
	}
	return s
}
