package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/kb-labs/devpkg/internal/installer"
	"github.com/kb-labs/devpkg/internal/logger"
	"github.com/kb-labs/devpkg/internal/metadata"
	"github.com/kb-labs/devpkg/internal/session"
	"github.com/kb-labs/devpkg/internal/source"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boldOK     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
)

// openLogger returns a logger for op whose file under root is only created
// once the installer starts changing the filesystem.
func openLogger(root, op string) *logger.Logger {
	return logger.New(root, op, logger.ParseLevel(settings.LogLevel))
}

// newInstaller wires the installer to the real fetchers and the session file.
func newInstaller(root string, log *logger.Logger) *installer.Installer {
	remote := source.NewRemote(
		source.WithHost(settings.GitHub.Host),
		source.WithDefaultBranch(settings.GitHub.DefaultBranch),
		source.WithUserAgent("devpkg/"+strings.Fields(versionString)[0]),
	)
	return &installer.Installer{
		Fetcher: source.Fetchers{
			metadata.SourceLocal:  &source.Local{},
			metadata.SourceRemote: remote,
		},
		Session: session.NewFileHost(root),
		Self:    session.Self{Name: settings.SelfName},
		Log:     log,
	}
}

// interactive reports whether stdin and stdout are both terminals.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func printWarnings(r *installer.Result) {
	for _, w := range r.Warnings {
		fmt.Printf("  %s %s\n", warnStyle.Render("!"), w)
	}
}
