// Package cmd implements the devpkg CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kb-labs/devpkg/internal/config"
)

var (
	cfgFile       string
	flagRoot      string
	flagVerbose   bool
	settings      = defaultSettings()
	versionString = "dev (built from source)"
)

// SetVersionInfo is called from main.go with values injected at build time via -ldflags.
// It must be called before Execute().
func SetVersionInfo(version, commit, date string) {
	if version == "dev" {
		return
	}
	versionString = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

var rootCmd = &cobra.Command{
	Use:   "devpkg",
	Short: "Package manager for development-time modules",
	Long: `devpkg installs, lists, updates and removes versioned development
modules from a local directory or a GitHub repository.

Examples:
  devpkg install ./SampleDevModule      install from a directory
  devpkg install kb-labs/tools          install from GitHub
  devpkg install                        interactive wizard
  devpkg list                           show installed packages
  devpkg update SampleDevModule         re-fetch from the recorded source
  devpkg remove SampleDevModule         delete all versions
  devpkg logs                           show the latest operation log`,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versionString),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <user config dir>/devpkg/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "install root (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(rootPathCmd)
}

// initConfig loads settings once flags are parsed. A broken config file is
// reported and the defaults are used instead.
func initConfig() {
	s, _, err := config.Load(config.LoadOptions{File: cfgFile})
	if err != nil {
		warn := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
		fmt.Fprintln(os.Stderr, warn.Render("Warning: ")+err.Error())
		return
	}
	settings = s
	if flagVerbose {
		settings.LogLevel = "debug"
	}
}

func defaultSettings() *config.Settings {
	d := config.Defaults()
	return &d
}

// resolveRoot returns the install root from --root or config.
func resolveRoot() (string, error) {
	if flagRoot != "" {
		return expandHome(flagRoot), nil
	}
	return settings.Root()
}

var rootPathCmd = &cobra.Command{
	Use:   "root",
	Short: "Print the install root",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), root)
		return nil
	},
}
