package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kb-labs/devpkg/internal/installer"
	"github.com/kb-labs/devpkg/internal/manifest"
	"github.com/kb-labs/devpkg/internal/metadata"
)

var infoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show a package's record and README",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var flagNoReadme bool

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&flagNoReadme, "no-readme", false, "do not render README.md")
}

func runInfo(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}
	name := args[0]

	rec, err := metadata.NewStore(root, nil).Read(name)
	if err != nil {
		return err
	}
	if rec == nil {
		return notInstalledError(root, name, fmt.Errorf("info %s: %w", name, installer.ErrNotInstalled))
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", labelStyle.Render("Name:     "), valStyle.Render(rec.Name))
	fmt.Printf("  %s %s\n", labelStyle.Render("Version:  "), rec.Version)
	if desc, err := manifest.Load(rec.InstallPath); err == nil && desc.Description != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("About:    "), desc.Description)
	}
	fmt.Printf("  %s %s %s\n", labelStyle.Render("Source:   "), describeSource(rec), dimStr("("+string(rec.SourceType)+")"))
	fmt.Printf("  %s %s\n", labelStyle.Render("Installed:"), rec.InstallDate.Local().Format("2006-01-02 15:04"))
	fmt.Printf("  %s %s\n", labelStyle.Render("Path:     "), rec.InstallPath)

	if versions, err := metadata.VersionDirs(filepath.Join(root, rec.Name)); err == nil && len(versions) > 1 {
		fmt.Printf("  %s %s\n", labelStyle.Render("On disk:  "), strings.Join(versions, ", "))
	}
	fmt.Println()

	if flagNoReadme {
		return nil
	}
	readme, err := os.ReadFile(filepath.Join(rec.InstallPath, "README.md"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read README: %w", err)
	}
	fmt.Println(renderMarkdown(string(readme), terminalWidth()))
	return nil
}

// renderMarkdown styles md for the terminal, falling back to the raw text.
func renderMarkdown(md string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n ")
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return min(w, 120)
}
