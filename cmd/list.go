package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kb-labs/devpkg/internal/installer"
	"github.com/kb-labs/devpkg/internal/logger"
	"github.com/kb-labs/devpkg/internal/metadata"
)

var listCmd = &cobra.Command{
	Use:     "list [name]",
	Aliases: []string{"ls"},
	Short:   "Show installed packages",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runList,
}

var flagListAll bool

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVarP(&flagListAll, "all", "a", false, "also show package directories without a metadata record")
}

func runList(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}
	filter := ""
	if len(args) == 1 {
		filter = args[0]
	}

	// Listing is read-only: no log file is created under root.
	ins := newInstaller(root, logger.NewStderr(logger.ParseLevel(settings.LogLevel)))
	records, err := ins.List(root, filter)
	if err != nil {
		return err
	}
	var orphans []installer.Orphan
	if flagListAll {
		if orphans, err = ins.Orphans(root); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Printf("  %s %s\n\n", labelStyle.Render("Root:"), valStyle.Render(root))

	if len(records) == 0 && len(orphans) == 0 {
		if filter != "" {
			fmt.Printf("  %s\n\n", dimStyle.Render(fmt.Sprintf("%s is not installed", filter)))
		} else {
			fmt.Printf("  %s\n\n", dimStyle.Render("No packages installed"))
		}
		return nil
	}

	for _, r := range records {
		printRecordLine(&r)
	}
	if len(orphans) > 0 {
		fmt.Printf("\n  %s\n", labelStyle.Render("Untracked:"))
		for _, o := range orphans {
			version := "?"
			if o.Latest != nil {
				version = o.Latest.Version
			}
			fmt.Printf("    %s %-24s %-12s %s\n", warnStyle.Render("?"), o.Name, version, dimStr("no metadata record"))
		}
	}
	fmt.Println()
	return nil
}

func printRecordLine(r *metadata.Record) {
	mark := okStyle.Render("●")
	note := dimStr(describeSource(r))
	if _, err := os.Stat(r.InstallPath); err != nil {
		mark = badStyle.Render("●")
		note = badStyle.Render("missing") + " " + dimStr(r.InstallPath)
	}
	fmt.Printf("    %s %-24s %-12s %-8s %s  %s\n",
		mark, r.Name, r.Version, r.SourceType,
		dimStr(r.InstallDate.Local().Format("2006-01-02 15:04")),
		note,
	)
}

func dimStr(s string) string {
	return dimStyle.Render(s)
}
