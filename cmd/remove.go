package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/kb-labs/devpkg/internal/installer"
	"github.com/kb-labs/devpkg/internal/logger"
	"github.com/kb-labs/devpkg/internal/metadata"
	"github.com/kb-labs/devpkg/internal/wizard"
)

var removeCmd = &cobra.Command{
	Use:     "remove <name>...",
	Aliases: []string{"rm", "uninstall"},
	Short:   "Delete every version of one or more packages",
	Long: `Deletes <root>/<name> with all its versions and the metadata record.
Each name is asked about unless --force is set or the terminal is not
interactive. Names that are not installed are reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var flagRemoveForce bool

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().BoolVarP(&flagRemoveForce, "force", "f", false, "do not ask for confirmation")
}

func runRemove(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}

	log := openLogger(root, "remove")
	defer log.Close()

	ins := newInstaller(root, log)
	if !flagRemoveForce && interactive() {
		ins.Confirm = func(rec *metadata.Record) (bool, error) {
			return wizard.Confirm(fmt.Sprintf("Remove %s %s and all its versions?", rec.Name, rec.Version), false)
		}
	}

	failed := removeAll(cmd.Context(), ins, root, args, log)
	if failed > 0 {
		return fmt.Errorf("%d of %d removals failed", failed, len(args))
	}
	return nil
}

// removeAll removes names in order, continuing past missing packages. It
// returns the number of names that could not be removed.
func removeAll(ctx context.Context, ins *installer.Installer, root string, names []string, log *logger.Logger) int {
	failed := 0
	for _, name := range names {
		res, err := ins.Remove(ctx, installer.RemoveOptions{Name: name, Root: root, Force: flagRemoveForce})
		switch {
		case errors.Is(err, installer.ErrNotInstalled):
			failed++
			fmt.Printf("  %s %s\n", badStyle.Render("✗"), notInstalledError(root, name, err))
		case err != nil:
			failed++
			log.Error("remove failed", "name", name, "err", err)
			fmt.Printf("  %s %s: %v\n", badStyle.Render("✗"), name, err)
		case res.Status == installer.StatusCancelled:
			fmt.Printf("  %s %s\n", dimStyle.Render("-"), dimStyle.Render(name+" kept"))
		default:
			fmt.Printf("  %s Removed %s %s\n", okStyle.Render("✓"), res.Record.Name, dimStyle.Render(res.Record.Version))
			printWarnings(res)
		}
	}
	return failed
}

// notInstalledError adds close matches among installed names to err.
func notInstalledError(root, name string, err error) error {
	records, _ := metadata.NewStore(root, nil).List()
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	if s := suggest(name, names); len(s) > 0 {
		return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(s, ", "))
	}
	return err
}

// suggest returns up to three installed names that fuzzily match name.
func suggest(name string, installed []string) []string {
	var out []string
	for _, n := range installed {
		if strings.EqualFold(n, name) {
			return []string{n}
		}
	}
	for _, m := range fuzzy.Find(name, installed) {
		out = append(out, m.Str)
		if len(out) == 3 {
			break
		}
	}
	return out
}
