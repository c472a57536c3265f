package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kb-labs/devpkg/internal/installer"
)

var updateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Re-fetch a package from its recorded source",
	Long: `Fetches the package again from the source recorded at install time and
installs the result as a new version directory. Older versions stay on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var flagUpdateTokenEnv string

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVar(&flagUpdateTokenEnv, "token-env", "", "environment variable holding a GitHub token")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}
	name := args[0]

	log := openLogger(root, "update")
	defer log.Close()

	ins := newInstaller(root, log)
	// Local sources ignore the token.
	opts := installer.UpdateOptions{Name: name, Root: root, Token: token(flagUpdateTokenEnv)}

	ctx, cancel := fetchContext(cmd.Context())
	defer cancel()

	fmt.Println()
	sp := newSpinner()
	ins.OnStep = func(step, total int, label string) {
		sp.setLabel(fmt.Sprintf("[%d/%d] %s", step, total, label))
	}
	ins.OnLine = sp.setDetail

	sp.start()
	res, err := update(ctx, ins, &opts)
	sp.stop(err)

	if err != nil {
		if errors.Is(err, installer.ErrNotInstalled) {
			return notInstalledError(root, name, err)
		}
		return fmt.Errorf("update failed: %w", err)
	}

	printInstalled("Update complete", res, log.LogPath())
	return nil
}
