package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kb-labs/devpkg/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("%s Wrote %s\n", okStyle.Render("✓"), valStyle.Render(path))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Printf("  %s %s\n", labelStyle.Render("Config file:   "), path)
		fmt.Printf("  %s %s\n", labelStyle.Render("Install root:  "), valStyle.Render(root))
		fmt.Printf("  %s %s\n", labelStyle.Render("GitHub host:   "), settings.GitHub.Host)
		fmt.Printf("  %s %s\n", labelStyle.Render("Branch:        "), settings.GitHub.DefaultBranch)
		fmt.Printf("  %s $%s\n", labelStyle.Render("Token from:    "), settings.GitHub.TokenEnv)
		fmt.Printf("  %s %s\n", labelStyle.Render("Self name:     "), settings.SelfName)
		fmt.Printf("  %s %s\n", labelStyle.Render("Fetch timeout: "), settings.FetchTimeout)
		fmt.Printf("  %s %s\n\n", labelStyle.Render("Log level:     "), settings.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPath()
}
