// Package config loads user settings for devpkg from
// <userConfigDir>/devpkg/config.yaml, DEVPKG_* environment variables and
// built-in defaults, in that order of precedence (env wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName names the config and data directories.
	AppName = "devpkg"
	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "DEVPKG"

	configFile = "config.yaml"
)

// Settings is the resolved configuration.
type Settings struct {
	// InstallRoot is where packages are installed. Empty means DefaultRoot.
	InstallRoot  string         `mapstructure:"install_root"`
	GitHub       GitHubSettings `mapstructure:"github"`
	SelfName     string         `mapstructure:"self_name"`
	FetchTimeout time.Duration  `mapstructure:"fetch_timeout"`
	LogLevel     string         `mapstructure:"log_level"`
}

// GitHubSettings configures remote archive downloads.
type GitHubSettings struct {
	Host          string `mapstructure:"host"`
	DefaultBranch string `mapstructure:"default_branch"`
	// TokenEnv names the environment variable holding a bearer token.
	// The token itself is never written to config.
	TokenEnv string `mapstructure:"token_env"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		GitHub: GitHubSettings{
			Host:          "github.com",
			DefaultBranch: "main",
			TokenEnv:      "GITHUB_TOKEN",
		},
		SelfName:     AppName,
		FetchTimeout: 2 * time.Minute,
		LogLevel:     "info",
	}
}

// LoadOptions overrides where Load looks for a config file.
type LoadOptions struct {
	// File is used exclusively when set and must exist.
	File string
	// Dir replaces the user config directory.
	Dir string
}

// Load resolves settings. It returns the config file actually read, or ""
// when defaults and environment were enough.
func Load(opts LoadOptions) (*Settings, string, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("install_root", d.InstallRoot)
	v.SetDefault("github.host", d.GitHub.Host)
	v.SetDefault("github.default_branch", d.GitHub.DefaultBranch)
	v.SetDefault("github.token_env", d.GitHub.TokenEnv)
	v.SetDefault("self_name", d.SelfName)
	v.SetDefault("fetch_timeout", d.FetchTimeout)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolved := ""
	switch {
	case opts.File != "":
		if !fileExists(opts.File) {
			return nil, "", fmt.Errorf("config file not found: %s", opts.File)
		}
		resolved = opts.File
	default:
		dir := opts.Dir
		if dir == "" {
			var err error
			if dir, err = Dir(); err != nil {
				return nil, "", err
			}
		}
		if p := filepath.Join(dir, configFile); fileExists(p) {
			resolved = p
		}
	}

	if resolved != "" {
		v.SetConfigFile(resolved)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", resolved, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, "", fmt.Errorf("parse config: %w", err)
	}
	if s.FetchTimeout < 0 {
		return nil, "", fmt.Errorf("fetch_timeout must not be negative, got %s", s.FetchTimeout)
	}
	return &s, resolved, nil
}

// Root returns the configured install root, falling back to DefaultRoot.
func (s *Settings) Root() (string, error) {
	if s.InstallRoot != "" {
		return expandHome(s.InstallRoot)
	}
	return DefaultRoot()
}

// Token reads the bearer token from the configured environment variable.
func (s *Settings) Token() string {
	if s.GitHub.TokenEnv == "" {
		return ""
	}
	return os.Getenv(s.GitHub.TokenEnv)
}

// Dir returns <userConfigDir>/devpkg.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// DefaultPath returns the config file Load reads when no override is given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// DefaultRoot returns the per-user install root: %LOCALAPPDATA% on Windows,
// ~/Library/Application Support on macOS, $XDG_DATA_HOME (default
// ~/.local/share) elsewhere, each followed by devpkg/modules.
func DefaultRoot() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".local", "share")
		}
	}
	return filepath.Join(base, AppName, "modules"), nil
}

// WriteDefault writes the built-in settings to path. An existing file is
// left alone and reported as an error.
func WriteDefault(path string) error {
	if fileExists(path) {
		return fmt.Errorf("config already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	d := Defaults()
	v := viper.New()
	v.Set("github.host", d.GitHub.Host)
	v.Set("github.default_branch", d.GitHub.DefaultBranch)
	v.Set("github.token_env", d.GitHub.TokenEnv)
	v.Set("self_name", d.SelfName)
	v.Set("fetch_timeout", d.FetchTimeout.String())
	v.Set("log_level", d.LogLevel)
	v.SetConfigType("yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}
