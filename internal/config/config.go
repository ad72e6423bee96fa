// SPDX-License-Identifier: MPL-2.0

// Package config loads the global relkit configuration.
//
// The config file is CUE ($XDG_CONFIG_HOME/relkit/config.cue), validated
// against an embedded schema and merged into viper on top of the defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/relkit/relkit/internal/cueutil"
	"github.com/relkit/relkit/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "relkit"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// CredentialsFileName is the forge credentials file looked up next to
	// the config file.
	CredentialsFileName = "forge.toml"
)

//go:embed config_schema.cue
var configSchema string

type (
	// Config holds the global tool configuration.
	Config struct {
		UI    UIConfig    `mapstructure:"ui"`
		Build BuildConfig `mapstructure:"build"`
		Net   NetConfig   `mapstructure:"net"`
	}

	// UIConfig controls output behavior.
	UIConfig struct {
		Verbose bool `mapstructure:"verbose"`
	}

	// BuildConfig controls artifact production defaults.
	BuildConfig struct {
		Dir      string `mapstructure:"dir"`
		UPXLevel int    `mapstructure:"upx_level"`
	}

	// NetConfig controls forge API call policy.
	NetConfig struct {
		TimeoutSeconds int `mapstructure:"timeout_seconds"`
		Retries        int `mapstructure:"retries"`
	}
)

// Timeout returns the per-request timeout as a duration.
func (n NetConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// DefaultConfig returns the built-in defaults, used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		UI:    UIConfig{Verbose: false},
		Build: BuildConfig{Dir: "build", UPXLevel: 9},
		Net:   NetConfig{TimeoutSeconds: 30, Retries: 3},
	}
}

// configFileOverride allows the --config flag to bypass the default lookup.
var configFileOverride string

// SetConfigFilePathOverride sets a custom config file path (--config flag).
func SetConfigFilePathOverride(path string) {
	configFileOverride = path
}

// Reset clears overrides. Call from test cleanup to restore defaults.
func Reset() {
	configFileOverride = ""
	configDirOverride = ""
}

// configDirOverride allows tests to override the config directory.
// os.UserHomeDir() doesn't reliably respect the HOME environment variable on
// all platforms (e.g., macOS in CI).
var configDirOverride string

// SetConfigDirOverride sets a custom config directory path, primarily for tests.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// ConfigDir returns the relkit configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// CredentialsPath returns the fixed per-operator forge credentials location.
func CredentialsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, CredentialsFileName), nil
}

// Load reads the global config. A missing config file yields the defaults
// with no error; an invalid one is always an error surfaced to the user.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("build.dir", defaults.Build.Dir)
	v.SetDefault("build.upx_level", defaults.Build.UPXLevel)
	v.SetDefault("net.timeout_seconds", defaults.Net.TimeoutSeconds)
	v.SetDefault("net.retries", defaults.Net.Retries)

	// The --config flag path is used exclusively when set.
	if configFileOverride != "" {
		if !fileExists(configFileOverride) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(configFileOverride).
				WithSuggestion("Verify the file path is correct").
				Wrap(fmt.Errorf("config file not found: %s", configFileOverride)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, configFileOverride); err != nil {
			return nil, wrapConfigError(err, configFileOverride)
		}
	} else {
		cfgDir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, wrapConfigError(err, cuePath)
			}
		}
		// No config file found: run on defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

func wrapConfigError(err error, path string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		Wrap(err).
		BuildError()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into viper.
//
// Note: this decodes to map[string]any rather than using cueutil.ParseAndDecode
// because the result must merge into viper's config map, preserving defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
