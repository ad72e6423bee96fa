// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/relkit/relkit/internal/config"
	"github.com/relkit/relkit/internal/forge"
	"github.com/relkit/relkit/internal/releasefile"
)

var (
	initCredentials bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage relkit configuration",
		Long: `Manage relkit configuration.

Configuration is stored in:
  - Linux: ~/.config/relkit/config.cue
  - macOS: ~/Library/Application Support/relkit/config.cue
  - Windows: %APPDATA%\relkit\config.cue

Forge credentials for self-hosted releases live next to it in forge.toml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "vet",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return vetConfig()
		},
	})

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFiles()
		},
	}
	initCmd.Flags().BoolVar(&initCredentials, "credentials", false, "also scaffold the forge credentials file")
	configCmd.AddCommand(initCmd)
}

func showConfig() error {
	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	cfgDir, err := config.ConfigDir()
	if err == nil {
		cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
		if _, statErr := os.Stat(cfgPath); statErr == nil {
			fmt.Printf("%s: %s\n", CmdStyle.Render("Config file"), cfgPath)
		} else {
			fmt.Printf("%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
		}
	}
	fmt.Println()

	fmt.Printf("%s: %s\n", CmdStyle.Render("ui.verbose"), SuccessStyle.Render(fmt.Sprint(cfg.UI.Verbose)))
	fmt.Printf("%s: %s\n", CmdStyle.Render("build.dir"), SuccessStyle.Render(cfg.Build.Dir))
	fmt.Printf("%s: %s\n", CmdStyle.Render("build.upx_level"), SuccessStyle.Render(fmt.Sprint(cfg.Build.UPXLevel)))
	fmt.Printf("%s: %s\n", CmdStyle.Render("net.timeout_seconds"), SuccessStyle.Render(fmt.Sprint(cfg.Net.TimeoutSeconds)))
	fmt.Printf("%s: %s\n", CmdStyle.Render("net.retries"), SuccessStyle.Render(fmt.Sprint(cfg.Net.Retries)))

	credsPath, err := config.CredentialsPath()
	if err == nil {
		fmt.Println()
		if _, statErr := os.Stat(credsPath); statErr == nil {
			fmt.Printf("%s: %s\n", CmdStyle.Render("Forge credentials"), credsPath)
		} else {
			fmt.Printf("%s: %s\n", CmdStyle.Render("Forge credentials"), SubtitleStyle.Render("(not configured)"))
		}
	}

	showRelfile()
	return nil
}

// showRelfile prints the current directory's target selection.
func showRelfile() {
	workDir, err := os.Getwd()
	if err != nil {
		return
	}
	file, err := releasefile.Load(workDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		return
	}

	fmt.Println()
	if file.Present {
		fmt.Printf("%s: %s\n", CmdStyle.Render("Release file"), file.Path)
	} else {
		fmt.Printf("%s: %s\n", CmdStyle.Render("Release file"), SubtitleStyle.Render("(none, all targets enabled)"))
	}
	for _, line := range file.Summary() {
		fmt.Println("  " + line)
	}
}

// vetConfig re-loads the global configuration and the project relfile so
// schema violations surface with their CUE paths, then confirms success.
func vetConfig() error {
	if _, err := config.Load(); err != nil {
		return exitWithError(err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return exitWithError(err)
	}
	if _, err := releasefile.Load(workDir); err != nil {
		return exitWithError(err)
	}

	fmt.Println(SuccessStyle.Render("Configuration is valid"))
	return nil
}

func initConfigFiles() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return exitWithError(err)
	}
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return exitWithError(err)
	}

	cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("%s already exists\n", cfgPath)
	} else {
		if err := os.WriteFile(cfgPath, []byte(defaultConfigCUE), 0o644); err != nil {
			return exitWithError(err)
		}
		fmt.Printf("%s %s\n", SuccessStyle.Render("Created"), cfgPath)
	}

	if initCredentials {
		credsPath, err := config.CredentialsPath()
		if err != nil {
			return exitWithError(err)
		}
		if err := forge.WriteCredentialsTemplate(credsPath); err != nil {
			return exitWithError(err)
		}
		fmt.Printf("%s %s\n", SuccessStyle.Render("Created"), credsPath)
	}
	return nil
}

// defaultConfigCUE is the commented scaffold written by `relkit config init`.
const defaultConfigCUE = `// relkit configuration.

ui: {
	// Enable verbose output by default.
	verbose: false
}

build: {
	// Artifact output directory, relative to the project root.
	dir: "build"

	// upx aggressiveness (1-9).
	upx_level: 9
}

net: {
	// Per-request timeout for forge API calls, in seconds.
	timeout_seconds: 30

	// Bounded retries for transient forge API failures.
	retries: 3
}
`
