// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/relkit/relkit/internal/changelog"
	"github.com/relkit/relkit/internal/releasefile"
	"github.com/relkit/relkit/internal/version"
)

var (
	notesPlain bool
	notesList  bool

	notesCmd = &cobra.Command{
		Use:   "notes [version]",
		Short: "Show the changelog section for a version",
		Long: `Show the changelog section that would become the release notes.

Reads the "## [X.Y.Z]" section from the project changelog, the same
extraction the release pipeline uses. With --list, shows every version
the changelog documents instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := changelogPath()
			if err != nil {
				return exitWithError(err)
			}

			if notesList {
				return listNotes(path)
			}
			if len(args) == 0 {
				return fmt.Errorf("a version argument is required unless --list is given")
			}
			return showNotes(path, args[0])
		},
	}
)

func init() {
	notesCmd.Flags().BoolVar(&notesPlain, "plain", false, "print raw markdown without terminal rendering")
	notesCmd.Flags().BoolVar(&notesList, "list", false, "list every version documented in the changelog")
}

// changelogPath resolves the changelog location, honoring a relfile override.
func changelogPath() (string, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	file, err := releasefile.Load(workDir)
	if err != nil {
		return "", err
	}

	name := changelog.DefaultFileName
	if file.Changelog != "" {
		name = file.Changelog
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Join(workDir, name), nil
}

func showNotes(path, rawVersion string) error {
	tag := version.Normalize(rawVersion)

	body, err := changelog.BodyOrFallback(path, tag)
	if err != nil {
		return exitWithError(err)
	}

	if notesPlain {
		fmt.Println(body)
		return nil
	}

	rendered, err := glamour.Render("## "+tag+"\n\n"+body, "auto")
	if err != nil {
		// Fall back to raw markdown when the terminal renderer fails.
		fmt.Println(body)
		return nil
	}
	fmt.Print(rendered)
	return nil
}

func listNotes(path string) error {
	versions, err := changelog.Versions(path)
	if err != nil {
		return exitWithError(err)
	}
	if len(versions) == 0 {
		fmt.Println(SubtitleStyle.Render("(no versions documented)"))
		return nil
	}
	for _, v := range versions {
		fmt.Println(v)
	}
	return nil
}
