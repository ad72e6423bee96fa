// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/pipeline"
)

var (
	dryRun bool

	releaseCmd = &cobra.Command{
		Use:   "release <version>",
		Short: "Run the full release pipeline",
		Long: `Run the full release pipeline for a version.

The pipeline runs the pre-release hook and test suite, cross-compiles a
static binary per enabled target, compresses eligible binaries with upx,
prints and writes SHA256 checksums, creates and pushes an annotated tag,
and publishes a release with artifacts on the origin remote's forge.

The version may be given with or without the "v" prefix; the tag always
carries it. Re-running a version reuses an existing tag, and on
self-hosted forges an existing release as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args[0], nil)
		},
	}
)

func init() {
	releaseCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print planned actions without releasing")
}

// runPipeline assembles a pipeline for the current directory and runs the
// given stages, or every stage when stages is nil.
func runPipeline(cmd *cobra.Command, rawVersion string, stages []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	p, err := pipeline.New(workDir, rawVersion, cfg, dryRun)
	if err != nil {
		return exitWithError(err)
	}

	ctx := cmd.Context()
	if stages == nil {
		if err := p.Run(ctx); err != nil {
			return exitWithError(err)
		}
		fmt.Println(SuccessStyle.Render("Release " + p.Version + " complete"))
		return nil
	}

	for _, stage := range stages {
		var err error
		switch stage {
		case "preflight":
			err = p.Preflight(ctx)
		case "build":
			err = p.BuildAll(ctx)
		case "compress":
			err = p.Compress(ctx)
		case "checksum":
			err = p.Checksum(ctx)
		default:
			err = fmt.Errorf("unknown stage %q", stage)
		}
		if err != nil {
			return exitWithError(err)
		}
	}
	return nil
}

// exitWithError prints the error in its actionable form and converts it to
// a nonzero exit without cobra re-printing it.
func exitWithError(err error) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+ae.Format(verbose))
	} else {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
	}
	return &ExitError{Code: 1, Err: err}
}
