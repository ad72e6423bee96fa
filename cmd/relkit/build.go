// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

// buildCmd runs the local half of the pipeline: preflight, cross-compile,
// compress, and checksum. Nothing is tagged or published.
var buildCmd = &cobra.Command{
	Use:   "build <version>",
	Short: "Build and checksum release artifacts without publishing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, args[0], []string{"preflight", "build", "compress", "checksum"})
	},
}

func init() {
	buildCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print planned actions without building")
}
