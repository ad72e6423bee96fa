// SPDX-License-Identifier: MPL-2.0

// Package compress shrinks eligible release binaries with upx.
package compress

import (
	"context"
	"fmt"

	"github.com/relkit/relkit/internal/execx"
	"github.com/relkit/relkit/internal/gobuild"
	"github.com/relkit/relkit/internal/output"
)

// Compressor runs upx over upx-eligible artifacts. Compression is a pure
// size optimization: when upx is not installed the whole stage is skipped
// and the pipeline continues.
type Compressor struct {
	Runner *execx.Runner
	// Level is the upx aggressiveness (1-9).
	Level int
	// lookPath is a test seam over execx.LookPath.
	lookPath func(string) bool
}

// Eligible filters artifacts to those whose target supports upx
// (linux and windows; macOS is excluded).
func Eligible(artifacts []*gobuild.Artifact) []*gobuild.Artifact {
	var out []*gobuild.Artifact
	for _, a := range artifacts {
		if a.Target.UPXEligible {
			out = append(out, a)
		}
	}
	return out
}

// Run compresses every eligible artifact in place. A missing upx binary
// skips the stage silently; a upx failure on an individual file is fatal.
func (c *Compressor) Run(ctx context.Context, artifacts []*gobuild.Artifact) error {
	look := c.lookPath
	if look == nil {
		look = execx.LookPath
	}
	if !look("upx") {
		output.Debug("upx not found on PATH, skipping compression")
		return nil
	}

	for _, a := range Eligible(artifacts) {
		output.Debug("compressing", "artifact", a.Path)
		if err := c.Runner.Run(ctx, "upx", fmt.Sprintf("-%d", c.Level), a.Path); err != nil {
			return fmt.Errorf("compressing %s: %w", a.Path, err)
		}
	}
	return nil
}
