// SPDX-License-Identifier: MPL-2.0

// Package gobuild drives the Go toolchain to cross-compile release binaries.
package gobuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/relkit/relkit/internal/execx"
	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/target"
)

// TimestampLayout is the UTC build timestamp format injected into binaries.
const TimestampLayout = "2006-01-02_15:04:05"

type (
	// Builder cross-compiles the project once per enabled target.
	Builder struct {
		// Runner executes go commands. Each build runs with GOOS/GOARCH set
		// for its target.
		Runner *execx.Runner
		// Project is the artifact name prefix (the working directory's base name).
		Project string
		// Version is the normalized release version.
		Version string
		// BuildDir is the output directory for artifacts.
		BuildDir string
		// Now supplies the build timestamp; defaults to time.Now when nil.
		Now func() time.Time
	}

	// Artifact is one built binary.
	Artifact struct {
		Path   string
		Target target.Target
	}
)

// BinaryName returns the artifact filename for a target:
// <project>_<version>_<label>[.exe].
func BinaryName(project, version string, t target.Target) string {
	return fmt.Sprintf("%s_%s_%s%s", project, version, t.Label, t.ExeSuffix)
}

// LDFlags builds the linker flags: strip debug symbols and inject the build
// timestamp and version as string symbols.
func LDFlags(version string, buildTime time.Time) string {
	ts := buildTime.UTC().Format(TimestampLayout)
	return fmt.Sprintf("-s -w -X main.buildTime=%s -X main.buildVersion=%s", ts, version)
}

// Clean removes any previous contents of the build directory and recreates
// it. A missing directory is not an error. In dry-run mode the removal is
// printed like any other planned command and the directory is left intact.
func (b *Builder) Clean() error {
	if b.Runner.DryRun {
		out := b.Runner.Stdout
		if out == nil {
			out = os.Stdout
		}
		fmt.Fprintf(out, "+ rm -rf %s\n", b.BuildDir)
		fmt.Fprintf(out, "+ mkdir -p %s\n", b.BuildDir)
		return nil
	}

	if err := os.RemoveAll(b.BuildDir); err != nil {
		return issue.WrapWithOperation(err, "clear build directory")
	}
	if err := os.MkdirAll(b.BuildDir, 0o755); err != nil {
		return issue.WrapWithOperation(err, "create build directory")
	}
	return nil
}

// Test runs the project's full test suite. Any failure aborts the pipeline
// before a single binary is built.
func (b *Builder) Test(ctx context.Context) error {
	if err := b.Runner.Run(ctx, "go", "test", "./..."); err != nil {
		return issue.NewErrorContext().
			WithOperation("run test suite").
			WithSuggestion("Fix the failing tests before releasing").
			Wrap(err).
			BuildError()
	}
	return nil
}

// Build cross-compiles one target. Binaries are statically linked
// (CGO_ENABLED=0), trimmed, and stripped, with the version and a UTC build
// timestamp injected via -ldflags.
func (b *Builder) Build(ctx context.Context, t target.Target) (*Artifact, error) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	outPath := filepath.Join(b.BuildDir, BinaryName(b.Project, b.Version, t))

	runner := &execx.Runner{
		Dir:    b.Runner.Dir,
		Stdout: b.Runner.Stdout,
		Stderr: b.Runner.Stderr,
		DryRun: b.Runner.DryRun,
		Env: append([]string{
			"GOOS=" + t.OS,
			"GOARCH=" + t.Arch,
			"CGO_ENABLED=0",
		}, b.Runner.Env...),
	}

	err := runner.Run(ctx, "go", "build",
		"-trimpath",
		"-ldflags", LDFlags(b.Version, now()),
		"-o", outPath,
		".",
	)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("cross-compile").
			WithResource(t.Label).
			Wrap(err).
			BuildError()
	}

	return &Artifact{Path: outPath, Target: t}, nil
}
