// SPDX-License-Identifier: MPL-2.0

package forge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/output"
)

// GitHubPublisher shells out to the gh CLI, which carries its own
// authentication. Unlike the Gitea backend it is not idempotent: re-running
// for a tag that already has a release fails with gh's own error.
type GitHubPublisher struct {
	Runner interface {
		Run(ctx context.Context, name string, args ...string) error
	}
}

// Name implements Publisher.
func (p *GitHubPublisher) Name() string { return "github" }

// Publish creates the GitHub release for the tag and attaches every artifact
// found in the build directory.
func (p *GitHubPublisher) Publish(ctx context.Context, req *Request) error {
	if err := p.Runner.Run(ctx, "gh", "auth", "status"); err != nil {
		return issue.NewErrorContext().
			WithOperation("authenticate with GitHub").
			WithSuggestion("Run 'gh auth login' to authenticate the GitHub CLI").
			Wrap(err).
			BuildError()
	}

	all, err := collectAssets(req.BuildDir)
	if err != nil {
		return err
	}

	// Only artifacts named for the repository are attached; the checksum
	// manifest and any foreign files in the build dir stay local.
	var assets []string
	for _, asset := range all {
		if strings.HasPrefix(filepath.Base(asset), req.Remote.Repo+"_") {
			assets = append(assets, asset)
		}
	}

	// The GitHub body is always the generic release line; changelog notes
	// are used on the REST path only.
	args := []string{"release", "create", req.Tag, "--title", req.Tag, "--notes", "Release " + req.Tag}
	args = append(args, assets...)

	if req.DryRun {
		output.Info("dry run: would create GitHub release", "tag", req.Tag, "assets", len(assets))
		return nil
	}

	if err := p.Runner.Run(ctx, "gh", args...); err != nil {
		return issue.NewErrorContext().
			WithOperation("create GitHub release").
			WithResource(req.Tag).
			WithSuggestion("Check whether a release for this tag already exists").
			Wrap(err).
			BuildError()
	}

	output.Info("GitHub release created", "tag", req.Tag, "assets", len(assets))
	return nil
}

// collectAssets lists the regular files in the build directory, sorted by
// name so uploads happen in a stable order.
func collectAssets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing build directory %s: %w", dir, err)
	}

	var assets []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		assets = append(assets, filepath.Join(dir, e.Name()))
	}
	sort.Strings(assets)
	return assets, nil
}
