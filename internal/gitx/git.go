// SPDX-License-Identifier: MPL-2.0

package gitx

import (
	"context"
	"fmt"

	"github.com/relkit/relkit/internal/execx"
	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/output"
)

// Client runs git commands against the working repository.
type Client struct {
	Runner execx.CommandRunner
}

// OriginURL returns the configured URL of the "origin" remote.
func (c *Client) OriginURL(ctx context.Context) (string, error) {
	url, err := c.Runner.Output(ctx, "git", "remote", "get-url", "origin")
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("read origin remote").
			WithSuggestion("Check that the repository has an 'origin' remote configured").
			Wrap(err).
			BuildError()
	}
	return url, nil
}

// DetectRemote reads and parses the origin remote in one step.
func (c *Client) DetectRemote(ctx context.Context) (*Remote, error) {
	url, err := c.OriginURL(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := ParseRemote(url)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse origin remote").
			WithResource(url).
			WithSuggestion("Supported shapes: user@host:owner/repo.git and https://host/owner/repo.git").
			Wrap(err).
			BuildError()
	}
	return remote, nil
}

// TagExists reports whether the tag is already present locally.
func (c *Client) TagExists(ctx context.Context, tag string) (bool, error) {
	out, err := c.Runner.Output(ctx, "git", "tag", "-l", tag)
	if err != nil {
		return false, fmt.Errorf("listing tags: %w", err)
	}
	return out != "", nil
}

// EnsureTag creates and pushes an annotated tag for the release version
// unless one already exists. Re-running with the same version is a no-op:
// a pre-existing tag is reused without checking which commit it points at.
func (c *Client) EnsureTag(ctx context.Context, tag string) error {
	exists, err := c.TagExists(ctx, tag)
	if err != nil {
		return err
	}
	if exists {
		output.Info("tag already exists, reusing", "tag", tag)
		return nil
	}

	if err := c.Runner.Run(ctx, "git", "tag", "-a", tag, "-m", "Release "+tag); err != nil {
		return issue.NewErrorContext().
			WithOperation("create tag").
			WithResource(tag).
			Wrap(err).
			BuildError()
	}

	if err := c.Runner.Run(ctx, "git", "push", "origin", tag); err != nil {
		return issue.NewErrorContext().
			WithOperation("push tag").
			WithResource(tag).
			WithSuggestion("Check network connectivity and push permissions").
			Wrap(err).
			BuildError()
	}

	output.Info("tag created and pushed", "tag", tag)
	return nil
}

// ResolveTagSHA returns the commit hash the tag points to.
func (c *Client) ResolveTagSHA(ctx context.Context, tag string) (string, error) {
	sha, err := c.Runner.Output(ctx, "git", "rev-list", "-n", "1", tag)
	if err != nil {
		return "", fmt.Errorf("resolving tag %s: %w", tag, err)
	}
	return sha, nil
}
