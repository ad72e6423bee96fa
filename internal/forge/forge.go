// SPDX-License-Identifier: MPL-2.0

// Package forge publishes releases to the hosting service behind the
// repository's origin remote. GitHub repositories go through the gh CLI;
// every other host is treated as a Gitea-compatible forge and driven over
// its REST API.
package forge

import (
	"context"

	"github.com/relkit/relkit/internal/execx"
	"github.com/relkit/relkit/internal/gitx"
)

type (
	// Request carries everything a publisher needs for one release.
	Request struct {
		// Tag is the normalized release tag, e.g., "v1.2.0".
		Tag string
		// Remote identifies the repository being released.
		Remote *gitx.Remote
		// BuildDir holds the artifacts to attach.
		BuildDir string
		// Notes is the release body (changelog section or generic fallback).
		Notes string
		// CommitSHA is the commit the tag points at.
		CommitSHA string
		// DryRun prints the actions without creating anything remote.
		DryRun bool
	}

	// Publisher creates a release and attaches artifacts on one kind of host.
	Publisher interface {
		// Name identifies the publishing backend in log output.
		Name() string
		// Publish creates (or, where the backend supports it, reuses) the
		// release for the request's tag and uploads the build artifacts.
		Publish(ctx context.Context, req *Request) error
	}
)

// New selects the publisher for the detected remote. GitHub remotes get the
// gh CLI backend; everything else gets the Gitea-compatible REST backend,
// which needs credentials. A nil creds with a non-GitHub remote returns
// ErrNoCredentials.
func New(remote *gitx.Remote, runner execx.CommandRunner, creds *Credentials, opts ...GiteaOption) (Publisher, error) {
	if remote.IsGitHub {
		return &GitHubPublisher{Runner: runner}, nil
	}
	if creds == nil {
		return nil, ErrNoCredentials
	}

	base := creds.BaseURL
	if base == "" {
		base = remote.HostURL
	}
	all := append([]GiteaOption{
		WithGiteaBaseURL(base),
		WithGiteaToken(creds.Token),
	}, opts...)
	return NewGiteaPublisher(all...), nil
}
