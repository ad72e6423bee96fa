// SPDX-License-Identifier: MPL-2.0

// Package gitx wraps the version-control side of the release pipeline:
// remote URL parsing, tag creation, and tag resolution.
package gitx

import (
	"fmt"
	"regexp"
	"strings"
)

// githubHost identifies the well-known GitHub hostname. Any remote URL
// containing it selects the GitHub publishing path; everything else is
// treated as a generic self-hosted forge.
const githubHost = "github.com"

type (
	// Remote describes the repository's configured origin. Derived once per
	// run; the pipeline never re-parses it.
	Remote struct {
		// Host is the bare hostname (e.g., "git.example.com").
		Host string
		// HostURL is the scheme-qualified base URL of the host
		// (e.g., "https://git.example.com"). SSH remotes assume https.
		HostURL string
		// Owner is everything in the path before the last segment.
		Owner string
		// Repo is the last path segment with any ".git" suffix stripped.
		Repo string
		// IsGitHub selects the GitHub publishing path.
		IsGitHub bool
	}
)

var (
	// sshRemoteRE matches SSH-style remotes: user@host:owner/repo(.git)
	sshRemoteRE = regexp.MustCompile(`^[A-Za-z0-9._-]+@([A-Za-z0-9._-]+):(.+)$`)

	// httpRemoteRE matches HTTP(S)-style remotes: http(s)://host/owner/repo(.git)
	httpRemoteRE = regexp.MustCompile(`^(https?)://([A-Za-z0-9._-]+(?::\d+)?)/(.+)$`)
)

// ParseRemote extracts host, owner, and repository name from an origin URL.
// Both SSH-style (git@host:owner/repo.git) and HTTP(S)-style
// (https://host/owner/repo.git) shapes are supported; any other shape is a
// fatal parse error, halting the pipeline before tags or releases are touched.
func ParseRemote(raw string) (*Remote, error) {
	raw = strings.TrimSpace(raw)

	var host, hostURL, path string

	switch {
	case httpRemoteRE.MatchString(raw):
		m := httpRemoteRE.FindStringSubmatch(raw)
		host, path = m[2], m[3]
		hostURL = m[1] + "://" + host
	case sshRemoteRE.MatchString(raw):
		m := sshRemoteRE.FindStringSubmatch(raw)
		host, path = m[1], m[2]
		hostURL = "https://" + host
	default:
		return nil, fmt.Errorf("unrecognized remote URL %q: expected user@host:owner/repo or http(s)://host/owner/repo", raw)
	}

	path = strings.TrimSuffix(strings.TrimSuffix(path, "/"), ".git")

	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return nil, fmt.Errorf("remote URL %q has no owner/repository path", raw)
	}

	return &Remote{
		Host:     host,
		HostURL:  hostURL,
		Owner:    path[:idx],
		Repo:     path[idx+1:],
		IsGitHub: strings.Contains(raw, githubHost),
	}, nil
}

// Slug returns "owner/repo".
func (r *Remote) Slug() string {
	return r.Owner + "/" + r.Repo
}
