// SPDX-License-Identifier: MPL-2.0

package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/output"
)

const (
	// maxJSONResponseBytes is the upper bound on JSON API response size (10 MB).
	maxJSONResponseBytes = 10 << 20

	// defaultMaxRetries bounds the retry loop on transient API failures.
	defaultMaxRetries = 3

	// defaultRetryInterval is the initial backoff delay between retries.
	defaultRetryInterval = 500 * time.Millisecond
)

// ErrReleaseNotFound is returned when no release exists for a tag.
var ErrReleaseNotFound = errors.New("release not found")

type (
	// forgeRelease is the JSON wire format shared by the Gitea release
	// endpoints, request and response.
	forgeRelease struct {
		ID              int64  `json:"id,omitempty"`
		TagName         string `json:"tag_name"`
		TargetCommitish string `json:"target_commitish,omitempty"`
		Name            string `json:"name"`
		Body            string `json:"body"`
		Draft           bool   `json:"draft"`
		Prerelease      bool   `json:"prerelease"`
	}

	// GiteaPublisher drives a Gitea-compatible forge over its REST API.
	// Publishing is idempotent: an existing release for the tag is reused and
	// only the artifact uploads run again.
	GiteaPublisher struct {
		httpClient    *http.Client
		baseURL       string // API root, e.g., "https://git.example.com/api/v1"
		token         string
		userAgent     string
		maxRetries    uint64
		retryInterval time.Duration
	}

	// GiteaOption configures a GiteaPublisher during construction.
	GiteaOption func(*GiteaPublisher)
)

// WithGiteaHTTPClient sets a custom HTTP client, useful for tests.
func WithGiteaHTTPClient(c *http.Client) GiteaOption {
	return func(g *GiteaPublisher) {
		g.httpClient = c
	}
}

// WithGiteaBaseURL sets the forge host. The "/api/v1" suffix is appended
// unless already present, so both host URLs and full API roots work.
func WithGiteaBaseURL(base string) GiteaOption {
	return func(g *GiteaPublisher) {
		base = strings.TrimRight(base, "/")
		if !strings.HasSuffix(base, "/api/v1") {
			base += "/api/v1"
		}
		g.baseURL = base
	}
}

// WithGiteaToken sets the API token sent with every request.
func WithGiteaToken(token string) GiteaOption {
	return func(g *GiteaPublisher) {
		g.token = token
	}
}

// WithGiteaUserAgent sets the User-Agent header value.
func WithGiteaUserAgent(ua string) GiteaOption {
	return func(g *GiteaPublisher) {
		g.userAgent = ua
	}
}

// WithGiteaRetries bounds the retry loop and sets the initial backoff delay.
func WithGiteaRetries(max uint64, interval time.Duration) GiteaOption {
	return func(g *GiteaPublisher) {
		g.maxRetries = max
		g.retryInterval = interval
	}
}

// NewGiteaPublisher creates a GiteaPublisher with sensible defaults.
func NewGiteaPublisher(opts ...GiteaOption) *GiteaPublisher {
	g := &GiteaPublisher{
		httpClient:    http.DefaultClient,
		userAgent:     "relkit",
		maxRetries:    defaultMaxRetries,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements Publisher.
func (g *GiteaPublisher) Name() string { return "gitea" }

// Publish looks up the release for the tag, creates it if absent, and
// uploads every build artifact as an asset. Upload failures are collected
// per asset and reported together instead of stopping at the first one.
func (g *GiteaPublisher) Publish(ctx context.Context, req *Request) error {
	assets, err := collectAssets(req.BuildDir)
	if err != nil {
		return err
	}

	if req.DryRun {
		output.Info("dry run: would publish forge release", "tag", req.Tag, "assets", len(assets))
		return nil
	}

	releaseID, err := g.getReleaseID(ctx, req.Remote.Owner, req.Remote.Repo, req.Tag)
	switch {
	case err == nil:
		output.Info("release already exists, reusing", "tag", req.Tag, "id", releaseID)
	case errors.Is(err, ErrReleaseNotFound):
		releaseID, err = g.createRelease(ctx, req)
		if err != nil {
			return err
		}
		output.Info("release created", "tag", req.Tag, "id", releaseID)
	default:
		return err
	}

	var uploadErrs []error
	for _, asset := range assets {
		if err := g.uploadAsset(ctx, req.Remote.Owner, req.Remote.Repo, releaseID, asset); err != nil {
			output.Error("asset upload failed", "asset", filepath.Base(asset), "error", err)
			uploadErrs = append(uploadErrs, fmt.Errorf("%s: %w", filepath.Base(asset), err))
			continue
		}
		output.Info("asset uploaded", "asset", filepath.Base(asset))
	}

	if len(uploadErrs) > 0 {
		return issue.NewErrorContext().
			WithOperation("upload release assets").
			WithResource(req.Tag).
			WithSuggestion("Re-run the release; existing release and assets are reused").
			Wrap(errors.Join(uploadErrs...)).
			BuildError()
	}
	return nil
}

// getReleaseID fetches the release for the tag and returns its id.
// Returns ErrReleaseNotFound when no release exists.
func (g *GiteaPublisher) getReleaseID(ctx context.Context, owner, repo, tag string) (int64, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", g.baseURL, owner, repo, url.PathEscape(tag))

	var id int64
	err := g.retry(ctx, func() error {
		resp, err := g.doRequest(ctx, http.MethodGet, reqURL, "", nil)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrReleaseNotFound)
		case resp.StatusCode != http.StatusOK:
			return statusError(resp, fmt.Sprintf("getting release %s", tag))
		}

		var rel forgeRelease
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&rel); err != nil {
			return backoff.Permanent(fmt.Errorf("getting release %s: decoding response: %w", tag, err))
		}
		if rel.ID == 0 {
			return backoff.Permanent(fmt.Errorf("getting release %s: response has no release id", tag))
		}
		id = rel.ID
		return nil
	})
	return id, err
}

// createRelease posts a new non-draft, non-prerelease release for the tag.
func (g *GiteaPublisher) createRelease(ctx context.Context, req *Request) (int64, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/releases", g.baseURL, req.Remote.Owner, req.Remote.Repo)

	payload, err := json.Marshal(forgeRelease{
		TagName:         req.Tag,
		TargetCommitish: req.CommitSHA,
		Name:            req.Tag,
		Body:            req.Notes,
		Draft:           false,
		Prerelease:      false,
	})
	if err != nil {
		return 0, fmt.Errorf("encoding release request: %w", err)
	}

	var id int64
	err = g.retry(ctx, func() error {
		resp, err := g.doRequest(ctx, http.MethodPost, reqURL, "application/json", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			return statusError(resp, fmt.Sprintf("creating release %s", req.Tag))
		}

		var rel forgeRelease
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&rel); err != nil {
			return backoff.Permanent(fmt.Errorf("creating release %s: decoding response: %w", req.Tag, err))
		}
		// A response without an id leaves nowhere to attach assets.
		if rel.ID == 0 {
			return backoff.Permanent(fmt.Errorf("creating release %s: response has no release id", req.Tag))
		}
		id = rel.ID
		return nil
	})
	return id, err
}

// uploadAsset attaches one file to the release via a multipart form post.
func (g *GiteaPublisher) uploadAsset(ctx context.Context, owner, repo string, releaseID int64, path string) error {
	name := filepath.Base(path)
	reqURL := fmt.Sprintf("%s/repos/%s/%s/releases/%d/assets?name=%s",
		g.baseURL, owner, repo, releaseID, url.QueryEscape(name))

	return g.retry(ctx, func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("reading asset %s: %w", name, err))
		}

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("attachment", name)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("building upload form: %w", err))
		}
		if _, err := part.Write(data); err != nil {
			return backoff.Permanent(fmt.Errorf("building upload form: %w", err))
		}
		if err := mw.Close(); err != nil {
			return backoff.Permanent(fmt.Errorf("building upload form: %w", err))
		}

		resp, err := g.doRequest(ctx, http.MethodPost, reqURL, mw.FormDataContentType(), &body)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			return statusError(resp, fmt.Sprintf("uploading asset %s", name))
		}
		return nil
	})
}

// doRequest creates and executes one API request with common headers.
// Network-level failures are retryable.
func (g *GiteaPublisher) doRequest(ctx context.Context, method, reqURL, contentType string, body io.Reader) (*http.Response, error) {
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if g.token != "" {
		req.Header.Set("Authorization", "token "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// retry runs op under exponential backoff, bounded by maxRetries. Permanent
// errors and context cancellation stop immediately.
func (g *GiteaPublisher) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.retryInterval
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, g.maxRetries), ctx))
}

// statusError converts an unexpected HTTP status into an error, marking
// client errors permanent so only server-side and transport failures retry.
func statusError(resp *http.Response, what string) error {
	err := fmt.Errorf("%s: unexpected status %d", what, resp.StatusCode)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return backoff.Permanent(err)
	}
	return err
}
