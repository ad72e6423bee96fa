// SPDX-License-Identifier: MPL-2.0

package forge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/relkit/relkit/internal/gitx"
)

func testRemote() *gitx.Remote {
	return &gitx.Remote{
		Host:    "git.example.com",
		HostURL: "https://git.example.com",
		Owner:   "acme",
		Repo:    "widget",
	}
}

func writeArtifacts(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("binary "+name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestPublisher(t *testing.T, handler http.Handler) *GiteaPublisher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGiteaPublisher(
		WithGiteaBaseURL(srv.URL),
		WithGiteaToken("secret"),
		WithGiteaRetries(2, time.Millisecond),
	)
}

func TestPublishCreatesReleaseAndUploadsAssets(t *testing.T) {
	t.Parallel()

	var uploads atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/repos/acme/widget/releases/tags/v1.2.0", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /api/v1/repos/acme/widget/releases", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "token secret" {
			t.Errorf("Authorization = %q", got)
		}
		var rel forgeRelease
		if err := json.NewDecoder(r.Body).Decode(&rel); err != nil {
			t.Errorf("decoding create request: %v", err)
		}
		if rel.TagName != "v1.2.0" || rel.Draft || rel.Prerelease {
			t.Errorf("create request = %+v", rel)
		}
		if rel.TargetCommitish != "abc123" {
			t.Errorf("target_commitish = %q", rel.TargetCommitish)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 42, "tag_name": "v1.2.0"}`)
	})
	mux.HandleFunc("POST /api/v1/repos/acme/widget/releases/42/assets", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		uploads.Add(1)
		w.WriteHeader(http.StatusCreated)
	})

	p := newTestPublisher(t, mux)
	req := &Request{
		Tag:       "v1.2.0",
		Remote:    testRemote(),
		BuildDir:  writeArtifacts(t, "widget_v1.2.0_linux-amd64", "widget_v1.2.0_windows-amd64.exe"),
		Notes:     "Release v1.2.0",
		CommitSHA: "abc123",
	}

	if err := p.Publish(context.Background(), req); err != nil {
		t.Fatalf("Publish(): %v", err)
	}
	if got := uploads.Load(); got != 2 {
		t.Errorf("uploads = %d, want 2", got)
	}
}

func TestPublishReusesExistingRelease(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/repos/acme/widget/releases/tags/v1.2.0", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": 7, "tag_name": "v1.2.0"}`)
	})
	mux.HandleFunc("POST /api/v1/repos/acme/widget/releases", func(w http.ResponseWriter, _ *http.Request) {
		created.Add(1)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 8}`)
	})
	mux.HandleFunc("POST /api/v1/repos/acme/widget/releases/7/assets", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	p := newTestPublisher(t, mux)
	req := &Request{
		Tag:      "v1.2.0",
		Remote:   testRemote(),
		BuildDir: writeArtifacts(t, "widget_v1.2.0_linux-amd64"),
		Notes:    "notes",
	}

	if err := p.Publish(context.Background(), req); err != nil {
		t.Fatalf("Publish(): %v", err)
	}
	if created.Load() != 0 {
		t.Error("existing release was recreated")
	}
}

func TestPublishMissingReleaseIDIsFatal(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/repos/acme/widget/releases/tags/v1.2.0", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /api/v1/repos/acme/widget/releases", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"tag_name": "v1.2.0"}`)
	})

	p := newTestPublisher(t, mux)
	req := &Request{
		Tag:      "v1.2.0",
		Remote:   testRemote(),
		BuildDir: writeArtifacts(t, "widget_v1.2.0_linux-amd64"),
	}

	err := p.Publish(context.Background(), req)
	if err == nil {
		t.Fatal("Publish() accepted a create response without an id")
	}
	if !strings.Contains(err.Error(), "no release id") {
		t.Errorf("error = %v", err)
	}
}

func TestPublishAggregatesUploadFailures(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/repos/acme/widget/releases/tags/v1.2.0", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": 7}`)
	})
	mux.HandleFunc("POST /api/v1/repos/acme/widget/releases/7/assets", func(w http.ResponseWriter, r *http.Request) {
		// Reject everything except the macos-arm64 artifact.
		if strings.Contains(r.URL.RawQuery, "macos-arm64") {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	p := newTestPublisher(t, mux)
	req := &Request{
		Tag:    "v1.2.0",
		Remote: testRemote(),
		BuildDir: writeArtifacts(t,
			"widget_v1.2.0_linux-amd64",
			"widget_v1.2.0_macos-arm64",
			"widget_v1.2.0_windows-amd64.exe"),
	}

	err := p.Publish(context.Background(), req)
	if err == nil {
		t.Fatal("Publish() ignored upload failures")
	}
	for _, name := range []string{"widget_v1.2.0_linux-amd64", "widget_v1.2.0_windows-amd64.exe"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error does not name failed asset %s: %v", name, err)
		}
	}
	if strings.Contains(err.Error(), "macos-arm64") {
		t.Errorf("error names the asset that succeeded: %v", err)
	}
}

func TestPublishRetriesTransientServerErrors(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/repos/acme/widget/releases/tags/v1.2.0", func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"id": 7}`)
	})
	mux.HandleFunc("POST /api/v1/repos/acme/widget/releases/7/assets", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	p := newTestPublisher(t, mux)
	req := &Request{
		Tag:      "v1.2.0",
		Remote:   testRemote(),
		BuildDir: writeArtifacts(t, "widget_v1.2.0_linux-amd64"),
	}

	if err := p.Publish(context.Background(), req); err != nil {
		t.Fatalf("Publish(): %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("attempts = %d, want 2", attempts.Load())
	}
}

func TestPublishDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/repos/acme/widget/releases/tags/v1.2.0", func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	p := newTestPublisher(t, mux)
	req := &Request{
		Tag:      "v1.2.0",
		Remote:   testRemote(),
		BuildDir: writeArtifacts(t, "widget_v1.2.0_linux-amd64"),
	}

	if err := p.Publish(context.Background(), req); err == nil {
		t.Fatal("Publish() ignored 403")
	}
	if attempts.Load() != 1 {
		t.Errorf("attempts = %d, want 1", attempts.Load())
	}
}

func TestPublishDryRunTouchesNothing(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("dry run hit the API")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	req := &Request{
		Tag:      "v1.2.0",
		Remote:   testRemote(),
		BuildDir: writeArtifacts(t, "widget_v1.2.0_linux-amd64"),
		DryRun:   true,
	}

	if err := p.Publish(context.Background(), req); err != nil {
		t.Fatalf("Publish(): %v", err)
	}
}

func TestGetReleaseIDNotFound(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := p.getReleaseID(context.Background(), "acme", "widget", "v0.0.1")
	if !errors.Is(err, ErrReleaseNotFound) {
		t.Errorf("error = %v, want ErrReleaseNotFound", err)
	}
}
