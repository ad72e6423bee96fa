// SPDX-License-Identifier: MPL-2.0

// Package pipeline sequences the release stages: preflight, cross-compile,
// compress, checksum, tag, and publish. All state flows through the Pipeline
// value; stages communicate only by filling in its fields.
package pipeline

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/relkit/relkit/internal/changelog"
	"github.com/relkit/relkit/internal/checksum"
	"github.com/relkit/relkit/internal/compress"
	"github.com/relkit/relkit/internal/config"
	"github.com/relkit/relkit/internal/execx"
	"github.com/relkit/relkit/internal/forge"
	"github.com/relkit/relkit/internal/gitx"
	"github.com/relkit/relkit/internal/gobuild"
	"github.com/relkit/relkit/internal/hooks"
	"github.com/relkit/relkit/internal/output"
	"github.com/relkit/relkit/internal/releasefile"
	"github.com/relkit/relkit/internal/target"
	"github.com/relkit/relkit/internal/version"
)

// Pipeline carries the full state of one release run.
type Pipeline struct {
	// Version is the normalized release tag, e.g., "v1.2.0".
	Version string
	// Project is the artifact name prefix, taken from the working
	// directory's base name.
	Project string
	// WorkDir is the project root every stage runs in.
	WorkDir string
	// BuildDir is the artifact output directory.
	BuildDir string
	// DryRun prints mutating commands and skips remote side effects.
	DryRun bool

	Cfg     *config.Config
	File    *releasefile.File
	Targets []target.Target

	// Runner executes build-facing commands (go, upx, gh) and honors DryRun.
	Runner *execx.Runner
	// Git always executes for real so read-only queries work in dry runs;
	// mutating git steps are guarded separately.
	Git   *gitx.Client
	Hooks *hooks.Runner

	// NewPublisher is a seam over forge.New for tests.
	NewPublisher func(*gitx.Remote, execx.CommandRunner, *forge.Credentials, ...forge.GiteaOption) (forge.Publisher, error)
	// LoadCredentials is a seam over forge.LoadCredentials for tests.
	LoadCredentials func() (*forge.Credentials, error)

	// Filled in by stages.
	Remote    *gitx.Remote
	Artifacts []*gobuild.Artifact
	Checksums []checksum.Entry
}

// New assembles a pipeline for one release of the project at workDir. The
// raw version is normalized to its tag form, and the relfile (when present)
// supplies target selection and overrides.
func New(workDir, rawVersion string, cfg *config.Config, dryRun bool) (*Pipeline, error) {
	file, err := releasefile.Load(workDir)
	if err != nil {
		return nil, err
	}

	buildDir := cfg.Build.Dir
	if file.BuildDir != "" {
		buildDir = file.BuildDir
	}
	if !filepath.IsAbs(buildDir) {
		buildDir = filepath.Join(workDir, buildDir)
	}

	runner := &execx.Runner{Dir: workDir, DryRun: dryRun}

	return &Pipeline{
		Version:  version.Normalize(rawVersion),
		Project:  filepath.Base(workDir),
		WorkDir:  workDir,
		BuildDir: buildDir,
		DryRun:   dryRun,
		Cfg:      cfg,
		File:     file,
		Targets:  file.EnabledTargets(),
		Runner:   runner,
		Git:      &gitx.Client{Runner: &execx.Runner{Dir: workDir}},
		Hooks:    &hooks.Runner{Dir: workDir, Env: []string{"RELEASE_VERSION=" + version.Normalize(rawVersion)}},
	}, nil
}

// Run executes every stage in order, stopping at the first failure.
func (p *Pipeline) Run(ctx context.Context) error {
	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"preflight", p.Preflight},
		{"build", p.BuildAll},
		{"compress", p.Compress},
		{"checksum", p.Checksum},
		{"detect remote", p.DetectRemote},
		{"tag", p.EnsureTag},
		{"publish", p.Publish},
	}

	for _, stage := range stages {
		output.Debug("stage starting", "stage", stage.name)
		if err := stage.fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Preflight runs the pre-release hook, clears the build directory, and runs
// the project's test suite. Any failure aborts before binaries are built.
func (p *Pipeline) Preflight(ctx context.Context) error {
	if p.File.PreHook != "" {
		if p.DryRun {
			output.Info("dry run: skipping pre-release hook")
		} else {
			output.Info("running pre-release hook")
			if err := p.Hooks.Run(ctx, "pre", p.File.PreHook); err != nil {
				return err
			}
		}
	}

	if err := p.builder().Clean(); err != nil {
		return err
	}

	output.Info("running test suite")
	return p.builder().Test(ctx)
}

// BuildAll cross-compiles one artifact per enabled target.
func (p *Pipeline) BuildAll(ctx context.Context) error {
	b := p.builder()
	for _, t := range p.Targets {
		output.Info("building", "target", t.Label)
		artifact, err := b.Build(ctx, t)
		if err != nil {
			return err
		}
		p.Artifacts = append(p.Artifacts, artifact)
	}
	return nil
}

// Compress shrinks eligible artifacts with upx when it is installed.
func (p *Pipeline) Compress(ctx context.Context) error {
	c := &compress.Compressor{Runner: p.Runner, Level: p.Cfg.Build.UPXLevel}
	return c.Run(ctx, p.Artifacts)
}

// Checksum digests every artifact, prints the report, and writes the
// manifest into the build directory.
func (p *Pipeline) Checksum(_ context.Context) error {
	if p.DryRun {
		output.Info("dry run: skipping checksums")
		return nil
	}

	entries, err := checksum.Report(p.BuildDir)
	if err != nil {
		return err
	}
	p.Checksums = entries

	for _, e := range entries {
		output.Println(e.String())
	}
	return checksum.WriteManifest(p.BuildDir, entries)
}

// DetectRemote parses the origin remote and records the result for the tag
// and publish stages.
func (p *Pipeline) DetectRemote(ctx context.Context) error {
	remote, err := p.Git.DetectRemote(ctx)
	if err != nil {
		return err
	}
	p.Remote = remote
	output.Info("remote detected", "slug", remote.Slug(), "host", remote.Host, "github", remote.IsGitHub)
	return nil
}

// EnsureTag creates and pushes the release tag unless it already exists.
func (p *Pipeline) EnsureTag(ctx context.Context) error {
	if p.DryRun {
		output.Info("dry run: would ensure tag", "tag", p.Version)
		return nil
	}
	return p.Git.EnsureTag(ctx, p.Version)
}

// Publish creates the release on the detected forge and attaches artifacts.
// A non-GitHub remote without configured credentials skips publishing with
// a warning instead of failing. GitHub remotes publish through the gh CLI
// and never consult the credentials file.
func (p *Pipeline) Publish(ctx context.Context) error {
	var creds *forge.Credentials
	if !p.Remote.IsGitHub {
		var err error
		creds, err = p.credentials()
		if err != nil {
			if errors.Is(err, forge.ErrNoCredentials) {
				output.Warn("no forge credentials configured, skipping publish",
					"host", p.Remote.Host)
				return nil
			}
			return err
		}
	}

	newPublisher := p.NewPublisher
	if newPublisher == nil {
		newPublisher = forge.New
	}
	publisher, err := newPublisher(p.Remote, p.Runner, creds, p.giteaOptions()...)
	if err != nil {
		return err
	}

	notes, err := changelog.BodyOrFallback(p.changelogPath(), p.Version)
	if err != nil {
		return err
	}

	var sha string
	if !p.DryRun {
		sha, err = p.Git.ResolveTagSHA(ctx, p.Version)
		if err != nil {
			return err
		}
	}

	output.Info("publishing release", "backend", publisher.Name(), "tag", p.Version)
	return publisher.Publish(ctx, &forge.Request{
		Tag:       p.Version,
		Remote:    p.Remote,
		BuildDir:  p.BuildDir,
		Notes:     notes,
		CommitSHA: sha,
		DryRun:    p.DryRun,
	})
}

func (p *Pipeline) builder() *gobuild.Builder {
	return &gobuild.Builder{
		Runner:   p.Runner,
		Project:  p.Project,
		Version:  p.Version,
		BuildDir: p.BuildDir,
	}
}

func (p *Pipeline) credentials() (*forge.Credentials, error) {
	load := p.LoadCredentials
	if load == nil {
		load = func() (*forge.Credentials, error) {
			path, err := config.CredentialsPath()
			if err != nil {
				return nil, err
			}
			return forge.LoadCredentials(path)
		}
	}
	return load()
}

func (p *Pipeline) giteaOptions() []forge.GiteaOption {
	return []forge.GiteaOption{
		forge.WithGiteaHTTPClient(&http.Client{Timeout: p.Cfg.Net.Timeout()}),
		forge.WithGiteaRetries(uint64(p.Cfg.Net.Retries), 500*time.Millisecond),
	}
}

func (p *Pipeline) changelogPath() string {
	name := changelog.DefaultFileName
	if p.File.Changelog != "" {
		name = p.File.Changelog
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.WorkDir, name)
}
