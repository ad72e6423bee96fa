// SPDX-License-Identifier: MPL-2.0

package changelog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleChangelog = `# Changelog

All notable changes to this project are documented here.

## [1.2.0] - 2026-08-20

### Added

- Cross-platform artifact builds


- Checksum manifest generation

### Fixed

- Tag detection on shallow clones

## [1.1.0] - 2026-07-01

- Initial packaging support

## [1.0.0] - 2026-06-15

- First stable release
`

func writeChangelog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtract(t *testing.T) {
	t.Parallel()

	path := writeChangelog(t, sampleChangelog)

	got, err := Extract(path, "v1.2.0")
	if err != nil {
		t.Fatalf("Extract(): %v", err)
	}

	want := "### Added\n\n- Cross-platform artifact builds\n\n- Checksum manifest generation\n\n### Fixed\n\n- Tag detection on shallow clones"
	if got != want {
		t.Errorf("Extract() = %q, want %q", got, want)
	}
}

func TestExtractBareVersion(t *testing.T) {
	t.Parallel()

	path := writeChangelog(t, sampleChangelog)

	withPrefix, err := Extract(path, "v1.1.0")
	if err != nil {
		t.Fatalf("Extract(v1.1.0): %v", err)
	}
	bare, err := Extract(path, "1.1.0")
	if err != nil {
		t.Fatalf("Extract(1.1.0): %v", err)
	}
	if withPrefix != bare {
		t.Errorf("prefixed and bare lookups disagree: %q vs %q", withPrefix, bare)
	}
	if bare != "- Initial packaging support" {
		t.Errorf("Extract(1.1.0) = %q", bare)
	}
}

func TestExtractLastSection(t *testing.T) {
	t.Parallel()

	path := writeChangelog(t, sampleChangelog)

	got, err := Extract(path, "1.0.0")
	if err != nil {
		t.Fatalf("Extract(): %v", err)
	}
	if got != "- First stable release" {
		t.Errorf("Extract() = %q", got)
	}
}

func TestExtractMissingSection(t *testing.T) {
	t.Parallel()

	path := writeChangelog(t, sampleChangelog)

	if _, err := Extract(path, "9.9.9"); !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("Extract(9.9.9) error = %v, want ErrSectionNotFound", err)
	}
}

func TestExtractEmptySection(t *testing.T) {
	t.Parallel()

	path := writeChangelog(t, "## [2.0.0]\n\n\n## [1.0.0]\n\n- something\n")

	if _, err := Extract(path, "2.0.0"); !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("empty section error = %v, want ErrSectionNotFound", err)
	}
}

func TestBodyOrFallback(t *testing.T) {
	t.Parallel()

	path := writeChangelog(t, sampleChangelog)

	body, err := BodyOrFallback(path, "v1.1.0")
	if err != nil {
		t.Fatalf("BodyOrFallback(): %v", err)
	}
	if body != "- Initial packaging support" {
		t.Errorf("BodyOrFallback() = %q", body)
	}

	body, err = BodyOrFallback(path, "v9.9.9")
	if err != nil {
		t.Fatalf("BodyOrFallback() missing section: %v", err)
	}
	if body != "Release v9.9.9" {
		t.Errorf("fallback body = %q", body)
	}

	body, err = BodyOrFallback(filepath.Join(t.TempDir(), "nope.md"), "v1.0.0")
	if err != nil {
		t.Fatalf("BodyOrFallback() missing file: %v", err)
	}
	if body != "Release v1.0.0" {
		t.Errorf("fallback body = %q", body)
	}
}

func TestVersions(t *testing.T) {
	t.Parallel()

	path := writeChangelog(t, "## [1.0.0]\n\n- a\n\n## [1.10.0]\n\n- b\n\n## [1.2.0]\n\n- c\n")

	got, err := Versions(path)
	if err != nil {
		t.Fatalf("Versions(): %v", err)
	}

	want := []string{"1.10.0", "1.2.0", "1.0.0"}
	if len(got) != len(want) {
		t.Fatalf("Versions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Versions()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
