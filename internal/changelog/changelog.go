// SPDX-License-Identifier: MPL-2.0

// Package changelog extracts per-version release notes from a markdown
// changelog with "## [X.Y.Z]" section headings.
package changelog

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/relkit/relkit/internal/version"
)

// DefaultFileName is the changelog looked up in the project root.
const DefaultFileName = "CHANGELOG.md"

// ErrSectionNotFound is returned when the changelog has no heading for the
// requested version.
var ErrSectionNotFound = errors.New("changelog section not found")

const headingPrefix = "## ["

// Extract returns the body of the changelog section for the given release
// version ("v" prefix ignored): every line after the "## [X.Y.Z]" heading up
// to the next section heading, with runs of blank lines collapsed to one and
// leading/trailing blanks removed.
func Extract(path, releaseVersion string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	want := headingPrefix + version.Bare(releaseVersion) + "]"

	var (
		lines     []string
		inSection bool
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, headingPrefix) {
			if inSection {
				break
			}
			inSection = strings.HasPrefix(line, want)
			continue
		}

		if inSection {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	if !inSection && len(lines) == 0 {
		return "", ErrSectionNotFound
	}

	body := collapseBlankRuns(lines)
	if body == "" {
		return "", ErrSectionNotFound
	}
	return body, nil
}

// Fallback returns the generic release body used when no changelog section
// exists.
func Fallback(releaseVersion string) string {
	return "Release " + releaseVersion
}

// BodyOrFallback extracts the section for the version, falling back to the
// generic body when the file or section is missing. Only hard I/O failures
// (other than absence) surface as errors.
func BodyOrFallback(path, releaseVersion string) (string, error) {
	body, err := Extract(path, releaseVersion)
	switch {
	case err == nil:
		return body, nil
	case errors.Is(err, ErrSectionNotFound), os.IsNotExist(err):
		return Fallback(releaseVersion), nil
	default:
		return "", err
	}
}

// Versions lists every version with a section heading, sorted descending by
// semantic version. Headings that are not valid semver sort last in their
// original order.
func Versions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var versions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, headingPrefix) {
			continue
		}
		rest := strings.TrimPrefix(line, headingPrefix)
		end := strings.Index(rest, "]")
		if end <= 0 {
			continue
		}
		versions = append(versions, rest[:end])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sortVersionsDesc(versions)
	return versions, nil
}

func sortVersionsDesc(versions []string) {
	// semver.Compare requires the "v" prefix.
	cmp := func(a, b string) int {
		return semver.Compare("v"+b, "v"+a)
	}
	// Stable insertion sort keeps invalid entries in file order.
	for i := 1; i < len(versions); i++ {
		for j := i; j > 0 && cmp(versions[j-1], versions[j]) > 0; j-- {
			versions[j-1], versions[j] = versions[j], versions[j-1]
		}
	}
}

// collapseBlankRuns joins lines, squeezing runs of blank lines down to one
// and trimming blanks at both ends.
func collapseBlankRuns(lines []string) string {
	var (
		out       []string
		lastBlank bool
	)

	for _, line := range lines {
		blank := strings.TrimSpace(line) == ""
		if blank && (lastBlank || len(out) == 0) {
			continue
		}
		if blank {
			out = append(out, "")
		} else {
			out = append(out, line)
		}
		lastBlank = blank
	}

	// Trim a trailing blank left by the final run.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}

	return strings.Join(out, "\n")
}
