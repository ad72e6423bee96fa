// SPDX-License-Identifier: MPL-2.0

// Package version normalizes release version strings.
package version

import "strings"

// Normalize ensures the version string carries the canonical "v" prefix.
// "1.0.0" becomes "v1.0.0"; an already-prefixed version is returned unchanged,
// so the function is idempotent. No semantic-version validation is performed;
// malformed input propagates into tag names and artifact filenames as-is.
func Normalize(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// Bare strips the canonical "v" prefix, yielding the form used by changelog
// section headings (## [X.Y.Z]).
func Bare(v string) string {
	return strings.TrimPrefix(v, "v")
}
