// SPDX-License-Identifier: MPL-2.0

package releasefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relkit/relkit/internal/target"
)

func labels(ts []target.Target) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Label)
	}
	return out
}

func TestLoadAbsentEnablesAllTargets(t *testing.T) {
	t.Parallel()

	f, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() on empty dir: %v", err)
	}
	if f.Present {
		t.Error("Present = true for absent relfile")
	}

	enabled := f.EnabledTargets()
	if len(enabled) != 4 {
		t.Fatalf("enabled targets = %v, want all four", labels(enabled))
	}
}

func TestLoadPresentEnablesOnlyExplicitTrue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "only windows",
			content:  `"enable-windows": true`,
			expected: []string{"windows-amd64"},
		},
		{
			name: "linux and macos arm",
			content: `
"enable-linux":       true
"enable-macos-arm64": true
`,
			expected: []string{"linux-amd64", "macos-arm64"},
		},
		{
			name:     "explicit false counts as disabled",
			content:  `"enable-linux": false`,
			expected: nil,
		},
		{
			name:     "empty file disables everything",
			content:  "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, FileName)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			f, err := Load(dir)
			if err != nil {
				t.Fatalf("Load(): %v", err)
			}
			if !f.Present {
				t.Fatal("Present = false for existing relfile")
			}

			got := labels(f.EnabledTargets())
			if len(got) != len(tt.expected) {
				t.Fatalf("enabled = %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Fatalf("enabled = %v, want %v", got, tt.expected)
				}
			}
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`"enable-freebsd": true`), "relfile.cue")
	if err == nil {
		t.Fatal("Parse() accepted an unknown target key")
	}
}

func TestParseRejectsNonBoolValues(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`"enable-linux": "yes"`), "relfile.cue")
	if err == nil {
		t.Fatal("Parse() accepted a string where bool is required")
	}
}

func TestParseReadsHookAndOverrides(t *testing.T) {
	t.Parallel()

	content := `
"enable-linux": true
hooks: pre: "go vet ./..."
build: dir: "dist"
changelog: "docs/CHANGES.md"
`
	f, err := Parse([]byte(content), "relfile.cue")
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	if f.PreHook != "go vet ./..." {
		t.Errorf("PreHook = %q", f.PreHook)
	}
	if f.BuildDir != "dist" {
		t.Errorf("BuildDir = %q", f.BuildDir)
	}
	if f.Changelog != "docs/CHANGES.md" {
		t.Errorf("Changelog = %q", f.Changelog)
	}
}
