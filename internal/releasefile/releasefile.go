// SPDX-License-Identifier: MPL-2.0

// Package releasefile loads the optional per-project relfile.cue, which
// selects the build targets and configures pre-release hooks.
package releasefile

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/relkit/relkit/internal/cueutil"
	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/target"
)

// FileName is the relfile filename looked up in the project root.
const FileName = "relfile.cue"

//go:embed relfile_schema.cue
var relfileSchema []byte

type (
	// File is the decoded relfile. The zero value (Present == false)
	// represents an absent relfile, which enables every target.
	File struct {
		// Present reports whether a relfile existed on disk.
		Present bool
		// Path is the location the relfile was loaded from, if Present.
		Path string

		// Targets maps target labels to their enabled flag. Only meaningful
		// when Present; an absent relfile enables all targets.
		Targets map[string]bool

		// PreHook is an optional shell script run before the test suite.
		PreHook string

		// BuildDir overrides the build output directory when non-empty.
		BuildDir string

		// Changelog overrides the changelog path when non-empty.
		Changelog string
	}

	// relfileDoc is the wire representation decoded from CUE.
	relfileDoc struct {
		EnableLinux      *bool `json:"enable-linux"`
		EnableMacOSAMD64 *bool `json:"enable-macos-amd64"`
		EnableMacOSARM64 *bool `json:"enable-macos-arm64"`
		EnableWindows    *bool `json:"enable-windows"`

		Hooks struct {
			Pre string `json:"pre"`
		} `json:"hooks"`

		Build struct {
			Dir string `json:"dir"`
		} `json:"build"`

		Changelog string `json:"changelog"`
	}
)

// Load reads the relfile from the given project directory. A missing relfile
// is not an error: the returned File has Present == false and every target
// enabled. A relfile that exists but fails schema validation is an error.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, issue.NewErrorContext().
			WithOperation("read relfile").
			WithResource(path).
			WithSuggestion("Check that the file is readable").
			Wrap(err).
			BuildError()
	}

	return Parse(data, path)
}

// Parse validates relfile bytes against the embedded schema and decodes them.
// Exposed separately from Load for testing and for 'relkit config vet'.
func Parse(data []byte, path string) (*File, error) {
	result, err := cueutil.ParseAndDecode[relfileDoc](relfileSchema, data, "#Relfile",
		cueutil.WithFilename(path))
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse relfile").
			WithResource(path).
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Only enable-linux, enable-macos-amd64, enable-macos-arm64 and enable-windows target keys are recognized").
			Wrap(err).
			BuildError()
	}

	doc := result.Value
	f := &File{
		Present:   true,
		Path:      path,
		Targets:   map[string]bool{},
		PreHook:   doc.Hooks.Pre,
		BuildDir:  doc.Build.Dir,
		Changelog: doc.Changelog,
	}

	for label, flag := range map[string]*bool{
		target.LinuxAMD64.Label:   doc.EnableLinux,
		target.MacOSAMD64.Label:   doc.EnableMacOSAMD64,
		target.MacOSARM64.Label:   doc.EnableMacOSARM64,
		target.WindowsAMD64.Label: doc.EnableWindows,
	} {
		if flag != nil {
			f.Targets[label] = *flag
		}
	}

	return f, nil
}

// EnabledTargets resolves the effective target set. With no relfile present
// every target is enabled ("build everything" is the safe default). With a
// relfile present, targets default to disabled and only explicitly-true
// entries are built.
func (f *File) EnabledTargets() []target.Target {
	if !f.Present {
		return target.All()
	}

	var enabled []target.Target
	for _, t := range target.All() {
		if f.Targets[t.Label] {
			enabled = append(enabled, t)
		}
	}
	return enabled
}

// Summary renders a one-line-per-target description for 'relkit config show'.
func (f *File) Summary() []string {
	lines := make([]string, 0, len(target.All()))
	for _, t := range target.All() {
		state := "enabled"
		if f.Present && !f.Targets[t.Label] {
			state = "disabled"
		}
		lines = append(lines, fmt.Sprintf("%-14s %s", t.Label, state))
	}
	return lines
}
