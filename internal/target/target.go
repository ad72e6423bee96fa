// SPDX-License-Identifier: MPL-2.0

// Package target defines the fixed set of cross-compilation targets.
package target

// Target is one (operating system, architecture) pair the pipeline can
// cross-compile for.
type Target struct {
	// OS is the GOOS value.
	OS string
	// Arch is the GOARCH value.
	Arch string
	// Label is the human-facing platform label used in artifact filenames
	// and relfile keys (e.g., "macos-amd64", not "darwin-amd64").
	Label string
	// ExeSuffix is appended to the artifact filename (".exe" on Windows).
	ExeSuffix string
	// UPXEligible reports whether the packer reliably supports this target.
	// macOS binaries are excluded: upx support there is unreliable.
	UPXEligible bool
}

// The four supported targets. Order is stable and matches build order.
var (
	LinuxAMD64   = Target{OS: "linux", Arch: "amd64", Label: "linux-amd64", UPXEligible: true}
	MacOSAMD64   = Target{OS: "darwin", Arch: "amd64", Label: "macos-amd64"}
	MacOSARM64   = Target{OS: "darwin", Arch: "arm64", Label: "macos-arm64"}
	WindowsAMD64 = Target{OS: "windows", Arch: "amd64", Label: "windows-amd64", ExeSuffix: ".exe", UPXEligible: true}
)

// All returns the full target set in build order.
func All() []Target {
	return []Target{LinuxAMD64, MacOSAMD64, MacOSARM64, WindowsAMD64}
}

// ByLabel returns the target with the given label, if any.
func ByLabel(label string) (Target, bool) {
	for _, t := range All() {
		if t.Label == label {
			return t, true
		}
	}
	return Target{}, false
}
