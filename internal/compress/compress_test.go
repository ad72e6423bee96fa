// SPDX-License-Identifier: MPL-2.0

package compress

import (
	"context"
	"strings"
	"testing"

	"github.com/relkit/relkit/internal/execx"
	"github.com/relkit/relkit/internal/gobuild"
	"github.com/relkit/relkit/internal/target"
)

func artifacts() []*gobuild.Artifact {
	return []*gobuild.Artifact{
		{Path: "build/w_v1_linux-amd64", Target: target.LinuxAMD64},
		{Path: "build/w_v1_macos-amd64", Target: target.MacOSAMD64},
		{Path: "build/w_v1_macos-arm64", Target: target.MacOSARM64},
		{Path: "build/w_v1_windows-amd64.exe", Target: target.WindowsAMD64},
	}
}

func TestEligibleExcludesMacOS(t *testing.T) {
	t.Parallel()

	got := Eligible(artifacts())
	if len(got) != 2 {
		t.Fatalf("Eligible() returned %d artifacts, want 2", len(got))
	}
	if got[0].Target.Label != "linux-amd64" || got[1].Target.Label != "windows-amd64" {
		t.Errorf("Eligible() = %s, %s", got[0].Target.Label, got[1].Target.Label)
	}
}

func TestRunSkipsSilentlyWithoutUpx(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	c := &Compressor{
		Runner:   &execx.Runner{DryRun: true, Stdout: &out},
		Level:    9,
		lookPath: func(string) bool { return false },
	}

	if err := c.Run(context.Background(), artifacts()); err != nil {
		t.Fatalf("Run() without upx: %v", err)
	}
	if out.String() != "" {
		t.Errorf("Run() without upx executed commands:\n%s", out.String())
	}
}

func TestRunCompressesEligibleArtifacts(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	c := &Compressor{
		Runner:   &execx.Runner{DryRun: true, Stdout: &out},
		Level:    9,
		lookPath: func(string) bool { return true },
	}

	if err := c.Run(context.Background(), artifacts()); err != nil {
		t.Fatalf("Run(): %v", err)
	}

	cmds := out.String()
	if !strings.Contains(cmds, "upx -9 build/w_v1_linux-amd64") {
		t.Errorf("missing linux compression:\n%s", cmds)
	}
	if !strings.Contains(cmds, "upx -9 build/w_v1_windows-amd64.exe") {
		t.Errorf("missing windows compression:\n%s", cmds)
	}
	if strings.Contains(cmds, "macos") {
		t.Errorf("macOS artifact was compressed:\n%s", cmds)
	}
}
