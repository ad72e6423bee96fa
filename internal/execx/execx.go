// SPDX-License-Identifier: MPL-2.0

// Package execx wraps external tool invocation for the release pipeline.
//
// Every pipeline stage that shells out (go, git, upx, gh) goes through a
// CommandRunner so tests can substitute a fake and --dry-run can print the
// planned invocations instead of executing them.
package execx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

type (
	// CommandRunner executes external commands. Implemented by Runner for
	// real execution and by test fakes.
	CommandRunner interface {
		// Run executes a command, streaming output to the configured writers.
		Run(ctx context.Context, name string, args ...string) error
		// Output executes a command and returns its trimmed stdout.
		Output(ctx context.Context, name string, args ...string) (string, error)
	}

	// Runner executes commands via os/exec.
	Runner struct {
		// Dir is the working directory for every command ("" = inherit).
		Dir string
		// Env holds extra environment entries appended to os.Environ().
		Env []string
		// Stdout and Stderr receive streamed command output. Nil writers
		// default to the parent process streams.
		Stdout io.Writer
		Stderr io.Writer
		// DryRun prints commands instead of executing them.
		DryRun bool
	}
)

// ExitCode extracts the process exit code from a Run error. Returns 1 for
// errors that never produced an exit status (e.g., command not found).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// LookPath reports whether the named tool is available on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes a command, streaming stdout/stderr.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	if r.DryRun {
		fmt.Fprintf(r.stdout(), "+ %s %s\n", name, strings.Join(args, " "))
		return nil
	}

	cmd := r.command(ctx, name, args...)
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Output executes a command and returns its trimmed stdout. Stderr is
// captured and folded into the error on failure.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	if r.DryRun {
		fmt.Fprintf(r.stdout(), "+ %s %s\n", name, strings.Join(args, " "))
		return "", nil
	}

	cmd := r.command(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *Runner) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	return cmd
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}
