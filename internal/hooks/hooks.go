// SPDX-License-Identifier: MPL-2.0

// Package hooks runs user-supplied shell snippets from the release file
// through an embedded POSIX shell interpreter, so hooks behave the same on
// every platform the pipeline runs on.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/relkit/relkit/internal/issue"
)

// Runner executes hook scripts in a fixed working directory.
type Runner struct {
	// Dir is the working directory scripts run in.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
	// Stdout and Stderr receive the script's output. Nil means os.Stdout
	// and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Check validates the script's syntax without executing it.
func (r *Runner) Check(script string) error {
	_, err := syntax.NewParser().Parse(strings.NewReader(script), "hook")
	if err != nil {
		return fmt.Errorf("hook syntax error: %w", err)
	}
	return nil
}

// Run parses and executes the script. A nonzero script exit status is
// returned as an error carrying the status.
func (r *Runner) Run(ctx context.Context, name, script string) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), name)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("parse hook").
			WithResource(name).
			Wrap(err).
			BuildError()
	}

	stdout := r.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := r.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	env := append(os.Environ(), r.Env...)

	runner, err := interp.New(
		interp.Dir(r.Dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to create hook interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return issue.NewErrorContext().
				WithOperation("run hook").
				WithResource(name).
				WithSuggestion("Fix the hook script in the release file").
				Wrap(fmt.Errorf("exit status %d", int(exitStatus))).
				BuildError()
		}
		return issue.NewErrorContext().
			WithOperation("run hook").
			WithResource(name).
			Wrap(err).
			BuildError()
	}
	return nil
}
