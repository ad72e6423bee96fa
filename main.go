// SPDX-License-Identifier: MPL-2.0

// Package main is the entry point for the relkit CLI.
package main

import (
	cmd "github.com/relkit/relkit/cmd/relkit"
)

func main() {
	cmd.Execute()
}
