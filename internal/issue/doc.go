// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// This package defines error types that include remediation steps, improving
// the user experience when a release stage fails mid-pipeline.
package issue
