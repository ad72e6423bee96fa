// SPDX-License-Identifier: MPL-2.0

// Package checksum computes SHA256 digests for release artifacts.
//
// Output follows the standard sha256sum format, "{sha256_hex}  {filename}"
// with two spaces, so downstream consumers can verify artifacts with
// `sha256sum -c checksums.txt`.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileName is the checksum manifest written into the build directory.
const FileName = "checksums.txt"

// Entry is the SHA256 digest of one release artifact.
type Entry struct {
	Hash     string // Hex-encoded SHA256 hash (64 characters)
	Filename string // Artifact filename (base name, no directory)
}

// String renders the entry in sha256sum output format.
func (e Entry) String() string {
	return e.Hash + "  " + e.Filename
}

// ComputeFileHash computes and returns the lowercase hex-encoded SHA256
// digest of the file at path. It streams the file through the hash function
// to avoid loading the entire file into memory.
func ComputeFileHash(path string) (_ string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		// Read-only file handle; close errors are exotic (NFS edge cases).
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Report computes a digest for every regular file in dir, sorted by
// filename. The manifest itself is excluded so a re-run is stable.
func Report(dir string) ([]Entry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading build directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirents {
		if de.IsDir() || de.Name() == FileName {
			continue
		}

		hash, err := ComputeFileHash(filepath.Join(dir, de.Name()))
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Hash: hash, Filename: de.Name()})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Filename < entries[j].Filename
	})

	return entries, nil
}

// WriteManifest writes the entries to <dir>/checksums.txt.
func WriteManifest(dir string, entries []Entry) error {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteString("\n")
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing checksum manifest: %w", err)
	}
	return nil
}
