/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package global

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading ~/ (or a bare ~) to the user's home directory.
// The path is returned unchanged if the home directory cannot be determined.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// ResolveAbsolutePath expands ~, requires the result to be absolute and returns
// its canonical form (see CanonicalPath) so it can be used as a map key.
// For relative input the error suggests the path joined with the working directory.
func ResolveAbsolutePath(path string) (string, error) {
	expanded := ExpandHome(path)
	if filepath.IsAbs(expanded) {
		return CanonicalPath(expanded), nil
	}

	suggestion := expanded
	if cwd, err := os.Getwd(); err == nil {
		suggestion = filepath.Join(cwd, expanded)
	}
	return "", fmt.Errorf("the path %s is not an absolute path, did you possibly mean %s?", path, suggestion)
}

// CanonicalPath cleans path and resolves symlinks in its longest existing
// prefix. The part that does not exist yet is appended unchanged, so paths of
// files about to be created canonicalize the same way once they exist.
func CanonicalPath(path string) string {
	path = filepath.Clean(path)
	existing, rest := path, ""
	for {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return path
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
}

// IsPathWithin checks if resolvedPath is within or equal to baseDir.
// Both paths should be absolute and clean.
func IsPathWithin(baseDir, resolvedPath string) bool {
	if resolvedPath == baseDir {
		return true
	}
	prefix := baseDir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(resolvedPath, prefix)
}
