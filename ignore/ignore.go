/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

// Package ignore implements the gitignore-style access policy shared by the
// text editor and the shell delegate.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/PivotLLM/DevTools/global"
)

// Policy decides whether a path is restricted. A nil or empty Policy allows everything.
type Policy struct {
	root      string
	rootParts []string
	patterns  []string
	matcher   gitignore.Matcher
}

// Load reads ignoreFile (relative names are joined with root) and builds a policy
// rooted at root. A missing ignore file yields an empty policy, not an error.
func Load(root, ignoreFile string) (*Policy, error) {
	if ignoreFile == "" {
		return New(root, nil), nil
	}
	if !filepath.IsAbs(ignoreFile) {
		ignoreFile = filepath.Join(root, ignoreFile)
	}

	f, err := os.Open(ignoreFile)
	if err != nil {
		if os.IsNotExist(err) {
			return New(root, nil), nil
		}
		return nil, fmt.Errorf("failed to open ignore file %s: %w", ignoreFile, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore file %s: %w", ignoreFile, err)
	}

	return New(root, lines), nil
}

// New builds a policy from gitignore lines. Comments and blank lines are skipped.
// The root is canonicalized so symlinked spellings of it match the same tree.
func New(root string, lines []string) *Policy {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	root = global.CanonicalPath(root)
	domain := split(root)

	p := &Policy{root: root, rootParts: domain}
	var compiled []gitignore.Pattern
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p.patterns = append(p.patterns, line)
		compiled = append(compiled, gitignore.ParsePattern(line, domain))
	}
	p.matcher = gitignore.NewMatcher(compiled)
	return p
}

// Root returns the directory patterns are anchored to
func (p *Policy) Root() string {
	if p == nil {
		return ""
	}
	return p.root
}

// Patterns returns the active patterns in file order
func (p *Policy) Patterns() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.patterns...)
}

// Empty reports whether the policy restricts nothing
func (p *Policy) Empty() bool {
	return p == nil || len(p.patterns) == 0
}

// Matches reports whether path, or any of its parent directories below the root,
// is restricted. Relative paths are taken relative to the root. Symlinks are
// resolved first, so a link into a restricted directory is restricted too.
func (p *Policy) Matches(path string, isDir bool) bool {
	if p.Empty() {
		return false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.root, path)
	}
	path = global.CanonicalPath(path)

	// Patterns only describe the tree below the root.
	if path == p.root || !global.IsPathWithin(p.root, path) {
		return false
	}

	parts := split(path)
	for end := len(p.rootParts) + 1; end <= len(parts); end++ {
		last := end == len(parts)
		if p.matcher.Match(parts[:end], !last || isDir) {
			return true
		}
	}
	return false
}

// split breaks an absolute path into components, dropping the volume and empty parts
func split(path string) []string {
	path = strings.TrimPrefix(path, filepath.VolumeName(path))
	raw := strings.Split(filepath.ToSlash(path), "/")
	parts := make([]string, 0, len(raw))
	for _, r := range raw {
		if r != "" {
			parts = append(parts, r)
		}
	}
	return parts
}
