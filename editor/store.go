/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

// Package editor implements the file editing store behind the text_editor tool:
// view, write, unique string replacement and a bounded per-file undo history.
package editor

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/PivotLLM/DevTools/global"
	"github.com/PivotLLM/DevTools/ignore"
	"github.com/PivotLLM/DevTools/logging"
)

// record is the per-path undo state. File content is not cached: the disk is
// authoritative and every operation reads it under the caller's path lock.
// tracked is set once a mutation has committed, so later snapshots of a
// vanished file are kept as "did not exist".
type record struct {
	tracked bool
	history *history
}

// Store owns the per-path records. Paths must be canonical and absolute
// (see global.ResolveAbsolutePath) so each file has exactly one record.
//
// Operations on distinct paths may run concurrently. Operations on the same
// path must be serialized by the caller; the dispatcher holds a per-path lock
// around every call.
type Store struct {
	maxHistory int
	normalize  bool
	policy     *ignore.Policy
	logger     *logging.Logger
	records    sync.Map // path -> *record
}

// Option is a functional option for configuring Store
type Option func(*Store)

// WithMaxHistory sets the number of undo snapshots kept per path
func WithMaxHistory(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithPolicy restricts access to paths matched by policy
func WithPolicy(policy *ignore.Policy) Option {
	return func(s *Store) {
		s.policy = policy
	}
}

// WithNormalizeLineEndings converts line endings to the platform convention on write
func WithNormalizeLineEndings(enabled bool) Option {
	return func(s *Store) {
		s.normalize = enabled
	}
}

// WithLogger sets the logger for the store
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty store
func NewStore(opts ...Option) *Store {
	s := &Store{maxHistory: global.DefaultMaxHistory}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	return s
}

// MaxHistory returns the configured history bound
func (s *Store) MaxHistory() int {
	return s.maxHistory
}

// HistoryLen returns the number of undo snapshots held for path
func (s *Store) HistoryLen(path string) int {
	if value, ok := s.records.Load(path); ok {
		return value.(*record).history.len()
	}
	return 0
}

// Paths returns every path the store holds undo state for, sorted
func (s *Store) Paths() []string {
	var paths []string
	s.records.Range(func(key, _ any) bool {
		paths = append(paths, key.(string))
		return true
	})
	sort.Strings(paths)
	return paths
}

func (s *Store) recordFor(path string) *record {
	if value, ok := s.records.Load(path); ok {
		return value.(*record)
	}
	value, _ := s.records.LoadOrStore(path, &record{history: newHistory(s.maxHistory)})
	return value.(*record)
}

func (s *Store) checkAccess(path string) error {
	if s.policy.Matches(path, false) {
		return global.Errorf(global.KindAccessDenied, "the file '%s' is restricted by ignore patterns", path).WithPath(path)
	}
	return nil
}

// View returns the content of path. Files over the size or character limit are
// rejected rather than truncated.
func (s *Store) View(path string) (*ViewResult, error) {
	if err := s.checkAccess(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, global.Errorf(global.KindNotFound, "the path '%s' does not exist or is not a file", path).WithPath(path)
		}
		return nil, global.WrapIO(path, "stat", err)
	}
	if info.IsDir() {
		return nil, global.Errorf(global.KindNotFound, "the path '%s' does not exist or is not a file", path).WithPath(path)
	}
	if info.Size() > global.MaxFileSizeBytes {
		return nil, global.Errorf(global.KindTooLarge,
			"file '%s' is too large (%.2fKB), maximum size is 400KB", path, float64(info.Size())/1024.0).WithPath(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, global.WrapIO(path, "read", err)
	}
	content := string(data)
	if n := global.CharCount(content); n > global.MaxCharCount {
		return nil, global.Errorf(global.KindTooLarge,
			"file '%s' has too many characters (%d), maximum is %d", path, n, global.MaxCharCount).WithPath(path)
	}

	return &ViewResult{Path: path, Content: content, Language: languageFor(path)}, nil
}

// Write replaces the content of path, creating parent directories as needed.
// The previous content is pushed onto the history only after the new content
// is on disk, so a failed write leaves the history untouched.
func (s *Store) Write(path, fileText string) (*WriteResult, error) {
	if err := s.checkAccess(path); err != nil {
		return nil, err
	}
	if n := global.CharCount(fileText); n > global.MaxCharCount {
		return nil, global.Errorf(global.KindTooLarge,
			"input content for '%s' has too many characters (%d), maximum is %d", path, n, global.MaxCharCount).
			WithPath(path).WithField("file_text")
	}
	if global.DirExists(path) {
		return nil, global.Errorf(global.KindInvalidArgument,
			"the path '%s' is an existing directory, write can only target files", path).WithPath(path)
	}
	if err := global.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, global.WrapIO(filepath.Dir(path), "create directory", err)
	}

	rec := s.recordFor(path)
	before, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}

	content := fileText
	if s.normalize {
		content = global.NormalizeLineEndings(content)
	}
	if err := global.WriteFileAtomic(path, []byte(content)); err != nil {
		return nil, global.WrapIO(path, "write", err)
	}

	s.commit(path, rec, before)
	return &WriteResult{Path: path, Content: content, Language: languageFor(path)}, nil
}

// StrReplace replaces the single occurrence of oldStr with newStr. Zero or
// multiple occurrences leave the file and its history unchanged.
func (s *Store) StrReplace(path, oldStr, newStr string) (*ReplaceResult, error) {
	if err := s.checkAccess(path); err != nil {
		return nil, err
	}
	if oldStr == "" {
		return nil, global.NewError(global.KindInvalidArgument, "old_str must not be empty").WithField("old_str")
	}
	if !global.FileExists(path) {
		return nil, global.Errorf(global.KindNotFound,
			"file '%s' does not exist, you can write a new file with the write command", path).WithPath(path)
	}

	rec := s.recordFor(path)
	before, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	content := before.content

	switch count := strings.Count(content, oldStr); {
	case count == 0:
		return nil, global.NewError(global.KindNoMatch,
			"old_str must appear exactly once in the file, but it does not appear in the file; make sure the string exactly matches existing file content, including whitespace").
			WithPath(path).WithField("old_str")
	case count > 1:
		return nil, global.Errorf(global.KindAmbiguousMatch,
			"old_str must appear exactly once in the file, but it appears %d times", count).
			WithPath(path).WithField("old_str")
	}

	idx := strings.Index(content, oldStr)
	updated := content[:idx] + newStr + content[idx+len(oldStr):]
	if s.normalize {
		updated = global.NormalizeLineEndings(updated)
	}
	if n := global.CharCount(updated); n > global.MaxCharCount {
		return nil, global.Errorf(global.KindTooLarge,
			"edited content for '%s' would have too many characters (%d), maximum is %d", path, n, global.MaxCharCount).WithPath(path)
	}

	if err := global.WriteFileAtomic(path, []byte(updated)); err != nil {
		return nil, global.WrapIO(path, "write", err)
	}
	s.commit(path, rec, before)

	line := strings.Count(content[:idx], "\n")
	snippet, start := snippetAround(updated, line, strings.Count(newStr, "\n"))
	return &ReplaceResult{
		Path:      path,
		Snippet:   snippet,
		StartLine: start + 1,
		Language:  languageFor(path),
	}, nil
}

// Undo restores the newest snapshot of path. If the snapshot records that the
// file did not exist, the file is removed and the result content is empty.
func (s *Store) Undo(path string) (*UndoResult, error) {
	if err := s.checkAccess(path); err != nil {
		return nil, err
	}

	value, ok := s.records.Load(path)
	if !ok || value.(*record).history.len() == 0 {
		return nil, global.NewError(global.KindNoHistory, "no edit history available to undo").WithPath(path)
	}
	rec := value.(*record)

	snap, _ := rec.history.pop()
	if err := restore(path, snap); err != nil {
		rec.history.push(snap)
		return nil, err
	}

	s.logger.Debugf("Undo on %s, %d snapshots remain", path, rec.history.len())
	return &UndoResult{Path: path, Content: snap.content, Removed: !snap.existed, Language: languageFor(path)}, nil
}

// commit records before as the newest snapshot once content is on disk
func (s *Store) commit(path string, rec *record, before snapshot) {
	if before.existed || rec.tracked {
		if rec.history.push(before) {
			s.logger.Debugf("History for %s is full, oldest snapshot evicted", path)
		}
	}
	rec.tracked = true
}

// readSnapshot captures the on-disk state of path
func readSnapshot(path string) (snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snapshot{}, nil
		}
		return snapshot{}, global.WrapIO(path, "read", err)
	}
	return snapshot{content: string(data), existed: true}, nil
}

// restore writes snap back to disk
func restore(path string, snap snapshot) error {
	if !snap.existed {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return global.WrapIO(path, "remove", err)
		}
		return nil
	}
	if err := global.EnsureDir(filepath.Dir(path)); err != nil {
		return global.WrapIO(filepath.Dir(path), "create directory", err)
	}
	if err := global.WriteFileAtomic(path, []byte(snap.content)); err != nil {
		return global.WrapIO(path, "write", err)
	}
	return nil
}

// snippetAround returns the lines of content from line-SnippetContextLine to
// line+addedLines+SnippetContextLine, and the zero-based index of the first line.
func snippetAround(content string, line, addedLines int) (string, int) {
	lines := strings.Split(content, "\n")
	start := line - global.SnippetContextLine
	if start < 0 {
		start = 0
	}
	end := line + addedLines + global.SnippetContextLine + 1
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return "", start
	}
	return strings.Join(lines[start:end], "\n"), start
}
