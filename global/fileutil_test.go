/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package global

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "fileutil-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer func(path string) {
		_ = os.RemoveAll(path)
	}(tmpDir)

	t.Run("write new file", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "new.txt")
		content := []byte("Hello, World!")

		if err := WriteFileAtomic(filePath, content); err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}

		got, err := os.ReadFile(filePath)
		if err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}
		if string(got) != string(content) {
			t.Errorf("File content = %q, want %q", got, content)
		}
	})

	t.Run("overwrite existing file", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "existing.txt")
		if err := os.WriteFile(filePath, []byte("original"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}

		if err := WriteFileAtomic(filePath, []byte("replaced")); err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}

		got, _ := os.ReadFile(filePath)
		if string(got) != "replaced" {
			t.Errorf("File content = %q, want %q", got, "replaced")
		}
	})

	t.Run("preserves permissions", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission bits are not meaningful on windows")
		}
		filePath := filepath.Join(tmpDir, "script.sh")
		if err := os.WriteFile(filePath, []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
		if err := os.Chmod(filePath, 0755); err != nil {
			t.Fatalf("Failed to chmod file: %v", err)
		}

		if err := WriteFileAtomic(filePath, []byte("#!/bin/sh\necho hi\n")); err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}

		info, err := os.Stat(filePath)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if info.Mode().Perm() != 0755 {
			t.Errorf("Mode = %v, want %v", info.Mode().Perm(), os.FileMode(0755))
		}
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := filepath.Join(tmpDir, "clean")
		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir() error = %v", err)
		}
		if err := WriteFileAtomic(filepath.Join(dir, "a.txt"), []byte("a")); err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("Directory has %d entries, want 1", len(entries))
		}
	})

	t.Run("missing parent directory", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "missing", "file.txt")
		if err := WriteFileAtomic(filePath, []byte("x")); err == nil {
			t.Error("WriteFileAtomic() expected error for missing parent, got nil")
		}
	})
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()

	filePath := filepath.Join(tmpDir, "exists.txt")
	if err := os.WriteFile(filePath, []byte("content"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	if !FileExists(filePath) {
		t.Error("FileExists() = false, want true for existing file")
	}
	if FileExists(filepath.Join(tmpDir, "not-exists.txt")) {
		t.Error("FileExists() = true, want false for non-existent file")
	}
	if FileExists(tmpDir) {
		t.Error("FileExists() = true, want false for directory")
	}
}

func TestDirExists(t *testing.T) {
	tmpDir := t.TempDir()

	if !DirExists(tmpDir) {
		t.Error("DirExists() = false, want true for existing directory")
	}
	if DirExists(filepath.Join(tmpDir, "not-exists")) {
		t.Error("DirExists() = true, want false for non-existent directory")
	}

	filePath := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(filePath, []byte("content"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if DirExists(filePath) {
		t.Error("DirExists() = true, want false for file")
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()

	dirPath := filepath.Join(tmpDir, "a", "b", "c")
	if err := EnsureDir(dirPath); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	if !DirExists(dirPath) {
		t.Error("Nested directories were not created")
	}
	if err := EnsureDir(dirPath); err != nil {
		t.Errorf("EnsureDir() error = %v for existing directory", err)
	}
}

func TestCharCount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"multibyte", "héllo", 5},
		{"cjk", "世界", 2},
		{"emoji", "🎉🎊", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CharCount(tt.in); got != tt.want {
				t.Errorf("CharCount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeLineEndings(t *testing.T) {
	got := NormalizeLineEndings("a\r\nb\nc")
	if runtime.GOOS == "windows" {
		if got != "a\r\nb\r\nc" {
			t.Errorf("NormalizeLineEndings() = %q", got)
		}
		return
	}
	if strings.Contains(got, "\r") {
		t.Errorf("NormalizeLineEndings() = %q, want no carriage returns", got)
	}
	if got != "a\nb\nc" {
		t.Errorf("NormalizeLineEndings() = %q, want %q", got, "a\nb\nc")
	}
}
