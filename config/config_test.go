/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PivotLLM/DevTools/global"
)

func noEnv(string) string { return "" }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    *configData
		wantError bool
	}{
		{
			name:      "valid minimal config",
			config:    &configData{Version: 1},
			wantError: false,
		},
		{
			name:      "version too new",
			config:    &configData{Version: 2},
			wantError: true,
		},
		{
			name:      "version missing",
			config:    &configData{},
			wantError: true,
		},
		{
			name:      "negative max history",
			config:    &configData{Version: 1, Editor: Editor{MaxHistory: -1}},
			wantError: true,
		},
		{
			name:      "negative max steps",
			config:    &configData{Version: 1, Workflow: Workflow{MaxSteps: -3}},
			wantError: true,
		},
		{
			name:      "negative shell timeout",
			config:    &configData{Version: 1, Shell: Shell{TimeoutSeconds: -1}},
			wantError: true,
		},
		{
			name:      "shell args without executable",
			config:    &configData{Version: 1, Shell: Shell{Args: []string{"-c"}}},
			wantError: true,
		},
		{
			name:      "custom shell",
			config:    &configData{Version: 1, Shell: Shell{Executable: "/bin/sh", Args: []string{"-c"}}},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{data: tt.config}
			err := c.validate()
			if (err != nil) != tt.wantError {
				t.Errorf("validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte(`{"version": 1, "base_dir": "/tmp/devtools"}`), WithEnv(noEnv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := c.Editor().MaxHistory; got != global.DefaultMaxHistory {
		t.Errorf("Editor().MaxHistory = %d, want %d", got, global.DefaultMaxHistory)
	}
	if got := c.Editor().IgnoreFile; got != global.DefaultIgnoreFile {
		t.Errorf("Editor().IgnoreFile = %q, want %q", got, global.DefaultIgnoreFile)
	}
	if !c.Workflow().BranchesAllowed() {
		t.Error("Workflow().BranchesAllowed() = false, want true by default")
	}
	if !c.Workflow().StepLogging() {
		t.Error("Workflow().StepLogging() = false, want true by default")
	}
	if got := c.Workflow().MaxSteps; got != 0 {
		t.Errorf("Workflow().MaxSteps = %d, want 0", got)
	}
	if got := c.Shell().Timeout(); got != time.Duration(global.DefaultShellTimeout)*time.Second {
		t.Errorf("Shell().Timeout() = %v", got)
	}
	if got := c.Shell().RateLimit.MaxRequests; got != global.DefaultRateLimitRequests {
		t.Errorf("Shell().RateLimit.MaxRequests = %d, want %d", got, global.DefaultRateLimitRequests)
	}
	if got := c.LogLevel(); got != global.LogLevelInfo {
		t.Errorf("LogLevel() = %q, want %q", got, global.LogLevelInfo)
	}
	if got, want := c.LogFile(), filepath.Join("/tmp/devtools", global.DefaultLogFileName); got != want {
		t.Errorf("LogFile() = %q, want %q", got, want)
	}
}

func TestParseExplicitValues(t *testing.T) {
	raw := `{
		"version": 1,
		"base_dir": "/tmp/devtools",
		"logging": {"file": "/var/log/dt.log", "level": "DEBUG"},
		"editor": {"max_history": 3, "ignore_file": "/etc/ignore", "normalize_line_endings": true},
		"workflow": {"allow_branches": false, "max_steps": 20, "log_steps": false, "journal": "journal.db"},
		"shell": {"executable": "/bin/zsh", "args": ["-c"], "timeout_seconds": 5,
		          "rate_limit": {"max_requests": 2, "period_seconds": 10}},
		"mark_non_destructive": true
	}`
	c, err := Parse([]byte(raw), WithEnv(noEnv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if c.Editor().MaxHistory != 3 || !c.Editor().NormalizeLineEndings || c.Editor().IgnoreFile != "/etc/ignore" {
		t.Errorf("Editor() = %+v", c.Editor())
	}
	w := c.Workflow()
	if w.BranchesAllowed() || w.StepLogging() || w.MaxSteps != 20 {
		t.Errorf("Workflow() = %+v", w)
	}
	if got, want := w.Journal, filepath.Join("/tmp/devtools", "journal.db"); got != want {
		t.Errorf("Workflow().Journal = %q, want %q", got, want)
	}
	s := c.Shell()
	if s.Executable != "/bin/zsh" || s.Timeout() != 5*time.Second || s.RateLimit.Period() != 10*time.Second {
		t.Errorf("Shell() = %+v", s)
	}
	if !c.MarkNonDestructive() {
		t.Error("MarkNonDestructive() = false, want true")
	}
	if c.LogFile() != "/var/log/dt.log" || c.LogLevel() != global.LogLevelDebug {
		t.Errorf("logging = %q %q", c.LogFile(), c.LogLevel())
	}
}

func TestEnvOverrides(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantHistory int
		wantLevel   string
	}{
		{
			name:        "max history override",
			env:         map[string]string{global.MaxHistoryEnvVar: "25"},
			wantHistory: 25,
			wantLevel:   global.LogLevelInfo,
		},
		{
			name:        "invalid max history ignored",
			env:         map[string]string{global.MaxHistoryEnvVar: "lots"},
			wantHistory: 7,
			wantLevel:   global.LogLevelInfo,
		},
		{
			name:        "zero max history ignored",
			env:         map[string]string{global.MaxHistoryEnvVar: "0"},
			wantHistory: 7,
			wantLevel:   global.LogLevelInfo,
		},
		{
			name:        "log level override",
			env:         map[string]string{global.LogLevelEnvVar: "warn"},
			wantHistory: 7,
			wantLevel:   global.LogLevelWarn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"version": 1, "base_dir": "/tmp/devtools", "editor": {"max_history": 7}}`
			c, err := Parse([]byte(raw), WithEnv(envMap(tt.env)))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := c.Editor().MaxHistory; got != tt.wantHistory {
				t.Errorf("Editor().MaxHistory = %d, want %d", got, tt.wantHistory)
			}
			if got := c.LogLevel(); got != tt.wantLevel {
				t.Errorf("LogLevel() = %q, want %q", got, tt.wantLevel)
			}
		})
	}
}

func TestParseUnknownFieldIsLenient(t *testing.T) {
	c, err := Parse([]byte(`{"version": 1, "base_dir": "/tmp/devtools", "llms": []}`), WithEnv(noEnv))
	if err != nil {
		t.Fatalf("Parse() error = %v, want unknown fields tolerated", err)
	}
	if c.Version() != 1 {
		t.Errorf("Version() = %d, want 1", c.Version())
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte(`{"version": `), WithEnv(noEnv)); err == nil {
		t.Error("Parse() expected error for malformed JSON, got nil")
	}
}

func TestRelativeBaseDirFallsBack(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, err := Parse([]byte(`{"version": 1, "base_dir": "relative/dir"}`), WithEnv(noEnv))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if want := global.ExpandHome(global.DefaultBaseDir); c.BaseDir() != want {
		t.Errorf("BaseDir() = %q, want %q", c.BaseDir(), want)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	raw := `{"version": 1, "base_dir": "` + filepath.ToSlash(dir) + `", "editor": {"max_history": 4}}`
	if err := os.WriteFile(configPath, []byte(raw), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	c := New(WithConfigPath(configPath), WithEnv(noEnv))
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.IsFirstRun() {
		t.Error("IsFirstRun() = true, want false for existing config")
	}
	if c.ConfigPath() != configPath {
		t.Errorf("ConfigPath() = %q, want %q", c.ConfigPath(), configPath)
	}
	if c.Editor().MaxHistory != 4 {
		t.Errorf("Editor().MaxHistory = %d, want 4", c.Editor().MaxHistory)
	}
}

func TestLoadEnvConfigPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.json")
	if err := os.WriteFile(configPath, []byte(`{"version": 1}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	c := New(WithEnv(envMap(map[string]string{global.ConfigEnvVar: configPath})))
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.ConfigPath() != configPath {
		t.Errorf("ConfigPath() = %q, want %q", c.ConfigPath(), configPath)
	}
}

func TestResolvePath(t *testing.T) {
	c := &Config{data: &configData{BaseDir: "/base"}}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/file", "/abs/file"},
		{"rel/file", filepath.Join("/base", "rel/file")},
	}
	for _, tt := range tests {
		if got := c.resolvePath(tt.in); got != tt.want {
			t.Errorf("resolvePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
