/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PivotLLM/DevTools/global"
)

// setupDefaultConfig creates a default config file from the embedded config-example.json
func (c *Config) setupDefaultConfig(configPath string) error {
	content, err := c.embeddedFS.ReadFile("docs/config-example.json")
	if err != nil {
		return fmt.Errorf("failed to read embedded config-example.json: %w", err)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configPath, err)
	}

	return nil
}

// Config provides access to application configuration
type Config struct {
	configPath string      // resolved path to config file
	data       *configData // parsed configuration
	firstRun   bool        // true if config was just created
	embeddedFS embed.FS    // embedded default configuration
	getenv     func(string) string
}

// configData holds the parsed configuration (internal)
type configData struct {
	Version            int      `json:"version"`
	BaseDir            string   `json:"base_dir"`
	Logging            Logging  `json:"logging"`
	Editor             Editor   `json:"editor,omitempty"`
	Workflow           Workflow `json:"workflow,omitempty"`
	Shell              Shell    `json:"shell,omitempty"`
	MarkNonDestructive bool     `json:"mark_non_destructive,omitempty"`
}

// Logging represents logging configuration
type Logging struct {
	File  string `json:"file"`
	Level string `json:"level"`
}

// Editor configures the text_editor tool
type Editor struct {
	MaxHistory           int    `json:"max_history,omitempty"`
	IgnoreFile           string `json:"ignore_file,omitempty"`
	NormalizeLineEndings bool   `json:"normalize_line_endings,omitempty"`
}

// Workflow configures the workflow tool. Pointers distinguish "unset" from false.
type Workflow struct {
	AllowBranches *bool  `json:"allow_branches,omitempty"`
	MaxSteps      int    `json:"max_steps,omitempty"` // 0 means unlimited
	LogSteps      *bool  `json:"log_steps,omitempty"`
	Journal       string `json:"journal,omitempty"` // optional SQLite audit journal
}

// Shell configures the shell delegate
type Shell struct {
	Executable     string    `json:"executable,omitempty"`
	Args           []string  `json:"args,omitempty"`
	TimeoutSeconds int       `json:"timeout_seconds,omitempty"`
	RateLimit      RateLimit `json:"rate_limit,omitempty"`
}

// RateLimit represents rate limiting configuration
type RateLimit struct {
	MaxRequests   int `json:"max_requests,omitempty"`
	PeriodSeconds int `json:"period_seconds,omitempty"`
}

// Option is a functional option for configuring Config
type Option func(*Config)

// New creates a new Config instance with optional configuration
func New(opts ...Option) *Config {
	c := &Config{getenv: os.Getenv}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithConfigPath sets an explicit config file path
func WithConfigPath(path string) Option {
	return func(c *Config) {
		c.configPath = path
	}
}

// WithEmbeddedFS sets the embedded filesystem holding docs/config-example.json
func WithEmbeddedFS(efs embed.FS) Option {
	return func(c *Config) {
		c.embeddedFS = efs
	}
}

// WithEnv replaces the environment lookup (used by tests)
func WithEnv(getenv func(string) string) Option {
	return func(c *Config) {
		c.getenv = getenv
	}
}

// Load loads and validates configuration from file
// If the base directory or config file doesn't exist, it creates them from embedded defaults
func (c *Config) Load() error {
	configPath, err := c.resolveConfigPath()
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	c.configPath = configPath

	// First-run: create base directory
	baseDir := c.resolveDefaultBaseDir()
	if !global.DirExists(baseDir) {
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return fmt.Errorf("failed to create base directory %s: %w", baseDir, err)
		}
	}

	// Create default config if it doesn't exist
	if !global.FileExists(configPath) {
		c.firstRun = true
		if err := c.setupDefaultConfig(configPath); err != nil {
			return fmt.Errorf("failed to create default config at %s: %w", configPath, err)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg, err := parse(data, configPath)
	if err != nil {
		return err
	}
	c.data = cfg

	return c.finish()
}

// parse decodes strictly first so unknown fields are reported, then falls back to lenient decoding
func parse(data []byte, source string) (*configData, error) {
	var cfg configData
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		if !strings.Contains(err.Error(), "unknown field") {
			return nil, fmt.Errorf("failed to parse config file %s: %w", source, err)
		}
		_, _ = fmt.Fprintf(os.Stderr, "Warning: config file %s: %v\n", source, err)
		cfg = configData{}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", source, err)
		}
	}
	return &cfg, nil
}

// finish applies base_dir resolution, environment overrides, validation and path normalization
func (c *Config) finish() error {
	c.resolveBaseDir()
	c.applyEnvOverrides()

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.normalizePaths()
	return nil
}

// resolveConfigPath determines the config file path using precedence rules
func (c *Config) resolveConfigPath() (string, error) {
	// 1. Explicit path (from WithConfigPath option)
	if c.configPath != "" {
		return c.resolveToAbsolute(c.configPath)
	}

	// 2. Environment variable
	if envPath := c.getenv(global.ConfigEnvVar); envPath != "" {
		return c.resolveToAbsolute(envPath)
	}

	// 3. Default: base_dir/config.json
	return filepath.Join(c.resolveDefaultBaseDir(), global.DefaultConfigFileName), nil
}

// resolveDefaultBaseDir returns the resolved default base directory
func (c *Config) resolveDefaultBaseDir() string {
	return global.ExpandHome(global.DefaultBaseDir)
}

// resolveBaseDir resolves the base_dir from config, falling back to the default
func (c *Config) resolveBaseDir() {
	if c.data.BaseDir == "" {
		c.data.BaseDir = c.resolveDefaultBaseDir()
		return
	}

	resolved := global.ExpandHome(c.data.BaseDir)
	if !filepath.IsAbs(resolved) {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: base_dir '%s' is not absolute, using default '%s'\n",
			c.data.BaseDir, global.DefaultBaseDir)
		resolved = c.resolveDefaultBaseDir()
	}
	c.data.BaseDir = resolved
}

// applyEnvOverrides lets the administrator override selected settings without editing the file
func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(c.getenv(global.MaxHistoryEnvVar)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			_, _ = fmt.Fprintf(os.Stderr, "Warning: ignoring invalid %s=%q\n", global.MaxHistoryEnvVar, v)
		} else {
			c.data.Editor.MaxHistory = n
		}
	}
	if v := strings.TrimSpace(c.getenv(global.LogLevelEnvVar)); v != "" {
		c.data.Logging.Level = strings.ToUpper(v)
	}
}

// resolveToAbsolute converts a path to absolute, expanding ~/ if needed
func (c *Config) resolveToAbsolute(path string) (string, error) {
	expanded := global.ExpandHome(path)
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	return filepath.Abs(expanded)
}

// resolvePath resolves a path relative to base_dir
// - If absolute, returns as-is
// - If starts with ~/, expands home directory
// - Otherwise, joins with base_dir
func (c *Config) resolvePath(path string) string {
	if path == "" {
		return ""
	}

	expanded := global.ExpandHome(path)
	if filepath.IsAbs(expanded) {
		return expanded
	}

	return filepath.Join(c.data.BaseDir, expanded)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.data.Version != 1 {
		if c.data.Version < 1 {
			return fmt.Errorf("config version %d is too old (expected 1)", c.data.Version)
		}
		return fmt.Errorf("config version %d is newer than supported (expected 1)", c.data.Version)
	}

	if c.data.Editor.MaxHistory < 0 {
		return fmt.Errorf("editor.max_history cannot be negative")
	}
	if c.data.Workflow.MaxSteps < 0 {
		return fmt.Errorf("workflow.max_steps cannot be negative")
	}
	if c.data.Shell.TimeoutSeconds < 0 {
		return fmt.Errorf("shell.timeout_seconds cannot be negative")
	}
	if c.data.Shell.RateLimit.MaxRequests < 0 || c.data.Shell.RateLimit.PeriodSeconds < 0 {
		return fmt.Errorf("shell.rate_limit values cannot be negative")
	}
	if len(c.data.Shell.Args) > 0 && c.data.Shell.Executable == "" {
		return fmt.Errorf("shell.args requires shell.executable")
	}

	return nil
}

// normalizePaths resolves file paths relative to base_dir
func (c *Config) normalizePaths() {
	if c.data.Logging.File == "" {
		c.data.Logging.File = global.DefaultLogFileName
	}
	c.data.Logging.File = c.resolvePath(c.data.Logging.File)

	if c.data.Workflow.Journal != "" {
		c.data.Workflow.Journal = c.resolvePath(c.data.Workflow.Journal)
	}
	if c.data.Shell.Executable != "" {
		c.data.Shell.Executable = global.ExpandHome(c.data.Shell.Executable)
	}
}

// Getter methods

// Version returns the config version
func (c *Config) Version() int {
	return c.data.Version
}

// BaseDir returns the resolved base directory (always absolute)
func (c *Config) BaseDir() string {
	return c.data.BaseDir
}

// LogFile returns the resolved log file path (always absolute)
func (c *Config) LogFile() string {
	return c.data.Logging.File
}

// LogLevel returns the configured log level
func (c *Config) LogLevel() string {
	if c.data.Logging.Level == "" {
		return global.LogLevelInfo
	}
	return c.data.Logging.Level
}

// Editor returns the editor configuration with defaults applied
func (c *Config) Editor() Editor {
	e := c.data.Editor
	if e.MaxHistory <= 0 {
		e.MaxHistory = global.DefaultMaxHistory
	}
	if e.IgnoreFile == "" {
		e.IgnoreFile = global.DefaultIgnoreFile
	}
	return e
}

// Workflow returns the workflow configuration with defaults applied
func (c *Config) Workflow() Workflow {
	w := c.data.Workflow
	if w.AllowBranches == nil {
		w.AllowBranches = boolPtr(true)
	}
	if w.LogSteps == nil {
		w.LogSteps = boolPtr(true)
	}
	return w
}

// Shell returns the shell configuration with defaults applied
func (c *Config) Shell() Shell {
	s := c.data.Shell
	if s.TimeoutSeconds <= 0 {
		s.TimeoutSeconds = global.DefaultShellTimeout
	}
	if s.RateLimit.MaxRequests <= 0 {
		s.RateLimit.MaxRequests = global.DefaultRateLimitRequests
	}
	if s.RateLimit.PeriodSeconds <= 0 {
		s.RateLimit.PeriodSeconds = global.DefaultRateLimitPeriod
	}
	return s
}

// Timeout returns the shell timeout as a duration
func (s Shell) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Period returns the rate limit window as a duration
func (r RateLimit) Period() time.Duration {
	return time.Duration(r.PeriodSeconds) * time.Second
}

// BranchesAllowed reports the effective allow_branches setting
func (w Workflow) BranchesAllowed() bool {
	return w.AllowBranches == nil || *w.AllowBranches
}

// StepLogging reports the effective log_steps setting
func (w Workflow) StepLogging() bool {
	return w.LogSteps == nil || *w.LogSteps
}

// MarkNonDestructive returns true if tools should be marked as non-destructive
func (c *Config) MarkNonDestructive() bool {
	return c.data.MarkNonDestructive
}

// IsFirstRun returns true if this is the first run (config was just created)
func (c *Config) IsFirstRun() bool {
	return c.firstRun
}

// ConfigPath returns the path to the loaded config file
func (c *Config) ConfigPath() string {
	return c.configPath
}

func boolPtr(b bool) *bool {
	return &b
}

// Parse builds a Config from raw JSON without touching the filesystem
func Parse(data []byte, opts ...Option) (*Config, error) {
	c := New(opts...)
	cfg, err := parse(data, "<memory>")
	if err != nil {
		return nil, err
	}
	c.data = cfg
	if err := c.finish(); err != nil {
		return nil, err
	}
	return c, nil
}
