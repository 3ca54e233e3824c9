/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

// Package shell runs agent commands through the user's shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/PivotLLM/DevTools/global"
	"github.com/PivotLLM/DevTools/ignore"
	"github.com/PivotLLM/DevTools/logging"
)

// Result is the outcome of one command
type Result struct {
	Command  string        `json:"command"`
	Output   string        `json:"output"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Render returns the output the way it appeared in the terminal
func (r *Result) Render() string {
	if r.ExitCode == 0 {
		return r.Output
	}
	return fmt.Sprintf("%s\n(exit status %d)", r.Output, r.ExitCode)
}

// HistoryEntry records a completed or failed command
type HistoryEntry struct {
	Command   string    `json:"command"`
	ExitCode  int       `json:"exit_code"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}

// Runner executes commands. It is safe for concurrent use.
type Runner struct {
	executable  string
	args        []string
	windows     bool
	timeout     time.Duration
	policy      *ignore.Policy
	limiter     *RateLimiter
	logger      *logging.Logger
	historySize int

	mu      sync.Mutex
	history []HistoryEntry
}

// Option is a functional option for configuring Runner
type Option func(*Runner)

// WithExecutable replaces the shell and the arguments placed before the command
func WithExecutable(executable string, args ...string) Option {
	return func(r *Runner) {
		if executable != "" {
			r.executable = executable
			r.args = append([]string{}, args...)
		}
	}
}

// WithTimeout bounds each command
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithPolicy rejects commands that name restricted paths
func WithPolicy(p *ignore.Policy) Option {
	return func(r *Runner) {
		r.policy = p
	}
}

// WithRateLimit admits at most max commands per period
func WithRateLimit(max int, period time.Duration) Option {
	return func(r *Runner) {
		r.limiter = NewRateLimiter(max, period)
	}
}

// WithLogger sets the logger for the runner
func WithLogger(logger *logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHistorySize sets how many commands History keeps
func WithHistorySize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.historySize = n
		}
	}
}

// New creates a runner for the platform shell
func New(opts ...Option) *Runner {
	r := &Runner{
		windows:     runtime.GOOS == "windows",
		timeout:     time.Duration(global.DefaultShellTimeout) * time.Second,
		historySize: global.DefaultShellHistory,
	}
	r.executable, r.args = defaultShell(r.windows)
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	return r
}

func defaultShell(windows bool) (string, []string) {
	if windows {
		return "powershell.exe", []string{"-NoProfile", "-NonInteractive", "-Command"}
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh, []string{"-c"}
	}
	return "bash", []string{"-c"}
}

// Executable returns the shell and its leading arguments
func (r *Runner) Executable() (string, []string) {
	return r.executable, append([]string{}, r.args...)
}

// Run executes command with stdin closed and stderr folded into stdout.
// A non-zero exit status is a successful run; the status is part of the result.
func (r *Runner) Run(ctx context.Context, command string) (*Result, error) {
	if strings.TrimSpace(command) == "" {
		return nil, global.NewError(global.KindInvalidArgument, "command must not be empty").WithField("command")
	}
	if err := r.CheckAccess(command); err != nil {
		return nil, err
	}

	if waited, err := r.limiter.Wait(ctx); err != nil {
		return nil, &global.ToolError{
			Kind:    global.KindInternal,
			Message: "cancelled while waiting for the shell rate limit",
			Err:     err,
		}
	} else if waited > 0 {
		r.logger.Infof("Shell rate limit reached, waited %v", waited)
	}

	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append(append([]string{}, r.args...), r.wrap(command))
	cmd := exec.CommandContext(execCtx, r.executable, args...)
	cmd.Stdin = nil
	cmd.WaitDelay = 2 * time.Second

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	r.logger.Debugf("Shell: %s %s", r.executable, strings.Join(args, " "))
	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := &Result{Command: command, Duration: duration}
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case execCtx.Err() == context.DeadlineExceeded:
			r.remember(command, -1, start, duration, "timed out")
			r.logger.Warnf("Shell command timed out after %v: %s", r.timeout, command)
			return nil, global.Errorf(global.KindIOError, "command timed out after %v", r.timeout).WithField("command")
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		default:
			r.remember(command, -1, start, duration, err.Error())
			r.logger.Errorf("Shell failed to run command: %v", err)
			return nil, &global.ToolError{
				Kind:    global.KindIOError,
				Field:   "command",
				Message: "failed to spawn command",
				Err:     err,
			}
		}
	}

	result.Output = global.NormalizeLineEndings(output.String())
	if n := global.CharCount(result.Output); n > global.MaxShellOutputChars {
		r.remember(command, result.ExitCode, start, duration, "output too large")
		return nil, global.Errorf(global.KindTooLarge,
			"Shell output from command '%s' has too many characters (%d). Maximum character count is %d.",
			command, n, global.MaxShellOutputChars).WithField("command")
	}

	r.remember(command, result.ExitCode, start, duration, "")
	r.logger.Infof("Shell command exited with status %d in %v", result.ExitCode, duration.Round(time.Millisecond))
	return result, nil
}

// wrap appends the stderr redirect in the form the shell expects
func (r *Runner) wrap(command string) string {
	if r.windows {
		return fmt.Sprintf("{ %s } 2>&1", command)
	}
	return command + " 2>&1"
}

// CheckAccess rejects a command whose arguments name existing restricted paths.
// Flags and words that are not existing paths are ignored.
func (r *Runner) CheckAccess(command string) error {
	if r.policy.Empty() {
		return nil
	}
	fields := strings.Fields(command)
	if len(fields) < 2 {
		return nil
	}
	for _, arg := range fields[1:] {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		abs, err := filepath.Abs(global.ExpandHome(arg))
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			continue
		}
		if r.policy.Matches(abs, info.IsDir()) {
			return global.Errorf(global.KindAccessDenied,
				"The command attempts to access '%s' which is restricted by ignore patterns", arg).
				WithField("command").WithPath(abs)
		}
	}
	return nil
}

func (r *Runner) remember(command string, exitCode int, start time.Time, d time.Duration, failure string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, HistoryEntry{
		Command:   command,
		ExitCode:  exitCode,
		Error:     failure,
		StartedAt: start.UTC(),
		Duration:  d.Round(time.Millisecond).String(),
	})
	if over := len(r.history) - r.historySize; over > 0 {
		r.history = append(r.history[:0], r.history[over:]...)
	}
}

// History returns the most recent commands, oldest first
func (r *Runner) History() []HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]HistoryEntry{}, r.history...)
}
