/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

// Package screen lists windows and captures screenshots using the platform's
// own command line tools.
package screen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/PivotLLM/DevTools/global"
	"github.com/PivotLLM/DevTools/imaging"
	"github.com/PivotLLM/DevTools/logging"
)

// CommandRunner runs an external program and returns its standard output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Capturer implements the list_windows and screen_capture tools
type Capturer struct {
	platform string
	runner   CommandRunner
	images   *imaging.Processor
	logger   *logging.Logger
}

// Option is a functional option for configuring Capturer
type Option func(*Capturer)

// WithPlatform overrides runtime.GOOS
func WithPlatform(goos string) Option {
	return func(c *Capturer) {
		c.platform = goos
	}
}

// WithCommandRunner replaces the process runner
func WithCommandRunner(r CommandRunner) Option {
	return func(c *Capturer) {
		c.runner = r
	}
}

// WithImageProcessor sets the processor captured images pass through
func WithImageProcessor(p *imaging.Processor) Option {
	return func(c *Capturer) {
		c.images = p
	}
}

// WithLogger sets the logger for the capturer
func WithLogger(logger *logging.Logger) Option {
	return func(c *Capturer) {
		c.logger = logger
	}
}

// New creates a capturer for the current platform
func New(opts ...Option) *Capturer {
	c := &Capturer{
		platform: runtime.GOOS,
		runner:   execRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if c.images == nil {
		c.images = imaging.New(imaging.WithLogger(c.logger))
	}
	return c
}

const macWindowScript = `set titles to {}
tell application "System Events"
	repeat with p in (every process whose visible is true)
		repeat with w in (every window of p)
			set end of titles to (name of w as text)
		end repeat
	end repeat
end tell
set AppleScript's text item delimiters to linefeed
return titles as text`

const macBoundsScript = `on run argv
	set wanted to item 1 of argv
	tell application "System Events"
		repeat with p in (every process whose visible is true)
			repeat with w in (every window of p)
				if (name of w as text) is wanted then
					set {x, y} to position of w
					set {ww, hh} to size of w
					return (x as text) & "," & (y as text) & "," & (ww as text) & "," & (hh as text)
				end if
			end repeat
		end repeat
	end tell
	return ""
end run`

type window struct {
	id    string
	title string
}

// ListWindows returns the titles of visible, titled windows
func (c *Capturer) ListWindows(ctx context.Context) ([]string, error) {
	windows, err := c.windows(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(windows))
	for _, w := range windows {
		titles = append(titles, w.title)
	}
	return titles, nil
}

// RenderWindows formats a window list for the agent
func RenderWindows(titles []string) string {
	if len(titles) == 0 {
		return "No windows found"
	}
	return "Available windows:\n" + strings.Join(titles, "\n")
}

func (c *Capturer) windows(ctx context.Context) ([]window, error) {
	var (
		out []byte
		err error
	)
	switch c.platform {
	case "darwin":
		out, err = c.runner.Run(ctx, "osascript", "-e", macWindowScript)
	case "linux":
		out, err = c.runner.Run(ctx, "wmctrl", "-l")
	default:
		return nil, c.unsupported()
	}
	if err != nil {
		return nil, &global.ToolError{Kind: global.KindInternal, Message: "Failed to list windows", Err: err}
	}

	var windows []window
	for _, line := range strings.Split(string(out), "\n") {
		var w window
		if c.platform == "linux" {
			// id desktop host title...
			fields := strings.Fields(line)
			if len(fields) < 4 {
				continue
			}
			w.id = fields[0]
			w.title = strings.Join(fields[3:], " ")
		} else {
			w.title = strings.TrimSpace(line)
		}
		if w.title == "" || w.title == "<No Title>" {
			continue
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// Capture takes a screenshot of a display (default 0) or of the window with
// exactly windowTitle, scaled through the image processor.
func (c *Capturer) Capture(ctx context.Context, display *int, windowTitle string) (*imaging.Image, error) {
	if display != nil && windowTitle != "" {
		return nil, global.NewError(global.KindInvalidArgument,
			"specify either display or window_title, not both").WithField("window_title")
	}

	tmp, err := os.CreateTemp("", "devtools-capture-*.png")
	if err != nil {
		return nil, global.WrapIO(os.TempDir(), "create capture file in", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(path) }()

	if windowTitle != "" {
		err = c.captureWindow(ctx, windowTitle, path)
	} else {
		n := 0
		if display != nil {
			n = *display
		}
		err = c.captureDisplay(ctx, n, path)
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, global.WrapIO(path, "read capture", err)
	}
	if len(data) == 0 {
		return nil, global.NewError(global.KindInternal, "screen capture produced no image")
	}

	img, err := c.images.Process(data, "png", "")
	if err != nil {
		return nil, err
	}
	c.logger.Infof("Screen captured %dx%d", img.Width, img.Height)
	return img, nil
}

func (c *Capturer) captureDisplay(ctx context.Context, display int, path string) error {
	if display < 0 {
		return global.Errorf(global.KindInvalidArgument, "%d was not an available monitor", display).WithField("display")
	}

	switch c.platform {
	case "darwin":
		// screencapture numbers displays from 1
		if _, err := c.runner.Run(ctx, "screencapture", "-x", "-D", strconv.Itoa(display+1), path); err != nil {
			return captureFailed(fmt.Sprintf("display %d", display), err)
		}
		return nil
	case "linux":
		monitors := c.monitors(ctx)
		args := []string{"-window", "root"}
		switch {
		case len(monitors) == 0 && display == 0:
		case display >= max(len(monitors), 1):
			return global.Errorf(global.KindInvalidArgument,
				"%d was not an available monitor, %d found.", display, max(len(monitors), 1)).WithField("display")
		default:
			args = append(args, "-crop", monitors[display])
		}
		args = append(args, path)
		if _, err := c.runner.Run(ctx, "import", args...); err != nil {
			return captureFailed(fmt.Sprintf("display %d", display), err)
		}
		return nil
	}
	return c.unsupported()
}

var monitorGeometry = regexp.MustCompile(`(\d+)/\d+x(\d+)/\d+\+(\d+)\+(\d+)`)

// monitors returns ImageMagick crop geometries from xrandr, in monitor order
func (c *Capturer) monitors(ctx context.Context) []string {
	out, err := c.runner.Run(ctx, "xrandr", "--listmonitors")
	if err != nil {
		c.logger.Debugf("xrandr unavailable: %v", err)
		return nil
	}
	var geoms []string
	for _, line := range strings.Split(string(out), "\n") {
		m := monitorGeometry.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		geoms = append(geoms, fmt.Sprintf("%sx%s+%s+%s", m[1], m[2], m[3], m[4]))
	}
	return geoms
}

func (c *Capturer) captureWindow(ctx context.Context, title, path string) error {
	switch c.platform {
	case "darwin":
		out, err := c.runner.Run(ctx, "osascript", "-e", macBoundsScript, title)
		if err != nil {
			return &global.ToolError{Kind: global.KindInternal, Message: "Failed to list windows", Err: err}
		}
		bounds := strings.TrimSpace(string(out))
		if bounds == "" {
			return noWindow(title)
		}
		if _, err := c.runner.Run(ctx, "screencapture", "-x", "-R", bounds, path); err != nil {
			return captureFailed(fmt.Sprintf("window '%s'", title), err)
		}
		return nil
	case "linux":
		windows, err := c.windows(ctx)
		if err != nil {
			return err
		}
		for _, w := range windows {
			if w.title == title {
				if _, err := c.runner.Run(ctx, "import", "-window", w.id, path); err != nil {
					return captureFailed(fmt.Sprintf("window '%s'", title), err)
				}
				return nil
			}
		}
		return noWindow(title)
	}
	return c.unsupported()
}

func noWindow(title string) error {
	return global.Errorf(global.KindNotFound, "No window found with title '%s'", title).WithField("window_title")
}

func captureFailed(what string, err error) error {
	return &global.ToolError{Kind: global.KindInternal, Message: "Failed to capture " + what, Err: err}
}

func (c *Capturer) unsupported() error {
	return global.Errorf(global.KindInternal, "screen tools are not supported on %s", c.platform)
}
