/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

// Package dispatch routes tool calls: it validates arguments, takes the lock
// that guards the touched state and runs the owning handler.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/PivotLLM/DevTools/editor"
	"github.com/PivotLLM/DevTools/global"
	"github.com/PivotLLM/DevTools/imaging"
	"github.com/PivotLLM/DevTools/logging"
	"github.com/PivotLLM/DevTools/schema"
	"github.com/PivotLLM/DevTools/screen"
	"github.com/PivotLLM/DevTools/shell"
	"github.com/PivotLLM/DevTools/workflow"
)

// Dispatcher owns the editor store and the workflow tracker and is the only
// path through which tool calls reach them.
type Dispatcher struct {
	validator *schema.Validator
	editor    *editor.Store
	tracker   *workflow.Tracker
	shell     *shell.Runner
	screen    *screen.Capturer
	images    *imaging.Processor
	logger    *logging.Logger
	locks     Locks

	tools map[string]*Tool
	order []string
}

// Option is a functional option for configuring Dispatcher
type Option func(*Dispatcher)

// WithEditor sets the file edit store
func WithEditor(store *editor.Store) Option {
	return func(d *Dispatcher) {
		d.editor = store
	}
}

// WithTracker sets the workflow tracker
func WithTracker(t *workflow.Tracker) Option {
	return func(d *Dispatcher) {
		d.tracker = t
	}
}

// WithShell sets the shell runner
func WithShell(r *shell.Runner) Option {
	return func(d *Dispatcher) {
		d.shell = r
	}
}

// WithScreen sets the screen capturer
func WithScreen(c *screen.Capturer) Option {
	return func(d *Dispatcher) {
		d.screen = c
	}
}

// WithImageProcessor sets the image processor
func WithImageProcessor(p *imaging.Processor) Option {
	return func(d *Dispatcher) {
		d.images = p
	}
}

// WithLogger sets the logger for the dispatcher
func WithLogger(logger *logging.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a dispatcher. Components that are not supplied get their defaults.
func New(opts ...Option) (*Dispatcher, error) {
	validator, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("failed to compile tool schemas: %w", err)
	}

	d := &Dispatcher{
		validator: validator,
		tools:     make(map[string]*Tool),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.Discard()
	}
	if d.editor == nil {
		d.editor = editor.NewStore(editor.WithLogger(d.logger))
	}
	if d.tracker == nil {
		d.tracker = workflow.NewTracker(workflow.WithLogger(d.logger))
	}
	if d.shell == nil {
		d.shell = shell.New(shell.WithLogger(d.logger))
	}
	if d.images == nil {
		d.images = imaging.New(imaging.WithLogger(d.logger))
	}
	if d.screen == nil {
		d.screen = screen.New(screen.WithImageProcessor(d.images), screen.WithLogger(d.logger))
	}

	handlers := map[string]struct {
		access  Access
		handler Handler
	}{
		global.ToolTextEditor:     {AccessDestructive, d.handleTextEditor},
		global.ToolWorkflow:       {AccessDefault, d.handleWorkflow},
		global.ToolShell:          {AccessDestructive, d.handleShell},
		global.ToolListWindows:    {AccessReadOnly, d.handleListWindows},
		global.ToolScreenCapture:  {AccessReadOnly, d.handleScreenCapture},
		global.ToolImageProcessor: {AccessReadOnly, d.handleImageProcessor},
	}
	for _, name := range validator.Tools() {
		h, ok := handlers[name]
		if !ok {
			return nil, fmt.Errorf("no handler for tool %s", name)
		}
		contract, _ := validator.Contract(name)
		raw, _ := validator.RawSchema(name)
		d.tools[name] = &Tool{
			Name:        name,
			Description: contract.Description,
			Schema:      raw,
			Access:      h.access,
			handler:     h.handler,
		}
		d.order = append(d.order, name)
	}

	return d, nil
}

// Tools returns the registered tools in registration order
func (d *Dispatcher) Tools() []Tool {
	out := make([]Tool, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, *d.tools[name])
	}
	return out
}

// Call validates args and runs the named tool
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (*Output, error) {
	tool, ok := d.tools[name]
	if !ok {
		d.logger.Warnf("Unknown tool %q requested", name)
		return nil, global.Errorf(global.KindNotFound, "Tool '%s' not found", name)
	}
	if args == nil {
		args = map[string]any{}
	}

	d.logToolCall(name, args)
	start := time.Now()
	out, err := tool.handler(ctx, args)
	if err != nil {
		d.logger.Warnf("Tool %s failed after %v: %v", name, time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	d.logger.Debugf("Tool %s completed in %v", name, time.Since(start).Round(time.Millisecond))
	return out, nil
}

// Invoke runs the named tool and converts the outcome into a protocol result.
// It always returns a well-formed result, including when a handler panics.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) (result *mcp.CallToolResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("Tool %s panicked: %v\n%s", name, r, debug.Stack())
			result = mcp.NewToolResultError(global.Errorf(global.KindInternal, "tool %s failed unexpectedly: %v", name, r).Error())
		}
	}()

	out, err := d.Call(ctx, name, args)
	if err != nil {
		return mcp.NewToolResultError(global.AsToolError(err).Error())
	}
	return toResult(out)
}

func toResult(out *Output) *mcp.CallToolResult {
	if out.Data != nil {
		result, err := mcp.NewToolResultJSON(out.Data)
		if err != nil {
			return mcp.NewToolResultError(global.NewError(global.KindInternal, "failed to encode result").Error())
		}
		return result
	}

	content := []mcp.Content{mcp.NewTextContent(out.Text)}
	for _, img := range out.Images {
		content = append(content, mcp.NewImageContent(img.Base64(), img.MimeType))
	}
	return &mcp.CallToolResult{Content: content}
}

// logToolCall logs a tool invocation with its identifying arguments at INFO level
func (d *Dispatcher) logToolCall(name string, args map[string]any) {
	var parts []string
	for _, key := range []string{"command", "path", "step_number", "branch_id", "display", "window_title", "resize"} {
		v, ok := args[key]
		if !ok {
			continue
		}
		s := fmt.Sprint(v)
		if len(s) > 80 {
			s = s[:77] + "..."
		}
		parts = append(parts, fmt.Sprintf("%s=%s", key, s))
	}
	if len(parts) == 0 {
		d.logger.Infof("Tool %s called", name)
		return
	}
	d.logger.Infof("Tool %s called: %s", name, strings.Join(parts, ", "))
}

// WorkflowState returns a copy of the workflow log
func (d *Dispatcher) WorkflowState() workflow.State {
	var state workflow.State
	_ = d.locks.WithWorkflow(func() error {
		state = d.tracker.Snapshot()
		return nil
	})
	return state
}

// ShellHistory returns the recent shell commands
func (d *Dispatcher) ShellHistory() []shell.HistoryEntry {
	return d.shell.History()
}

// EditedFile describes a file the editor holds state for
type EditedFile struct {
	Path          string `json:"path"`
	UndoSnapshots int    `json:"undo_snapshots"`
}

// EditedFiles lists the files the editor has touched, sorted by path
func (d *Dispatcher) EditedFiles() []EditedFile {
	paths := d.editor.Paths()
	files := make([]EditedFile, 0, len(paths))
	for _, p := range paths {
		var n int
		_ = d.locks.WithPath(p, func() error {
			n = d.editor.HistoryLen(p)
			return nil
		})
		files = append(files, EditedFile{Path: p, UndoSnapshots: n})
	}
	return files
}

// MaxHistory returns the undo bound of the editor
func (d *Dispatcher) MaxHistory() int {
	return d.editor.MaxHistory()
}
