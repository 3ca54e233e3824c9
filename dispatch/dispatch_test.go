/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package dispatch

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/PivotLLM/DevTools/editor"
	"github.com/PivotLLM/DevTools/global"
	"github.com/PivotLLM/DevTools/workflow"
)

func newTestDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	d, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

// tempDir returns a test directory with symlinks resolved, matching the
// canonical keys the dispatcher uses
func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks() error = %v", err)
	}
	return dir
}

func call(t *testing.T, d *Dispatcher, name string, args map[string]any) *Output {
	t.Helper()
	out, err := d.Call(context.Background(), name, args)
	if err != nil {
		t.Fatalf("Call(%s, %v) error = %v", name, args, err)
	}
	return out
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if len(r.Content) == 0 {
		t.Fatalf("result has no content")
	}
	tc, ok := r.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("first content is %T, want mcp.TextContent", r.Content[0])
	}
	return tc.Text
}

func TestToolsRegistered(t *testing.T) {
	d := newTestDispatcher(t)
	tools := d.Tools()

	want := []struct {
		name   string
		access Access
	}{
		{global.ToolTextEditor, AccessDestructive},
		{global.ToolWorkflow, AccessDefault},
		{global.ToolShell, AccessDestructive},
		{global.ToolListWindows, AccessReadOnly},
		{global.ToolScreenCapture, AccessReadOnly},
		{global.ToolImageProcessor, AccessReadOnly},
	}
	if len(tools) != len(want) {
		t.Fatalf("Tools() returned %d tools, want %d", len(tools), len(want))
	}
	for i, w := range want {
		if tools[i].Name != w.name || tools[i].Access != w.access {
			t.Errorf("tool %d = %s (%s), want %s (%s)", i, tools[i].Name, tools[i].Access, w.name, w.access)
		}
		if tools[i].Description == "" || len(tools[i].Schema) == 0 {
			t.Errorf("tool %s has no description or schema", tools[i].Name)
		}
	}
}

func TestTextEditorFlow(t *testing.T) {
	d := newTestDispatcher(t)
	path := filepath.Join(tempDir(t), "main.go")

	out := call(t, d, global.ToolTextEditor, map[string]any{"command": "write", "path": path, "file_text": "package main\n"})
	if !strings.Contains(out.Text, "Successfully wrote") {
		t.Errorf("write output = %q", out.Text)
	}

	out = call(t, d, global.ToolTextEditor, map[string]any{"command": "view", "path": path})
	if !strings.Contains(out.Text, "```go\npackage main\n") {
		t.Errorf("view output = %q", out.Text)
	}

	call(t, d, global.ToolTextEditor, map[string]any{"command": "str_replace", "path": path, "old_str": "main", "new_str": "tools"})
	data, _ := os.ReadFile(path)
	if string(data) != "package tools\n" {
		t.Errorf("file = %q after str_replace", data)
	}

	call(t, d, global.ToolTextEditor, map[string]any{"command": "undo_edit", "path": path})
	data, _ = os.ReadFile(path)
	if string(data) != "package main\n" {
		t.Errorf("file = %q after undo", data)
	}

	files := d.EditedFiles()
	if len(files) != 1 || files[0].Path != path || files[0].UndoSnapshots != 0 {
		t.Errorf("EditedFiles() = %+v", files)
	}
}

func TestCallErrors(t *testing.T) {
	d := newTestDispatcher(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		tool string
		args map[string]any
		kind global.ErrorKind
	}{
		{"unknown tool", "teleport", nil, global.KindNotFound},
		{"missing path", global.ToolTextEditor, map[string]any{"command": "view"}, global.KindSchemaValidation},
		{"bad command", global.ToolTextEditor, map[string]any{"command": "delete", "path": dir}, global.KindSchemaValidation},
		{"relative path", global.ToolTextEditor, map[string]any{"command": "view", "path": "rel.txt"}, global.KindSchemaValidation},
		{"missing file", global.ToolTextEditor, map[string]any{"command": "view", "path": filepath.Join(dir, "none")}, global.KindNotFound},
		{"undo without history", global.ToolTextEditor, map[string]any{"command": "undo_edit", "path": filepath.Join(dir, "none")}, global.KindNoHistory},
		{"workflow missing fields", global.ToolWorkflow, map[string]any{"step_number": 1}, global.KindSchemaValidation},
		{"workflow bad reference", global.ToolWorkflow, map[string]any{
			"step_description": "x", "step_number": 1, "total_steps": 1, "next_step_needed": false,
			"is_step_revision": true, "revises_step": 4,
		}, global.KindInvalidWorkflowReference},
		{"image missing", global.ToolImageProcessor, map[string]any{"path": filepath.Join(dir, "none.png")}, global.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Call(context.Background(), tt.tool, tt.args)
			if global.KindOf(err) != tt.kind {
				t.Errorf("Call() error = %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestSchemaErrorListsEveryProblem(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Call(context.Background(), global.ToolWorkflow, map[string]any{})
	te := global.AsToolError(err)
	if te.Kind != global.KindSchemaValidation {
		t.Fatalf("Kind = %s, want SchemaValidation", te.Kind)
	}
	msg := te.Error()
	for _, field := range []string{"step_description", "step_number", "total_steps", "next_step_needed"} {
		if !strings.Contains(msg, field) {
			t.Errorf("error %q does not mention %s", msg, field)
		}
	}
}

func TestInvoke(t *testing.T) {
	d := newTestDispatcher(t)

	r := d.Invoke(context.Background(), "teleport", nil)
	if !r.IsError || !strings.HasPrefix(resultText(t, r), "NotFound") {
		t.Errorf("unknown tool result = %+v", r)
	}

	r = d.Invoke(context.Background(), global.ToolWorkflow, map[string]any{
		"step_description": "plan", "step_number": 1, "total_steps": 2, "next_step_needed": true,
	})
	if r.IsError {
		t.Fatalf("workflow result is an error: %s", resultText(t, r))
	}
	if !strings.Contains(resultText(t, r), `"step_history_length"`) {
		t.Errorf("workflow result = %s", resultText(t, r))
	}
}

func TestInvokeRecoversFromPanic(t *testing.T) {
	d := newTestDispatcher(t)
	d.tools["boom"] = &Tool{Name: "boom", handler: func(context.Context, map[string]any) (*Output, error) {
		panic("kaboom")
	}}

	r := d.Invoke(context.Background(), "boom", nil)
	if !r.IsError || !strings.Contains(resultText(t, r), "Internal") {
		t.Errorf("panic result = %+v", r)
	}
}

func TestInvokeImage(t *testing.T) {
	d := newTestDispatcher(t)
	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 40, 20))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	_ = f.Close()

	r := d.Invoke(context.Background(), global.ToolImageProcessor, map[string]any{"path": path, "resize": "1/2"})
	if r.IsError || len(r.Content) != 2 {
		t.Fatalf("result = %+v", r)
	}
	img, ok := r.Content[1].(mcp.ImageContent)
	if !ok || img.MIMEType != "image/png" || img.Data == "" {
		t.Errorf("image content = %#v", r.Content[1])
	}
	if !strings.Contains(resultText(t, r), "40x20 -> 20x10") {
		t.Errorf("summary = %q", resultText(t, r))
	}
}

func TestShellDelegate(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	d := newTestDispatcher(t)
	out := call(t, d, global.ToolShell, map[string]any{"command": "echo delegated"})
	if strings.TrimSpace(out.Text) != "delegated" {
		t.Errorf("shell output = %q", out.Text)
	}
	if h := d.ShellHistory(); len(h) != 1 || h[0].Command != "echo delegated" {
		t.Errorf("ShellHistory() = %+v", h)
	}
}

func TestSymlinkedPathSharesHistory(t *testing.T) {
	d := newTestDispatcher(t)
	dir := tempDir(t)
	realDir := filepath.Join(dir, "real")
	if err := os.MkdirAll(realDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	linkDir := filepath.Join(dir, "link")
	if err := os.Symlink(realDir, linkDir); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	realPath := filepath.Join(realDir, "f.txt")
	linkPath := filepath.Join(linkDir, "f.txt")

	write := func(path, text string) {
		call(t, d, global.ToolTextEditor, map[string]any{"command": "write", "path": path, "file_text": text})
	}
	write(realPath, "A")
	write(realPath, "B")
	write(linkPath, "C")

	out := call(t, d, global.ToolTextEditor, map[string]any{"command": "undo_edit", "path": realPath})
	if !strings.HasSuffix(out.Text, "\nB\n```") {
		t.Errorf("undo output = %q, want restored content B", out.Text)
	}
	data, _ := os.ReadFile(realPath)
	if string(data) != "B" {
		t.Errorf("file = %q after undo, want %q", data, "B")
	}

	files := d.EditedFiles()
	if len(files) != 1 || files[0].Path != realPath || files[0].UndoSnapshots != 1 {
		t.Errorf("EditedFiles() = %+v, want one record for %s with 1 snapshot", files, realPath)
	}

	call(t, d, global.ToolTextEditor, map[string]any{"command": "undo_edit", "path": linkPath})
	data, _ = os.ReadFile(realPath)
	if string(data) != "A" {
		t.Errorf("file = %q after second undo, want %q", data, "A")
	}
}

func TestSamePathNoLostUpdate(t *testing.T) {
	d := newTestDispatcher(t, WithEditor(editor.NewStore(editor.WithMaxHistory(100))))
	path := filepath.Join(t.TempDir(), "shared.txt")
	call(t, d, global.ToolTextEditor, map[string]any{"command": "write", "path": path, "file_text": "0\n"})

	const writers = 20
	var wg sync.WaitGroup
	for i := 1; i <= writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := d.Call(context.Background(), global.ToolTextEditor, map[string]any{
				"command": "write", "path": path, "file_text": fmt.Sprintf("%d\n", i),
			})
			if err != nil {
				t.Errorf("write %d error = %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	valid := false
	for i := 1; i <= writers; i++ {
		if string(data) == fmt.Sprintf("%d\n", i) {
			valid = true
		}
	}
	if !valid {
		t.Errorf("final content %q matches no writer", data)
	}

	// Every write committed exactly one snapshot, so undo walks back to the baseline.
	for i := 0; i < writers; i++ {
		call(t, d, global.ToolTextEditor, map[string]any{"command": "undo_edit", "path": path})
	}
	data, _ = os.ReadFile(path)
	if string(data) != "0\n" {
		t.Errorf("content after undoing every write = %q, want baseline", data)
	}
}

func TestDistinctPathsDoNotBlock(t *testing.T) {
	d := newTestDispatcher(t)
	dir := t.TempDir()
	held := filepath.Join(dir, "held.txt")
	free := filepath.Join(dir, "free.txt")

	release := make(chan struct{})
	locked := make(chan struct{})
	go func() {
		_ = d.locks.WithPath(held, func() error {
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked
	defer close(release)

	done := make(chan error, 1)
	go func() {
		_, err := d.Call(context.Background(), global.ToolTextEditor, map[string]any{
			"command": "write", "path": free, "file_text": "ok",
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("write error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("write to a different path blocked on a held lock")
	}
}

func TestWorkflowSerialized(t *testing.T) {
	d := newTestDispatcher(t, WithTracker(workflow.NewTracker(workflow.WithLogSteps(false))))

	const steps = 25
	var wg sync.WaitGroup
	for i := 1; i <= steps; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := d.Call(context.Background(), global.ToolWorkflow, map[string]any{
				"step_description": fmt.Sprintf("step %d", i),
				"step_number":      i,
				"total_steps":      steps,
				"next_step_needed": true,
			})
			if err != nil {
				t.Errorf("step %d error = %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	state := d.WorkflowState()
	if len(state.Steps) != steps || state.TotalSteps != steps {
		t.Fatalf("state has %d steps, total %d", len(state.Steps), state.TotalSteps)
	}
	for i, s := range state.Steps {
		if s.Sequence != i+1 {
			t.Errorf("step %d has sequence %d", i, s.Sequence)
		}
	}
}

func TestAccessString(t *testing.T) {
	if AccessReadOnly.String() != "read-only" || AccessDefault.String() != "default" || AccessDestructive.String() != "destructive" {
		t.Error("unexpected Access names")
	}
}
