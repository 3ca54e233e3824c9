/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package dispatch

import (
	"context"
	"encoding/json"

	"github.com/PivotLLM/DevTools/global"
	"github.com/PivotLLM/DevTools/imaging"
	"github.com/PivotLLM/DevTools/schema"
	"github.com/PivotLLM/DevTools/screen"
	"github.com/PivotLLM/DevTools/workflow"
)

// renderer is implemented by every editor result
type renderer interface {
	Render() string
}

func (d *Dispatcher) handleTextEditor(_ context.Context, args map[string]any) (*Output, error) {
	parsed, err := d.validator.ParseEditor(args)
	if err != nil {
		return nil, err
	}

	var result renderer
	err = d.locks.WithPath(parsed.Target(), func() error {
		var opErr error
		switch a := parsed.(type) {
		case schema.ViewArgs:
			result, opErr = d.editor.View(a.Path)
		case schema.WriteArgs:
			result, opErr = d.editor.Write(a.Path, a.FileText)
		case schema.StrReplaceArgs:
			result, opErr = d.editor.StrReplace(a.Path, a.OldStr, a.NewStr)
		case schema.UndoArgs:
			result, opErr = d.editor.Undo(a.Path)
		default:
			opErr = global.Errorf(global.KindInternal, "unhandled text_editor command '%s'", parsed.Command())
		}
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return &Output{Text: result.Render()}, nil
}

func (d *Dispatcher) handleWorkflow(_ context.Context, args map[string]any) (*Output, error) {
	parsed, err := d.validator.ParseWorkflow(args)
	if err != nil {
		return nil, err
	}

	var summary *workflow.Summary
	err = d.locks.WithWorkflow(func() error {
		var recErr error
		summary, recErr = d.tracker.Record(parsed)
		return recErr
	})
	if err != nil {
		return nil, err
	}

	text, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, &global.ToolError{Kind: global.KindInternal, Message: "failed to encode workflow summary", Err: err}
	}
	return &Output{Text: string(text), Data: summary}, nil
}

func (d *Dispatcher) handleShell(ctx context.Context, args map[string]any) (*Output, error) {
	parsed, err := d.validator.ParseShell(args)
	if err != nil {
		return nil, err
	}
	res, err := d.shell.Run(ctx, parsed.Command)
	if err != nil {
		return nil, err
	}
	return &Output{Text: res.Render()}, nil
}

func (d *Dispatcher) handleListWindows(ctx context.Context, args map[string]any) (*Output, error) {
	if err := d.validator.ParseListWindows(args); err != nil {
		return nil, err
	}
	titles, err := d.screen.ListWindows(ctx)
	if err != nil {
		return nil, err
	}
	return &Output{Text: screen.RenderWindows(titles)}, nil
}

func (d *Dispatcher) handleScreenCapture(ctx context.Context, args map[string]any) (*Output, error) {
	parsed, err := d.validator.ParseScreenCapture(args)
	if err != nil {
		return nil, err
	}
	img, err := d.screen.Capture(ctx, parsed.Display, parsed.WindowTitle)
	if err != nil {
		return nil, err
	}
	return &Output{Text: "Screenshot captured", Images: []*imaging.Image{img}}, nil
}

func (d *Dispatcher) handleImageProcessor(_ context.Context, args map[string]any) (*Output, error) {
	parsed, err := d.validator.ParseImage(args)
	if err != nil {
		return nil, err
	}
	img, err := d.images.ProcessFile(parsed.Path, parsed.Resize)
	if err != nil {
		return nil, err
	}
	return &Output{Text: img.Summary(), Images: []*imaging.Image{img}}, nil
}
