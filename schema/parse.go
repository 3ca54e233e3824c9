/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package schema

import (
	"github.com/PivotLLM/DevTools/global"
)

// ParseEditor validates text_editor arguments and returns the typed command.
// The path is resolved to a clean absolute path; a relative path is reported
// alongside any schema problems.
func (v *Validator) ParseEditor(args map[string]any) (EditorArgs, error) {
	resolved, extra := absolutePath(args, "path")
	if err := v.check(global.ToolTextEditor, args, extra); err != nil {
		return nil, err
	}

	switch stringArg(args, "command") {
	case global.CommandView:
		return ViewArgs{Path: resolved}, nil
	case global.CommandWrite:
		return WriteArgs{Path: resolved, FileText: stringArg(args, "file_text")}, nil
	case global.CommandStrReplace:
		return StrReplaceArgs{
			Path:   resolved,
			OldStr: stringArg(args, "old_str"),
			NewStr: stringArg(args, "new_str"),
		}, nil
	case global.CommandUndoEdit:
		return UndoArgs{Path: resolved}, nil
	}

	// Unreachable while the schema enumerates the commands
	return nil, global.Errorf(global.KindInternal, "unhandled text_editor command '%s'", stringArg(args, "command"))
}

// ParseWorkflow validates workflow arguments
func (v *Validator) ParseWorkflow(args map[string]any) (WorkflowArgs, error) {
	var out WorkflowArgs
	if err := v.check(global.ToolWorkflow, args, nil); err != nil {
		return out, err
	}
	if err := decode(args, &out); err != nil {
		return out, err
	}
	return out, nil
}

// ParseShell validates shell arguments
func (v *Validator) ParseShell(args map[string]any) (ShellArgs, error) {
	var out ShellArgs
	if err := v.check(global.ToolShell, args, nil); err != nil {
		return out, err
	}
	err := decode(args, &out)
	return out, err
}

// ParseListWindows validates list_windows arguments (there are none)
func (v *Validator) ParseListWindows(args map[string]any) error {
	return v.check(global.ToolListWindows, args, nil)
}

// ParseScreenCapture validates screen_capture arguments
func (v *Validator) ParseScreenCapture(args map[string]any) (ScreenCaptureArgs, error) {
	var out ScreenCaptureArgs
	var extra []problem
	if _, hasDisplay := args["display"]; hasDisplay && stringArg(args, "window_title") != "" {
		extra = append(extra, problem{field: "display", message: "Specify either display or window_title, not both"})
	}
	if err := v.check(global.ToolScreenCapture, args, extra); err != nil {
		return out, err
	}
	err := decode(args, &out)
	return out, err
}

// ParseImage validates image_processor arguments
func (v *Validator) ParseImage(args map[string]any) (ImageArgs, error) {
	var out ImageArgs
	resolved, extra := absolutePath(args, "path")
	if err := v.check(global.ToolImageProcessor, args, extra); err != nil {
		return out, err
	}
	if err := decode(args, &out); err != nil {
		return out, err
	}
	out.Path = resolved
	return out, nil
}

// absolutePath resolves a string path argument. Missing or mistyped values are
// left for the schema to report.
func absolutePath(args map[string]any, field string) (string, []problem) {
	raw, ok := args[field].(string)
	if !ok || raw == "" {
		return "", nil
	}
	resolved, err := global.ResolveAbsolutePath(raw)
	if err != nil {
		return "", []problem{{field: field, message: err.Error()}}
	}
	return resolved, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
