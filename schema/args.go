/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package schema

// EditorArgs is one of ViewArgs, WriteArgs, StrReplaceArgs or UndoArgs.
// The set is closed: only this package can add variants.
type EditorArgs interface {
	Command() string
	Target() string
	editorArgs()
}

// ViewArgs requests the content of a file
type ViewArgs struct {
	Path string
}

// WriteArgs replaces the whole content of a file
type WriteArgs struct {
	Path     string
	FileText string
}

// StrReplaceArgs replaces the single occurrence of OldStr with NewStr
type StrReplaceArgs struct {
	Path   string
	OldStr string
	NewStr string
}

// UndoArgs reverts the newest edit of a file
type UndoArgs struct {
	Path string
}

func (a ViewArgs) Command() string       { return "view" }
func (a WriteArgs) Command() string      { return "write" }
func (a StrReplaceArgs) Command() string { return "str_replace" }
func (a UndoArgs) Command() string       { return "undo_edit" }

func (a ViewArgs) Target() string       { return a.Path }
func (a WriteArgs) Target() string      { return a.Path }
func (a StrReplaceArgs) Target() string { return a.Path }
func (a UndoArgs) Target() string       { return a.Path }

func (ViewArgs) editorArgs()       {}
func (WriteArgs) editorArgs()      {}
func (StrReplaceArgs) editorArgs() {}
func (UndoArgs) editorArgs()       {}

// WorkflowArgs is one workflow step as supplied by the caller
type WorkflowArgs struct {
	StepDescription string `json:"step_description"`
	StepNumber      int    `json:"step_number"`
	TotalSteps      int    `json:"total_steps"`
	NextStepNeeded  bool   `json:"next_step_needed"`
	IsStepRevision  *bool  `json:"is_step_revision,omitempty"`
	RevisesStep     *int   `json:"revises_step,omitempty"`
	BranchFromStep  *int   `json:"branch_from_step,omitempty"`
	BranchID        string `json:"branch_id,omitempty"`
	NeedsMoreSteps  *bool  `json:"needs_more_steps,omitempty"`
}

// ShellArgs carries the command for the shell delegate
type ShellArgs struct {
	Command string `json:"command"`
}

// ScreenCaptureArgs selects a display or a window, never both
type ScreenCaptureArgs struct {
	Display     *int   `json:"display,omitempty"`
	WindowTitle string `json:"window_title,omitempty"`
}

// ImageArgs selects an image file and an optional reduction factor
type ImageArgs struct {
	Path   string `json:"path"`
	Resize string `json:"resize,omitempty"`
}
