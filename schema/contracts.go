/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package schema

import "github.com/PivotLLM/DevTools/global"

// Contract is the parameter contract for one tool. The same JSON schema is
// advertised to clients and used to validate incoming arguments.
type Contract struct {
	Name        string
	Description string
	Schema      string
}

// Contracts returns every tool contract in registration order
func Contracts() []Contract {
	return []Contract{
		{Name: global.ToolTextEditor, Description: textEditorDescription, Schema: textEditorSchema},
		{Name: global.ToolWorkflow, Description: workflowDescription, Schema: workflowSchema},
		{Name: global.ToolShell, Description: shellDescription, Schema: shellSchema},
		{Name: global.ToolListWindows, Description: listWindowsDescription, Schema: listWindowsSchema},
		{Name: global.ToolScreenCapture, Description: screenCaptureDescription, Schema: screenCaptureSchema},
		{Name: global.ToolImageProcessor, Description: imageProcessorDescription, Schema: imageProcessorSchema},
	}
}

const textEditorDescription = `Perform text editing operations on files: view, create or overwrite, replace a unique string, and undo recent changes.

Commands:
- view: show the content of a file
- write: create or overwrite a file with file_text (parent directories are created)
- str_replace: replace the single occurrence of old_str with new_str
- undo_edit: revert the last write or str_replace made to the file

Files are limited to 400KB on disk and 400,000 characters. str_replace requires old_str to match exactly once.
A bounded undo history is kept per file for the lifetime of the server.`

const textEditorSchema = `{
  "type": "object",
  "properties": {
    "command": {
      "type": "string",
      "enum": ["view", "write", "str_replace", "undo_edit"],
      "description": "Allowed options are: view, write, str_replace, undo_edit"
    },
    "path": {
      "type": "string",
      "minLength": 1,
      "description": "Absolute path to the file to operate on, e.g. /repo/file.py"
    },
    "file_text": {
      "type": "string",
      "description": "Content to write to the file (required for write)"
    },
    "old_str": {
      "type": "string",
      "minLength": 1,
      "description": "Exact string to replace, must appear exactly once (required for str_replace)"
    },
    "new_str": {
      "type": "string",
      "description": "Replacement string (required for str_replace)"
    }
  },
  "required": ["command", "path"],
  "allOf": [
    {
      "if": {"properties": {"command": {"const": "write"}}, "required": ["command"]},
      "then": {"required": ["file_text"]}
    },
    {
      "if": {"properties": {"command": {"const": "str_replace"}}, "required": ["command"]},
      "then": {"required": ["old_str", "new_str"]}
    }
  ]
}`

const workflowDescription = `Track a multi-step problem-solving process with sequential steps, revisions of earlier steps and named branches.

Each call records one step and returns the workflow status: step_number, total_steps, next_step_needed,
last_step_description, current_branch, branches and step_history_length.
- total_steps is an estimate and is raised automatically when step_number exceeds it
- set is_step_revision and revises_step to correct an earlier step
- set branch_from_step and branch_id to start an alternative path; branch_id alone continues an existing branch
Steps are never removed; the workflow always accepts further steps.`

const workflowSchema = `{
  "type": "object",
  "properties": {
    "step_description": {
      "type": "string",
      "description": "Detailed description of what this step accomplishes"
    },
    "step_number": {
      "type": "integer",
      "minimum": 1,
      "description": "Current position in the workflow sequence (1 for the first step)"
    },
    "total_steps": {
      "type": "integer",
      "minimum": 1,
      "description": "Current estimate of the total number of steps"
    },
    "next_step_needed": {
      "type": "boolean",
      "description": "True if another step will follow this one"
    },
    "is_step_revision": {
      "type": "boolean",
      "description": "True if this step revises a previous step"
    },
    "revises_step": {
      "type": "integer",
      "minimum": 1,
      "description": "Step number being revised"
    },
    "branch_from_step": {
      "type": "integer",
      "minimum": 1,
      "description": "Step number the new branch starts from"
    },
    "branch_id": {
      "type": "string",
      "description": "Identifier of the branch (required when branching)"
    },
    "needs_more_steps": {
      "type": "boolean",
      "description": "True if more steps are needed beyond the current estimate"
    }
  },
  "required": ["step_description", "step_number", "total_steps", "next_step_needed"]
}`

const shellDescription = `Execute a shell command and return its combined stdout and stderr.

Commands run non-interactively with stdin closed and are subject to a timeout and a rate limit.
Output is limited to 400,000 characters. Arguments naming files restricted by the ignore policy are refused.`

const shellSchema = `{
  "type": "object",
  "properties": {
    "command": {
      "type": "string",
      "minLength": 1,
      "description": "Command to execute"
    }
  },
  "required": ["command"]
}`

const listWindowsDescription = `List the titles of visible windows that can be passed to screen_capture as window_title.`

const listWindowsSchema = `{
  "type": "object",
  "properties": {}
}`

const screenCaptureDescription = `Capture a screenshot of a display or of a single window.

Specify either display (0 is the main display) or window_title (use list_windows to find titles), not both.
The image is scaled to a maximum width of 768 pixels.`

const screenCaptureSchema = `{
  "type": "object",
  "properties": {
    "display": {
      "type": "integer",
      "minimum": 0,
      "description": "Display number to capture (0 is the main display)"
    },
    "window_title": {
      "type": "string",
      "description": "Exact title of the window to capture"
    }
  }
}`

const imageProcessorDescription = `Load an image file from disk and return it for use in the conversation.

The image is scaled to a maximum width of 768 pixels keeping the aspect ratio, optionally reduced further
by 1/2 or 1/4, and re-encoded (JPEG and WebP as JPEG, everything else as PNG). Files are limited to 10MB.`

const imageProcessorSchema = `{
  "type": "object",
  "properties": {
    "path": {
      "type": "string",
      "minLength": 1,
      "description": "Absolute path to the image file"
    },
    "resize": {
      "type": "string",
      "enum": ["1/2", "1/4"],
      "description": "Optional extra reduction factor"
    }
  },
  "required": ["path"]
}`
