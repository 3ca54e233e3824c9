/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package editor

import "fmt"

// ViewResult is the content of a viewed file
type ViewResult struct {
	Path     string
	Content  string
	Language string
}

// WriteResult is the committed content of a written file
type WriteResult struct {
	Path     string
	Content  string
	Language string
}

// ReplaceResult is the edited section of a file after str_replace
type ReplaceResult struct {
	Path      string
	Snippet   string
	StartLine int // 1-based line number of the first snippet line
	Language  string
}

// UndoResult is the restored content of a file
type UndoResult struct {
	Path     string
	Content  string
	Removed  bool // the file did not exist before the undone edit and was removed
	Language string
}

func fence(path, language, content string) string {
	return fmt.Sprintf("### %s\n```%s\n%s\n```", path, language, content)
}

// Render formats the file for the agent
func (r *ViewResult) Render() string {
	return fence(r.Path, r.Language, r.Content)
}

// Render formats a confirmation followed by the written file
func (r *WriteResult) Render() string {
	return fmt.Sprintf("Successfully wrote to %s\n\n%s", r.Path, fence(r.Path, r.Language, r.Content))
}

// Render formats the edited section with a review reminder
func (r *ReplaceResult) Render() string {
	return fmt.Sprintf("The file %s has been edited, and the section now reads:\n```%s\n%s\n```\n"+
		"Review the changes above for errors. Undo and edit the file again if necessary!",
		r.Path, r.Language, r.Snippet)
}

// Render formats the restored state
func (r *UndoResult) Render() string {
	if r.Removed {
		return fmt.Sprintf("Undid the last edit, %s did not exist before it and has been removed", r.Path)
	}
	return fmt.Sprintf("Undid the last edit\n\n%s", fence(r.Path, r.Language, r.Content))
}
