/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package global

//goland:noinspection GoCommentStart,GoUnusedConst,GoUnusedConst,GoUnusedConst
const (
	// Configuration constants
	ConfigEnvVar          = "DEVTOOLS_CONFIG"
	LogLevelEnvVar        = "DEVTOOLS_LOG_LEVEL"
	MaxHistoryEnvVar      = "TEXT_EDITOR_MAX_HISTORY"
	DefaultBaseDir        = "~/.devtools"
	DefaultConfigFileName = "config.json"
	DefaultLogFileName    = "devtools.log"
	DefaultIgnoreFile     = ".gitignore"

	// MCP Tool Names - Stateful core
	ToolTextEditor = "text_editor"
	ToolWorkflow   = "workflow"

	// MCP Tool Names - Delegates
	ToolShell          = "shell"
	ToolListWindows    = "list_windows"
	ToolScreenCapture  = "screen_capture"
	ToolImageProcessor = "image_processor"

	// Text editor commands
	CommandView       = "view"
	CommandWrite      = "write"
	CommandStrReplace = "str_replace"
	CommandUndoEdit   = "undo_edit"

	// MCP Resource URIs
	ResourceWorkspace    = "file://workspace"
	ResourceShellHistory = "shell://history"
	ResourceWorkflow     = "workflow://state"

	// MCP Prompt Names
	PromptDeveloperWorkflow = "developer_workflow"

	// Text editor limits
	MaxFileSizeBytes   = 400 * 1024 // on-disk size accepted by view
	MaxCharCount       = 400_000    // characters accepted by view and write
	DefaultMaxHistory  = 10         // undo snapshots kept per path
	SnippetContextLine = 4          // lines shown around a str_replace edit

	// Shell delegate limits
	MaxShellOutputChars      = 400_000
	DefaultShellTimeout      = 300 // seconds
	DefaultShellHistory      = 100
	DefaultRateLimitRequests = 60
	DefaultRateLimitPeriod   = 60 // seconds

	// Image delegate limits
	MaxImageFileSize = 10 * 1024 * 1024
	MaxImageWidth    = 768
	JPEGQuality      = 85

	// Log Levels
	LogLevelDebug = "DEBUG"
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARN"
	LogLevelError = "ERROR"
	LogLevelFatal = "FATAL"
)

// EditorCommands lists the text_editor commands in the order they are documented.
func EditorCommands() []string {
	return []string{CommandView, CommandWrite, CommandStrReplace, CommandUndoEdit}
}
