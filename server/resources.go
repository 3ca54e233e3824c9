/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/PivotLLM/DevTools/dispatch"
	"github.com/PivotLLM/DevTools/global"
)

// workspaceInfo is the content of the workspace resource
type workspaceInfo struct {
	Description    string                `json:"description"`
	WorkingDir     string                `json:"working_dir"`
	IgnorePatterns []string              `json:"ignore_patterns"`
	MaxHistory     int                   `json:"max_history"`
	EditedFiles    []dispatch.EditedFile `json:"edited_files"`
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		global.ResourceWorkspace,
		"workspace",
		mcp.WithResourceDescription("Working directory, ignore patterns and files edited in this session"),
		mcp.WithMIMEType("application/json"),
	), s.handleWorkspace)

	s.mcpServer.AddResource(mcp.NewResource(
		global.ResourceShellHistory,
		"shell-history",
		mcp.WithResourceDescription("Most recent shell commands with exit status and duration"),
		mcp.WithMIMEType("application/json"),
	), s.handleShellHistory)

	s.mcpServer.AddResource(mcp.NewResource(
		global.ResourceWorkflow,
		"workflow-state",
		mcp.WithResourceDescription("Every recorded workflow step, the branches and the current branch"),
		mcp.WithMIMEType("application/json"),
	), s.handleWorkflowState)
}

func (s *Server) handleWorkspace(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	patterns := s.policy.Patterns()
	if patterns == nil {
		patterns = []string{}
	}
	return jsonResource(req.Params.URI, workspaceInfo{
		Description:    "Developer workspace with text editing, shell, and screen capture tools",
		WorkingDir:     s.workDir,
		IgnorePatterns: patterns,
		MaxHistory:     s.dispatcher.MaxHistory(),
		EditedFiles:    s.dispatcher.EditedFiles(),
	})
}

func (s *Server) handleShellHistory(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, s.dispatcher.ShellHistory())
}

func (s *Server) handleWorkflowState(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, s.dispatcher.WorkflowState())
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
