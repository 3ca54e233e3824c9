/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/PivotLLM/DevTools/global"
)

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(global.PromptDeveloperWorkflow,
		mcp.WithPromptDescription("A prompt for common developer workflows"),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("The development task to perform"),
			mcp.RequiredArgument(),
		),
	), s.handleDeveloperWorkflow)
}

func (s *Server) handleDeveloperWorkflow(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := strings.TrimSpace(req.Params.Arguments["task"])
	if task == "" {
		return nil, fmt.Errorf("no task provided to %s", global.PromptDeveloperWorkflow)
	}

	return &mcp.GetPromptResult{
		Description: "Developer workflow",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"You are a developer assistant. Help with this task: '%s'. "+
						"You have access to text editing, shell commands, and screen capture tools. "+
						"Use the %s tool to plan the work step by step, revising or branching when the plan changes.",
					task, global.ToolWorkflow,
				)),
			},
		},
	}, nil
}
