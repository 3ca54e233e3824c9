/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/PivotLLM/DevTools/dispatch"
)

// readOnlyTool creates a tool with read-only annotations
// ReadOnly: true, Destructive: false, OpenWorld: false
func (s *Server) readOnlyTool(t dispatch.Tool) mcp.Tool {
	tool := mcp.NewToolWithRawSchema(t.Name, t.Description, t.Schema)
	tool.Annotations = mcp.ToolAnnotation{
		ReadOnlyHint:    mcp.ToBoolPtr(true),
		DestructiveHint: mcp.ToBoolPtr(false),
		OpenWorldHint:   mcp.ToBoolPtr(false),
	}
	return tool
}

// defaultTool creates a tool with default annotations (non-destructive)
// ReadOnly: false, Destructive: false, OpenWorld: false
func (s *Server) defaultTool(t dispatch.Tool) mcp.Tool {
	tool := mcp.NewToolWithRawSchema(t.Name, t.Description, t.Schema)
	tool.Annotations = mcp.ToolAnnotation{
		ReadOnlyHint:    mcp.ToBoolPtr(false),
		DestructiveHint: mcp.ToBoolPtr(false),
		OpenWorldHint:   mcp.ToBoolPtr(false),
	}
	return tool
}

// destructiveTool creates a tool with destructive annotations
// ReadOnly: false, Destructive: true (unless markNonDestructive config is set), OpenWorld: false
func (s *Server) destructiveTool(t dispatch.Tool) mcp.Tool {
	tool := mcp.NewToolWithRawSchema(t.Name, t.Description, t.Schema)
	tool.Annotations = mcp.ToolAnnotation{
		ReadOnlyHint:    mcp.ToBoolPtr(false),
		DestructiveHint: mcp.ToBoolPtr(!s.markNonDestructive),
		OpenWorldHint:   mcp.ToBoolPtr(false),
	}
	return tool
}

// mcpTool builds the protocol definition of t with annotations matching its access
func (s *Server) mcpTool(t dispatch.Tool) mcp.Tool {
	switch t.Access {
	case dispatch.AccessReadOnly:
		return s.readOnlyTool(t)
	case dispatch.AccessDestructive:
		return s.destructiveTool(t)
	}
	return s.defaultTool(t)
}

// toolHandler forwards a call to the dispatcher, which never fails the request itself
func (s *Server) toolHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.dispatcher.Invoke(ctx, name, request.GetArguments()), nil
	}
}

// registerTools registers every dispatcher tool with the MCP server
func (s *Server) registerTools() {
	for _, t := range s.dispatcher.Tools() {
		s.mcpServer.AddTool(s.mcpTool(t), s.toolHandler(t.Name))
		s.logger.Debugf("Registered tool %s (%s)", t.Name, t.Access)
	}
}
