/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package dispatch

import (
	"context"
	"encoding/json"

	"github.com/PivotLLM/DevTools/imaging"
)

// Access describes what a tool may do to the machine it runs on
type Access int

const (
	AccessReadOnly Access = iota
	AccessDefault
	AccessDestructive
)

func (a Access) String() string {
	switch a {
	case AccessReadOnly:
		return "read-only"
	case AccessDestructive:
		return "destructive"
	}
	return "default"
}

// Output is the successful result of a tool call. Text is always set; Data is
// set for tools with a structured result and Images for tools that return pictures.
type Output struct {
	Text   string
	Data   any
	Images []*imaging.Image
}

// Handler executes one validated tool call
type Handler func(ctx context.Context, args map[string]any) (*Output, error)

// Tool is a registered tool
type Tool struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Access      Access
	handler     Handler
}
