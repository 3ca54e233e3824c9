/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

// Package schema validates tool arguments against per-tool JSON schema
// contracts and converts them into typed argument values.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/PivotLLM/DevTools/global"
	"github.com/xeipuuv/gojsonschema"
)

// Error types reported by gojsonschema for composite keywords. The nested
// errors carry the useful detail, so these are dropped.
var compositeErrors = map[string]bool{
	"condition_then": true,
	"condition_else": true,
	"number_all_of":  true,
	"number_any_of":  true,
	"number_one_of":  true,
}

// Validator holds the compiled contracts. It is stateless after construction
// and safe for concurrent use.
type Validator struct {
	contracts map[string]Contract
	schemas   map[string]*gojsonschema.Schema
	order     []string
}

// New compiles every contract
func New() (*Validator, error) {
	v := &Validator{
		contracts: make(map[string]Contract),
		schemas:   make(map[string]*gojsonschema.Schema),
	}
	for _, c := range Contracts() {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(c.Schema))
		if err != nil {
			return nil, fmt.Errorf("invalid schema for tool %s: %w", c.Name, err)
		}
		v.contracts[c.Name] = c
		v.schemas[c.Name] = compiled
		v.order = append(v.order, c.Name)
	}
	return v, nil
}

// Tools returns the names of all tools with a contract, in registration order
func (v *Validator) Tools() []string {
	return append([]string(nil), v.order...)
}

// Contract returns the contract for tool
func (v *Validator) Contract(tool string) (Contract, bool) {
	c, ok := v.contracts[tool]
	return c, ok
}

// RawSchema returns the schema for tool as raw JSON
func (v *Validator) RawSchema(tool string) (json.RawMessage, bool) {
	c, ok := v.contracts[tool]
	if !ok {
		return nil, false
	}
	return json.RawMessage(c.Schema), true
}

// Check validates args against the contract for tool and returns every problem found
func (v *Validator) Check(tool string, args map[string]any) error {
	return v.check(tool, args, nil)
}

func (v *Validator) check(tool string, args map[string]any, extra []problem) error {
	compiled, ok := v.schemas[tool]
	if !ok {
		return global.Errorf(global.KindNotFound, "unknown tool '%s'", tool)
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &global.ToolError{
			Kind:    global.KindSchemaValidation,
			Message: fmt.Sprintf("arguments for %s could not be read", tool),
			Err:     err,
		}
	}

	var problems []problem
	if !result.Valid() {
		for _, desc := range result.Errors() {
			if compositeErrors[desc.Type()] {
				continue
			}
			problems = append(problems, problem{field: fieldOf(desc), message: formatValidationError(desc.String())})
		}
	}
	problems = append(problems, extra...)
	if len(problems) == 0 {
		return nil
	}

	sort.SliceStable(problems, func(i, j int) bool { return problems[i].field < problems[j].field })
	te := &global.ToolError{
		Kind:    global.KindSchemaValidation,
		Field:   problems[0].field,
		Message: fmt.Sprintf("invalid arguments for %s", tool),
	}
	seen := make(map[string]bool)
	for _, p := range problems {
		if seen[p.message] {
			continue
		}
		seen[p.message] = true
		te.Problems = append(te.Problems, p.message)
	}
	return te
}

type problem struct {
	field   string
	message string
}

// fieldOf names the offending argument of a schema error
func fieldOf(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			return prop
		}
	}
	field := desc.Field()
	if field == "(root)" {
		return ""
	}
	return strings.TrimPrefix(field, "(root).")
}

// formatValidationError converts technical validation errors to readable messages
func formatValidationError(rawError string) string {
	// "(root): path is required" -> "Missing required field: path"
	if strings.Contains(rawError, "is required") {
		parts := strings.SplitN(rawError, ": ", 2)
		if len(parts) == 2 {
			fieldName := strings.TrimSuffix(parts[1], " is required")
			return fmt.Sprintf("Missing required field: %s", fieldName)
		}
	}

	// "step_number: Invalid type. Expected: integer, given: string"
	if strings.Contains(rawError, "Invalid type") {
		parts := strings.SplitN(rawError, ": Invalid type. ", 2)
		if len(parts) == 2 {
			typeInfo := strings.ReplaceAll(parts[1], "Expected: ", "expected ")
			typeInfo = strings.ReplaceAll(typeInfo, ", given: ", ", got ")
			return fmt.Sprintf("Field '%s': %s", parts[0], typeInfo)
		}
	}

	// "command: command must be one of the following: ..."
	if strings.Contains(rawError, "must be one of the following") {
		parts := strings.SplitN(rawError, ": ", 2)
		if len(parts) == 2 {
			return fmt.Sprintf("Field '%s': %s", parts[0], parts[1])
		}
	}

	if strings.HasPrefix(rawError, "(root): ") {
		return strings.TrimPrefix(rawError, "(root): ")
	}
	if strings.HasPrefix(rawError, "(root).") {
		return strings.TrimPrefix(rawError, "(root).")
	}
	return rawError
}

// decode copies validated args into a typed struct
func decode(args map[string]any, out any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return global.AsToolError(err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &global.ToolError{Kind: global.KindSchemaValidation, Message: "arguments do not match the contract", Err: err}
	}
	return nil
}
