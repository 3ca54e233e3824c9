/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package workflow

import "time"

// Step is one accepted workflow step. Steps are never modified after they are recorded.
type Step struct {
	Sequence         int       `json:"sequence"` // 1-based position in the log
	StepNumber       int       `json:"step_number"`
	Description      string    `json:"step_description"`
	TotalStepsAtTime int       `json:"total_steps"`
	NextStepNeeded   bool      `json:"next_step_needed"`
	IsRevision       bool      `json:"is_step_revision,omitempty"`
	RevisesStep      *int      `json:"revises_step,omitempty"`
	BranchFromStep   *int      `json:"branch_from_step,omitempty"`
	BranchID         string    `json:"branch_id,omitempty"`
	NeedsMoreSteps   *bool     `json:"needs_more_steps,omitempty"`
	RecordedAt       time.Time `json:"recorded_at"`
}

// Summary is returned after every accepted step
type Summary struct {
	StepNumber          int      `json:"step_number"`
	TotalSteps          int      `json:"total_steps"`
	NextStepNeeded      bool     `json:"next_step_needed"`
	LastStepDescription string   `json:"last_step_description"`
	CurrentBranch       *string  `json:"current_branch"`
	Branches            []string `json:"branches"`
	StepHistoryLength   int      `json:"step_history_length"`
}

// State is a copy of the tracker state for read-only views
type State struct {
	SessionID     string   `json:"session_id"`
	Steps         []Step   `json:"steps"`
	Branches      []string `json:"branches"`
	CurrentBranch string   `json:"current_branch,omitempty"`
	TotalSteps    int      `json:"total_steps"`
}
