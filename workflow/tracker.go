/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

// Package workflow implements the append-only step log behind the workflow tool.
package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/PivotLLM/DevTools/global"
	"github.com/PivotLLM/DevTools/logging"
	"github.com/PivotLLM/DevTools/schema"
)

// Recorder persists accepted steps outside the process. Journal implements it.
type Recorder interface {
	Append(sessionID string, step Step) error
}

// Tracker owns one workflow log. It is not safe for concurrent use; the
// dispatcher serializes every call behind a single lock.
type Tracker struct {
	sessionID     string
	allowBranches bool
	maxSteps      int // 0 means unlimited
	logSteps      bool
	logger        *logging.Logger
	recorder      Recorder
	now           func() time.Time

	steps         []Step
	stepNumbers   map[int]struct{}
	branches      []string
	branchSet     map[string]struct{}
	currentBranch string
	totalSteps    int
}

// Option is a functional option for configuring Tracker
type Option func(*Tracker)

// WithAllowBranches enables or disables branching
func WithAllowBranches(allow bool) Option {
	return func(t *Tracker) {
		t.allowBranches = allow
	}
}

// WithMaxSteps rejects steps numbered above max. Zero disables the limit.
func WithMaxSteps(max int) Option {
	return func(t *Tracker) {
		if max > 0 {
			t.maxSteps = max
		}
	}
}

// WithLogSteps logs every step at INFO
func WithLogSteps(enabled bool) Option {
	return func(t *Tracker) {
		t.logSteps = enabled
	}
}

// WithLogger sets the logger for the tracker
func WithLogger(logger *logging.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithRecorder persists each accepted step before it is appended
func WithRecorder(r Recorder) Option {
	return func(t *Tracker) {
		t.recorder = r
	}
}

// WithSessionID overrides the generated session id
func WithSessionID(id string) Option {
	return func(t *Tracker) {
		t.sessionID = id
	}
}

// NewTracker creates an empty tracker with a fresh session id
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		sessionID:     uuid.New().String(),
		allowBranches: true,
		logSteps:      true,
		now:           time.Now,
		stepNumbers:   make(map[int]struct{}),
		branchSet:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logging.Discard()
	}
	return t
}

// SessionID identifies this tracker in logs and the journal
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// Record validates args against the log and appends the step. A rejected step
// leaves the log untouched.
func (t *Tracker) Record(args schema.WorkflowArgs) (*Summary, error) {
	if err := t.validate(args); err != nil {
		if t.logSteps {
			t.logger.Warnf("Workflow step %d rejected: %v", args.StepNumber, err)
		}
		return nil, err
	}

	total := t.totalSteps
	if args.StepNumber > total {
		total = args.StepNumber
	}
	if args.TotalSteps > total {
		total = args.TotalSteps
	}
	if t.logSteps && args.StepNumber > args.TotalSteps {
		t.logger.Infof("Workflow total_steps raised from %d to %d for step %d", args.TotalSteps, total, args.StepNumber)
	}

	step := Step{
		Sequence:         len(t.steps) + 1,
		StepNumber:       args.StepNumber,
		Description:      args.StepDescription,
		TotalStepsAtTime: total,
		NextStepNeeded:   args.NextStepNeeded,
		IsRevision:       args.IsStepRevision != nil && *args.IsStepRevision,
		RevisesStep:      args.RevisesStep,
		BranchFromStep:   args.BranchFromStep,
		BranchID:         args.BranchID,
		NeedsMoreSteps:   args.NeedsMoreSteps,
		RecordedAt:       t.now().UTC(),
	}

	if t.recorder != nil {
		if err := t.recorder.Append(t.sessionID, step); err != nil {
			return nil, &global.ToolError{
				Kind:    global.KindIOError,
				Message: "failed to journal workflow step",
				Err:     err,
			}
		}
	}

	t.steps = append(t.steps, step)
	t.stepNumbers[step.StepNumber] = struct{}{}
	t.totalSteps = total
	if step.BranchID != "" {
		if _, ok := t.branchSet[step.BranchID]; !ok {
			t.branchSet[step.BranchID] = struct{}{}
			t.branches = append(t.branches, step.BranchID)
		}
		t.currentBranch = step.BranchID
	}

	if t.logSteps {
		t.logger.Infof("Workflow step %d/%d recorded (branch=%q revision=%v next=%v): %s",
			step.StepNumber, total, step.BranchID, step.IsRevision, step.NextStepNeeded, step.Description)
	}

	return t.summary(step), nil
}

// validate applies the reference checks first, then the argument checks
func (t *Tracker) validate(args schema.WorkflowArgs) error {
	isRevision := args.IsStepRevision != nil && *args.IsStepRevision

	if isRevision {
		if args.RevisesStep == nil {
			return global.NewError(global.KindInvalidWorkflowReference,
				"is_step_revision is set but revises_step does not name a recorded step").WithField("revises_step")
		}
		if !t.hasStep(*args.RevisesStep) {
			return global.Errorf(global.KindInvalidWorkflowReference,
				"revises_step %d does not exist in step history", *args.RevisesStep).WithField("revises_step")
		}
	}

	if args.BranchFromStep != nil {
		if !t.hasStep(*args.BranchFromStep) {
			return global.Errorf(global.KindInvalidWorkflowReference,
				"branch_from_step %d does not exist in step history", *args.BranchFromStep).WithField("branch_from_step")
		}
		if args.BranchID == "" {
			return global.NewError(global.KindInvalidWorkflowReference,
				"branch_from_step requires a non-empty branch_id").WithField("branch_id")
		}
	}

	if args.StepNumber < 1 {
		return global.Errorf(global.KindInvalidArgument, "step_number must be at least 1, got %d", args.StepNumber).
			WithField("step_number")
	}

	if args.RevisesStep != nil && !isRevision {
		return global.NewError(global.KindInvalidArgument,
			"when specifying revises_step, is_step_revision must be set to true").WithField("is_step_revision")
	}

	if args.BranchID != "" && args.BranchFromStep == nil {
		if _, ok := t.branchSet[args.BranchID]; !ok {
			return global.Errorf(global.KindInvalidWorkflowReference,
				"branch '%s' does not exist, specify branch_from_step to create it", args.BranchID).WithField("branch_id")
		}
	}

	if args.BranchID != "" && !t.allowBranches {
		return global.NewError(global.KindInvalidArgument, "branching is disabled in the current configuration").
			WithField("branch_id")
	}

	if t.maxSteps > 0 && args.StepNumber > t.maxSteps {
		return global.Errorf(global.KindInvalidArgument,
			"step number %d exceeds configured maximum of %d", args.StepNumber, t.maxSteps).WithField("step_number")
	}

	return nil
}

func (t *Tracker) hasStep(n int) bool {
	_, ok := t.stepNumbers[n]
	return ok
}

func (t *Tracker) summary(last Step) *Summary {
	s := &Summary{
		StepNumber:          last.StepNumber,
		TotalSteps:          t.totalSteps,
		NextStepNeeded:      last.NextStepNeeded,
		LastStepDescription: last.Description,
		Branches:            append([]string{}, t.branches...),
		StepHistoryLength:   len(t.steps),
	}
	if t.currentBranch != "" {
		current := t.currentBranch
		s.CurrentBranch = &current
	}
	return s
}

// Len returns the number of recorded steps
func (t *Tracker) Len() int {
	return len(t.steps)
}

// Snapshot returns a copy of the state. Recorded steps are immutable and may share pointers.
func (t *Tracker) Snapshot() State {
	return State{
		SessionID:     t.sessionID,
		Steps:         append([]Step{}, t.steps...),
		Branches:      append([]string{}, t.branches...),
		CurrentBranch: t.currentBranch,
		TotalSteps:    t.totalSteps,
	}
}
