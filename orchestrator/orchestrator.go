// Package orchestrator drives the script breakdown workflow: extraction,
// per-scene analysis, aggregation, and the human review loop. Each workflow
// is a thread identified by a thread ID; its full state is checkpointed in
// the store after every stage run, so a process restart between a Start and
// a Resume loses nothing.
package orchestrator

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scenesplit/scenesplit/aggregate"
	"github.com/scenesplit/scenesplit/breakdown"
	"github.com/scenesplit/scenesplit/screenplay"
	"github.com/scenesplit/scenesplit/scriptfile"
	"github.com/scenesplit/scenesplit/store"
)

// MinScriptLength is the minimum trimmed script length accepted by Start.
const MinScriptLength = 10

// SceneAnalyzer is the generative surface the orchestrator needs.
// *analyzer.Analyzer satisfies it.
type SceneAnalyzer interface {
	// AnalyzeScenes fills in analysis blocks in place, best effort.
	AnalyzeScenes(ctx context.Context, scenes []breakdown.SceneRecord, guidance string)

	// SectionNotes produces an advisory note for a flagged aggregate
	// section, or "" when the generative path is unavailable.
	SectionNotes(ctx context.Context, state *breakdown.WorkflowState, section breakdown.Section, guidance string) string
}

// Orchestrator runs breakdown workflows against a state store and an
// analyzer.
type Orchestrator struct {
	store    store.Store
	analyzer SceneAnalyzer
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator.
func New(st store.Store, an SceneAnalyzer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    st,
		analyzer: an,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start runs the full pipeline on raw script text and leaves the new thread
// parked at awaiting_review. The returned state is the caller's copy.
func (o *Orchestrator) Start(ctx context.Context, scriptText string) (*breakdown.WorkflowState, error) {
	trimmed := strings.TrimSpace(scriptText)
	if len(trimmed) < MinScriptLength {
		return nil, breakdown.NewValidationError(
			fmt.Sprintf("script text too short: %d characters, minimum %d", len(trimmed), MinScriptLength))
	}

	now := time.Now().UTC()
	state := &breakdown.WorkflowState{
		ThreadID:  newThreadID(),
		Stage:     breakdown.StageExtracting,
		CreatedAt: now,
		UpdatedAt: now,
	}

	o.logger.Info("Workflow started",
		"thread_id", state.ThreadID,
		"script_length", len(trimmed))

	result, err := screenplay.Parse(trimmed)
	if err != nil {
		extractionFailures.Inc()
		return nil, err
	}
	state.Scenes = result.Scenes
	state.Characters = result.Characters
	state.Locations = result.Locations
	state.Props = result.Props

	if err := o.transition(state, breakdown.StageAnalyzing); err != nil {
		return nil, err
	}
	o.analyzer.AnalyzeScenes(ctx, state.Scenes, "")
	countDegraded(state.Scenes)

	if err := o.transition(state, breakdown.StageAggregating); err != nil {
		return nil, err
	}
	state.Schedule, state.Budget, state.Crew = aggregate.Compute(state.Scenes)

	if err := o.transition(state, breakdown.StageAwaitingReview); err != nil {
		return nil, err
	}

	if err := o.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("persist workflow %s: %w", state.ThreadID, err)
	}
	workflowsStarted.Inc()

	o.logger.Info("Workflow awaiting review",
		"thread_id", state.ThreadID,
		"scenes", len(state.Scenes))
	return state, nil
}

// StartFromFile extracts text from a script file and runs Start on it.
func (o *Orchestrator) StartFromFile(ctx context.Context, path string) (*breakdown.WorkflowState, error) {
	text, err := scriptfile.ExtractText(path)
	if err != nil {
		return nil, err
	}
	return o.Start(ctx, text)
}

// Resume applies a review packet to a parked thread. An empty packet means
// approval: both completion flags are set and the thread goes to complete.
// A packet with revision flags runs the revision cycle and parks the thread
// at awaiting_review again. Resuming a complete thread is a no-op returning
// the final state.
func (o *Orchestrator) Resume(ctx context.Context, threadID string, packet *breakdown.FeedbackPacket) (*breakdown.WorkflowState, error) {
	if packet == nil {
		packet = &breakdown.FeedbackPacket{}
	}
	if err := packet.Validate(); err != nil {
		return nil, err
	}

	var result *breakdown.WorkflowState
	err := o.store.WithLock(ctx, threadID, func(state *breakdown.WorkflowState) error {
		if state.Stage == breakdown.StageComplete {
			result = state.DeepCopy()
			return nil
		}

		if !packet.HasRevisions() {
			state.HumanReviewComplete = true
			state.TaskComplete = true
			if err := o.transition(state, breakdown.StageComplete); err != nil {
				return err
			}
			workflowsCompleted.Inc()
			o.logger.Info("Workflow approved", "thread_id", threadID)
			result = state.DeepCopy()
			return nil
		}

		if err := o.runRevisionCycle(ctx, state, packet); err != nil {
			return err
		}
		result = state.DeepCopy()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetState returns a read-only copy of the thread state.
func (o *Orchestrator) GetState(ctx context.Context, threadID string) (*breakdown.WorkflowState, error) {
	return o.store.Get(ctx, threadID)
}

// transition moves the workflow to the next stage, enforcing the legal
// transition table. A refused transition is a bug or a resume against a
// thread that is not parked at awaiting_review.
func (o *Orchestrator) transition(state *breakdown.WorkflowState, to breakdown.Stage) error {
	if !state.Stage.CanTransitionTo(to) {
		return fmt.Errorf("illegal stage transition %s -> %s for thread %s", state.Stage, to, state.ThreadID)
	}
	state.Stage = to
	state.UpdatedAt = time.Now().UTC()
	return nil
}

// newThreadID generates a short script thread identifier.
func newThreadID() string {
	id := uuid.New()
	return "script_" + hex.EncodeToString(id[:4])
}

// countDegraded bumps the degraded-scene counter for fallback analyses.
func countDegraded(scenes []breakdown.SceneRecord) {
	for _, scene := range scenes {
		if scene.Analysis != nil && scene.Analysis.Degraded {
			degradedScenes.Inc()
		}
	}
}
