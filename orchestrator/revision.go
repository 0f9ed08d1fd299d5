package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/scenesplit/scenesplit/aggregate"
	"github.com/scenesplit/scenesplit/breakdown"
	"github.com/scenesplit/scenesplit/screenplay"
)

// sceneRefRe finds explicit scene references in feedback text, e.g.
// "scene 2", "scene #3", "scenes 4 and 7".
var sceneRefRe = regexp.MustCompile(`(?i)scenes?\s*#?\s*(\d+)(?:\s*(?:,|and)\s*#?\s*(\d+))*`)

// sceneNumRe picks the individual numbers out of a matched reference.
var sceneNumRe = regexp.MustCompile(`\d+`)

// runRevisionCycle applies a feedback packet with at least one revision flag:
// revising -> scene re-analysis for the flagged scene-scoped sections ->
// aggregating -> recompute of all three aggregate views -> awaiting_review.
func (o *Orchestrator) runRevisionCycle(ctx context.Context, state *breakdown.WorkflowState, packet *breakdown.FeedbackPacket) error {
	if err := o.transition(state, breakdown.StageRevising); err != nil {
		return err
	}

	sections := packet.RequestedSections()
	o.logger.Info("Revision cycle started",
		"thread_id", state.ThreadID,
		"sections", sectionNames(sections),
		"revision", state.RevisionCount+1)

	if scope, guidance := sceneRevisionPlan(state, packet); len(scope) > 0 {
		o.reanalyzeScenes(ctx, state, scope, guidance)
		state.Characters = screenplay.Characters(state.Scenes)
		state.Locations = screenplay.Locations(state.Scenes)
		state.Props = screenplay.Props(state.Scenes)
	}

	if err := o.transition(state, breakdown.StageAggregating); err != nil {
		return err
	}

	// All three aggregate views are recomputed together even when only one
	// was flagged; they are functions of the same scene set and must never
	// drift apart.
	revision := state.RevisionCount + 1
	state.Schedule, state.Budget, state.Crew = aggregate.Compute(state.Scenes)
	state.Schedule.Revision = revision
	state.Budget.Revision = revision
	state.Crew.Revision = revision

	for _, section := range sections {
		if section.IsSceneScoped() {
			continue
		}
		notes := o.analyzer.SectionNotes(ctx, state, section, packet.GuidanceFor(section))
		switch section {
		case breakdown.SectionSchedule:
			state.Schedule.Notes = notes
		case breakdown.SectionBudget:
			state.Budget.Notes = notes
		case breakdown.SectionCrew:
			state.Crew.Notes = notes
		}
	}

	state.RevisionCount = revision
	state.HumanReviewComplete = false
	state.TaskComplete = false
	revisionCycles.Inc()

	return o.transition(state, breakdown.StageAwaitingReview)
}

// sceneRevisionPlan maps the packet's scene-scoped sections to the set of
// scene numbers to re-analyze, plus the combined guidance text. Feedback is
// passed through as guidance and never parsed for content beyond explicit
// scene references.
func sceneRevisionPlan(state *breakdown.WorkflowState, packet *breakdown.FeedbackPacket) (map[int]bool, string) {
	scope := make(map[int]bool)
	var guidance []string

	for _, section := range packet.RequestedSections() {
		if !section.IsSceneScoped() {
			continue
		}
		text := packet.GuidanceFor(section)
		for _, n := range scopedScenes(state, section, text) {
			scope[n] = true
		}
		if text != "" {
			guidance = append(guidance, fmt.Sprintf("%s: %s", section, text))
		}
	}
	return scope, strings.Join(guidance, "\n")
}

// scopedScenes resolves one scene-scoped section to scene numbers. Explicit
// references in the feedback win; otherwise the section's entity kind picks
// the scenes that carry it, and the scenes section means everything.
func scopedScenes(state *breakdown.WorkflowState, section breakdown.Section, feedback string) []int {
	if refs := referencedScenes(state, feedback); len(refs) > 0 {
		return refs
	}

	var numbers []int
	for _, scene := range state.Scenes {
		switch section {
		case breakdown.SectionScenes:
			numbers = append(numbers, scene.Number)
		case breakdown.SectionCharacters:
			if len(scene.Characters) > 0 {
				numbers = append(numbers, scene.Number)
			}
		case breakdown.SectionLocations:
			numbers = append(numbers, scene.Number)
		case breakdown.SectionProps:
			if len(scene.Props) > 0 {
				numbers = append(numbers, scene.Number)
			}
		}
	}
	return numbers
}

// referencedScenes extracts valid scene numbers mentioned in feedback text.
func referencedScenes(state *breakdown.WorkflowState, feedback string) []int {
	valid := make(map[int]bool, len(state.Scenes))
	for _, scene := range state.Scenes {
		valid[scene.Number] = true
	}

	seen := make(map[int]bool)
	var numbers []int
	for _, match := range sceneRefRe.FindAllString(feedback, -1) {
		for _, digits := range sceneNumRe.FindAllString(match, -1) {
			n, err := strconv.Atoi(digits)
			if err != nil || !valid[n] || seen[n] {
				continue
			}
			seen[n] = true
			numbers = append(numbers, n)
		}
	}
	return numbers
}

// reanalyzeScenes re-runs analysis for the scoped scenes and merges only the
// new analysis blocks back; headings, entities, and page counts are parser
// output and stay fixed.
func (o *Orchestrator) reanalyzeScenes(ctx context.Context, state *breakdown.WorkflowState, scope map[int]bool, guidance string) {
	var targets []breakdown.SceneRecord
	for _, scene := range state.Scenes {
		if scope[scene.Number] {
			targets = append(targets, scene)
		}
	}
	if len(targets) == 0 {
		return
	}

	o.analyzer.AnalyzeScenes(ctx, targets, guidance)
	countDegraded(targets)

	byNumber := make(map[int]breakdown.SceneRecord, len(targets))
	for _, t := range targets {
		byNumber[t.Number] = t
	}
	for i := range state.Scenes {
		if t, ok := byNumber[state.Scenes[i].Number]; ok {
			state.Scenes[i].Analysis = t.Analysis
			if t.Synopsis != "" {
				state.Scenes[i].Synopsis = t.Synopsis
			}
		}
	}
}

func sectionNames(sections []breakdown.Section) []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = string(s)
	}
	return names
}
