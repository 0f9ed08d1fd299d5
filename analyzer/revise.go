package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scenesplit/scenesplit/breakdown"
	"github.com/scenesplit/scenesplit/llm"
	"github.com/scenesplit/scenesplit/model"
)

// sectionNotesMaxTokens caps a section advisory note response.
const sectionNotesMaxTokens = 512

// SectionNotes asks the model for a short advisory note responding to
// reviewer feedback on a schedule, budget, or crew section. The section's
// numbers are recomputed deterministically elsewhere; the note is the only
// generative part. A failed or empty completion degrades to no note.
func (a *Analyzer) SectionNotes(ctx context.Context, state *breakdown.WorkflowState, section breakdown.Section, guidance string) string {
	current, err := marshalSection(state, section)
	if err != nil {
		a.logger.Warn("Section notes skipped",
			"section", section,
			"error", err)
		return ""
	}

	temperature := 0.3
	resp, err := a.completer.Complete(ctx, llm.Request{
		Capability: string(model.CapabilityRevision),
		Messages: []llm.Message{
			{Role: "system", Content: SectionNotesSystemPrompt()},
			{Role: "user", Content: SectionNotesPrompt(section, guidance, current)},
		},
		Temperature: &temperature,
		MaxTokens:   sectionNotesMaxTokens,
	})
	if err != nil {
		a.logger.Warn("Section notes completion failed",
			"section", section,
			"error", err)
		return ""
	}

	return strings.TrimSpace(resp.Content)
}

// marshalSection serializes the current content of a revisable aggregate
// section for inclusion in the prompt.
func marshalSection(state *breakdown.WorkflowState, section breakdown.Section) ([]byte, error) {
	switch section {
	case breakdown.SectionSchedule:
		return json.Marshal(state.Schedule)
	case breakdown.SectionBudget:
		return json.Marshal(state.Budget)
	case breakdown.SectionCrew:
		return json.Marshal(state.Crew)
	default:
		return nil, breakdown.NewValidationError(fmt.Sprintf("section %s is not an aggregate section", section))
	}
}
