package analyzer

import (
	"fmt"
	"strings"

	"github.com/scenesplit/scenesplit/breakdown"
)

// SystemPrompt returns the system prompt for per-scene production analysis.
func SystemPrompt() string {
	return `You are a line producer analyzing screenplay scenes for production planning.

## Your Objective

For the scene you are given, assess its narrative role and what it will take
to shoot it: dramatic weight, shooting complexity, crew size, and cost band.

## Assessment Criteria

- dramatic_weight: how much the scene carries the story.
  "low" = connective tissue, "medium" = advances plot or character,
  "high" = major turning point, "critical" = the scenes the film cannot
  work without.
- complexity: how demanding the scene is to shoot.
  "simple" = two people in a room, "standard" = typical coverage,
  "complex" = moving vehicles, crowds, or difficult locations,
  "heavy" = stunts, effects work, or large night exteriors.
- crew_size: total people on set for the day, including department heads.
- cost_category: "low", "medium", "high", or "premium" relative to the
  other scenes of an independent feature.

## Output Format

Respond with JSON only:

` + "```json" + `
{
  "synopsis": "One or two sentences describing what happens",
  "narrative_purpose": "Why this scene exists in the story",
  "dramatic_weight": "low" | "medium" | "high" | "critical",
  "complexity": "simple" | "standard" | "complex" | "heavy",
  "crew_size": 25,
  "cost_category": "low" | "medium" | "high" | "premium"
}
` + "```" + `

No prose outside the JSON object.
`
}

// ScenePrompt returns the user prompt for analyzing one scene. Guidance, when
// present, carries reviewer feedback from a revision pass.
func ScenePrompt(scene breakdown.SceneRecord, guidance string) string {
	var sb strings.Builder

	sb.WriteString("Analyze the following scene.\n\n")
	fmt.Fprintf(&sb, "**Scene %d:** %s\n", scene.Number, scene.Heading)
	fmt.Fprintf(&sb, "**Type:** %s, **Time:** %s\n", scene.SceneType, scene.TimeOfDay)
	fmt.Fprintf(&sb, "**Location:** %s\n", scene.Location)
	fmt.Fprintf(&sb, "**Page count:** %.1f\n", scene.PageCount)

	if len(scene.Characters) > 0 {
		fmt.Fprintf(&sb, "**Characters:** %s\n", strings.Join(scene.Characters, ", "))
	}
	if len(scene.Props) > 0 {
		fmt.Fprintf(&sb, "**Props:** %s\n", strings.Join(scene.Props, ", "))
	}

	if guidance != "" {
		sb.WriteString("\n## Reviewer Feedback\n\n")
		sb.WriteString("A human reviewer flagged the previous analysis. Address this feedback:\n\n")
		sb.WriteString(guidance)
		sb.WriteString("\n")
	}

	return sb.String()
}

// SectionNotesSystemPrompt returns the system prompt for producing advisory
// notes on a flagged schedule, budget, or crew section.
func SectionNotesSystemPrompt() string {
	return `You are a line producer advising on a production breakdown under review.

A human reviewer flagged one section of the breakdown. The numbers in that
section are recomputed deterministically from the scene data and cannot be
edited directly; your job is to write a short advisory note that responds to
the reviewer's feedback and explains how to read or adjust the section.

Respond with the note as plain text, three sentences at most. No JSON, no
markdown headers.
`
}

// SectionNotesPrompt returns the user prompt for section advisory notes.
func SectionNotesPrompt(section breakdown.Section, guidance string, current []byte) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "The reviewer flagged the **%s** section.\n\n", section)
	sb.WriteString("## Reviewer Feedback\n\n")
	sb.WriteString(guidance)
	sb.WriteString("\n\n## Current Section Content\n\n```json\n")
	sb.Write(current)
	sb.WriteString("\n```\n")

	return sb.String()
}

// formatCorrectionPrompt builds the retry prompt sent when a scene analysis
// response fails schema validation.
func formatCorrectionPrompt(err error) string {
	return fmt.Sprintf(
		"Your response could not be used. Error: %s\n\n"+
			"Respond with ONLY a valid JSON object matching this structure:\n"+
			"```json\n"+
			"{\n"+
			"  \"synopsis\": \"One or two sentences\",\n"+
			"  \"narrative_purpose\": \"Why the scene exists\",\n"+
			"  \"dramatic_weight\": \"low\" or \"medium\" or \"high\" or \"critical\",\n"+
			"  \"complexity\": \"simple\" or \"standard\" or \"complex\" or \"heavy\",\n"+
			"  \"crew_size\": 25,\n"+
			"  \"cost_category\": \"low\" or \"medium\" or \"high\" or \"premium\"\n"+
			"}\n"+
			"```",
		err,
	)
}
