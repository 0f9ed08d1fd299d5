// Package breakdown defines the production breakdown data model shared by the
// extractor, analyzer, aggregator, and orchestrator: workflow state, scene
// records, the stage machine, and the feedback contract for human review.
package breakdown

import (
	"time"
)

// Stage represents the current step of the analysis workflow state machine.
type Stage string

const (
	// StageExtracting indicates scene extraction from raw script text is in progress.
	StageExtracting Stage = "extracting"
	// StageAnalyzing indicates per-scene generative analysis is in progress.
	StageAnalyzing Stage = "analyzing"
	// StageAggregating indicates cross-scene schedule/budget/crew derivation is in progress.
	StageAggregating Stage = "aggregating"
	// StageAwaitingReview indicates the workflow is suspended pending human feedback.
	StageAwaitingReview Stage = "awaiting_review"
	// StageRevising indicates flagged sections are being re-run after feedback.
	StageRevising Stage = "revising"
	// StageComplete indicates the workflow is finished and absorbing.
	StageComplete Stage = "complete"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// IsValid returns true if the stage is a known workflow stage.
func (s Stage) IsValid() bool {
	switch s {
	case StageExtracting, StageAnalyzing, StageAggregating,
		StageAwaitingReview, StageRevising, StageComplete:
		return true
	default:
		return false
	}
}

// CanTransitionTo returns true if the stage may legally move to the target.
// The pipeline only moves forward or loops through the review cycle; it never
// regresses to extraction once scenes exist, and complete is absorbing.
func (s Stage) CanTransitionTo(target Stage) bool {
	switch s {
	case StageExtracting:
		return target == StageAnalyzing
	case StageAnalyzing:
		return target == StageAggregating
	case StageAggregating:
		return target == StageAwaitingReview
	case StageAwaitingReview:
		return target == StageRevising || target == StageComplete
	case StageRevising:
		return target == StageAggregating
	case StageComplete:
		return false
	default:
		return false
	}
}

// SceneType classifies a scene by its slugline prefix.
type SceneType string

const (
	SceneInterior SceneType = "interior"
	SceneExterior SceneType = "exterior"
	// SceneIntExt covers combined INT./EXT. sluglines (car scenes, doorways).
	SceneIntExt  SceneType = "int_ext"
	SceneInsert  SceneType = "insert"
	SceneMontage SceneType = "montage"
)

// TimeOfDay is the shooting time designation from the slugline.
type TimeOfDay string

const (
	TimeDay        TimeOfDay = "day"
	TimeNight      TimeOfDay = "night"
	TimeDawn       TimeOfDay = "dawn"
	TimeDusk       TimeOfDay = "dusk"
	TimeContinuous TimeOfDay = "continuous"
	// TimeUnspecified is used when the slugline carries no time designation.
	TimeUnspecified TimeOfDay = "unspecified"
)

// DramaticWeight rates how much a scene carries the story.
type DramaticWeight string

const (
	WeightLow      DramaticWeight = "low"
	WeightMedium   DramaticWeight = "medium"
	WeightHigh     DramaticWeight = "high"
	WeightCritical DramaticWeight = "critical"
)

// IsValid returns true if the weight is a known rating.
func (w DramaticWeight) IsValid() bool {
	switch w {
	case WeightLow, WeightMedium, WeightHigh, WeightCritical:
		return true
	}
	return false
}

// Complexity rates how demanding a scene is to shoot.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityStandard Complexity = "standard"
	ComplexityComplex  Complexity = "complex"
	// ComplexityHeavy marks stunts, effects, crowds, or night exteriors.
	ComplexityHeavy Complexity = "heavy"
)

// IsValid returns true if the complexity is a known rating.
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexitySimple, ComplexityStandard, ComplexityComplex, ComplexityHeavy:
		return true
	}
	return false
}

// CostCategory bands the estimated cost of shooting a scene.
type CostCategory string

const (
	CostLow     CostCategory = "low"
	CostMedium  CostCategory = "medium"
	CostHigh    CostCategory = "high"
	CostPremium CostCategory = "premium"
)

// IsValid returns true if the category is a known cost band.
func (c CostCategory) IsValid() bool {
	switch c {
	case CostLow, CostMedium, CostHigh, CostPremium:
		return true
	}
	return false
}

// SceneAnalysis is the generative analysis block for one scene. Degraded is
// set when the block came from the heuristic fallback instead of a validated
// generative response, so reviewers can see which scenes to double-check.
type SceneAnalysis struct {
	NarrativePurpose string         `json:"narrative_purpose"`
	DramaticWeight   DramaticWeight `json:"dramatic_weight"`
	Complexity       Complexity     `json:"complexity"`
	CrewSize         int            `json:"crew_size"`
	CostCategory     CostCategory   `json:"cost_category"`
	Degraded         bool           `json:"degraded,omitempty"`
	DegradedReason   string         `json:"degraded_reason,omitempty"`
}

// SceneRecord is one scene of the breakdown. Number is positional (1-based
// order of appearance) and fixed once extracted; revision never reorders or
// renumbers scenes.
type SceneRecord struct {
	Number     int            `json:"number"`
	Heading    string         `json:"heading"`
	SceneType  SceneType      `json:"scene_type"`
	Location   string         `json:"location"`
	TimeOfDay  TimeOfDay      `json:"time_of_day"`
	Characters []string       `json:"characters"`
	Props      []string       `json:"props"`
	PageCount  float64        `json:"page_count"`
	Synopsis   string         `json:"synopsis,omitempty"`
	Analysis   *SceneAnalysis `json:"analysis,omitempty"`
}

// Entity is a character, location, or prop derived from the scene set, with
// back-references to the 1-based scene numbers mentioning it.
type Entity struct {
	Name      string `json:"name"`
	SceneRefs []int  `json:"scene_refs"`
}

// LocationDay is the shooting plan for all scenes at one location.
type LocationDay struct {
	Location      string  `json:"location"`
	SceneNumbers  []int   `json:"scene_numbers"`
	PageCount     float64 `json:"page_count"`
	EstimatedDays int     `json:"estimated_days"`
}

// Schedule is the location-grouped shooting schedule.
type Schedule struct {
	Locations []LocationDay `json:"locations"`
	TotalDays int           `json:"total_days"`
	Notes     string        `json:"notes,omitempty"`
	Revision  int           `json:"revision"`
}

// BudgetLine is the cost rollup for one cost category band.
type BudgetLine struct {
	Category    CostCategory `json:"category"`
	SceneCount  int          `json:"scene_count"`
	EstimateUSD int          `json:"estimate_usd"`
}

// Budget is the cross-scene budget rollup. When no scene carries an analysis
// block, Lines is empty and OverallCategory holds the coarse fallback.
type Budget struct {
	Lines           []BudgetLine `json:"lines"`
	TotalUSD        int          `json:"total_usd"`
	OverallCategory CostCategory `json:"overall_category"`
	Notes           string       `json:"notes,omitempty"`
	Revision        int          `json:"revision"`
}

// SceneSpecialists lists additional crew a single scene needs beyond core.
type SceneSpecialists struct {
	SceneNumber int      `json:"scene_number"`
	Specialists []string `json:"specialists"`
}

// Crew lists the core crew plus per-scene specialist needs.
type Crew struct {
	Core        []string           `json:"core"`
	PeakSize    int                `json:"peak_size"`
	Specialists []SceneSpecialists `json:"specialists,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	Revision    int                `json:"revision"`
}

// WorkflowState is the full checkpointed state of one analysis thread. It is
// the single source of truth for what stage the thread is in and everything
// produced so far, and is owned exclusively by its thread.
type WorkflowState struct {
	ThreadID string `json:"thread_id"`
	Stage    Stage  `json:"stage"`

	Scenes     []SceneRecord `json:"scenes"`
	Characters []Entity      `json:"characters"`
	Locations  []Entity      `json:"locations"`
	Props      []Entity      `json:"props"`

	Budget   Budget   `json:"budget"`
	Schedule Schedule `json:"schedule"`
	Crew     Crew     `json:"crew"`

	HumanReviewComplete bool `json:"human_review_complete"`
	TaskComplete        bool `json:"task_complete"`
	RevisionCount       int  `json:"revision_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy returns a copy of the state sharing no mutable memory with the
// original. The store hands out copies so callers never alias stored state.
func (s *WorkflowState) DeepCopy() *WorkflowState {
	if s == nil {
		return nil
	}
	stateCopy := *s

	if s.Scenes != nil {
		stateCopy.Scenes = make([]SceneRecord, len(s.Scenes))
		for i, sc := range s.Scenes {
			stateCopy.Scenes[i] = *sc.deepCopy()
		}
	}
	stateCopy.Characters = copyEntities(s.Characters)
	stateCopy.Locations = copyEntities(s.Locations)
	stateCopy.Props = copyEntities(s.Props)

	if s.Budget.Lines != nil {
		stateCopy.Budget.Lines = make([]BudgetLine, len(s.Budget.Lines))
		copy(stateCopy.Budget.Lines, s.Budget.Lines)
	}
	if s.Schedule.Locations != nil {
		stateCopy.Schedule.Locations = make([]LocationDay, len(s.Schedule.Locations))
		for i, ld := range s.Schedule.Locations {
			stateCopy.Schedule.Locations[i] = ld
			if ld.SceneNumbers != nil {
				stateCopy.Schedule.Locations[i].SceneNumbers = append([]int(nil), ld.SceneNumbers...)
			}
		}
	}
	if s.Crew.Core != nil {
		stateCopy.Crew.Core = append([]string(nil), s.Crew.Core...)
	}
	if s.Crew.Specialists != nil {
		stateCopy.Crew.Specialists = make([]SceneSpecialists, len(s.Crew.Specialists))
		for i, sp := range s.Crew.Specialists {
			stateCopy.Crew.Specialists[i] = sp
			if sp.Specialists != nil {
				stateCopy.Crew.Specialists[i].Specialists = append([]string(nil), sp.Specialists...)
			}
		}
	}

	return &stateCopy
}

func (r *SceneRecord) deepCopy() *SceneRecord {
	recCopy := *r
	if r.Characters != nil {
		recCopy.Characters = append([]string(nil), r.Characters...)
	}
	if r.Props != nil {
		recCopy.Props = append([]string(nil), r.Props...)
	}
	if r.Analysis != nil {
		analysisCopy := *r.Analysis
		recCopy.Analysis = &analysisCopy
	}
	return &recCopy
}

func copyEntities(in []Entity) []Entity {
	if in == nil {
		return nil
	}
	out := make([]Entity, len(in))
	for i, e := range in {
		out[i] = e
		if e.SceneRefs != nil {
			out[i].SceneRefs = append([]int(nil), e.SceneRefs...)
		}
	}
	return out
}
