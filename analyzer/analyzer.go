// Package analyzer runs the generative per-scene production analysis and the
// advisory side of section revision. Analysis is best effort: a scene whose
// response cannot be validated after a correction retry gets a heuristic
// fallback block marked Degraded rather than failing the batch.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/scenesplit/scenesplit/breakdown"
	"github.com/scenesplit/scenesplit/llm"
	"github.com/scenesplit/scenesplit/model"
)

// maxFormatAttempts is the total number of completion attempts per scene when
// the response fails schema validation. The second attempt carries a
// correction prompt embedding the validation error.
const maxFormatAttempts = 2

// defaultWorkers bounds concurrent scene analyses.
const defaultWorkers = 4

// analysisMaxTokens caps each scene analysis response.
const analysisMaxTokens = 1024

// Completer is the LLM surface the analyzer needs. *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Analyzer coordinates scene analysis calls against a Completer.
type Analyzer struct {
	completer Completer
	logger    *slog.Logger
	workers   int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkers sets the concurrent analysis limit.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// New creates an Analyzer backed by the given completer.
func New(completer Completer, opts ...Option) *Analyzer {
	a := &Analyzer{
		completer: completer,
		logger:    slog.Default(),
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// analysisPayload mirrors the JSON object the model is asked to produce.
type analysisPayload struct {
	Synopsis         string `json:"synopsis"`
	NarrativePurpose string `json:"narrative_purpose"`
	DramaticWeight   string `json:"dramatic_weight"`
	Complexity       string `json:"complexity"`
	CrewSize         int    `json:"crew_size"`
	CostCategory     string `json:"cost_category"`
}

// AnalyzeScenes fills in the Analysis block (and synopsis) for every scene in
// place. All scene requests are started before any result is awaited, bounded
// by the worker limit. Guidance, when non-empty, is injected into each scene
// prompt as reviewer feedback.
//
// Individual scene failures never fail the batch; the affected scenes carry a
// Degraded analysis instead.
func (a *Analyzer) AnalyzeScenes(ctx context.Context, scenes []breakdown.SceneRecord, guidance string) {
	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup

	for i := range scenes {
		wg.Add(1)
		go func(scene *breakdown.SceneRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			analysis, synopsis := a.analyzeScene(ctx, *scene, guidance)
			scene.Analysis = analysis
			if synopsis != "" {
				scene.Synopsis = synopsis
			}
		}(&scenes[i])
	}
	wg.Wait()
}

// analyzeScene runs the prompt, validate, correction-retry loop for one
// scene. It always returns a non-nil analysis; the fallback path marks it
// Degraded with the reason.
func (a *Analyzer) analyzeScene(ctx context.Context, scene breakdown.SceneRecord, guidance string) (*breakdown.SceneAnalysis, string) {
	temperature := 0.0
	messages := []llm.Message{
		{Role: "system", Content: SystemPrompt()},
		{Role: "user", Content: ScenePrompt(scene, guidance)},
	}

	var lastErr error
	for attempt := range maxFormatAttempts {
		resp, err := a.completer.Complete(ctx, llm.Request{
			Capability:  string(model.CapabilityAnalysis),
			Messages:    messages,
			Temperature: &temperature,
			MaxTokens:   analysisMaxTokens,
		})
		if err != nil {
			a.logger.Warn("Scene analysis completion failed",
				"scene", scene.Number,
				"error", err)
			return heuristicFallback(scene, fmt.Sprintf("completion failed: %v", err)), ""
		}

		payload, parseErr := parseAnalysis(resp.Content)
		if parseErr == nil {
			return &breakdown.SceneAnalysis{
				NarrativePurpose: payload.NarrativePurpose,
				DramaticWeight:   breakdown.DramaticWeight(payload.DramaticWeight),
				Complexity:       breakdown.Complexity(payload.Complexity),
				CrewSize:         payload.CrewSize,
				CostCategory:     breakdown.CostCategory(payload.CostCategory),
			}, strings.TrimSpace(payload.Synopsis)
		}

		lastErr = parseErr
		if attempt+1 >= maxFormatAttempts {
			break
		}

		a.logger.Warn("Scene analysis format retry",
			"scene", scene.Number,
			"attempt", attempt+1,
			"error", parseErr)

		messages = append(messages,
			llm.Message{Role: "assistant", Content: resp.Content},
			llm.Message{Role: "user", Content: formatCorrectionPrompt(parseErr)},
		)
	}

	return heuristicFallback(scene, fmt.Sprintf("invalid analysis after retry: %v", lastErr)), ""
}

// parseAnalysis extracts and validates the analysis JSON from a response.
func parseAnalysis(content string) (*analysisPayload, error) {
	jsonContent := llm.ExtractJSON(content)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(jsonContent), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}
	if err := validateAnalysis(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// validateAnalysis enforces required fields and the closed enumerations.
func validateAnalysis(p *analysisPayload) error {
	if strings.TrimSpace(p.NarrativePurpose) == "" {
		return fmt.Errorf("narrative_purpose is required")
	}
	if !breakdown.DramaticWeight(p.DramaticWeight).IsValid() {
		return fmt.Errorf("invalid dramatic_weight %q", p.DramaticWeight)
	}
	if !breakdown.Complexity(p.Complexity).IsValid() {
		return fmt.Errorf("invalid complexity %q", p.Complexity)
	}
	if !breakdown.CostCategory(p.CostCategory).IsValid() {
		return fmt.Errorf("invalid cost_category %q", p.CostCategory)
	}
	if p.CrewSize <= 0 {
		return fmt.Errorf("crew_size must be positive, got %d", p.CrewSize)
	}
	return nil
}

// heuristicFallback builds a conservative analysis block when the generative
// path is unavailable. Crew size scales with the cast on the day.
func heuristicFallback(scene breakdown.SceneRecord, reason string) *breakdown.SceneAnalysis {
	return &breakdown.SceneAnalysis{
		DramaticWeight: breakdown.WeightMedium,
		Complexity:     breakdown.ComplexityStandard,
		CrewSize:       10 + 3*len(scene.Characters),
		CostCategory:   breakdown.CostMedium,
		Degraded:       true,
		DegradedReason: reason,
	}
}
