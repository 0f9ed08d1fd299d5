// Package aggregate derives the cross-scene production views from analyzed
// scene records: shooting schedule grouped by location, budget rollup, and
// crew requirements. Everything here is a pure function of the current scene
// set; running it twice on the same scenes yields identical output, and the
// orchestrator recomputes all three views together after any scene change.
package aggregate

import (
	"math"
	"sort"

	"github.com/scenesplit/scenesplit/breakdown"
)

// pagesPerDay is the rule-of-thumb shooting pace for an independent
// production.
const pagesPerDay = 5.0

// costPerScene maps a cost category band to an estimate in USD.
var costPerScene = map[breakdown.CostCategory]int{
	breakdown.CostLow:     8000,
	breakdown.CostMedium:  25000,
	breakdown.CostHigh:    60000,
	breakdown.CostPremium: 150000,
}

// complexityFactor scales schedule time for demanding scenes.
var complexityFactor = map[breakdown.Complexity]float64{
	breakdown.ComplexitySimple:   0.8,
	breakdown.ComplexityStandard: 1.0,
	breakdown.ComplexityComplex:  1.4,
	breakdown.ComplexityHeavy:    1.8,
}

// coreCrew is the baseline department-head roster every shoot carries.
var coreCrew = []string{
	"director",
	"first assistant director",
	"director of photography",
	"production designer",
	"gaffer",
	"key grip",
	"sound mixer",
	"script supervisor",
}

// Compute derives schedule, budget, and crew from the scene set. Revision
// counters are left at zero; the orchestrator owns versioning.
func Compute(scenes []breakdown.SceneRecord) (breakdown.Schedule, breakdown.Budget, breakdown.Crew) {
	return ComputeSchedule(scenes), ComputeBudget(scenes), ComputeCrew(scenes)
}

// ComputeSchedule groups scenes by location and estimates the day count for
// each from total page count scaled by analysis complexity.
func ComputeSchedule(scenes []breakdown.SceneRecord) breakdown.Schedule {
	type group struct {
		numbers []int
		pages   float64
		weight  float64 // complexity-scaled pages
	}

	groups := make(map[string]*group)
	for _, scene := range scenes {
		g, ok := groups[scene.Location]
		if !ok {
			g = &group{}
			groups[scene.Location] = g
		}
		g.numbers = append(g.numbers, scene.Number)
		g.pages += scene.PageCount

		factor := 1.0
		if scene.Analysis != nil {
			if f, ok := complexityFactor[scene.Analysis.Complexity]; ok {
				factor = f
			}
		}
		g.weight += scene.PageCount * factor
	}

	locations := make([]string, 0, len(groups))
	for location := range groups {
		locations = append(locations, location)
	}
	sort.Strings(locations)

	schedule := breakdown.Schedule{
		Locations: make([]breakdown.LocationDay, 0, len(locations)),
	}
	for _, location := range locations {
		g := groups[location]
		sort.Ints(g.numbers)

		days := int(math.Ceil(g.weight / pagesPerDay))
		if days < 1 {
			days = 1
		}
		schedule.Locations = append(schedule.Locations, breakdown.LocationDay{
			Location:      location,
			SceneNumbers:  g.numbers,
			PageCount:     roundPages(g.pages),
			EstimatedDays: days,
		})
		schedule.TotalDays += days
	}
	return schedule
}

// ComputeBudget rolls per-scene cost categories up into bands. When no scene
// carries an analysis block it falls back to a coarse overall category from
// the scene count alone.
func ComputeBudget(scenes []breakdown.SceneRecord) breakdown.Budget {
	counts := make(map[breakdown.CostCategory]int)
	analyzed := 0
	for _, scene := range scenes {
		if scene.Analysis == nil {
			continue
		}
		analyzed++
		category := scene.Analysis.CostCategory
		if _, ok := costPerScene[category]; !ok {
			category = breakdown.CostMedium
		}
		counts[category]++
	}

	if analyzed == 0 {
		return breakdown.Budget{OverallCategory: overallCategory(len(scenes))}
	}

	budget := breakdown.Budget{}
	for _, category := range []breakdown.CostCategory{
		breakdown.CostLow, breakdown.CostMedium, breakdown.CostHigh, breakdown.CostPremium,
	} {
		n := counts[category]
		if n == 0 {
			continue
		}
		line := breakdown.BudgetLine{
			Category:    category,
			SceneCount:  n,
			EstimateUSD: n * costPerScene[category],
		}
		budget.Lines = append(budget.Lines, line)
		budget.TotalUSD += line.EstimateUSD
	}
	budget.OverallCategory = bandForAverage(budget.TotalUSD / analyzed)
	return budget
}

// ComputeCrew lists the core roster plus per-scene specialist needs derived
// from complexity and shooting conditions.
func ComputeCrew(scenes []breakdown.SceneRecord) breakdown.Crew {
	crew := breakdown.Crew{
		Core:     append([]string(nil), coreCrew...),
		PeakSize: len(coreCrew),
	}

	for _, scene := range scenes {
		var specialists []string

		if scene.Analysis != nil {
			switch scene.Analysis.Complexity {
			case breakdown.ComplexityHeavy:
				specialists = append(specialists, "stunt coordinator", "special effects supervisor")
			case breakdown.ComplexityComplex:
				specialists = append(specialists, "additional camera operator")
			}
			if scene.Analysis.CrewSize > crew.PeakSize {
				crew.PeakSize = scene.Analysis.CrewSize
			}
		}
		if scene.TimeOfDay == breakdown.TimeNight && scene.SceneType == breakdown.SceneExterior {
			specialists = append(specialists, "night lighting technician")
		}

		if len(specialists) > 0 {
			crew.Specialists = append(crew.Specialists, breakdown.SceneSpecialists{
				SceneNumber: scene.Number,
				Specialists: specialists,
			})
		}
	}
	return crew
}

// overallCategory is the coarse fallback when no per-scene analysis exists.
func overallCategory(sceneCount int) breakdown.CostCategory {
	switch {
	case sceneCount <= 3:
		return breakdown.CostLow
	case sceneCount <= 15:
		return breakdown.CostMedium
	case sceneCount <= 40:
		return breakdown.CostHigh
	default:
		return breakdown.CostPremium
	}
}

// bandForAverage maps an average per-scene spend back onto a category band.
func bandForAverage(avgUSD int) breakdown.CostCategory {
	switch {
	case avgUSD < costPerScene[breakdown.CostMedium]:
		return breakdown.CostLow
	case avgUSD < costPerScene[breakdown.CostHigh]:
		return breakdown.CostMedium
	case avgUSD < costPerScene[breakdown.CostPremium]:
		return breakdown.CostHigh
	default:
		return breakdown.CostPremium
	}
}

func roundPages(pages float64) float64 {
	return math.Round(pages*10) / 10
}
