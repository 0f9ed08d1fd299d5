// Package screenplay extracts a draft production breakdown from raw
// screenplay text: scene boundaries, participants, settings, and object
// mentions. It is a pure line-oriented transformation; analysis fields are
// left empty for the scene analyzer.
package screenplay

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/scenesplit/scenesplit/breakdown"
)

// linesPerPage approximates standard screenplay formatting (one page of
// courier 12 at studio margins).
const linesPerPage = 55.0

// sluglineRe matches scene headings: an optional scene number, an INT/EXT
// style prefix, then the location descriptor.
var sluglineRe = regexp.MustCompile(`^\s*(?:\d+[A-Z]?[\s.]+)?(INT\.?\s*/\s*EXT|EXT\.?\s*/\s*INT|I/E|INT|EXT|INSERT|MONTAGE)\.?\s*[-–—\s]\s*(.+)$`)

// transitionRe matches editing transitions (CUT TO:, FADE OUT.) that would
// otherwise look like character cues.
var transitionRe = regexp.MustCompile(`^(?:FADE|CUT|DISSOLVE|SMASH|MATCH|WIPE|IRIS|JUMP)[A-Z\s]*(?:TO)?[:.]?\s*$`)

// cueNameRe validates a stripped character cue name.
var cueNameRe = regexp.MustCompile(`^[A-Z][A-Z\s.'’-]*$`)

// cueSuffixRe strips voice-over style annotations from character cues.
var cueSuffixRe = regexp.MustCompile(`\s*\((?:V\.?O\.?|O\.?S\.?|O\.?C\.?|CONT'?D|CONTINUED)\.?\)\s*$`)

// propRe finds capitalized object mentions in action lines; screenplay
// convention capitalizes props on first introduction.
var propRe = regexp.MustCompile(`\b[A-Z][A-Z'’-]{2,}(?:\s+[A-Z][A-Z'’-]{2,})?\b`)

// Result is the extracted draft breakdown before analysis.
type Result struct {
	Scenes     []breakdown.SceneRecord
	Characters []breakdown.Entity
	Locations  []breakdown.Entity
	Props      []breakdown.Entity
}

// Parse converts normalized screenplay text into an ordered sequence of
// scene record skeletons. It fails with a StructureError when the text
// contains no recognizable scene headings; Start treats that as fatal and
// creates no workflow.
func Parse(text string) (*Result, error) {
	lines := strings.Split(normalize(text), "\n")

	var scenes []breakdown.SceneRecord
	var current *breakdown.SceneRecord
	var sceneLines int
	var synopsis []string

	flush := func() {
		if current == nil {
			return
		}
		// Action lines capitalize character introductions too; drop prop
		// mentions that turned out to be characters of this scene.
		kept := current.Props[:0]
		for _, prop := range current.Props {
			if !containsName(current.Characters, prop) {
				kept = append(kept, prop)
			}
		}
		current.Props = kept
		current.PageCount = pageCount(sceneLines)
		current.Synopsis = strings.Join(synopsis, " ")
		if len(current.Synopsis) > 280 {
			current.Synopsis = current.Synopsis[:280]
		}
		scenes = append(scenes, *current)
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		trimmed := strings.TrimSpace(line)

		if m := sluglineRe.FindStringSubmatch(trimmed); m != nil && isAllCaps(trimmed) {
			flush()
			sceneType := parseSceneType(m[1])
			location, timeOfDay := splitLocationTime(m[2])
			current = &breakdown.SceneRecord{
				Number:    len(scenes) + 1,
				Heading:   trimmed,
				SceneType: sceneType,
				Location:  location,
				TimeOfDay: timeOfDay,
			}
			sceneLines = 1
			synopsis = synopsis[:0]
			continue
		}

		if current == nil {
			continue // title page, front matter
		}
		sceneLines++
		if trimmed == "" {
			continue
		}

		if name, ok := characterCue(trimmed, lines, i); ok {
			addUnique(&current.Characters, name)
			continue
		}

		// Action line: collect prop mentions and the first sentences for
		// the synopsis.
		if !isDialogueContext(lines, i) {
			for _, prop := range propMentions(trimmed, current.Characters) {
				addUnique(&current.Props, prop)
			}
			if len(synopsis) < 3 {
				synopsis = append(synopsis, trimmed)
			}
		}
	}
	flush()

	if len(scenes) == 0 {
		return nil, breakdown.NewStructureError("no scene headings found in script text")
	}

	return &Result{
		Scenes:     scenes,
		Characters: Characters(scenes),
		Locations:  Locations(scenes),
		Props:      Props(scenes),
	}, nil
}

type entityKind int

const (
	entityCharacters entityKind = iota
	entityLocations
	entityProps
)

// deriveEntities rebuilds one of the cross-scene entity sets from the scene
// records, each entry carrying back-references to the scene numbers that
// mention it. Callers rebuild the sets again after any scene revision so
// they always reflect the current scenes.
func deriveEntities(scenes []breakdown.SceneRecord, kind entityKind) []breakdown.Entity {
	refs := make(map[string][]int)
	for _, scene := range scenes {
		var names []string
		switch kind {
		case entityCharacters:
			names = scene.Characters
		case entityLocations:
			if scene.Location != "" {
				names = []string{scene.Location}
			}
		case entityProps:
			names = scene.Props
		}
		for _, name := range names {
			refs[name] = append(refs[name], scene.Number)
		}
	}

	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)

	entities := make([]breakdown.Entity, 0, len(names))
	for _, name := range names {
		entities = append(entities, breakdown.Entity{Name: name, SceneRefs: refs[name]})
	}
	return entities
}

// Characters derives the character entity set from scenes.
func Characters(scenes []breakdown.SceneRecord) []breakdown.Entity {
	return deriveEntities(scenes, entityCharacters)
}

// Locations derives the location entity set from scenes.
func Locations(scenes []breakdown.SceneRecord) []breakdown.Entity {
	return deriveEntities(scenes, entityLocations)
}

// Props derives the prop entity set from scenes.
func Props(scenes []breakdown.SceneRecord) []breakdown.Entity {
	return deriveEntities(scenes, entityProps)
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func pageCount(lines int) float64 {
	pages := float64(lines) / linesPerPage
	if pages < 0.1 {
		pages = 0.1
	}
	// Round to one decimal so repeated runs serialize identically.
	return float64(int(pages*10+0.5)) / 10
}

func parseSceneType(prefix string) breakdown.SceneType {
	p := strings.ToUpper(strings.ReplaceAll(prefix, " ", ""))
	switch {
	case strings.Contains(p, "/"):
		return breakdown.SceneIntExt
	case p == "I/E":
		return breakdown.SceneIntExt
	case strings.HasPrefix(p, "INT"):
		return breakdown.SceneInterior
	case strings.HasPrefix(p, "EXT"):
		return breakdown.SceneExterior
	case strings.HasPrefix(p, "INSERT"):
		return breakdown.SceneInsert
	case strings.HasPrefix(p, "MONTAGE"):
		return breakdown.SceneMontage
	default:
		return breakdown.SceneInterior
	}
}

// splitLocationTime splits "LOBBY - DAY" into the location descriptor and
// the time-of-day designation. The time is the segment after the last dash;
// sluglines without one get TimeUnspecified.
func splitLocationTime(rest string) (string, breakdown.TimeOfDay) {
	rest = strings.TrimSpace(rest)
	for _, sep := range []string{" - ", " – ", " — ", " -- "} {
		if idx := strings.LastIndex(rest, sep); idx >= 0 {
			location := strings.TrimSpace(rest[:idx])
			timePart := strings.TrimSpace(rest[idx+len(sep):])
			if tod, ok := parseTimeOfDay(timePart); ok {
				return location, tod
			}
		}
	}
	return rest, breakdown.TimeUnspecified
}

func parseTimeOfDay(s string) (breakdown.TimeOfDay, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DAY", "MORNING", "AFTERNOON", "NOON":
		return breakdown.TimeDay, true
	case "NIGHT", "EVENING", "MIDNIGHT":
		return breakdown.TimeNight, true
	case "DAWN", "SUNRISE", "EARLY MORNING":
		return breakdown.TimeDawn, true
	case "DUSK", "SUNSET", "MAGIC HOUR":
		return breakdown.TimeDusk, true
	case "CONTINUOUS", "LATER", "SAME", "MOMENTS LATER":
		return breakdown.TimeContinuous, true
	default:
		return breakdown.TimeUnspecified, false
	}
}

// characterCue reports whether the line at index i is a dialogue cue: a
// short all-caps line followed by a non-empty line that is not itself a cue
// or slugline.
func characterCue(trimmed string, lines []string, i int) (string, bool) {
	if len(trimmed) > 40 || !isAllCaps(trimmed) {
		return "", false
	}
	if sluglineRe.MatchString(trimmed) || transitionRe.MatchString(trimmed) {
		return "", false
	}

	name := strings.TrimSpace(cueSuffixRe.ReplaceAllString(trimmed, ""))
	if name == "" || !cueNameRe.MatchString(name) {
		return "", false
	}

	// A cue must introduce dialogue on the next non-blank line.
	for j := i + 1; j < len(lines) && j <= i+2; j++ {
		next := strings.TrimSpace(lines[j])
		if next == "" {
			continue
		}
		if sluglineRe.MatchString(next) || transitionRe.MatchString(next) {
			return "", false
		}
		return name, true
	}
	return "", false
}

// isDialogueContext reports whether the line at index i sits inside a
// dialogue block (its preceding non-blank line is a character cue or
// parenthetical), so action-line heuristics skip it.
func isDialogueContext(lines []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-3; j-- {
		prev := strings.TrimSpace(lines[j])
		if prev == "" {
			return false
		}
		if strings.HasPrefix(prev, "(") {
			continue
		}
		if _, ok := characterCue(prev, lines, j); ok {
			return true
		}
		return false
	}
	return false
}

func propMentions(line string, knownCharacters []string) []string {
	if isAllCaps(line) {
		return nil // shouted lines, sub-headings
	}
	var props []string
	for _, match := range propRe.FindAllString(line, -1) {
		if isNoiseWord(match) || containsName(knownCharacters, match) {
			continue
		}
		props = append(props, strings.ToLower(match))
	}
	return props
}

var noiseWords = map[string]struct{}{
	"THE": {}, "AND": {}, "INT": {}, "EXT": {}, "V.O": {}, "O.S": {},
	"CONT'D": {}, "BACK": {}, "LATER": {}, "CONTINUOUS": {}, "SAME": {},
	"CLOSE": {}, "ANGLE": {}, "POV": {}, "SUPER": {}, "TITLE": {},
}

func isNoiseWord(word string) bool {
	_, ok := noiseWords[strings.ToUpper(word)]
	return ok
}

func containsName(names []string, candidate string) bool {
	for _, name := range names {
		if strings.EqualFold(name, candidate) {
			return true
		}
	}
	return false
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func addUnique(list *[]string, value string) {
	for _, existing := range *list {
		if existing == value {
			return
		}
	}
	*list = append(*list, value)
}

// Summary renders a one-line description of the extraction result, used in
// log lines.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d scenes, %d characters, %d locations, %d props",
		len(r.Scenes), len(r.Characters), len(r.Locations), len(r.Props))
}
