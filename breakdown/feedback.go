package breakdown

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Section names a reviewable part of the breakdown. The enumeration is
// closed: feedback packets carrying any other key are rejected at the
// boundary rather than silently ignored.
type Section string

const (
	SectionScenes     Section = "scenes"
	SectionCharacters Section = "characters"
	SectionLocations  Section = "locations"
	SectionProps      Section = "props"
	SectionBudget     Section = "budget"
	SectionSchedule   Section = "schedule"
	SectionCrew       Section = "crew"
)

// Sections lists every valid section in canonical order.
func Sections() []Section {
	return []Section{
		SectionScenes,
		SectionCharacters,
		SectionLocations,
		SectionProps,
		SectionBudget,
		SectionSchedule,
		SectionCrew,
	}
}

// String returns the string representation of the section.
func (s Section) String() string {
	return string(s)
}

// IsValid returns true if the section is part of the closed enumeration.
func (s Section) IsValid() bool {
	switch s {
	case SectionScenes, SectionCharacters, SectionLocations, SectionProps,
		SectionBudget, SectionSchedule, SectionCrew:
		return true
	default:
		return false
	}
}

// ParseSection converts a wire key into a Section.
func ParseSection(name string) (Section, error) {
	s := Section(name)
	if !s.IsValid() {
		return "", NewValidationError(fmt.Sprintf("unknown section %q", name))
	}
	return s, nil
}

// IsSceneScoped reports whether revising this section means re-invoking the
// scene analyzer. Budget, schedule, and crew are aggregator sections and are
// regenerated without touching scene analysis.
func (s Section) IsSceneScoped() bool {
	switch s {
	case SectionScenes, SectionCharacters, SectionLocations, SectionProps:
		return true
	default:
		return false
	}
}

// FeedbackPacket is the structured input to Resume: per-section free-text
// guidance plus per-section revision flags. An empty feedback text with a
// true flag means "regenerate without specific guidance".
type FeedbackPacket struct {
	Feedback      map[Section]string `json:"feedback"`
	NeedsRevision map[Section]bool   `json:"needs_revision"`
}

// Validate rejects packets referencing sections outside the closed enum.
// Nil maps are valid and equivalent to an approval (no revisions requested).
func (p *FeedbackPacket) Validate() error {
	for section := range p.Feedback {
		if !section.IsValid() {
			return NewValidationError(fmt.Sprintf("unknown section %q in feedback", section))
		}
	}
	for section := range p.NeedsRevision {
		if !section.IsValid() {
			return NewValidationError(fmt.Sprintf("unknown section %q in needs_revision", section))
		}
	}
	return nil
}

// RequestedSections returns the sections flagged for revision, in canonical
// order so dispatch is deterministic regardless of map iteration.
func (p *FeedbackPacket) RequestedSections() []Section {
	var requested []Section
	for section, flagged := range p.NeedsRevision {
		if flagged {
			requested = append(requested, section)
		}
	}
	sort.Slice(requested, func(i, j int) bool {
		return sectionOrder(requested[i]) < sectionOrder(requested[j])
	})
	return requested
}

// HasRevisions returns true if at least one section is flagged.
func (p *FeedbackPacket) HasRevisions() bool {
	for _, flagged := range p.NeedsRevision {
		if flagged {
			return true
		}
	}
	return false
}

// GuidanceFor returns the free-text feedback supplied for a section.
func (p *FeedbackPacket) GuidanceFor(section Section) string {
	return p.Feedback[section]
}

func sectionOrder(s Section) int {
	for i, candidate := range Sections() {
		if s == candidate {
			return i
		}
	}
	return len(Sections())
}

// UnmarshalJSON validates section keys while decoding so malformed packets
// fail at the boundary with a ValidationError.
func (p *FeedbackPacket) UnmarshalJSON(data []byte) error {
	var raw struct {
		Feedback      map[string]string `json:"feedback"`
		NeedsRevision map[string]bool   `json:"needs_revision"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Feedback != nil {
		p.Feedback = make(map[Section]string, len(raw.Feedback))
		for key, text := range raw.Feedback {
			section, err := ParseSection(key)
			if err != nil {
				return err
			}
			p.Feedback[section] = text
		}
	}
	if raw.NeedsRevision != nil {
		p.NeedsRevision = make(map[Section]bool, len(raw.NeedsRevision))
		for key, flagged := range raw.NeedsRevision {
			section, err := ParseSection(key)
			if err != nil {
				return err
			}
			p.NeedsRevision[section] = flagged
		}
	}
	return nil
}
