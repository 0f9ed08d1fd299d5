package breakdown

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSection(t *testing.T) {
	for _, name := range []string{"scenes", "characters", "locations", "props",
		"budget", "schedule", "crew"} {
		section, err := ParseSection(name)
		require.NoError(t, err)
		assert.Equal(t, name, section.String())
	}

	_, err := ParseSection("wardrobe")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestFeedbackPacketValidate(t *testing.T) {
	valid := &FeedbackPacket{
		Feedback:      map[Section]string{SectionScenes: "fix scene 2 cost"},
		NeedsRevision: map[Section]bool{SectionScenes: true},
	}
	assert.NoError(t, valid.Validate())

	// Nil maps mean approval.
	empty := &FeedbackPacket{}
	assert.NoError(t, empty.Validate())
	assert.False(t, empty.HasRevisions())

	unknown := &FeedbackPacket{
		NeedsRevision: map[Section]bool{Section("casting"): true},
	}
	err := unknown.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestFeedbackPacketRequestedSections(t *testing.T) {
	packet := &FeedbackPacket{
		NeedsRevision: map[Section]bool{
			SectionCrew:   true,
			SectionScenes: true,
			SectionBudget: true,
			SectionProps:  false,
		},
	}

	// Canonical order, false flags excluded.
	assert.Equal(t, []Section{SectionScenes, SectionBudget, SectionCrew},
		packet.RequestedSections())
	assert.True(t, packet.HasRevisions())
}

func TestFeedbackPacketUnmarshalRejectsUnknownKeys(t *testing.T) {
	var packet FeedbackPacket
	err := json.Unmarshal([]byte(`{
		"feedback": {"catering": "more sandwiches"},
		"needs_revision": {"catering": true}
	}`), &packet)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	err = json.Unmarshal([]byte(`{
		"feedback": {"budget": "tighten act two"},
		"needs_revision": {"budget": true}
	}`), &packet)
	require.NoError(t, err)
	assert.Equal(t, "tighten act two", packet.GuidanceFor(SectionBudget))
	assert.True(t, packet.NeedsRevision[SectionBudget])
}

func TestSectionIsSceneScoped(t *testing.T) {
	assert.True(t, SectionScenes.IsSceneScoped())
	assert.True(t, SectionCharacters.IsSceneScoped())
	assert.True(t, SectionLocations.IsSceneScoped())
	assert.True(t, SectionProps.IsSceneScoped())
	assert.False(t, SectionBudget.IsSceneScoped())
	assert.False(t, SectionSchedule.IsSceneScoped())
	assert.False(t, SectionCrew.IsSceneScoped())
}
