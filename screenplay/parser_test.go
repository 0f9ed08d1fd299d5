package screenplay

import (
	"strings"
	"testing"

	"github.com/scenesplit/scenesplit/breakdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoSceneScript = `FADE IN:

INT. LOBBY - DAY

ANNA pushes through the revolving door, clutching a battered BRIEFCASE.
The receptionist looks up.

ANNA
I need to see Mr. Hale. Now.

RECEPTIONIST
Do you have an appointment?

ANNA (CONT'D)
I have something better.

INT. OFFICE - NIGHT

HALE sits behind a vast desk. A single LAMP burns. Anna drops the
briefcase between them.

HALE
You shouldn't have come here.

ANNA
Neither should you.

CUT TO:
`

func TestParseTwoScenes(t *testing.T) {
	result, err := Parse(twoSceneScript)
	require.NoError(t, err)
	require.Len(t, result.Scenes, 2)

	first := result.Scenes[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "INT. LOBBY - DAY", first.Heading)
	assert.Equal(t, breakdown.SceneInterior, first.SceneType)
	assert.Equal(t, "LOBBY", first.Location)
	assert.Equal(t, breakdown.TimeDay, first.TimeOfDay)
	assert.Contains(t, first.Characters, "ANNA")
	assert.Contains(t, first.Characters, "RECEPTIONIST")
	assert.Contains(t, first.Props, "briefcase")
	assert.Nil(t, first.Analysis, "analysis fields stay empty at extraction")

	second := result.Scenes[1]
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, "OFFICE", second.Location)
	assert.Equal(t, breakdown.TimeNight, second.TimeOfDay)
	assert.Contains(t, second.Characters, "HALE")
	assert.Contains(t, second.Characters, "ANNA")
	assert.Contains(t, second.Props, "lamp")

	// CONT'D should not create a second ANNA, transitions are not characters.
	for _, scene := range result.Scenes {
		assert.NotContains(t, scene.Characters, "CUT TO:")
		assert.NotContains(t, scene.Characters, "FADE IN:")
	}
}

func TestParseEntitySets(t *testing.T) {
	result, err := Parse(twoSceneScript)
	require.NoError(t, err)

	var anna *breakdown.Entity
	for i := range result.Characters {
		if result.Characters[i].Name == "ANNA" {
			anna = &result.Characters[i]
		}
	}
	require.NotNil(t, anna)
	assert.Equal(t, []int{1, 2}, anna.SceneRefs)

	locationNames := make([]string, 0, len(result.Locations))
	for _, loc := range result.Locations {
		locationNames = append(locationNames, loc.Name)
	}
	assert.Equal(t, []string{"LOBBY", "OFFICE"}, locationNames)
}

func TestParseNoScenes(t *testing.T) {
	_, err := Parse("Once upon a time there was a screenwriter who forgot sluglines.")
	require.Error(t, err)
	assert.True(t, breakdown.IsStructureError(err))
}

func TestParseSceneTypes(t *testing.T) {
	tests := []struct {
		heading string
		want    breakdown.SceneType
	}{
		{"INT. KITCHEN - DAY", breakdown.SceneInterior},
		{"EXT. BEACH - NIGHT", breakdown.SceneExterior},
		{"INT./EXT. CAR - CONTINUOUS", breakdown.SceneIntExt},
		{"MONTAGE - TRAINING SEQUENCE", breakdown.SceneMontage},
		{"INSERT - THE LETTER", breakdown.SceneInsert},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			result, err := Parse(tt.heading + "\n\nSomething happens.\n")
			require.NoError(t, err)
			require.Len(t, result.Scenes, 1)
			assert.Equal(t, tt.want, result.Scenes[0].SceneType)
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		heading string
		want    breakdown.TimeOfDay
	}{
		{"INT. BAR - NIGHT", breakdown.TimeNight},
		{"EXT. FIELD - DAWN", breakdown.TimeDawn},
		{"EXT. ROOF - SUNSET", breakdown.TimeDusk},
		{"INT. HALL - CONTINUOUS", breakdown.TimeContinuous},
		{"INT. BASEMENT", breakdown.TimeUnspecified},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			result, err := Parse(tt.heading + " \n\nAction.\n")
			require.NoError(t, err)
			require.Len(t, result.Scenes, 1)
			assert.Equal(t, tt.want, result.Scenes[0].TimeOfDay)
		})
	}
}

func TestParsePageCount(t *testing.T) {
	var b strings.Builder
	b.WriteString("INT. WAREHOUSE - NIGHT\n\n")
	for i := 0; i < 108; i++ {
		b.WriteString("The chase continues through the aisles.\n")
	}

	result, err := Parse(b.String())
	require.NoError(t, err)
	require.Len(t, result.Scenes, 1)
	assert.InDelta(t, 2.0, result.Scenes[0].PageCount, 0.3)
}

func TestParseDeterministic(t *testing.T) {
	a, err := Parse(twoSceneScript)
	require.NoError(t, err)
	b, err := Parse(twoSceneScript)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseCRLFNormalization(t *testing.T) {
	crlf := strings.ReplaceAll(twoSceneScript, "\n", "\r\n")
	result, err := Parse(crlf)
	require.NoError(t, err)
	assert.Len(t, result.Scenes, 2)
}
