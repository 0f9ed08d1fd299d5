package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenesplit/scenesplit/breakdown"
)

func TestBuildPacket(t *testing.T) {
	packet, err := buildPacket([]string{"budget=too expensive", "scenes"})
	require.NoError(t, err)

	assert.True(t, packet.NeedsRevision[breakdown.SectionBudget])
	assert.True(t, packet.NeedsRevision[breakdown.SectionScenes])
	assert.Equal(t, "too expensive", packet.Feedback[breakdown.SectionBudget])
	assert.Empty(t, packet.Feedback[breakdown.SectionScenes])
}

func TestBuildPacketUnknownSection(t *testing.T) {
	_, err := buildPacket([]string{"wardrobe=wrong era"})
	require.Error(t, err)
	assert.True(t, breakdown.IsValidationError(err))
}

func TestBuildPacketFeedbackWithEquals(t *testing.T) {
	packet, err := buildPacket([]string{"crew=peak size = 40 is too high"})
	require.NoError(t, err)
	assert.Equal(t, "peak size = 40 is too high", packet.Feedback[breakdown.SectionCrew])
}

func TestExpandArgsGlobAndDedup(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.fountain", "c.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("INT. X - DAY"), 0644))
	}

	paths, err := expandArgs([]string{
		filepath.Join(dir, "*"),
		filepath.Join(dir, "a.txt"), // duplicate of the glob match
	})
	require.NoError(t, err)

	// The pdf is filtered, the duplicate collapsed.
	assert.Len(t, paths, 2)
	assert.Contains(t, paths, filepath.Join(dir, "a.txt"))
	assert.Contains(t, paths, filepath.Join(dir, "b.fountain"))
}

func TestExpandArgsLiteralPathWithoutMatches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.txt")
	require.NoError(t, os.WriteFile(path, []byte("INT. X - DAY"), 0644))

	paths, err := expandArgs([]string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, paths)
}
