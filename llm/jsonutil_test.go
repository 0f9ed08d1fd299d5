package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "markdown code block",
			content: "Here you go:\n```json\n{\"cost_category\": \"medium\"}\n```",
			want:    `{"cost_category": "medium"}`,
		},
		{
			name:    "bare fenced block",
			content: "```\n{\"a\": 1}\n```",
			want:    `{"a": 1}`,
		},
		{
			name:    "raw object with prose",
			content: `The analysis is {"weight": "high"} as requested.`,
			want:    `{"weight": "high"}`,
		},
		{
			name:    "no json",
			content: "I cannot analyze this scene.",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.content))
		})
	}
}

func TestExtractJSONCleansArtifacts(t *testing.T) {
	content := "```json\n" + `{
  "crew_size": 12, // core plus stunts
  "url": "http://example.com/notes",
  "props": ["rig", "harness",],
}` + "\n```"

	cleaned := ExtractJSON(content)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(cleaned), &decoded))
	assert.Equal(t, float64(12), decoded["crew_size"])
	assert.Equal(t, "http://example.com/notes", decoded["url"])
}
