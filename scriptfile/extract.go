// Package scriptfile turns script files on disk into the plain text the
// parser consumes, and watches drop folders for new scripts. PDF extraction
// stays external; feed the extracted text through Start instead.
package scriptfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scenesplit/scenesplit/breakdown"
)

// textExtensions are read as-is, with newline normalization only.
var textExtensions = map[string]bool{
	".txt":      true,
	".fountain": true,
	".md":       true,
}

// htmlExtensions go through main-content extraction and markdown conversion.
var htmlExtensions = map[string]bool{
	".html": true,
	".htm":  true,
}

// ExtractText reads a script file and returns plain text ready for parsing.
// Unsupported extensions fail with a ValidationError.
func ExtractText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case textExtensions[ext]:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read script %s: %w", path, err)
		}
		return normalizeNewlines(string(data)), nil

	case htmlExtensions[ext]:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read script %s: %w", path, err)
		}
		text, err := ExtractHTML(data)
		if err != nil {
			return "", fmt.Errorf("extract script text from %s: %w", path, err)
		}
		return text, nil

	default:
		return "", breakdown.NewValidationError(
			fmt.Sprintf("unsupported script format %q: use .txt, .fountain, .md, or .html", ext))
	}
}

// SupportedExtensions lists the extensions ExtractText accepts, with dots.
func SupportedExtensions() []string {
	return []string{".txt", ".fountain", ".md", ".html", ".htm"}
}

// IsSupported reports whether a path has a supported script extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return textExtensions[ext] || htmlExtensions[ext]
}

// normalizeNewlines converts CRLF and lone CR line endings to LF.
func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
