package scriptfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenesplit/scenesplit/breakdown"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractTextPlainFile(t *testing.T) {
	path := writeTemp(t, "script.txt", "INT. LOBBY - DAY\n\nAnna enters.\n")

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "INT. LOBBY - DAY")
}

func TestExtractTextNormalizesCRLF(t *testing.T) {
	path := writeTemp(t, "script.fountain", "INT. LOBBY - DAY\r\n\r\nAnna enters.\r\n")

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.NotContains(t, text, "\r")
	assert.Contains(t, text, "INT. LOBBY - DAY\n")
}

func TestExtractTextHTML(t *testing.T) {
	page := `<html><head><title>My Script</title></head><body>
<nav>Home | About</nav>
<article>
<p>INT. LOBBY - DAY</p>
<p>Anna enters carrying a BRIEFCASE.</p>
<p>EXT. STREET - NIGHT</p>
<p>Rain hammers the pavement.</p>
</article>
<footer>Copyright</footer>
</body></html>`
	path := writeTemp(t, "script.html", page)

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "INT. LOBBY - DAY")
	assert.Contains(t, text, "EXT. STREET - NIGHT")
}

func TestExtractTextUnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "script.docx", "whatever")

	_, err := ExtractText(path)
	require.Error(t, err)
	assert.True(t, breakdown.IsValidationError(err))
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.False(t, breakdown.IsValidationError(err))
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a/b/script.txt"))
	assert.True(t, IsSupported("script.FOUNTAIN"))
	assert.True(t, IsSupported("script.htm"))
	assert.False(t, IsSupported("script.pdf"))
	assert.False(t, IsSupported("script"))
}

func TestPruneChromeStripsNavigation(t *testing.T) {
	page := []byte(`<html><body>
<nav>Home | About</nav>
<script>track();</script>
<div><p>INT. VAULT - NIGHT</p></div>
<footer>Copyright</footer>
</body></html>`)

	pruned := pruneChrome(page)
	assert.Contains(t, pruned, "INT. VAULT - NIGHT")
	assert.NotContains(t, pruned, "Home | About")
	assert.NotContains(t, pruned, "track()")
	assert.NotContains(t, pruned, "Copyright")
}

func TestCleanText(t *testing.T) {
	messy := "line one   \n\n\n\n\n\nline two\t\n"
	assert.Equal(t, "line one\n\n\nline two", cleanText(messy))
}
