package scriptfile

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// ExtractHTML pulls the main content out of an HTML script page and converts
// it to markdown-flavored plain text. Scripts published as web pages bury the
// screenplay in navigation chrome; readability extraction strips that before
// conversion. Screenplay pages are not always article-shaped, so when
// readability comes back empty the page is pruned structurally instead.
func ExtractHTML(content []byte) (string, error) {
	source := string(content)

	article, err := readability.FromReader(bytes.NewReader(content), &url.URL{})
	if err == nil && strings.TrimSpace(article.Content) != "" {
		source = article.Content
	} else if pruned := pruneChrome(content); pruned != "" {
		source = pruned
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	markdown, err := converter.ConvertString(source)
	if err != nil {
		return "", err
	}
	return cleanText(markdown), nil
}

// chromeElements are stripped when falling back to structural pruning.
var chromeElements = map[string]bool{
	"nav": true, "header": true, "footer": true, "aside": true,
	"script": true, "style": true, "noscript": true, "iframe": true,
	"form": true, "button": true,
}

// pruneChrome parses the page and removes navigation and script elements,
// returning the remaining markup. Returns "" if the page cannot be parsed.
func pruneChrome(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	removeChrome(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return ""
	}
	return buf.String()
}

func removeChrome(n *html.Node) {
	child := n.FirstChild
	for child != nil {
		next := child.NextSibling
		if child.Type == html.ElementNode && chromeElements[child.Data] {
			n.RemoveChild(child)
		} else {
			removeChrome(child)
		}
		child = next
	}
}

// cleanText trims trailing whitespace per line and collapses blank-line runs.
func cleanText(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
