package content

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	// raw HTML is kept here and filtered by SanitizeHTML afterwards
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// isMarkdown reports whether bodies stored with ext are Markdown.
func isMarkdown(ext string) bool {
	switch ext {
	case "md", "mdx", "markdown":
		return true
	}
	return false
}

// RenderBody turns a stored body into sanitized HTML. Markdown bodies are
// converted first; HTML bodies are only sanitized.
func RenderBody(body, ext string) (string, error) {
	if !isMarkdown(ext) {
		return SanitizeHTML(body), nil
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return SanitizeHTML(buf.String()), nil
}

// contentTypeFor returns the object-store content type for ext.
func contentTypeFor(ext string) string {
	switch {
	case isMarkdown(ext):
		return "text/markdown; charset=utf-8"
	case ext == "html" || ext == "htm":
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
