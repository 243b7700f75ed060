package content

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	// stripPolicy removes every tag, leaving a space where block tags were.
	stripPolicy = func() *bluemonday.Policy {
		p := bluemonday.StrictPolicy()
		p.AddSpaceWhenStrippingTag(true)
		return p
	}()

	// bodyPolicy keeps the formatting an editor may produce.
	bodyPolicy = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "span", "div")
		return p
	}()
)

// PlainText strips markup from an HTML or Markdown body so excerpts never
// carry tags or entities. Whitespace runs collapse to single spaces.
func PlainText(body string) string {
	return strings.Join(strings.Fields(html.UnescapeString(stripPolicy.Sanitize(body))), " ")
}

// textMarkdown renders Markdown for excerpts only: no typographic
// substitutions, so the text reads as the editor wrote it.
var textMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(goldhtml.WithUnsafe()),
)

// MarkdownPlainText is PlainText for Markdown bodies. The body is rendered
// first so a "<" in prose or a code span is escaped text, not a tag.
func MarkdownPlainText(body string) string {
	var buf bytes.Buffer
	if err := textMarkdown.Convert([]byte(body), &buf); err != nil {
		return PlainText(body)
	}
	return PlainText(buf.String())
}

// SanitizeHTML makes rendered HTML safe to serve to the public site.
func SanitizeHTML(body string) string {
	return bodyPolicy.Sanitize(body)
}
