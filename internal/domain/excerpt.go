package domain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultExcerptLength is the excerpt budget in characters.
	DefaultExcerptLength = 160
	// ExcerptFallback is returned when no excerpt text can be derived.
	ExcerptFallback = "Read more..."
	// ExcerptEllipsis is appended to truncated excerpts.
	ExcerptEllipsis = "…"
)

var (
	markdownImage = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	markdownLink  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headingMarker = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	newlineRun    = regexp.MustCompile(`[ \t]*(\r?\n)+[ \t]*`)
	emphasisSpans = []emphasis{
		{re: regexp.MustCompile("`([^`\n]+)`")},
		{re: regexp.MustCompile(`\*\*([^\s*](?:[^\n*]*[^\s*])?)\*\*`)},
		{re: regexp.MustCompile(`__([^\s_](?:[^\n_]*[^\s_])?)__`), flanked: true},
		{re: regexp.MustCompile(`~~([^\s~](?:[^\n~]*[^\s~])?)~~`)},
		{re: regexp.MustCompile(`\*([^\s*](?:[^\n*]*[^\s*])?)\*`), flanked: true},
		{re: regexp.MustCompile(`_([^\s_](?:[^\n_]*[^\s_])?)_`), flanked: true},
	}
)

// emphasis is one paired Markdown marker. A flanked marker only counts
// when no letter or digit touches it from outside, so "snake_case_name"
// and "5*3*2" are left alone.
type emphasis struct {
	re      *regexp.Regexp
	flanked bool
}

// unwrap replaces every span matched by e with its inner text.
func (e emphasis) unwrap(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range e.re.FindAllStringSubmatchIndex(text, -1) {
		if e.flanked && (wordBefore(text, m[0]) || wordAfter(text, m[1])) {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(text[m[2]:m[3]])
		last = m[1]
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

func wordBefore(text string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordAfter(text string, i int) bool {
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// GenerateExcerpt derives a plain-text summary of Markdown content.
//
// Image syntax is dropped, links keep their text, paired emphasis and code
// markers are unwrapped, heading markers at line start are removed and
// newlines collapse to single spaces. Lone markers ("C#", "5*3",
// "snake_case") are plain text and kept. Text longer than
// maxLength characters is cut at the last whitespace boundary (never
// mid-word) and suffixed with an ellipsis. A maxLength <= 0 selects
// DefaultExcerptLength.
func GenerateExcerpt(content string, maxLength int) (excerpt string) {
	defer func() {
		if r := recover(); r != nil {
			excerpt = ExcerptFallback
		}
	}()

	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}

	text := markdownImage.ReplaceAllString(content, "")
	text = markdownLink.ReplaceAllString(text, "$1")
	text = headingMarker.ReplaceAllString(text, "")
	for _, e := range emphasisSpans {
		text = e.unwrap(text)
	}
	text = newlineRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if text == "" {
		return ExcerptFallback
	}
	return truncateAtWord(text, maxLength)
}

// truncateAtWord keeps text when it fits, otherwise cuts at the last
// whitespace at or before maxLength. Without any whitespace the cut is
// exactly maxLength characters.
func truncateAtWord(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	// Looking one rune past the budget lets a word that ends exactly at
	// maxLength survive.
	cut := maxLength
	for i := maxLength; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}

	head := strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
	if head == "" {
		head = string(runes[:maxLength])
	}
	return head + ExcerptEllipsis
}

// CountWords returns the number of whitespace-separated fields in content.
func CountWords(content string) int {
	return len(strings.Fields(content))
}

// WordsPerMinute is the reading speed behind read-time statistics.
const WordsPerMinute = 200
