package structure

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// Classifier decides whether a block is a structural section heading.
// Lexical/structural patterns are the primary signal; font salience relative
// to the page median is consulted only when the patterns are silent, because
// embedded font metadata is unreliable across documents.
type Classifier struct {
	h     Heuristics
	rules []rule
}

// rule is one tagged matcher of the decision tree. Rules are evaluated in
// order and the first match wins.
type rule struct {
	name   string
	accept bool
	match  func(text string) bool
}

var (
	// Definitional keywords open inline math environments, not sections.
	mathKeywordRe = regexp.MustCompile(`(?i)^(example|proof|definition|proposition|theorem|lemma|corollary)\s*\d*\.?(\s|$)`)

	// Captions are numbered-heading shaped but are not document structure.
	captionRe = regexp.MustCompile(`(?i)^(fig\.|figure|table|algorithm)\s+\d+`)

	// Equation fragments: a single letter followed by an operator, a
	// "word:" label, or function-call syntax.
	mathExprRe  = regexp.MustCompile(`^[A-Za-z]\s*[=<>+\-*/]`)
	labelRe     = regexp.MustCompile(`^\w+:\s`)
	funcCallRe  = regexp.MustCompile(`^\w+\([^)]*\)`)

	// Numbered section heading: up to four dot-separated levels, optional
	// trailing period, heading text (uppercase) on the same or next line.
	numberedRe = regexp.MustCompile(`^\d+(\.\d+){0,3}\.?\s+[A-Z]`)
)

// sectionNames are the canonical bare headings of academic papers,
// matched case-insensitively against the whole trimmed text.
var sectionNames = map[string]bool{
	"abstract":              true,
	"introduction":          true,
	"related work":          true,
	"background":            true,
	"method":                true,
	"methods":               true,
	"materials and methods": true,
	"experiment":            true,
	"experiments":           true,
	"result":                true,
	"results":               true,
	"discussion":            true,
	"conclusion":            true,
	"conclusions":           true,
	"references":            true,
	"acknowledgment":        true,
	"acknowledgments":       true,
	"acknowledgement":       true,
	"acknowledgements":      true,
}

// IsSectionName reports whether text is one of the canonical section
// headings. The validator uses the same set to whitelist headings that its
// stricter rules would otherwise reject.
func IsSectionName(text string) bool {
	return sectionNames[strings.ToLower(strings.TrimSpace(text))]
}

func NewClassifier(h Heuristics) *Classifier {
	c := &Classifier{h: h}
	c.rules = []rule{
		{name: "numeric-noise", accept: false, match: isNumericNoise},
		{name: "math-keyword", accept: false, match: mathKeywordRe.MatchString},
		{name: "caption", accept: false, match: captionRe.MatchString},
		{name: "lowercase-start", accept: false, match: startsLower},
		{name: "math-expression", accept: false, match: looksLikeMath},
		{name: "numbered-heading", accept: true, match: numberedRe.MatchString},
		{name: "section-name", accept: true, match: IsSectionName},
	}
	return c
}

// Classify runs the decision pipeline over one block. stats carries the
// page's font baseline; stats.Valid=false disables the font branch entirely.
// The function is pure and total: any text, including empty or pure symbols,
// yields a verdict without error.
func (c *Classifier) Classify(b docmodel.Block, stats docmodel.PageStats) bool {
	text := strings.TrimSpace(b.Text)
	if utf8.RuneCountInString(text) <= c.h.MinTitleLen {
		return false
	}

	for _, r := range c.rules {
		if r.match(text) {
			return r.accept
		}
	}

	// No structural signal either way: accept only on strong font salience,
	// and only for heading-length text. Without a page median there is no
	// baseline, so this branch always rejects.
	if !stats.Valid {
		return false
	}
	l := utf8.RuneCountInString(text)
	if l < c.h.FontSalienceLen[0] || l > c.h.FontSalienceLen[1] {
		return false
	}
	return fontSalient(b.Spans, stats.Median, c.h.FontSalienceRatio)
}

// fontSalient reports a strong font signal: average span size above
// ratio*median, or the block set mostly in bold.
func fontSalient(spans []docmodel.Span, median, ratio float64) bool {
	if len(spans) == 0 {
		return false
	}
	var sum float64
	bold := 0
	for _, s := range spans {
		sum += s.FontSize
		if s.Bold {
			bold++
		}
	}
	avg := sum / float64(len(spans))
	return avg > ratio*median || bold*2 > len(spans)
}

// isNumericNoise matches page-number debris: digits with only periods and
// hyphens around them.
func isNumericNoise(text string) bool {
	stripped := strings.Map(func(r rune) rune {
		if r == '.' || r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func startsLower(text string) bool {
	r, _ := utf8.DecodeRuneInString(text)
	return unicode.IsLower(r)
}

// looksLikeMath flags equation-shaped text. Function calls are only math
// when they are not a capitalized word followed by parenthesized prose,
// so the single-letter operator form is checked first.
func looksLikeMath(text string) bool {
	if mathExprRe.MatchString(text) {
		return true
	}
	if labelRe.MatchString(text) {
		return true
	}
	return funcCallRe.MatchString(text)
}
