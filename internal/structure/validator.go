package structure

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// Validator is the second-pass filter over display titles. The classifier
// optimizes for recall; the validator removes its characteristic false
// positives (author-name fragments, citation entries, glued footnote digits)
// before titles are surfaced externally. It filters the output list only;
// chunk grouping always trusts the raw classifier verdicts.
type Validator struct {
	h Heuristics
}

var (
	digitRunRe = regexp.MustCompile(`\d+`)

	// Stray citation sentences the classifier picks up verbatim.
	nonTitleFragments = []string{
		"As in [",
	}
)

func NewValidator(h Heuristics) *Validator {
	return &Validator{h: h}
}

// Accept validates one candidate display title. spans and stats come from
// the contributing block when available; spans may be nil (plain-text
// sources), which skips the font-consistency check.
func (v *Validator) Accept(display string, spans []docmodel.Span, stats docmodel.PageStats) bool {
	display = strings.TrimSpace(display)
	n := utf8.RuneCountInString(display)
	if n < v.h.MinDisplayLen || n > v.h.MaxDisplayLen {
		return false
	}

	// Canonical headings are never second-guessed by the stricter rules.
	if IsSectionName(display) {
		return true
	}

	for _, frag := range nonTitleFragments {
		if strings.HasPrefix(display, frag) {
			return false
		}
	}

	if len(digitRuns(display)) > v.h.MaxDigitRuns {
		return false
	}
	if countOddChars(display) > v.h.MaxOddChars {
		return false
	}
	if len(strings.Split(display, ".")) > v.h.MaxPeriodFields {
		return false
	}

	// Font-consistency: a digit run set well below the page median is a
	// footnote marker or page number the extractor glued onto the heading
	// line. The cutoff is deliberately lenient; it only catches egregious
	// cases, never legitimate numbered headings.
	if stats.Valid {
		for _, s := range spans {
			if s.FontSize >= v.h.FootnoteRatio*stats.Median {
				continue
			}
			for _, run := range digitRuns(s.Text) {
				if strings.Contains(display, run) {
					return false
				}
			}
		}
	}

	return true
}

// digitRuns returns the distinct maximal digit substrings of s.
func digitRuns(s string) []string {
	runs := digitRunRe.FindAllString(s, -1)
	seen := make(map[string]bool, len(runs))
	var out []string
	for _, r := range runs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// countOddChars counts runes outside the title alphabet
// (letters, digits, space, period, hyphen, parentheses).
func countOddChars(s string) int {
	count := 0
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == ' ' || r == '.' || r == '-' || r == '(' || r == ')':
		default:
			count++
		}
	}
	return count
}
