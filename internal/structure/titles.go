package structure

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// AssembleTitles extracts the human-facing table-of-contents list from the
// classified block sequence. Order is the order of appearance in the source
// document and is preserved verbatim: never re-sorted, never de-duplicated
// beyond what the validator rejects. Repeated author names that survive the
// validator are suppressed later by the LLM formatting prompt, not here.
func AssembleTitles(blocks []docmodel.Block, v *Validator, statsByPage map[int]docmodel.PageStats, h Heuristics) []docmodel.TitleRecord {
	var titles []docmodel.TitleRecord
	for _, b := range blocks {
		if !b.Verdict.IsTitle() {
			continue
		}
		display := DisplayTitle(b.Text, h)
		if display == "" {
			continue
		}
		if !v.Accept(display, b.Spans, statsByPage[b.Page]) {
			continue
		}
		display = truncateDisplay(display, h.DisplayTruncate)

		rec := docmodel.TitleRecord{Title: display, OriginalText: display}
		if b.Page > 0 {
			page := b.Page
			rec.Page = &page
			rec.OriginalText = fmt.Sprintf("%s (Page %d)", display, page)
		}
		titles = append(titles, rec)
	}
	return titles
}

// DisplayTitle normalizes a title block's text to a single display line:
// the first non-empty line, with the second line appended when the first is
// too short to stand alone (a bare numeric prefix like "2.1." whose heading
// word wrapped to the next line).
func DisplayTitle(text string, h Heuristics) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	display := lines[0]
	if utf8.RuneCountInString(display) < h.ShortFirstLine && len(lines) > 1 {
		display = display + " " + lines[1]
	}
	return display
}

// truncateDisplay shortens an accepted title for display. Validation always
// runs on the untruncated string.
func truncateDisplay(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
