package structure

import (
	"strings"
	"unicode/utf8"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// ApplyFirstPageOverride force-designates the paper's main title. Document
// titles are routinely set in typefaces the classifier does not trust
// (large but not bold, ornamental fonts), so the first substantial block on
// page 1 gets a second chance after classification.
//
// The scan skips short blocks and page-number debris, marks the first block
// whose trimmed text exceeds the minimum length, and stops. Pages other
// than 1 are never touched, and a block already classified keeps its Title
// verdict upgraded to ForcedTitle rather than reset.
func ApplyFirstPageOverride(blocks []docmodel.Block, h Heuristics) []docmodel.Block {
	for i := range blocks {
		if blocks[i].Page != 1 {
			continue
		}
		text := strings.TrimSpace(blocks[i].Text)
		n := utf8.RuneCountInString(text)
		if n <= h.OverrideSkipLen {
			continue
		}
		if isNumericNoise(text) {
			continue
		}
		if n > h.OverrideMinLen {
			blocks[i].Verdict = docmodel.ForcedTitle
			blocks[i].IsDocumentTitle = true
			return blocks
		}
	}
	return blocks
}
