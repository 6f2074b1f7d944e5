package structure

import (
	"strings"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// BuildChunks walks the classified block sequence in document order and
// groups every run of body blocks under its nearest preceding title block.
// Grouping trusts the raw classifier/override verdicts: a title the
// validator later rejects from the display list still anchors its chunk.
//
// Content preceding the first title is discarded, sections whose joined
// text is under the minimum length are dropped (not merged forward), and
// indices increase strictly across the whole document. A document with no
// title blocks produces no chunks.
func BuildChunks(blocks []docmodel.Block, h Heuristics) []docmodel.SectionChunk {
	var chunks []docmodel.SectionChunk
	var title string
	var page int
	var content []string
	index := 0
	open := false

	flush := func() {
		if !open {
			return
		}
		joined := strings.Join(content, "\n\n")
		if len(joined) >= h.MinChunkLen {
			chunks = append(chunks, docmodel.SectionChunk{
				Index:         index,
				Title:         title,
				Content:       joined,
				Page:          page,
				ContentLength: len(joined),
			})
			index++
		}
	}

	for _, b := range blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		if b.Verdict.IsTitle() {
			flush()
			title = text
			page = b.Page
			content = []string{text}
			open = true
			continue
		}
		if open {
			content = append(content, text)
		}
	}
	flush()

	return chunks
}
