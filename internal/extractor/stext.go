package extractor

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// StextExtractor reads the JSON dump of a PyMuPDF-style structured-text
// extraction: pages holding blocks, blocks holding lines, lines holding
// spans with font size and flag bits. This is the canonical input shape:
// font metadata survives intact, so every classifier signal is available.
type StextExtractor struct{}

// boldFlag is the bold bit in the span flags word.
const boldFlag = 1 << 4

type stextDocument struct {
	Pages []stextPage `json:"pages"`
}

type stextPage struct {
	Number int          `json:"number"`
	Blocks []stextBlock `json:"blocks"`
}

type stextBlock struct {
	Lines []stextLine `json:"lines"`
}

type stextLine struct {
	Spans []stextSpan `json:"spans"`
}

type stextSpan struct {
	Text  string  `json:"text"`
	Size  float64 `json:"size"`
	Flags int     `json:"flags"`
}

func (e *StextExtractor) Extract(r io.Reader, filename string) ([]docmodel.Block, error) {
	var doc stextDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode stext json: %w", err)
	}

	var blocks []docmodel.Block
	for i, page := range doc.Pages {
		pageNum := page.Number
		if pageNum <= 0 {
			pageNum = i + 1
		}
		for _, sb := range page.Blocks {
			var lines []string
			var spans []docmodel.Span
			for _, line := range sb.Lines {
				var lineText strings.Builder
				for _, s := range line.Spans {
					lineText.WriteString(s.Text)
					spans = append(spans, docmodel.Span{
						Text:     s.Text,
						FontSize: s.Size,
						Bold:     s.Flags&boldFlag != 0,
						Page:     pageNum,
					})
				}
				if t := strings.TrimSpace(lineText.String()); t != "" {
					lines = append(lines, t)
				}
			}
			text := strings.TrimSpace(strings.Join(lines, "\n"))
			if text == "" {
				continue
			}
			blocks = append(blocks, docmodel.Block{
				Text:  text,
				Spans: spans,
				Page:  pageNum,
			})
		}
	}
	return blocks, nil
}
