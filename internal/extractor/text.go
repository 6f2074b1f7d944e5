package extractor

import (
	"bufio"
	"io"
	"strings"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// TextExtractor handles plain text. Each blank-line-separated paragraph
// becomes one block with no spans and no page: the classifier runs on
// structural patterns alone, and titles surface without page numbers.
type TextExtractor struct{}

func (e *TextExtractor) Extract(r io.Reader, filename string) ([]docmodel.Block, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var blocks []docmodel.Block
	var current strings.Builder

	flush := func() {
		if t := strings.TrimSpace(current.String()); t != "" {
			blocks = append(blocks, docmodel.Block{Text: t})
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// splitParagraphs splits text on blank lines, trimming each paragraph.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
