package extractor

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// MarkdownExtractor handles Markdown via the goldmark AST. Headings carry
// their structure explicitly, so each one becomes a block with a synthetic
// bold span sized by level; everything else becomes body blocks. Markdown
// has no pages; the whole document is treated as page 1.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(r io.Reader, filename string) ([]docmodel.Block, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []docmodel.Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok {
			title := strings.TrimSpace(string(heading.Text(src)))
			if title == "" {
				continue
			}
			blocks = append(blocks, headingBlock(title, heading.Level, 1))
			continue
		}
		if t := extractNodeText(n, src); t != "" {
			blocks = append(blocks, bodyTextBlock(t, 1))
		}
	}
	return blocks, nil
}

// headingBlock builds a block carrying a synthetic heading span.
func headingBlock(title string, level, page int) docmodel.Block {
	return docmodel.Block{
		Text: title,
		Page: page,
		Spans: []docmodel.Span{{
			Text:     title,
			FontSize: headingFontSize(level),
			Bold:     true,
			Page:     page,
		}},
	}
}

// bodyTextBlock builds a block carrying a synthetic body span.
func bodyTextBlock(text string, page int) docmodel.Block {
	return docmodel.Block{
		Text: text,
		Page: page,
		Spans: []docmodel.Span{{
			Text:     text,
			FontSize: bodyFontSize,
			Page:     page,
		}},
	}
}

// extractNodeText gets the text content of a goldmark AST node.
func extractNodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractNodeText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
