package extractor

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// PDFExtractor reads native PDFs. The library reports per-glyph text runs
// with font name, size and position; runs are grouped into lines by Y and
// lines into blocks by vertical gaps. Bold is inferred from the font name,
// the only weight signal the format exposes here.
//
// When the library fails and FallbackPdftotext is set, pdftotext output is
// used instead; that path has no font metadata, so only the structural
// classifier rules apply to its blocks.
type PDFExtractor struct {
	FallbackPdftotext bool
}

const (
	// Runs within this Y distance belong to one line.
	lineTolerance = 2.0
	// A gap above gapFactor * font size starts a new block.
	gapFactor = 1.6
)

func (e *PDFExtractor) Extract(r io.Reader, filename string) ([]docmodel.Block, error) {
	// The pdf library requires a ReadSeeker plus size, so spool to a temp file.
	tmp, err := os.CreateTemp("", "papertoc-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	blocks, err := extractPDFBlocks(tmpPath)
	if err != nil && e.FallbackPdftotext {
		return extractPdftotextBlocks(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf: %w", err)
	}
	return blocks, nil
}

func extractPDFBlocks(path string) ([]docmodel.Block, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var blocks []docmodel.Block
	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}
		blocks = append(blocks, groupPageText(content.Text, pageNum)...)
	}
	return blocks, nil
}

// pdfLine is one reassembled text line with its merged font spans.
type pdfLine struct {
	y     float64
	size  float64
	text  string
	spans []docmodel.Span
}

// groupPageText reassembles glyph runs into lines and lines into blocks.
// PDF Y grows upward, so lines are ordered top-to-bottom by descending Y.
func groupPageText(texts []pdflib.Text, pageNum int) []docmodel.Block {
	sorted := make([]pdflib.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > lineTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []pdfLine
	for _, t := range sorted {
		if len(lines) == 0 || math.Abs(lines[len(lines)-1].y-t.Y) > lineTolerance {
			lines = append(lines, pdfLine{y: t.Y, size: t.FontSize})
		}
		line := &lines[len(lines)-1]
		line.text += t.S
		if t.FontSize > line.size {
			line.size = t.FontSize
		}
		// Merge consecutive runs sharing font and size into one span.
		bold := strings.Contains(t.Font, "Bold")
		if n := len(line.spans); n > 0 && line.spans[n-1].FontSize == t.FontSize && line.spans[n-1].Bold == bold {
			line.spans[n-1].Text += t.S
		} else {
			line.spans = append(line.spans, docmodel.Span{
				Text:     t.S,
				FontSize: t.FontSize,
				Bold:     bold,
				Page:     pageNum,
			})
		}
	}

	var blocks []docmodel.Block
	var cur docmodel.Block
	var curLines []string
	lastY := math.Inf(1)
	lastSize := 0.0

	flush := func() {
		text := strings.TrimSpace(strings.Join(curLines, "\n"))
		if text != "" {
			cur.Text = text
			cur.Page = pageNum
			blocks = append(blocks, cur)
		}
		cur = docmodel.Block{}
		curLines = nil
	}

	for _, line := range lines {
		text := strings.TrimSpace(line.text)
		if text == "" {
			continue
		}
		gap := lastY - line.y
		if len(curLines) > 0 && gap > gapFactor*math.Max(line.size, lastSize) {
			flush()
		}
		curLines = append(curLines, text)
		cur.Spans = append(cur.Spans, line.spans...)
		lastY = line.y
		lastSize = line.size
	}
	flush()

	return blocks
}

// extractPdftotextBlocks shells out to pdftotext and splits the result into
// form-feed pages and blank-line paragraphs. No spans: no font signal.
func extractPdftotextBlocks(path string) ([]docmodel.Block, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	var blocks []docmodel.Block
	for i, page := range strings.Split(string(out), "\f") {
		for _, para := range splitParagraphs(page) {
			blocks = append(blocks, docmodel.Block{
				Text: para,
				Page: i + 1,
			})
		}
	}
	return blocks, nil
}
