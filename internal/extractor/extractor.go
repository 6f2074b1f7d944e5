package extractor

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// Extractor converts raw document bytes into the page-ordered block sequence
// the structure engine consumes. The engine never segments text itself; all
// line/block grouping happens here, at the extractor boundary.
type Extractor interface {
	Extract(r io.Reader, filename string) ([]docmodel.Block, error)
}

// Synthetic span sizes for formats that declare headings structurally
// instead of typographically. Chosen so a level-1 heading clears the 1.2x
// salience ratio against the body size.
const (
	bodyFontSize    = 10.0
	h1FontSize      = 20.0
	headingSizeStep = 2.0
)

func headingFontSize(level int) float64 {
	size := h1FontSize - headingSizeStep*float64(level-1)
	if size < bodyFontSize {
		size = bodyFontSize
	}
	return size
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".json":     true, // PyMuPDF-style stext JSON
	".docx":     true,
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".pdf":
		return &PDFExtractor{}, nil
	case ".json":
		return &StextExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".txt":
		return &TextExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}
