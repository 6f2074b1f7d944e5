package docmodel

// Span is one contiguous run of text sharing font metadata, as reported
// by the page extractor.
type Span struct {
	Text     string  `json:"text"`
	FontSize float64 `json:"size"`
	Bold     bool    `json:"bold"`
	Page     int     `json:"page"`
}

// Verdict is the classification state of a block. The classifier produces
// Body or Title; the first-page override promotes at most one page-1 block
// to ForcedTitle. A ForcedTitle is never demoted.
type Verdict int

const (
	Unclassified Verdict = iota
	Body
	Title
	ForcedTitle
)

func (v Verdict) String() string {
	switch v {
	case Body:
		return "body"
	case Title:
		return "title"
	case ForcedTitle:
		return "forced_title"
	default:
		return "unclassified"
	}
}

// IsTitle reports whether the block anchors a section (classifier or override).
func (v Verdict) IsTitle() bool {
	return v == Title || v == ForcedTitle
}

// Block is an extractor-grouped unit of one or more contiguous lines
// (a paragraph, a heading, a caption). Text is the span text concatenated
// with line breaks and trimmed. Page is 1-based; 0 means the source format
// has no pages.
type Block struct {
	Text  string `json:"text"`
	Spans []Span `json:"spans"`
	Page  int    `json:"page"`

	Verdict         Verdict `json:"-"`
	IsDocumentTitle bool    `json:"-"`
}

// PageStats holds the per-page font baseline. Valid is false when the page
// had no spans to measure, in which case no font signal is available.
type PageStats struct {
	Page   int
	Median float64
	Valid  bool
}

// TitleRecord is one entry of the assembled table-of-contents list.
// Order is document order and must never be re-sorted. Page is nil when
// the source format is unpaged. OriginalText keeps the page-suffixed
// display form for traceability.
type TitleRecord struct {
	Title        string `json:"title"`
	Page         *int   `json:"page"`
	OriginalText string `json:"original_text"`
}

// SectionChunk is one title-anchored content unit: the title block's text
// plus every following body block up to the next title.
type SectionChunk struct {
	Index         int    `json:"index"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Page          int    `json:"page"`
	ContentLength int    `json:"content_length"`
}

// Result is the complete output of one structure-detection pass.
type Result struct {
	DocumentTitle string         `json:"document_title"`
	Titles        []TitleRecord  `json:"titles"`
	Chunks        []SectionChunk `json:"chunks"`
	TotalPages    int            `json:"total_pages"`
	TitlesFound   int            `json:"titles_found"`
}
