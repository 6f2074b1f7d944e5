package storage

import "time"

// Document is a processed document and its generated table of contents.
type Document struct {
	ID            string // first 16 hex chars of the content hash
	Filename      string
	ContentHash   string // full SHA256 hex of the uploaded bytes
	DocumentTitle string
	TOCMarkdown   string
	TotalPages    int
	TitlesFound   int
	Model         string // LLM model that formatted the TOC, empty if skipped
	CreatedAt     time.Time
}

// TitleRow is one entry of a document's ordered title list.
type TitleRow struct {
	ID           string // UUID
	DocumentID   string
	Position     int // 0-based document order
	Title        string
	Page         *int // nil when the source format has no pages
	OriginalText string
}

// ChunkRow is one title-anchored content chunk.
type ChunkRow struct {
	ID            string // UUID, shared with the search index
	DocumentID    string
	ChunkIndex    int
	Title         string
	Content       string
	Page          int
	ContentLength int
}
