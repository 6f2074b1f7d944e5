package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

const (
	defaultMaxResults = 10
	maxResultsCap     = 20
	batchSize         = 100
)

// ChunkDoc is the indexed representation of a section chunk.
type ChunkDoc struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
}

// Hit is one search result with its relevance score.
type Hit struct {
	Chunk ChunkDoc `json:"chunk"`
	Score float64  `json:"score"`
}

// Manager keeps one in-memory full-text index per processed document.
// Documents are small (tens of chunks), so memory-only indexes are rebuilt
// from SQLite on restart rather than persisted.
type Manager struct {
	mu      sync.RWMutex
	indexes map[string]bleve.Index
}

func NewManager() *Manager {
	return &Manager{
		indexes: make(map[string]bleve.Index),
	}
}

// IndexDocument builds the index for a document, replacing any existing one.
func (m *Manager) IndexDocument(docID string, chunks []ChunkDoc) error {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	batch := index.NewBatch()
	for i, chunk := range chunks {
		if err := batch.Index(chunk.ID, chunk); err != nil {
			_ = index.Close()
			return fmt.Errorf("batch chunk %s: %w", chunk.ID, err)
		}
		if (i+1)%batchSize == 0 {
			if err := index.Batch(batch); err != nil {
				_ = index.Close()
				return fmt.Errorf("index batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			_ = index.Close()
			return fmt.Errorf("index final batch: %w", err)
		}
	}

	m.mu.Lock()
	old := m.indexes[docID]
	m.indexes[docID] = index
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// ErrNotIndexed is returned when a document has no search index.
var ErrNotIndexed = fmt.Errorf("document not indexed")

// Search runs a full-text match query against one document's chunks.
// maxResults is clamped to [1, 20]; zero means the default of 10.
func (m *Manager) Search(docID, query string, maxResults int) ([]Hit, error) {
	m.mu.RLock()
	index, ok := m.indexes[docID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotIndexed
	}

	if maxResults <= 0 || maxResults > maxResultsCap {
		maxResults = defaultMaxResults
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = maxResults
	req.Fields = []string{"*"}

	res, err := index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		chunk := ChunkDoc{ID: hit.ID}
		if title, ok := hit.Fields["title"].(string); ok {
			chunk.Title = title
		}
		if content, ok := hit.Fields["content"].(string); ok {
			chunk.Content = content
		}
		if page, ok := hit.Fields["page"].(float64); ok {
			chunk.Page = int(page)
		}
		if idx, ok := hit.Fields["chunk_index"].(float64); ok {
			chunk.ChunkIndex = int(idx)
		}
		hits = append(hits, Hit{Chunk: chunk, Score: hit.Score})
	}
	return hits, nil
}

// Remove drops a document's index, if present.
func (m *Manager) Remove(docID string) {
	m.mu.Lock()
	index := m.indexes[docID]
	delete(m.indexes, docID)
	m.mu.Unlock()

	if index != nil {
		_ = index.Close()
	}
}

// Close releases all indexes.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, index := range m.indexes {
		_ = index.Close()
		delete(m.indexes, id)
	}
}
