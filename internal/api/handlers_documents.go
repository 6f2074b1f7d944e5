package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/papertoc/papertoc/internal/search"
	"github.com/papertoc/papertoc/internal/storage"
	"github.com/papertoc/papertoc/internal/toc"
)

type documentResponse struct {
	ID            string    `json:"doc_id"`
	Filename      string    `json:"filename"`
	DocumentTitle string    `json:"document_title,omitempty"`
	TotalPages    int       `json:"total_pages"`
	TitlesFound   int       `json:"titles_found"`
	Model         string    `json:"model,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toDocumentResponse(doc *storage.Document) documentResponse {
	return documentResponse{
		ID:            doc.ID,
		Filename:      doc.Filename,
		DocumentTitle: doc.DocumentTitle,
		TotalPages:    doc.TotalPages,
		TitlesFound:   doc.TitlesFound,
		Model:         doc.Model,
		CreatedAt:     doc.CreatedAt,
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.stores.Documents.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, toDocumentResponse(&docs[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": out})
}

// getDocument resolves the docID URL parameter, writing a 404 on miss.
func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) *storage.Document {
	docID := chi.URLParam(r, "docID")
	doc, err := s.stores.Documents.GetByID(r.Context(), docID)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return nil
	}
	if err != nil {
		jsonError(w, "failed to load document: "+err.Error(), http.StatusInternalServerError)
		return nil
	}
	return doc
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc := s.getDocument(w, r)
	if doc == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toDocumentResponse(doc))
}

func (s *Server) handleGetTitles(w http.ResponseWriter, r *http.Request) {
	doc := s.getDocument(w, r)
	if doc == nil {
		return
	}
	rows, err := s.stores.Titles.ListByDocument(r.Context(), doc.ID)
	if err != nil {
		jsonError(w, "failed to list titles: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type titleResponse struct {
		Index        int    `json:"index"`
		Title        string `json:"title"`
		Page         *int   `json:"page"`
		OriginalText string `json:"original_text"`
	}
	out := make([]titleResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, titleResponse{
			Index:        row.Position + 1,
			Title:        row.Title,
			Page:         row.Page,
			OriginalText: row.OriginalText,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id": doc.ID,
		"titles": out,
	})
}

func (s *Server) handleGetChunks(w http.ResponseWriter, r *http.Request) {
	doc := s.getDocument(w, r)
	if doc == nil {
		return
	}
	rows, err := s.stores.Chunks.ListByDocument(r.Context(), doc.ID)
	if err != nil {
		jsonError(w, "failed to list chunks: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type chunkResponse struct {
		Index         int    `json:"index"`
		Title         string `json:"title"`
		Content       string `json:"content"`
		Page          int    `json:"page"`
		ContentLength int    `json:"content_length"`
	}
	out := make([]chunkResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, chunkResponse{
			Index:         row.ChunkIndex,
			Title:         row.Title,
			Content:       row.Content,
			Page:          row.Page,
			ContentLength: row.ContentLength,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id": doc.ID,
		"chunks": out,
	})
}

func (s *Server) handleGetTOC(w http.ResponseWriter, r *http.Request) {
	doc := s.getDocument(w, r)
	if doc == nil {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "markdown"
	}
	switch format {
	case "markdown":
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"doc_id":           doc.ID,
			"format":           format,
			"ai_generated_toc": doc.TOCMarkdown,
			"model":            doc.Model,
		})
	case "html":
		html, err := toc.RenderHTML(doc.TOCMarkdown)
		if err != nil {
			jsonError(w, "failed to render toc: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"doc_id":           doc.ID,
			"format":           format,
			"ai_generated_toc": html,
			"model":            doc.Model,
		})
	default:
		jsonError(w, "unsupported format: "+format, http.StatusBadRequest)
	}
}

func (s *Server) handleSearchChunks(w http.ResponseWriter, r *http.Request) {
	doc := s.getDocument(w, r)
	if doc == nil {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	maxResults := 0
	if v := r.URL.Query().Get("max"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			maxResults = n
		}
	}

	hits, err := s.index.Search(doc.ID, query, maxResults)
	if errors.Is(err, search.ErrNotIndexed) {
		// Index lost on restart; rebuild from stored chunks.
		if err := s.reindexDocument(r, doc.ID); err != nil {
			jsonError(w, "failed to rebuild index: "+err.Error(), http.StatusInternalServerError)
			return
		}
		hits, err = s.index.Search(doc.ID, query, maxResults)
	}
	if err != nil {
		jsonError(w, "search failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":     doc.ID,
		"query":      query,
		"total_hits": len(hits),
		"results":    hits,
	})
}

func (s *Server) reindexDocument(r *http.Request, docID string) error {
	rows, err := s.stores.Chunks.ListByDocument(r.Context(), docID)
	if err != nil {
		return err
	}
	docs := make([]search.ChunkDoc, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, search.ChunkDoc{
			ID:         row.ID,
			Title:      row.Title,
			Content:    row.Content,
			Page:       row.Page,
			ChunkIndex: row.ChunkIndex,
		})
	}
	return s.index.IndexDocument(docID, docs)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	err := s.stores.Documents.Delete(r.Context(), docID)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.index.Remove(docID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": docID})
}
