package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// Insert inserts a document record.
	Insert(ctx context.Context, doc *Document) error
	// GetByID gets a document by ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*Document, error)
	// FindByHash looks a document up by its full content hash.
	// Returns nil and ErrNotFound if no document has that hash.
	FindByHash(ctx context.Context, hash string) (*Document, error)
	// List returns all documents, newest first.
	List(ctx context.Context) ([]Document, error)
	// Delete removes a document and, via cascade, its titles and chunks.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo implements DocumentStore over SQLite.
type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Insert(ctx context.Context, doc *Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, content_hash, document_title, toc_markdown, total_pages, titles_found, model)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.ContentHash, doc.DocumentTitle, doc.TOCMarkdown,
		doc.TotalPages, doc.TitlesFound, doc.Model,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*Document, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, filename, content_hash, document_title, toc_markdown, total_pages, titles_found, model, created_at
		 FROM documents WHERE id = ?`, id))
}

func (r *DocumentRepo) FindByHash(ctx context.Context, hash string) (*Document, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, filename, content_hash, document_title, toc_markdown, total_pages, titles_found, model, created_at
		 FROM documents WHERE content_hash = ?`, hash))
}

func (r *DocumentRepo) scanOne(row *sql.Row) (*Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.Filename, &doc.ContentHash, &doc.DocumentTitle,
		&doc.TOCMarkdown, &doc.TotalPages, &doc.TitlesFound, &doc.Model, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepo) List(ctx context.Context) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, content_hash, document_title, toc_markdown, total_pages, titles_found, model, created_at
		 FROM documents ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.ContentHash, &doc.DocumentTitle,
			&doc.TOCMarkdown, &doc.TotalPages, &doc.TitlesFound, &doc.Model, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
