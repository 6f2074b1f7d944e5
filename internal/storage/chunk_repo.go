package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// InsertAll stores a document's chunks in one transaction.
	// Each row's ID must be set (UUID) before calling.
	InsertAll(ctx context.Context, rows []ChunkRow) error
	// ListByDocument returns a document's chunks ordered by chunk_index.
	ListByDocument(ctx context.Context, documentID string) ([]ChunkRow, error)
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*ChunkRow, error)
}

// ChunkRepo implements ChunkStore over SQLite.
type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) InsertAll(ctx context.Context, rows []ChunkRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (id, document_id, chunk_index, title, content, page, content_length) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.ID, row.DocumentID, row.ChunkIndex, row.Title, row.Content, row.Page, row.ContentLength); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}
	return tx.Commit()
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, documentID string) ([]ChunkRow, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, document_id, chunk_index, title, content, page, content_length FROM chunks WHERE document_id = ? ORDER BY chunk_index",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []ChunkRow
	for rows.Next() {
		var row ChunkRow
		if err := rows.Scan(&row.ID, &row.DocumentID, &row.ChunkIndex, &row.Title, &row.Content, &row.Page, &row.ContentLength); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*ChunkRow, error) {
	var row ChunkRow
	err := r.db.QueryRowContext(ctx,
		"SELECT id, document_id, chunk_index, title, content, page, content_length FROM chunks WHERE id = ?",
		id,
	).Scan(&row.ID, &row.DocumentID, &row.ChunkIndex, &row.Title, &row.Content, &row.Page, &row.ContentLength)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return &row, nil
}
