package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// TitleStore defines the interface for title list storage operations.
type TitleStore interface {
	// InsertAll stores a document's ordered title list in one transaction.
	// Each row's ID must be set (UUID) before calling.
	InsertAll(ctx context.Context, rows []TitleRow) error
	// ListByDocument returns a document's titles ordered by position.
	ListByDocument(ctx context.Context, documentID string) ([]TitleRow, error)
}

// TitleRepo implements TitleStore over SQLite.
type TitleRepo struct {
	db *sql.DB
}

func NewTitleRepo(db *sql.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

func (r *TitleRepo) InsertAll(ctx context.Context, rows []TitleRow) error {
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
		"INSERT INTO titles (id, document_id, position, title, page, original_text) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare title insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.ID, row.DocumentID, row.Position, row.Title, row.Page, row.OriginalText); err != nil {
			return fmt.Errorf("failed to insert title: %w", err)
		}
	}
	return tx.Commit()
}

func (r *TitleRepo) ListByDocument(ctx context.Context, documentID string) ([]TitleRow, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, document_id, position, title, page, original_text FROM titles WHERE document_id = ? ORDER BY position",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []TitleRow
	for rows.Next() {
		var row TitleRow
		if err := rows.Scan(&row.ID, &row.DocumentID, &row.Position, &row.Title, &row.Page, &row.OriginalText); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
