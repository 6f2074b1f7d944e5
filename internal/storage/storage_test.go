package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DocumentRepo {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	return NewDocumentRepo(db)
}

func testDocument(id, hash string) *Document {
	return &Document{
		ID:            id,
		Filename:      "paper.pdf",
		ContentHash:   hash,
		DocumentTitle: "A Study of Widgets",
		TOCMarkdown:   "# Table of Contents\n\n1. Abstract (Page 1)",
		TotalPages:    4,
		TitlesFound:   5,
		Model:         "gpt-4-turbo-preview",
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer db.Close()
	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate() run %d error: %v", i+1, err)
		}
	}
}

func TestDocumentRepoRoundTrip(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	doc := testDocument("abc123def4567890", "abc123def4567890ffffffffffffffffffffffffffffffffffffffffffffffff")
	if err := repo.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	got, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Filename != doc.Filename || got.TOCMarkdown != doc.TOCMarkdown || got.TitlesFound != 5 {
		t.Errorf("GetByID() mismatch: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be populated")
	}

	byHash, err := repo.FindByHash(ctx, doc.ContentHash)
	if err != nil {
		t.Fatalf("FindByHash() error: %v", err)
	}
	if byHash.ID != doc.ID {
		t.Errorf("FindByHash() returned %s, want %s", byHash.ID, doc.ID)
	}

	if _, err := repo.FindByHash(ctx, "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByHash(unknown) = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(nope) = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepoDuplicateHashRejected(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	hash := "1111111111111111aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	if err := repo.Insert(ctx, testDocument("1111111111111111", hash)); err != nil {
		t.Fatalf("first Insert() error: %v", err)
	}
	if err := repo.Insert(ctx, testDocument("2222222222222222", hash)); err == nil {
		t.Error("expected unique constraint violation for duplicate content hash")
	}
}

func TestTitleRepoOrderAndNullPage(t *testing.T) {
	docRepo := newTestDB(t)
	titleRepo := NewTitleRepo(docRepo.db)
	ctx := context.Background()

	doc := testDocument("doc1000000000000", "hash-titles")
	if err := docRepo.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	p1, p9 := 1, 9
	rows := []TitleRow{
		{ID: "t1", DocumentID: doc.ID, Position: 0, Title: "Abstract", Page: &p1, OriginalText: "Abstract (Page 1)"},
		{ID: "t2", DocumentID: doc.ID, Position: 1, Title: "Overview", Page: nil, OriginalText: "Overview"},
		{ID: "t3", DocumentID: doc.ID, Position: 2, Title: "References", Page: &p9, OriginalText: "References (Page 9)"},
	}
	if err := titleRepo.InsertAll(ctx, rows); err != nil {
		t.Fatalf("InsertAll() error: %v", err)
	}

	got, err := titleRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 titles, got %d", len(got))
	}
	if got[0].Title != "Abstract" || got[2].Title != "References" {
		t.Errorf("titles out of order: %+v", got)
	}
	if got[1].Page != nil {
		t.Errorf("expected nil page for unpaged title, got %v", *got[1].Page)
	}
	if got[2].Page == nil || *got[2].Page != 9 {
		t.Errorf("expected page 9, got %v", got[2].Page)
	}
}

func TestChunkRepoRoundTrip(t *testing.T) {
	docRepo := newTestDB(t)
	chunkRepo := NewChunkRepo(docRepo.db)
	ctx := context.Background()

	doc := testDocument("doc2000000000000", "hash-chunks")
	if err := docRepo.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	rows := []ChunkRow{
		{ID: "c1", DocumentID: doc.ID, ChunkIndex: 0, Title: "Abstract", Content: "Abstract\n\nbody", Page: 1, ContentLength: 14},
		{ID: "c2", DocumentID: doc.ID, ChunkIndex: 1, Title: "Methods", Content: "Methods\n\nmore", Page: 2, ContentLength: 13},
	}
	if err := chunkRepo.InsertAll(ctx, rows); err != nil {
		t.Fatalf("InsertAll() error: %v", err)
	}

	got, err := chunkRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument() error: %v", err)
	}
	if len(got) != 2 || got[0].ChunkIndex != 0 || got[1].Title != "Methods" {
		t.Errorf("unexpected chunks: %+v", got)
	}

	one, err := chunkRepo.GetByID(ctx, "c2")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if one.Content != "Methods\n\nmore" {
		t.Errorf("unexpected chunk content %q", one.Content)
	}
	if _, err := chunkRepo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) = %v, want ErrNotFound", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	docRepo := newTestDB(t)
	titleRepo := NewTitleRepo(docRepo.db)
	chunkRepo := NewChunkRepo(docRepo.db)
	ctx := context.Background()

	doc := testDocument("doc3000000000000", "hash-cascade")
	if err := docRepo.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if err := titleRepo.InsertAll(ctx, []TitleRow{{ID: "t1", DocumentID: doc.ID, Title: "Abstract", OriginalText: "Abstract"}}); err != nil {
		t.Fatalf("title InsertAll() error: %v", err)
	}
	if err := chunkRepo.InsertAll(ctx, []ChunkRow{{ID: "c1", DocumentID: doc.ID, Title: "Abstract", Content: "x"}}); err != nil {
		t.Fatalf("chunk InsertAll() error: %v", err)
	}

	if err := docRepo.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	titles, err := titleRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument() error: %v", err)
	}
	chunks, err := chunkRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument() error: %v", err)
	}
	if len(titles) != 0 || len(chunks) != 0 {
		t.Errorf("expected cascade delete, got %d titles %d chunks", len(titles), len(chunks))
	}

	if err := docRepo.Delete(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
}
