package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/papertoc/papertoc/internal/search"
	"github.com/papertoc/papertoc/internal/storage"
	"github.com/papertoc/papertoc/internal/structure"
	"github.com/papertoc/papertoc/internal/toc"
)

// fakeStore is an in-memory implementation of the three storage interfaces.
type fakeStore struct {
	mu     sync.Mutex
	docs   map[string]*storage.Document
	titles []storage.TitleRow
	chunks []storage.ChunkRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]*storage.Document)}
}

func (f *fakeStore) Insert(ctx context.Context, doc *storage.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*storage.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[id]; ok {
		return doc, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) FindByHash(ctx context.Context, hash string) (*storage.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs {
		if doc.ContentHash == hash {
			return doc, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) List(ctx context.Context) ([]storage.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Document
	for _, doc := range f.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

type fakeTitleStore struct{ f *fakeStore }

func (s fakeTitleStore) InsertAll(ctx context.Context, rows []storage.TitleRow) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.titles = append(s.f.titles, rows...)
	return nil
}

func (s fakeTitleStore) ListByDocument(ctx context.Context, documentID string) ([]storage.TitleRow, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []storage.TitleRow
	for _, row := range s.f.titles {
		if row.DocumentID == documentID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeChunkStore struct{ f *fakeStore }

func (s fakeChunkStore) InsertAll(ctx context.Context, rows []storage.ChunkRow) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.chunks = append(s.f.chunks, rows...)
	return nil
}

func (s fakeChunkStore) ListByDocument(ctx context.Context, documentID string) ([]storage.ChunkRow, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []storage.ChunkRow
	for _, row := range s.f.chunks {
		if row.DocumentID == documentID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s fakeChunkStore) GetByID(ctx context.Context, id string) (*storage.ChunkRow, error) {
	return nil, storage.ErrNotFound
}

// fakeFormatter returns canned responses and records call counts.
type fakeFormatter struct {
	mu     sync.Mutex
	calls  int
	output string
	errs   []error
}

func (f *fakeFormatter) FormatTOC(ctx context.Context, prompt string) (string, toc.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.calls
	f.calls++
	if call < len(f.errs) && f.errs[call] != nil {
		return "", toc.Usage{}, f.errs[call]
	}
	return f.output, toc.Usage{PromptTokens: 100, CompletionTokens: 40}, nil
}

func (f *fakeFormatter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const sampleMarkdown = `# A Study of Widgets

This opening paragraph describes the motivation for studying widgets in depth and runs long enough to survive the minimum chunk length filter applied downstream.

## Introduction

Widgets are everywhere. This section introduces the problem space with enough prose that the assembled chunk comfortably exceeds one hundred characters of content.

## Methods

We measured widget alignment with a calibrated sprocket under repeatable laboratory conditions, recording every run for later statistical analysis.
`

func newTestWorker(t *testing.T, store *fakeStore, formatter TOCFormatter) (*Worker, *search.Manager) {
	t.Helper()
	index := search.NewManager()
	t.Cleanup(index.Close)
	stores := Stores{
		Documents: store,
		Titles:    fakeTitleStore{f: store},
		Chunks:    fakeChunkStore{f: store},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := structure.NewEngine(structure.DefaultHeuristics())
	return &Worker{
		engine:    engine,
		formatter: formatter,
		model:     "gpt-4-turbo-preview",
		stats:     toc.NewLLMStats(time.Hour),
		stores:    stores,
		index:     index,
		log:       log,
	}, index
}

func newMarkdownJob(id string, force bool) *Job {
	job := &Job{
		ID:        id,
		Status:    StatusQueued,
		Filename:  "study.md",
		Force:     force,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetFileData([]byte(sampleMarkdown))
	return job
}

func TestWorkerProcessCompletes(t *testing.T) {
	store := newFakeStore()
	formatter := &fakeFormatter{output: "# Table of Contents\n\n1. A Study of Widgets (Page 1)"}
	w, index := newTestWorker(t, store, formatter)

	job := newMarkdownJob("job-1", false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.DocID == "" || len(snap.DocID) != 16 {
		t.Errorf("expected 16-char doc id, got %q", snap.DocID)
	}

	doc, err := store.GetByID(context.Background(), snap.DocID)
	if err != nil {
		t.Fatalf("document not stored: %v", err)
	}
	if doc.TOCMarkdown != formatter.output {
		t.Errorf("unexpected toc %q", doc.TOCMarkdown)
	}
	if doc.Model != "gpt-4-turbo-preview" {
		t.Errorf("expected model recorded, got %q", doc.Model)
	}
	if doc.DocumentTitle != "A Study of Widgets" {
		t.Errorf("unexpected document title %q", doc.DocumentTitle)
	}

	titles, _ := fakeTitleStore{f: store}.ListByDocument(context.Background(), snap.DocID)
	if len(titles) == 0 {
		t.Error("expected stored titles")
	}
	for i, row := range titles {
		if row.Position != i {
			t.Errorf("title %d has position %d", i, row.Position)
		}
	}

	if snap.Progress.ChunksStored == 0 || snap.Progress.ChunksStored != snap.Progress.ChunksIndexed {
		t.Errorf("unexpected store counts %+v", snap.Progress)
	}

	hits, err := index.Search(snap.DocID, "sprocket", 5)
	if err != nil {
		t.Fatalf("search after indexing: %v", err)
	}
	if len(hits) == 0 {
		t.Error("expected indexed chunks to be searchable")
	}
}

func TestWorkerSkipsDuplicate(t *testing.T) {
	store := newFakeStore()
	formatter := &fakeFormatter{output: "toc"}
	w, _ := newTestWorker(t, store, formatter)

	first := newMarkdownJob("job-1", false)
	w.Process(context.Background(), first)
	if first.Snapshot().Status != StatusCompleted {
		t.Fatalf("first job: %s", first.Snapshot().Status)
	}

	second := newMarkdownJob("job-2", false)
	w.Process(context.Background(), second)
	if got := second.Snapshot().Status; got != StatusDupSkipped {
		t.Fatalf("expected duplicate_skipped, got %s", got)
	}
	if formatter.callCount() != 1 {
		t.Errorf("expected no second LLM call, got %d calls", formatter.callCount())
	}
}

func TestWorkerForceReprocesses(t *testing.T) {
	store := newFakeStore()
	formatter := &fakeFormatter{output: "toc"}
	w, _ := newTestWorker(t, store, formatter)

	w.Process(context.Background(), newMarkdownJob("job-1", false))

	forced := newMarkdownJob("job-2", true)
	w.Process(context.Background(), forced)
	if got := forced.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("expected completed on force, got %s", got)
	}
	if len(store.docs) != 1 {
		t.Errorf("expected old document replaced, have %d", len(store.docs))
	}
	if formatter.callCount() != 2 {
		t.Errorf("expected 2 LLM calls, got %d", formatter.callCount())
	}
}

func TestWorkerNoTitlesSkipsLLM(t *testing.T) {
	store := newFakeStore()
	formatter := &fakeFormatter{output: "should not be used"}
	w, _ := newTestWorker(t, store, formatter)

	job := &Job{ID: "job-1", Filename: "notes.txt", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	job.SetFileData([]byte("just some lowercase prose without any headings at all\n\nand a second paragraph"))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if formatter.callCount() != 0 {
		t.Errorf("expected zero LLM calls, got %d", formatter.callCount())
	}
	doc, err := store.GetByID(context.Background(), snap.DocID)
	if err != nil {
		t.Fatalf("document not stored: %v", err)
	}
	if doc.TOCMarkdown != toc.NoTitlesMessage {
		t.Errorf("expected fixed no-titles message, got %q", doc.TOCMarkdown)
	}
	if snap.Progress.ChunksStored != 0 {
		t.Errorf("expected zero chunks without titles, got %d", snap.Progress.ChunksStored)
	}
}

func TestWorkerRetriesThenPartial(t *testing.T) {
	store := newFakeStore()
	retryErr := &toc.RetryableError{StatusCode: 503, Message: "overloaded"}
	formatter := &fakeFormatter{errs: []error{retryErr, retryErr, retryErr}}
	w, _ := newTestWorker(t, store, formatter)

	job := newMarkdownJob("job-1", false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial after exhausted retries, got %s", snap.Status)
	}
	if formatter.callCount() != MaxLLMAttempts {
		t.Errorf("expected %d attempts, got %d", MaxLLMAttempts, formatter.callCount())
	}
	doc, err := store.GetByID(context.Background(), snap.DocID)
	if err != nil {
		t.Fatalf("document should still be stored: %v", err)
	}
	if doc.TOCMarkdown != "" || doc.Model != "" {
		t.Errorf("expected empty toc on failure, got %q/%q", doc.TOCMarkdown, doc.Model)
	}
}

func TestWorkerRetryRecovers(t *testing.T) {
	store := newFakeStore()
	retryErr := &toc.RetryableError{StatusCode: 429, Message: "slow down"}
	formatter := &fakeFormatter{output: "toc", errs: []error{retryErr, nil}}
	w, _ := newTestWorker(t, store, formatter)

	job := newMarkdownJob("job-1", false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed after recovery, got %s (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if formatter.callCount() != 2 {
		t.Errorf("expected 2 attempts, got %d", formatter.callCount())
	}
}

func TestWorkerNilFormatter(t *testing.T) {
	store := newFakeStore()
	w, _ := newTestWorker(t, store, nil)

	job := newMarkdownJob("job-1", false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed without formatter, got %s", snap.Status)
	}
	doc, err := store.GetByID(context.Background(), snap.DocID)
	if err != nil {
		t.Fatalf("document not stored: %v", err)
	}
	if doc.TOCMarkdown != "" {
		t.Errorf("expected empty toc when formatting skipped, got %q", doc.TOCMarkdown)
	}
}

func TestWorkerUnsupportedExtension(t *testing.T) {
	store := newFakeStore()
	w, _ := newTestWorker(t, store, &fakeFormatter{})

	job := &Job{ID: "job-1", Filename: "archive.zip", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	job.SetFileData([]byte("zip bytes"))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", snap.Status)
	}
	if len(snap.Progress.Errors) == 0 || !strings.Contains(snap.Progress.Errors[0], "unsupported") {
		t.Errorf("expected unsupported-extension error, got %v", snap.Progress.Errors)
	}
}
