package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/papertoc/papertoc/internal/extractor"
	"github.com/papertoc/papertoc/internal/search"
	"github.com/papertoc/papertoc/internal/storage"
	"github.com/papertoc/papertoc/internal/structure"
	"github.com/papertoc/papertoc/internal/toc"
)

// MaxLLMAttempts bounds retries of the TOC formatting call.
const MaxLLMAttempts = 3

// TOCFormatter formats an ordered title prompt into markdown.
type TOCFormatter interface {
	FormatTOC(ctx context.Context, prompt string) (string, toc.Usage, error)
}

// Stores bundles the persistence repositories the worker writes to.
type Stores struct {
	Documents storage.DocumentStore
	Titles    storage.TitleStore
	Chunks    storage.ChunkStore
}

// Worker processes a single document job end to end.
type Worker struct {
	engine      *structure.Engine
	formatter   TOCFormatter
	model       string
	stats       *toc.LLMStats
	stores      Stores
	index       *search.Manager
	log         *slog.Logger
	pdfFallback bool
}

func NewWorker(engine *structure.Engine, formatter TOCFormatter, model string, stats *toc.LLMStats, stores Stores, index *search.Manager, log *slog.Logger, pdfFallback bool) *Worker {
	return &Worker{
		engine:      engine,
		formatter:   formatter,
		model:       model,
		stats:       stats,
		stores:      stores,
		index:       index,
		log:         log,
		pdfFallback: pdfFallback,
	}
}

// Process runs the full pipeline for a job: extract, classify, format, store.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Extract blocks from the uploaded bytes.
	job.SetStatus(StatusExtracting, "extracting")
	ex, err := extractor.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	if pdf, ok := ex.(*extractor.PDFExtractor); ok {
		pdf.FallbackPdftotext = w.pdfFallback
	}

	data := job.FileData()
	blocks, err := ex.Extract(bytes.NewReader(data), job.Filename)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	// Phase 1.5: Dedup on the content hash of the raw upload.
	hash := ContentHashHex(data)
	docID := DocIDFromHash(hash)
	job.SetDocID(docID, hash)

	existing, err := w.stores.Documents.FindByHash(ctx, hash)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Warn("dedup check failed, proceeding", "error", err)
	}
	if existing != nil {
		if !job.Force {
			log.Info("duplicate document, skipping", "doc_id", existing.ID)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
		log.Info("forced reprocess, replacing existing document", "doc_id", existing.ID)
		if err := w.stores.Documents.Delete(ctx, existing.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Error("failed to replace existing document", "error", err)
			job.AddError(fmt.Sprintf("replace: %s", err))
			job.SetStatus(StatusFailed, "dedup")
			return
		}
		w.index.Remove(existing.ID)
	}

	// Phase 2: Classify blocks and assemble titles and chunks.
	job.SetStatus(StatusClassifying, "classifying")
	result := w.engine.Run(blocks)
	job.SetBlockCounts(len(blocks), result.TitlesFound)
	log.Info("classified document", "blocks", len(blocks), "titles", result.TitlesFound, "chunks", len(result.Chunks))

	// Phase 3: Format the table of contents.
	job.SetStatus(StatusFormatting, "formatting")
	hadErrors := false
	tocMarkdown, modelUsed := "", ""
	switch {
	case len(result.Titles) == 0:
		tocMarkdown = toc.NoTitlesMessage
	case w.formatter == nil:
		log.Warn("no LLM configured, skipping toc formatting")
	default:
		prompt := toc.BuildPrompt(result.Titles)
		start := time.Now()
		res, err := retry.DoWithData(
			func() (formatResult, error) {
				out, usage, err := w.formatter.FormatTOC(ctx, prompt)
				return formatResult{markdown: out, usage: usage}, err
			},
			retry.Context(ctx),
			retry.Attempts(MaxLLMAttempts),
			retry.RetryIf(toc.IsRetryable),
			retry.LastErrorOnly(true),
		)
		if w.stats != nil {
			w.stats.Record(time.Since(start).Milliseconds(), res.usage)
		}
		if err != nil {
			log.Error("toc formatting failed", "error", err)
			job.AddError(fmt.Sprintf("format: %s", err))
			hadErrors = true
		} else {
			tocMarkdown = res.markdown
			modelUsed = w.model
		}
	}

	// Phase 4: Persist and index.
	job.SetStatus(StatusStoring, "storing")
	doc := &storage.Document{
		ID:            docID,
		Filename:      job.Filename,
		ContentHash:   hash,
		DocumentTitle: result.DocumentTitle,
		TOCMarkdown:   tocMarkdown,
		TotalPages:    result.TotalPages,
		TitlesFound:   result.TitlesFound,
		Model:         modelUsed,
	}
	if err := w.stores.Documents.Insert(ctx, doc); err != nil {
		log.Error("document insert failed", "error", err)
		job.AddError(fmt.Sprintf("store document: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	titleRows := make([]storage.TitleRow, 0, len(result.Titles))
	for i, t := range result.Titles {
		titleRows = append(titleRows, storage.TitleRow{
			ID:           uuid.NewString(),
			DocumentID:   docID,
			Position:     i,
			Title:        t.Title,
			Page:         t.Page,
			OriginalText: t.OriginalText,
		})
	}
	if err := w.stores.Titles.InsertAll(ctx, titleRows); err != nil {
		log.Error("title insert failed", "error", err)
		job.AddError(fmt.Sprintf("store titles: %s", err))
		hadErrors = true
	}

	chunkRows := make([]storage.ChunkRow, 0, len(result.Chunks))
	for _, c := range result.Chunks {
		chunkRows = append(chunkRows, storage.ChunkRow{
			ID:            uuid.NewString(),
			DocumentID:    docID,
			ChunkIndex:    c.Index,
			Title:         c.Title,
			Content:       c.Content,
			Page:          c.Page,
			ContentLength: c.ContentLength,
		})
	}
	stored := 0
	if err := w.stores.Chunks.InsertAll(ctx, chunkRows); err != nil {
		log.Error("chunk insert failed", "error", err)
		job.AddError(fmt.Sprintf("store chunks: %s", err))
		hadErrors = true
	} else {
		stored = len(chunkRows)
	}

	indexed := 0
	if stored > 0 {
		docs := make([]search.ChunkDoc, 0, len(chunkRows))
		for _, row := range chunkRows {
			docs = append(docs, search.ChunkDoc{
				ID:         row.ID,
				Title:      row.Title,
				Content:    row.Content,
				Page:       row.Page,
				ChunkIndex: row.ChunkIndex,
			})
		}
		if err := w.index.IndexDocument(docID, docs); err != nil {
			log.Error("chunk indexing failed", "error", err)
			job.AddError(fmt.Sprintf("index: %s", err))
			hadErrors = true
		} else {
			indexed = len(docs)
		}
	}
	job.SetStored(stored, indexed)
	log.Info("storage complete", "chunks_stored", stored, "chunks_indexed", indexed)

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

type formatResult struct {
	markdown string
	usage    toc.Usage
}
