package structure

import (
	"strings"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// Engine runs the full structure-detection pass: page statistics,
// classification, first-page override, title assembly and chunk building.
// It is pure and deterministic: the same block sequence always yields the
// same Result. It performs no I/O, so independent documents can run in
// parallel Engine instances with no shared state.
type Engine struct {
	h          Heuristics
	classifier *Classifier
	validator  *Validator
}

func NewEngine(h Heuristics) *Engine {
	return &Engine{
		h:          h,
		classifier: NewClassifier(h),
		validator:  NewValidator(h),
	}
}

// Run processes the extractor's block sequence in document order.
// Empty input is a valid empty result, not an error.
func (e *Engine) Run(blocks []docmodel.Block) docmodel.Result {
	pages := pageOrder(blocks)
	statsByPage := make(map[int]docmodel.PageStats, len(pages))
	for _, p := range pages {
		statsByPage[p] = MedianFontSize(p, blocks)
	}

	for i := range blocks {
		if e.classifier.Classify(blocks[i], statsByPage[blocks[i].Page]) {
			blocks[i].Verdict = docmodel.Title
		} else {
			blocks[i].Verdict = docmodel.Body
		}
	}

	blocks = ApplyFirstPageOverride(blocks, e.h)

	titlesFound := 0
	docTitle := ""
	for _, b := range blocks {
		if b.Verdict.IsTitle() {
			titlesFound++
		}
		if b.IsDocumentTitle && docTitle == "" {
			docTitle = DisplayTitle(strings.TrimSpace(b.Text), e.h)
		}
	}

	return docmodel.Result{
		DocumentTitle: docTitle,
		Titles:        AssembleTitles(blocks, e.validator, statsByPage, e.h),
		Chunks:        BuildChunks(blocks, e.h),
		TotalPages:    len(pages),
		TitlesFound:   titlesFound,
	}
}
