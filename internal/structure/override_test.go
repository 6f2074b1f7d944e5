package structure

import (
	"testing"

	"github.com/papertoc/papertoc/internal/docmodel"
)

func TestFirstPageOverride_MarksFirstSubstantialBlock(t *testing.T) {
	blocks := []docmodel.Block{
		{Text: "3", Page: 1, Verdict: docmodel.Body},
		{Text: "A Study of Widgets", Page: 1, Verdict: docmodel.Body},
		{Text: "Alice Smith", Page: 1, Verdict: docmodel.Body},
	}
	blocks = ApplyFirstPageOverride(blocks, DefaultHeuristics())

	if blocks[1].Verdict != docmodel.ForcedTitle {
		t.Errorf("expected block 1 to be forced title, got %v", blocks[1].Verdict)
	}
	if !blocks[1].IsDocumentTitle {
		t.Error("expected block 1 to be the document title")
	}
	if blocks[2].Verdict != docmodel.Body {
		t.Error("expected scan to stop after the first qualifying block")
	}
}

func TestFirstPageOverride_SkipsNumericAndShortBlocks(t *testing.T) {
	blocks := []docmodel.Block{
		{Text: "12-34", Page: 1, Verdict: docmodel.Body},     // numeric noise
		{Text: "Preface!", Page: 1, Verdict: docmodel.Body},  // 8 chars: passes the skip, too short to qualify
		{Text: "A Longer Proper Title", Page: 1, Verdict: docmodel.Body},
	}
	blocks = ApplyFirstPageOverride(blocks, DefaultHeuristics())

	if blocks[0].Verdict != docmodel.Body || blocks[1].Verdict != docmodel.Body {
		t.Error("expected noise and short blocks to stay body")
	}
	if blocks[2].Verdict != docmodel.ForcedTitle {
		t.Errorf("expected block 2 to be forced title, got %v", blocks[2].Verdict)
	}
}

func TestFirstPageOverride_OnlyTouchesPageOne(t *testing.T) {
	blocks := []docmodel.Block{
		{Text: "A Perfectly Good Heading", Page: 2, Verdict: docmodel.Body},
	}
	blocks = ApplyFirstPageOverride(blocks, DefaultHeuristics())
	if blocks[0].Verdict != docmodel.Body {
		t.Error("expected page-2 blocks to be untouched")
	}
}

func TestFirstPageOverride_UpgradesExistingTitle(t *testing.T) {
	blocks := []docmodel.Block{
		{Text: "A Study of Widgets", Page: 1, Verdict: docmodel.Title},
	}
	blocks = ApplyFirstPageOverride(blocks, DefaultHeuristics())
	if blocks[0].Verdict != docmodel.ForcedTitle {
		t.Errorf("expected title verdict upgraded to forced, got %v", blocks[0].Verdict)
	}
}

func TestFirstPageOverride_NoSubstantialBlocks(t *testing.T) {
	blocks := []docmodel.Block{
		{Text: "7", Page: 1, Verdict: docmodel.Body},
		{Text: "ii", Page: 1, Verdict: docmodel.Body},
	}
	blocks = ApplyFirstPageOverride(blocks, DefaultHeuristics())
	for i, b := range blocks {
		if b.Verdict != docmodel.Body || b.IsDocumentTitle {
			t.Errorf("expected block %d unchanged", i)
		}
	}
}
