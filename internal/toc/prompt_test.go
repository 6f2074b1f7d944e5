package toc

import (
	"strings"
	"testing"

	"github.com/papertoc/papertoc/internal/docmodel"
)

func intPtr(n int) *int { return &n }

func TestBuildPromptPreservesOrder(t *testing.T) {
	titles := []docmodel.TitleRecord{
		{Title: "Abstract", Page: intPtr(1), OriginalText: "Abstract (Page 1)"},
		{Title: "1 Introduction", Page: intPtr(1), OriginalText: "1 Introduction (Page 1)"},
		{Title: "References", Page: intPtr(9), OriginalText: "References (Page 9)"},
	}
	prompt := BuildPrompt(titles)

	if !strings.Contains(prompt, "EXACT SAME ORDER") {
		t.Error("expected order mandate in prompt")
	}
	if !strings.HasSuffix(prompt, "Table of Contents:") {
		t.Error("expected prompt to end with the completion cue")
	}

	iAbs := strings.Index(prompt, "- Abstract (Page 1)")
	iIntro := strings.Index(prompt, "- 1 Introduction (Page 1)")
	iRefs := strings.Index(prompt, "- References (Page 9)")
	if iAbs < 0 || iIntro < 0 || iRefs < 0 {
		t.Fatalf("missing title lines in prompt:\n%s", prompt)
	}
	if !(iAbs < iIntro && iIntro < iRefs) {
		t.Error("expected title lines in document order")
	}
}

func TestBuildPromptUnpagedTitle(t *testing.T) {
	titles := []docmodel.TitleRecord{
		{Title: "Overview", OriginalText: "Overview"},
	}
	prompt := BuildPrompt(titles)
	if !strings.Contains(prompt, "- Overview\n") {
		t.Errorf("expected bare title line, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "(Page") {
		t.Error("unpaged title must not carry a page suffix")
	}
}
