package toc

import (
	"strings"

	"github.com/papertoc/papertoc/internal/docmodel"
)

const formatInstructions = `Please format the following section titles into a table of contents in markdown format, keeping the EXACT SAME ORDER as provided.

Do NOT reorder or reorganize the sections. Just format them with proper numbering while maintaining the original sequence.

Include page numbers where available.
If a title appears to be a **person's name** (for example, "David M. Blei" or "John D. Lafferty") and it **appears multiple times**, ignore it completely — do NOT include it in the table of contents.

Section titles (in order):`

// NoTitlesMessage is returned instead of calling the model when the
// document yielded no section titles.
const NoTitlesMessage = "No section titles found in the document."

// BuildPrompt creates the formatting prompt from the ordered title list.
// The titles are presented as a bullet list in document order; the model
// is instructed to number them without reordering.
func BuildPrompt(titles []docmodel.TitleRecord) string {
	var sb strings.Builder
	sb.WriteString(formatInstructions)
	sb.WriteString("\n")
	for _, t := range titles {
		sb.WriteString("- ")
		sb.WriteString(t.OriginalText)
		sb.WriteString("\n")
	}
	sb.WriteString("\nTable of Contents:")
	return sb.String()
}
