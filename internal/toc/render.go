package toc

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var htmlRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// RenderHTML converts a markdown table of contents to an HTML fragment.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render toc html: %w", err)
	}
	return buf.String(), nil
}
