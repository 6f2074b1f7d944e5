package structure

import (
	"sort"

	"github.com/papertoc/papertoc/internal/docmodel"
)

// MedianFontSize computes the per-page font baseline: the median of all span
// sizes on the page, with the lower-middle element taken for even counts.
// A page with no spans yields Valid=false, which downstream code must treat
// as "no font signal available", never as an error.
func MedianFontSize(page int, blocks []docmodel.Block) docmodel.PageStats {
	var sizes []float64
	for _, b := range blocks {
		if b.Page != page {
			continue
		}
		for _, s := range b.Spans {
			sizes = append(sizes, s.FontSize)
		}
	}
	if len(sizes) == 0 {
		return docmodel.PageStats{Page: page}
	}
	sort.Float64s(sizes)
	return docmodel.PageStats{
		Page:   page,
		Median: sizes[(len(sizes)-1)/2],
		Valid:  true,
	}
}

// pageOrder returns the distinct pages present in blocks, in first-seen order.
// Blocks arrive in page order from the extractor, so this preserves document
// order without sorting.
func pageOrder(blocks []docmodel.Block) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, b := range blocks {
		if !seen[b.Page] {
			seen[b.Page] = true
			pages = append(pages, b.Page)
		}
	}
	return pages
}
