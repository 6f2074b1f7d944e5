package structure

// Heuristics collects every numeric threshold the detection engine uses.
// The values are fixed heuristic constants, not runtime tunables; they are
// carried in one record so classifier, validator and builder can be
// constructed and tested in isolation.
type Heuristics struct {
	// Classifier.
	MinTitleLen       int     // below or equal: page-number noise, never a title
	FontSalienceLen   [2]int  // [min, max] text length for the font-salience branch
	FontSalienceRatio float64 // span size must exceed ratio * page median

	// Validator.
	MinDisplayLen   int     // display titles shorter than this are rejected
	MaxDisplayLen   int     // display titles longer than this are rejected
	DisplayTruncate int     // truncation point for surfaced titles
	MaxDigitRuns    int     // more distinct digit runs than this: bibliography-shaped
	MaxOddChars     int     // more chars outside the title alphabet than this: reject
	MaxPeriodFields int     // more period-delimited segments than this: reject
	FootnoteRatio   float64 // digit spans below ratio * median flag glued footnotes
	ShortFirstLine  int     // first display line shorter than this pulls in line two

	// First-page override.
	OverrideSkipLen int // blocks at or under this length are skipped outright
	OverrideMinLen  int // first block longer than this becomes the document title

	// Chunk builder.
	MinChunkLen int // joined sections shorter than this are dropped
}

// DefaultHeuristics returns the tuned constants.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		MinTitleLen:       3,
		FontSalienceLen:   [2]int{5, 100},
		FontSalienceRatio: 1.2,

		MinDisplayLen:   3,
		MaxDisplayLen:   200,
		DisplayTruncate: 100,
		MaxDigitRuns:    3,
		MaxOddChars:     5,
		MaxPeriodFields: 3,
		FootnoteRatio:   0.7,
		ShortFirstLine:  10,

		OverrideSkipLen: 5,
		OverrideMinLen:  10,

		MinChunkLen: 100,
	}
}
