package extract

import "strings"

const DefaultMinTokens = 100

// Completeness decides whether native text is good enough to keep.
//
// The threshold is global: it is not normalised by page count, so a
// 50-page document with 99 tokens escalates exactly like a 1-page one.
type Completeness struct {
	// MinTokens is the smallest acceptable whitespace-delimited token
	// count. Zero or less means DefaultMinTokens.
	MinTokens int
}

func (c Completeness) Threshold() int {
	if c.MinTokens <= 0 {
		return DefaultMinTokens
	}
	return c.MinTokens
}

// NeedsEscalation reports whether text should be replaced by a vision
// transcription.
func (c Completeness) NeedsEscalation(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	return len(strings.Fields(text)) < c.Threshold()
}
