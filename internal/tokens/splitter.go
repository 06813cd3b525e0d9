package tokens

import "fmt"

// splitCharsPerToken is the coarse ratio used to turn a token budget into a
// character window when cutting oversized content.
const splitCharsPerToken = 3

// Split cuts content into segments that each fit within maxTokens. Content
// whose estimate is already within the budget comes back as a single
// segment. Segments are contiguous, never overlap, and concatenate back to
// the original content exactly. The cut points fall on rune boundaries.
func Split(content string, maxTokens int) []string {
	if maxTokens <= 0 || Estimate(content) <= maxTokens {
		return []string{content}
	}

	window := maxTokens * splitCharsPerToken
	runes := []rune(content)

	segments := make([]string, 0, len(runes)/window+1)
	for start := 0; start < len(runes); start += window {
		end := start + window
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments
}

// Label renders the header that precedes a replayed file segment so the
// reader can reconstruct segment order.
func Label(path string, index, total int) string {
	if total <= 1 {
		return fmt.Sprintf("## Uploaded file\n\n### File: %s\n", path)
	}
	return fmt.Sprintf("## Uploaded file (%d/%d)\n\n### File: %s (part %d/%d)\n",
		index+1, total, path, index+1, total)
}
