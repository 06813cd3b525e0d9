package tokens

import (
	"github.com/mattn/go-runewidth"
)

// Character-per-token ratios for the two script classes. Wide scripts
// (CJK and friends) compress poorly, narrow scripts follow the usual
// four-characters-per-token rule of thumb.
const (
	wideCharsPerToken   = 1.5
	narrowCharsPerToken = 4.0
)

// Estimate approximates the token count of text. It is a deterministic
// heuristic, not a tokenizer; callers should treat the result as an
// upper-bound estimate. Empty input yields 0.
func Estimate(text string) int {
	if text == "" {
		return 0
	}

	var wide, narrow int
	for _, r := range text {
		if runewidth.RuneWidth(r) == 2 {
			wide++
		} else {
			narrow++
		}
	}

	return int(float64(wide)/wideCharsPerToken + float64(narrow)/narrowCharsPerToken)
}
