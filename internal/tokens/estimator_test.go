package tokens_test

import (
	"strings"
	"testing"

	"github.com/auraihq/aurai/internal/tokens"
)

func TestEstimateEmptyTextIsZero(t *testing.T) {
	t.Parallel()

	if got := tokens.Estimate(""); got != 0 {
		t.Fatalf("Estimate(\"\") = %d, want 0", got)
	}
}

func TestEstimateNarrowScript(t *testing.T) {
	t.Parallel()

	// 2000 Latin characters at 4 chars/token.
	text := strings.Repeat("a", 2000)
	if got := tokens.Estimate(text); got != 500 {
		t.Fatalf("Estimate() = %d, want 500", got)
	}
}

func TestEstimateWideScript(t *testing.T) {
	t.Parallel()

	// 300 CJK characters at 1.5 chars/token.
	text := strings.Repeat("中", 300)
	if got := tokens.Estimate(text); got != 200 {
		t.Fatalf("Estimate() = %d, want 200", got)
	}
}

func TestEstimateMixedScript(t *testing.T) {
	t.Parallel()

	// 3 wide + 8 narrow: int(3/1.5 + 8/4) = 4.
	if got := tokens.Estimate("中文字abcdefgh"); got != 4 {
		t.Fatalf("Estimate() = %d, want 4", got)
	}
}

func TestEstimateIsDeterministic(t *testing.T) {
	t.Parallel()

	text := "mixed 内容 with 宽窄 characters"
	first := tokens.Estimate(text)
	for i := 0; i < 10; i++ {
		if got := tokens.Estimate(text); got != first {
			t.Fatalf("Estimate() unstable: %d != %d", got, first)
		}
	}
}
