package routes

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("é", 130)

	got := truncate(long, 120)
	if !utf8.ValidString(got) {
		t.Fatal("truncated preview is not valid UTF-8")
	}
	if want := strings.Repeat("é", 120) + "…"; got != want {
		t.Errorf("truncate cut %d runes, want 120 plus ellipsis", utf8.RuneCountInString(got)-1)
	}
}

func TestTruncateLeavesShortContentAlone(t *testing.T) {
	if got := truncate("Bonjour, l'appartement est-il disponible ?", 120); got != "Bonjour, l'appartement est-il disponible ?" {
		t.Errorf("short content must pass through, got %q", got)
	}
	// 120 bytes but well under 120 runes
	mixed := strings.Repeat("é", 60)
	if got := truncate(mixed, 120); got != mixed {
		t.Errorf("rune count governs the cut, got %q", got)
	}
}
