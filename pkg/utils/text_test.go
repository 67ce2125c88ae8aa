package utils

import (
	"strings"
	"testing"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{name: "short text untouched", text: "cua biển", max: 200, want: "cua biển"},
		{name: "exact length untouched", text: strings.Repeat("a", 200), max: 200, want: strings.Repeat("a", 200)},
		{name: "long text cut", text: strings.Repeat("a", 201), max: 200, want: strings.Repeat("a", 200) + "..."},
		{name: "multibyte counted as runes", text: "tôm hùm", max: 3, want: "tôm..."},
		{name: "zero max", text: "abc", max: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.text, tt.max); got != tt.want {
				t.Errorf("TruncateRunes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoinNonEmpty(t *testing.T) {
	got := JoinNonEmpty("\n\n", "  Title ", "", "   ", "Body")
	if got != "Title\n\nBody" {
		t.Errorf("JoinNonEmpty() = %q", got)
	}
}
