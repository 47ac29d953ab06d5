package eligibility

import (
	"strings"
	"testing"
)

func TestIsCacheable(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"single term", "Ascending", true},
		{"short phrase", "Return Value", true},
		{"five words", "Add New Static Mesh Actor", true},
		{"empty", "", true},
		{"exactly 35 chars", strings.Repeat("a", 35), true},
		{"36 chars", strings.Repeat("a", 36), false},
		{"cjk counted per character", strings.Repeat("网", 35), true},
		{"descriptive sentence", "The distance value, in centimeters, is measured radially", false},
		{"placeholders", "Item {0} of {1}", false},
		{"placeholder alone", "Count {2}", false},
		{"sentence break", "Done. Next", false},
		{"exclamation break", "Stop! Now", false},
		{"question break", "Sure? Yes", false},
		{"full width period", "完成。", false},
		{"full width exclamation", "好！", false},
		{"full width question", "好？", false},
		{"six words", "one two three four five six", false},
		{"literal newline escape", `Line\nBreak`, false},
		{"literal tab escape", `Tab\there`, false},
		{"literal carriage return escape", `CR\rhere`, false},
		{"parenthesis", "Speed (cm/s)", false},
		{"bracket", "Mode [Beta]", false},
		{"arrow", "A → B", false},
		{"bullet", "• Item", false},
		{"pipe category", "XTools|Random", false},
		{"question word", "How Many", false},
		{"question word lowercase passes", "how many", true},
		{"question word must be first", "Know How", true},
		{"preposition for", "Used For Sorting", false},
		{"preposition of", "Number Of Items", false},
		{"preposition in the", "Spawn In The World", false},
		{"preposition with the", "Align With The Grid", false},
		{"descriptive duration", "Fade Duration", false},
		{"descriptive spacing", "Grid Spacing", false},
		{"descriptive radius", "Radius", false},
		{"descriptive distance", "Max Distance", false},
		{"descriptive example", "Example", false},
		{"descriptive tips", "Tips", false},
		{"mappings", "Prefix Mappings", false},
		{"examples", "Usage Examples", false},
		{"trailing period without space", "Done.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCacheable(tt.text); got != tt.want {
				t.Errorf("IsCacheable(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsCacheable_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		if !IsCacheable("Ascending") {
			t.Fatal("expected Ascending to be cacheable on every call")
		}
	}
}
