package placeholder

import (
	"reflect"
	"testing"
)

func TestCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"Item {0} of {1}", 2},
		{"{10} items", 1},
		{"{name} is not numeric", 0},
		{"{0}{0}", 2},
		{"{ 0 }", 0},
	}
	for _, tt := range tests {
		if got := Count(tt.text); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestMismatch(t *testing.T) {
	if Mismatch("Item {0} of {1}", "第 {0} 项，共 {1} 项") {
		t.Error("expected counts to match")
	}
	if !Mismatch("Item {0} of {1}", "第 {0} 项") {
		t.Error("expected a mismatch when a token is dropped")
	}
	if Mismatch("Ascending", "升序") {
		t.Error("no tokens on either side is not a mismatch")
	}
}

func TestMissing(t *testing.T) {
	got := Missing("{1} of {0} ({1})", "{0}")
	if want := []string{"{1}"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
	if got := Missing("{0}", "{0}"); got != nil {
		t.Errorf("Missing() = %v, want nil", got)
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("a {2} b {0}")
	if want := []string{"{2}", "{0}"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
}
