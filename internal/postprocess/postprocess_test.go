package postprocess

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "clean text", input: "1. 升序\n2. 降序", expected: "1. 升序\n2. 降序"},
		{name: "thinking block", input: "<think>list the terms</think>\n1. 升序", expected: "1. 升序"},
		{name: "reasoning block", input: "Start<reasoning>grammar</reasoning>End", expected: "StartEnd"},
		{name: "truncated thinking", input: "1. 升序\n<thinking>cut off", expected: "1. 升序"},
		{name: "english echo", input: "Here are the translations:\n1. 升序", expected: "1. 升序"},
		{name: "certainly echo", input: "Sure, here is the translation: 1. 升序", expected: "1. 升序"},
		{name: "chinese echo", input: "以下是翻译结果：\n1. 升序", expected: "1. 升序"},
		{name: "chinese echo short", input: "译文: 1. 升序", expected: "1. 升序"},
		{name: "echo not at start", input: "1. The translation: 升序", expected: "1. The translation: 升序"},
		{name: "echo without colon", input: "Here is the translation 1. 升序", expected: "Here is the translation 1. 升序"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "single char", input: `"`, expected: `"`},
		{name: "no quotes", input: "升序", expected: "升序"},
		{name: "double quotes", input: `"升序"`, expected: "升序"},
		{name: "single quotes", input: `'升序'`, expected: "升序"},
		{name: "guillemets", input: "«升序»", expected: "升序"},
		{name: "curly double", input: "“升序”", expected: "升序"},
		{name: "curly single", input: "‘升序’", expected: "升序"},
		{name: "corner brackets", input: "「升序」", expected: "升序"},
		{name: "unmatched", input: `"升序'`, expected: `"升序'`},
		{name: "inner quotes kept", input: `说 "嗨"`, expected: `说 "嗨"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unquote(tt.input); got != tt.expected {
				t.Errorf("Unquote(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}

	if !IsQuoted(`"x"`) || IsQuoted("x") {
		t.Error("IsQuoted disagrees with Unquote")
	}
}

func TestStripNumbering(t *testing.T) {
	tests := []struct {
		input string
		rest  string
		n     int
		ok    bool
	}{
		{"1. 升序", "升序", 1, true},
		{"2) 降序", "降序", 2, true},
		{"3、返回值", "返回值", 3, true},
		{"12.值", "值", 12, true},
		{"４．索引", "索引", 4, true},
		{"5: 速度", "速度", 5, true},
		{"升序", "升序", 0, false},
		{"3D 模型", "3D 模型", 0, false},
		{"1.5 倍速", "5 倍速", 1, true},
	}

	for _, tt := range tests {
		rest, n, ok := StripNumbering(tt.input)
		if rest != tt.rest || n != tt.n || ok != tt.ok {
			t.Errorf("StripNumbering(%q) = (%q, %d, %v), want (%q, %d, %v)", tt.input, rest, n, ok, tt.rest, tt.n, tt.ok)
		}
	}
}

func TestLines(t *testing.T) {
	got := Lines("  1. a \n\n2. b\r\n   \n3. c")
	want := []string{"1. a", "2. b", "3. c"}
	if len(got) != len(want) {
		t.Fatalf("Lines() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Lines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
