package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTML(t *testing.T) {
	out := ToHTML([]byte("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>1</td>")
}

func TestPage(t *testing.T) {
	out := Page("Report <x>", []byte("hello"))
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Report &lt;x&gt;</title>")
	assert.Contains(t, out, "<p>hello</p>")
}
