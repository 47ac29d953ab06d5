package markdown

import (
	"html"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func ToHTML(md []byte) string {
	opts := mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	}
	renderer := mdhtml.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes | parser.Tables
	p := parser.NewWithExtensions(ext)
	doc := p.Parse(md)
	return string(markdown.Render(doc, renderer))
}

// Page renders md as a complete standalone HTML document.
func Page(title string, md []byte) string {
	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>" +
		html.EscapeString(title) +
		"</title>\n<style>body{font-family:sans-serif;max-width:60em;margin:2em auto}" +
		"table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.2em .5em}</style>\n" +
		"</head>\n<body>\n" + ToHTML(md) + "</body>\n</html>\n"
}
