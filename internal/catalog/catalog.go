// Package catalog reads and writes gettext PO catalogs.
//
// Message text is kept in its raw, escaped form exactly as it appears between
// the quotes in the file, so that escape sequences such as \n survive a round
// trip untouched and are what the translator and the memory store see.
package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Entry is a single message block of a catalog.
type Entry struct {
	// Comments holds the raw comment lines (including the leading '#').
	Comments []string
	// Context is the raw msgctxt value, empty when the entry has none.
	Context string
	// Source is the raw msgid value. It is never modified after parsing.
	Source string
	// Translation is the raw msgstr value; empty means untranslated.
	Translation string
	// Line is the 1-based line number of the msgid in the parsed file.
	Line int

	// verbatim holds the original lines of blocks the model does not
	// interpret (plural forms). They are written back unchanged.
	verbatim []string
}

// NeedsTranslation reports whether the entry has a source but no translation.
func (e *Entry) NeedsTranslation() bool {
	return e.verbatim == nil && e.Source != "" && e.Translation == ""
}

// IsPlural reports whether the entry is a plural-form block passed through as is.
func (e *Entry) IsPlural() bool {
	return e.verbatim != nil
}

// Catalog is a parsed PO file: an opaque header followed by ordered entries.
type Catalog struct {
	// Header is the raw text of the header block (msgid "" and its metadata).
	Header  string
	Entries []*Entry
}

// Pending returns the entries that need translation, in file order.
func (c *Catalog) Pending() []*Entry {
	var out []*Entry
	for _, e := range c.Entries {
		if e.NeedsTranslation() {
			out = append(out, e)
		}
	}
	return out
}

// Summary holds per-catalog counts used by analysis and reports.
type Summary struct {
	Entries     int
	WithSource  int
	Translated  int
	Pending     int
	SourceChars int
}

// Summarize counts entries and source characters of the catalog.
func (c *Catalog) Summarize() Summary {
	var s Summary
	for _, e := range c.Entries {
		if e.Source == "" && e.verbatim == nil {
			continue
		}
		s.Entries++
		if e.Source != "" {
			s.WithSource++
		}
		if e.Translation != "" {
			s.Translated++
		}
		if e.NeedsTranslation() {
			s.Pending++
			s.SourceChars += utf8.RuneCountInString(e.Source)
		}
	}
	return s
}

// Parse reads a catalog from r.
func Parse(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	c := &Catalog{}
	var block []string
	start := 0

	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		lines := block
		block = nil
		if c.Header == "" && len(c.Entries) == 0 && isHeader(lines) {
			c.Header = strings.Join(lines, "\n")
			return nil
		}
		e, err := parseBlock(lines, start)
		if err != nil {
			return err
		}
		c.Entries = append(c.Entries, e)
		return nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if len(block) == 0 {
			start = lineNum
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseFile reads a catalog from disk.
func ParseFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func isHeader(lines []string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, "msgid ") {
			return l == `msgid ""` && !hasKeyword(lines, "msgid_plural")
		}
	}
	return false
}

func hasKeyword(lines []string, kw string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, kw+" ") || strings.HasPrefix(l, kw+"[") {
			return true
		}
	}
	return false
}

func parseBlock(lines []string, start int) (*Entry, error) {
	e := &Entry{}
	var field *string
	for i, line := range lines {
		lineNum := start + i
		switch {
		case strings.HasPrefix(line, "#"):
			e.Comments = append(e.Comments, line)
			field = nil
		case strings.HasPrefix(line, "msgctxt "):
			v, err := rawValue(strings.TrimPrefix(line, "msgctxt "), lineNum)
			if err != nil {
				return nil, err
			}
			e.Context = v
			field = &e.Context
		case strings.HasPrefix(line, "msgid_plural "), strings.HasPrefix(line, "msgstr["):
			if e.verbatim == nil {
				e.verbatim = append([]string(nil), lines...)
			}
			field = nil
		case strings.HasPrefix(line, "msgid "):
			v, err := rawValue(strings.TrimPrefix(line, "msgid "), lineNum)
			if err != nil {
				return nil, err
			}
			e.Source = v
			e.Line = lineNum
			field = &e.Source
		case strings.HasPrefix(line, "msgstr "):
			v, err := rawValue(strings.TrimPrefix(line, "msgstr "), lineNum)
			if err != nil {
				return nil, err
			}
			e.Translation = v
			field = &e.Translation
		case strings.HasPrefix(line, `"`):
			if field == nil {
				if e.verbatim != nil {
					continue
				}
				return nil, fmt.Errorf("line %d: continuation without keyword", lineNum)
			}
			v, err := rawValue(line, lineNum)
			if err != nil {
				return nil, err
			}
			*field += v
		default:
			return nil, fmt.Errorf("line %d: unexpected content %q", lineNum, line)
		}
	}
	return e, nil
}

// rawValue strips the surrounding quotes without interpreting escapes.
func rawValue(s string, lineNum int) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("line %d: malformed quoted string %s", lineNum, s)
	}
	return s[1 : len(s)-1], nil
}

// Quote escapes characters that would break a raw value when written between
// quotes: bare double quotes and literal newlines or tabs.
func Quote(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 2)
	b.WriteByte('"')
	escaped := false
	for _, r := range raw {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			b.WriteRune(r)
			escaped = true
		case r == '"':
			b.WriteString(`\"`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
		default:
			b.WriteRune(r)
		}
	}
	if escaped {
		// A lone trailing backslash would escape the closing quote.
		b.WriteByte('\\')
	}
	b.WriteByte('"')
	return b.String()
}

// Write serializes the catalog: header, then per entry its comments, context,
// source and translation lines followed by a blank separator.
func (c *Catalog) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if c.Header != "" {
		fmt.Fprintln(bw, c.Header)
		fmt.Fprintln(bw)
	}

	for _, e := range c.Entries {
		if e.verbatim != nil {
			for _, l := range e.verbatim {
				fmt.Fprintln(bw, l)
			}
			fmt.Fprintln(bw)
			continue
		}
		for _, l := range e.Comments {
			fmt.Fprintln(bw, l)
		}
		if e.Source == "" && e.Translation == "" && e.Context == "" && e.Line == 0 {
			// comment-only block
			fmt.Fprintln(bw)
			continue
		}
		if e.Context != "" {
			fmt.Fprintf(bw, "msgctxt %s\n", Quote(e.Context))
		}
		fmt.Fprintf(bw, "msgid %s\n", Quote(e.Source))
		fmt.Fprintf(bw, "msgstr %s\n", Quote(e.Translation))
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

// WriteFile writes the catalog to path through a temporary file in the same
// directory, replacing the target only once the write has succeeded.
func (c *Catalog) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".potrans-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := c.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmp.Name(), info.Mode().Perm())
	}
	return os.Rename(tmp.Name(), path)
}
