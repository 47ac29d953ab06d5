package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/valpere/potrans/internal/markdown"
)

const timeLayout = "2006-01-02 15:04:05"

func costString(c float64) string {
	return fmt.Sprintf("%.4f", c)
}

func renderText(r *Run) string {
	var b strings.Builder
	t := r.Totals()
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Translation report")
	fmt.Fprintln(&b, rule)
	if r.ID != "" {
		fmt.Fprintf(&b, "Run:              %s\n", r.ID)
	}
	fmt.Fprintf(&b, "Started:          %s\n", r.Started.Format(timeLayout))
	if !r.Finished.IsZero() {
		fmt.Fprintf(&b, "Finished:         %s (%s)\n", r.Finished.Format(timeLayout), r.Finished.Sub(r.Started).Round(time.Second))
	}
	if r.Language != "" {
		fmt.Fprintf(&b, "Language:         %s\n", r.Language)
	}
	if r.Provider != "" {
		fmt.Fprintf(&b, "Provider:         %s (%s)\n", r.Provider, r.Model)
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Files:            %d (%d failed)\n", t.Files, len(r.Failures))
	fmt.Fprintf(&b, "Entries:          %s\n", humanize.Comma(int64(t.Entries)))
	fmt.Fprintf(&b, "Needed:           %s\n", humanize.Comma(int64(t.Pending)))
	fmt.Fprintf(&b, "Unique:           %s\n", humanize.Comma(int64(t.Unique)))
	fmt.Fprintf(&b, "Duplicates:       %s\n", humanize.Comma(int64(t.Duplicates)))
	fmt.Fprintf(&b, "Succeeded:        %s\n", humanize.Comma(int64(t.Succeeded)))
	fmt.Fprintf(&b, "Failed:           %s\n", humanize.Comma(int64(t.Failed)))
	fmt.Fprintf(&b, "Entries filled:   %s (%s unfilled)\n", humanize.Comma(int64(t.Filled)), humanize.Comma(int64(t.Unfilled)))
	fmt.Fprintf(&b, "Memory hits:      %s\n", humanize.Comma(int64(t.CacheHits)))
	fmt.Fprintf(&b, "Memory learned:   %s\n", humanize.Comma(int64(t.Learned)))
	fmt.Fprintf(&b, "Memory queries:   %s hits / %s misses (%.1f%%)\n",
		humanize.Comma(int64(r.Memory.Hits)), humanize.Comma(int64(r.Memory.Misses)), r.Memory.HitRate)
	fmt.Fprintf(&b, "Memory size:      %d built-in + %d learned\n", r.Memory.Builtin, r.Memory.Learned)
	fmt.Fprintf(&b, "Tokens:           %s in / %s out\n", humanize.Comma(int64(t.InputTokens)), humanize.Comma(int64(t.OutputTokens)))
	fmt.Fprintf(&b, "Cost:             %s\n", costString(t.Cost))

	if len(r.Failures) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Failed catalogs:")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "  %s: %s\n", f.Path, f.Error)
		}
	}

	for _, c := range r.Catalogs {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, strings.Repeat("-", 60))
		fmt.Fprintln(&b, c.Path)
		fmt.Fprintln(&b, strings.Repeat("-", 60))
		fmt.Fprintf(&b, "Entries: %d  needed: %d  unique: %d  duplicates: %d\n", c.Total, c.Pending, c.Unique, c.Duplicates)
		fmt.Fprintf(&b, "Succeeded: %d  failed: %d  filled: %d  unfilled: %d\n", c.Succeeded, c.Failed, c.Filled, c.Unfilled)
		fmt.Fprintf(&b, "Memory hits: %d  learned: %d  chunks: %d\n", c.CacheHits, c.Learned, c.Chunks)
		fmt.Fprintf(&b, "Tokens: %d in / %d out  cost: %s  time: %s\n", c.InputTokens, c.OutputTokens, costString(c.Cost), c.Duration.Round(time.Millisecond))
		if len(c.Pairs) > 0 {
			fmt.Fprintln(&b)
			for _, p := range c.Pairs {
				tr := p.Translation
				if tr == "" {
					tr = "(failed)"
				}
				mark := ""
				if p.Cached {
					mark = " [memory]"
				}
				fmt.Fprintf(&b, "  %s\n    -> %s%s\n", p.Source, tr, mark)
			}
		}
	}

	return b.String()
}

// mdCell escapes table separators so a source string cannot break the table.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "|", `\|`)
}

func renderMarkdown(r *Run) string {
	var b strings.Builder
	t := r.Totals()

	fmt.Fprintln(&b, "# Translation report")
	fmt.Fprintln(&b)
	if r.ID != "" {
		fmt.Fprintf(&b, "- Run: `%s`\n", r.ID)
	}
	fmt.Fprintf(&b, "- Started: %s\n", r.Started.Format(timeLayout))
	if r.Language != "" {
		fmt.Fprintf(&b, "- Language: %s\n", r.Language)
	}
	if r.Provider != "" {
		fmt.Fprintf(&b, "- Provider: %s (%s)\n", r.Provider, r.Model)
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "## Summary")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "| Metric | Value |")
	fmt.Fprintln(&b, "|---|---|")
	rows := [][2]string{
		{"Files", fmt.Sprintf("%d (%d failed)", t.Files, len(r.Failures))},
		{"Entries", humanize.Comma(int64(t.Entries))},
		{"Needed", humanize.Comma(int64(t.Pending))},
		{"Unique", humanize.Comma(int64(t.Unique))},
		{"Duplicates", humanize.Comma(int64(t.Duplicates))},
		{"Succeeded", humanize.Comma(int64(t.Succeeded))},
		{"Failed", humanize.Comma(int64(t.Failed))},
		{"Entries filled", humanize.Comma(int64(t.Filled))},
		{"Memory hits", humanize.Comma(int64(t.CacheHits))},
		{"Memory hit rate", fmt.Sprintf("%.1f%%", r.Memory.HitRate)},
		{"Memory learned", humanize.Comma(int64(t.Learned))},
		{"Tokens", fmt.Sprintf("%s in / %s out", humanize.Comma(int64(t.InputTokens)), humanize.Comma(int64(t.OutputTokens)))},
		{"Cost", costString(t.Cost)},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], row[1])
	}

	if len(r.Failures) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "## Failed catalogs")
		fmt.Fprintln(&b)
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "- `%s`: %s\n", f.Path, f.Error)
		}
	}

	for _, c := range r.Catalogs {
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "## %s\n\n", c.Path)
		fmt.Fprintf(&b, "%d entries, %d needed, %d unique, %d duplicates. %d succeeded, %d failed, %d memory hits, cost %s.\n",
			c.Total, c.Pending, c.Unique, c.Duplicates, c.Succeeded, c.Failed, c.CacheHits, costString(c.Cost))
		if len(c.Pairs) == 0 {
			continue
		}
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "| Source | Translation | Memory |")
		fmt.Fprintln(&b, "|---|---|---|")
		for _, p := range c.Pairs {
			mark := ""
			if p.Cached {
				mark = "yes"
			}
			tr := mdCell(p.Translation)
			if p.Translation == "" {
				tr = "*(failed)*"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", mdCell(p.Source), tr, mark)
		}
	}

	return b.String()
}

func renderHTML(r *Run) string {
	return markdown.Page("Translation report "+r.Started.Format(timeLayout), []byte(renderMarkdown(r)))
}
