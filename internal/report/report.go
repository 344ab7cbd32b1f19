// Package report renders intervention eligibility results as markdown and
// HTML documents.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"surveydash/domain/eligibility"
	elig "surveydash/internal/eligibility"
)

// Meta describes where the evaluated rows came from
type Meta struct {
	Dataset     string
	Rows        int
	GeneratedAt time.Time
}

// Markdown renders the report: one results table and province summary per
// criterion, followed by the average eligible percentage of each criterion.
func Markdown(r *elig.InterventionReport, meta Meta) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s eligibility\n\n", cell(r.Intervention))
	if meta.Dataset != "" {
		fmt.Fprintf(&b, "- Dataset: %s\n", cell(meta.Dataset))
	}
	fmt.Fprintf(&b, "- Surveys: %d\n", meta.Rows)
	if !meta.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "- Generated: %s\n", meta.GeneratedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")

	for i, o := range r.Outcomes {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, cell(o.Criterion.Description))
		fmt.Fprintf(&b, "Columns: %s\n\n", cell(strings.Join(o.Criterion.Columns, ", ")))

		if len(o.Results) == 0 {
			b.WriteString("No rows to evaluate.\n\n")
			continue
		}

		b.WriteString("| Province | District | Total HHs | Eligible (%) | Not Eligible (%) | Null Values (%) |\n")
		b.WriteString("|---|---|---:|---:|---:|---:|\n")
		for _, row := range o.Results {
			fmt.Fprintf(&b, "| %s | %s | %d | %.2f | %.2f | %.2f |\n",
				cell(row.Province), cell(row.District), row.Total, row.EligiblePct, row.NotEligiblePct, row.NullPct)
		}
		b.WriteString("\n")

		b.WriteString("| Province | Total HHs | Eligible (%) | Not Eligible (%) |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, s := range elig.Summarize(o.Results) {
			fmt.Fprintf(&b, "| %s | %d | %.2f | %.2f |\n", cell(s.Province), s.Total, s.EligiblePct, s.NotEligiblePct)
		}
		b.WriteString("\n")
	}

	writeAverages(&b, r.Averages)
	return b.String()
}

func writeAverages(b *strings.Builder, averages []eligibility.CriterionAverage) {
	if len(averages) == 0 {
		return
	}
	b.WriteString("## Average percentage for each eligibility criterion\n\n")
	b.WriteString("| Criterion | Eligible (%) |\n")
	b.WriteString("|---|---:|\n")
	for _, a := range averages {
		fmt.Fprintf(b, "| %s | %.2f |\n", cell(a.Description), a.EligiblePct)
	}
	b.WriteString("\n")
}

// HTML renders markdown into a complete HTML page. Raw HTML in the markdown
// is dropped and links are limited to safe protocols.
func HTML(md, title string) []byte {
	var escaped bytes.Buffer
	html.EscapeHTML(&escaped, []byte(title))

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage | html.SkipHTML | html.Safelink,
		Title: escaped.String(),
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// cell makes text safe inside a markdown table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
