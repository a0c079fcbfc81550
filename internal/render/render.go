// Package render turns tabulated results into HTML fragments. Tables are
// assembled as Markdown pipe tables and converted with gomarkdown.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"surveytab/internal/crosstab"
	"surveytab/internal/profiling"
)

// Document is one titled table.
type Document struct {
	Title    string
	Subtitle string
	Header   []string
	Rows     [][]string
}

// Renderer converts documents to HTML and stamps a generation note.
type Renderer struct {
	now func() time.Time
}

// New returns a renderer using the wall clock.
func New() *Renderer {
	return &Renderer{now: time.Now}
}

// NewWithClock returns a renderer with a fixed time source.
func NewWithClock(now func() time.Time) *Renderer {
	return &Renderer{now: now}
}

// Markdown renders the document as Markdown.
func (r *Renderer) Markdown(doc Document) string {
	var b strings.Builder
	if doc.Title != "" {
		fmt.Fprintf(&b, "### %s\n\n", escape(doc.Title))
	}
	if doc.Subtitle != "" {
		fmt.Fprintf(&b, "*%s*\n\n", escape(doc.Subtitle))
	}
	if len(doc.Header) > 0 {
		writeRow(&b, doc.Header)
		seps := make([]string, len(doc.Header))
		for i := range seps {
			if i == 0 {
				seps[i] = "---"
			} else {
				seps[i] = "---:"
			}
		}
		b.WriteString("|" + strings.Join(seps, "|") + "|\n")
		for _, row := range doc.Rows {
			writeRow(&b, row)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Generated %s UTC\n", r.now().UTC().Format("02 Jan 2006 15:04"))
	return b.String()
}

// HTML renders the document as an HTML fragment.
func (r *Renderer) HTML(doc Document) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.ToHTML([]byte(r.Markdown(doc)), p, renderer))
}

func writeRow(b *strings.Builder, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = escape(c)
	}
	b.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"|", "&#124;",
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
	">", "&gt;",
)

func escape(s string) string {
	return escaper.Replace(s)
}

// FormatCell prints a view cell: whole counts or one-decimal percentages.
func FormatCell(v float64, percent bool) string {
	if percent {
		return strconv.FormatFloat(v, 'f', 1, 64) + "%"
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// ViewRows lays a normalized view out with a Total column and Total row.
func ViewRows(v crosstab.View, rowHeader string) ([]string, [][]string) {
	pct := v.Mode.IsPercent()
	header := append([]string{rowHeader}, v.Cols...)
	header = append(header, crosstab.TotalLabel)

	rows := make([][]string, 0, len(v.Rows)+1)
	for i, label := range v.Rows {
		row := []string{label}
		for j := range v.Cols {
			row = append(row, FormatCell(v.Cells[i][j], pct))
		}
		rows = append(rows, append(row, FormatCell(v.RowTotals[i], pct)))
	}
	total := []string{crosstab.TotalLabel}
	for j := range v.Cols {
		total = append(total, FormatCell(v.ColTotals[j], pct))
	}
	rows = append(rows, append(total, FormatCell(v.Grand, pct)))
	return header, rows
}

// DistributionRows lays a one-axis table out as count and percent columns.
func DistributionRows(t *crosstab.Table, variable string) ([]string, [][]string) {
	header := []string{variable, "count", "percent"}
	rows := make([][]string, 0, len(t.Rows))
	for i, label := range t.Rows {
		share := 0.0
		if t.Grand > 0 {
			share = crosstab.Round1(float64(t.RowTotals[i]) / float64(t.Grand) * 100)
		}
		rows = append(rows, []string{label, strconv.Itoa(t.RowTotals[i]), FormatCell(share, true)})
	}
	return header, rows
}

// SummaryRows lays per-group numeric statistics out to two decimals.
func SummaryRows(s *profiling.NumericSummary, groupHeader string) ([]string, [][]string) {
	header := []string{groupHeader, "count", "mean", "median", "std"}
	rows := make([][]string, 0, len(s.Groups))
	for _, g := range s.Groups {
		rows = append(rows, []string{
			g.Group,
			strconv.Itoa(g.Count),
			fmt.Sprintf("%.2f", g.Mean),
			fmt.Sprintf("%.2f", g.Median),
			fmt.Sprintf("%.2f", g.Std),
		})
	}
	return header, rows
}
