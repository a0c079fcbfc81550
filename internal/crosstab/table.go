package crosstab

import (
	"math"
	"strings"

	"surveytab/domain/core"
	"surveytab/domain/survey"
)

const (
	// TotalLabel names the margin row and column.
	TotalLabel = "Total"
	// AllLabel is the single column of a one-axis distribution.
	AllLabel = "All"
	// ComboSeparator joins labels of combined breaks.
	ComboSeparator = " | "
)

// Table is a count matrix with margins. Counts[i][j] is the number of
// entries with row label Rows[i] and column label Cols[j].
type Table struct {
	Rows      []string
	Cols      []string
	Counts    [][]int
	RowTotals []int
	ColTotals []int
	Grand     int
}

// BuildOptions fixes row and column order. Labels absent from the order
// follow in first-appearance order.
type BuildOptions struct {
	RowOrder []string
	ColOrder []string
}

// Build crosses two bucketed sequences over the source rows they share.
// It fails with core.ErrEmptyJoin when no source row carries a label on
// both axes.
func Build(rows, cols Bucketed, opts BuildOptions) (*Table, error) {
	colBySource := make(map[int]string, cols.Len())
	for i, src := range cols.Rows {
		colBySource[src] = cols.Labels[i]
	}

	var rowLabels, colLabels []string
	for i, src := range rows.Rows {
		c, ok := colBySource[src]
		if !ok {
			continue
		}
		rowLabels = append(rowLabels, rows.Labels[i])
		colLabels = append(colLabels, c)
	}
	if len(rowLabels) == 0 {
		return nil, core.ErrEmptyJoin
	}
	return tabulate(rowLabels, colLabels, opts), nil
}

// BuildDistribution counts one bucketed sequence into a single column.
func BuildDistribution(b Bucketed, order []string) (*Table, error) {
	if b.Len() == 0 {
		return nil, core.ErrEmptyJoin
	}
	cols := make([]string, b.Len())
	for i := range cols {
		cols[i] = AllLabel
	}
	return tabulate(b.Labels, cols, BuildOptions{RowOrder: order}), nil
}

func tabulate(rowLabels, colLabels []string, opts BuildOptions) *Table {
	t := &Table{
		Rows: survey.OrderLabels(rowLabels, opts.RowOrder),
		Cols: survey.OrderLabels(colLabels, opts.ColOrder),
	}
	rowIdx := indexOf(t.Rows)
	colIdx := indexOf(t.Cols)

	t.Counts = make([][]int, len(t.Rows))
	for i := range t.Counts {
		t.Counts[i] = make([]int, len(t.Cols))
	}
	t.RowTotals = make([]int, len(t.Rows))
	t.ColTotals = make([]int, len(t.Cols))

	for k := range rowLabels {
		i, j := rowIdx[rowLabels[k]], colIdx[colLabels[k]]
		t.Counts[i][j]++
		t.RowTotals[i]++
		t.ColTotals[j]++
		t.Grand++
	}
	return t
}

// Combine joins several bucketed breaks over the source rows they share,
// labelling each entry with the break labels joined by " | ". Entries follow
// the first break's order.
func Combine(breaks ...Bucketed) Bucketed {
	if len(breaks) == 0 {
		return Bucketed{}
	}
	if len(breaks) == 1 {
		return breaks[0]
	}

	lookups := make([]map[int]string, len(breaks)-1)
	for k, b := range breaks[1:] {
		m := make(map[int]string, b.Len())
		for i, src := range b.Rows {
			m[src] = b.Labels[i]
		}
		lookups[k] = m
	}

	out := Bucketed{}
	for _, b := range breaks {
		out.RawDistinct += b.RawDistinct
		out.Truncated = out.Truncated || b.Truncated
		out.Merged = out.Merged || b.Merged
	}

	first := breaks[0]
	parts := make([]string, len(breaks))
	for i, src := range first.Rows {
		parts[0] = first.Labels[i]
		ok := true
		for k, m := range lookups {
			l, found := m[src]
			if !found {
				ok = false
				break
			}
			parts[k+1] = l
		}
		if !ok {
			continue
		}
		out.Labels = append(out.Labels, strings.Join(parts, ComboSeparator))
		out.Rows = append(out.Rows, src)
	}
	return out
}

// ComboOrder is the cartesian product of per-break orders, used to keep
// combined columns in a stable order.
func ComboOrder(orders ...[]string) []string {
	for _, o := range orders {
		if len(o) == 0 {
			return nil
		}
	}
	out := []string{""}
	for k, o := range orders {
		next := make([]string, 0, len(out)*len(o))
		for _, prefix := range out {
			for _, l := range o {
				if k == 0 {
					next = append(next, l)
				} else {
					next = append(next, prefix+ComboSeparator+l)
				}
			}
		}
		out = next
	}
	return out
}

// View is a table rendered under one normalization mode.
type View struct {
	Mode      survey.Mode
	Rows      []string
	Cols      []string
	Cells     [][]float64
	RowTotals []float64
	ColTotals []float64
	Grand     float64
}

// Normalize derives the view for a mode. Percentages are rounded to one
// decimal place and a zero margin yields 0 for every cell it divides.
func (t *Table) Normalize(mode survey.Mode) View {
	v := View{
		Mode:      mode,
		Rows:      t.Rows,
		Cols:      t.Cols,
		Cells:     make([][]float64, len(t.Rows)),
		RowTotals: make([]float64, len(t.Rows)),
		ColTotals: make([]float64, len(t.Cols)),
	}
	grand := float64(t.Grand)

	for i := range t.Rows {
		v.Cells[i] = make([]float64, len(t.Cols))
		rowSum := float64(t.RowTotals[i])
		for j := range t.Cols {
			c := float64(t.Counts[i][j])
			switch mode {
			case survey.ModeRowPercent:
				v.Cells[i][j] = percent(c, rowSum)
			case survey.ModeColumnPercent:
				v.Cells[i][j] = percent(c, float64(t.ColTotals[j]))
			case survey.ModeTotalPercent:
				v.Cells[i][j] = percent(c, grand)
			default:
				v.Cells[i][j] = c
			}
		}
		switch mode {
		case survey.ModeRowPercent:
			v.RowTotals[i] = percent(rowSum, rowSum)
		case survey.ModeColumnPercent, survey.ModeTotalPercent:
			v.RowTotals[i] = percent(rowSum, grand)
		default:
			v.RowTotals[i] = rowSum
		}
	}

	for j := range t.Cols {
		colSum := float64(t.ColTotals[j])
		switch mode {
		case survey.ModeColumnPercent:
			v.ColTotals[j] = percent(colSum, colSum)
		case survey.ModeRowPercent, survey.ModeTotalPercent:
			v.ColTotals[j] = percent(colSum, grand)
		default:
			v.ColTotals[j] = colSum
		}
	}

	if mode.IsPercent() {
		v.Grand = percent(grand, grand)
	} else {
		v.Grand = grand
	}
	return v
}

// Column returns the cells of one column, top to bottom.
func (v View) Column(j int) []float64 {
	out := make([]float64, len(v.Rows))
	for i := range v.Rows {
		out[i] = v.Cells[i][j]
	}
	return out
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return Round1(part / whole * 100)
}

// Round1 rounds to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func indexOf(labels []string) map[string]int {
	m := make(map[string]int, len(labels))
	for i, l := range labels {
		m[l] = i
	}
	return m
}
