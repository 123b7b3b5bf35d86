package dataset

import "sort"

// SummaryRow is one line of a frequency table.
type SummaryRow struct {
	Label string
	Count int
	Pct   float64
}

// PctDisplay renders Pct with one decimal.
func (r SummaryRow) PctDisplay() string { return FormatPct(r.Pct) }

// Standard summaries shown on the dashboard.
const (
	SummaryCompany    = "company"
	SummaryDivergence = "divergence"
)

// SummaryColumns maps a summary name to its source column.
var SummaryColumns = map[string]string{
	SummaryCompany:    ColAnalysisTime,
	SummaryDivergence: ColDivergence,
}

// Summarize counts the values of column, dropping nulls and
// PlaceholderTokens. Rows are ordered by count descending, then label.
// A missing column yields an empty slice.
func Summarize(t *Table, column string) []SummaryRow {
	counts := countValues(t, column, true)
	return toSummary(counts)
}

// countValues tallies the non-null values of column.
func countValues(t *Table, column string, dropPlaceholders bool) map[string]int {
	counts := make(map[string]int)
	if !t.HasColumn(column) {
		return counts
	}
	for i := 0; i < t.Len(); i++ {
		v, ok := t.Value(i, column)
		if !ok {
			continue
		}
		if dropPlaceholders && IsPlaceholder(v) {
			continue
		}
		counts[v]++
	}
	return counts
}

func toSummary(counts map[string]int) []SummaryRow {
	rows := make([]SummaryRow, 0, len(counts))
	total := 0
	for label, n := range counts {
		rows = append(rows, SummaryRow{Label: label, Count: n})
		total += n
	}
	sortByCount(rows)

	for i := range rows {
		if total > 0 {
			rows[i].Pct = float64(rows[i].Count) / float64(total) * 100
		}
	}
	return rows
}

func sortByCount(rows []SummaryRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Label < rows[j].Label
	})
}
