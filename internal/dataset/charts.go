package dataset

import (
	"sort"
	"time"
)

// DefaultTopN is the number of bars in the divergence ranking.
const DefaultTopN = 10

// SeriesPoint is one stacked bar segment of the daily chart.
type SeriesPoint struct {
	Date  time.Time
	Label string
	Count int
}

// TimeSeries groups dated rows by day and simplified status. Points are
// ordered by date, then label. Without a status column the series is empty.
func TimeSeries(t *Table) []SeriesPoint {
	points := []SeriesPoint{}
	if !t.HasColumn(ColStatus) {
		return points
	}

	type key struct {
		date  time.Time
		label string
	}
	counts := make(map[key]int)
	for i := 0; i < t.Len(); i++ {
		d, ok := t.FilterDate(i)
		if !ok {
			continue
		}
		status, _ := t.Value(i, ColStatus)
		label := LabelDivergence
		if IsPassing(status) {
			label = LabelApproved
		}
		counts[key{d, label}]++
	}

	for k, n := range counts {
		points = append(points, SeriesPoint{Date: k.date, Label: k.label, Count: n})
	}
	sort.Slice(points, func(i, j int) bool {
		if !points[i].Date.Equal(points[j].Date) {
			return points[i].Date.Before(points[j].Date)
		}
		return points[i].Label < points[j].Label
	})
	return points
}

// RankedDivergence is one bar of the divergence ranking.
type RankedDivergence struct {
	Reason  string
	Count   int
	Percent string
}

// TopDivergences ranks divergence reasons by count and keeps the first n.
// Percent is relative to all counted divergences, not just the top n.
func TopDivergences(t *Table, n int) []RankedDivergence {
	counts := countValues(t, ColDivergence, true)

	rows := make([]SummaryRow, 0, len(counts))
	total := 0
	for label, c := range counts {
		rows = append(rows, SummaryRow{Label: label, Count: c})
		total += c
	}
	sortByCount(rows)

	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}

	out := make([]RankedDivergence, len(rows))
	for i, r := range rows {
		out[i] = RankedDivergence{
			Reason:  r.Label,
			Count:   r.Count,
			Percent: FormatPct(float64(r.Count) / float64(total) * 100),
		}
	}
	return out
}

// Slice is one wedge of the distribution chart.
type Slice struct {
	Label string
	Count int
}

// Distribution counts every non-null value of column, placeholders
// included, by count descending then label.
func Distribution(t *Table, column string) []Slice {
	counts := countValues(t, column, false)
	rows := make([]SummaryRow, 0, len(counts))
	for label, c := range counts {
		rows = append(rows, SummaryRow{Label: label, Count: c})
	}
	sortByCount(rows)

	out := make([]Slice, len(rows))
	for i, r := range rows {
		out[i] = Slice{Label: r.Label, Count: r.Count}
	}
	return out
}
