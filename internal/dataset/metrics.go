package dataset

import "strconv"

// Metrics are the headline numbers of a filtered view.
type Metrics struct {
	Total            int
	DivergenceCount  int
	AccuracyPct      float64
	TamperedCount    int
	TamperedSharePct float64
}

// ComputeMetrics counts divergences and tampered documents.
//
// A row diverges when its status is not passing, including a null status.
// Without a status column there are no divergences; without a divergence
// column nothing is tampered. The tampered share is not capped: tampered
// rows with a passing status still count.
func ComputeMetrics(t *Table) Metrics {
	m := Metrics{Total: t.Len()}

	if t.HasColumn(ColStatus) {
		for i := 0; i < t.Len(); i++ {
			status, _ := t.Value(i, ColStatus)
			if !IsPassing(status) {
				m.DivergenceCount++
			}
		}
		if m.Total > 0 {
			m.AccuracyPct = float64(m.Total-m.DivergenceCount) / float64(m.Total) * 100
		}
	}

	if t.HasColumn(ColDivergence) {
		for i := 0; i < t.Len(); i++ {
			if v, ok := t.Value(i, ColDivergence); ok && v == DivergenceTampered {
				m.TamperedCount++
			}
		}
		if m.DivergenceCount > 0 {
			m.TamperedSharePct = float64(m.TamperedCount) / float64(m.DivergenceCount) * 100
		}
	}

	return m
}

// AccuracyDisplay renders accuracy as "66.7%".
func (m Metrics) AccuracyDisplay() string {
	return FormatPct(m.AccuracyPct)
}

// TamperedHelp renders the tampered share as "66.7% das divergências".
func (m Metrics) TamperedHelp() string {
	return FormatPct(m.TamperedSharePct) + " das divergências"
}

// FormatPct renders a percentage with one decimal and a trailing "%".
func FormatPct(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
