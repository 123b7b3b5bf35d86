package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"propulsores/pkg/contracts/domain"
)

// jsonReport is the --format json document.
type jsonReport struct {
	DataUntil string                    `json:"data_until,omitempty"`
	Rows      int                       `json:"rows"`
	Warnings  []string                  `json:"warnings"`
	Applied   domain.AppliedFilters     `json:"applied"`
	Metrics   domain.Metrics            `json:"metrics"`
	Summaries []domain.Summary          `json:"summaries"`
	Top       []domain.RankedDivergence `json:"top_divergences"`
}

func writeJSON(w io.Writer, d *domain.Dashboard) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		DataUntil: d.Filters.DataUntil,
		Rows:      d.Rows,
		Warnings:  d.Warnings,
		Applied:   d.Applied,
		Metrics:   d.Metrics,
		Summaries: d.Summaries,
		Top:       d.Charts.TopDivergences,
	})
}

func writeText(w io.Writer, d *domain.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if d.Filters.DataUntil != "" {
		fmt.Fprintf(tw, "Dados até: %s\n", d.Filters.DataUntil)
	}
	for _, warning := range d.Warnings {
		fmt.Fprintf(tw, "Aviso: %s\n", warning)
	}
	fmt.Fprintln(tw)

	m := d.Metrics
	fmt.Fprintf(tw, "Total de Docs Analisados\t%d\n", m.Total)
	fmt.Fprintf(tw, "Assertividade\t%s\n", m.AccuracyDisplay)
	fmt.Fprintf(tw, "Divergências Gerais\t%d\n", m.DivergenceCount)
	fmt.Fprintf(tw, "Doc. Adulterados\t%d\t%s\n", m.TamperedCount, m.TamperedHelp)

	for _, s := range d.Summaries {
		fmt.Fprintf(tw, "\n%s\n", s.Title)
		if len(s.Rows) == 0 {
			fmt.Fprintln(tw, "  (sem dados)")
			continue
		}
		for _, row := range s.Rows {
			fmt.Fprintf(tw, "  %s\t%d\t%s\n", row.Label, row.Count, row.PctDisplay)
		}
	}

	if len(d.Charts.TopDivergences) > 0 {
		fmt.Fprintf(tw, "\nTop %d divergências\n", len(d.Charts.TopDivergences))
		for i, item := range d.Charts.TopDivergences {
			fmt.Fprintf(tw, "  %d. %s\t%d\t%s\n", i+1, item.Reason, item.Count, item.Percent)
		}
	}

	return tw.Flush()
}
