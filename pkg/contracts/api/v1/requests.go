// Package api contains the query parameter contracts of the dashboard API.
// Version v1 represents the current stable API version.
package api

import (
	"strconv"

	"propulsores/pkg/contracts/domain"
)

// FilterParams are the filter query parameters shared by every data route.
// Multi-select values repeat the parameter (partner=1&partner=2).
//
// Dates are not validated here: a bad range is a warning, not an error.
type FilterParams struct {
	Start         string   `query:"start"`
	End           string   `query:"end"`
	IncludeEmpty  string   `query:"include_empty" validate:"omitempty,boolean"`
	Partners      []string `query:"partner"`
	DocumentTypes []string `query:"document_type"`
	Divergences   []string `query:"divergence"`
}

// ToFilterQuery converts validated params into the domain selection.
func (p FilterParams) ToFilterQuery() domain.FilterQuery {
	q := domain.FilterQuery{
		Start:         p.Start,
		End:           p.End,
		Partners:      p.Partners,
		DocumentTypes: p.DocumentTypes,
		Divergences:   p.Divergences,
	}
	if b, err := strconv.ParseBool(p.IncludeEmpty); err == nil {
		q.IncludeEmpty = &b
	}
	return q
}

// SummaryRequest selects one of the two standard summaries.
type SummaryRequest struct {
	FilterParams
	Column string `query:"column" validate:"required,oneof=company divergence"`
}

// TopDivergencesRequest sizes the divergence ranking.
type TopDivergencesRequest struct {
	FilterParams
	Limit int `query:"limit" validate:"min=1,max=50"`
}

// ExportRequest selects the download format.
type ExportRequest struct {
	FilterParams
	Format string `query:"format" validate:"required,oneof=csv xlsx"`
}
