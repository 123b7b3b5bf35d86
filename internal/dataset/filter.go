package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Predicates is one filter selection. The zero value keeps every row.
//
// Start and End are calendar dates (YYYY-MM-DD, or day-first). When both are
// empty the range defaults to the table's date bounds. IncludeEmptyDates
// defaults to true when nil.
type Predicates struct {
	Start             string
	End               string
	IncludeEmptyDates *bool
	Partners          []string
	DocumentTypes     []string
	Divergences       []string
}

// Result is a filtered view plus what happened to the date filter.
type Result struct {
	Table             *Table
	Warnings          []string
	DateFilterActive  bool
	Start             time.Time
	End               time.Time
	IncludeEmptyDates bool
}

// Apply filters t. All predicates are evaluated against t itself and
// combined with AND, so applying the same predicates twice is a no-op.
func Apply(t *Table, p Predicates) Result {
	res := Result{IncludeEmptyDates: p.includeEmpty()}

	minDate, maxDate, available := t.DateBounds()
	if available {
		start, end, err := p.dateRange(minDate, maxDate)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Erro no calendário: %v", err))
		} else {
			res.DateFilterActive = true
			res.Start, res.End = start, end
		}
	}

	partners := toSet(p.Partners)
	docTypes := toSet(p.DocumentTypes)
	divergences := toSet(p.Divergences)

	keep := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if res.DateFilterActive && !res.matchDate(t, i) {
			continue
		}
		if !matchSet(t, i, ColPartnerID, partners) {
			continue
		}
		if !matchSet(t, i, ColDocumentType, docTypes) {
			continue
		}
		if !matchSet(t, i, ColDivergence, divergences) {
			continue
		}
		keep = append(keep, i)
	}

	res.Table = t.subset(keep)
	return res
}

func (r Result) matchDate(t *Table, i int) bool {
	d, ok := t.FilterDate(i)
	if !ok {
		return r.IncludeEmptyDates
	}
	return !d.Before(r.Start) && !d.After(r.End)
}

// matchSet keeps every row for an empty selection. A missing column with a
// non-empty selection keeps nothing.
func matchSet(t *Table, i int, column string, selected map[string]struct{}) bool {
	if len(selected) == 0 {
		return true
	}
	v, ok := t.Value(i, column)
	if !ok {
		return false
	}
	_, hit := selected[v]
	return hit
}

func (p Predicates) includeEmpty() bool {
	if p.IncludeEmptyDates == nil {
		return true
	}
	return *p.IncludeEmptyDates
}

func (p Predicates) dateRange(minDate, maxDate time.Time) (time.Time, time.Time, error) {
	startRaw := strings.TrimSpace(p.Start)
	endRaw := strings.TrimSpace(p.End)

	switch {
	case startRaw == "" && endRaw == "":
		return minDate, maxDate, nil
	case startRaw == "" || endRaw == "":
		return time.Time{}, time.Time{}, fmt.Errorf("selecione a data inicial e a data final")
	}

	start, ok := ParseDate(startRaw)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("data inicial inválida %q", startRaw)
	}
	end, ok := ParseDate(endRaw)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("data final inválida %q", endRaw)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("data inicial %s posterior à data final %s", FormatDate(start), FormatDate(end))
	}
	return start, end, nil
}

// Options are the selectable values of the categorical filters.
type Options struct {
	Partners            []string
	DocumentTypes       []string
	Divergences         []string
	DateFilterAvailable bool
	MinDate             time.Time
	MaxDate             time.Time
}

// BuildOptions collects the distinct non-null values of each filter column,
// sorted. Divergence options also drop PlaceholderTokens.
func BuildOptions(t *Table) Options {
	opts := Options{
		Partners:      distinct(t, ColPartnerID, false),
		DocumentTypes: distinct(t, ColDocumentType, false),
		Divergences:   distinct(t, ColDivergence, true),
	}
	opts.MinDate, opts.MaxDate, opts.DateFilterAvailable = t.DateBounds()
	return opts
}

func distinct(t *Table, column string, dropPlaceholders bool) []string {
	out := []string{}
	if !t.HasColumn(column) {
		return out
	}
	seen := make(map[string]struct{})
	for i := 0; i < t.Len(); i++ {
		v, ok := t.Value(i, column)
		if !ok {
			continue
		}
		if dropPlaceholders && IsPlaceholder(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
