package dataset

import "fmt"

// DetailRow is one row of the detail table.
type DetailRow struct {
	Values     []string
	FilterDate string
	Highlight  bool
}

// DetailTable is the detail view of a filtered table.
type DetailTable struct {
	Columns []string
	Rows    []DetailRow
	// Styled is false when highlighting failed and every row is plain.
	Styled bool
	Err    error
}

// Highlighter decides whether a row is highlighted.
type Highlighter func(t *Table, i int) bool

// HighlightNonPassing marks rows whose status is not passing. Without a
// status column every row is marked.
func HighlightNonPassing(t *Table, i int) bool {
	status, _ := t.Value(i, ColStatus)
	return !IsPassing(status)
}

// Detail lists every row with its highlight flag. If h panics the table
// is returned unstyled with Err set.
func Detail(t *Table, h Highlighter) DetailTable {
	if h == nil {
		h = HighlightNonPassing
	}

	dt := DetailTable{
		Columns: append(t.Columns(), ColFilterDate),
		Rows:    make([]DetailRow, t.Len()),
	}
	for i := range dt.Rows {
		dt.Rows[i] = DetailRow{Values: t.Row(i), FilterDate: filterDateCell(t, i)}
	}

	flags, err := highlightAll(t, h)
	if err != nil {
		dt.Err = err
		return dt
	}
	for i, f := range flags {
		dt.Rows[i].Highlight = f
	}
	dt.Styled = true
	return dt
}

func highlightAll(t *Table, h Highlighter) (flags []bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			flags, err = nil, fmt.Errorf("highlight rows: %v", rec)
		}
	}()
	flags = make([]bool, t.Len())
	for i := range flags {
		flags[i] = h(t, i)
	}
	return flags, nil
}

func filterDateCell(t *Table, i int) string {
	if d, ok := t.FilterDate(i); ok {
		return FormatDate(d)
	}
	return ""
}
