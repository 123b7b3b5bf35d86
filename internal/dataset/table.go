package dataset

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Table is an immutable snapshot of the merged spreadsheets.
//
// Cells keep their raw text; IsNull decides which of them are missing.
// Every row has exactly len(Columns()) cells. Filtering returns a new Table
// that shares row storage with its parent, so callers must never modify the
// slices handed out by Row.
type Table struct {
	columns     []string
	index       map[string]int
	rows        [][]string
	filterDates []time.Time // zero value means null
	loadedAt    time.Time
	fingerprint string
}

// NewTable builds a table from headers and records.
//
// Rows shorter than the header are padded with empty (null) cells. A column
// named ColFilterDate is dropped and recomputed from ColCreationDate.
func NewTable(columns []string, rows [][]string) *Table {
	keep := make([]int, 0, len(columns))
	cols := make([]string, 0, len(columns))
	for i, c := range columns {
		if c == ColFilterDate {
			continue
		}
		keep = append(keep, i)
		cols = append(cols, c)
	}

	out := make([][]string, len(rows))
	for r, rec := range rows {
		row := make([]string, len(keep))
		for j, src := range keep {
			if src < len(rec) {
				row[j] = rec[src]
			}
		}
		out[r] = row
	}

	t := &Table{
		columns: cols,
		index:   indexColumns(cols),
		rows:    out,
	}
	t.filterDates = t.deriveFilterDates()
	t.fingerprint = t.computeFingerprint()
	return t
}

// WithLoadedAt returns a copy of t stamped with the load time.
func (t *Table) WithLoadedAt(at time.Time) *Table {
	c := *t
	c.loadedAt = at
	return &c
}

func indexColumns(cols []string) map[string]int {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return idx
}

func (t *Table) deriveFilterDates() []time.Time {
	dates := make([]time.Time, len(t.rows))
	col, ok := t.index[ColCreationDate]
	if !ok {
		return dates
	}
	for i, row := range t.rows {
		raw := row[col]
		if IsNull(raw) {
			continue
		}
		if d, ok := ParseDate(raw); ok {
			dates[i] = d
		}
	}
	return dates
}

// subset returns a table holding the given rows of t, in order.
func (t *Table) subset(rows []int) *Table {
	s := &Table{
		columns:     t.columns,
		index:       t.index,
		rows:        make([][]string, len(rows)),
		filterDates: make([]time.Time, len(rows)),
		loadedAt:    t.loadedAt,
	}
	for i, r := range rows {
		s.rows[i] = t.rows[r]
		s.filterDates[i] = t.filterDates[r]
	}
	s.fingerprint = s.computeFingerprint()
	return s
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns the raw cells of row i. The slice must not be modified.
func (t *Table) Row(i int) []string { return t.rows[i] }

// Value returns the cell of row i in the named column. ok is false when the
// column is missing or the cell is null.
func (t *Table) Value(i int, column string) (string, bool) {
	col, ok := t.index[column]
	if !ok {
		return "", false
	}
	raw := t.rows[i][col]
	if IsNull(raw) {
		return "", false
	}
	return raw, true
}

// FilterDate returns the derived filter date of row i.
func (t *Table) FilterDate(i int) (time.Time, bool) {
	d := t.filterDates[i]
	return d, !d.IsZero()
}

// DateBounds returns the earliest and latest non-null filter dates.
func (t *Table) DateBounds() (minDate, maxDate time.Time, ok bool) {
	for _, d := range t.filterDates {
		if d.IsZero() {
			continue
		}
		if !ok || d.Before(minDate) {
			minDate = d
		}
		if !ok || d.After(maxDate) {
			maxDate = d
		}
		ok = true
	}
	return minDate, maxDate, ok
}

// LoadedAt returns when the snapshot was fetched.
func (t *Table) LoadedAt() time.Time { return t.loadedAt }

// Fingerprint returns a content hash over columns and raw cells.
func (t *Table) Fingerprint() string { return t.fingerprint }

func (t *Table) computeFingerprint() string {
	const (
		unitSep   = "\x1f"
		recordSep = "\x1e"
	)
	h := xxhash.New()
	for _, c := range t.columns {
		_, _ = h.WriteString(c)
		_, _ = h.WriteString(unitSep)
	}
	_, _ = h.WriteString(recordSep)
	for _, row := range t.rows {
		for _, cell := range row {
			_, _ = h.WriteString(cell)
			_, _ = h.WriteString(unitSep)
		}
		_, _ = h.WriteString(recordSep)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
