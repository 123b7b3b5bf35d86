package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Frame is one spreadsheet as fetched: trimmed, de-duplicated headers and
// raw records.
type Frame struct {
	Columns []string
	Records [][]string
}

var errNoColumns = errors.New("no columns to parse from file")

// ParseCSV reads a UTF-8 CSV document whose first record is the header.
//
// Blank lines are skipped. A record with more fields than the header is an
// error; shorter records are padded with nulls.
func ParseCSV(r io.Reader) (*Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	frame := &Frame{Columns: NormalizeHeaders(header)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("expected %d fields in line %d, saw %d", len(header), line, len(rec))
		}
		frame.Records = append(frame.Records, padRecord(rec, len(header)))
	}
	return frame, nil
}

// FrameFromValues builds a frame from a grid of cell values whose first row
// is the header, as returned by the Sheets API.
func FrameFromValues(values [][]interface{}) (*Frame, error) {
	if len(values) == 0 {
		return nil, errNoColumns
	}
	header := make([]string, len(values[0]))
	for i, v := range values[0] {
		header[i] = cellString(v)
	}

	frame := &Frame{Columns: NormalizeHeaders(header)}
	for n, row := range values[1:] {
		if len(row) > len(header) {
			return nil, fmt.Errorf("expected %d fields in row %d, saw %d", len(header), n+2, len(row))
		}
		rec := make([]string, len(header))
		for i, v := range row {
			rec[i] = cellString(v)
		}
		frame.Records = append(frame.Records, rec)
	}
	return frame, nil
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func padRecord(rec []string, n int) []string {
	if len(rec) == n {
		return rec
	}
	out := make([]string, n)
	copy(out, rec)
	return out
}

// NormalizeHeaders trims every header and renames duplicates within one
// sheet to "name.1", "name.2", ... in order of appearance.
func NormalizeHeaders(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int)
	for i, h := range header {
		name := strings.TrimSpace(h)
		for used[name] {
			base := strings.TrimSpace(h)
			suffix[base]++
			name = fmt.Sprintf("%s.%d", base, suffix[base])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// Merge concatenates frames in order. Columns are aligned by name: the
// first frame's columns come first, then columns first seen in later
// frames. Cells a frame does not have are null.
func Merge(frames ...*Frame) *Table {
	var columns []string
	pos := make(map[string]int)
	for _, f := range frames {
		for _, c := range f.Columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(columns)
				columns = append(columns, c)
			}
		}
	}

	var rows [][]string
	for _, f := range frames {
		mapping := make([]int, len(f.Columns))
		for i, c := range f.Columns {
			mapping[i] = pos[c]
		}
		for _, rec := range f.Records {
			row := make([]string, len(columns))
			for i, cell := range rec {
				if i < len(mapping) {
					row[mapping[i]] = cell
				}
			}
			rows = append(rows, row)
		}
	}

	return NewTable(columns, rows)
}

// dayFirstLayouts are tried in order. Single-digit day and month are
// accepted by the "2" and "1" layout elements.
var dayFirstLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006",
	"2-1-2006 15:04:05",
	"2.1.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate parses a creation date day-first and returns its calendar date
// at UTC midnight.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	return time.Time{}, false
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a filter date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
