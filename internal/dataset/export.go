package dataset

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXSheet is the worksheet name of the XLSX export.
const XLSXSheet = "Dados"

// WriteCSV writes t as UTF-8 CSV: a header row, no index column, every
// column of t followed by ColFilterDate. Cells keep their raw text.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(append(t.Columns(), ColFilterDate)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(t.columns)+1)
	for i := 0; i < t.Len(); i++ {
		copy(record, t.Row(i))
		record[len(t.columns)] = filterDateCell(t, i)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes t as a single-sheet workbook with the same columns as
// WriteCSV. Null cells are left empty.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), XLSXSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(XLSXSheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]interface{}, 0, len(t.columns)+1)
	for _, c := range t.columns {
		header = append(header, c)
	}
	header = append(header, ColFilterDate)
	if err := sw.SetRow("A1", header, excelize.RowOpts{}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < t.Len(); i++ {
		cells := make([]interface{}, len(t.columns)+1)
		for j, raw := range t.Row(i) {
			if !IsNull(raw) {
				cells[j] = raw
			}
		}
		if d := filterDateCell(t, i); d != "" {
			cells[len(t.columns)] = d
		}

		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
