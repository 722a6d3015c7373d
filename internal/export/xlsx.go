// Package export writes GetData results to spreadsheet files.
package export

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/bea-cli/pkg/bea"
)

// Sheet names written by WriteXLSX.
const (
	DataSheet  = "Data"
	NotesSheet = "Notes"
)

// Columns returns the header row for results: TimePeriod, then every
// dataset-specific field in name order, then the value columns.
func Columns(results *bea.DataResults) []string {
	seen := make(map[string]bool)
	for _, d := range results.Data {
		for k := range d.Fields {
			seen[k] = true
		}
	}
	fields := make([]string, 0, len(seen))
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	cols := append([]string{"TimePeriod"}, fields...)
	return append(cols, "DataValue", "Value", "CL_UNIT", "UNIT_MULT", "NoteRef")
}

// WriteXLSX writes one header row plus one row per datum to the Data sheet,
// and the footnotes, if any, to the Notes sheet.
func WriteXLSX(path string, results *bea.DataResults) error {
	if results == nil {
		return eris.New("xlsx: nil results")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(DataSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add data sheet")
	}

	cols := Columns(results)
	addStringRow(sheet, cols)
	fieldCols := cols[1 : len(cols)-5]

	for _, d := range results.Data {
		row := sheet.AddRow()
		row.AddCell().SetString(d.TimePeriod)
		for _, k := range fieldCols {
			row.AddCell().SetString(d.Fields[k])
		}
		row.AddCell().SetString(d.DataValue)
		if d.Value != nil {
			row.AddCell().SetFloat(*d.Value)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(d.Unit)
		row.AddCell().SetInt(d.UnitMult)
		row.AddCell().SetString(d.NoteRef)
	}

	if len(results.Notes) > 0 {
		notes, err := f.AddSheet(NotesSheet)
		if err != nil {
			return eris.Wrap(err, "xlsx: add notes sheet")
		}
		addStringRow(notes, []string{"NoteRef", "NoteText"})
		for _, n := range results.Notes {
			addStringRow(notes, []string{n.NoteRef, n.NoteText})
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

// ReadXLSX returns every row of the named sheet as strings.
func ReadXLSX(path, sheetName string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	sheet, ok := f.Sheet[sheetName]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", sheetName)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// VerifyXLSX reads the data sheet at path back and checks it holds the
// header and one row per observation of results.
func VerifyXLSX(path string, results *bea.DataResults) error {
	rows, err := ReadXLSX(path, DataSheet)
	if err != nil {
		return err
	}
	if want := len(results.Data) + 1; len(rows) != want {
		return eris.Errorf("xlsx: %s has %d rows, want %d", path, len(rows), want)
	}
	cols := Columns(results)
	if len(rows[0]) < len(cols) || rows[0][0] != cols[0] {
		return eris.Errorf("xlsx: %s has an unexpected header", path)
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
