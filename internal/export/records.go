package export

import (
	"strconv"

	"github.com/sells-group/bea-cli/pkg/bea"
)

// Records renders results as string rows under the Columns header. A nil
// Value renders empty.
func Records(results *bea.DataResults) [][]string {
	cols := Columns(results)
	fieldCols := cols[1 : len(cols)-5]

	out := make([][]string, 0, len(results.Data))
	for _, d := range results.Data {
		row := make([]string, 0, len(cols))
		row = append(row, d.TimePeriod)
		for _, k := range fieldCols {
			row = append(row, d.Fields[k])
		}
		value := ""
		if d.Value != nil {
			value = strconv.FormatFloat(*d.Value, 'f', -1, 64)
		}
		row = append(row, d.DataValue, value, d.Unit, strconv.Itoa(d.UnitMult), d.NoteRef)
		out = append(out, row)
	}
	return out
}
