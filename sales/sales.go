// Package sales reads the sales report.
package sales

import (
	"github.com/jalad-shrimali/callmatch/phone"
	"github.com/jalad-shrimali/callmatch/tabular"
)

// ColNumberDialed is the only column the merge needs from a sales report.
const ColNumberDialed = "Number Dialed"

var Columns = []tabular.Column{
	{Name: ColNumberDialed, Aliases: []string{"dialed number", "number_dialed", "phone number dialed"}},
}

// Record is one sale.
type Record struct {
	Row          int
	NumberDialed string
}

// Number is the normalized dialed number, "" when absent.
func (r Record) Number() string { return phone.Normalize(r.NumberDialed) }

// FromTable converts a sales table; every row becomes a record, including
// rows whose number cannot be normalized.
func FromTable(t tabular.Table) ([]Record, error) {
	col, err := tabular.Resolve(t, Columns...)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		out = append(out, Record{Row: i + 1, NumberDialed: tabular.Cell(row, col[ColNumberDialed])})
	}
	return out, nil
}
