// Package tabular holds uploaded reports as in-memory tables of named
// columns and moves them in and out of CSV and Excel workbooks.
package tabular

import (
	"regexp"
	"strings"
)

// Table is a header plus data rows. Readers in this package guarantee every
// row has exactly len(Header) cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

var spaceRE = regexp.MustCompile(`\s+`)

// Norm canonicalizes a header cell for comparison: BOM and surrounding
// space removed, lowercased, inner whitespace collapsed.
func Norm(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return spaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// Index returns the position of the first header matching any of keys
// under Norm, or -1.
func (t Table) Index(keys ...string) int {
	for _, k := range keys {
		k = Norm(k)
		for i, h := range t.Header {
			if Norm(h) == k {
				return i
			}
		}
	}
	return -1
}

// Len is the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Cell returns row[idx] trimmed, or "" when idx is out of range.
func Cell(row []string, idx int) string {
	return strings.TrimSpace(Field(row, idx))
}

// Field returns row[idx] exactly as read, or "" when idx is out of range.
func Field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Head returns a copy of t limited to the first n rows.
func (t Table) Head(n int) Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return Table{Name: t.Name, Header: t.Header, Rows: t.Rows[:n]}
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// fit pads rec with empty cells up to width.
func fit(rec []string, width int) []string {
	if len(rec) >= width {
		return rec[:width]
	}
	row := make([]string, width)
	copy(row, rec)
	return row
}
