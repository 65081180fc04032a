package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadCSV parses a CSV report. UTF-8 with or without BOM and UTF-16 with
// BOM are accepted. The first record is the header. Empty lines are
// skipped, but a record of empty fields such as ",," is a row. Short rows
// are padded and a row wider than the header is malformed.
func ReadCSV(name string, r io.Reader) (Table, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(dec)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	t := Table{Name: name}

	header, err := cr.Read()
	if err == io.EOF {
		return t, &MalformedInputError{Table: name, Err: errors.New("no header row")}
	}
	if err != nil {
		return t, malformedCSV(name, err)
	}
	t.Header = header

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return t, malformedCSV(name, err)
		}
		if len(rec) > len(t.Header) {
			line, _ := cr.FieldPos(0)
			return t, &MalformedInputError{
				Table: name,
				Line:  line,
				Err:   fmt.Errorf("expected %d fields, saw %d", len(t.Header), len(rec)),
			}
		}
		t.Rows = append(t.Rows, fit(rec, len(t.Header)))
	}
	return t, nil
}

func malformedCSV(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &MalformedInputError{Table: name, Line: pe.Line, Err: pe.Err}
	}
	return &MalformedInputError{Table: name, Err: err}
}

// WriteCSV writes the header and rows of t.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// EncodeCSV serializes t into a fresh buffer.
func EncodeCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
