package tabular

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Format is the detected encoding of an uploaded report.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Detect decides whether data is an Excel workbook or CSV text. Content
// sniffing wins; the file extension only settles a bare zip container.
// Legacy .xls workbooks are rejected.
func Detect(filename string, data []byte) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	mt := mimetype.Detect(data)
	switch {
	case mt.Is(xlsxMIME):
		return FormatXLSX, nil
	case mt.Is("application/zip") && ext == ".xlsx":
		return FormatXLSX, nil
	case mt.Is("application/vnd.ms-excel"), mt.Is("application/x-ole-storage"):
		return "", errors.New("legacy .xls workbooks are not supported, save as .xlsx or .csv")
	}
	return FormatCSV, nil
}

// Decode parses an uploaded report into a table called name.
func Decode(name, filename string, data []byte) (Table, error) {
	f, err := Detect(filename, data)
	if err != nil {
		return Table{Name: name}, &MalformedInputError{Table: name, Err: err}
	}
	if f == FormatXLSX {
		return ReadXLSX(name, bytes.NewReader(data))
	}
	return ReadCSV(name, bytes.NewReader(data))
}
