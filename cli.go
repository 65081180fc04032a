package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jalad-shrimali/callmatch/merge"
	"github.com/jalad-shrimali/callmatch/tabular"
)

// mergeFiles runs one merge over report files on disk and writes the
// result to -out, or to stdout as CSV when -out is empty.
func mergeFiles(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	callsPath := fs.String("calls", "", "call-tracking report (csv or xlsx)")
	salesPath := fs.String("sales", "", "sales report (csv or xlsx)")
	out := fs.String("out", "", "output file, stdout when empty")
	format := fs.String("format", "", "csv or xlsx, taken from -out extension by default")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *callsPath == "" {
		return &tabular.MissingInputError{Field: "calls"}
	}
	if *salesPath == "" {
		return &tabular.MissingInputError{Field: "sales"}
	}

	calls, err := readReport("calls", *callsPath)
	if err != nil {
		return err
	}
	sold, err := readReport("sales", *salesPath)
	if err != nil {
		return err
	}
	res, err := merge.Process(calls, sold)
	if err != nil {
		return err
	}

	if *format == "" {
		*format = "csv"
		if filepath.Ext(*out) == ".xlsx" {
			*format = "xlsx"
		}
	}

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "csv":
		err = tabular.WriteCSV(w, res.Table())
	case "xlsx":
		if *out == "" {
			return errors.New("xlsx output needs -out")
		}
		err = tabular.WriteXLSX(w, res.Table(), merge.SummaryTable(merge.Summarize(res.Records)))
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}

	st := res.Stats
	fmt.Fprintf(os.Stderr, "%d sales rows, %d matched, %d unmatched (%d duplicate calls dropped)\n",
		st.SalesRows, st.Matched, st.Unmatched, st.DuplicateCalls)
	return nil
}

func readReport(name, path string) (tabular.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tabular.Table{Name: name}, err
	}
	return tabular.Decode(name, filepath.Base(path), data)
}
