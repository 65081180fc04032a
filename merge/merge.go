// Package merge attaches call-tracking details to sales by normalized
// phone number.
//
// Call-tracking rows are deduplicated by number, first occurrence winning,
// and every sale is then left-joined against them. The output always has
// one record per sale, in sales order. A sale whose number cannot be
// normalized never matches, even against call rows that also lack one.
package merge

import (
	"github.com/jalad-shrimali/callmatch/calltracking"
	"github.com/jalad-shrimali/callmatch/phone"
	"github.com/jalad-shrimali/callmatch/sales"
	"github.com/jalad-shrimali/callmatch/tabular"
)

// ColNumber heads the normalized number column of the merged table.
const ColNumber = "ProcessedCallerNumber"

// Header is the column layout of the merged table.
var Header = []string{
	ColNumber,
	calltracking.ColCallUUID,
	calltracking.ColRecordingURL,
	calltracking.ColPubID,
	calltracking.ColPublisherName,
}

// Record is one merged output row. Call fields are empty unless Matched.
type Record struct {
	Number        string
	CallUUID      string
	RecordingURL  string
	PubID         string
	PublisherName string
	Matched       bool
}

func (r Record) row() []string {
	return []string{r.Number, r.CallUUID, r.RecordingURL, r.PubID, r.PublisherName}
}

// Dedupe keeps the first call per normalized number, preserving order.
// Calls without a normalized number are all kept.
func Dedupe(calls []calltracking.Record) []calltracking.Record {
	seen := make(map[string]struct{}, len(calls))
	out := make([]calltracking.Record, 0, len(calls))
	for _, c := range calls {
		n := c.Number()
		if n != "" {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
		}
		out = append(out, c)
	}
	return out
}

// Join left-joins sales against the deduplicated calls. Every sale yields
// exactly one record, in sales order.
func Join(calls []calltracking.Record, sold []sales.Record) []Record {
	byNumber := make(map[string]calltracking.Record, len(calls))
	for _, c := range Dedupe(calls) {
		if n := c.Number(); n != "" {
			byNumber[n] = c
		}
	}

	out := make([]Record, 0, len(sold))
	for _, s := range sold {
		rec := Record{Number: s.Number()}
		if rec.Number != "" {
			if c, ok := byNumber[rec.Number]; ok {
				rec.CallUUID = c.CallUUID
				rec.RecordingURL = c.RecordingURL
				rec.PubID = c.PubID
				rec.PublisherName = c.PublisherName
				rec.Matched = true
			}
		}
		out = append(out, rec)
	}
	return out
}

// Stats counts what happened during a merge.
type Stats struct {
	SalesRows      int `json:"sales_rows"`
	CallRows       int `json:"call_rows"`
	UniqueCalls    int `json:"unique_calls"`
	DuplicateCalls int `json:"duplicate_calls"`
	Matched        int `json:"matched"`
	Unmatched      int `json:"unmatched"`
	AbsentNumbers  int `json:"absent_numbers"`
}

// Result is a completed merge.
type Result struct {
	Records []Record
	Stats   Stats
}

// Process runs the whole merge over the two uploaded tables. Any missing
// required column fails the merge before any output is produced.
func Process(callTable, salesTable tabular.Table) (*Result, error) {
	calls, err := calltracking.FromTable(callTable)
	if err != nil {
		return nil, err
	}
	sold, err := sales.FromTable(salesTable)
	if err != nil {
		return nil, err
	}

	unique := Dedupe(calls)
	records := Join(unique, sold)

	st := Stats{
		SalesRows:      len(sold),
		CallRows:       len(calls),
		UniqueCalls:    len(unique),
		DuplicateCalls: len(calls) - len(unique),
	}
	for _, r := range records {
		switch {
		case r.Matched:
			st.Matched++
		case r.Number == "":
			st.AbsentNumbers++
			st.Unmatched++
		default:
			st.Unmatched++
		}
	}
	return &Result{Records: records, Stats: st}, nil
}

// Table renders the merged records with the Header layout.
func (r *Result) Table() tabular.Table {
	t := tabular.Table{Name: "merged", Header: Header, Rows: make([][]string, 0, len(r.Records))}
	for _, rec := range r.Records {
		t.Rows = append(t.Rows, rec.row())
	}
	return t
}

// Head returns at most n leading records.
func (r *Result) Head(n int) []Record {
	if n < 0 || n > len(r.Records) {
		n = len(r.Records)
	}
	return r.Records[:n]
}

// Undialable counts merged rows whose number is present but not a valid
// number for region.
func (r *Result) Undialable(region string) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Number != "" && !phone.Dialable(rec.Number, region) {
			n++
		}
	}
	return n
}
