package merge

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jalad-shrimali/callmatch/phone"
	"github.com/jalad-shrimali/callmatch/tabular"
)

// PublisherSummary is the number of matched sales credited to a publisher.
type PublisherSummary struct {
	PubID         string `json:"pub_id"`
	PublisherName string `json:"publisher_name"`
	Matched       int    `json:"matched"`
}

// Summarize groups matched records by PubID, most matches first. The
// publisher name is taken from the first record seen for an ID.
func Summarize(records []Record) []PublisherSummary {
	agg := map[string]*PublisherSummary{}
	for _, r := range records {
		if !r.Matched {
			continue
		}
		a := agg[r.PubID]
		if a == nil {
			a = &PublisherSummary{PubID: r.PubID, PublisherName: r.PublisherName}
			agg[r.PubID] = a
		}
		a.Matched++
	}

	list := make([]PublisherSummary, 0, len(agg))
	for _, a := range agg {
		list = append(list, *a)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Matched != list[j].Matched {
			return list[i].Matched > list[j].Matched
		}
		return list[i].PubID < list[j].PubID
	})
	return list
}

// SummaryTable lays the summary out as the "summary" workbook sheet.
func SummaryTable(list []PublisherSummary) tabular.Table {
	t := tabular.Table{
		Name:   "summary",
		Header: []string{"PubID", "PublisherName", "Matched Sales"},
		Rows:   make([][]string, 0, len(list)),
	}
	for _, s := range list {
		t.Rows = append(t.Rows, []string{s.PubID, s.PublisherName, strconv.Itoa(s.Matched)})
	}
	return t
}

// FromTable rebuilds records from a merged table, e.g. the CSV echoed
// back by the download form. A row counts as matched when any call field
// is set. A number that is neither empty nor 10 digits makes the table
// malformed.
func FromTable(t tabular.Table) ([]Record, error) {
	cols := make([]tabular.Column, 0, len(Header))
	for _, h := range Header {
		cols = append(cols, tabular.Column{Name: h})
	}
	col, err := tabular.Resolve(t, cols...)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		r := Record{
			Number:        tabular.Cell(row, col[Header[0]]),
			CallUUID:      tabular.Field(row, col[Header[1]]),
			RecordingURL:  tabular.Field(row, col[Header[2]]),
			PubID:         tabular.Field(row, col[Header[3]]),
			PublisherName: tabular.Field(row, col[Header[4]]),
		}
		if r.Number != "" && !phone.IsNormalized(r.Number) {
			return nil, &tabular.MalformedInputError{
				Table: t.Name,
				Err:   fmt.Errorf("row %d: %q is not a 10-digit number", i+1, r.Number),
			}
		}
		r.Matched = r.CallUUID != "" || r.RecordingURL != "" || r.PubID != "" || r.PublisherName != ""
		out = append(out, r)
	}
	return out, nil
}
