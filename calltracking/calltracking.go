// Package calltracking reads the call-tracking (Retreaver) report.
package calltracking

import (
	"github.com/jalad-shrimali/callmatch/phone"
	"github.com/jalad-shrimali/callmatch/tabular"
)

// Canonical column names of the call-tracking export.
const (
	ColCaller        = "Caller"
	ColCallUUID      = "CallUUID"
	ColRecordingURL  = "RecordingURL"
	ColPubID         = "PubID"
	ColPublisherName = "PublisherName"
)

// Columns lists the required columns in the order they are checked.
var Columns = []tabular.Column{
	{Name: ColCaller, Aliases: []string{"caller number", "caller id", "callerid", "caller phone"}},
	{Name: ColCallUUID, Aliases: []string{"call uuid", "call_uuid", "uuid"}},
	{Name: ColRecordingURL, Aliases: []string{"recording url", "recording_url", "recording"}},
	{Name: ColPubID, Aliases: []string{"pub id", "pub_id", "publisher id"}},
	{Name: ColPublisherName, Aliases: []string{"publisher name", "publisher_name", "publisher"}},
}

// Record is one call from the call-tracking report.
type Record struct {
	Row           int // 1-based data row in the source table
	Caller        string
	CallUUID      string
	RecordingURL  string
	PubID         string
	PublisherName string
}

// Number is the normalized caller number, "" when absent.
func (r Record) Number() string { return phone.Normalize(r.Caller) }

// FromTable converts a call-tracking table, failing with
// *tabular.MissingColumnError when a required column is absent. Only the
// caller is trimmed; the other fields pass through unchanged.
func FromTable(t tabular.Table) ([]Record, error) {
	col, err := tabular.Resolve(t, Columns...)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		out = append(out, Record{
			Row:           i + 1,
			Caller:        tabular.Cell(row, col[ColCaller]),
			CallUUID:      tabular.Field(row, col[ColCallUUID]),
			RecordingURL:  tabular.Field(row, col[ColRecordingURL]),
			PubID:         tabular.Field(row, col[ColPubID]),
			PublisherName: tabular.Field(row, col[ColPublisherName]),
		})
	}
	return out, nil
}
