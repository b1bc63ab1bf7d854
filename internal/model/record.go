package model

import "time"

// RecordColumns is the export column order. Changing it changes the
// spreadsheet layout consumers depend on.
var RecordColumns = []string{
	"Year",
	"State",
	"Bill Number",
	"Bill Title/Topic",
	"Summary",
	"Sponsors",
	"Last Action",
	"Bill Link",
	"Current Status",
	"Extracted Date",
}

// NormalizedRecord is one exported spreadsheet row for a legislative bill.
type NormalizedRecord struct {
	Year        int    `json:"year"`
	State       string `json:"state"` // full state name
	BillNumber  string `json:"bill_number"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Sponsors    string `json:"sponsors"`
	LastAction  string `json:"last_action"`
	BillLink    string `json:"bill_link"`
	Status      string `json:"status"`
	ExtractedAt string `json:"extracted_at"`
}

// RecordKey uniquely identifies a record across keyword searches and runs.
type RecordKey struct {
	State      string
	BillNumber string
}

// Key returns the dedup identity for the record.
func (r NormalizedRecord) Key() RecordKey {
	return RecordKey{State: r.State, BillNumber: r.BillNumber}
}

// statusNames maps LegiScan numeric status codes to display names.
var statusNames = map[int]string{
	1: "Introduced",
	2: "Engrossed",
	3: "Enrolled",
	4: "Passed",
}

// StatusName returns the display name for a LegiScan status code,
// or "Unknown" for codes outside the tracked lifecycle.
func StatusName(code int) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return "Unknown"
}

// ExtractedDateFormat is the timestamp layout used in the Extracted Date column.
const ExtractedDateFormat = "2006-01-02 15:04:05"

// FormatExtractedDate renders t for the Extracted Date column.
func FormatExtractedDate(t time.Time) string {
	return t.Format(ExtractedDateFormat)
}
