package timesheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Entry is one raw row from a timesheet export, untrusted at this boundary.
// Date and Duration are validated by the processor, not here.
type Entry struct {
	Date        string
	From        string
	To          string
	Duration    string // H:MM, hours may exceed 23
	User        string // free-text label, resolved against the roster
	Project     string
	Activity    string
	Description string
	Billable    string
}

// Columns the export must carry, matched case-sensitively against the header.
var requiredColumns = []string{"Date", "From", "To", "Duration", "User", "Project", "Activity", "Description", "Billable"}

// ParseCSV reads a raw timesheet export. The first row must be a header
// containing every required column; extra columns are ignored.
func ParseCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty timesheet export")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q in timesheet export", col)
		}
	}

	field := func(row []string, col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var entries []Entry
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		entries = append(entries, Entry{
			Date:        field(row, "Date"),
			From:        field(row, "From"),
			To:          field(row, "To"),
			Duration:    field(row, "Duration"),
			User:        field(row, "User"),
			Project:     field(row, "Project"),
			Activity:    field(row, "Activity"),
			Description: field(row, "Description"),
			Billable:    field(row, "Billable"),
		})
	}
	return entries, nil
}

var durationRe = regexp.MustCompile(`^(\d+):([0-5][0-9])$`)

// ParseDuration converts H:MM duration text to seconds. Hours are unbounded;
// minutes must be two digits below 60.
func ParseDuration(s string) (int64, error) {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q: want H:MM", s)
	}
	h, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	min, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return h*3600 + min*60, nil
}

func normalizeLabel(s string) string {
	return strings.TrimSpace(s)
}

// parseBillable interprets the export's billable flag leniently.
func parseBillable(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "y":
		return true
	}
	return false
}
