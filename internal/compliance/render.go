package compliance

import (
	"fmt"
	"strings"

	"github.com/paywatch/paywatch/internal/timesheet"
)

// minNameWidth is the floor for the user column so small rosters still line up.
const minNameWidth = 20

// RenderTable renders the fixed-width compliance table. Output is
// byte-for-byte reproducible for identical input; golden-file tests rely on it.
func RenderTable(r Report) string {
	nameW := minNameWidth
	for _, rec := range r.Records {
		if len(rec.DisplayName) > nameW {
			nameW = len(rec.DisplayName)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %8s  %8s  %8s  %8s  %s\n", nameW, "User", "Expected", "Worked", "Diff", "Dev %", "Status")
	b.WriteString(strings.Repeat("-", nameW+2+8+2+8+2+8+2+8+2+6))
	b.WriteByte('\n')

	for _, rec := range r.Records {
		dev := "n/a"
		if rec.DeviationDefined {
			dev = fmt.Sprintf("%+.1f%%", rec.PercentDeviation)
		}
		status := "OK"
		if !rec.Compliant {
			status = "OUT"
		}
		fmt.Fprintf(&b, "%-*s  %8.1f  %8.1f  %+8.1f  %8s  %s\n",
			nameW, rec.DisplayName, rec.ExpectedHours, rec.HoursWorked, rec.Difference, dev, status)
	}
	return b.String()
}

// RenderSummary renders the run statistics, including the data-completeness
// counts so a reviewer can judge how trustworthy the report is.
func RenderSummary(r Report, stats timesheet.Stats) string {
	var b strings.Builder
	s := r.Summary
	fmt.Fprintf(&b, "Users:          %d (%d compliant, %d out of band)\n", s.TotalUsers, s.CompliantUsers, s.NonCompliantUsers)
	fmt.Fprintf(&b, "Compliance:     %.1f%%\n", s.ComplianceRate)
	fmt.Fprintf(&b, "Hours:          %.1f worked / %.1f expected (%+.1f)\n", s.TotalWorked, s.TotalExpected, s.TotalDifference)
	fmt.Fprintf(&b, "Avg per user:   %.1f\n", s.AverageHours)
	fmt.Fprintf(&b, "Rows:           %d total, %d in period, %d outside, %d malformed\n",
		stats.TotalRows, stats.Included, stats.OutsidePeriod, stats.Malformed)
	return b.String()
}
