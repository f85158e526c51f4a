package compliance

import (
	"math"
	"sort"

	"github.com/paywatch/paywatch/internal/roster"
	"github.com/paywatch/paywatch/internal/timesheet"
)

// ToleranceHours is the band within which worked hours may deviate from the
// expected target and still count as compliant. Inclusive on both sides.
const ToleranceHours = 3.0

// Record is the compliance classification for one user in one period.
type Record struct {
	UserID           string
	DisplayName      string
	HoursWorked      float64
	ExpectedHours    float64
	Difference       float64 // worked - expected, sign preserved
	PercentDeviation float64 // meaningless when !DeviationDefined
	DeviationDefined bool
	Compliant        bool
}

// Summary aggregates one report run.
type Summary struct {
	TotalUsers        int
	CompliantUsers    int
	NonCompliantUsers int
	ComplianceRate    float64 // percent
	TotalExpected     float64
	TotalWorked       float64
	TotalDifference   float64
	AverageHours      float64
}

// Report is the aggregation output: classified records sorted by hours worked
// descending (ties break ascending by display name) plus summary statistics.
type Report struct {
	Records []Record
	Summary Summary
}

// Build sums processed entries per canonical user, looks up each user's
// expected hours and classifies them against the tolerance band. Zero entries
// produce a valid empty report.
func Build(entries []timesheet.ProcessedEntry, dir *roster.Directory) Report {
	type acc struct {
		seconds int64
		display string
	}
	totals := make(map[string]*acc)
	var order []string
	for _, e := range entries {
		a, ok := totals[e.CanonicalUser]
		if !ok {
			a = &acc{display: e.DisplayName}
			totals[e.CanonicalUser] = a
			order = append(order, e.CanonicalUser)
		}
		a.seconds += e.DurationSeconds
	}

	var report Report
	for _, id := range order {
		a := totals[id]
		worked := float64(a.seconds) / 3600
		expected := dir.ExpectedHours(dir.FindByAlias(id))
		rec := Record{
			UserID:        id,
			DisplayName:   a.display,
			HoursWorked:   worked,
			ExpectedHours: expected,
			Difference:    worked - expected,
		}
		if expected == 0 {
			// Percent deviation is undefined against a zero target. The user
			// counts as compliant only when they logged nothing.
			rec.Compliant = worked == 0
		} else {
			rec.DeviationDefined = true
			rec.PercentDeviation = rec.Difference / expected * 100
			rec.Compliant = math.Abs(rec.Difference) <= ToleranceHours
		}
		report.Records = append(report.Records, rec)
	}

	sort.SliceStable(report.Records, func(i, j int) bool {
		a, b := report.Records[i], report.Records[j]
		if a.HoursWorked != b.HoursWorked {
			return a.HoursWorked > b.HoursWorked
		}
		return a.DisplayName < b.DisplayName
	})

	s := &report.Summary
	s.TotalUsers = len(report.Records)
	for _, rec := range report.Records {
		if rec.Compliant {
			s.CompliantUsers++
		} else {
			s.NonCompliantUsers++
		}
		s.TotalExpected += rec.ExpectedHours
		s.TotalWorked += rec.HoursWorked
		s.TotalDifference += rec.Difference
	}
	if s.TotalUsers > 0 {
		s.ComplianceRate = float64(s.CompliantUsers) / float64(s.TotalUsers) * 100
		s.AverageHours = s.TotalWorked / float64(s.TotalUsers)
	}
	return report
}
