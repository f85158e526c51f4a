package compliance_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paywatch/paywatch/internal/compliance"
	"github.com/paywatch/paywatch/internal/roster"
	"github.com/paywatch/paywatch/internal/timesheet"
)

func hours(h float64) *float64 { return &h }

func entry(user, display string, seconds int64) timesheet.ProcessedEntry {
	return timesheet.ProcessedEntry{CanonicalUser: user, DisplayName: display, DurationSeconds: seconds}
}

func dir(t *testing.T, users ...roster.User) *roster.Directory {
	t.Helper()
	d, err := roster.New(users)
	require.NoError(t, err)
	return d
}

func TestBuildClassification(t *testing.T) {
	d := dir(t, roster.User{ID: "bob", DisplayName: "Bob", ExpectedHours: hours(80)})

	// 76.5h worked against an 80h target: outside the 3h band.
	report := compliance.Build([]timesheet.ProcessedEntry{
		entry("bob", "Bob", int64(76.5*3600)),
	}, d)

	require.Len(t, report.Records, 1)
	rec := report.Records[0]
	require.Equal(t, 76.5, rec.HoursWorked)
	require.Equal(t, 80.0, rec.ExpectedHours)
	require.Equal(t, -3.5, rec.Difference)
	require.False(t, rec.Compliant)
	require.True(t, rec.DeviationDefined)
	require.InDelta(t, -4.375, rec.PercentDeviation, 1e-9)
}

func TestToleranceBoundaries(t *testing.T) {
	d := dir(t, roster.User{ID: "u", ExpectedHours: hours(80)})

	tests := []struct {
		worked    float64
		compliant bool
	}{
		{83.0, true},   // +3.0 inclusive
		{83.01, false}, // just over
		{77.0, true},   // -3.0 inclusive
		{76.99, false}, // just under
		{80.0, true},
	}
	for _, tt := range tests {
		report := compliance.Build([]timesheet.ProcessedEntry{
			entry("u", "u", int64(tt.worked*3600)),
		}, d)
		require.Equal(t, tt.compliant, report.Records[0].Compliant, "worked=%v", tt.worked)
	}
}

func TestZeroExpectedHours(t *testing.T) {
	d := dir(t,
		roster.User{ID: "idle", DisplayName: "Idle", ExpectedHours: hours(0)},
	)

	report := compliance.Build([]timesheet.ProcessedEntry{entry("idle", "Idle", 0)}, d)
	require.True(t, report.Records[0].Compliant)
	require.False(t, report.Records[0].DeviationDefined)

	report = compliance.Build([]timesheet.ProcessedEntry{entry("idle", "Idle", 5*3600)}, d)
	require.False(t, report.Records[0].Compliant)
	require.False(t, report.Records[0].DeviationDefined)
}

func TestUnmappedUserDefaultsTo80(t *testing.T) {
	report := compliance.Build([]timesheet.ProcessedEntry{
		entry("newguy", "newguy", 80*3600),
	}, nil)
	require.Equal(t, 80.0, report.Records[0].ExpectedHours)
	require.True(t, report.Records[0].Compliant)
}

func TestSortOrder(t *testing.T) {
	report := compliance.Build([]timesheet.ProcessedEntry{
		entry("a", "Aaron", 10*3600),
		entry("z", "Zed", 40*3600),
		entry("m", "Mia", 10*3600),
	}, nil)

	var names []string
	for _, rec := range report.Records {
		names = append(names, rec.DisplayName)
	}
	// Hours descending; equal hours break ascending by display name.
	require.Equal(t, []string{"Zed", "Aaron", "Mia"}, names)
}

func TestSummary(t *testing.T) {
	d := dir(t,
		roster.User{ID: "alice", ExpectedHours: hours(80)},
		roster.User{ID: "bob", ExpectedHours: hours(80)},
	)
	report := compliance.Build([]timesheet.ProcessedEntry{
		entry("alice", "alice", 80*3600),
		entry("bob", "bob", 70*3600),
	}, d)

	s := report.Summary
	require.Equal(t, 2, s.TotalUsers)
	require.Equal(t, 1, s.CompliantUsers)
	require.Equal(t, 1, s.NonCompliantUsers)
	require.Equal(t, 50.0, s.ComplianceRate)
	require.Equal(t, 160.0, s.TotalExpected)
	require.Equal(t, 150.0, s.TotalWorked)
	require.Equal(t, -10.0, s.TotalDifference)
	require.Equal(t, 75.0, s.AverageHours)
}

func TestEmptyReport(t *testing.T) {
	report := compliance.Build(nil, nil)
	require.Empty(t, report.Records)
	require.Zero(t, report.Summary.TotalUsers)
	require.Zero(t, report.Summary.ComplianceRate)
}

func TestRenderTableGolden(t *testing.T) {
	d := dir(t,
		roster.User{ID: "alice", DisplayName: "Alice Jones", ExpectedHours: hours(80)},
		roster.User{ID: "bob", DisplayName: "Bob", ExpectedHours: hours(80)},
	)
	report := compliance.Build([]timesheet.ProcessedEntry{
		entry("alice", "Alice Jones", int64(81.5*3600)),
		entry("bob", "Bob", int64(76.5*3600)),
	}, d)

	want := "" +
		"User                  Expected    Worked      Diff     Dev %  Status\n" +
		"--------------------------------------------------------------------\n" +
		"Alice Jones               80.0      81.5      +1.5     +1.9%  OK\n" +
		"Bob                       80.0      76.5      -3.5     -4.4%  OUT\n"

	got := compliance.RenderTable(report)
	require.Equal(t, want, got)

	// Reproducibility: same input, same bytes.
	require.Equal(t, got, compliance.RenderTable(report))
}

func TestRenderTableWidensForLongNames(t *testing.T) {
	longName := "Bartholomew Montgomery III"
	report := compliance.Build([]timesheet.ProcessedEntry{
		entry("b", longName, 80*3600),
	}, nil)

	got := compliance.RenderTable(report)
	require.Contains(t, got, longName+"      80.0")
}

func TestRenderSummaryIncludesDataCompleteness(t *testing.T) {
	report := compliance.Build(nil, nil)
	stats := timesheet.Stats{TotalRows: 10, Included: 7, OutsidePeriod: 2, Malformed: 1}
	got := compliance.RenderSummary(report, stats)
	require.Contains(t, got, "10 total, 7 in period, 2 outside, 1 malformed")
}
