package snapshot

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/paywatch/paywatch/internal/timesheet"
)

// UserDelta is the signed change of one user's hours between two versions.
type UserDelta struct {
	User     string
	OldHours float64
	NewHours float64
	Change   float64
}

// DiffReport compares two snapshot versions at the record level. Each
// non-header line is an opaque record and added/removed is a set difference
// on whole lines: reordering identical lines is invisible. That is a
// documented limitation of the format, not something the diff tries to fix.
type DiffReport struct {
	PeriodID    string
	FromVersion int
	ToVersion   int
	Added       []string
	Removed     []string
	UserDeltas  []UserDelta
}

// Diff computes the line-set difference and per-user hour deltas between two
// raw snapshot contents.
func Diff(periodID string, fromVersion, toVersion int, oldContent, newContent []byte) *DiffReport {
	r := &DiffReport{PeriodID: periodID, FromVersion: fromVersion, ToVersion: toVersion}

	oldLines := recordSet(oldContent)
	newLines := recordSet(newContent)
	for line := range newLines {
		if _, ok := oldLines[line]; !ok {
			r.Added = append(r.Added, line)
		}
	}
	for line := range oldLines {
		if _, ok := newLines[line]; !ok {
			r.Removed = append(r.Removed, line)
		}
	}
	sort.Strings(r.Added)
	sort.Strings(r.Removed)

	oldHours := userHours(oldContent)
	newHours := userHours(newContent)
	users := make(map[string]struct{})
	for u := range oldHours {
		users[u] = struct{}{}
	}
	for u := range newHours {
		users[u] = struct{}{}
	}
	for u := range users {
		delta := UserDelta{User: u, OldHours: oldHours[u], NewHours: newHours[u]}
		delta.Change = delta.NewHours - delta.OldHours
		if delta.Change == 0 {
			continue
		}
		r.UserDeltas = append(r.UserDeltas, delta)
	}
	sort.Slice(r.UserDeltas, func(i, j int) bool {
		a, b := r.UserDeltas[i], r.UserDeltas[j]
		if math.Abs(a.Change) != math.Abs(b.Change) {
			return math.Abs(a.Change) > math.Abs(b.Change)
		}
		return a.User < b.User
	})
	return r
}

// recordSet collects the non-header, non-blank lines of a snapshot.
func recordSet(content []byte) map[string]struct{} {
	set := make(map[string]struct{})
	for i, line := range bytes.Split(content, []byte("\n")) {
		if i == 0 {
			continue // header
		}
		s := strings.TrimRight(string(line), "\r")
		if strings.TrimSpace(s) == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

// userHours parses snapshot content leniently and totals hours per user.
// Rows that fail to parse are ignored here; strict accounting belongs to the
// processor, not the diff.
func userHours(content []byte) map[string]float64 {
	totals := make(map[string]float64)
	entries, err := timesheet.ParseCSV(bytes.NewReader(content))
	if err != nil {
		return totals
	}
	for _, e := range entries {
		seconds, err := timesheet.ParseDuration(e.Duration)
		if err != nil {
			continue
		}
		user := strings.TrimSpace(e.User)
		if user == "" {
			continue
		}
		totals[user] += float64(seconds) / 3600
	}
	return totals
}

// Render produces the human-readable diff report stored alongside versions.
func (r *DiffReport) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Snapshot diff for period %s: v%d -> v%d\n", r.PeriodID, r.FromVersion, r.ToVersion)
	fmt.Fprintf(&b, "Records: %d added, %d removed\n", len(r.Added), len(r.Removed))
	for _, line := range r.Added {
		fmt.Fprintf(&b, "  + %s\n", line)
	}
	for _, line := range r.Removed {
		fmt.Fprintf(&b, "  - %s\n", line)
	}
	if len(r.UserDeltas) > 0 {
		b.WriteString("Hour changes:\n")
		for _, d := range r.UserDeltas {
			fmt.Fprintf(&b, "  %s: %.2f -> %.2f (%+.2f)\n", d.User, d.OldHours, d.NewHours, d.Change)
		}
	}
	return b.String()
}
