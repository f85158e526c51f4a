package timesheet

import (
	"time"

	"github.com/paywatch/paywatch/internal/dateutil"
	"github.com/paywatch/paywatch/internal/payperiod"
	"github.com/paywatch/paywatch/internal/roster"
)

// ProcessedEntry is a raw row that passed validation and the period filter,
// with its user label resolved and duration converted to seconds.
type ProcessedEntry struct {
	CanonicalUser   string // roster ID, or the trimmed raw label when unmapped
	DisplayName     string
	DurationSeconds int64
	Date            string // YYYY-MM-DD
	Project         string
	Activity        string
	Description     string
	Billable        bool
}

// Stats reconciles every input row into exactly one bucket:
// Included + OutsidePeriod + Malformed == TotalRows.
type Stats struct {
	TotalRows     int
	Included      int
	OutsidePeriod int
	Malformed     int
	DistinctUsers int
	TotalHours    float64
}

// Result is the processor output for one period.
type Result struct {
	Entries []ProcessedEntry
	Stats   Stats
}

// Processor filters and normalizes raw entries against a pay period.
// It is stateless and safe for concurrent use.
type Processor struct {
	loc *time.Location
	dir *roster.Directory
}

// NewProcessor binds the business timezone and the user directory.
// dir may be nil; all user labels then pass through unmapped.
func NewProcessor(loc *time.Location, dir *roster.Directory) *Processor {
	return &Processor{loc: loc, dir: dir}
}

// Process admits rows whose date is strict YYYY-MM-DD and whose calendar day
// falls within [period start day, period end day], both ends inclusive. Rows
// with malformed dates or durations are excluded and counted separately from
// rows that are merely outside the period; a handful of bad rows must never
// abort a whole-period aggregation.
func (p *Processor) Process(raw []Entry, period payperiod.Period) Result {
	res := Result{Stats: Stats{TotalRows: len(raw)}}
	seen := make(map[string]struct{})

	for _, row := range raw {
		day, err := dateutil.ParseDateIn(row.Date, p.loc)
		if err != nil {
			res.Stats.Malformed++
			continue
		}
		if dateutil.DaysBetween(period.Start, day, p.loc) < 0 ||
			dateutil.DaysBetween(day, period.End, p.loc) < 0 {
			res.Stats.OutsidePeriod++
			continue
		}
		seconds, err := ParseDuration(row.Duration)
		if err != nil {
			res.Stats.Malformed++
			continue
		}

		canonical := normalizeLabel(row.User)
		display := canonical
		if u := p.dir.FindByAlias(row.User); u != nil {
			canonical = u.ID
			display = u.DisplayName
		}

		res.Entries = append(res.Entries, ProcessedEntry{
			CanonicalUser:   canonical,
			DisplayName:     display,
			DurationSeconds: seconds,
			Date:            row.Date,
			Project:         row.Project,
			Activity:        row.Activity,
			Description:     row.Description,
			Billable:        parseBillable(row.Billable),
		})
		res.Stats.Included++
		res.Stats.TotalHours += float64(seconds) / 3600
		seen[canonical] = struct{}{}
	}

	res.Stats.DistinctUsers = len(seen)
	return res
}
