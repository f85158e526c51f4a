package payperiod

import (
	"errors"
	"fmt"
	"time"

	"github.com/paywatch/paywatch/internal/dateutil"
)

// Defaults for the bi-weekly cadence.
const (
	DefaultPeriodLengthDays = 14
	DefaultPaymentDelayDays = 7
)

// ErrInvalidAnchor is returned when an Anchor cannot produce a usable calculator.
var ErrInvalidAnchor = errors.New("invalid pay-period anchor")

// Anchor is the known-good reference point for all period arithmetic:
// a period number paired with that period's end date, expressed as a
// calendar date in the business timezone.
type Anchor struct {
	BasePeriodNumber  int
	BasePeriodEndDate string // YYYY-MM-DD in the business timezone
	PeriodLengthDays  int
	PaymentDelayDays  int
}

// Period is a bounded, numbered pay period. Start is the first instant of the
// first day and End the last instant of the last day, so `t.Before(End)` style
// comparisons include the whole final day. Payment is midnight of payday.
type Period struct {
	Number  int
	Start   time.Time
	End     time.Time
	Payment time.Time
}

// Calculator derives pay periods from an Anchor. It holds no mutable state;
// a given reference date always maps to the same period.
type Calculator struct {
	anchor  Anchor
	loc     *time.Location
	baseEnd time.Time // midnight of the anchor end date in loc
}

// NewCalculator validates the anchor and binds it to the business timezone.
func NewCalculator(anchor Anchor, loc *time.Location) (*Calculator, error) {
	if loc == nil {
		return nil, fmt.Errorf("%w: nil location", ErrInvalidAnchor)
	}
	if anchor.PeriodLengthDays == 0 {
		anchor.PeriodLengthDays = DefaultPeriodLengthDays
	}
	if anchor.PaymentDelayDays == 0 {
		anchor.PaymentDelayDays = DefaultPaymentDelayDays
	}
	if anchor.PeriodLengthDays < 1 {
		return nil, fmt.Errorf("%w: period length %d days", ErrInvalidAnchor, anchor.PeriodLengthDays)
	}
	if anchor.PaymentDelayDays < 0 {
		return nil, fmt.Errorf("%w: payment delay %d days", ErrInvalidAnchor, anchor.PaymentDelayDays)
	}
	baseEnd, err := dateutil.ParseDateIn(anchor.BasePeriodEndDate, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: base period end date: %v", ErrInvalidAnchor, err)
	}
	return &Calculator{anchor: anchor, loc: loc, baseEnd: baseEnd}, nil
}

// Location returns the business timezone the calculator operates in.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// periodAt builds the period `periodsPassed` whole periods after the anchor.
// Negative values walk backward before the anchor.
func (c *Calculator) periodAt(periodsPassed int) Period {
	end := dateutil.AddDays(c.baseEnd, periodsPassed*c.anchor.PeriodLengthDays, c.loc)
	start := dateutil.AddDays(end, -(c.anchor.PeriodLengthDays - 1), c.loc)
	payment := dateutil.AddDays(end, c.anchor.PaymentDelayDays, c.loc)
	return Period{
		Number:  c.anchor.BasePeriodNumber + periodsPassed,
		Start:   dateutil.StartOfDayIn(start, c.loc),
		End:     dateutil.EndOfDayIn(end, c.loc),
		Payment: payment,
	}
}

// PeriodFor returns the period containing ref and the one immediately after.
// A reference date landing exactly on a period's end date belongs to the
// period ending that day, not the next one.
func (c *Calculator) PeriodFor(ref time.Time) (current Period, next Period) {
	days := dateutil.DaysBetween(c.baseEnd, ref, c.loc)

	var passed int
	if days <= 0 {
		// Within or before the anchor period. Walk backward in whole-period
		// steps until ref falls inside the candidate's [start, end] range.
		for dateutil.DaysBetween(c.periodAt(passed).Start, ref, c.loc) < 0 {
			passed--
		}
	} else {
		passed = (days-1)/c.anchor.PeriodLengthDays + 1
	}
	return c.periodAt(passed), c.periodAt(passed + 1)
}

// IsLastDay reports whether ref's calendar day is its period's end day.
func (c *Calculator) IsLastDay(ref time.Time) bool {
	current, _ := c.PeriodFor(ref)
	return dateutil.SameDayIn(ref, current.End, c.loc)
}

// DaysUntilEnd returns the whole calendar days from ref's day to its period's
// end day, never negative. Zero means ref is the last day of the period.
func (c *Calculator) DaysUntilEnd(ref time.Time) int {
	current, _ := c.PeriodFor(ref)
	days := dateutil.DaysBetween(ref, current.End, c.loc)
	if days < 0 {
		return 0
	}
	return days
}

// Ordinal renders n with its English ordinal suffix (1st, 2nd, 3rd, 4th, ...).
// 11, 12 and 13 take "th" despite their last digit.
func Ordinal(n int) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	suffix := "th"
	if abs%100 < 11 || abs%100 > 13 {
		switch abs % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
