package schedule

import (
	"context"
	"time"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"github.com/robfig/cron/v3"

	"github.com/paywatch/paywatch/internal/logging"
)

// jobTimeout bounds every scheduled run; the core itself never blocks.
const jobTimeout = 10 * time.Minute

// businessCalendar carries the US federal holidays used for optional
// reminder suppression.
var businessCalendar = cal.NewBusinessCalendar()

func init() {
	businessCalendar.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	)
}

// isHoliday reports whether t falls on a tracked holiday.
func isHoliday(t time.Time) bool {
	ok, _, _ := businessCalendar.IsHoliday(t)
	return ok
}

// Runner drives the local cron schedule in the business timezone.
// It is the in-process alternative to the external cron-scheduling service.
type Runner struct {
	cron         *cron.Cron
	loc          *time.Location
	skipHolidays bool
}

// NewRunner creates a scheduler whose specs are evaluated in loc.
func NewRunner(loc *time.Location, skipHolidays bool) *Runner {
	return &Runner{
		cron:         cron.New(cron.WithLocation(loc)),
		loc:          loc,
		skipHolidays: skipHolidays,
	}
}

// Add schedules a named job. Failures are logged, never fatal: one bad run
// must not take the scheduler down.
func (r *Runner) Add(spec, name string, job func(ctx context.Context) error) error {
	_, err := r.cron.AddFunc(spec, func() {
		now := time.Now().In(r.loc)
		if r.skipHolidays && isHoliday(now) {
			logging.Logger.Infof("Skipping %s: %s is a holiday", name, now.Format("2006-01-02"))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		logging.Logger.Infof("Starting scheduled %s run...", name)
		if err := job(ctx); err != nil {
			logging.Logger.WithError(err).Errorf("Scheduled %s run failed", name)
			return
		}
		logging.Logger.Infof("Scheduled %s run finished", name)
	})
	return err
}

// Start launches the cron loop in its own goroutine.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}
