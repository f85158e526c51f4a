package chat

import (
	"fmt"
	"strings"

	"github.com/paywatch/paywatch/internal/compliance"
	"github.com/paywatch/paywatch/internal/dateutil"
	"github.com/paywatch/paywatch/internal/payperiod"
	"github.com/paywatch/paywatch/internal/timesheet"
)

// BuildReminder composes the timesheet reminder for a period. daysLeft is the
// clamped count of calendar days until the period's end day; zero means the
// period ends today.
func BuildReminder(period payperiod.Period, daysLeft int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Timesheet reminder — %s pay period\n", payperiod.Ordinal(period.Number))
	fmt.Fprintf(&b, "Period: %s – %s\n",
		period.Start.Format(dateutil.DateLayout), period.End.Format(dateutil.DateLayout))
	switch daysLeft {
	case 0:
		b.WriteString("The period ends today. Please make sure all hours are logged before end of day.\n")
	case 1:
		b.WriteString("The period ends tomorrow. Please bring your timesheet up to date.\n")
	default:
		fmt.Fprintf(&b, "%d days left in this period.\n", daysLeft)
	}
	fmt.Fprintf(&b, "Payment date: %s", period.Payment.Format(dateutil.DateLayout))
	return b.String()
}

// BuildComplianceMessage composes the end-of-period compliance summary posted
// to chat. The fixed-width table is wrapped in a code block so column
// alignment survives the chat renderer.
func BuildComplianceMessage(period payperiod.Period, report compliance.Report, stats timesheet.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Compliance report — %s pay period (%s – %s)\n",
		payperiod.Ordinal(period.Number),
		period.Start.Format(dateutil.DateLayout), period.End.Format(dateutil.DateLayout))
	b.WriteString("```\n")
	b.WriteString(compliance.RenderTable(report))
	b.WriteString("```\n")
	b.WriteString(compliance.RenderSummary(report, stats))
	return b.String()
}
