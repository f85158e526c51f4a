package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/paywatch/paywatch/internal/chat"
	"github.com/paywatch/paywatch/internal/compliance"
	"github.com/paywatch/paywatch/internal/dateutil"
	"github.com/paywatch/paywatch/internal/logging"
	"github.com/paywatch/paywatch/internal/payperiod"
	"github.com/paywatch/paywatch/internal/timesheet"
	"github.com/paywatch/paywatch/internal/timesheetapi"
)

// sender returns the configured chat sink, or nil when chat is unconfigured.
func (a *app) sender() *chat.WebhookSender {
	if a.cfg.Chat.WebhookURL == "" {
		return nil
	}
	return chat.NewWebhookSender(a.cfg.Chat.WebhookURL)
}

// fetchCSV obtains the raw timesheet export for a period, either from a local
// file or from the configured API source.
func (a *app) fetchCSV(ctx context.Context, period payperiod.Period, file string) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}
	if a.cfg.Source.BaseURL == "" {
		return nil, fmt.Errorf("no timesheet source configured and no --file given")
	}
	client := timesheetapi.NewClient(ctx, timesheetapi.Config{
		BaseURL:      a.cfg.Source.BaseURL,
		TokenURL:     a.cfg.Source.TokenURL,
		ClientID:     a.cfg.Source.ClientID,
		ClientSecret: a.cfg.Source.ClientSecret,
	})
	return client.ExportCSV(ctx, period.Start, period.End, a.loc)
}

// runExtract pulls (or reads) the raw timesheet export for the period
// containing ref, saves it as a new snapshot version when the content changed
// and writes the compliance report alongside the new version.
func (a *app) runExtract(ctx context.Context, ref time.Time, file string) error {
	period, _ := a.calc.PeriodFor(ref)
	id := periodID(period)

	raw, err := a.fetchCSV(ctx, period, file)
	if err != nil {
		return fmt.Errorf("fetching timesheet export: %w", err)
	}

	entries, err := timesheet.ParseCSV(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parsing timesheet export: %w", err)
	}

	saved, err := a.store.Save(id, raw, len(entries))
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	log := logging.Logger.WithField("period", period.Number)
	if !saved.Created {
		log.WithField("version", saved.Meta.Version).Info("content unchanged, no new version")
		return nil
	}
	log.WithField("version", saved.Meta.Version).
		WithField("records", saved.Meta.RecordCount).
		Info("stored new snapshot version")

	result := timesheet.NewProcessor(a.loc, a.dir).Process(entries, period)
	report := compliance.Build(result.Entries, a.dir)

	var b bytes.Buffer
	fmt.Fprintf(&b, "Compliance report for the %s pay period (%s – %s)\n\n",
		payperiod.Ordinal(period.Number),
		period.Start.Format(dateutil.DateLayout), period.End.Format(dateutil.DateLayout))
	b.WriteString(compliance.RenderTable(report))
	b.WriteString("\n")
	b.WriteString(compliance.RenderSummary(report, result.Stats))
	if saved.Diff != nil {
		b.WriteString("\n")
		b.WriteString(saved.Diff.Render())
	}
	if err := a.store.WriteReport(id, saved.Meta.Version, b.String()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// runRemind posts the daily reminder for the period containing ref. On the
// period's last day the reminder carries the compliance table built from the
// latest stored snapshot. With dryRun set the message goes to stdout instead
// of chat.
func (a *app) runRemind(ctx context.Context, ref time.Time, dryRun bool) error {
	period, _ := a.calc.PeriodFor(ref)
	text := chat.BuildReminder(period, a.calc.DaysUntilEnd(ref))

	if a.calc.IsLastDay(ref) {
		extra, err := a.latestComplianceMessage(period)
		if err != nil {
			logging.Logger.WithError(err).Warn("could not attach compliance report to reminder")
		} else if extra != "" {
			text += "\n\n" + extra
		}
	}

	if dryRun {
		fmt.Println(text)
		return nil
	}
	s := a.sender()
	if s == nil {
		return fmt.Errorf("chat webhook is not configured")
	}
	return s.Send(ctx, a.cfg.Chat.Destination, text)
}

// latestComplianceMessage rebuilds the compliance message from the latest
// snapshot of the period, or returns "" when no snapshot exists yet.
func (a *app) latestComplianceMessage(period payperiod.Period) (string, error) {
	id := periodID(period)
	meta, err := a.store.Latest(id)
	if err != nil {
		return "", err
	}
	if meta == nil {
		return "", nil
	}
	raw, err := a.store.Content(id, meta.Version)
	if err != nil {
		return "", err
	}
	entries, err := timesheet.ParseCSV(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	result := timesheet.NewProcessor(a.loc, a.dir).Process(entries, period)
	report := compliance.Build(result.Entries, a.dir)
	return chat.BuildComplianceMessage(period, report, result.Stats), nil
}
