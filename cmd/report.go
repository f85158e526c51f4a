package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/paywatch/paywatch/internal/compliance"
	"github.com/paywatch/paywatch/internal/dateutil"
	"github.com/paywatch/paywatch/internal/payperiod"
	"github.com/paywatch/paywatch/internal/timesheet"
)

var (
	reportDate   string
	reportFile   string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the compliance report for a pay period",
	Long: `Build the per-user compliance report for the pay period containing the
given date. The timesheet data comes from the latest stored snapshot of that
period, or from a CSV export file given with --file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		ref, err := a.referenceDate(reportDate)
		if err != nil {
			return err
		}
		period, _ := a.calc.PeriodFor(ref)

		var raw []byte
		if reportFile != "" {
			raw, err = os.ReadFile(reportFile)
			if err != nil {
				return err
			}
		} else {
			id := periodID(period)
			meta, err := a.store.Latest(id)
			if err != nil {
				return err
			}
			if meta == nil {
				return fmt.Errorf("no snapshot stored for period %d, run 'paywatch extract' first or pass --file", period.Number)
			}
			raw, err = a.store.Content(id, meta.Version)
			if err != nil {
				return err
			}
		}

		entries, err := timesheet.ParseCSV(bytes.NewReader(raw))
		if err != nil {
			return err
		}
		result := timesheet.NewProcessor(a.loc, a.dir).Process(entries, period)
		report := compliance.Build(result.Entries, a.dir)

		switch reportFormat {
		case "table":
			fmt.Printf("Compliance report for the %s pay period (%s – %s)\n\n",
				payperiod.Ordinal(period.Number),
				period.Start.Format(dateutil.DateLayout), period.End.Format(dateutil.DateLayout))
			fmt.Print(compliance.RenderTable(report))
			fmt.Println()
			fmt.Print(compliance.RenderSummary(report, result.Stats))
		case "json":
			out := struct {
				Period int               `json:"period"`
				Start  string            `json:"start"`
				End    string            `json:"end"`
				Report compliance.Report `json:"report"`
				Stats  timesheet.Stats   `json:"stats"`
			}{period.Number, period.Start.Format(dateutil.DateLayout),
				period.End.Format(dateutil.DateLayout), report, result.Stats}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		case "md":
			fmt.Printf("## Compliance report – %s pay period (%s – %s)\n\n",
				payperiod.Ordinal(period.Number),
				period.Start.Format(dateutil.DateLayout), period.End.Format(dateutil.DateLayout))
			fmt.Println("| User | Expected | Worked | Diff | Status |")
			fmt.Println("| --- | ---: | ---: | ---: | --- |")
			for _, rec := range report.Records {
				status := "OK"
				if !rec.Compliant {
					status = "OUT"
				}
				fmt.Printf("| %s | %.1f | %.1f | %+.1f | %s |\n",
					rec.DisplayName, rec.ExpectedHours, rec.HoursWorked, rec.Difference, status)
			}
		case "csv":
			w := csv.NewWriter(os.Stdout)
			if err := w.Write([]string{"user", "display_name", "expected_hours", "hours_worked", "difference", "compliant"}); err != nil {
				return err
			}
			for _, rec := range report.Records {
				row := []string{
					rec.UserID,
					rec.DisplayName,
					strconv.FormatFloat(rec.ExpectedHours, 'f', 1, 64),
					strconv.FormatFloat(rec.HoursWorked, 'f', 2, 64),
					strconv.FormatFloat(rec.Difference, 'f', 2, 64),
					strconv.FormatBool(rec.Compliant),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		default:
			return fmt.Errorf("unknown format %q, want table, md, json or csv", reportFormat)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportDate, "date", "d", "", "reference date (YYYY-MM-DD, default today)")
	reportCmd.Flags().StringVarP(&reportFile, "file", "f", "", "read the timesheet CSV export from a file instead of the snapshot store")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "o", "table", "output format: table, md, json or csv")
}
