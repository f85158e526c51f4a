package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paywatch/paywatch/internal/dateutil"
	"github.com/paywatch/paywatch/internal/payperiod"
)

var periodDate string

var periodCmd = &cobra.Command{
	Use:   "period",
	Short: "Show the pay period containing a date",
	Long: `Show the pay period containing the given date (default: today),
its boundaries, payment date and the period that follows it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		ref, err := a.referenceDate(periodDate)
		if err != nil {
			return err
		}

		current, next := a.calc.PeriodFor(ref)
		fmt.Printf("%s pay period\n", payperiod.Ordinal(current.Number))
		fmt.Printf("  Start:   %s\n", current.Start.Format(dateutil.DateLayout))
		fmt.Printf("  End:     %s\n", current.End.Format(dateutil.DateLayout))
		fmt.Printf("  Payment: %s\n", current.Payment.Format(dateutil.DateLayout))
		if a.calc.IsLastDay(ref) {
			fmt.Println("  Last day of the period.")
		} else {
			fmt.Printf("  Days until end: %d\n", a.calc.DaysUntilEnd(ref))
		}
		fmt.Printf("Next: %s period, %s – %s\n", payperiod.Ordinal(next.Number),
			next.Start.Format(dateutil.DateLayout), next.End.Format(dateutil.DateLayout))
		return nil
	},
}

func init() {
	periodCmd.Flags().StringVarP(&periodDate, "date", "d", "", "reference date (YYYY-MM-DD, default today)")
}
