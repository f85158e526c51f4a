package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions [period]",
	Short: "List stored snapshot versions of a pay period",
	Long: `List every stored snapshot version of a pay period with its capture
time, checksum and record count. Without an argument the current period is
shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		var id string
		if len(args) == 1 {
			if _, err := strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("period must be a number, got %q", args[0])
			}
			id = args[0]
		} else {
			current, _ := a.calc.PeriodFor(time.Now())
			id = periodID(current)
		}

		versions, err := a.store.Versions(id)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Printf("No snapshots stored for period %s.\n", id)
			return nil
		}
		fmt.Printf("Period %s: %d version(s)\n", id, len(versions))
		for _, v := range versions {
			fmt.Printf("  v%03d  %s  %4d records  %7d bytes  %s\n",
				v.Version, v.ExtractedAt.In(a.loc).Format("2006-01-02 15:04:05"),
				v.RecordCount, v.ByteSize, v.Checksum[:12])
		}
		return nil
	},
}
