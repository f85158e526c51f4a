package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var (
	extractDate string
	extractFile string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Pull a timesheet snapshot for the current pay period",
	Long: `Fetch the timesheet CSV export for the pay period containing the given
date (default: today) and store it as a snapshot version. Identical content is
recognized by checksum and stored only once; a changed export creates the next
version together with a diff against the previous one and a fresh compliance
report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		ref, err := a.referenceDate(extractDate)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()
		return a.runExtract(ctx, ref, extractFile)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractDate, "date", "d", "", "reference date (YYYY-MM-DD, default today)")
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "read the CSV export from a file instead of the API source")
}
