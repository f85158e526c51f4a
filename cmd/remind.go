package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var (
	remindDate   string
	remindDryRun bool
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Post the timesheet reminder to chat",
	Long: `Post the timesheet reminder for the pay period containing the given
date (default: today). On the last day of a period the reminder includes the
compliance report built from the latest stored snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		ref, err := a.referenceDate(remindDate)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		return a.runRemind(ctx, ref, remindDryRun)
	},
}

func init() {
	remindCmd.Flags().StringVarP(&remindDate, "date", "d", "", "reference date (YYYY-MM-DD, default today)")
	remindCmd.Flags().BoolVarP(&remindDryRun, "dry-run", "n", false, "print the message instead of posting it")
}
