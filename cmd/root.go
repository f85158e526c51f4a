package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "paywatch",
	Short: "paywatch – timesheet reminder and payroll-compliance bot",
	Long: `paywatch tracks bi-weekly pay periods, aggregates timesheet hours per
user, classifies everyone against their expected hours and posts reminder and
compliance messages to team chat. Snapshots of every extraction are stored
versioned and checksummed under ~/.paywatch/.`,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(periodCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(serveCmd)
}
