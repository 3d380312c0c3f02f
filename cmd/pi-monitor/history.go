package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arjunvk16/pi-monitor/internal/config"
	"github.com/arjunvk16/pi-monitor/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent remediation attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := os.Getenv("PIMON_HISTORY_DB")
		if path == "" {
			path = config.DefaultHistoryDB
		}

		store, err := history.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		attempts, err := store.Recent(context.Background(), historyLimit)
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			fmt.Println("No remediation attempts recorded.")
			return nil
		}

		for _, a := range attempts {
			status := color.New(color.FgRed).Sprint("FAIL")
			if a.Success {
				status = color.New(color.FgGreen).Sprint("OK")
			}
			major := ""
			if a.IsMajor {
				major = " [major]"
			}
			fmt.Printf("%s  %-4s %-16s %-6s%s %s\n",
				a.StartedAt.Local().Format("2006-01-02 15:04:05"),
				status, a.ProblemKey, a.Source, major, a.Command)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of attempts to show")
	rootCmd.AddCommand(historyCmd)
}
