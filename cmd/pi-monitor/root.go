package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pi-monitor",
	Short: "Self-healing host monitor",
	Long: `pi-monitor watches host-level conditions (NAS mount, services) and
repairs problems automatically: previously learned fixes first, then a chain
of AI reasoning providers with shared backoff. Successful AI fixes are
remembered for next time.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
