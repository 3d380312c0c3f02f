package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arjunvk16/pi-monitor/internal/config"
	"github.com/arjunvk16/pi-monitor/internal/memory"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and prune the learned-fix cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned fixes",
	RunE: func(cmd *cobra.Command, args []string) error {
		fixes := memory.Load(cacheFilePath())
		entries := fixes.Entries()
		if len(entries) == 0 {
			fmt.Println("No learned fixes.")
			return nil
		}

		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			color.New(color.FgYellow).Printf("%s", k)
			fmt.Printf(" → %s\n", entries[k])
		}
		return nil
	},
}

var cacheForgetCmd = &cobra.Command{
	Use:   "forget <key>",
	Short: "Remove the learned fix for a problem key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		fixes := memory.Load(cacheFilePath())
		if _, ok := fixes.Get(key); !ok {
			return fmt.Errorf("no learned fix for %q", key)
		}
		if err := fixes.Forget(key); err != nil {
			return err
		}
		fmt.Printf("Forgot fix for %s\n", key)
		return nil
	},
}

// cacheFilePath resolves the cache location without requiring the full
// daemon configuration (credentials are not needed to inspect the cache).
func cacheFilePath() string {
	if path := os.Getenv("PIMON_CACHE_FILE"); path != "" {
		return path
	}
	return config.DefaultCacheFile
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheForgetCmd)
	rootCmd.AddCommand(cacheCmd)
}
