package cmd

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rollout-alloc/rollout-alloc/alloc/trace"
)

var summarizeTracePath string

// summarizeCmd prints aggregate statistics for a saved round trace
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a round trace written by `run --trace-out`",
	Run: func(cmd *cobra.Command, args []string) {
		at, err := trace.Load(summarizeTracePath)
		if err != nil {
			logrus.Fatalf("Unable to load trace: %v", err)
		}

		summary := trace.Summarize(at)
		fmt.Printf("run id: %s\n", at.RunID)
		printSummary(summary)

		// Per-key totals, heaviest first.
		type keyTotal struct {
			key   string
			total int64
		}
		totals := make([]keyTotal, 0, len(summary.KeyAttempts))
		for k, v := range summary.KeyAttempts {
			totals = append(totals, keyTotal{k, v})
		}
		sort.Slice(totals, func(i, j int) bool {
			if totals[i].total != totals[j].total {
				return totals[i].total > totals[j].total
			}
			return totals[i].key < totals[j].key
		})
		fmt.Println("attempts per key:")
		for _, kt := range totals {
			fmt.Printf("  %-24s %d\n", kt.key, kt.total)
		}
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeTracePath, "trace", "", "Path to a trace JSON file")
	_ = summarizeCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(summarizeCmd)
}
