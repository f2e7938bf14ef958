package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/sensiblebit/kafstore/internal"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent generation and test runs",
	Long:  "List journaled runs from the history database, newest first. Only run metadata is journaled; certificate and key material never is.",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	internal.SetupLogger(logLevel)

	if dbPath == "" {
		return fmt.Errorf("history requires a database path (--db)")
	}
	h, err := internal.NewHistory(dbPath)
	if err != nil {
		return err
	}
	defer h.Close()

	runs, err := h.RecentRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"When", "Kind", "Alias", "Bootstrap", "Result"})
	var rows [][]string
	for _, run := range runs {
		result := "ok"
		if !run.Success {
			result = "failed"
		}
		rows = append(rows, []string{
			run.StartedAt.Format("2006-01-02 15:04"),
			run.Kind,
			run.Alias,
			run.Bootstrap,
			result,
		})
	}
	table.Bulk(rows)
	table.Render()
	return nil
}
