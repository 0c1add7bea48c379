package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"image-converter-go/internal/history"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd lists recorded batches or shows one of them.
var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past conversion runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(args)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to list")
}

func runHistory(args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.History.Enabled {
		return fmt.Errorf("run history is disabled (history.enabled: false)")
	}
	db, err := history.Open(a.cfg.History.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 1 {
		run, err := db.Get(args[0])
		if err != nil {
			return err
		}
		printRun(run)
		return nil
	}

	runs, err := db.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Format(time.DateTime),
			humanize.Time(r.StartedAt),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Converted),
			strconv.Itoa(r.Failed),
			r.OutputDir,
		})
	}
	fmt.Println(renderTable(
		[]string{"Run", "Started", "", "Files", "OK", "Failed", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func printRun(run *history.Run) {
	fmt.Printf("Run %s, %s, quality %d, %s\n",
		run.ID, run.StartedAt.Format(time.DateTime), run.Quality,
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

	rows := make([][]string, 0, len(run.Items))
	for _, item := range run.Items {
		status, detail := "OK", item.DestinationPath
		if !item.Success {
			status, detail = "FAIL", item.Error
		}
		rows = append(rows, []string{
			strconv.Itoa(item.Position),
			status,
			filepath.Base(item.SourcePath),
			item.EncoderName,
			humanize.IBytes(uint64(item.BytesWritten)),
			detail,
		})
	}
	fmt.Println(renderTable(
		[]string{"#", "Status", "Source", "Encoder", "Size", "Destination / Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}
