package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SilentCathedral918/vytal-sub000/internal/zonecfg"
	"github.com/SilentCathedral918/vytal-sub000/memory"
)

func init() {
	rootCmd.AddCommand(newClassesCmd())
}

func newClassesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes <capacity>",
		Short: "Show the size classes of a zone capacity",
		Long: `The classes command prints the block sizes a zone of the given capacity
serves, with the worst-case internal fragmentation of each class.

Example:
  vytalctl classes 64
  vytalctl classes 4MB
  vytalctl classes 16MB --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses(args)
		},
	}
	return cmd
}

// ClassRow describes one size class.
type ClassRow struct {
	Index int     `json:"index"`
	Size  int     `json:"size"`
	Min   int     `json:"min_request"`
	Waste float64 `json:"max_waste_ratio"`
}

// ClassesReport is the classes command output.
type ClassesReport struct {
	Capacity int        `json:"capacity"`
	Classes  []ClassRow `json:"classes"`
}

func buildClassesReport(capacity int) ClassesReport {
	sizes := memory.ComputeSizeClasses(capacity)
	report := ClassesReport{Capacity: capacity, Classes: make([]ClassRow, len(sizes))}
	prev := 0
	for i, size := range sizes {
		smallest := prev + 1
		report.Classes[i] = ClassRow{
			Index: i,
			Size:  size,
			Min:   smallest,
			Waste: float64(size-smallest) / float64(size),
		}
		prev = size
	}
	return report
}

func runClasses(args []string) error {
	capacity, err := zonecfg.ParseSize(args[0])
	if err != nil {
		return fmt.Errorf("capacity: %w", err)
	}

	report := buildClassesReport(capacity)
	if jsonOut {
		return printJSON(report)
	}

	printInfo("Size classes for %s (%s bytes): %d\n", formatBytes(int64(capacity)),
		formatNumber(int64(capacity)), len(report.Classes))

	rows := make([][]string, len(report.Classes))
	for i, c := range report.Classes {
		rows[i] = []string{
			strconv.Itoa(c.Index),
			formatNumber(int64(c.Min)),
			formatNumber(int64(c.Size)),
			formatPercent(c.Waste),
		}
	}
	renderTable([]string{"Class", "From", "To", "Max Waste"}, rows)
	return nil
}
