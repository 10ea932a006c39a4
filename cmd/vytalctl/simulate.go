package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/SilentCathedral918/vytal-sub000/internal/zonecfg"
	"github.com/SilentCathedral918/vytal-sub000/memory"
	"github.com/SilentCathedral918/vytal-sub000/memory/metrics"
)

var (
	simZone     string
	simOps      int
	simSeed     int64
	simMaxSize  string
	simWorkload string
	simMetrics  bool
)

func init() {
	cmd := newSimulateCmd()
	cmd.Flags().StringVar(&simZone, "zone", "", "Zone to exercise (default: every zone)")
	cmd.Flags().IntVar(&simOps, "ops", 10000, "Number of operations per zone")
	cmd.Flags().Int64Var(&simSeed, "seed", 1, "Random seed")
	cmd.Flags().StringVar(&simMaxSize, "max-size", "1KB", "Largest block requested by the blocks workload")
	cmd.Flags().StringVar(&simWorkload, "workload", workloadBlocks, "Workload: blocks, array or map")
	cmd.Flags().BoolVar(&simMetrics, "metrics", false, "Print zone metrics in Prometheus text format")
	rootCmd.AddCommand(cmd)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <config>",
		Short: "Run a random allocation workload against configured zones",
		Long: `The simulate command registers the zones of a memory configuration and
drives a seeded random workload against them: raw block allocation and release,
a growing array, or a churning hash map. It reports how each zone fared.

Example:
  vytalctl simulate memory.cfg
  vytalctl simulate memory.cfg --zone Containers --workload map --ops 50000
  vytalctl simulate memory.cfg --seed 7 --metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(args)
		},
	}
	return cmd
}

func runSimulate(args []string) error {
	if simOps <= 0 {
		return fmt.Errorf("--ops must be positive, got %d", simOps)
	}
	maxSize, err := parseSizeFlag("--max-size", simMaxSize)
	if err != nil {
		return err
	}

	_, mgr, err := loadManager(args[0])
	if err != nil {
		return err
	}
	defer mgr.Close()

	zones := mgr.Zones()
	if simZone != "" {
		z, err := mgr.Zone(simZone)
		if err != nil {
			return err
		}
		zones = []*memory.Zone{z}
	}

	rng := rand.New(rand.NewSource(simSeed))
	results := make([]WorkloadResult, 0, len(zones))
	for _, z := range zones {
		printVerbose("Simulating %d %s operations on %s\n", simOps, simWorkload, z.Name())
		res, err := runWorkload(z, simWorkload, simOps, maxSize, rng)
		if err != nil {
			return fmt.Errorf("zone %q: %w", z.Name(), err)
		}
		results = append(results, res)
	}

	if simMetrics {
		return printMetrics(mgr)
	}
	if jsonOut {
		return printJSON(results)
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			r.Zone,
			formatNumber(int64(r.Success)),
			formatNumber(int64(r.Failures)),
			formatNumber(int64(r.Live)),
			formatBytes(int64(r.Used)),
			formatBytes(int64(r.HighMark)),
			formatPercent(r.Util),
		}
	}
	printInfo("Workload %q, %s ops per zone, seed %d\n", simWorkload, formatNumber(int64(simOps)), simSeed)
	renderTable([]string{"Zone", "OK", "Failed", "Live", "Used", "High Water", "Utilization"}, rows)
	return nil
}

func parseSizeFlag(name, value string) (int, error) {
	n, err := zonecfg.ParseSize(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// printMetrics writes the zone collector's metrics in the Prometheus text format.
func printMetrics(mgr *memory.Manager) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector(mgr, "vytal")); err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			return err
		}
	}
	return nil
}
