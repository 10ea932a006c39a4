package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SilentCathedral918/vytal-sub000/internal/zonecfg"
	"github.com/SilentCathedral918/vytal-sub000/memory"
)

func init() {
	rootCmd.AddCommand(newZonesCmd())
}

func newZonesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zones <config>",
		Short: "Validate a memory configuration and list its zones",
		Long: `The zones command loads a memory configuration (line format, or TOML
when the file ends in .toml), registers every zone the way the engine does
at startup, and lists them.

Example:
  vytalctl zones memory.cfg
  vytalctl zones memory.toml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runZones(args)
		},
	}
	return cmd
}

// ZoneRow describes one configured zone.
type ZoneRow struct {
	Name         string `json:"name"`
	Capacity     int    `json:"capacity"`
	Classes      int    `json:"classes"`
	LargestBlock int    `json:"largest_block"`
	Mapped       bool   `json:"mapped"`
}

// ZonesReport is the zones command output.
type ZonesReport struct {
	Path          string    `json:"path"`
	TotalCapacity int       `json:"total_capacity"`
	Zones         []ZoneRow `json:"zones"`
}

// loadManager reads path and registers its zones.
func loadManager(path string) (*zonecfg.Config, *memory.Manager, error) {
	printVerbose("Loading configuration: %s\n", path)
	cfg, err := zonecfg.Load(path)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := memory.New(cfg.Specs())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, mgr, nil
}

func runZones(args []string) error {
	path := args[0]
	_, mgr, err := loadManager(path)
	if err != nil {
		return err
	}
	defer mgr.Close()

	report := ZonesReport{Path: path, TotalCapacity: mgr.TotalCapacity()}
	for _, z := range mgr.Zones() {
		st := z.Stats()
		report.Zones = append(report.Zones, ZoneRow{
			Name:         st.Name,
			Capacity:     st.Capacity,
			Classes:      len(st.Classes),
			LargestBlock: st.Classes[len(st.Classes)-1].Size,
			Mapped:       st.Mapped,
		})
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("Zones in %s: %d (total %s)\n", path, len(report.Zones), formatBytes(int64(report.TotalCapacity)))
	rows := make([][]string, len(report.Zones))
	for i, z := range report.Zones {
		backing := "heap"
		if z.Mapped {
			backing = "mmap"
		}
		rows[i] = []string{z.Name, formatBytes(int64(z.Capacity)), strconv.Itoa(z.Classes), backing}
	}
	renderTable([]string{"Zone", "Capacity", "Classes", "Backing"}, rows)
	return nil
}
