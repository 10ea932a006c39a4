// Package metrics exports zone statistics as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SilentCathedral918/vytal-sub000/memory"
)

// StatsSource is anything that can snapshot its zones. *memory.Manager implements it.
type StatsSource interface {
	Stats() []memory.ZoneStats
}

// Collector is a prometheus.Collector that reads a fresh snapshot on every scrape.
type Collector struct {
	src StatsSource

	capacity    *prometheus.Desc
	used        *prometheus.Desc
	highWater   *prometheus.Desc
	utilization *prometheus.Desc
	freeBlocks  *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector for src. Metric names are prefixed with namespace
// when it is non-empty.
func NewCollector(src StatsSource, namespace string) *Collector {
	name := func(n string) string {
		return prometheus.BuildFQName(namespace, "zone", n)
	}
	zone := []string{"zone"}
	return &Collector{
		src:         src,
		capacity:    prometheus.NewDesc(name("capacity_bytes"), "Zone region size in bytes.", zone, nil),
		used:        prometheus.NewDesc(name("used_bytes"), "Bytes held by live blocks, counted by size class.", zone, nil),
		highWater:   prometheus.NewDesc(name("high_water_bytes"), "Bytes ever handed out from the untouched tail of the zone.", zone, nil),
		utilization: prometheus.NewDesc(name("utilization_ratio"), "Used bytes divided by capacity.", zone, nil),
		freeBlocks:  prometheus.NewDesc(name("free_blocks"), "Released blocks waiting for reuse, per size class.", []string{"zone", "class"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.used
	ch <- c.highWater
	ch <- c.utilization
	ch <- c.freeBlocks
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range c.src.Stats() {
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(st.Capacity), st.Name)
		ch <- prometheus.MustNewConstMetric(c.used, prometheus.GaugeValue, float64(st.Used), st.Name)
		ch <- prometheus.MustNewConstMetric(c.highWater, prometheus.GaugeValue, float64(st.HighWater), st.Name)
		ch <- prometheus.MustNewConstMetric(c.utilization, prometheus.GaugeValue, st.Utilization(), st.Name)
		for _, cls := range st.Classes {
			ch <- prometheus.MustNewConstMetric(c.freeBlocks, prometheus.GaugeValue,
				float64(cls.FreeBlocks), st.Name, strconv.Itoa(cls.Size))
		}
	}
}
