// Package metrics instruments the tree-state core and the viewer.
//
// Timing metrics cover the hot paths (index builds, flattening, mutations,
// loading, rendering); cache metrics count hits and misses of the views that
// treestate.State memoizes. Everything is in-memory and atomic. Collection is
// on unless TREESTATE_METRICS=0.
//
//	func rebuild() {
//	    defer metrics.Timer(metrics.Flatten)()
//	    ...
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/vanderheijden86/treestate/pkg/debug"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TREESTATE_METRICS") != "0")
}

func Enabled() bool {
	return enabled.Load()
}

func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric accumulates durations for one operation. Safe for concurrent use.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64 // ns
	max   atomic.Int64 // ns
	min   atomic.Int64 // ns; 0 until the first sample
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// storeIf replaces v with n while better(n, current) holds.
func storeIf(v *atomic.Int64, n int64, better func(n, cur int64) bool) {
	for {
		cur := v.Load()
		if !better(n, cur) || v.CompareAndSwap(cur, n) {
			return
		}
	}
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)
	storeIf(&m.max, ns, func(n, cur int64) bool { return n > cur })
	storeIf(&m.min, ns, func(n, cur int64) bool { return cur == 0 || n < cur })
}

func (m *TimingMetric) Name() string { return m.name }

func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Stats snapshots the metric in milliseconds.
func (m *TimingMetric) Stats() TimingStats {
	n := m.count.Load()
	s := TimingStats{
		Name:    m.name,
		Count:   n,
		TotalMs: ms(m.total.Load()),
		MaxMs:   ms(m.max.Load()),
		MinMs:   ms(m.min.Load()),
	}
	if n > 0 {
		s.AvgMs = ms(m.total.Load() / n)
	}
	return s
}

func ms(ns int64) float64 { return float64(ns) / 1e6 }

func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// TimingStats is the JSON form printed by treeview -metrics.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer starts a measurement and returns the function that ends it. The
// sample is also written to the debug log.
//
//	defer metrics.Timer(metrics.Flatten)()
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		m.Record(d)
		debug.LogTiming(m.name, d)
	}
}

var (
	IndexBuild = newTimingMetric("index_build")
	Flatten    = newTimingMetric("flatten")
	Mutation   = newTimingMetric("mutation")
	Audit      = newTimingMetric("audit")
	TreeLoad   = newTimingMetric("tree_load")
	UIRender   = newTimingMetric("ui_render")
)

func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{IndexBuild, Flatten, Mutation, Audit, TreeLoad, UIRender}
}

// ResetAll clears every timing and cache metric.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	for _, c := range AllCacheMetrics() {
		c.Reset()
	}
}

// AllTimingStats returns the metrics that have at least one sample.
func AllTimingStats() []TimingStats {
	var stats []TimingStats
	for _, m := range AllTimingMetrics() {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
