// Copyright 2024 The Backpackfs Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the ambient observability surface for the
// backpack engine: counters and gauges for file churn, live bytes, and
// flush activity. Nothing here is mandatory — a nil *Collector (the
// zero value of a pointer) simply means metrics are disabled, so
// library consumers who don't care about Prometheus never pay for it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus collectors for one backpack instance
// or pool of instances sharing a registry.
type Collector struct {
	filesTotal     *prometheus.CounterVec
	bytesUsed      prometheus.Gauge
	flushTotal     prometheus.Counter
	flushDuration  prometheus.Histogram
}

// NewCollector builds and registers a Collector against reg. Pass the
// same *prometheus.Registry to every backpack instance that should
// share one set of series; pass prometheus.NewRegistry() for an
// isolated, per-instance view.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		filesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backpack_files_total",
			Help: "Count of AddFile/RemoveFile calls, labeled by operation.",
		}, []string{"op"}),
		bytesUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backpack_bytes_used",
			Help: "Current sum of live payload buffer sizes (memory_bytes()).",
		}),
		flushTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backpack_flush_total",
			Help: "Count of completed Flush calls.",
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backpack_flush_duration_seconds",
			Help:    "Wall-clock duration of Flush calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(c.filesTotal, c.bytesUsed, c.flushTotal, c.flushDuration)
	return c
}

// IncAdd records one AddFile/AddFileNamed/AddEmptyFile call.
func (c *Collector) IncAdd() {
	if c == nil {
		return
	}
	c.filesTotal.WithLabelValues("add").Inc()
}

// IncRemove records one RemoveFile call.
func (c *Collector) IncRemove() {
	if c == nil {
		return
	}
	c.filesTotal.WithLabelValues("remove").Inc()
}

// SetBytesUsed updates the live-bytes gauge.
func (c *Collector) SetBytesUsed(n float64) {
	if c == nil {
		return
	}
	c.bytesUsed.Set(n)
}

// ObserveFlush records one completed Flush and its duration.
func (c *Collector) ObserveFlush(d time.Duration) {
	if c == nil {
		return
	}
	c.flushTotal.Inc()
	c.flushDuration.Observe(d.Seconds())
}
