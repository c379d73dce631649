/*
   Copyright 2018 Banco Bilbao Vizcaya Argentaria, S.A.
   Copyright 2026 The Hypercore Authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HypercoreAppendTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hypercore_append_total",
			Help: "Number of append operations committed to the feed.",
		},
	)
	HypercoreAppendBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hypercore_append_bytes_total",
			Help: "Total number of block bytes appended to the feed.",
		},
	)
	HypercoreGetDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hypercore_get_duration_seconds",
			Help:    "Duration of block get operations.",
			Buckets: prometheus.DefBuckets,
		},
	)
	HypercoreOplogCompactionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hypercore_oplog_compactions_total",
			Help: "Number of times the oplog's entry region has been folded into a header slot.",
		},
	)
	HypercoreBitfieldPages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hypercore_bitfield_pages",
			Help: "Number of sparse bitfield pages currently held in memory.",
		},
	)
	HypercoreTruncateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hypercore_truncate_total",
			Help: "Number of truncate operations, each of which bumps the fork counter.",
		},
	)

	metricsList = []prometheus.Collector{
		HypercoreAppendTotal,
		HypercoreAppendBytesTotal,
		HypercoreGetDurationSeconds,
		HypercoreOplogCompactionsTotal,
		HypercoreBitfieldPages,
		HypercoreTruncateTotal,
	}

	registerMetrics sync.Once
)

// Register registers every core metric against the r of its first call;
// later calls do nothing, whatever r they pass. Callers can invoke it
// from every Core.Open without risking a duplicate-registration panic.
func Register(r prometheus.Registerer) {
	registerMetrics.Do(
		func() {
			for _, metric := range metricsList {
				r.MustRegister(metric)
			}
		},
	)
}
