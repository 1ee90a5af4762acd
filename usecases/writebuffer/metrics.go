//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2025 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package writebuffer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mirrors lsmkv's nil-safe *Metrics pattern (adapters/repos/db/
// lsmkv/metrics.go): every method is a no-op on a nil receiver so
// callers never have to branch on whether metrics were wired.
type Metrics struct {
	bufferRows    *prometheus.GaugeVec
	bufferBytes   *prometheus.GaugeVec
	checkpointLag prometheus.Gauge
	syncLatency   prometheus.ObserverVec
}

// NewMetrics curries per-channel labels once at construction, the way
// newMemtableMetrics avoids re-currying on the hot path. reg may be nil
// to skip registration entirely (used by tests that don't want to
// collide on the default registry).
func NewMetrics(reg prometheus.Registerer, channel string) *Metrics {
	bufferRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "writebuffer_segment_rows",
		Help:        "Rows currently buffered per segment, not yet synced.",
		ConstLabels: prometheus.Labels{"channel": channel},
	}, []string{"segment"})
	bufferBytes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "writebuffer_segment_bytes",
		Help:        "Approximate bytes currently buffered per segment, not yet synced.",
		ConstLabels: prometheus.Labels{"channel": channel},
	}, []string{"segment"})
	checkpointLag := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "writebuffer_checkpoint_lag_ms",
		Help:        "Milliseconds between now and the published checkpoint timestamp.",
		ConstLabels: prometheus.Labels{"channel": channel},
	})
	syncLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "writebuffer_sync_latency_ms",
		Help: "Time from sync task submission to Future resolution.",
	}, []string{"channel"})

	if reg != nil {
		reg.MustRegister(bufferRows, bufferBytes, checkpointLag, syncLatency)
	}

	return &Metrics{
		bufferRows:    bufferRows,
		bufferBytes:   bufferBytes,
		checkpointLag: checkpointLag,
		syncLatency:   syncLatency.MustCurryWith(prometheus.Labels{"channel": channel}),
	}
}

func (m *Metrics) SetSegmentRows(segment string, rows int64) {
	if m == nil {
		return
	}
	m.bufferRows.WithLabelValues(segment).Set(float64(rows))
}

func (m *Metrics) SetSegmentBytes(segment string, bytes int64) {
	if m == nil {
		return
	}
	m.bufferBytes.WithLabelValues(segment).Set(float64(bytes))
}

func (m *Metrics) ForgetSegment(segment string) {
	if m == nil {
		return
	}
	m.bufferRows.DeleteLabelValues(segment)
	m.bufferBytes.DeleteLabelValues(segment)
}

func (m *Metrics) SetCheckpointLag(lag time.Duration) {
	if m == nil {
		return
	}
	m.checkpointLag.Set(float64(lag.Milliseconds()))
}

func (m *Metrics) ObserveSyncLatency(took time.Duration) {
	if m == nil {
		return
	}
	m.syncLatency.With(prometheus.Labels{}).Observe(float64(took.Milliseconds()))
}
