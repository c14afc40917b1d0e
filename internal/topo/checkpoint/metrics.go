// Copyright 2022-2023 EMQ Technologies Co., Ltd.
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

package checkpoint

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the per-task metric group spec.md §2/§11 calls for: alignment
// duration, start delay, and counts of triggered/aborted checkpoints and
// barriers seen. Shaped after the teacher's MetricGroup/PrometheusMetrics
// split (internal/topo/node/metric/prometheus.go) with CounterVec/GaugeVec
// registered once via prometheus.MustRegister, but keyed by "rule"/"op"
// labels instead of the teacher's "rule","type","op","instance" set since
// the aligner has no source/sink/op distinction to make.
type Metrics struct {
	AlignmentDuration    *prometheus.GaugeVec
	CheckpointStartDelay *prometheus.GaugeVec
	BarriersReceived     *prometheus.CounterVec
	CheckpointsTriggered *prometheus.CounterVec
	CheckpointsAborted   *prometheus.CounterVec
}

const (
	alignmentDurationName   = "aligner_alignment_duration_ns"
	checkpointStartDelayName = "aligner_checkpoint_start_delay_ns"
	barriersReceivedName    = "aligner_barriers_received_total"
	checkpointsTriggeredName = "aligner_checkpoints_triggered_total"
	checkpointsAbortedName  = "aligner_checkpoints_aborted_total"
)

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// GetMetrics returns the process-wide Metrics group, registering it with
// the default Prometheus registry exactly once.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		labels := []string{"rule", "op"}
		alignmentDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: alignmentDurationName,
			Help: "Time in nanoseconds spent aligning the most recently completed checkpoint",
		}, labels)
		checkpointStartDelay := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: checkpointStartDelayName,
			Help: "Time in nanoseconds between the checkpoint coordinator's trigger timestamp and this task seeing its first barrier",
		}, labels)
		barriersReceived := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: barriersReceivedName,
			Help: "Total number of barriers received across all channels",
		}, labels)
		checkpointsTriggered := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: checkpointsTriggeredName,
			Help: "Total number of checkpoints this task completed alignment for",
		}, labels)
		checkpointsAborted := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: checkpointsAbortedName,
			Help: "Total number of checkpoints this task declined or aborted",
		}, labels)
		prometheus.MustRegister(alignmentDuration, checkpointStartDelay, barriersReceived, checkpointsTriggered, checkpointsAborted)
		metrics = &Metrics{
			AlignmentDuration:    alignmentDuration,
			CheckpointStartDelay: checkpointStartDelay,
			BarriersReceived:     barriersReceived,
			CheckpointsTriggered: checkpointsTriggered,
			CheckpointsAborted:   checkpointsAborted,
		}
	})
	return metrics
}
