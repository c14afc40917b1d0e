// Copyright 2021-2023 EMQ Technologies Co., Ltd.
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
	"github.com/barrierflow/aligner/pkg/api"
)

// InputGate is the network-facing collaborator the aligner pulls items
// from, per spec.md §4.3. It pauses a channel immediately after handing
// over any BarrierItem on it - regardless of what the aligner decides
// to do with that barrier - and does not read from that channel again
// until ResumeConsumption names its index; the aligner is responsible
// for calling ResumeConsumption for every channel it paused this way,
// including the channel whose barrier just completed alignment. Not
// modeled explicitly by the teacher (which inlined blocking into
// BarrierAligner itself, see DESIGN.md); split out here per spec.md so
// the aligner is testable against a fake gate without any I/O.
type InputGate interface {
	PollNext() (BufferOrEvent, bool, error)
	ResumeConsumption(channelIndices []int)
	NumberOfInputChannels() int
	IsFinished() bool
	Close() error
}

// CheckpointedInputGate is the thin façade spec.md §4.2 describes: it
// wraps an InputGate, feeds every item through the Aligner, and surfaces
// whatever the aligner decides to emit plus the alignment metrics.
// Grounded on the teacher's BarrierAligner.SetOutput/Process split
// (internal/topo/checkpoint/barrier_handler.go) but factored into a
// dedicated facade rather than folding polling into the aligner itself.
type CheckpointedInputGate struct {
	gate    InputGate
	aligner *Aligner
	ctx     api.StreamContext
	closed  bool
}

func NewCheckpointedInputGate(ctx api.StreamContext, gate InputGate, aligner *Aligner) *CheckpointedInputGate {
	return &CheckpointedInputGate{gate: gate, aligner: aligner, ctx: ctx}
}

// PollNext returns the next in-order item for the operator, or
// (zero, false, nil) once IsFinished is true.
func (g *CheckpointedInputGate) PollNext() (BufferOrEvent, bool, error) {
	for {
		boe, ok, err := g.gate.PollNext()
		if err != nil {
			return BufferOrEvent{}, false, err
		}
		if !ok {
			return BufferOrEvent{}, false, nil
		}
		out, emit := g.aligner.Process(g.ctx, boe)
		if emit {
			return out, true, nil
		}
		if g.gate.IsFinished() && !g.aligner.HasQueuedOutput() {
			return BufferOrEvent{}, false, nil
		}
	}
}

func (g *CheckpointedInputGate) IsFinished() bool {
	return g.gate.IsFinished() && !g.aligner.HasQueuedOutput()
}

// Close closes the underlying gate. Idempotent per spec.md §7.
func (g *CheckpointedInputGate) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	return g.gate.Close()
}

func (g *CheckpointedInputGate) AlignmentDurationNanos() int64 {
	return g.aligner.lastAlignmentNanos
}

func (g *CheckpointedInputGate) CheckpointStartDelayNanos() int64 {
	return g.aligner.lastStartDelayNanos
}

func (g *CheckpointedInputGate) LatestCheckpointID() int64 {
	return g.aligner.latestObservedID
}
