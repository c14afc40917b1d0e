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

// pendingCheckpoint tracks the one checkpoint currently aligning.
// Shaped after the teacher's coordinator-side pendingCheckpoint
// (internal/topo/checkpoint/coordinator.go: id, notYetAckTasks set),
// but moved down into the aligner and split the wait set into
// "awaiting" (never seen a barrier for this id) and "blocked" (already
// delivered one and is parked) per spec.md §3, since the coordinator's
// version only needed a single ack set.
type pendingCheckpoint struct {
	id                 int64
	startNanos         int64
	triggerTimestampMs int64
	awaiting           map[int]bool
	blocked            map[int]bool
}

func newPendingCheckpoint(id int64, startNanos int64, triggerTimestampMs int64, openChannels []int, firstChannel int) *pendingCheckpoint {
	awaiting := make(map[int]bool, len(openChannels))
	for _, c := range openChannels {
		if c != firstChannel {
			awaiting[c] = true
		}
	}
	return &pendingCheckpoint{
		id:                 id,
		startNanos:         startNanos,
		triggerTimestampMs: triggerTimestampMs,
		awaiting:           awaiting,
		blocked:            make(map[int]bool),
	}
}

func (p *pendingCheckpoint) isComplete() bool {
	return len(p.awaiting) == 0
}

// blockedChannels returns the channels parked on this pending checkpoint,
// for a single batched resumeConsumption call.
func (p *pendingCheckpoint) blockedChannels() []int {
	out := make([]int, 0, len(p.blocked))
	for c := range p.blocked {
		out = append(out, c)
	}
	return out
}
