// Copyright 2021-2022 EMQ Technologies Co., Ltd.
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

// FailureReason enumerates why a pending checkpoint did not complete.
// Named and ordered per spec.md §7; the teacher only had a binary
// ACK/DEC signal (xstream/checkpoints/defs.go Message), too coarse for
// this taxonomy.
type FailureReason int

const (
	// CheckpointDeclinedOnCancellationBarrier: an explicit cancellation
	// barrier for this id was received.
	CheckpointDeclinedOnCancellationBarrier FailureReason = iota
	// CheckpointDeclinedSubsumed: a higher id overtook this pending checkpoint.
	CheckpointDeclinedSubsumed
	// CheckpointDeclinedOnCloseOfChannel: a contributing channel ended
	// before delivering its barrier.
	CheckpointDeclinedOnCloseOfChannel
	// CheckpointDeclinedTaskNotReady is never emitted by the aligner; it is
	// surfaced upward by the notifier itself if it refuses a trigger.
	CheckpointDeclinedTaskNotReady
	// CheckpointFailureUnknown is reserved; the aligner never emits it.
	CheckpointFailureUnknown
)

func (r FailureReason) String() string {
	switch r {
	case CheckpointDeclinedOnCancellationBarrier:
		return "DeclinedOnCancellationBarrier"
	case CheckpointDeclinedSubsumed:
		return "DeclinedSubsumed"
	case CheckpointDeclinedOnCloseOfChannel:
		return "DeclinedOnCloseOfChannel"
	case CheckpointDeclinedTaskNotReady:
		return "DeclinedTaskNotReady"
	default:
		return "FailureUnknown"
	}
}

// CheckpointType distinguishes a regular checkpoint from a user-triggered
// savepoint; named after Flink's CheckpointType (original_source).
type CheckpointType int

const (
	Checkpoint CheckpointType = iota
	Savepoint
)

// AlignmentMode records which alignment strategy the barrier requested.
// The aligner does not read it: every barrier is aligned the same way
// whatever its mode, and the value is forwarded unchanged in the
// options handed to OnTrigger.
type AlignmentMode int

const (
	AtLeastOnceAlignment AlignmentMode = iota
	Aligned
	Unaligned
	ForcedAligned
)

// CheckpointOptions travels with a barrier, per spec.md §6.
type CheckpointOptions struct {
	CheckpointType CheckpointType
	TargetLocation string
	AlignmentMode  AlignmentMode
}

// CheckpointMetadata identifies a completed checkpoint to the notifier.
type CheckpointMetadata struct {
	ID        int64
	Timestamp int64
}

// CheckpointMetrics carries the measurements taken during alignment.
type CheckpointMetrics struct {
	AlignmentDurationNanos int64
}

// Notifier is the task-side collaborator the aligner pushes lifecycle
// signals to: triggerOnBarrier/abortOnBarrier from spec.md §6. Grounded
// on the teacher's Responder interface (internal/topo/checkpoint/responder.go)
// but reshaped from a single TriggerCheckpoint call into the two
// distinct trigger/abort callbacks the spec requires.
type Notifier interface {
	OnTrigger(meta CheckpointMetadata, opts CheckpointOptions, metrics CheckpointMetrics) error
	OnAbort(id int64, reason FailureReason)
}
