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

import (
	"github.com/pkg/errors"

	"github.com/barrierflow/aligner/internal/conf"
	"github.com/barrierflow/aligner/pkg/api"
)

// InvariantViolation is raised when the gate breaks its contract (e.g.
// delivering a buffer from a channel the aligner blocked). Per spec.md
// §7 this is fatal and must halt the task; it is never used for
// ordinary barrier-protocol outcomes, which all go through Notifier.
// Wrapped with github.com/pkg/errors rather than bare fmt.Errorf so a
// halted task keeps a stack trace, matching the teacher's ambient
// error-wrapping style (see DESIGN.md).
type InvariantViolation struct {
	msg string
	err error
}

func (e *InvariantViolation) Error() string { return e.msg }
func (e *InvariantViolation) Cause() error  { return e.err }
func (e *InvariantViolation) Unwrap() error { return e.err }

func invariantViolation(format string, args ...interface{}) error {
	err := errors.Errorf(format, args...)
	return &InvariantViolation{msg: err.Error(), err: err}
}

// Aligner is the BarrierAligner state machine of spec.md §4.1: it
// consumes (channel, item) pairs from the gate, emits ordered items,
// blocks/unblocks channels on the gate, and signals the Notifier.
//
// Shaped after the teacher's BarrierAligner (internal/topo/checkpoint/
// barrier_handler.go: blockedChannels map, beginNewAlignment,
// releaseBlocksAndResetBarriers) but the processing rules are replaced
// wholesale: the teacher's aligner has no subsumption abort signal, no
// cancellation barriers, no end-of-partition abort, and no per-channel
// duplicate tracking - spec.md §4.1.1 requires all four, see DESIGN.md.
type Aligner struct {
	gate     InputGate
	notifier Notifier

	channels        []*channelState
	numOpenChannels int

	current          *pendingCheckpoint
	latestObservedID int64
	lastCancelledID  int64

	lastAlignmentNanos  int64
	lastStartDelayNanos int64

	nowNanos func() int64
	nowMs    func() int64
}

// NewAligner constructs an Aligner for a gate with the given number of
// input channels. Time is read from the shared conf.Clock.
func NewAligner(gate InputGate, notifier Notifier) *Aligner {
	n := gate.NumberOfInputChannels()
	channels := make([]*channelState, n)
	for i := range channels {
		channels[i] = newChannelState()
	}
	return &Aligner{
		gate:            gate,
		notifier:        notifier,
		channels:        channels,
		numOpenChannels: n,
		lastCancelledID: -1,
		nowNanos:        defaultNowNanos,
		nowMs:           conf.GetNowInMilli,
	}
}

func defaultNowNanos() int64 {
	return conf.Clock.Now().UnixNano()
}

// HasQueuedOutput is always false: the InputGate contract guarantees it
// never delivers from a blocked channel, so the aligner never needs to
// buffer data internally the way the teacher's aligner did (it buffered
// because its gate kept delivering from "blocked" channels regardless).
func (a *Aligner) HasQueuedOutput() bool {
	return false
}

// Process runs one item through the state machine. It returns the item
// to emit downstream and true, or a zero value and false if the item
// was consumed internally (dropped, or used to advance alignment
// without completing it).
func (a *Aligner) Process(ctx api.StreamContext, boe BufferOrEvent) (BufferOrEvent, bool) {
	c := boe.Channel.ChannelIdx
	switch item := boe.Item.(type) {
	case BufferItem:
		return a.processBuffer(ctx, boe, c)
	case BarrierItem:
		return a.processBarrier(ctx, item, c)
	case CancellationBarrierItem:
		return a.processCancellation(ctx, item, c)
	case EndOfPartitionItem:
		return a.processEndOfPartition(ctx, boe, c)
	default:
		panic(invariantViolation("unknown item type %T", item))
	}
}

func (a *Aligner) processBuffer(ctx api.StreamContext, boe BufferOrEvent, c int) (BufferOrEvent, bool) {
	if a.channels[c].blocked {
		panic(invariantViolation("gate delivered a buffer from blocked channel %d", c))
	}
	return boe, true
}

func (a *Aligner) processBarrier(ctx api.StreamContext, b BarrierItem, c int) (BufferOrEvent, bool) {
	logger := ctx.GetLogger()
	ch := a.channels[c]

	GetMetrics().BarriersReceived.WithLabelValues(ctx.GetRuleId(), ctx.GetOpId()).Inc()

	// Every dropped barrier resumes its channel: the gate paused it when
	// handing the barrier over, and nothing else would resume it.
	// Rule 1: late/duplicate.
	if b.ID <= ch.lastBarrierID {
		logger.Debugf("dropping late/duplicate barrier %d on channel %d (last seen %d)", b.ID, c, ch.lastBarrierID)
		a.gate.ResumeConsumption([]int{c})
		return BufferOrEvent{}, false
	}
	// A cancellation already retired this id globally (spec.md §4.1.1
	// CancellationBarrier case: "any barrier with id <= lastCancelledId
	// is dropped"), even on a channel that never itself saw the cancel.
	if b.ID <= a.lastCancelledID {
		logger.Debugf("dropping barrier %d on channel %d: checkpoint already cancelled", b.ID, c)
		a.gate.ResumeConsumption([]int{c})
		return BufferOrEvent{}, false
	}

	p := a.current
	// Rule 2: lower than current pending - already retired globally.
	if p != nil && b.ID < p.id {
		a.gate.ResumeConsumption([]int{c})
		return BufferOrEvent{}, false
	}

	// Rule 3: subsumption.
	if p != nil && b.ID > p.id {
		logger.Infof("checkpoint %d subsumed by barrier %d on channel %d before completing", p.id, b.ID, c)
		a.abortCurrent(ctx, CheckpointDeclinedSubsumed)
		p = nil
	}

	// Rule 4: open a new pending checkpoint if needed.
	if p == nil {
		startDelay := int64(0)
		if b.TriggerTimestampMs > 0 {
			startDelay = a.nowMs() - b.TriggerTimestampMs
		}
		a.lastStartDelayNanos = startDelay * int64(1e6)
		p = newPendingCheckpoint(b.ID, a.nowNanos(), b.TriggerTimestampMs, a.openChannelIndices(), c)
		a.current = p
		// latestObservedId tracks the most recent pending checkpoint
		// regardless of its eventual fate (completed, subsumed or
		// cancelled), per spec.md §4.2 - record it as soon as the
		// pending exists rather than only once it completes, so the
		// value doesn't lag while alignment is still in flight.
		if b.ID > a.latestObservedID {
			a.latestObservedID = b.ID
		}
	}

	// Single-channel fast path: no alignment needed.
	if len(a.channels) == 1 {
		ch.lastBarrierID = b.ID
		delete(p.awaiting, c)
		a.completeCurrent(ctx, b, c)
		return BufferOrEvent{Item: b, Channel: InputChannelInfo{ChannelIdx: c}}, true
	}

	// Rule 5: record this channel's barrier and block it, or complete.
	ch.lastBarrierID = b.ID
	delete(p.awaiting, c)
	if p.isComplete() {
		a.completeCurrent(ctx, b, c)
		return BufferOrEvent{Item: b, Channel: InputChannelInfo{ChannelIdx: c}}, true
	}
	// Blocking itself is implicit: the gate holds back further delivery
	// from a channel once it has handed over a barrier on it, until
	// resumeConsumption names that channel again (see InputGate contract).
	ch.blocked = true
	p.blocked[c] = true
	return BufferOrEvent{}, false
}

// completeCurrent finalizes a.current, which just received its last
// needed barrier on channel triggeringChannel. Every channel the gate
// had self-paused for this checkpoint - every previously blocked
// channel plus triggeringChannel itself, which the gate pauses
// unconditionally after handing over any barrier - must be resumed.
func (a *Aligner) completeCurrent(ctx api.StreamContext, b BarrierItem, triggeringChannel int) {
	p := a.current
	alignmentNanos := a.nowNanos() - p.startNanos
	a.lastAlignmentNanos = alignmentNanos
	if len(a.channels) == 1 {
		a.lastAlignmentNanos = 0
	}

	err := a.notifier.OnTrigger(
		CheckpointMetadata{ID: p.id, Timestamp: p.triggerTimestampMs},
		b.Options,
		CheckpointMetrics{AlignmentDurationNanos: a.lastAlignmentNanos},
	)
	if err != nil {
		ctx.GetLogger().Errorf("trigger checkpoint %d failed: %v", p.id, err)
	}

	labels := []string{ctx.GetRuleId(), ctx.GetOpId()}
	GetMetrics().AlignmentDuration.WithLabelValues(labels...).Set(float64(a.lastAlignmentNanos))
	GetMetrics().CheckpointStartDelay.WithLabelValues(labels...).Set(float64(a.lastStartDelayNanos))
	GetMetrics().CheckpointsTriggered.WithLabelValues(labels...).Inc()

	resume := append(p.blockedChannels(), triggeringChannel)
	a.gate.ResumeConsumption(resume)
	for _, idx := range resume {
		a.channels[idx].blocked = false
	}
	if p.id > a.latestObservedID {
		a.latestObservedID = p.id
	}
	a.current = nil
}

// abortCurrent aborts a.current (which must be non-nil) with reason,
// unblocking every channel it had parked, and destroys it. It leaves
// latestObservedID untouched: processBarrier already recorded the
// pending's id when it opened it, and a cancellation that subsumes a
// pending advances it separately in processCancellation.
func (a *Aligner) abortCurrent(ctx api.StreamContext, reason FailureReason) {
	p := a.current
	a.notifier.OnAbort(p.id, reason)
	GetMetrics().CheckpointsAborted.WithLabelValues(ctx.GetRuleId(), ctx.GetOpId()).Inc()
	blocked := p.blockedChannels()
	if len(blocked) > 0 {
		a.gate.ResumeConsumption(blocked)
		for _, idx := range blocked {
			a.channels[idx].blocked = false
		}
	}
	a.current = nil
}

func (a *Aligner) processCancellation(ctx api.StreamContext, cb CancellationBarrierItem, c int) (BufferOrEvent, bool) {
	logger := ctx.GetLogger()
	p := a.current

	switch {
	case p != nil && cb.ID == p.id:
		a.abortCurrent(ctx, CheckpointDeclinedOnCancellationBarrier)
		a.channels[c].lastBarrierID = cb.ID
		if cb.ID > a.lastCancelledID {
			a.lastCancelledID = cb.ID
		}
	case p != nil && cb.ID > p.id:
		logger.Infof("checkpoint %d subsumed by cancellation of %d", p.id, cb.ID)
		a.abortCurrent(ctx, CheckpointDeclinedSubsumed)
		if cb.ID > a.lastCancelledID {
			a.lastCancelledID = cb.ID
		}
		a.latestObservedID = cb.ID
	case p != nil && cb.ID < p.id:
		// drop: stale relative to the currently aligning checkpoint.
	case p == nil && cb.ID <= a.lastCancelledID:
		// drop: already cancelled.
	default: // p == nil && cb.ID > a.lastCancelledID
		a.lastCancelledID = cb.ID
		// Conservative rule per spec.md §9: the cancel is remembered and
		// nothing is surfaced. No pending is open here, so either no
		// barrier for this id was ever seen, or its pending already
		// ended with its one trigger or abort; staying silent keeps
		// every pending at exactly one lifecycle signal.
	}
	return BufferOrEvent{Item: cb, Channel: InputChannelInfo{ChannelIdx: c}}, true
}

func (a *Aligner) processEndOfPartition(ctx api.StreamContext, boe BufferOrEvent, c int) (BufferOrEvent, bool) {
	p := a.current
	if p != nil {
		if p.awaiting[c] || p.blocked[c] {
			a.abortCurrent(ctx, CheckpointDeclinedOnCloseOfChannel)
		}
	}
	ch := a.channels[c]
	if !ch.closed {
		ch.closed = true
		a.numOpenChannels--
	}
	return boe, true
}

func (a *Aligner) openChannelIndices() []int {
	out := make([]int, 0, a.numOpenChannels)
	for i, ch := range a.channels {
		if !ch.closed {
			out = append(out, i)
		}
	}
	return out
}
