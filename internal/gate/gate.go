// Copyright 2021-2024 EMQ Technologies Co., Ltd.
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

// Package gate implements checkpoint.InputGate: one goroutine per
// channel fans items into a single output channel, each goroutine
// gated by a one-slot permit channel instead of a lock. Grounded on
// the teacher's per-node select-loop over a single input channel
// (internal/topo/node/join_align_node.go), generalized to N channels,
// and on tarungka-wire's errgroup-based fan-out
// (internal/pipeline/parallel_pipeline.go) for running and draining
// the per-channel goroutines as a group.
package gate

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/barrierflow/aligner/internal/topo/checkpoint"
	"github.com/barrierflow/aligner/pkg/api"
	"github.com/barrierflow/aligner/pkg/infra"
)

// ChannelSource is a single upstream channel the Gate reads from.
// Recv blocks until an item is available, ctx is cancelled (returning
// ctx.Err()), or the source is exhausted (ok=false, err=nil).
type ChannelSource interface {
	Recv(ctx context.Context) (item checkpoint.Item, ok bool, err error)
}

// Gate is the concrete InputGate consumed by checkpoint.CheckpointedInputGate.
// It never delivers a buffer from a channel it has paused: a channel is
// paused as soon as it hands over a BarrierItem, and stays paused until
// ResumeConsumption names it again, independent of whatever the aligner
// decides to do with that barrier.
type Gate struct {
	ctx     api.StreamContext
	sources []ChannelSource

	out   chan checkpoint.BufferOrEvent
	errCh chan error

	permits []chan struct{}

	mu           sync.Mutex
	finished     []bool
	finishedLeft int

	doneCh chan struct{}
	closed bool
	cancel context.CancelFunc
}

// New starts a Gate fanning sources in, immediately. The returned Gate
// must eventually be Closed.
func New(ctx api.StreamContext, sources []ChannelSource) *Gate {
	n := len(sources)
	g := &Gate{
		ctx:          ctx,
		sources:      sources,
		out:          make(chan checkpoint.BufferOrEvent, n),
		errCh:        make(chan error, n),
		permits:      make([]chan struct{}, n),
		finished:     make([]bool, n),
		finishedLeft: n,
		doneCh:       make(chan struct{}),
	}
	for i := range g.permits {
		p := make(chan struct{}, 1)
		p <- struct{}{}
		g.permits[i] = p
	}
	g.start()
	return g
}

func (g *Gate) start() {
	cancelCtx, cancel := context.WithCancel(g.ctx)
	g.cancel = cancel
	eg, egCtx := errgroup.WithContext(cancelCtx)
	for i, src := range g.sources {
		i, src := i, src
		eg.Go(func() error {
			return infra.SafeRun(func() error { return g.pump(egCtx, i, src) })
		})
	}
	go func() {
		if err := eg.Wait(); err != nil {
			infra.DrainError(g.ctx, err, g.errCh)
		}
		close(g.doneCh)
	}()
}

func (g *Gate) pump(ctx context.Context, idx int, src ChannelSource) error {
	logger := g.ctx.GetLogger()
	for {
		select {
		case <-g.permits[idx]:
		case <-ctx.Done():
			return nil
		}

		item, ok, err := src.Recv(ctx)
		if err != nil {
			return errors.Wrapf(err, "channel %d recv failed", idx)
		}
		if !ok {
			g.markFinished(idx)
			return nil
		}

		boe := checkpoint.BufferOrEvent{Item: item, Channel: checkpoint.InputChannelInfo{ChannelIdx: idx}}
		select {
		case g.out <- boe:
		case <-ctx.Done():
			recycle(item)
			return nil
		}

		switch item.(type) {
		case checkpoint.BarrierItem:
			logger.Debugf("gate pausing channel %d after barrier, awaiting resume", idx)
			continue // stay paused; do not refill the permit.
		case checkpoint.EndOfPartitionItem:
			g.markFinished(idx)
			return nil
		default:
			select {
			case g.permits[idx] <- struct{}{}:
			default:
				// a ResumeConsumption already put a permit back.
			}
		}
	}
}

func (g *Gate) markFinished(idx int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.finished[idx] {
		g.finished[idx] = true
		g.finishedLeft--
	}
}

// PollNext returns the next item any channel produced, or (zero,
// false, nil) once every channel has finished and the output channel
// has drained.
func (g *Gate) PollNext() (checkpoint.BufferOrEvent, bool, error) {
	for {
		select {
		case boe := <-g.out:
			return boe, true, nil
		case err := <-g.errCh:
			return checkpoint.BufferOrEvent{}, false, err
		case <-g.doneCh:
			select {
			case boe := <-g.out:
				return boe, true, nil
			default:
				return checkpoint.BufferOrEvent{}, false, nil
			}
		}
	}
}

// ResumeConsumption re-issues a permit for each named channel, letting
// its pump goroutine read again.
func (g *Gate) ResumeConsumption(channelIndices []int) {
	for _, idx := range channelIndices {
		select {
		case g.permits[idx] <- struct{}{}:
		default:
			// already has a permit; resuming an unblocked channel is a no-op.
		}
	}
}

func (g *Gate) NumberOfInputChannels() int {
	return len(g.sources)
}

// IsFinished is true once every channel source is exhausted and the
// fan-in goroutines have exited.
func (g *Gate) IsFinished() bool {
	g.mu.Lock()
	left := g.finishedLeft
	g.mu.Unlock()
	if left > 0 {
		return false
	}
	select {
	case <-g.doneCh:
		return len(g.out) == 0
	default:
		return false
	}
}

// Close stops every pump goroutine, releases the sources, and recycles
// any buffers still sitting in g.out that nobody ever polled. Per
// spec.md §5/§8 P1, a buffer held by the gate at close time must still
// be recycled even though it is never delivered. Idempotent; callers
// typically defer it right after New.
func (g *Gate) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()
	g.cancel()
	<-g.doneCh
	for {
		select {
		case boe := <-g.out:
			recycle(boe.Item)
		default:
			return nil
		}
	}
}

// recycle releases a BufferItem's payload if it carries a Recycle
// hook; every other item type is left alone.
func recycle(item checkpoint.Item) {
	if buf, ok := item.(checkpoint.BufferItem); ok && buf.Recycle != nil {
		buf.Recycle()
	}
}

var _ checkpoint.InputGate = (*Gate)(nil)
