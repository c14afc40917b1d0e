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

// Item is the tagged union of everything an InputGate can deliver on a
// channel: data buffers, numbered barriers, cancellation barriers and
// end-of-partition markers. Generalizes the teacher's single-purpose
// Barrier struct (xstream/checkpoints/defs.go) to the four variants
// spec.md §3 names.
type Item interface {
	isItem()
}

// BufferItem is an opaque data payload. Recycle must be called exactly
// once if the buffer is never delivered to a consumer - e.g. it is
// still sitting in the gate's output buffer when Close is called.
type BufferItem struct {
	Bytes   []byte
	Recycle func()
}

func (BufferItem) isItem() {}

// BarrierItem is a numbered snapshot marker.
type BarrierItem struct {
	ID                 int64
	TriggerTimestampMs int64
	Options            CheckpointOptions
}

func (BarrierItem) isItem() {}

// CancellationBarrierItem aborts checkpoint ID on every task that sees it.
type CancellationBarrierItem struct {
	ID int64
}

func (CancellationBarrierItem) isItem() {}

// EndOfPartitionItem is the terminal marker for a channel.
type EndOfPartitionItem struct{}

func (EndOfPartitionItem) isItem() {}

// InputChannelInfo tags an item with the gate and channel it arrived on,
// preserved for downstream visibility per spec.md §6.
type InputChannelInfo struct {
	GateIdx    int
	ChannelIdx int
}

// BufferOrEvent pairs an Item with the channel it was read from, mirroring
// the teacher's BufferOrEvent{Data, Channel} (xstream/checkpoints/defs.go),
// generalized from a string channel name to an InputChannelInfo.
type BufferOrEvent struct {
	Item    Item
	Channel InputChannelInfo
}
