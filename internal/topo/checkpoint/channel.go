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

// channelState is the per-channel bookkeeping spec.md §3 names: whether
// the channel is currently blocked on an in-flight alignment, the
// highest barrier id observed on it (for the monotonicity/duplicate
// checks of Invariants 4 and 6), and whether it has closed.
//
// The teacher's BarrierAligner tracked none of this per channel - it
// only kept a global blockedChannels set - so this type has no direct
// teacher equivalent; it exists to satisfy spec.md's duplicate/late
// barrier dropping rule that the teacher's simpler aligner skips.
type channelState struct {
	blocked       bool
	lastBarrierID int64
	closed        bool
}

func newChannelState() *channelState {
	return &channelState{lastBarrierID: -1}
}
