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

package main

import (
	"context"

	"github.com/barrierflow/aligner/internal/topo/checkpoint"
)

// queueSource is a gate.ChannelSource backed by a pre-loaded, closed
// channel of items - enough to drive the CLI demo/script without any
// real network input.
type queueSource struct {
	items chan checkpoint.Item
}

func newQueueSource() *queueSource {
	return &queueSource{items: make(chan checkpoint.Item, 64)}
}

func (q *queueSource) push(item checkpoint.Item) {
	q.items <- item
}

func (q *queueSource) close() {
	close(q.items)
}

func (q *queueSource) Recv(ctx context.Context) (checkpoint.Item, bool, error) {
	select {
	case item, ok := <-q.items:
		if !ok {
			return nil, false, nil
		}
		return item, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
