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

// Command aligner wires a gate.Gate, checkpoint.Aligner and
// notifier.Recorder together and drives them from a scripted sequence
// of channel events, either a built-in demo or a JSON file. Grounded
// on the teacher's flag-based cmd/kuiperd/main.go: no cobra/viper, just
// flag.StringVar and a couple of package-level vars.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/barrierflow/aligner/internal/conf"
	tctx "github.com/barrierflow/aligner/internal/topo/context"
	"github.com/barrierflow/aligner/internal/gate"
	"github.com/barrierflow/aligner/internal/notifier"
	"github.com/barrierflow/aligner/internal/topo/checkpoint"
)

var (
	scriptPath string
	ruleID     string
	opID       string
)

func init() {
	flag.StringVar(&scriptPath, "script", "", "path to a JSON event script; if empty, runs the built-in demo")
	flag.StringVar(&ruleID, "rule", "demo", "rule id tagged on the aligner's logs and metrics")
	flag.StringVar(&opID, "op", "aligner", "operator id tagged on the aligner's logs and metrics")
}

// scriptEvent is one element of the JSON script, which is a single
// array of events such as {"channel":0,"type":"barrier","id":1}.
type scriptEvent struct {
	Channel            int    `json:"channel"`
	Type               string `json:"type"` // "buffer" | "barrier" | "cancel" | "eop"
	ID                 int64  `json:"id"`
	TriggerTimestampMs int64  `json:"triggerTimestampMs"`
}

func (e scriptEvent) toItem() (checkpoint.Item, error) {
	switch e.Type {
	case "buffer":
		return checkpoint.BufferItem{Bytes: []byte(fmt.Sprintf("d(%d)", e.Channel))}, nil
	case "barrier":
		return checkpoint.BarrierItem{ID: e.ID, TriggerTimestampMs: e.TriggerTimestampMs}, nil
	case "cancel":
		return checkpoint.CancellationBarrierItem{ID: e.ID}, nil
	case "eop":
		return checkpoint.EndOfPartitionItem{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}

// demoScript is spec.md §8 scenario 2: N=3, d(0), d(2), d(0), B(1,1),
// B(1,2), d(0), B(1,0) - the aligner should emit onTrigger(1) and
// unblock every channel once B(1,0) arrives.
var demoScript = []scriptEvent{
	{Channel: 0, Type: "buffer"},
	{Channel: 2, Type: "buffer"},
	{Channel: 0, Type: "buffer"},
	{Channel: 1, Type: "barrier", ID: 1},
	{Channel: 2, Type: "barrier", ID: 1},
	{Channel: 0, Type: "buffer"},
	{Channel: 0, Type: "barrier", ID: 1},
}

func loadScript(path string) ([]scriptEvent, error) {
	if path == "" {
		return demoScript, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var events []scriptEvent
	if err := json.NewDecoder(f).Decode(&events); err != nil {
		return nil, err
	}
	return events, nil
}

func main() {
	flag.Parse()
	events, err := loadScript(scriptPath)
	if err != nil {
		conf.Log.Fatalf("failed to load script: %v", err)
	}

	numChannels := 0
	for _, e := range events {
		if e.Channel+1 > numChannels {
			numChannels = e.Channel + 1
		}
	}
	if numChannels == 0 {
		numChannels = 1
	}

	queues := make([]*queueSource, numChannels)
	for i := range queues {
		queues[i] = newQueueSource()
	}
	for _, e := range events {
		item, err := e.toItem()
		if err != nil {
			conf.Log.Fatalf("bad script event: %v", err)
		}
		queues[e.Channel].push(item)
	}
	for _, q := range queues {
		q.close()
	}

	sources := make([]gate.ChannelSource, numChannels)
	for i, q := range queues {
		sources[i] = q
	}

	runID := uuid.NewString()
	ctx := tctx.Background().WithMeta(ruleID, opID)
	conf.Log.Infof("run %s: starting aligner with %d channels", runID, numChannels)
	g := gate.New(ctx, sources)
	defer g.Close()

	rec := notifier.New(ctx, opID, nil)
	aligner := checkpoint.NewAligner(g, rec)
	cig := checkpoint.NewCheckpointedInputGate(ctx, g, aligner)

	for {
		boe, ok, err := cig.PollNext()
		if err != nil {
			conf.Log.Fatalf("poll error: %v", err)
		}
		if !ok {
			break
		}
		conf.Log.Infof("emit channel=%d item=%#v", boe.Channel.ChannelIdx, boe.Item)
	}
	conf.Log.Infof("run %s done: latestCheckpointId=%d alignmentDurationNanos=%d startDelayNanos=%d",
		runID, cig.LatestCheckpointID(), cig.AlignmentDurationNanos(), cig.CheckpointStartDelayNanos())
}
