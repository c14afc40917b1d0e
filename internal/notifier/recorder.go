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

// Package notifier provides a reference checkpoint.Notifier: it logs
// each trigger/abort, calls a caller-supplied snapshot hook under
// infra.SafeRun, and records nothing else. Grounded on the teacher's
// ResponderExecutor.TriggerCheckpoint (internal/topo/checkpoint/responder.go)
// but split from the coordinator's ACK/DEC signal channel, which is out
// of scope here, into the plain error return the checkpoint.Notifier
// interface defines.
package notifier

import (
	"github.com/barrierflow/aligner/internal/topo/checkpoint"
	"github.com/barrierflow/aligner/pkg/api"
	"github.com/barrierflow/aligner/pkg/infra"
)

// SnapshotFunc persists task state for checkpoint id. It is invoked
// under infra.SafeRun so a panic inside it is turned into an error
// rather than crashing the task thread.
type SnapshotFunc func(id int64) error

// Recorder is a Notifier that logs lifecycle transitions against a
// task name and delegates state persistence to a SnapshotFunc.
type Recorder struct {
	ctx      api.StreamContext
	taskName string
	snapshot SnapshotFunc
}

// New returns a Recorder that logs through ctx and persists state with
// snapshot. snapshot may be nil, in which case OnTrigger only logs.
func New(ctx api.StreamContext, taskName string, snapshot SnapshotFunc) *Recorder {
	return &Recorder{ctx: ctx, taskName: taskName, snapshot: snapshot}
}

func (r *Recorder) OnTrigger(meta checkpoint.CheckpointMetadata, opts checkpoint.CheckpointOptions, metrics checkpoint.CheckpointMetrics) error {
	logger := r.ctx.GetLogger()
	logger.Debugf("starting checkpoint %d on task %s (alignment %dns)", meta.ID, r.taskName, metrics.AlignmentDurationNanos)
	if r.snapshot != nil {
		if err := infra.SafeRun(func() error { return r.snapshot(meta.ID) }); err != nil {
			logger.Infof("save checkpoint %d error on task %s: %v", meta.ID, r.taskName, err)
			return err
		}
	}
	logger.Debugf("complete checkpoint %d on task %s", meta.ID, r.taskName)
	return nil
}

func (r *Recorder) OnAbort(id int64, reason checkpoint.FailureReason) {
	r.ctx.GetLogger().Infof("checkpoint %d declined on task %s: %s", id, r.taskName, reason)
}

var _ checkpoint.Notifier = (*Recorder)(nil)
