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

package notifier_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barrierflow/aligner/internal/notifier"
	"github.com/barrierflow/aligner/internal/topo/checkpoint"
	mockContext "github.com/barrierflow/aligner/pkg/mock/context"
)

func TestOnTriggerWithNilSnapshotOnlyLogs(t *testing.T) {
	ctx := mockContext.NewMockContext("r", "op")
	rec := notifier.New(ctx, "op", nil)

	err := rec.OnTrigger(
		checkpoint.CheckpointMetadata{ID: 1, Timestamp: 1000},
		checkpoint.CheckpointOptions{},
		checkpoint.CheckpointMetrics{AlignmentDurationNanos: 42},
	)
	require.NoError(t, err)
}

func TestOnTriggerCallsSnapshotWithCheckpointID(t *testing.T) {
	ctx := mockContext.NewMockContext("r", "op")
	var gotID int64 = -1
	rec := notifier.New(ctx, "op", func(id int64) error {
		gotID = id
		return nil
	})

	err := rec.OnTrigger(checkpoint.CheckpointMetadata{ID: 7}, checkpoint.CheckpointOptions{}, checkpoint.CheckpointMetrics{})
	require.NoError(t, err)
	assert.EqualValues(t, 7, gotID)
}

func TestOnTriggerPropagatesSnapshotError(t *testing.T) {
	ctx := mockContext.NewMockContext("r", "op")
	wantErr := errors.New("disk full")
	rec := notifier.New(ctx, "op", func(id int64) error {
		return wantErr
	})

	err := rec.OnTrigger(checkpoint.CheckpointMetadata{ID: 1}, checkpoint.CheckpointOptions{}, checkpoint.CheckpointMetrics{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestOnTriggerRecoversSnapshotPanic(t *testing.T) {
	ctx := mockContext.NewMockContext("r", "op")
	rec := notifier.New(ctx, "op", func(id int64) error {
		panic("snapshot exploded")
	})

	err := rec.OnTrigger(checkpoint.CheckpointMetadata{ID: 1}, checkpoint.CheckpointOptions{}, checkpoint.CheckpointMetrics{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot exploded")
}

func TestOnAbortDoesNotPanicWithoutSnapshot(t *testing.T) {
	ctx := mockContext.NewMockContext("r", "op")
	rec := notifier.New(ctx, "op", nil)

	assert.NotPanics(t, func() {
		rec.OnAbort(3, checkpoint.CheckpointDeclinedSubsumed)
	})
}

var _ checkpoint.Notifier = (*notifier.Recorder)(nil)
