// Copyright 2022-2025 EMQ Technologies Co., Ltd.
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

// Package context provides a lightweight api.StreamContext for tests,
// avoiding the need to stand up a full task runtime.
package context

import (
	"github.com/barrierflow/aligner/internal/topo/context"
	"github.com/barrierflow/aligner/pkg/api"
)

// NewMockContext returns a StreamContext tagged with ruleId/opId and
// backed by the shared logger.
func NewMockContext(ruleId string, opId string) api.StreamContext {
	return context.Background().WithMeta(ruleId, opId)
}
