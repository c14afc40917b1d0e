// Copyright 2021 EMQ Technologies Co., Ltd.
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

// Package conf holds the small slice of ambient configuration the
// aligner and its CLI harness need: a swappable clock and the
// package-level logger.
package conf

import (
	"github.com/sirupsen/logrus"

	"github.com/barrierflow/aligner/internal/conf/logger"
)

// Log is the shared logger used throughout this module.
var Log *logrus.Logger = logger.Log

// DefaultCheckpointIntervalMs is the fallback checkpoint interval,
// matching the teacher's 5-minute default (xstream/checkpoints/coordinator.go).
const DefaultCheckpointIntervalMs = 300000
