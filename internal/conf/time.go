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

package conf

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/barrierflow/aligner/internal/conf/logger"
	"github.com/barrierflow/aligner/pkg/cast"
)

// Clock is package-global so tests can swap in a mock clock and drive
// checkpoint timing deterministically.
var Clock clock.Clock

func InitClock() {
	if logger.IsTesting {
		Log.Debugf("running in testing mode")
		Clock = clock.NewMock()
	} else {
		Clock = clock.New()
	}
}

func init() {
	InitClock()
}

// GetTicker returns a clock.Ticker firing every duration milliseconds.
func GetTicker(duration int) *clock.Ticker {
	return Clock.Ticker(time.Duration(duration) * time.Millisecond)
}

func GetTimer(duration int) *clock.Timer {
	return Clock.Timer(time.Duration(duration) * time.Millisecond)
}

func GetNowInMilli() int64 {
	return cast.TimeToUnixMilli(Clock.Now())
}
