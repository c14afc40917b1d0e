// Copyright 2023 EMQ Technologies Co., Ltd.
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

// Package infra provides the panic-safety and error-draining helpers
// every goroutine spawned off the task thread is expected to use.
package infra

import (
	"errors"
	"fmt"

	"github.com/barrierflow/aligner/pkg/api"
)

// SafeRun executes fn, recovering any panic and turning it into an
// error instead of crashing the goroutine. A panic with an error value
// surfaces that error's message; a panic with a string value is
// wrapped with errors.New; any other panic value is rendered with %#v.
func SafeRun(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch val := r.(type) {
			case error:
				err = errors.New(val.Error())
			case string:
				err = errors.New(val)
			default:
				err = fmt.Errorf("%#v", val)
			}
		}
	}()
	return fn()
}

// DrainError logs err against ctx, if present, then forwards it on
// errChan. ctx may be nil (e.g. in tests exercising DrainError alone).
func DrainError(ctx api.StreamContext, err error, errChan chan<- error) {
	if ctx != nil {
		ctx.GetLogger().Errorf("drain error: %v", err)
	}
	errChan <- err
}
