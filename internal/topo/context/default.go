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

// Package context implements the task-local api.StreamContext every
// source, aligner and sink is handed. It wraps a stdlib context.Context
// and tags it with the owning rule/operator id and a field-scoped
// logger, the same shape as the teacher's internal/topo/context package.
package context

import (
	"context"

	"github.com/barrierflow/aligner/internal/conf"
	"github.com/barrierflow/aligner/pkg/api"
)

type DefaultContext struct {
	context.Context
	ruleId string
	opId   string
	logger api.Logger
}

func Background() *DefaultContext {
	return &DefaultContext{
		Context: context.Background(),
		logger:  conf.Log,
	}
}

func (c *DefaultContext) GetLogger() api.Logger {
	return c.logger
}

func (c *DefaultContext) GetRuleId() string {
	return c.ruleId
}

func (c *DefaultContext) GetOpId() string {
	return c.opId
}

// WithMeta returns a derived context tagged with the given rule/operator
// ids and a logger carrying both as fields.
func (c *DefaultContext) WithMeta(ruleId string, opId string) *DefaultContext {
	return &DefaultContext{
		Context: c.Context,
		ruleId:  ruleId,
		opId:    opId,
		logger:  conf.Log.WithField("rule", ruleId).WithField("op", opId),
	}
}

// WithCancel mirrors context.WithCancel but keeps the StreamContext shape.
func (c *DefaultContext) WithCancel() (*DefaultContext, context.CancelFunc) {
	ctx, cancel := context.WithCancel(c.Context)
	return &DefaultContext{
		Context: ctx,
		ruleId:  c.ruleId,
		opId:    c.opId,
		logger:  c.logger,
	}, cancel
}

var _ api.StreamContext = (*DefaultContext)(nil)
