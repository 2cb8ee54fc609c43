// Copyright 2025 go-highway Authors
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

package compile

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/ajroetker/vecapi/vlog"
)

// DefaultMaxCanonicalizeRounds bounds the refinement fixpoint of a method.
const DefaultMaxCanonicalizeRounds = 64

// Option configures Method, Batch and NewService.
type Option func(*config)

type config struct {
	logger      *zap.Logger
	maxRounds   int
	parallelism int
	expand      bool
}

func newConfig(opts []Option) config {
	c := config{
		maxRounds:   DefaultMaxCanonicalizeRounds,
		parallelism: runtime.GOMAXPROCS(0),
		expand:      true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.logger = vlog.Or(c.logger)
	return c
}

// WithLogger sets the logger used by the pipeline. The default is vlog.L().
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMaxCanonicalizeRounds sets how many refinement rounds a method may
// take before the pipeline moves on with whatever has been refined.
func WithMaxCanonicalizeRounds(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxRounds = n
		}
	}
}

// WithParallelism sets how many methods Batch compiles at once, and the
// number of workers of a Service. Values <= 0 mean GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		c.parallelism = n
	}
}

// WithoutExpansion skips the expansion phase, so every operation that does
// not fold is lowered to a call.
func WithoutExpansion() Option {
	return func(c *config) {
		c.expand = false
	}
}
