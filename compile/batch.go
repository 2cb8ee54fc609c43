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
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/vecapi/arch"
	"github.com/ajroetker/vecapi/graph"
)

// Batch compiles independent graphs concurrently, at most
// WithParallelism of them at a time. Each graph is touched by one goroutine
// only.
//
// Failing methods do not stop the others: their errors are combined and
// returned along with the results, which are partial for failed methods.
// Cancelling ctx stops methods that have not started.
func Batch(ctx context.Context, o arch.Oracle, graphs []*graph.Graph, opts ...Option) ([]Result, error) {
	c := newConfig(opts)
	if o == nil {
		o = arch.Host()
	}
	results := make([]Result, len(graphs))
	errs := make([]error, len(graphs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.parallelism)
	for i, g := range graphs {
		results[i].Method = g.Name
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Wrapf(err, "compiling %s", g.Name)
			}
			results[i], errs[i] = run(g, o, c)
			return nil
		})
	}
	err := eg.Wait()
	return results, multierr.Append(err, multierr.Combine(errs...))
}
