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
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajroetker/vecapi/arch"
	"github.com/ajroetker/vecapi/graph"
)

// OracleCacheSize is the number of oracle answers a Service remembers.
const OracleCacheSize = 4096

// Service is a persistent pool of compile workers for a fixed target.
// Workers are spawned once by NewService and reused by every call until
// Close, and the target's answers are cached across calls.
//
// Usage:
//
//	svc := compile.NewService(arch.Host(), compile.WithParallelism(8))
//	defer svc.Close()
//
//	for req := range requests {
//	    results, err := svc.CompileAll(ctx, req.Methods)
//	    ...
//	}
type Service struct {
	oracle *arch.CachedOracle
	config config

	numWorkers int
	workC      chan workItem

	// mu keeps Close from closing workC under a pending send.
	mu        sync.RWMutex
	closeOnce sync.Once
	closed    atomic.Bool
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// NewService starts a Service compiling for o (arch.Host() if nil) with
// WithParallelism workers.
func NewService(o arch.Oracle, opts ...Option) *Service {
	if o == nil {
		o = arch.Host()
	}
	c := newConfig(opts)
	s := &Service{
		oracle:     arch.Cached(o, OracleCacheSize),
		config:     c,
		numWorkers: c.parallelism,
		workC:      make(chan workItem, c.parallelism*2),
	}
	for range s.numWorkers {
		go s.worker()
	}
	c.logger.Debug("compile service started",
		zap.String("arch", o.Name()),
		zap.Int("workers", s.numWorkers))
	return s
}

func (s *Service) worker() {
	for item := range s.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers.
func (s *Service) NumWorkers() int {
	return s.numWorkers
}

// Oracle returns the cached target oracle shared by the workers.
func (s *Service) Oracle() *arch.CachedOracle {
	return s.oracle
}

// Close stops the workers once pending work is done. Calls made after
// Close still compile, on the caller's goroutine. Calling Close multiple
// times is safe.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed.Store(true)
		close(s.workC)
	})
}

// Compile compiles a single method on one of the workers.
func (s *Service) Compile(ctx context.Context, g *graph.Graph) (Result, error) {
	results, err := s.CompileAll(ctx, []*graph.Graph{g})
	return results[0], err
}

// CompileAll compiles independent graphs on the workers, which pick the
// next graph as soon as they are done with one. It blocks until every
// graph is compiled or skipped because ctx was cancelled, and returns the
// errors of all failed or skipped methods combined.
func (s *Service) CompileAll(ctx context.Context, graphs []*graph.Graph) ([]Result, error) {
	n := len(graphs)
	results := make([]Result, n)
	errs := make([]error, n)
	if n == 0 {
		return results, nil
	}

	var next atomic.Int32
	drain := func() {
		for {
			i := int(next.Add(1)) - 1
			if i >= n {
				return
			}
			g := graphs[i]
			results[i].Method = g.Name
			if err := ctx.Err(); err != nil {
				errs[i] = errors.Wrapf(err, "compiling %s", g.Name)
				continue
			}
			results[i], errs[i] = run(g, s.oracle, s.config)
		}
	}

	if !s.dispatch(min(s.numWorkers, n), drain) {
		drain()
	}
	return results, multierr.Combine(errs...)
}

// dispatch runs fn on the given number of workers and waits for them. It
// reports false, without running anything, if the service is closed.
func (s *Service) dispatch(workers int, fn func()) bool {
	s.mu.RLock()
	if s.closed.Load() {
		s.mu.RUnlock()
		return false
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		s.workC <- workItem{fn: fn, barrier: &wg}
	}
	s.mu.RUnlock()
	wg.Wait()
	return true
}
