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

// Package compile runs the vector API pipeline over method graphs: operation
// nodes are refined and folded to a fixpoint, connected operations the target
// supports are expanded to lir nodes, and everything left is lowered back to
// plain API calls.
//
// Usage:
//
//	res, err := compile.Method(g, arch.Host(), compile.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res)
package compile

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ajroetker/vecapi/arch"
	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/vectorapi"
)

// Result summarizes the compilation of one method.
type Result struct {
	Method string
	Target string

	Canonical graph.Stats
	Expansion vectorapi.Stats

	// Calls is the number of operations lowered to calls.
	Calls int

	// Removed is the number of dead nodes deleted at the end.
	Removed int
}

func (r Result) String() string {
	return fmt.Sprintf("%s[%s]: %d rounds, %d/%d components expanded (%d ops), %d calls",
		r.Method, r.Target, r.Canonical.Rounds, r.Expansion.Expanded, r.Expansion.Components,
		r.Expansion.Nodes, r.Calls)
}

// Method compiles g in place for the target o. A nil o means arch.Host().
//
// Internal-consistency violations found on the way are returned as errors
// wrapping a *fault.Error; g is left in an unspecified state in that case.
func Method(g *graph.Graph, o arch.Oracle, opts ...Option) (Result, error) {
	return run(g, o, newConfig(opts))
}

func run(g *graph.Graph, o arch.Oracle, c config) (res Result, err error) {
	if o == nil {
		o = arch.Host()
	}
	res = Result{Method: g.Name, Target: o.Name()}
	defer func() {
		if err != nil {
			err = errors.Wrapf(err, "compiling %s for %s", g.Name, o.Name())
		}
	}()
	defer fault.Catch(&err)

	log := c.logger.With(zap.String("method", g.Name), zap.String("arch", o.Name()))
	res.Canonical = graph.Canonicalize(g, c.maxRounds, vectorapi.PhiSpeciesSimplification)
	if !res.Canonical.Converged {
		log.Debug("refinement stopped before its fixpoint", zap.Int("rounds", res.Canonical.Rounds))
	}
	if c.expand {
		res.Expansion = vectorapi.ExpansionPhase{Logger: log}.Run(g, o)
	}
	res.Calls = vectorapi.LowerToCalls(g)
	res.Removed = g.KillUnused()
	log.Debug("compiled",
		zap.Int("expanded", res.Expansion.Expanded),
		zap.Int("calls", res.Calls),
		zap.Int("removed", res.Removed))
	return res, nil
}
