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

package vectorapi

import (
	"github.com/ajroetker/vecapi/arch"
	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/lir"
	"github.com/ajroetker/vecapi/simd"
)

// Expander builds the lir nodes of one component. It maps every expanded
// vector value to its replacement.
type Expander struct {
	g        *graph.Graph
	oracle   arch.Oracle
	expanded *graph.NodeMap[graph.Node]

	// anchor is the node being expanded; fixed nodes are scheduled just
	// before it.
	anchor graph.Node
}

// NewExpander returns an expander adding nodes to g for target o.
func NewExpander(g *graph.Graph, o arch.Oracle) *Expander {
	return &Expander{g: g, oracle: o, expanded: graph.NewNodeMap[graph.Node]()}
}

// Oracle returns the target the expander builds for.
func (e *Expander) Oracle() arch.Oracle { return e.oracle }

// Expanded returns the replacement of n, if n was expanded.
func (e *Expander) Expanded(n graph.Node) (graph.Node, bool) { return e.expanded.Get(n) }

// Expand expands a single operation node whose vector inputs are all
// expanded already, and records its replacement.
func (e *Expander) Expand(n Node) graph.Node {
	e.anchor = n
	r := n.Expand(e)
	fault.Guarantee(r != nil, "%s expanded to nothing", n.Name())
	e.expanded.Put(n, r)
	return r
}

// value returns the replacement of the vector input n.
func (e *Expander) value(n graph.Node) graph.Node {
	v, ok := e.expanded.Get(n)
	fault.Guarantee(ok, "%s: input %s is not expanded", e.anchor.Name(), graph.Format(n))
	return v
}

func (e *Expander) add(n graph.Node) graph.Node   { return graph.Add(e.g, n) }
func (e *Expander) fixed(n graph.Fixed) graph.Node { return graph.AddBefore(e.g, e.anchor, n) }
func (e *Expander) repr() simd.LogicRepr           { return arch.Repr(e.oracle) }

// resolve gives masks the target representation.
func (e *Expander) resolve(s simd.Shape) simd.Shape { return s.WithRepr(e.repr()) }

func (e *Expander) scalar(v int64) graph.Node {
	return e.add(graph.NewInt(simd.Int64, v))
}

func (e *Expander) constant(c *simd.Constant) graph.Node {
	return e.add(lir.NewConstant(c.WithShape(e.resolve(c.Shape()))))
}

func (e *Expander) zero(s simd.Shape) graph.Node {
	return e.constant(simd.Broadcast(s, 0))
}

// folded materializes the constant value of n if the target can load it.
func (e *Expander) folded(n Node) (graph.Node, bool) {
	c := n.Constant()
	if c == nil || !Materializable(e.oracle, c) {
		return nil, false
	}
	return e.constant(c), true
}

// expandBlend selects, per lane, trueV where mask is set and falseV
// elsewhere. Every masked operation selects its lanes through here.
func (e *Expander) expandBlend(falseV, trueV, mask graph.Node) graph.Node {
	return e.add(lir.NewBlend(falseV, trueV, mask))
}

// masked applies the optional mask argument m of a lane-wise operation:
// disabled lanes keep the lanes of orig.
func (e *Expander) masked(orig, result, m graph.Node) graph.Node {
	if graph.IsNull(m) {
		return result
	}
	return e.expandBlend(orig, result, e.value(m))
}

// adaptMask converts the mask m to shape s in the target representation.
func (e *Expander) adaptMask(m graph.Node, s simd.Shape) graph.Node {
	to := e.resolve(s)
	if cur, _ := lir.ShapeOf(m); cur == to {
		return m
	}
	return e.add(lir.NewMaskConvert(m, to))
}

// unbox inserts the extraction of the vector held by obj before anchor.
// Boxed masks hold one predicate bit per lane.
func (e *Expander) unbox(obj graph.Node, s simd.Shape, anchor graph.Node) graph.Node {
	if !s.IsMask() {
		return graph.AddBefore(e.g, anchor, lir.NewUnbox(s, obj))
	}
	m := graph.AddBefore(e.g, anchor, lir.NewUnbox(s.WithRepr(simd.ReprPredicate), obj))
	return e.adaptMask(m, s)
}

// box inserts a boxing of the SIMD value v as class c before anchor.
func (e *Expander) box(v graph.Node, c graph.Class, anchor graph.Node) graph.Node {
	if s, _ := lir.ShapeOf(v); s.IsMask() && s.Repr != simd.ReprPredicate {
		v = e.add(lir.NewMaskConvert(v, s.WithRepr(simd.ReprPredicate)))
	}
	return graph.AddBefore(e.g, anchor, lir.NewBox(c, v))
}
