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
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ajroetker/vecapi/arch"
	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/simd"
	"github.com/ajroetker/vecapi/vlog"
)

// ExpansionPhase replaces operation nodes by lir nodes once the target is
// fixed.
//
// Operation nodes connected through vector values (directly, or through
// loop phis and proxies) form a component. A component is expanded as a
// whole or not at all: if any member cannot be expanded, or a vector value
// escapes to a node that cannot take a SIMD value, every member is left
// for LowerToCalls.
type ExpansionPhase struct {
	Logger *zap.Logger
}

// Stats reports what an expansion run did.
type Stats struct {
	Components int
	Expanded   int
	Nodes      int
}

// component is a connected set of operation nodes and the vector values
// linking them.
type component struct {
	members []graph.Node

	macros  []Node
	sinks   []Node
	phis    []*graph.Phi
	proxies []*graph.Proxy
	consts  []*graph.ObjectConst
	unboxes []graph.Node
	returns []*graph.Return

	// shapes holds the SIMD shape of every vector value of the component.
	shapes *graph.NodeMap[simd.Shape]

	// blocked is why the component cannot be expanded, empty if it can.
	blocked string
}

func (c *component) block(format string, args ...any) {
	if c.blocked == "" {
		c.blocked = fmt.Sprintf(format, args...)
	}
}

// Run expands the components of g that the target o supports.
func (p ExpansionPhase) Run(g *graph.Graph, o arch.Oracle) Stats {
	log := vlog.Or(p.Logger).With(zap.String("graph", g.Name), zap.String("arch", o.Name()))
	var stats Stats
	for _, c := range buildComponents(g) {
		stats.Components++
		if c.blocked == "" {
			c.checkExpandable(o)
		}
		if c.blocked != "" {
			log.Debug("component left as calls",
				zap.Int("macros", len(c.macros)),
				zap.String("reason", c.blocked))
			continue
		}
		expandComponent(g, o, c)
		stats.Expanded++
		stats.Nodes += len(c.macros)
		log.Debug("component expanded",
			zap.Int("macros", len(c.macros)),
			zap.Int("phis", len(c.phis)),
			zap.Int("boxes", len(c.returns)))
	}
	return stats
}

// buildComponents groups the operation nodes of g and the values linking
// them with a union-find over vector inputs, phis and proxies.
func buildComponents(g *graph.Graph) []*component {
	uf := graph.NewUnionFind()
	var flood graph.NodeSet
	var work []graph.Node
	push := func(n graph.Node) {
		if flood.Add(n) {
			work = append(work, n)
		}
	}
	for _, n := range g.Nodes() {
		m, ok := n.(Node)
		if !ok {
			continue
		}
		push(m)
		for _, in := range m.VectorInputs() {
			uf.Union(m, in)
			push(in)
		}
	}
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]
		switch n := n.(type) {
		case *graph.Phi:
			for _, in := range n.Inputs() {
				uf.Union(n, in)
				push(in)
			}
		case *graph.Proxy:
			uf.Union(n, n.Value())
			push(n.Value())
		}
		if IsSink(n) || !carriesVector(n) {
			continue
		}
		for _, u := range n.Usages() {
			switch u.(type) {
			case *graph.Phi, *graph.Proxy:
				uf.Union(n, u)
				push(u)
			}
		}
	}

	byRoot := make(map[graph.NodeID]*component)
	var out []*component
	for _, n := range flood.Nodes(g) {
		root := uf.Find(n)
		c, ok := byRoot[root]
		if !ok {
			c = &component{shapes: graph.NewNodeMap[simd.Shape]()}
			byRoot[root] = c
			out = append(out, c)
		}
		c.members = append(c.members, n)
	}
	out = lo.Filter(out, func(c *component, _ int) bool { return lo.ContainsBy(c.members, isMacro) })
	for _, c := range out {
		c.classify()
		c.propagateShapes()
		c.checkUsages(&flood, uf)
	}
	return out
}

func isMacro(n graph.Node) bool {
	_, ok := n.(Node)
	return ok
}

// carriesVector reports whether n is a value flowing between operation
// nodes, phis and proxies.
func carriesVector(n graph.Node) bool {
	switch n.(type) {
	case Node, *graph.Phi, *graph.Proxy:
		return true
	}
	return false
}

// unboxClass returns the concrete vector API class of a value the
// component receives from elsewhere.
func unboxClass(n graph.Node) (graph.Class, bool) {
	c, ok := graph.ExactClass(n.Stamp())
	if !ok || !c.IsVectorAPI() || c.IsAbstract() {
		return graph.Class{}, false
	}
	return c, true
}

func (c *component) classify() {
	for _, n := range c.members {
		switch n := n.(type) {
		case Node:
			c.macros = append(c.macros, n)
			if IsSink(n) {
				c.sinks = append(c.sinks, n)
			} else if n.Shape().Resolved() {
				c.shapes.Put(n, n.Shape())
			} else {
				c.block("%s has no shape", graph.Format(n))
			}
		case *graph.Phi:
			c.phis = append(c.phis, n)
		case *graph.Proxy:
			c.proxies = append(c.proxies, n)
		case *graph.ObjectConst:
			if n.Value == nil || !n.Class.IsVectorAPI() {
				c.block("unexpected constant %s", graph.Format(n))
				continue
			}
			c.consts = append(c.consts, n)
			c.shapes.Put(n, n.Value.Shape())
		default:
			cls, ok := unboxClass(n)
			if !ok {
				c.block("unexpected input %s", graph.Format(n))
				continue
			}
			s, _ := cls.Shape()
			c.unboxes = append(c.unboxes, n)
			c.shapes.Put(n, s)
		}
	}
}

// propagateShapes gives phis and proxies the shape of the values flowing
// into them. Phi inputs must agree.
func (c *component) propagateShapes() {
	var stack []graph.Node
	for _, n := range c.members {
		if c.shapes.Has(n) {
			stack = append(stack, n)
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s, _ := c.shapes.Get(n)
		for _, u := range n.Usages() {
			switch u.(type) {
			case *graph.Phi, *graph.Proxy:
			default:
				continue
			}
			if !slices.Contains(c.members, u) {
				if carriesVector(n) {
					c.block("%s flows into %s outside the component", graph.Format(n), graph.Format(u))
					return
				}
				continue
			}
			if prev, ok := c.shapes.Get(u); ok {
				if !prev.Compatible(s) {
					c.block("%s merges %v and %v", graph.Format(u), prev, s)
					return
				}
				continue
			}
			c.shapes.Put(u, s)
			stack = append(stack, u)
		}
	}
	for _, n := range c.members {
		if carriesVector(n) && !IsSink(n) && !c.shapes.Has(n) {
			c.block("no shape for %s", graph.Format(n))
		}
	}
}

// checkUsages rejects vector values escaping the component. Returning a
// value is allowed: it is boxed.
func (c *component) checkUsages(flood *graph.NodeSet, uf *graph.UnionFind) {
	if len(c.members) == 0 {
		return
	}
	root := uf.Find(c.members[0])
	inside := func(u graph.Node) bool { return flood.Has(u) && uf.Find(u) == root }
	for _, n := range c.members {
		if !carriesVector(n) || IsSink(n) {
			continue
		}
		for _, u := range n.Usages() {
			if inside(u) {
				continue
			}
			if r, ok := u.(*graph.Return); ok {
				if !slices.Contains(c.returns, r) {
					c.returns = append(c.returns, r)
				}
				continue
			}
			c.block("%s used by %s", graph.Format(n), graph.Format(u))
		}
	}
}

// checkExpandable asks the target about every member.
func (c *component) checkExpandable(o arch.Oracle) {
	for _, m := range c.macros {
		if !m.CanExpand(o) {
			c.block("%s cannot be expanded on %s", graph.Format(m), o.Name())
			return
		}
	}
	for _, k := range c.consts {
		if !Materializable(o, k.Value) {
			c.block("constant %s cannot be materialized", graph.Format(k))
			return
		}
	}
	for _, n := range c.members {
		if _, ok := n.(Node); ok {
			continue
		}
		if s, ok := c.shapes.Get(n); ok && !movable(o, s) {
			c.block("%v values cannot be held on %s", s, o.Name())
			return
		}
	}
}

// movable reports whether the target holds values of shape s in full.
func movable(o arch.Oracle, s simd.Shape) bool {
	if s.IsMask() {
		return o.SupportedMaskLogicLength(s.MaskOf, s.Lanes) == s.Lanes
	}
	return o.SupportedMoveLength(s.Elem, s.Lanes) == s.Lanes
}

// boxClass returns the class a returned vector value is boxed as.
func boxClass(n graph.Node, s simd.Shape) graph.Class {
	if m, ok := n.(Node); ok && m.Species().Exact {
		return m.Species().Class
	}
	if c, ok := unboxClass(n); ok {
		return c
	}
	if s.IsMask() {
		return graph.MaskClass(s.MaskOf, s.Lanes)
	}
	return graph.VectorClass(s.Elem, s.Lanes)
}

func expandComponent(g *graph.Graph, o arch.Oracle, c *component) {
	e := NewExpander(g, o)
	schedule := g.Schedule()
	for _, n := range c.unboxes {
		s, _ := c.shapes.Get(n)
		e.expanded.Put(n, e.unbox(n, s, unboxAnchor(schedule, n)))
	}
	for _, k := range c.consts {
		e.expanded.Put(k, e.constant(k.Value))
	}

	for _, r := range c.sinks {
		expandUpwards(e, c, r)
	}
	for _, r := range c.members {
		if carriesVector(r) {
			expandUpwards(e, c, r)
		}
	}
	for _, r := range c.returns {
		v := r.Result()
		s, _ := c.shapes.Get(v)
		g.ReplaceInput(r, v, e.box(e.value(v), boxClass(v, s), r))
	}
	replaceComponentNodes(g, e, c)
}

// unboxAnchor returns the node before which a value received from
// elsewhere is unboxed: right after it if it is scheduled, else at the
// start of the method.
func unboxAnchor(schedule []graph.Node, n graph.Node) graph.Node {
	if i := slices.Index(schedule, n); i >= 0 && i+1 < len(schedule) {
		return schedule[i+1]
	}
	return schedule[0]
}

// expandUpwards expands root after all the values it depends on, with an
// explicit stack. A phi is visited twice: once its entry value is expanded
// it gets a placeholder, which breaks the cycle through its back edges;
// once those are expanded they are appended to the placeholder.
func expandUpwards(e *Expander, c *component, root graph.Node) {
	var pending graph.NodeSet
	stack := []graph.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		if e.expanded.Has(n) && !pending.Has(n) {
			stack = stack[:len(stack)-1]
			continue
		}
		switch n := n.(type) {
		case *graph.Phi:
			if !e.expanded.Has(n) {
				entry := n.Input(0)
				if !e.expanded.Has(entry) {
					stack = append(stack, entry)
					continue
				}
				s, _ := c.shapes.Get(n)
				p := graph.NewPhi(n.Loop, graph.VectorStamp{Shape: e.resolve(s)}, e.value(entry))
				e.expanded.Put(n, graph.Add(e.g, p))
				pending.Add(n)
			}
			missing := unexpanded(e, n.Inputs()[1:])
			if len(missing) > 0 {
				stack = append(stack, missing...)
				continue
			}
			p, _ := e.expanded.Get(n)
			for _, in := range n.Inputs()[1:] {
				e.g.AppendInput(p, e.value(in))
			}
			pending.Remove(n)
			stack = stack[:len(stack)-1]
		case *graph.Proxy:
			if !e.expanded.Has(n.Value()) {
				stack = append(stack, n.Value())
				continue
			}
			e.expanded.Put(n, graph.Add(e.g, graph.NewProxy(n.Loop, e.value(n.Value()))))
			stack = stack[:len(stack)-1]
		case Node:
			if missing := unexpanded(e, n.VectorInputs()); len(missing) > 0 {
				stack = append(stack, missing...)
				continue
			}
			e.Expand(n)
			stack = stack[:len(stack)-1]
		default:
			fault.Fatalf("cannot expand %s", graph.Format(n))
		}
	}
}

// unexpanded returns the nodes among in without a replacement yet.
func unexpanded(e *Expander, in []graph.Node) []graph.Node {
	return lo.Filter(in, func(n graph.Node, _ int) bool { return !e.expanded.Has(n) })
}

// replaceComponentNodes hands the usages of sinks to their replacements
// and deletes the expanded nodes.
func replaceComponentNodes(g *graph.Graph, e *Expander, c *component) {
	for _, s := range c.sinks {
		r := e.value(s)
		if _, void := s.Stamp().(graph.VoidStamp); !void {
			g.ReplaceAtUsages(s, r, nil)
		}
	}
	var old []graph.Node
	for _, n := range c.members {
		if carriesVector(n) {
			old = append(old, n)
		}
	}
	for _, n := range old {
		for i := range n.Inputs() {
			g.SetInput(n, i, nil)
		}
	}
	for _, n := range old {
		g.Delete(n)
	}
}
