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

package graph

import (
	"slices"
	"strings"

	"github.com/ajroetker/vecapi/fault"
)

// Graph holds the nodes of one method.
type Graph struct {
	// Name of the method, used in logs and errors.
	Name string

	// nodes is indexed by NodeID; deleted nodes leave a nil slot.
	nodes []Node

	// schedule lists the fixed nodes in program order.
	schedule []Node

	params []*Param
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{Name: name, nodes: []Node{nil}}
}

// Add adds a floating node to g and returns it.
//
// All inputs must already be alive in g. Adding a Fixed node with Add
// leaves it unscheduled; use AddFixed or AddBefore for those.
func Add[T Node](g *Graph, n T) T {
	b := n.base()
	fault.Guarantee(b.graph == nil, "node %s added twice", n.Name())
	for _, in := range b.inputs {
		if in != nil {
			fault.Guarantee(g.IsAlive(in), "%s: input %s is not alive", n.Name(), in.Name())
		}
	}
	b.graph = g
	b.id = NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	for _, in := range b.inputs {
		if in != nil {
			in.base().usages = append(in.base().usages, n)
		}
	}
	if p, ok := Node(n).(*Param); ok {
		g.params = append(g.params, p)
	}
	return n
}

// AddFixed adds n and appends it to the end of the schedule.
func AddFixed[T Fixed](g *Graph, n T) T {
	Add(g, n)
	g.schedule = append(g.schedule, n)
	return n
}

// AddBefore adds n and schedules it immediately before anchor, which must
// be scheduled.
func AddBefore[T Fixed](g *Graph, anchor Node, n T) T {
	i := g.scheduleIndex(anchor)
	fault.Guarantee(i >= 0, "anchor %s is not scheduled", anchor.Name())
	Add(g, n)
	g.schedule = slices.Insert(g.schedule, i, Node(n))
	return n
}

func (g *Graph) scheduleIndex(n Node) int {
	return slices.IndexFunc(g.schedule, func(s Node) bool { return s == n })
}

// IsAlive reports whether n was added to g and not deleted.
func (g *Graph) IsAlive(n Node) bool {
	id := n.ID()
	return id > 0 && int(id) < len(g.nodes) && g.nodes[id] == n
}

// IsScheduled reports whether n occupies a slot in the schedule.
func (g *Graph) IsScheduled(n Node) bool {
	return g.scheduleIndex(n) >= 0
}

// MaxID returns an upper bound of the IDs in use.
func (g *Graph) MaxID() NodeID {
	return NodeID(len(g.nodes))
}

// Nodes returns the live nodes in ID order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Schedule returns a copy of the fixed nodes in program order.
func (g *Graph) Schedule() []Node {
	return slices.Clone(g.schedule)
}

// Params returns the method parameters in the order they were added.
func (g *Graph) Params() []*Param {
	return slices.Clone(g.params)
}

// SetInput changes input i of n to v.
func (g *Graph) SetInput(n Node, i int, v Node) {
	b := n.base()
	if old := b.inputs[i]; old != nil {
		removeUsage(old, n)
	}
	b.inputs[i] = v
	if v != nil {
		fault.Guarantee(g.IsAlive(v), "%s: input %s is not alive", n.Name(), v.Name())
		v.base().usages = append(v.base().usages, n)
	}
}

// AppendInput adds v as a new last input of n. Used for phis, whose
// back-edge values are created after the phi.
func (g *Graph) AppendInput(n Node, v Node) {
	b := n.base()
	b.inputs = append(b.inputs, nil)
	g.SetInput(n, len(b.inputs)-1, v)
}

// ReplaceInput replaces every occurrence of old among the inputs of n.
func (g *Graph) ReplaceInput(n, old, v Node) {
	for i, in := range n.Inputs() {
		if in == old {
			g.SetInput(n, i, v)
		}
	}
}

// ReplaceAtUsages makes every usage of old use v instead. If filter is not
// nil, only usages for which it returns true are changed.
func (g *Graph) ReplaceAtUsages(old, v Node, filter func(usage Node) bool) {
	for _, u := range uniqueUsages(old) {
		if filter == nil || filter(u) {
			g.ReplaceInput(u, old, v)
		}
	}
}

// Replace substitutes v for old at all usages and deletes old.
//
// If v is not yet in the graph it is added; a Fixed v takes the schedule
// slot of old. A scheduled old loses its slot.
func (g *Graph) Replace(old, v Node) {
	if v.base().graph == nil {
		if IsFixed(v) {
			fault.Guarantee(g.IsScheduled(old), "fixed replacement %s for floating %s", v.Name(), old.Name())
			AddBefore(g, old, v.(Fixed))
		} else {
			Add(g, v)
		}
	}
	g.ReplaceAtUsages(old, v, nil)
	g.Delete(old)
}

// Delete removes n, which must have no usages.
func (g *Graph) Delete(n Node) {
	fault.Guarantee(g.IsAlive(n), "deleting dead node %s", n.Name())
	b := n.base()
	fault.Guarantee(len(b.usages) == 0, "deleting %s with %d usages", n.Name(), len(b.usages))
	for i, in := range b.inputs {
		if in != nil {
			removeUsage(in, n)
			b.inputs[i] = nil
		}
	}
	if i := g.scheduleIndex(n); i >= 0 {
		g.schedule = slices.Delete(g.schedule, i, i+1)
	}
	g.nodes[b.id] = nil
	if p, ok := n.(*Param); ok {
		g.params = slices.DeleteFunc(g.params, func(q *Param) bool { return q == p })
	}
}

// KillUnused deletes floating nodes without usages until none is left.
// Fixed nodes and parameters are kept. It returns the number of deleted
// nodes.
func (g *Graph) KillUnused() int {
	killed := 0
	for changed := true; changed; {
		changed = false
		for _, n := range g.nodes {
			if n == nil || len(n.Usages()) > 0 || IsFixed(n) {
				continue
			}
			if _, ok := n.(*Param); ok {
				continue
			}
			g.Delete(n)
			killed++
			changed = true
		}
	}
	return killed
}

// String prints the floating nodes in ID order followed by the schedule.
func (g *Graph) String() string {
	var sb strings.Builder
	sb.WriteString("graph ")
	sb.WriteString(g.Name)
	sb.WriteString(" {\n")
	for _, n := range g.nodes {
		if n == nil || g.IsScheduled(n) {
			continue
		}
		sb.WriteString("  ")
		sb.WriteString(Format(n))
		sb.WriteString("\n")
	}
	sb.WriteString("  ---\n")
	for _, n := range g.schedule {
		sb.WriteString("  ")
		sb.WriteString(Format(n))
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

func removeUsage(of, user Node) {
	b := of.base()
	if i := slices.Index(b.usages, user); i >= 0 {
		b.usages = slices.Delete(b.usages, i, i+1)
	}
}

// uniqueUsages returns the distinct usages of n in first-use order.
func uniqueUsages(n Node) []Node {
	var out []Node
	for _, u := range n.Usages() {
		if !slices.Contains(out, u) {
			out = append(out, u)
		}
	}
	return out
}
