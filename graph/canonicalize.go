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

// Canonicalizable is implemented by nodes that can simplify themselves.
//
// Canonical must not modify the graph. It returns the node itself when
// nothing can be improved, or a replacement that is either already alive
// in g or not yet added; the driver adds and substitutes it.
type Canonicalizable interface {
	Node
	Canonical(g *Graph) Node
}

// Simplification is a graph rewrite applied to each node the canonicalizer
// visits. It may modify the graph and returns the nodes it changed, whose
// usages are revisited.
type Simplification func(g *Graph, n Node) []Node

// Stats summarizes a canonicalization run.
type Stats struct {
	// Rounds is the number of worklist rounds that ran.
	Rounds int

	// Replaced counts nodes replaced by their canonical form.
	Replaced int

	// Simplified counts nodes changed by simplifications.
	Simplified int

	// Converged is false if the round budget ran out with work left.
	Converged bool
}

// Canonicalize rewrites g until no node changes or maxRounds rounds have
// run. Each round visits the nodes queued by the previous one, starting
// with every node of g.
//
// Running out of rounds is not an error: nodes are simply left in their
// current, less refined form.
func Canonicalize(g *Graph, maxRounds int, simplifications ...Simplification) Stats {
	var stats Stats
	work := g.Nodes()
	for len(work) > 0 {
		if stats.Rounds >= maxRounds {
			return stats
		}
		stats.Rounds++
		var next []Node
		var queued NodeSet
		enqueue := func(nodes ...Node) {
			for _, n := range nodes {
				if n != nil && g.IsAlive(n) && queued.Add(n) {
					next = append(next, n)
				}
			}
		}
		for _, n := range work {
			if !g.IsAlive(n) {
				continue
			}
			if c, ok := n.(Canonicalizable); ok {
				if r := c.Canonical(g); r != n {
					usages := uniqueUsages(n)
					g.Replace(n, r)
					stats.Replaced++
					enqueue(r)
					enqueue(usages...)
					continue
				}
			}
			for _, simplify := range simplifications {
				if !g.IsAlive(n) {
					break
				}
				for _, changed := range simplify(g, n) {
					stats.Simplified++
					enqueue(changed)
					if g.IsAlive(changed) {
						enqueue(uniqueUsages(changed)...)
					}
				}
			}
		}
		work = next
	}
	stats.Converged = true
	return stats
}
