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
	"slices"

	"github.com/ajroetker/vecapi/graph"
)

// typeInvariant is an operation whose result has the exact class of its
// receiver.
type typeInvariant interface {
	Node
	receiver() graph.Node
}

// PhiSpeciesSimplification marks a loop phi of vectors exact when its
// entry value has an exact class and every back-edge value is computed
// from the phi itself by type-invariant operations. Operations on the phi
// can then resolve their species from it.
func PhiSpeciesSimplification(g *graph.Graph, n graph.Node) []graph.Node {
	phi, ok := n.(*graph.Phi)
	if !ok || len(phi.Inputs()) < 2 {
		return nil
	}
	declared, ok := phi.Stamp().(graph.ObjectStamp)
	if !ok || declared.Exact {
		return nil
	}
	c, ok := graph.ExactClass(phi.Input(0).Stamp())
	if !ok || c.IsAbstract() || !c.IsVectorAPI() || !c.IsSubclassOf(declared.Class) {
		return nil
	}
	if !derivedFromItself(phi) {
		return nil
	}
	exact := phi.WithStamp(graph.ObjectStamp{Class: c, Exact: true})
	g.Replace(phi, exact)
	return []graph.Node{exact}
}

// derivedFromItself floods forward from phi through type-invariant
// receivers, proxies and phis whose inputs are all reached, and reports
// whether every back-edge value of phi was reached.
func derivedFromItself(phi *graph.Phi) bool {
	var reached graph.NodeSet
	reached.Add(phi)
	frontier := []graph.Node{phi}
	for len(frontier) > 0 {
		n := frontier[0]
		frontier = frontier[1:]
		for _, u := range n.Usages() {
			if reached.Has(u) {
				continue
			}
			ok := false
			switch u := u.(type) {
			case typeInvariant:
				ok = u.receiver() == n
			case *graph.Proxy:
				ok = true
			case *graph.Phi:
				ok = !slices.ContainsFunc(u.Inputs(), func(in graph.Node) bool { return !reached.Has(in) })
			}
			if ok {
				reached.Add(u)
				frontier = append(frontier, u)
			}
		}
	}
	return !slices.ContainsFunc(phi.Inputs()[1:], func(in graph.Node) bool { return !reached.Has(in) })
}
