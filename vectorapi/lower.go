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

import "github.com/ajroetker/vecapi/graph"

// LowerToCalls replaces every operation node left in g by a call of its
// API method with the original arguments. It returns the number of calls
// created.
func LowerToCalls(g *graph.Graph) int {
	lowered := 0
	for _, n := range g.Nodes() {
		m, ok := n.(Node)
		if !ok || !g.IsAlive(m) {
			continue
		}
		g.Replace(m, graph.NewInvoke(m.Method(), m.Stamp(), m.Inputs()...))
		lowered++
	}
	return lowered
}
