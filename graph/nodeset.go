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
	"golang.org/x/tools/container/intsets"
)

// NodeSet is a set of nodes of one graph, keyed by ID.
type NodeSet struct {
	ids intsets.Sparse
}

// Add inserts n and reports whether it was absent.
func (s *NodeSet) Add(n Node) bool { return s.ids.Insert(int(n.ID())) }

// Remove deletes n and reports whether it was present.
func (s *NodeSet) Remove(n Node) bool { return s.ids.Remove(int(n.ID())) }

// Has reports whether n is in the set.
func (s *NodeSet) Has(n Node) bool { return s.ids.Has(int(n.ID())) }

// Len returns the number of nodes in the set.
func (s *NodeSet) Len() int { return s.ids.Len() }

// IsEmpty reports whether the set is empty.
func (s *NodeSet) IsEmpty() bool { return s.ids.IsEmpty() }

// IDs returns the IDs in the set in increasing order.
func (s *NodeSet) IDs() []NodeID {
	ints := s.ids.AppendTo(nil)
	out := make([]NodeID, len(ints))
	for i, v := range ints {
		out[i] = NodeID(v)
	}
	return out
}

// Nodes returns the live members of the set in ID order.
func (s *NodeSet) Nodes(g *Graph) []Node {
	var out []Node
	for _, id := range s.IDs() {
		if int(id) < len(g.nodes) && g.nodes[id] != nil {
			out = append(out, g.nodes[id])
		}
	}
	return out
}

// NodeMap maps nodes of one graph to values, keyed by ID.
type NodeMap[V any] struct {
	keys NodeSet
	vals map[NodeID]V
}

// NewNodeMap returns an empty map.
func NewNodeMap[V any]() *NodeMap[V] {
	return &NodeMap[V]{vals: make(map[NodeID]V)}
}

// Get returns the value of n.
func (m *NodeMap[V]) Get(n Node) (V, bool) {
	v, ok := m.vals[n.ID()]
	return v, ok
}

// Has reports whether n has a value.
func (m *NodeMap[V]) Has(n Node) bool { return m.keys.Has(n) }

// Put sets the value of n.
func (m *NodeMap[V]) Put(n Node, v V) {
	m.keys.Add(n)
	m.vals[n.ID()] = v
}

// Delete removes the value of n.
func (m *NodeMap[V]) Delete(n Node) {
	m.keys.Remove(n)
	delete(m.vals, n.ID())
}

// Len returns the number of entries.
func (m *NodeMap[V]) Len() int { return m.keys.Len() }

// Keys returns the IDs with values in increasing order.
func (m *NodeMap[V]) Keys() []NodeID { return m.keys.IDs() }

// UnionFind partitions nodes into disjoint sets.
type UnionFind struct {
	parent map[NodeID]NodeID
}

// NewUnionFind returns a union-find where every node is alone.
func NewUnionFind() *UnionFind {
	return &UnionFind{parent: make(map[NodeID]NodeID)}
}

// Find returns the representative of the set of n.
func (u *UnionFind) Find(n Node) NodeID {
	return u.find(n.ID())
}

func (u *UnionFind) find(id NodeID) NodeID {
	root := id
	for {
		p, ok := u.parent[root]
		if !ok || p == root {
			break
		}
		root = p
	}
	// Path compression.
	for id != root {
		next := u.parent[id]
		u.parent[id] = root
		id = next
	}
	return root
}

// Union merges the sets of a and b.
func (u *UnionFind) Union(a, b Node) {
	ra, rb := u.find(a.ID()), u.find(b.ID())
	if ra == rb {
		return
	}
	// Keep the smaller ID as representative so the result is deterministic.
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
