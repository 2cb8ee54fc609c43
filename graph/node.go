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

// Package graph is a small sea-of-nodes style program graph for a single
// method: value nodes with input and usage edges, a list of fixed nodes
// that keeps memory and control effects in program order, and a
// replacement primitive that substitutes one node for another at all of
// its use sites.
//
// A Graph is owned by the one goroutine compiling its method; none of its
// operations are safe for concurrent use.
package graph

import (
	"fmt"
	"strings"
)

// NodeID identifies a node within its graph. The zero NodeID means the
// node has not been added to a graph yet.
type NodeID int

// Node is a value or effect in a Graph.
//
// Concrete node types embed Base (or FixedBase for nodes with a place in
// the schedule) and are always used by pointer.
type Node interface {
	// ID returns the node's identifier, 0 before the node is added.
	ID() NodeID

	// Inputs returns the nodes this node consumes. The slice must not be
	// modified.
	Inputs() []Node

	// Usages returns the nodes consuming this node, one entry per input edge.
	// The slice must not be modified.
	Usages() []Node

	// Stamp returns the abstract value of the node.
	Stamp() Stamp

	// Name is a short operation name used when printing graphs.
	Name() string

	base() *Base
}

// Fixed is implemented by nodes that occupy a slot in the schedule of their
// graph. Embedding FixedBase makes a node type Fixed.
type Fixed interface {
	Node
	fixed()
}

// Base holds the bookkeeping shared by all nodes.
type Base struct {
	id     NodeID
	graph  *Graph
	inputs []Node
	usages []Node
}

// NewBase returns a Base with the given inputs. Inputs may be nil for
// optional operands that are absent.
func NewBase(inputs ...Node) Base {
	return Base{inputs: append([]Node(nil), inputs...)}
}

func (b *Base) ID() NodeID     { return b.id }
func (b *Base) Inputs() []Node { return b.inputs }
func (b *Base) Usages() []Node { return b.usages }
func (b *Base) base() *Base    { return b }

// Input returns input i.
func (b *Base) Input(i int) Node { return b.inputs[i] }

// NumInputs returns the number of inputs.
func (b *Base) NumInputs() int { return len(b.inputs) }

// Graph returns the graph the node was added to, or nil.
func (b *Base) Graph() *Graph { return b.graph }

// FixedBase is the Base of nodes that are kept in schedule order.
type FixedBase struct {
	Base
}

// NewFixedBase returns a FixedBase with the given inputs.
func NewFixedBase(inputs ...Node) FixedBase {
	return FixedBase{Base: NewBase(inputs...)}
}

func (*FixedBase) fixed() {}

// IsFixed reports whether n is a fixed node type.
func IsFixed(n Node) bool {
	_, ok := n.(Fixed)
	return ok
}

// Format prints a node as "v12 = Name(v3, v4)". Nodes that implement
// fmt.Stringer-like detail through Detailer add it after the name.
func Format(n Node) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "v%d = %s", n.ID(), n.Name())
	if d, ok := n.(Detailer); ok {
		if s := d.Detail(); s != "" {
			fmt.Fprintf(&sb, "[%s]", s)
		}
	}
	sb.WriteString("(")
	for i, in := range n.Inputs() {
		if i > 0 {
			sb.WriteString(", ")
		}
		if in == nil {
			sb.WriteString("_")
		} else {
			fmt.Fprintf(&sb, "v%d", in.ID())
		}
	}
	sb.WriteString(")")
	if st := n.Stamp(); st != nil {
		if _, void := st.(VoidStamp); !void {
			fmt.Fprintf(&sb, " : %v", st)
		}
	}
	return sb.String()
}

// Detailer is implemented by nodes with attributes worth printing, such
// as an operation tag or a constant value.
type Detailer interface {
	Detail() string
}
