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
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/lir"
)

// Load is a load call with arguments
// (vmclass, mclass, eclass, length, array, offset, m). Lanes disabled by m
// are not accessed and read as zero.
//
// Loads and stores keep their position in the schedule: the bounds checks
// guarding them are not data inputs.
type Load struct {
	macroBase
}

// NewLoad returns a load call whose declared result class is declared.
func NewLoad(declared graph.Class, args ...graph.Node) *Load {
	n := &Load{macroBase: newMacroBase("load", declared, 7, args)}
	if !graph.IsNull(n.mask()) {
		n.method = "loadMasked"
	}
	return n
}

func (n *Load) array() graph.Node          { return n.arg(4) }
func (n *Load) offset() graph.Node         { return n.arg(5) }
func (n *Load) mask() graph.Node           { return n.arg(6) }
func (n *Load) VectorInputs() []graph.Node { return vectorInputs(n.mask()) }

func (n *Load) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(0), nil, n.arg(2), n.arg(3))
	if b.same(&n.macroBase) {
		return n
	}
	return &Load{macroBase: b.renewed(n)}
}

func (n *Load) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.shape.IsMask() {
		return false
	}
	s := n.shape
	if graph.IsNull(n.mask()) {
		return o.SupportedMoveLength(s.Elem, s.Lanes) == s.Lanes
	}
	return o.SupportedMaskedMoveLength(s.Elem, s.Lanes) == s.Lanes &&
		o.SupportedBlendLength(s.Elem, s.Lanes) == s.Lanes
}

func (n *Load) Expand(e *Expander) graph.Node {
	m := n.mask()
	if graph.IsNull(m) {
		return e.fixed(lir.NewRead(n.shape, n.array(), n.offset()))
	}
	mask := e.value(m)
	r := e.fixed(lir.NewMaskedRead(n.shape, n.array(), n.offset(), mask))
	return e.expandBlend(e.zero(n.shape), r, mask)
}

// Store is a store call with arguments
// (vclass, mclass, eclass, length, array, offset, v, m). Lanes disabled by
// m are not written.
type Store struct {
	macroBase
	sinkMarker
}

// NewStore returns a store call of a vector of the declared class.
func NewStore(declared graph.Class, args ...graph.Node) *Store {
	n := &Store{macroBase: newMacroBase("store", declared, 8, args)}
	if !graph.IsNull(n.mask()) {
		n.method = "storeMasked"
	}
	return n
}

func (n *Store) array() graph.Node          { return n.arg(4) }
func (n *Store) offset() graph.Node         { return n.arg(5) }
func (n *Store) value() graph.Node          { return n.arg(6) }
func (n *Store) mask() graph.Node           { return n.arg(7) }
func (n *Store) Stamp() graph.Stamp         { return graph.VoidStamp{} }
func (n *Store) VectorInputs() []graph.Node { return vectorInputs(n.value(), n.mask()) }

func (n *Store) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(0), n.value(), n.arg(2), n.arg(3))
	if b.same(&n.macroBase) {
		return n
	}
	return &Store{macroBase: b.renewed(n)}
}

func (n *Store) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.shape.IsMask() {
		return false
	}
	s := n.shape
	if graph.IsNull(n.mask()) {
		return o.SupportedMoveLength(s.Elem, s.Lanes) == s.Lanes
	}
	return o.SupportedMaskedMoveLength(s.Elem, s.Lanes) == s.Lanes
}

func (n *Store) Expand(e *Expander) graph.Node {
	v := e.value(n.value())
	if m := n.mask(); !graph.IsNull(m) {
		// Disabled lanes are not written, so there is nothing to blend.
		return e.fixed(lir.NewMaskedWrite(n.array(), n.offset(), v, e.value(m)))
	}
	return e.fixed(lir.NewWrite(n.array(), n.offset(), v))
}
