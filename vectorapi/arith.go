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
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

// Unary is a unaryOp call with arguments
// (opr, vclass, mclass, eclass, length, v, m).
type Unary struct {
	macroBase
	Op optable.ArithOp
}

// NewUnary returns a unaryOp call whose declared result class is declared.
func NewUnary(declared graph.Class, args ...graph.Node) *Unary {
	return &Unary{macroBase: newMacroBase("unaryOp", declared, 7, args)}
}

func (n *Unary) value() graph.Node          { return n.arg(5) }
func (n *Unary) mask() graph.Node           { return n.arg(6) }
func (n *Unary) receiver() graph.Node       { return n.value() }
func (n *Unary) VectorInputs() []graph.Node { return vectorInputs(n.value(), n.mask()) }
func (n *Unary) Detail() string             { return n.detail(n.Op) }

func (n *Unary) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(1), n.value(), n.arg(3), n.arg(4))
	op := n.Op
	if op == optable.ArithInvalid {
		op = resolveOp(optable.Unary, n.arg(0), b.shape.Elem)
	}
	if b.constant == nil && op != optable.ArithInvalid && graph.IsNull(n.mask()) {
		if c := constantOf(n.value(), b.shape); c != nil {
			k := b.shape.Elem
			b.constant = simd.Generate(b.shape, func(i int) uint64 { return op.Apply1(k, c.Bits(i)) })
		}
	}
	if b.same(&n.macroBase) && op == n.Op {
		return n
	}
	return &Unary{macroBase: b.renewed(n), Op: op}
}

func (n *Unary) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.Op == optable.ArithInvalid {
		return false
	}
	if n.materializable(o) {
		return true
	}
	s := n.shape
	return !s.IsMask() &&
		o.SupportedArithmeticLength(s.Elem, s.Lanes, n.Op) == s.Lanes &&
		blendable(o, s, n.mask())
}

func (n *Unary) Expand(e *Expander) graph.Node {
	if c, ok := e.folded(n); ok {
		return c
	}
	v := e.value(n.value())
	return e.masked(v, e.add(lir.NewUnary(n.Op, v)), n.mask())
}

// Binary is a binaryOp call with arguments
// (opr, vclass, mclass, eclass, length, v1, v2, m). On masks it computes
// the logical and, or and xor.
type Binary struct {
	macroBase
	Op optable.ArithOp
}

// NewBinary returns a binaryOp call whose declared result class is declared.
func NewBinary(declared graph.Class, args ...graph.Node) *Binary {
	return &Binary{macroBase: newMacroBase("binaryOp", declared, 8, args)}
}

func (n *Binary) x() graph.Node              { return n.arg(5) }
func (n *Binary) y() graph.Node              { return n.arg(6) }
func (n *Binary) mask() graph.Node           { return n.arg(7) }
func (n *Binary) receiver() graph.Node       { return n.x() }
func (n *Binary) VectorInputs() []graph.Node { return vectorInputs(n.x(), n.y(), n.mask()) }
func (n *Binary) Detail() string             { return n.detail(n.Op) }

func (n *Binary) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(1), n.x(), n.arg(3), n.arg(4))
	op := n.Op
	if op == optable.ArithInvalid {
		op = resolveOp(optable.Binary, n.arg(0), b.shape.Elem)
	}
	if b.constant == nil && op != optable.ArithInvalid && graph.IsNull(n.mask()) {
		b.constant = foldBinary(op, b.shape, n.x(), n.y())
	}
	if b.same(&n.macroBase) && op == n.Op {
		return n
	}
	return &Binary{macroBase: b.renewed(n), Op: op}
}

// foldBinary folds op over two constant inputs. Integer division by zero
// is left to run time.
func foldBinary(op optable.ArithOp, s simd.Shape, x, y graph.Node) *simd.Constant {
	cx, cy := constantOf(x, s), constantOf(y, s)
	if cx == nil || cy == nil {
		return nil
	}
	lanes := make([]uint64, s.Lanes)
	for i := range lanes {
		r, ok := op.Apply2(s.Elem, cx.Bits(i), cy.Bits(i))
		if !ok {
			return nil
		}
		lanes[i] = r
	}
	return simd.FromBits(s, lanes)
}

func (n *Binary) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.Op == optable.ArithInvalid {
		return false
	}
	if n.materializable(o) {
		return true
	}
	s := n.shape
	if s.IsMask() {
		return graph.IsNull(n.mask()) && o.SupportedMaskLogicLength(s.MaskOf, s.Lanes) == s.Lanes
	}
	return o.SupportedArithmeticLength(s.Elem, s.Lanes, n.Op) == s.Lanes && blendable(o, s, n.mask())
}

func (n *Binary) Expand(e *Expander) graph.Node {
	if c, ok := e.folded(n); ok {
		return c
	}
	x, y := e.value(n.x()), e.value(n.y())
	return e.masked(x, e.add(lir.NewBinary(n.Op, x, y)), n.mask())
}

// Ternary is a ternaryOp call with arguments
// (opr, vclass, mclass, eclass, length, v1, v2, v3, m). Only float lanes
// have ternary operations.
type Ternary struct {
	macroBase
	Op optable.ArithOp
}

// NewTernary returns a ternaryOp call whose declared result class is declared.
func NewTernary(declared graph.Class, args ...graph.Node) *Ternary {
	return &Ternary{macroBase: newMacroBase("ternaryOp", declared, 9, args)}
}

func (n *Ternary) operands() []graph.Node     { return n.Inputs()[5:8] }
func (n *Ternary) mask() graph.Node           { return n.arg(8) }
func (n *Ternary) receiver() graph.Node       { return n.arg(5) }
func (n *Ternary) VectorInputs() []graph.Node { return vectorInputs(n.arg(5), n.arg(6), n.arg(7), n.mask()) }
func (n *Ternary) Detail() string             { return n.detail(n.Op) }

func (n *Ternary) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(1), n.receiver(), n.arg(3), n.arg(4))
	op := n.Op
	if op == optable.ArithInvalid {
		op = resolveOp(optable.Ternary, n.arg(0), b.shape.Elem)
	}
	if b.constant == nil && op != optable.ArithInvalid && graph.IsNull(n.mask()) {
		in := n.operands()
		a, bb, c := constantOf(in[0], b.shape), constantOf(in[1], b.shape), constantOf(in[2], b.shape)
		if a != nil && bb != nil && c != nil {
			k := b.shape.Elem
			b.constant = simd.Generate(b.shape, func(i int) uint64 { return op.Apply3(k, a.Bits(i), bb.Bits(i), c.Bits(i)) })
		}
	}
	if b.same(&n.macroBase) && op == n.Op {
		return n
	}
	return &Ternary{macroBase: b.renewed(n), Op: op}
}

func (n *Ternary) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.Op == optable.ArithInvalid {
		return false
	}
	if n.materializable(o) {
		return true
	}
	s := n.shape
	return o.SupportedArithmeticLength(s.Elem, s.Lanes, n.Op) == s.Lanes && blendable(o, s, n.mask())
}

func (n *Ternary) Expand(e *Expander) graph.Node {
	if c, ok := e.folded(n); ok {
		return c
	}
	in := n.operands()
	a, b, c := e.value(in[0]), e.value(in[1]), e.value(in[2])
	return e.masked(a, e.add(lir.NewTernary(n.Op, a, b, c)), n.mask())
}

// Shift is a broadcastInt call shifting every lane by a scalar count, with
// arguments (opr, vclass, mclass, eclass, length, v, count, m). The count
// is taken modulo the lane width.
type Shift struct {
	macroBase
	Op optable.ShiftOp
}

// NewShift returns a broadcastInt call whose declared result class is
// declared.
func NewShift(declared graph.Class, args ...graph.Node) *Shift {
	return &Shift{macroBase: newMacroBase("broadcastInt", declared, 8, args)}
}

func (n *Shift) value() graph.Node          { return n.arg(5) }
func (n *Shift) count() graph.Node          { return n.arg(6) }
func (n *Shift) mask() graph.Node           { return n.arg(7) }
func (n *Shift) receiver() graph.Node       { return n.value() }
func (n *Shift) VectorInputs() []graph.Node { return vectorInputs(n.value(), n.mask()) }
func (n *Shift) Detail() string             { return n.detail(n.Op) }

func (n *Shift) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(1), n.value(), n.arg(3), n.arg(4))
	op := n.Op
	if op == optable.ShiftInvalid {
		op = resolveOp(optable.Shift, n.arg(0), b.shape.Elem)
	}
	if b.constant == nil && op != optable.ShiftInvalid && graph.IsNull(n.mask()) {
		c := constantOf(n.value(), b.shape)
		count, ok := graph.IntValue(n.count())
		if c != nil && ok {
			k := b.shape.Elem
			b.constant = simd.Generate(b.shape, func(i int) uint64 { return op.Apply(k, c.Bits(i), count) })
		}
	}
	if b.same(&n.macroBase) && op == n.Op {
		return n
	}
	return &Shift{macroBase: b.renewed(n), Op: op}
}

// widening returns the conversion that widens lanes before a decomposed
// shift: right shifts must see the sign or zero bits they shift in.
func (n *Shift) widening() optable.ConvertOp {
	if n.Op == optable.Sar {
		return optable.SignExtend
	}
	return optable.ZeroExtend
}

// decomposable reports whether the target can compute a byte shift as a
// shift of 16-bit lanes between a widening and a narrowing conversion.
func (n *Shift) decomposable(o arch.Oracle) bool {
	s := n.shape
	if s.Elem.Bits() != 8 {
		return false
	}
	wide := s.Elem.Widen()
	return o.SupportedConvertLength(wide, s.Elem, s.Lanes, n.widening()) == s.Lanes &&
		o.SupportedShiftLength(wide, s.Lanes, n.Op) == s.Lanes &&
		o.SupportedConvertLength(s.Elem, wide, s.Lanes, optable.Narrow) == s.Lanes
}

func (n *Shift) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.Op == optable.ShiftInvalid {
		return false
	}
	if n.materializable(o) {
		return true
	}
	s := n.shape
	if !blendable(o, s, n.mask()) {
		return false
	}
	return o.SupportedShiftLength(s.Elem, s.Lanes, n.Op) == s.Lanes || n.decomposable(o)
}

func (n *Shift) Expand(e *Expander) graph.Node {
	if c, ok := e.folded(n); ok {
		return c
	}
	s := n.shape
	v := e.value(n.value())
	var r graph.Node
	if e.oracle.SupportedShiftLength(s.Elem, s.Lanes, n.Op) == s.Lanes {
		r = e.add(lir.NewShift(n.Op, v, n.count()))
	} else {
		wide := s.WithElem(s.Elem.Widen())
		w := e.add(lir.NewConvert(n.widening(), wide, v))
		w = e.add(lir.NewShiftMasked(n.Op, w, n.count(), s.Elem.Bits()))
		r = e.add(lir.NewConvert(optable.Narrow, s, w))
	}
	return e.masked(v, r, n.mask())
}
