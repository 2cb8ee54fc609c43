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

// Compare is a compare call with arguments
// (cond, vclass, mclass, eclass, length, v1, v2, m). Its result is a mask
// of the class mclass; lanes disabled by m are false.
type Compare struct {
	macroBase
	Cond optable.Condition
}

// NewCompare returns a compare call whose declared result class is declared.
func NewCompare(declared graph.Class, args ...graph.Node) *Compare {
	return &Compare{macroBase: newMacroBase("compare", declared, 8, args)}
}

func (n *Compare) x() graph.Node              { return n.arg(5) }
func (n *Compare) y() graph.Node              { return n.arg(6) }
func (n *Compare) mask() graph.Node           { return n.arg(7) }
func (n *Compare) VectorInputs() []graph.Node { return vectorInputs(n.x(), n.y(), n.mask()) }
func (n *Compare) Detail() string             { return n.detail(n.Cond) }

func (n *Compare) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(2), nil, n.arg(3), n.arg(4))
	cond := n.Cond
	if cond == optable.CondInvalid && b.shape.Resolved() {
		cond = resolveOp(optable.Compare, n.arg(0), b.shape.MaskOf)
	}
	if b.constant == nil && cond != optable.CondInvalid && graph.IsNull(n.mask()) {
		data := simd.Vector(b.shape.MaskOf, b.shape.Lanes)
		cx, cy := constantOf(n.x(), data), constantOf(n.y(), data)
		if cx != nil && cy != nil {
			b.constant = simd.Generate(b.shape, func(i int) uint64 {
				return simd.FromBool(cond.Compare(data.Elem, cx.Bits(i), cy.Bits(i)))
			})
		}
	}
	if b.same(&n.macroBase) && cond == n.Cond {
		return n
	}
	return &Compare{macroBase: b.renewed(n), Cond: cond}
}

func (n *Compare) canonical() (optable.Canonical, bool) {
	return optable.Canonicalize(n.Cond, n.shape.MaskOf.IsFloat())
}

func (n *Compare) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.Cond == optable.CondInvalid {
		return false
	}
	if n.materializable(o) {
		return true
	}
	canon, ok := n.canonical()
	if !ok {
		return false
	}
	s := n.shape
	if o.SupportedCompareLength(s.MaskOf, canon.Cond, s.Lanes) != s.Lanes {
		return false
	}
	if canon.Negate || !graph.IsNull(n.mask()) {
		return o.SupportedMaskLogicLength(s.MaskOf, s.Lanes) == s.Lanes
	}
	return true
}

func (n *Compare) Expand(e *Expander) graph.Node {
	if c, ok := e.folded(n); ok {
		return c
	}
	canon, _ := n.canonical()
	r := e.add(lir.NewCompare(canon, e.value(n.x()), e.value(n.y()), e.repr()))
	if m := n.mask(); !graph.IsNull(m) {
		r = e.add(lir.NewBinary(optable.And, r, e.value(m)))
	}
	return r
}

// Blend is a blend call with arguments (vclass, mclass, eclass, length,
// v1, v2, m): lanes set in m come from v2, the others from v1.
type Blend struct {
	macroBase
}

// NewBlend returns a blend call whose declared result class is declared.
func NewBlend(declared graph.Class, args ...graph.Node) *Blend {
	return &Blend{macroBase: newMacroBase("blend", declared, 7, args)}
}

func (n *Blend) falseValue() graph.Node     { return n.arg(4) }
func (n *Blend) trueValue() graph.Node      { return n.arg(5) }
func (n *Blend) mask() graph.Node           { return n.arg(6) }
func (n *Blend) receiver() graph.Node       { return n.falseValue() }
func (n *Blend) VectorInputs() []graph.Node { return vectorInputs(n.falseValue(), n.trueValue(), n.mask()) }

func (n *Blend) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(0), n.falseValue(), n.arg(2), n.arg(3))
	if b.constant == nil && b.shape.Resolved() && !b.shape.IsMask() {
		f, t := constantOf(n.falseValue(), b.shape), constantOf(n.trueValue(), b.shape)
		m := constantOf(n.mask(), simd.Mask(b.shape.Elem, b.shape.Lanes))
		if f != nil && t != nil && m != nil {
			b.constant = simd.Generate(b.shape, func(i int) uint64 {
				if m.Bool(i) {
					return t.Bits(i)
				}
				return f.Bits(i)
			})
		}
	}
	if b.same(&n.macroBase) {
		return n
	}
	return &Blend{macroBase: b.renewed(n)}
}

func (n *Blend) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.shape.IsMask() {
		return false
	}
	if n.materializable(o) {
		return true
	}
	return o.SupportedBlendLength(n.shape.Elem, n.shape.Lanes) == n.shape.Lanes
}

func (n *Blend) Expand(e *Expander) graph.Node {
	if c, ok := e.folded(n); ok {
		return c
	}
	return e.expandBlend(e.value(n.falseValue()), e.value(n.trueValue()), e.value(n.mask()))
}

// MaskTest is a test call with arguments (cond, mclass, eclass, length, m).
// It yields a boolean.
type MaskTest struct {
	macroBase
	sinkMarker
	Op optable.MaskTestOp
}

// NewMaskTest returns a test call on a mask of the declared class.
func NewMaskTest(declared graph.Class, args ...graph.Node) *MaskTest {
	return &MaskTest{macroBase: newMacroBase("test", declared, 5, args)}
}

func (n *MaskTest) mask() graph.Node           { return n.arg(4) }
func (n *MaskTest) Stamp() graph.Stamp         { return graph.PrimitiveStamp{Kind: simd.Logic} }
func (n *MaskTest) VectorInputs() []graph.Node { return vectorInputs(n.mask()) }
func (n *MaskTest) Detail() string             { return n.detail(n.Op) }

func (n *MaskTest) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(1), n.mask(), n.arg(2), n.arg(3))
	op := n.Op
	if op == optable.MaskTestInvalid {
		if code, ok := opcode(n.arg(0)); ok {
			op, _ = optable.MaskTest(code)
		}
	}
	if op != optable.MaskTestInvalid {
		if m := constantOf(n.mask(), b.shape); m != nil {
			return graph.NewBool(op.Apply(m.BoolLanes()))
		}
	}
	if b.same(&n.macroBase) && op == n.Op {
		return n
	}
	return &MaskTest{macroBase: b.renewed(n), Op: op}
}

func (n *MaskTest) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.Op == optable.MaskTestInvalid {
		return false
	}
	return o.SupportedMaskLogicLength(n.shape.MaskOf, n.shape.Lanes) == n.shape.Lanes
}

func (n *MaskTest) Expand(e *Expander) graph.Node {
	return e.add(lir.NewMaskTest(n.Op, e.value(n.mask())))
}

// MaskReduction is a maskReductionCoerced call with arguments
// (opr, mclass, eclass, length, m). It yields a long.
type MaskReduction struct {
	macroBase
	sinkMarker
	Op optable.MaskReduceOp
}

// NewMaskReduction returns a maskReductionCoerced call on a mask of the
// declared class.
func NewMaskReduction(declared graph.Class, args ...graph.Node) *MaskReduction {
	return &MaskReduction{macroBase: newMacroBase("maskReductionCoerced", declared, 5, args)}
}

func (n *MaskReduction) mask() graph.Node           { return n.arg(4) }
func (n *MaskReduction) Stamp() graph.Stamp         { return graph.PrimitiveStamp{Kind: simd.Int64} }
func (n *MaskReduction) VectorInputs() []graph.Node { return vectorInputs(n.mask()) }
func (n *MaskReduction) Detail() string             { return n.detail(n.Op) }

func (n *MaskReduction) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(1), n.mask(), n.arg(2), n.arg(3))
	op := n.Op
	if op == optable.MaskReduceInvalid {
		if code, ok := opcode(n.arg(0)); ok {
			op, _ = optable.MaskReduction(code)
		}
	}
	if op != optable.MaskReduceInvalid {
		if m := constantOf(n.mask(), b.shape); m != nil {
			return graph.NewInt(simd.Int64, op.Apply(m.BoolLanes()))
		}
	}
	if b.same(&n.macroBase) && op == n.Op {
		return n
	}
	return &MaskReduction{macroBase: b.renewed(n), Op: op}
}

func (n *MaskReduction) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.Op == optable.MaskReduceInvalid {
		return false
	}
	if n.Op == optable.ToLong && n.shape.Lanes > 64 {
		return false
	}
	return o.SupportedMaskLogicLength(n.shape.MaskOf, n.shape.Lanes) == n.shape.Lanes
}

func (n *MaskReduction) Expand(e *Expander) graph.Node {
	return e.add(lir.NewMaskReduce(n.Op, e.value(n.mask())))
}

// IndexPartiallyUpTo is an indexPartiallyUpTo call with arguments
// (mclass, eclass, length, offset, limit). Lane i of the resulting mask is
// set if offset+i < limit.
type IndexPartiallyUpTo struct {
	macroBase
}

// NewIndexPartiallyUpTo returns an indexPartiallyUpTo call whose declared
// result class is declared.
func NewIndexPartiallyUpTo(declared graph.Class, args ...graph.Node) *IndexPartiallyUpTo {
	return &IndexPartiallyUpTo{macroBase: newMacroBase("indexPartiallyUpTo", declared, 5, args)}
}

func (n *IndexPartiallyUpTo) offset() graph.Node         { return n.arg(3) }
func (n *IndexPartiallyUpTo) limit() graph.Node          { return n.arg(4) }
func (n *IndexPartiallyUpTo) VectorInputs() []graph.Node { return nil }

func (n *IndexPartiallyUpTo) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(0), nil, n.arg(1), n.arg(2))
	if b.constant == nil && b.shape.Resolved() {
		off, okO := graph.IntValue(n.offset())
		limit, okL := graph.IntValue(n.limit())
		if okO && okL {
			b.constant = simd.Generate(b.shape, func(i int) uint64 {
				return simd.FromBool(limit > off && uint64(i) < uint64(limit)-uint64(off))
			})
		}
	}
	if b.same(&n.macroBase) {
		return n
	}
	return &IndexPartiallyUpTo{macroBase: b.renewed(n)}
}

func (n *IndexPartiallyUpTo) CanExpand(o arch.Oracle) bool {
	if !n.resolved() {
		return false
	}
	if n.materializable(o) {
		return true
	}
	s := n.shape
	ik := s.MaskOf.SameWidthInt()
	// Lane indices and the bound, up to s.Lanes, must fit signed lanes.
	if s.Lanes >= 1<<(ik.Bits()-1) {
		return false
	}
	return o.SupportedMoveLength(ik, s.Lanes) == s.Lanes &&
		o.SupportedCompareLength(ik, optable.CanonicalLT, s.Lanes) == s.Lanes &&
		o.SupportedMaskLogicLength(s.MaskOf, s.Lanes) == s.Lanes
}

// Expand compares the lane indices with the number of lanes left before
// the limit, clamped to [0, lanes].
func (n *IndexPartiallyUpTo) Expand(e *Expander) graph.Node {
	if c, ok := e.folded(n); ok {
		return c
	}
	s := n.shape
	indices := simd.Vector(s.MaskOf.SameWidthInt(), s.Lanes)
	left := e.add(graph.NewArith(optable.Sub, simd.Int64, n.limit(), n.offset()))
	left = e.add(graph.NewArith(optable.Max, simd.Int64, left, e.scalar(0)))
	left = e.add(graph.NewArith(optable.Min, simd.Int64, left, e.scalar(int64(s.Lanes))))
	iota := e.add(lir.NewIota(indices))
	bound := e.add(lir.NewBroadcast(indices, left))
	r := e.add(lir.NewCompare(optable.Canonical{Cond: optable.CanonicalLT}, iota, bound, e.repr()))
	return e.adaptMask(r, s)
}

// FromBits is a fromBitsCoerced call with arguments
// (vmclass, eclass, length, bits, mode). In broadcast mode every lane of a
// vector holds the low bits of bits, and every lane of a mask is set if
// bits is non-zero. In bits-to-mask mode lane i of the mask is bit i.
type FromBits struct {
	macroBase
}

// NewFromBits returns a fromBitsCoerced call whose declared result class is
// declared.
func NewFromBits(declared graph.Class, args ...graph.Node) *FromBits {
	return &FromBits{macroBase: newMacroBase("fromBitsCoerced", declared, 5, args)}
}

func (n *FromBits) bits() graph.Node           { return n.arg(3) }
func (n *FromBits) VectorInputs() []graph.Node { return nil }

func (n *FromBits) mode() (int, bool) {
	m, ok := opcode(n.arg(4))
	if !ok || (m != optable.ModeBroadcast && m != optable.ModeBitsToMask) {
		return 0, false
	}
	return m, true
}

func (n *FromBits) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(0), nil, n.arg(1), n.arg(2))
	if b.constant == nil && b.shape.Resolved() {
		bits, okB := graph.IntValue(n.bits())
		mode, okM := n.mode()
		if okB && okM {
			b.constant = fromBits(b.shape, mode, uint64(bits))
		}
	}
	if b.same(&n.macroBase) {
		return n
	}
	return &FromBits{macroBase: b.renewed(n)}
}

func fromBits(s simd.Shape, mode int, bits uint64) *simd.Constant {
	switch {
	case mode == optable.ModeBitsToMask && s.IsMask() && s.Lanes <= 64:
		return simd.Generate(s, func(i int) uint64 { return (bits >> i) & 1 })
	case mode == optable.ModeBroadcast && s.IsMask():
		return simd.Broadcast(s, simd.FromBool(bits != 0))
	case mode == optable.ModeBroadcast:
		return simd.Broadcast(s, bits)
	}
	return nil
}

func (n *FromBits) CanExpand(o arch.Oracle) bool {
	if !n.resolved() {
		return false
	}
	if n.materializable(o) {
		return true
	}
	mode, ok := n.mode()
	if !ok {
		return false
	}
	s := n.shape
	switch {
	case s.IsMask():
		if mode == optable.ModeBitsToMask && s.Lanes > 64 {
			return false
		}
		return o.SupportedMaskLogicLength(s.MaskOf, s.Lanes) == s.Lanes
	case mode == optable.ModeBroadcast:
		return o.SupportedMoveLength(s.Elem, s.Lanes) == s.Lanes
	}
	return false
}

func (n *FromBits) Expand(e *Expander) graph.Node {
	if c, ok := e.folded(n); ok {
		return c
	}
	s := e.resolve(n.shape)
	if mode, _ := n.mode(); mode == optable.ModeBitsToMask {
		return e.add(lir.NewBitsToMask(s, n.bits()))
	}
	return e.add(lir.NewBroadcast(s, n.bits()))
}
