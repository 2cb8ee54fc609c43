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

	"github.com/ajroetker/vecapi/arch"
	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/lir"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

// Convert is a convert call with arguments
// (opr, fromEclass, fromLength, toVclass, toEclass, toLength, v, part).
//
// Only part 0 is supported: the result is computed from the low lanes of
// v, and result lanes beyond the input lanes are zero. A reinterpretation
// between lane widths keeps the bits and must not change the vector size.
type Convert struct {
	macroBase
	Kind optable.ConvertKind
	// Op is the lane conversion. It stays invalid for reinterpretations
	// that change the lane width.
	Op   optable.ConvertOp
	from simd.Shape
}

// NewConvert returns a convert call whose declared result class is declared.
func NewConvert(declared graph.Class, args ...graph.Node) *Convert {
	return &Convert{macroBase: newMacroBase("convert", declared, 8, args)}
}

func (n *Convert) value() graph.Node          { return n.arg(6) }
func (n *Convert) From() simd.Shape           { return n.from }
func (n *Convert) VectorInputs() []graph.Node { return vectorInputs(n.value()) }

func (n *Convert) Detail() string {
	if n.Op == optable.ConvertInvalid {
		return fmt.Sprintf("%v %v to %v", n.Kind, n.from, n.shape)
	}
	return fmt.Sprintf("%v %v to %v", n.Op, n.from, n.shape)
}

func (n *Convert) firstPart() bool {
	part, ok := graph.IntValue(n.arg(7))
	return ok && part == 0
}

// bitwise reports whether the conversion reinterprets lanes of a different
// width.
func (n *Convert) bitwise() bool {
	return n.Kind == optable.Reinterpret && n.from.Elem.Bits() != n.shape.Elem.Bits()
}

func (n *Convert) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(3), nil, n.arg(4), n.arg(5))
	kind, from, op := n.Kind, n.from, n.Op
	if kind == optable.ConvertKindInvalid {
		if code, ok := opcode(n.arg(0)); ok {
			kind, _ = optable.ConversionKind(code)
		}
	}
	if !from.Resolved() {
		from = tokenShape(graph.CategoryVector, n.arg(1), n.arg(2))
	}
	if op == optable.ConvertInvalid && kind != optable.ConvertKindInvalid && from.Resolved() && b.shape.Resolved() {
		op = optable.ResolveConvert(kind, from.Elem, b.shape.Elem)
	}
	r := &Convert{macroBase: b, Kind: kind, Op: op, from: from}
	if b.constant == nil && r.valid() {
		r.constant = r.fold()
	}
	if r.same(&n.macroBase) && kind == n.Kind && from == n.from && op == n.Op {
		return n
	}
	r.macroBase = r.renewed(n)
	return r
}

// valid reports whether the operation is fully resolved and computable
// from the first part of the input.
func (n *Convert) valid() bool {
	if !n.shape.Resolved() || !n.from.Resolved() || n.shape.IsMask() || n.from.IsMask() || !n.firstPart() {
		return false
	}
	if n.bitwise() {
		return n.from.Bytes() == n.shape.Bytes()
	}
	return n.Op != optable.ConvertInvalid
}

func (n *Convert) fold() *simd.Constant {
	c := constantOf(n.value(), n.from)
	if c == nil {
		return nil
	}
	if n.bitwise() {
		return lir.Reinterpreted(c, n.shape)
	}
	to, from := n.shape.Elem, n.from.Elem
	return simd.Generate(n.shape, func(i int) uint64 {
		if i >= c.Len() {
			return 0
		}
		return n.Op.Apply(from, to, c.Bits(i))
	})
}

// lanes is the number of lanes actually converted.
func (n *Convert) lanes() int {
	return min(n.from.Lanes, n.shape.Lanes)
}

// intermediate returns the widening that precedes a decomposed conversion
// of narrow integers to floats. It holds only the lanes that are converted.
func (n *Convert) intermediate() (optable.ConvertOp, simd.Shape, bool) {
	from := n.from.Elem
	if !from.IsInteger() || from.Bits() >= 32 || !n.shape.Elem.IsFloat() {
		return optable.ConvertInvalid, simd.Shape{}, false
	}
	mid := simd.Vector(simd.Int32, n.lanes())
	switch n.Op {
	case optable.SignedToFloat:
		return optable.SignExtend, mid, true
	case optable.UnsignedToFloat:
		return optable.ZeroExtend, mid, true
	}
	return optable.ConvertInvalid, simd.Shape{}, false
}

func (n *Convert) decomposable(o arch.Oracle) bool {
	ext, mid, ok := n.intermediate()
	if !ok {
		return false
	}
	l := mid.Lanes
	return o.SupportedMoveLength(mid.Elem, l) == l &&
		o.SupportedConvertLength(mid.Elem, n.from.Elem, l, ext) == l &&
		o.SupportedConvertLength(n.shape.Elem, mid.Elem, l, optable.SignedToFloat) == l
}

func (n *Convert) direct(o arch.Oracle) bool {
	l := n.lanes()
	return o.SupportedConvertLength(n.shape.Elem, n.from.Elem, l, n.Op) == l
}

func (n *Convert) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || !n.valid() {
		return false
	}
	if n.materializable(o) {
		return true
	}
	if o.SupportedMoveLength(n.shape.Elem, n.shape.Lanes) != n.shape.Lanes {
		return false
	}
	switch {
	case n.bitwise():
		return o.SupportedMoveLength(n.from.Elem, n.from.Lanes) == n.from.Lanes
	case n.Op == optable.Identity && n.from == n.shape:
		return true
	}
	return n.direct(o) || n.decomposable(o)
}

func (n *Convert) Expand(e *Expander) graph.Node {
	if c, ok := e.folded(n); ok {
		return c
	}
	v := e.value(n.value())
	switch {
	case n.bitwise():
		return e.add(lir.NewReinterpret(n.shape, v))
	case n.Op == optable.Identity && n.from == n.shape:
		return v
	case n.direct(e.oracle):
		return e.add(lir.NewConvert(n.Op, n.shape, v))
	}
	ext, mid, _ := n.intermediate()
	w := e.add(lir.NewConvert(ext, mid, v))
	return e.add(lir.NewConvert(optable.SignedToFloat, n.shape, w))
}

// Rearrange is a rearrangeOp call with arguments
// (vclass, shclass, mclass, eclass, length, v, shuffle, m). Result lane i
// is lane shuffle[i] of v, wrapped to the lane count; lanes disabled by m
// are zero.
type Rearrange struct {
	macroBase
}

// NewRearrange returns a rearrangeOp call whose declared result class is
// declared.
func NewRearrange(declared graph.Class, args ...graph.Node) *Rearrange {
	return &Rearrange{macroBase: newMacroBase("rearrangeOp", declared, 8, args)}
}

func (n *Rearrange) value() graph.Node          { return n.arg(5) }
func (n *Rearrange) shuffle() graph.Node        { return n.arg(6) }
func (n *Rearrange) mask() graph.Node           { return n.arg(7) }
func (n *Rearrange) receiver() graph.Node       { return n.value() }
func (n *Rearrange) VectorInputs() []graph.Node { return vectorInputs(n.value(), n.shuffle(), n.mask()) }

func (n *Rearrange) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(0), n.value(), n.arg(3), n.arg(4))
	if b.constant == nil && b.shape.Resolved() && !b.shape.IsMask() && graph.IsNull(n.mask()) {
		v := constantOf(n.value(), b.shape)
		idx := constantOf(n.shuffle(), simd.Vector(b.shape.Elem.SameWidthInt(), b.shape.Lanes))
		if v != nil && idx != nil {
			b.constant = Shuffled(v, idx)
		}
	}
	if b.same(&n.macroBase) {
		return n
	}
	return &Rearrange{macroBase: b.renewed(n)}
}

// Shuffled returns the lanes of v picked by the lane indices idx, each
// wrapped to the lane count, which must be a power of two.
func Shuffled(v, idx *simd.Constant) *simd.Constant {
	lanes := v.Len()
	fault.Guarantee(simd.IsPowerOfTwo(lanes), "shuffle of %d lanes", lanes)
	wrap := uint64(lanes - 1)
	return simd.Generate(v.Shape(), func(i int) uint64 { return v.Bits(int(idx.Bits(i) & wrap)) })
}

func (n *Rearrange) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.shape.IsMask() {
		return false
	}
	if n.materializable(o) {
		return true
	}
	s := n.shape
	if !simd.IsPowerOfTwo(s.Lanes) || o.SupportedPermuteLength(s.Elem, s.Lanes) != s.Lanes {
		return false
	}
	return graph.IsNull(n.mask()) ||
		(o.SupportedBlendLength(s.Elem, s.Lanes) == s.Lanes && o.SupportedMoveLength(s.Elem, s.Lanes) == s.Lanes)
}

func (n *Rearrange) Expand(e *Expander) graph.Node {
	if c, ok := e.folded(n); ok {
		return c
	}
	r := e.add(lir.NewPermute(e.value(n.value()), e.value(n.shuffle())))
	if m := n.mask(); !graph.IsNull(m) {
		r = e.expandBlend(e.zero(n.shape), r, e.value(m))
	}
	return r
}

// CompressExpand is a compressExpandOp call with arguments
// (opr, vclass, mclass, eclass, length, v, m).
type CompressExpand struct {
	macroBase
	Op optable.CompressOp
}

// NewCompressExpand returns a compressExpandOp call whose declared result
// class is declared.
func NewCompressExpand(declared graph.Class, args ...graph.Node) *CompressExpand {
	return &CompressExpand{macroBase: newMacroBase("compressExpandOp", declared, 7, args)}
}

func (n *CompressExpand) value() graph.Node          { return n.arg(5) }
func (n *CompressExpand) mask() graph.Node           { return n.arg(6) }
func (n *CompressExpand) receiver() graph.Node       { return n.value() }
func (n *CompressExpand) VectorInputs() []graph.Node { return vectorInputs(n.value(), n.mask()) }
func (n *CompressExpand) Detail() string             { return n.detail(n.Op) }

func (n *CompressExpand) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(1), n.value(), n.arg(3), n.arg(4))
	op := n.Op
	if op == optable.CompressInvalid {
		if code, ok := opcode(n.arg(0)); ok {
			op, _ = optable.CompressExpand(code)
		}
	}
	if b.same(&n.macroBase) && op == n.Op {
		return n
	}
	return &CompressExpand{macroBase: b.renewed(n), Op: op}
}

func (n *CompressExpand) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.Op == optable.CompressInvalid || n.shape.IsMask() || graph.IsNull(n.mask()) {
		return false
	}
	return o.SupportedCompressExpandLength(n.shape.Elem, n.shape.Lanes) == n.shape.Lanes
}

func (n *CompressExpand) Expand(e *Expander) graph.Node {
	return e.add(lir.NewCompress(n.Op, e.value(n.value()), e.value(n.mask())))
}

// Insert is an insert call with arguments
// (vclass, eclass, length, v, index, value). The value is a long holding
// the lane bits.
type Insert struct {
	macroBase
}

// NewInsert returns an insert call whose declared result class is declared.
func NewInsert(declared graph.Class, args ...graph.Node) *Insert {
	return &Insert{macroBase: newMacroBase("insert", declared, 6, args)}
}

func (n *Insert) vector() graph.Node         { return n.arg(3) }
func (n *Insert) element() graph.Node        { return n.arg(5) }
func (n *Insert) receiver() graph.Node       { return n.vector() }
func (n *Insert) VectorInputs() []graph.Node { return vectorInputs(n.vector()) }

func (n *Insert) index() (int, bool) {
	return laneIndex(n.arg(4), n.shape)
}

// laneIndex returns the constant lane index i if it is in range for s.
func laneIndex(i graph.Node, s simd.Shape) (int, bool) {
	v, ok := graph.IntValue(i)
	if !ok || !s.Resolved() || v < 0 || v >= int64(s.Lanes) {
		return 0, false
	}
	return int(v), true
}

func (n *Insert) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(0), n.vector(), n.arg(1), n.arg(2))
	if b.constant == nil && !b.shape.IsMask() {
		i, okI := laneIndex(n.arg(4), b.shape)
		x, okX := n.element().(*graph.Const)
		if v := constantOf(n.vector(), b.shape); v != nil && okI && okX {
			b.constant = simd.Generate(b.shape, func(lane int) uint64 {
				if lane == i {
					return x.Bits
				}
				return v.Bits(lane)
			})
		}
	}
	if b.same(&n.macroBase) {
		return n
	}
	return &Insert{macroBase: b.renewed(n)}
}

func (n *Insert) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.shape.IsMask() {
		return false
	}
	if n.materializable(o) {
		return true
	}
	_, ok := n.index()
	return ok && o.SupportedMoveLength(n.shape.Elem, n.shape.Lanes) == n.shape.Lanes
}

func (n *Insert) Expand(e *Expander) graph.Node {
	if c, ok := e.folded(n); ok {
		return c
	}
	i, _ := n.index()
	return e.add(lir.NewInsert(e.value(n.vector()), i, n.element()))
}

// Extract is an extract call with arguments (vclass, eclass, length, v,
// index). It yields the lane as a long: integers sign-extended, floats as
// raw bits.
type Extract struct {
	macroBase
	sinkMarker
}

// NewExtract returns an extract call on a vector of the declared class.
func NewExtract(declared graph.Class, args ...graph.Node) *Extract {
	return &Extract{macroBase: newMacroBase("extract", declared, 5, args)}
}

func (n *Extract) vector() graph.Node         { return n.arg(3) }
func (n *Extract) Stamp() graph.Stamp         { return graph.PrimitiveStamp{Kind: simd.Int64} }
func (n *Extract) VectorInputs() []graph.Node { return vectorInputs(n.vector()) }

// coercedConst returns a lane of kind k in its long carrier.
func coercedConst(k simd.Kind, bits uint64) *graph.Const {
	if k.IsFloat() {
		return graph.NewInt(simd.Int64, int64(bits))
	}
	return graph.NewInt(simd.Int64, simd.AsInt(k, bits))
}

func (n *Extract) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(0), n.vector(), n.arg(1), n.arg(2))
	if i, ok := laneIndex(n.arg(4), b.shape); ok && !b.shape.IsMask() {
		if v := constantOf(n.vector(), b.shape); v != nil {
			return coercedConst(b.shape.Elem, v.Bits(i))
		}
	}
	if b.same(&n.macroBase) {
		return n
	}
	return &Extract{macroBase: b.renewed(n)}
}

func (n *Extract) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.shape.IsMask() {
		return false
	}
	_, ok := laneIndex(n.arg(4), n.shape)
	return ok && o.SupportedMoveLength(n.shape.Elem, n.shape.Lanes) == n.shape.Lanes
}

func (n *Extract) Expand(e *Expander) graph.Node {
	i, _ := laneIndex(n.arg(4), n.shape)
	return e.add(lir.NewExtract(e.value(n.vector()), i))
}

// Reduction is a reductionCoerced call with arguments
// (opr, vclass, mclass, eclass, length, v, m). It combines all lanes
// enabled by m into a long, coerced like Extract.
type Reduction struct {
	macroBase
	sinkMarker
	Op optable.ArithOp
}

// NewReduction returns a reductionCoerced call on a vector of the declared
// class.
func NewReduction(declared graph.Class, args ...graph.Node) *Reduction {
	return &Reduction{macroBase: newMacroBase("reductionCoerced", declared, 7, args)}
}

func (n *Reduction) value() graph.Node          { return n.arg(5) }
func (n *Reduction) mask() graph.Node           { return n.arg(6) }
func (n *Reduction) Stamp() graph.Stamp         { return graph.PrimitiveStamp{Kind: simd.Int64} }
func (n *Reduction) VectorInputs() []graph.Node { return vectorInputs(n.value(), n.mask()) }
func (n *Reduction) Detail() string             { return n.detail(n.Op) }

func (n *Reduction) Canonical(*graph.Graph) graph.Node {
	b := n.refine(n.arg(1), n.value(), n.arg(3), n.arg(4))
	op := n.Op
	if op == optable.ArithInvalid {
		op = resolveOp(optable.Reduction, n.arg(0), b.shape.Elem)
	}
	if op != optable.ArithInvalid && graph.IsNull(n.mask()) {
		if v := constantOf(n.value(), b.shape); v != nil {
			return coercedConst(b.shape.Elem, op.Reduce(b.shape.Elem, v.RawLanes()))
		}
	}
	if b.same(&n.macroBase) && op == n.Op {
		return n
	}
	return &Reduction{macroBase: b.renewed(n), Op: op}
}

func (n *Reduction) CanExpand(o arch.Oracle) bool {
	if !n.resolved() || n.Op == optable.ArithInvalid || n.shape.IsMask() {
		return false
	}
	s := n.shape
	if o.SupportedReductionLength(s.Elem, s.Lanes, n.Op) != s.Lanes {
		return false
	}
	return graph.IsNull(n.mask()) ||
		(o.SupportedBlendLength(s.Elem, s.Lanes) == s.Lanes && o.SupportedMoveLength(s.Elem, s.Lanes) == s.Lanes)
}

// Expand replaces disabled lanes with the identity of the reduction.
func (n *Reduction) Expand(e *Expander) graph.Node {
	v := e.value(n.value())
	if m := n.mask(); !graph.IsNull(m) {
		identity := e.constant(simd.Broadcast(n.shape, n.Op.Identity(n.shape.Elem)))
		v = e.expandBlend(identity, v, e.value(m))
	}
	return e.add(lir.NewReduce(n.Op, v))
}
