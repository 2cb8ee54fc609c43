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

// Package lir contains the low-level SIMD nodes that vector API operations
// expand to, and an interpreter that executes graphs built from them.
//
// Each node maps to one target instruction (or a short fixed sequence) and
// works on unboxed values of a resolved simd.Shape. Mask values carry their
// target representation in their shape; nodes that consume masks require a
// resolved representation.
package lir

import (
	"fmt"

	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

// vectorBase is embedded by nodes producing a SIMD value.
type vectorBase struct {
	graph.Base
	shape simd.Shape
}

func newVectorBase(shape simd.Shape, inputs ...graph.Node) vectorBase {
	fault.Guarantee(shape.Resolved(), "SIMD node with unresolved shape")
	return vectorBase{Base: graph.NewBase(inputs...), shape: shape}
}

func (v *vectorBase) Shape() simd.Shape  { return v.shape }
func (v *vectorBase) Stamp() graph.Stamp { return graph.VectorStamp{Shape: v.shape} }

// fixedVectorBase is embedded by memory nodes producing a SIMD value.
type fixedVectorBase struct {
	graph.FixedBase
	shape simd.Shape
}

func (v *fixedVectorBase) Shape() simd.Shape  { return v.shape }
func (v *fixedVectorBase) Stamp() graph.Stamp { return graph.VectorStamp{Shape: v.shape} }

// ShapeOf returns the shape of a SIMD value node.
func ShapeOf(n graph.Node) (simd.Shape, bool) {
	s, ok := n.Stamp().(graph.VectorStamp)
	return s.Shape, ok
}

func mustShape(n graph.Node) simd.Shape {
	s, ok := ShapeOf(n)
	fault.Guarantee(ok, "%s is not a SIMD value: %v", n.Name(), n.Stamp())
	return s
}

func mustMask(n graph.Node, lanes int) simd.Shape {
	s := mustShape(n)
	fault.Guarantee(s.IsMask() && s.Lanes == lanes, "expected a mask of %d lanes, got %v", lanes, s)
	fault.Guarantee(s.Repr != simd.ReprUnresolved, "mask %v with unresolved representation", s)
	return s
}

// Constant materializes a vector constant.
type Constant struct {
	vectorBase
	Value *simd.Constant
}

// NewConstant returns a node materializing c.
func NewConstant(c *simd.Constant) *Constant {
	if c.Shape().IsMask() {
		fault.Guarantee(c.Shape().Repr != simd.ReprUnresolved, "mask constant with unresolved representation")
	}
	return &Constant{vectorBase: newVectorBase(c.Shape()), Value: c}
}

func (*Constant) Name() string     { return "Constant" }
func (c *Constant) Detail() string { return c.Value.String() }

// Broadcast fills every lane with a scalar. For masks a non-zero scalar
// sets every lane.
type Broadcast struct {
	vectorBase
}

// NewBroadcast returns a vector of shape whose lanes all hold x.
func NewBroadcast(shape simd.Shape, x graph.Node) *Broadcast {
	return &Broadcast{vectorBase: newVectorBase(shape, x)}
}

func (*Broadcast) Name() string { return "Broadcast" }

// Iota is the vector 0, 1, 2, ...
type Iota struct {
	vectorBase
}

// NewIota returns the lane index vector of shape.
func NewIota(shape simd.Shape) *Iota {
	fault.Guarantee(shape.Elem.IsInteger(), "iota of %v", shape)
	return &Iota{vectorBase: newVectorBase(shape)}
}

func (*Iota) Name() string { return "Iota" }

// Unary is a lane-wise unary operation.
type Unary struct {
	vectorBase
	Op optable.ArithOp
}

// NewUnary returns op(v).
func NewUnary(op optable.ArithOp, v graph.Node) *Unary {
	fault.Guarantee(op.Arity() == 1, "unary node with op %v", op)
	return &Unary{vectorBase: newVectorBase(mustShape(v), v), Op: op}
}

func (*Unary) Name() string     { return "Unary" }
func (u *Unary) Detail() string { return u.Op.String() }

// Binary is a lane-wise binary operation. On masks only the logical ops
// are allowed.
type Binary struct {
	vectorBase
	Op optable.ArithOp
}

// NewBinary returns x op y.
func NewBinary(op optable.ArithOp, x, y graph.Node) *Binary {
	fault.Guarantee(op.Arity() == 2, "binary node with op %v", op)
	sx, sy := mustShape(x), mustShape(y)
	fault.Guarantee(sx == sy, "binary %v on %v and %v", op, sx, sy)
	return &Binary{vectorBase: newVectorBase(sx, x, y), Op: op}
}

func (*Binary) Name() string     { return "Binary" }
func (b *Binary) Detail() string { return b.Op.String() }

// Ternary is a lane-wise ternary operation (fused multiply-add).
type Ternary struct {
	vectorBase
	Op optable.ArithOp
}

// NewTernary returns op(a, b, c).
func NewTernary(op optable.ArithOp, a, b, c graph.Node) *Ternary {
	fault.Guarantee(op.Arity() == 3, "ternary node with op %v", op)
	s := mustShape(a)
	fault.Guarantee(mustShape(b) == s && mustShape(c) == s, "ternary %v with mismatched shapes", op)
	return &Ternary{vectorBase: newVectorBase(s, a, b, c), Op: op}
}

func (*Ternary) Name() string     { return "Ternary" }
func (t *Ternary) Detail() string { return t.Op.String() }

// Shift shifts every lane by a scalar count. The count is first masked to
// CountBits-1, which lets a widened shift keep the count semantics of the
// narrower lane.
type Shift struct {
	vectorBase
	Op        optable.ShiftOp
	CountBits int
}

// NewShift returns v shifted by count with the count masked to the lane
// width of v.
func NewShift(op optable.ShiftOp, v, count graph.Node) *Shift {
	s := mustShape(v)
	return NewShiftMasked(op, v, count, s.Elem.Bits())
}

// NewShiftMasked returns v shifted by count & (countBits-1).
func NewShiftMasked(op optable.ShiftOp, v, count graph.Node, countBits int) *Shift {
	s := mustShape(v)
	fault.Guarantee(s.Elem.IsInteger(), "shift of %v", s)
	fault.Guarantee(simd.IsPowerOfTwo(countBits) && countBits <= s.Elem.Bits(), "shift count width %d for %v", countBits, s)
	return &Shift{vectorBase: newVectorBase(s, v, count), Op: op, CountBits: countBits}
}

func (*Shift) Name() string { return "Shift" }
func (s *Shift) Detail() string {
	if s.CountBits != s.shape.Elem.Bits() {
		return fmt.Sprintf("%v,count&%d", s.Op, s.CountBits-1)
	}
	return s.Op.String()
}

// Compare compares lanes with a canonical condition and produces a mask.
type Compare struct {
	vectorBase
	Cond optable.Canonical
}

// NewCompare returns cond(x, y) as a mask in representation repr.
func NewCompare(cond optable.Canonical, x, y graph.Node, repr simd.LogicRepr) *Compare {
	sx, sy := mustShape(x), mustShape(y)
	fault.Guarantee(sx == sy && !sx.IsMask(), "compare on %v and %v", sx, sy)
	fault.Guarantee(repr != simd.ReprUnresolved, "compare with unresolved mask representation")
	shape := simd.Mask(sx.Elem, sx.Lanes).WithRepr(repr)
	return &Compare{vectorBase: newVectorBase(shape, x, y), Cond: cond}
}

func (*Compare) Name() string { return "Compare" }
func (c *Compare) Detail() string {
	return fmt.Sprintf("%v,mirror=%t,negate=%t,unordered=%t", c.Cond.Cond, c.Cond.Mirror, c.Cond.Negate, c.Cond.UnorderedIsTrue)
}

// Blend selects lanes of True where the mask is set and lanes of False
// elsewhere. The false operand comes first, like blend instructions.
type Blend struct {
	vectorBase
}

// NewBlend returns the lane-wise selection mask ? trueV : falseV.
func NewBlend(falseV, trueV, mask graph.Node) *Blend {
	s := mustShape(falseV)
	fault.Guarantee(mustShape(trueV) == s, "blend of %v and %v", s, mustShape(trueV))
	mustMask(mask, s.Lanes)
	return &Blend{vectorBase: newVectorBase(s, falseV, trueV, mask)}
}

func (*Blend) Name() string { return "Blend" }

// Convert converts lanes to another element kind. When the result has
// fewer lanes only the low lanes are converted; when it has more, the
// extra lanes are zero.
type Convert struct {
	vectorBase
	Op optable.ConvertOp
}

// NewConvert returns v converted to shape to.
func NewConvert(op optable.ConvertOp, to simd.Shape, v graph.Node) *Convert {
	from := mustShape(v)
	fault.Guarantee(!from.IsMask() && !to.IsMask(), "convert %v from %v to %v", op, from, to)
	return &Convert{vectorBase: newVectorBase(to, v), Op: op}
}

func (*Convert) Name() string     { return "Convert" }
func (c *Convert) Detail() string { return c.Op.String() }

// Reinterpret reuses the bits of a vector as another shape of the same
// size, lane 0 in the lowest bits.
type Reinterpret struct {
	vectorBase
}

// NewReinterpret returns the bits of v viewed as shape to.
func NewReinterpret(to simd.Shape, v graph.Node) *Reinterpret {
	from := mustShape(v)
	fault.Guarantee(!from.IsMask() && !to.IsMask(), "reinterpret from %v to %v", from, to)
	fault.Guarantee(from.Bytes() == to.Bytes(), "reinterpret %v to %v changes the size", from, to)
	return &Reinterpret{vectorBase: newVectorBase(to, v)}
}

func (*Reinterpret) Name() string { return "Reinterpret" }

// Permute rearranges lanes: lane i of the result is lane
// indices[i] & (lanes-1) of v.
type Permute struct {
	vectorBase
}

// NewPermute returns v rearranged by indices.
func NewPermute(v, indices graph.Node) *Permute {
	s, si := mustShape(v), mustShape(indices)
	fault.Guarantee(simd.IsPowerOfTwo(s.Lanes), "permute of %d lanes", s.Lanes)
	fault.Guarantee(si.Elem.IsInteger() && si.Lanes == s.Lanes, "permute of %v by %v", s, si)
	return &Permute{vectorBase: newVectorBase(s, v, indices)}
}

func (*Permute) Name() string { return "Permute" }

// Compress packs the selected lanes of v into the low lanes; Expand
// spreads the low lanes of v to the selected positions. Other lanes are
// zero.
type Compress struct {
	vectorBase
	Op optable.CompressOp
}

// NewCompress returns compress or expand of v under mask.
func NewCompress(op optable.CompressOp, v, mask graph.Node) *Compress {
	s := mustShape(v)
	mustMask(mask, s.Lanes)
	return &Compress{vectorBase: newVectorBase(s, v, mask), Op: op}
}

func (*Compress) Name() string     { return "Compress" }
func (c *Compress) Detail() string { return c.Op.String() }

// Insert replaces one lane with the low bits of a scalar.
type Insert struct {
	vectorBase
	Index int
}

// NewInsert returns v with lane index set to x.
func NewInsert(v graph.Node, index int, x graph.Node) *Insert {
	s := mustShape(v)
	fault.Guarantee(index >= 0 && index < s.Lanes, "insert at lane %d of %v", index, s)
	return &Insert{vectorBase: newVectorBase(s, v, x), Index: index}
}

func (*Insert) Name() string     { return "Insert" }
func (i *Insert) Detail() string { return fmt.Sprint(i.Index) }

// Extract reads the raw bits of one lane into a 64-bit scalar; float lanes
// keep their bit pattern.
type Extract struct {
	graph.Base
	Index int
}

// NewExtract returns lane index of v.
func NewExtract(v graph.Node, index int) *Extract {
	s := mustShape(v)
	fault.Guarantee(index >= 0 && index < s.Lanes, "extract of lane %d of %v", index, s)
	return &Extract{Base: graph.NewBase(v), Index: index}
}

func (*Extract) Name() string       { return "Extract" }
func (*Extract) Stamp() graph.Stamp { return graph.PrimitiveStamp{Kind: simd.Int64} }
func (e *Extract) Detail() string   { return fmt.Sprint(e.Index) }

// MaskConvert changes the representation of a mask, or the element kind it
// selects, keeping the lane count and the selected lanes.
type MaskConvert struct {
	vectorBase
}

// NewMaskConvert returns mask m as a mask of shape to.
func NewMaskConvert(m graph.Node, to simd.Shape) *MaskConvert {
	s := mustShape(m)
	fault.Guarantee(s.IsMask() && to.IsMask() && s.Lanes == to.Lanes, "mask conversion of %v to %v", s, to)
	fault.Guarantee(to.Repr != simd.ReprUnresolved, "mask conversion to unresolved %v", to)
	return &MaskConvert{vectorBase: newVectorBase(to, m)}
}

func (*MaskConvert) Name() string     { return "MaskConvert" }
func (m *MaskConvert) Detail() string { return m.shape.String() }

// BitsToMask builds a mask whose lane i is bit i of a 64-bit scalar.
type BitsToMask struct {
	vectorBase
}

// NewBitsToMask returns the mask of shape selected by the bits of x.
func NewBitsToMask(shape simd.Shape, x graph.Node) *BitsToMask {
	fault.Guarantee(shape.IsMask() && shape.Repr != simd.ReprUnresolved && shape.Lanes <= 64, "bits to mask %v", shape)
	return &BitsToMask{vectorBase: newVectorBase(shape, x)}
}

func (*BitsToMask) Name() string { return "BitsToMask" }

// MaskReduce reduces a mask to a 64-bit integer.
type MaskReduce struct {
	graph.Base
	Op optable.MaskReduceOp
}

// NewMaskReduce returns op(m).
func NewMaskReduce(op optable.MaskReduceOp, m graph.Node) *MaskReduce {
	mustMask(m, mustShape(m).Lanes)
	return &MaskReduce{Base: graph.NewBase(m), Op: op}
}

func (*MaskReduce) Name() string       { return "MaskReduce" }
func (*MaskReduce) Stamp() graph.Stamp { return graph.PrimitiveStamp{Kind: simd.Int64} }
func (m *MaskReduce) Detail() string   { return m.Op.String() }

// MaskTest tests a mask and produces a boolean.
type MaskTest struct {
	graph.Base
	Op optable.MaskTestOp
}

// NewMaskTest returns op(m).
func NewMaskTest(op optable.MaskTestOp, m graph.Node) *MaskTest {
	mustMask(m, mustShape(m).Lanes)
	return &MaskTest{Base: graph.NewBase(m), Op: op}
}

func (*MaskTest) Name() string       { return "MaskTest" }
func (*MaskTest) Stamp() graph.Stamp { return graph.PrimitiveStamp{Kind: simd.Logic} }
func (m *MaskTest) Detail() string   { return m.Op.String() }

// Reduce folds all lanes with an associative op into the raw bits of a
// 64-bit scalar.
type Reduce struct {
	graph.Base
	Op optable.ArithOp
}

// NewReduce returns the op-reduction of v.
func NewReduce(op optable.ArithOp, v graph.Node) *Reduce {
	s := mustShape(v)
	fault.Guarantee(!s.IsMask(), "reduction of mask %v", s)
	return &Reduce{Base: graph.NewBase(v), Op: op}
}

func (*Reduce) Name() string       { return "Reduce" }
func (*Reduce) Stamp() graph.Stamp { return graph.PrimitiveStamp{Kind: simd.Int64} }
func (r *Reduce) Detail() string   { return r.Op.String() }

// Read loads a vector from an array at a lane offset.
type Read struct {
	fixedVectorBase
}

// NewRead returns the load of shape from array at offset.
func NewRead(shape simd.Shape, array, offset graph.Node) *Read {
	fault.Guarantee(shape.Resolved() && !shape.IsMask(), "read of %v", shape)
	return &Read{fixedVectorBase{FixedBase: graph.NewFixedBase(array, offset), shape: shape}}
}

func (*Read) Name() string { return "Read" }

// MaskedRead loads only the lanes selected by a mask. Lanes outside the
// mask are not accessed and hold unspecified values.
type MaskedRead struct {
	fixedVectorBase
}

// NewMaskedRead returns the masked load of shape from array at offset.
func NewMaskedRead(shape simd.Shape, array, offset, mask graph.Node) *MaskedRead {
	fault.Guarantee(shape.Resolved() && !shape.IsMask(), "masked read of %v", shape)
	mustMask(mask, shape.Lanes)
	return &MaskedRead{fixedVectorBase{FixedBase: graph.NewFixedBase(array, offset, mask), shape: shape}}
}

func (*MaskedRead) Name() string { return "MaskedRead" }

// Write stores a vector to an array at a lane offset.
type Write struct {
	graph.FixedBase
}

// NewWrite returns the store of v to array at offset.
func NewWrite(array, offset, v graph.Node) *Write {
	mustShape(v)
	return &Write{FixedBase: graph.NewFixedBase(array, offset, v)}
}

func (*Write) Name() string       { return "Write" }
func (*Write) Stamp() graph.Stamp { return graph.VoidStamp{} }

// MaskedWrite stores only the lanes selected by a mask.
type MaskedWrite struct {
	graph.FixedBase
}

// NewMaskedWrite returns the masked store of v to array at offset.
func NewMaskedWrite(array, offset, v, mask graph.Node) *MaskedWrite {
	mustMask(mask, mustShape(v).Lanes)
	return &MaskedWrite{FixedBase: graph.NewFixedBase(array, offset, v, mask)}
}

func (*MaskedWrite) Name() string       { return "MaskedWrite" }
func (*MaskedWrite) Stamp() graph.Stamp { return graph.VoidStamp{} }

// Box allocates a vector API object holding a SIMD value.
type Box struct {
	graph.FixedBase
	Class graph.Class
}

// NewBox returns an object of class c holding v.
func NewBox(c graph.Class, v graph.Node) *Box {
	mustShape(v)
	return &Box{FixedBase: graph.NewFixedBase(v), Class: c}
}

func (*Box) Name() string         { return "Box" }
func (b *Box) Stamp() graph.Stamp { return graph.ObjectStamp{Class: b.Class, Exact: true} }
func (b *Box) Detail() string     { return b.Class.Name }

// Unbox reads the SIMD value of a vector API object. It fails on null.
type Unbox struct {
	fixedVectorBase
}

// NewUnbox returns the payload of obj as a value of shape.
func NewUnbox(shape simd.Shape, obj graph.Node) *Unbox {
	fault.Guarantee(shape.Resolved(), "unbox to unresolved shape")
	return &Unbox{fixedVectorBase{FixedBase: graph.NewFixedBase(obj), shape: shape}}
}

func (*Unbox) Name() string { return "Unbox" }
