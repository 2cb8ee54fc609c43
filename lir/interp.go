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

package lir

import (
	"github.com/pkg/errors"

	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

// Array is a primitive array in interpreter memory.
type Array struct {
	Elem  simd.Kind
	Lanes []uint64
}

// IntArray returns an array of kind k holding vals.
func IntArray(k simd.Kind, vals ...int64) *Array {
	a := &Array{Elem: k, Lanes: make([]uint64, len(vals))}
	for i, v := range vals {
		a.Lanes[i] = simd.FromInt(k, v)
	}
	return a
}

// FloatArray returns an array of kind k holding vals.
func FloatArray(k simd.Kind, vals ...float64) *Array {
	a := &Array{Elem: k, Lanes: make([]uint64, len(vals))}
	for i, v := range vals {
		a.Lanes[i] = simd.FromFloat(k, v)
	}
	return a
}

// Ints returns the elements as int64 values.
func (a *Array) Ints() []int64 {
	out := make([]int64, len(a.Lanes))
	for i, b := range a.Lanes {
		out[i] = simd.AsInt(a.Elem, b)
	}
	return out
}

// Value is a value computed by the interpreter: a scalar, a SIMD vector, a
// boxed vector API object, an array, or null.
type Value struct {
	// Kind is the scalar kind; Invalid for non-scalars.
	Kind simd.Kind
	Bits uint64

	// Vector is the SIMD value, or the payload of a boxed object.
	Vector *simd.Constant

	// Class is set for boxed objects.
	Class graph.Class
	Boxed bool

	Array *Array
}

// Scalar returns a scalar value.
func Scalar(k simd.Kind, bits uint64) Value { return Value{Kind: k, Bits: simd.Truncate(k, bits)} }

// Int returns an integer scalar value.
func Int(k simd.Kind, v int64) Value { return Scalar(k, simd.FromInt(k, v)) }

// Bool returns a boolean scalar value.
func Bool(b bool) Value { return Scalar(simd.Logic, simd.FromBool(b)) }

// Vec returns a SIMD value.
func Vec(c *simd.Constant) Value { return Value{Vector: c} }

// Boxed returns a vector API object of class c holding v.
func Boxed(c graph.Class, v *simd.Constant) Value { return Value{Vector: v, Class: c, Boxed: true} }

// ArrayValue returns a reference to a.
func ArrayValue(a *Array) Value { return Value{Array: a} }

// Null is the null reference.
var Null = Value{}

// IsNull reports whether v is the null reference.
func (v Value) IsNull() bool {
	return v.Kind == simd.Invalid && v.Vector == nil && v.Array == nil
}

// Int returns a scalar as int64.
func (v Value) Int() int64 { return simd.AsInt(v.Kind, v.Bits) }

// Bool returns a scalar as a boolean.
func (v Value) Bool() bool { return v.Bits != 0 }

// CallFunc implements a method called by an Invoke node.
type CallFunc func(args []Value) (Value, error)

// Interpreter executes graphs made of graph and lir nodes.
type Interpreter struct {
	// Calls implements invoked methods by name. Calling a method not in
	// the map is an error.
	Calls map[string]CallFunc
}

// unspecified fills lanes whose value is undefined, such as masked-off
// lanes of a masked read.
const unspecified = 0xa5a5a5a5a5a5a5a5

// frame holds the state of one execution.
type frame struct {
	in     *Interpreter
	g      *graph.Graph
	args   []Value
	values map[graph.NodeID]Value
	done   graph.NodeSet
}

// Run executes g with the given arguments and returns the value of its
// Return node, or Null if it returns nothing. Arrays passed as arguments
// are modified by writes.
func (in *Interpreter) Run(g *graph.Graph, args ...Value) (Value, error) {
	f := &frame{in: in, g: g, args: args, values: make(map[graph.NodeID]Value)}
	for _, n := range g.Schedule() {
		v, err := f.exec(n)
		if err != nil {
			return Null, errors.Wrapf(err, "%s: v%d %s", g.Name, n.ID(), n.Name())
		}
		if _, ok := n.(*graph.Return); ok {
			return v, nil
		}
		f.set(n, v)
	}
	return Null, nil
}

// Run executes g with a default interpreter.
func Run(g *graph.Graph, args ...Value) (Value, error) {
	var in Interpreter
	return in.Run(g, args...)
}

func (f *frame) set(n graph.Node, v Value) {
	f.values[n.ID()] = v
	f.done.Add(n)
}

// eval returns the value of n, evaluating floating nodes on demand.
func (f *frame) eval(n graph.Node) (Value, error) {
	if n == nil {
		return Null, nil
	}
	if f.done.Has(n) {
		return f.values[n.ID()], nil
	}
	if f.g.IsScheduled(n) {
		return Null, errors.Errorf("v%d %s used before it is scheduled", n.ID(), n.Name())
	}
	v, err := f.exec(n)
	if err != nil {
		return Null, err
	}
	f.set(n, v)
	return v, nil
}

func (f *frame) inputs(n graph.Node) ([]Value, error) {
	vals := make([]Value, len(n.Inputs()))
	for i, in := range n.Inputs() {
		v, err := f.eval(in)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// exec computes n and checks that SIMD results match the shape n
// declares.
func (f *frame) exec(n graph.Node) (Value, error) {
	v, err := f.execNode(n)
	if err != nil || v.Vector == nil || v.Boxed {
		return v, err
	}
	if want, ok := ShapeOf(n); ok && v.Vector.Shape() != want {
		return Null, errors.Errorf("produced %v, want %v", v.Vector.Shape(), want)
	}
	return v, nil
}

func (f *frame) execNode(n graph.Node) (Value, error) {
	if _, ok := n.(*graph.Phi); ok {
		return Null, errors.Errorf("phi v%d: loops are not interpreted", n.ID())
	}
	in, err := f.inputs(n)
	if err != nil {
		return Null, err
	}
	switch n := n.(type) {
	case *graph.Const:
		return Scalar(n.Kind, n.Bits), nil
	case *graph.Param:
		if n.Index >= len(f.args) {
			return Null, errors.Errorf("missing argument %d", n.Index)
		}
		return f.args[n.Index], nil
	case *graph.Null, *graph.ClassConst:
		return Null, nil
	case *graph.ObjectConst:
		return Boxed(n.Class, n.Value), nil
	case *graph.Proxy:
		return in[0], nil
	case *graph.Arith:
		r, ok := n.Op.Apply2(n.Kind, in[0].Bits, in[1].Bits)
		if !ok {
			return Null, errors.New("division by zero")
		}
		return Scalar(n.Kind, r), nil
	case *graph.Cmp:
		return Bool(n.Cond.Compare(n.Kind, in[0].Bits, in[1].Bits)), nil
	case *graph.ArrayLength:
		if in[0].Array == nil {
			return Null, errors.New("null array")
		}
		return Int(simd.Int32, int64(len(in[0].Array.Lanes))), nil
	case *graph.Guard:
		if !in[0].Bool() {
			return Null, errors.Errorf("guard %q failed", n.Reason)
		}
		return Null, nil
	case *graph.Invoke:
		call, ok := f.in.Calls[n.Method]
		if !ok {
			return Null, errors.Errorf("no implementation for call to %s", n.Method)
		}
		return call(in)
	case *graph.Return:
		if len(in) == 0 {
			return Null, nil
		}
		return in[0], nil
	case *Box:
		return Boxed(n.Class, in[0].Vector), nil
	case *Unbox:
		if !in[0].Boxed {
			return Null, errors.New("unboxing null")
		}
		return Vec(simd.FromBits(n.shape, in[0].Vector.RawLanes())), nil
	case *Read:
		return f.read(n.shape, in[0], in[1], nil)
	case *MaskedRead:
		return f.read(n.shape, in[0], in[1], in[2].Vector)
	case *Write:
		return Null, f.write(in[0], in[1], in[2].Vector, nil)
	case *MaskedWrite:
		return Null, f.write(in[0], in[1], in[2].Vector, in[3].Vector)
	}
	return f.compute(n, in)
}

// compute evaluates the pure SIMD nodes.
func (f *frame) compute(n graph.Node, in []Value) (Value, error) {
	switch n := n.(type) {
	case *Constant:
		return Vec(n.Value), nil
	case *Broadcast:
		if n.shape.IsMask() {
			return Vec(simd.Broadcast(n.shape, simd.FromBool(in[0].Bits != 0))), nil
		}
		return Vec(simd.Broadcast(n.shape, in[0].Bits)), nil
	case *Iota:
		return Vec(simd.Generate(n.shape, func(i int) uint64 { return uint64(i) })), nil
	case *Unary:
		v := in[0].Vector
		return Vec(simd.Generate(n.shape, func(i int) uint64 { return n.Op.Apply1(n.shape.Elem, v.Bits(i)) })), nil
	case *Binary:
		x, y := in[0].Vector, in[1].Vector
		k := n.shape.Elem
		var divByZero bool
		r := simd.Generate(n.shape, func(i int) uint64 {
			r, ok := n.Op.Apply2(k, x.Bits(i), y.Bits(i))
			divByZero = divByZero || !ok
			return r
		})
		if divByZero {
			return Null, errors.New("division by zero")
		}
		return Vec(r), nil
	case *Ternary:
		a, b, c := in[0].Vector, in[1].Vector, in[2].Vector
		return Vec(simd.Generate(n.shape, func(i int) uint64 {
			return n.Op.Apply3(n.shape.Elem, a.Bits(i), b.Bits(i), c.Bits(i))
		})), nil
	case *Shift:
		v := in[0].Vector
		count := in[1].Int() & int64(n.CountBits-1)
		return Vec(simd.Generate(n.shape, func(i int) uint64 { return n.Op.Apply(n.shape.Elem, v.Bits(i), count) })), nil
	case *Compare:
		x, y := in[0].Vector, in[1].Vector
		k := x.Shape().Elem
		return Vec(simd.Generate(n.shape, func(i int) uint64 {
			return simd.FromBool(n.Cond.Eval(k, x.Bits(i), y.Bits(i)))
		})), nil
	case *Blend:
		falseV, trueV, mask := in[0].Vector, in[1].Vector, in[2].Vector
		return Vec(simd.Generate(n.shape, func(i int) uint64 {
			if mask.Bool(i) {
				return trueV.Bits(i)
			}
			return falseV.Bits(i)
		})), nil
	case *Convert:
		v := in[0].Vector
		from := v.Shape().Elem
		return Vec(simd.Generate(n.shape, func(i int) uint64 {
			if i >= v.Len() {
				return 0
			}
			return n.Op.Apply(from, n.shape.Elem, v.Bits(i))
		})), nil
	case *Reinterpret:
		return Vec(Reinterpreted(in[0].Vector, n.shape)), nil
	case *Permute:
		v, idx := in[0].Vector, in[1].Vector
		wrap := uint64(n.shape.Lanes - 1)
		return Vec(simd.Generate(n.shape, func(i int) uint64 { return v.Bits(int(idx.Bits(i) & wrap)) })), nil
	case *Compress:
		return Vec(CompressLanes(n.Op, in[0].Vector, in[1].Vector.BoolLanes())), nil
	case *Insert:
		v, x := in[0].Vector, in[1].Bits
		return Vec(simd.Generate(n.shape, func(i int) uint64 {
			if i == n.Index {
				return x
			}
			return v.Bits(i)
		})), nil
	case *Extract:
		v := in[0].Vector
		return coerced(v.Shape().Elem, v.Bits(n.Index)), nil
	case *MaskConvert:
		return Vec(simd.FromBits(n.shape, in[0].Vector.RawLanes())), nil
	case *BitsToMask:
		b := in[0].Bits
		return Vec(simd.Generate(n.shape, func(i int) uint64 { return (b >> i) & 1 })), nil
	case *MaskReduce:
		return Int(simd.Int64, n.Op.Apply(in[0].Vector.BoolLanes())), nil
	case *MaskTest:
		return Bool(n.Op.Apply(in[0].Vector.BoolLanes())), nil
	case *Reduce:
		v := in[0].Vector
		return coerced(v.Shape().Elem, n.Op.Reduce(v.Shape().Elem, v.RawLanes())), nil
	}
	return Null, errors.Errorf("cannot interpret %s", n.Name())
}

// coerced widens a lane of kind k to the Int64 carrier of coerced scalar
// results: integers by value, floats by raw bits.
func coerced(k simd.Kind, bits uint64) Value {
	if k.IsFloat() {
		return Scalar(simd.Int64, bits)
	}
	return Int(simd.Int64, simd.AsInt(k, bits))
}

func (f *frame) read(shape simd.Shape, array, offset Value, mask *simd.Constant) (Value, error) {
	a := array.Array
	if a == nil {
		return Null, errors.New("null array")
	}
	off := int(offset.Int())
	lanes := make([]uint64, shape.Lanes)
	for i := range lanes {
		if mask != nil && !mask.Bool(i) {
			lanes[i] = unspecified
			continue
		}
		if off+i < 0 || off+i >= len(a.Lanes) {
			return Null, errors.Errorf("index %d out of bounds for length %d", off+i, len(a.Lanes))
		}
		lanes[i] = a.Lanes[off+i]
	}
	return Vec(simd.FromBits(shape, lanes)), nil
}

func (f *frame) write(array, offset Value, v, mask *simd.Constant) error {
	a := array.Array
	if a == nil {
		return errors.New("null array")
	}
	off := int(offset.Int())
	for i := range v.Len() {
		if mask != nil && !mask.Bool(i) {
			continue
		}
		if off+i < 0 || off+i >= len(a.Lanes) {
			return errors.Errorf("index %d out of bounds for length %d", off+i, len(a.Lanes))
		}
		a.Lanes[off+i] = simd.Truncate(a.Elem, v.Bits(i))
	}
	return nil
}

// Reinterpreted returns the bits of c viewed as shape to. Lane 0 occupies
// the lowest bits; both shapes must have the same size.
func Reinterpreted(c *simd.Constant, to simd.Shape) *simd.Constant {
	fromBits := c.Shape().LaneBits()
	toBits := to.LaneBits()
	bit := func(i int) uint64 {
		return (c.Bits(i/fromBits) >> (i % fromBits)) & 1
	}
	return simd.Generate(to, func(lane int) uint64 {
		var v uint64
		for b := range toBits {
			v |= bit(lane*toBits+b) << b
		}
		return v
	})
}

// CompressLanes packs (Compress) or spreads (Expand) the lanes of v
// selected by mask. Unselected result lanes are zero.
func CompressLanes(op optable.CompressOp, v *simd.Constant, mask []bool) *simd.Constant {
	out := make([]uint64, v.Len())
	j := 0
	for i, set := range mask {
		if !set {
			continue
		}
		switch op {
		case optable.Compress:
			out[j] = v.Bits(i)
		case optable.Expand:
			out[i] = v.Bits(j)
		}
		j++
	}
	return simd.FromBits(v.Shape(), out)
}
