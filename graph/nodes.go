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
	"fmt"
	"strconv"

	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

// Const is a scalar constant.
type Const struct {
	Base
	Kind simd.Kind
	Bits uint64
}

// NewInt returns an integer constant of kind k.
func NewInt(k simd.Kind, v int64) *Const {
	return &Const{Kind: k, Bits: simd.FromInt(k, v)}
}

// NewFloat returns a float constant of kind k.
func NewFloat(k simd.Kind, v float64) *Const {
	return &Const{Kind: k, Bits: simd.FromFloat(k, v)}
}

// NewBool returns a boolean constant.
func NewBool(v bool) *Const {
	return &Const{Kind: simd.Logic, Bits: simd.FromBool(v)}
}

func (c *Const) Name() string { return "Const" }
func (c *Const) Stamp() Stamp { return PrimitiveStamp{Kind: c.Kind} }
func (c *Const) Int() int64   { return simd.AsInt(c.Kind, c.Bits) }
func (c *Const) Bool() bool   { return c.Bits != 0 }

func (c *Const) Detail() string {
	switch {
	case c.Kind.IsLogic():
		return strconv.FormatBool(c.Bool())
	case c.Kind.IsFloat():
		return strconv.FormatFloat(simd.AsFloat(c.Kind, c.Bits), 'g', -1, 64)
	}
	return fmt.Sprintf("%d:%v", c.Int(), c.Kind)
}

// IntValue returns the value of n if it is an integer constant.
func IntValue(n Node) (int64, bool) {
	c, ok := n.(*Const)
	if !ok || !c.Kind.IsInteger() {
		return 0, false
	}
	return c.Int(), true
}

// Param is a method parameter.
type Param struct {
	Base
	Index int
	stamp Stamp
}

// NewParam returns the parameter at index with the given stamp.
func NewParam(index int, stamp Stamp) *Param {
	return &Param{Index: index, stamp: stamp}
}

func (p *Param) Name() string   { return "Param" }
func (p *Param) Stamp() Stamp   { return p.stamp }
func (p *Param) Detail() string { return strconv.Itoa(p.Index) }

// Null is the null reference. API calls pass it for absent masks.
type Null struct {
	Base
}

// NewNull returns a null constant.
func NewNull() *Null { return &Null{} }

func (*Null) Name() string { return "Null" }
func (*Null) Stamp() Stamp { return ObjectStamp{Class: Object} }

// IsNull reports whether n is absent or the null constant.
func IsNull(n Node) bool {
	if n == nil {
		return true
	}
	_, ok := n.(*Null)
	return ok
}

// ClassConst is a class token constant.
type ClassConst struct {
	Base
	Class Class
}

// NewClass returns the class token of c.
func NewClass(c Class) *ClassConst { return &ClassConst{Class: c} }

func (c *ClassConst) Name() string   { return "ClassConst" }
func (c *ClassConst) Stamp() Stamp   { return ObjectStamp{Class: ClassOfClass, Exact: true} }
func (c *ClassConst) Detail() string { return c.Class.Name }

// ClassValue returns the class of a class token constant.
func ClassValue(n Node) (Class, bool) {
	c, ok := n.(*ClassConst)
	if !ok {
		return Class{}, false
	}
	return c.Class, true
}

// ObjectConst is a constant vector API object, such as a vector held in a
// static final field.
type ObjectConst struct {
	Base
	Class Class
	Value *simd.Constant
}

// NewObject returns a constant object of concrete class c holding value.
func NewObject(c Class, value *simd.Constant) *ObjectConst {
	shape, ok := c.Shape()
	fault.Guarantee(ok && shape.Compatible(value.Shape()), "object constant %v of class %v", value, c)
	return &ObjectConst{Class: c, Value: value}
}

func (c *ObjectConst) Name() string   { return "ObjectConst" }
func (c *ObjectConst) Stamp() Stamp   { return ObjectStamp{Class: c.Class, Exact: true} }
func (c *ObjectConst) Detail() string { return c.Value.String() }

// Phi merges values at a loop header. Input 0 is the value on loop entry;
// the others arrive over back edges.
type Phi struct {
	Base
	Loop  int
	stamp Stamp
}

// NewPhi returns a phi of loop with the given entry value. Back-edge
// values are added with Graph.AppendInput once they exist.
func NewPhi(loop int, stamp Stamp, init Node) *Phi {
	return &Phi{Base: NewBase(init), Loop: loop, stamp: stamp}
}

func (p *Phi) Name() string   { return "Phi" }
func (p *Phi) Stamp() Stamp   { return p.stamp }
func (p *Phi) Detail() string { return "loop" + strconv.Itoa(p.Loop) }

// WithStamp returns a copy of p with a different stamp and the same
// inputs, for replacing p.
func (p *Phi) WithStamp(s Stamp) *Phi {
	return &Phi{Base: NewBase(p.inputs...), Loop: p.Loop, stamp: s}
}

// Proxy is a value leaving a loop.
type Proxy struct {
	Base
	Loop int
}

// NewProxy returns a proxy of v at the exit of loop.
func NewProxy(loop int, v Node) *Proxy {
	return &Proxy{Base: NewBase(v), Loop: loop}
}

func (p *Proxy) Name() string   { return "Proxy" }
func (p *Proxy) Stamp() Stamp   { return p.inputs[0].Stamp() }
func (p *Proxy) Value() Node    { return p.inputs[0] }
func (p *Proxy) Detail() string { return "loop" + strconv.Itoa(p.Loop) }

// Arith is a scalar arithmetic operation.
type Arith struct {
	Base
	Op   optable.ArithOp
	Kind simd.Kind
}

// NewArith returns x op y on scalars of kind k.
func NewArith(op optable.ArithOp, k simd.Kind, x, y Node) *Arith {
	return &Arith{Base: NewBase(x, y), Op: op, Kind: k}
}

func (a *Arith) Name() string   { return "Arith" }
func (a *Arith) Stamp() Stamp   { return PrimitiveStamp{Kind: a.Kind} }
func (a *Arith) Detail() string { return a.Op.String() }

// Canonical folds constant operands.
func (a *Arith) Canonical(*Graph) Node {
	x, okX := a.inputs[0].(*Const)
	y, okY := a.inputs[1].(*Const)
	if !okX || !okY {
		return a
	}
	r, ok := a.Op.Apply2(a.Kind, x.Bits, y.Bits)
	if !ok {
		return a
	}
	return &Const{Kind: a.Kind, Bits: r}
}

// Cmp is a scalar comparison producing a boolean.
type Cmp struct {
	Base
	Cond optable.Condition
	Kind simd.Kind
}

// NewCmp returns x cond y on scalars of kind k.
func NewCmp(cond optable.Condition, k simd.Kind, x, y Node) *Cmp {
	return &Cmp{Base: NewBase(x, y), Cond: cond, Kind: k}
}

func (c *Cmp) Name() string   { return "Cmp" }
func (c *Cmp) Stamp() Stamp   { return PrimitiveStamp{Kind: simd.Logic} }
func (c *Cmp) Detail() string { return c.Cond.String() }

// Canonical folds constant operands.
func (c *Cmp) Canonical(*Graph) Node {
	x, okX := c.inputs[0].(*Const)
	y, okY := c.inputs[1].(*Const)
	if !okX || !okY {
		return c
	}
	return NewBool(c.Cond.Compare(c.Kind, x.Bits, y.Bits))
}

// ArrayLength is the length of an array.
type ArrayLength struct {
	Base
}

// NewArrayLength returns the length of array.
func NewArrayLength(array Node) *ArrayLength {
	return &ArrayLength{Base: NewBase(array)}
}

func (*ArrayLength) Name() string { return "ArrayLength" }
func (*ArrayLength) Stamp() Stamp { return PrimitiveStamp{Kind: simd.Int32} }

// Guard stops the method with an exception unless its condition holds.
// Memory accesses scheduled after a guard rely on its check.
type Guard struct {
	FixedBase
	Reason string
}

// NewGuard returns a guard on cond.
func NewGuard(reason string, cond Node) *Guard {
	return &Guard{FixedBase: NewFixedBase(cond), Reason: reason}
}

func (g *Guard) Name() string   { return "Guard" }
func (g *Guard) Stamp() Stamp   { return VoidStamp{} }
func (g *Guard) Detail() string { return g.Reason }

// Invoke calls a method.
type Invoke struct {
	FixedBase
	Method string
	stamp  Stamp
}

// NewInvoke returns a call to method with the given arguments.
func NewInvoke(method string, stamp Stamp, args ...Node) *Invoke {
	return &Invoke{FixedBase: NewFixedBase(args...), Method: method, stamp: stamp}
}

func (i *Invoke) Name() string   { return "Invoke" }
func (i *Invoke) Stamp() Stamp   { return i.stamp }
func (i *Invoke) Detail() string { return i.Method }

// Return ends the method, returning its input if any.
type Return struct {
	FixedBase
}

// NewReturn returns v from the method; v may be nil.
func NewReturn(v Node) *Return {
	if v == nil {
		return &Return{}
	}
	return &Return{FixedBase: NewFixedBase(v)}
}

func (*Return) Name() string { return "Return" }
func (*Return) Stamp() Stamp { return VoidStamp{} }

// Result returns the returned value, or nil.
func (r *Return) Result() Node {
	if len(r.inputs) == 0 {
		return nil
	}
	return r.inputs[0]
}
