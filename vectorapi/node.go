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

// Package vectorapi implements the operation nodes that stand for calls into
// the portable vector API, and the passes that turn them into SIMD code.
//
// A front end creates one operation node per API call, with the call's
// arguments as inputs: opcode and class tokens first, then the data
// operands, then an optional mask (graph.Null when absent). Refinement
// (Canonical) resolves the node's shape, operation and constant value as
// its arguments become known. Once the target is fixed, ExpansionPhase
// rewrites connected regions of operation nodes into lir nodes, all or
// nothing, and LowerToCalls turns whatever is left into ordinary calls.
package vectorapi

import (
	"fmt"

	"github.com/ajroetker/vecapi/arch"
	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/simd"
)

// Node is a call into the vector API that may be intrinsified.
//
// Nodes are immutable once added: refinement builds a replacement with the
// improved fields, and a resolved shape, operation or exact species is
// never lost by a later replacement.
type Node interface {
	graph.Fixed
	graph.Canonicalizable

	// Method is the API entry point the node stands for.
	Method() string

	// Shape is the lane layout the node computes on, unresolved until its
	// tokens are known. For sinks it is the shape of the consumed vector.
	Shape() simd.Shape

	// Species is the class of the vector the node produces, or consumes for
	// sinks, and whether that class is exact.
	Species() graph.ObjectStamp

	// VectorInputs returns the vector values the node consumes. Absent
	// masks are not included.
	VectorInputs() []graph.Node

	// Constant returns the folded value, or nil.
	Constant() *simd.Constant

	// CanExpand reports whether the target can compute the node, given
	// that all its vector inputs are expanded too.
	CanExpand(o arch.Oracle) bool

	// Expand builds the lir nodes computing the node from the expansions
	// of its vector inputs. It must only be called if CanExpand returned
	// true for the same oracle.
	Expand(e *Expander) graph.Node
}

// Sink is an operation node that produces no vector: a store, a lane
// extraction or a reduction to a scalar.
type Sink interface {
	Node
	sink()
}

type sinkMarker struct{}

func (sinkMarker) sink() {}

// IsSink reports whether n is a sink.
func IsSink(n graph.Node) bool {
	_, ok := n.(Sink)
	return ok
}

// macroBase holds the fields shared by all operation nodes.
type macroBase struct {
	graph.FixedBase
	method   string
	species  graph.ObjectStamp
	shape    simd.Shape
	constant *simd.Constant
}

func newMacroBase(method string, species graph.Class, arity int, args []graph.Node) macroBase {
	fault.Guarantee(len(args) == arity, "%s with %d arguments, want %d", method, len(args), arity)
	for i, a := range args {
		fault.Guarantee(a != nil, "%s: argument %d is missing", method, i)
	}
	return macroBase{
		FixedBase: graph.NewFixedBase(args...),
		method:    method,
		species:   graph.ObjectStamp{Class: species},
	}
}

func (b *macroBase) Name() string                { return b.method }
func (b *macroBase) Method() string              { return b.method }
func (b *macroBase) Shape() simd.Shape           { return b.shape }
func (b *macroBase) Species() graph.ObjectStamp  { return b.species }
func (b *macroBase) Constant() *simd.Constant    { return b.constant }
func (b *macroBase) Stamp() graph.Stamp          { return b.species }
func (b *macroBase) arg(i int) graph.Node        { return b.Input(i) }
func (b *macroBase) resolved() bool              { return b.species.Exact && b.shape.Resolved() }
func (b *macroBase) same(o *macroBase) bool      { return b.species == o.species && b.shape == o.shape && b.constant == o.constant }
func (b *macroBase) detail(op fmt.Stringer) string { return fmt.Sprintf("%v %v", op, b.shape) }

func (b *macroBase) Detail() string {
	if b.constant != nil {
		return b.constant.String()
	}
	return b.shape.String()
}

// renewed returns b detached from any graph, with the inputs of n.
func (b macroBase) renewed(n graph.Node) macroBase {
	b.FixedBase = graph.NewFixedBase(n.Inputs()...)
	return b
}

// refine returns b with its species and shape improved from the class
// token cls, the element class token elem and the lane count token length.
// A non-nil receiver is the vector a type-invariant operation is invoked
// on: the result has the receiver's exact class.
func (b macroBase) refine(cls, receiver, elem, length graph.Node) macroBase {
	if !b.species.Exact {
		if c, ok := exactClass(cls, receiver); ok && c.IsSubclassOf(b.species.Class) {
			b.species = graph.ObjectStamp{Class: c, Exact: true}
		}
	}
	if !b.shape.Resolved() {
		b.shape = shapeFor(b.species, elem, length)
	}
	return b
}

// exactClass returns the concrete class named by the token cls, or else
// the exact concrete class of receiver.
func exactClass(cls, receiver graph.Node) (graph.Class, bool) {
	if c, ok := graph.ClassValue(cls); ok && !c.IsAbstract() && c.IsVectorAPI() {
		return c, true
	}
	if receiver != nil {
		if c, ok := graph.ExactClass(receiver.Stamp()); ok && !c.IsAbstract() {
			return c, true
		}
	}
	return graph.Class{}, false
}

// shapeFor derives a shape from an exact species, or else from the element
// and lane count tokens.
func shapeFor(species graph.ObjectStamp, elem, length graph.Node) simd.Shape {
	if species.Exact {
		if s, ok := species.Class.Shape(); ok {
			return s
		}
	}
	return tokenShape(species.Class.Category, elem, length)
}

// tokenShape builds the shape of a value of category cat from element
// class and lane count tokens.
func tokenShape(cat graph.Category, elem, length graph.Node) simd.Shape {
	e, okE := graph.ClassValue(elem)
	n, okN := graph.IntValue(length)
	if !okE || !okN || e.Category != graph.CategoryElement || n <= 0 || n > 1<<16 {
		return simd.Shape{}
	}
	lanes := int(n)
	switch cat {
	case graph.CategoryVector:
		return simd.Vector(e.Elem, lanes)
	case graph.CategoryMask:
		return simd.Mask(e.Elem, lanes)
	case graph.CategoryShuffle:
		return simd.Vector(e.Elem.SameWidthInt(), lanes)
	}
	return simd.Shape{}
}

// constantOf returns the known lane values of n if their shape is
// compatible with want.
func constantOf(n graph.Node, want simd.Shape) *simd.Constant {
	var c *simd.Constant
	switch n := n.(type) {
	case Node:
		c = n.Constant()
	case *graph.ObjectConst:
		c = n.Value
	}
	if c == nil || !want.Resolved() || !c.Shape().Compatible(want) {
		return nil
	}
	return c
}

// vectorInputs returns the non-null nodes among inputs.
func vectorInputs(inputs ...graph.Node) []graph.Node {
	out := make([]graph.Node, 0, len(inputs))
	for _, in := range inputs {
		if !graph.IsNull(in) {
			out = append(out, in)
		}
	}
	return out
}

// opcode returns the value of a constant opcode argument.
func opcode(n graph.Node) (int, bool) {
	v, ok := graph.IntValue(n)
	return int(v), ok
}

// resolveOp looks up the operation named by the opcode argument opr for
// lanes of kind k, returning the zero op while either is unknown.
func resolveOp[T comparable](lookup func(int, simd.Kind) (T, bool), opr graph.Node, k simd.Kind) T {
	var zero T
	code, ok := opcode(opr)
	if !ok || k == simd.Invalid {
		return zero
	}
	op, ok := lookup(code, k)
	if !ok {
		return zero
	}
	return op
}

// Materializable reports whether the target can load constant c at its
// full width.
func Materializable(o arch.Oracle, c *simd.Constant) bool {
	s := c.Shape()
	if s.IsMask() {
		return o.SupportedMaskLogicLength(s.MaskOf, s.Lanes) == s.Lanes
	}
	return o.SupportedMoveLength(s.Elem, s.Lanes) == s.Lanes
}

// materializable reports whether b folded to a constant the target can
// load directly.
func (b *macroBase) materializable(o arch.Oracle) bool {
	return b.constant != nil && Materializable(o, b.constant)
}

// blendable reports whether an optional mask can be applied to results of
// shape s with a blend.
func blendable(o arch.Oracle, s simd.Shape, mask graph.Node) bool {
	return graph.IsNull(mask) || o.SupportedBlendLength(s.Elem, s.Lanes) == s.Lanes
}
