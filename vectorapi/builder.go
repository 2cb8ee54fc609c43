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
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/simd"
)

// Builder appends operation nodes to a graph, the way a front end does when
// it meets calls into the vector API. All calls operate on one species,
// given by WithSpecies.
type Builder struct {
	g *graph.Graph

	// elem and lanes describe the species.
	elem  simd.Kind
	lanes int

	// token returns the argument passed for a class token.
	token func(g *graph.Graph, c graph.Class) graph.Node

	ints    map[int64]graph.Node
	classes map[graph.Class]graph.Node
	null    graph.Node
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSpecies sets the element kind and lane count of the built calls.
func WithSpecies(elem simd.Kind, lanes int) BuilderOption {
	return func(b *Builder) {
		b.elem = elem
		b.lanes = lanes
	}
}

// WithClassTokens replaces how class token arguments are produced. By
// default they are class constants; a front end that could not prove the
// class passes some other value.
func WithClassTokens(token func(g *graph.Graph, c graph.Class) graph.Node) BuilderOption {
	return func(b *Builder) {
		b.token = token
	}
}

// NewBuilder returns a builder adding to g, for 4 int lanes unless
// configured otherwise.
func NewBuilder(g *graph.Graph, opts ...BuilderOption) *Builder {
	b := &Builder{
		g:       g,
		elem:    simd.Int32,
		lanes:   4,
		ints:    make(map[int64]graph.Node),
		classes: make(map[graph.Class]graph.Node),
	}
	b.token = func(g *graph.Graph, c graph.Class) graph.Node { return graph.Add(g, graph.NewClass(c)) }
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Graph returns the graph being built.
func (b *Builder) Graph() *graph.Graph { return b.g }

// Shape returns the shape of the species' vectors.
func (b *Builder) Shape() simd.Shape { return simd.Vector(b.elem, b.lanes) }

func (b *Builder) VectorClass() graph.Class  { return graph.VectorClass(b.elem, b.lanes) }
func (b *Builder) MaskClass() graph.Class    { return graph.MaskClass(b.elem, b.lanes) }
func (b *Builder) ShuffleClass() graph.Class { return graph.ShuffleClass(b.elem, b.lanes) }

// Int returns a constant int argument.
func (b *Builder) Int(v int64) graph.Node {
	if n, ok := b.ints[v]; ok {
		return n
	}
	n := graph.Add(b.g, graph.NewInt(simd.Int32, v))
	b.ints[v] = n
	return n
}

// Long returns a constant long argument.
func (b *Builder) Long(v int64) graph.Node {
	return graph.Add(b.g, graph.NewInt(simd.Int64, v))
}

// Class returns the token argument for class c.
func (b *Builder) Class(c graph.Class) graph.Node {
	if n, ok := b.classes[c]; ok {
		return n
	}
	n := b.token(b.g, c)
	b.classes[c] = n
	return n
}

// Null returns the argument passed for an absent mask.
func (b *Builder) Null() graph.Node {
	if b.null == nil {
		b.null = graph.Add(b.g, graph.NewNull())
	}
	return b.null
}

func (b *Builder) orNull(m graph.Node) graph.Node {
	if m == nil {
		return b.Null()
	}
	return m
}

// Param adds a method parameter holding an object of class c.
func (b *Builder) Param(c graph.Class) *graph.Param {
	return graph.Add(b.g, graph.NewParam(len(b.g.Params()), graph.ObjectStamp{Class: c, Exact: !c.IsAbstract()}))
}

// ScalarParam adds a method parameter holding a scalar of kind k.
func (b *Builder) ScalarParam(k simd.Kind) *graph.Param {
	return graph.Add(b.g, graph.NewParam(len(b.g.Params()), graph.PrimitiveStamp{Kind: k}))
}

// ArrayParam adds a method parameter holding an array of kind k.
func (b *Builder) ArrayParam(k simd.Kind) *graph.Param {
	return graph.Add(b.g, graph.NewParam(len(b.g.Params()), graph.ArrayStamp{Elem: k}))
}

// Vector adds a constant vector, mask or shuffle object.
func (b *Builder) Vector(c graph.Class, v *simd.Constant) *graph.ObjectConst {
	return graph.Add(b.g, graph.NewObject(c, v))
}

// Ints adds a constant vector of the species' class.
func (b *Builder) Ints(vals ...int64) *graph.ObjectConst {
	return b.Vector(graph.VectorClass(b.elem, len(vals)), simd.Ints(b.elem, vals...))
}

// Floats adds a constant float vector of the species' class.
func (b *Builder) Floats(vals ...float64) *graph.ObjectConst {
	return b.Vector(graph.VectorClass(b.elem, len(vals)), simd.Floats(b.elem, vals...))
}

// Bools adds a constant mask of the species' mask class.
func (b *Builder) Bools(vals ...bool) *graph.ObjectConst {
	return b.Vector(graph.MaskClass(b.elem, len(vals)), simd.Bools(b.elem, vals...))
}

// Return ends the method, returning v.
func (b *Builder) Return(v graph.Node) *graph.Return {
	return graph.AddFixed(b.g, graph.NewReturn(v))
}

func (b *Builder) vector() graph.Class { return graph.AbstractVector(b.elem) }
func (b *Builder) mask() graph.Class   { return graph.AbstractMask(b.elem) }

func (b *Builder) species(c graph.Class) []graph.Node {
	return []graph.Node{b.Class(c), b.Class(b.MaskClass()), b.Class(graph.ElementClass(b.elem)), b.Int(int64(b.lanes))}
}

func (b *Builder) args(head []graph.Node, rest ...graph.Node) []graph.Node {
	return append(head, rest...)
}

// Unary adds unaryOp(opcode, v, m). A nil m means unmasked.
func (b *Builder) Unary(opcode int, v, m graph.Node) *Unary {
	args := b.args([]graph.Node{b.Int(int64(opcode))}, b.species(b.VectorClass())...)
	return graph.AddFixed(b.g, NewUnary(b.vector(), b.args(args, v, b.orNull(m))...))
}

// Binary adds binaryOp(opcode, x, y, m).
func (b *Builder) Binary(opcode int, x, y, m graph.Node) *Binary {
	args := b.args([]graph.Node{b.Int(int64(opcode))}, b.species(b.VectorClass())...)
	return graph.AddFixed(b.g, NewBinary(b.vector(), b.args(args, x, y, b.orNull(m))...))
}

// MaskBinary adds binaryOp(opcode, x, y) on two masks.
func (b *Builder) MaskBinary(opcode int, x, y graph.Node) *Binary {
	args := b.args([]graph.Node{b.Int(int64(opcode))}, b.species(b.MaskClass())...)
	return graph.AddFixed(b.g, NewBinary(b.mask(), b.args(args, x, y, b.Null())...))
}

// Ternary adds ternaryOp(opcode, x, y, z, m).
func (b *Builder) Ternary(opcode int, x, y, z, m graph.Node) *Ternary {
	args := b.args([]graph.Node{b.Int(int64(opcode))}, b.species(b.VectorClass())...)
	return graph.AddFixed(b.g, NewTernary(b.vector(), b.args(args, x, y, z, b.orNull(m))...))
}

// Shift adds broadcastInt(opcode, v, count, m).
func (b *Builder) Shift(opcode int, v, count, m graph.Node) *Shift {
	args := b.args([]graph.Node{b.Int(int64(opcode))}, b.species(b.VectorClass())...)
	return graph.AddFixed(b.g, NewShift(b.vector(), b.args(args, v, count, b.orNull(m))...))
}

// Compare adds compare(cond, x, y, m).
func (b *Builder) Compare(cond int, x, y, m graph.Node) *Compare {
	args := b.args([]graph.Node{b.Int(int64(cond))}, b.species(b.VectorClass())...)
	return graph.AddFixed(b.g, NewCompare(b.mask(), b.args(args, x, y, b.orNull(m))...))
}

// Blend adds blend(f, t, m).
func (b *Builder) Blend(f, t, m graph.Node) *Blend {
	return graph.AddFixed(b.g, NewBlend(b.vector(), b.args(b.species(b.VectorClass()), f, t, m)...))
}

// Rearrange adds rearrangeOp(v, shuffle, m).
func (b *Builder) Rearrange(v, shuffle, m graph.Node) *Rearrange {
	args := []graph.Node{
		b.Class(b.VectorClass()), b.Class(b.ShuffleClass()), b.Class(b.MaskClass()),
		b.Class(graph.ElementClass(b.elem)), b.Int(int64(b.lanes)),
		v, shuffle, b.orNull(m),
	}
	return graph.AddFixed(b.g, NewRearrange(b.vector(), args...))
}

// CompressExpand adds compressExpandOp(opcode, v, m).
func (b *Builder) CompressExpand(opcode int, v, m graph.Node) *CompressExpand {
	args := b.args([]graph.Node{b.Int(int64(opcode))}, b.species(b.VectorClass())...)
	return graph.AddFixed(b.g, NewCompressExpand(b.vector(), b.args(args, v, m)...))
}

// Insert adds insert(v, i, x).
func (b *Builder) Insert(v graph.Node, i int, x graph.Node) *Insert {
	args := []graph.Node{b.Class(b.VectorClass()), b.Class(graph.ElementClass(b.elem)), b.Int(int64(b.lanes)), v, b.Int(int64(i)), x}
	return graph.AddFixed(b.g, NewInsert(b.vector(), args...))
}

// Extract adds extract(v, i).
func (b *Builder) Extract(v graph.Node, i int) *Extract {
	args := []graph.Node{b.Class(b.VectorClass()), b.Class(graph.ElementClass(b.elem)), b.Int(int64(b.lanes)), v, b.Int(int64(i))}
	return graph.AddFixed(b.g, NewExtract(b.vector(), args...))
}

// Convert adds convert(opcode, v) from the species to vectors of kind to
// with the given lane count.
func (b *Builder) Convert(opcode int, v graph.Node, to simd.Kind, lanes int) *Convert {
	args := []graph.Node{
		b.Int(int64(opcode)), b.Class(graph.ElementClass(b.elem)), b.Int(int64(b.lanes)),
		b.Class(graph.VectorClass(to, lanes)), b.Class(graph.ElementClass(to)), b.Int(int64(lanes)),
		v, b.Int(0),
	}
	return graph.AddFixed(b.g, NewConvert(graph.AbstractVector(to), args...))
}

// FromBits adds fromBitsCoerced(bits, mode) producing a vector, or a mask
// if mask is set.
func (b *Builder) FromBits(bits graph.Node, mode int, mask bool) *FromBits {
	c, declared := b.VectorClass(), b.vector()
	if mask {
		c, declared = b.MaskClass(), b.mask()
	}
	args := []graph.Node{b.Class(c), b.Class(graph.ElementClass(b.elem)), b.Int(int64(b.lanes)), bits, b.Int(int64(mode))}
	return graph.AddFixed(b.g, NewFromBits(declared, args...))
}

// IndexPartiallyUpTo adds indexPartiallyUpTo(offset, limit).
func (b *Builder) IndexPartiallyUpTo(offset, limit graph.Node) *IndexPartiallyUpTo {
	args := []graph.Node{b.Class(b.MaskClass()), b.Class(graph.ElementClass(b.elem)), b.Int(int64(b.lanes)), offset, limit}
	return graph.AddFixed(b.g, NewIndexPartiallyUpTo(b.mask(), args...))
}

// Load adds load(array, offset, m).
func (b *Builder) Load(array, offset, m graph.Node) *Load {
	return graph.AddFixed(b.g, NewLoad(b.vector(), b.args(b.species(b.VectorClass()), array, offset, b.orNull(m))...))
}

// Store adds store(array, offset, v, m).
func (b *Builder) Store(array, offset, v, m graph.Node) *Store {
	return graph.AddFixed(b.g, NewStore(b.vector(), b.args(b.species(b.VectorClass()), array, offset, v, b.orNull(m))...))
}

// MaskTest adds test(cond, m).
func (b *Builder) MaskTest(cond int, m graph.Node) *MaskTest {
	args := []graph.Node{b.Int(int64(cond)), b.Class(b.MaskClass()), b.Class(graph.ElementClass(b.elem)), b.Int(int64(b.lanes)), m}
	return graph.AddFixed(b.g, NewMaskTest(b.mask(), args...))
}

// MaskReduction adds maskReductionCoerced(opcode, m).
func (b *Builder) MaskReduction(opcode int, m graph.Node) *MaskReduction {
	args := []graph.Node{b.Int(int64(opcode)), b.Class(b.MaskClass()), b.Class(graph.ElementClass(b.elem)), b.Int(int64(b.lanes)), m}
	return graph.AddFixed(b.g, NewMaskReduction(b.mask(), args...))
}

// Reduction adds reductionCoerced(opcode, v, m).
func (b *Builder) Reduction(opcode int, v, m graph.Node) *Reduction {
	args := b.args([]graph.Node{b.Int(int64(opcode))}, b.species(b.VectorClass())...)
	return graph.AddFixed(b.g, NewReduction(b.vector(), b.args(args, v, b.orNull(m))...))
}
