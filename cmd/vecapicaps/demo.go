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

package main

import (
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
	"github.com/ajroetker/vecapi/vectorapi"
)

// demoMethods builds fresh graphs for a handful of typical vector API
// methods.
func demoMethods() []*graph.Graph {
	return []*graph.Graph{
		saxpy(),
		byteShift(),
		tailCopy(),
		countPositive(),
	}
}

// saxpy computes a*x + y over float lanes loaded from arrays.
func saxpy() *graph.Graph {
	g := graph.New("saxpy")
	b := vectorapi.NewBuilder(g, vectorapi.WithSpecies(simd.Float32, 8))
	a := b.Floats(2, 2, 2, 2, 2, 2, 2, 2)
	x, y := b.ArrayParam(simd.Float32), b.ArrayParam(simd.Float32)
	vx := b.Load(x, b.Int(0), nil)
	vy := b.Load(y, b.Int(0), nil)
	b.Store(y, b.Int(0), b.Ternary(optable.OpFMA, a, vx, vy, nil), nil)
	b.Return(nil)
	return g
}

// byteShift shifts bytes right, which x86 has no instruction for.
func byteShift() *graph.Graph {
	g := graph.New("byteShift")
	b := vectorapi.NewBuilder(g, vectorapi.WithSpecies(simd.Int8, 16))
	b.Return(b.Shift(optable.OpURShift, b.Param(b.VectorClass()), b.Int(3), nil))
	return g
}

// tailCopy copies the last, partial vector of an array.
func tailCopy() *graph.Graph {
	g := graph.New("tailCopy")
	b := vectorapi.NewBuilder(g)
	src, dst := b.ArrayParam(simd.Int32), b.ArrayParam(simd.Int32)
	offset := b.Int(4)
	m := b.IndexPartiallyUpTo(b.Long(4), b.Long(6))
	b.Store(dst, offset, b.Load(src, offset, m), m)
	b.Return(nil)
	return g
}

// countPositive counts the lanes greater than zero.
func countPositive() *graph.Graph {
	g := graph.New("countPositive")
	b := vectorapi.NewBuilder(g)
	zero := b.Ints(0, 0, 0, 0)
	gt := b.Compare(optable.BTGt, b.Param(b.VectorClass()), zero, nil)
	b.Return(b.MaskReduction(optable.OpMaskTrueCount, gt))
	return g
}
