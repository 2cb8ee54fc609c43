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
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajroetker/vecapi/arch"
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/lir"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

func target(t *testing.T, name string) arch.Oracle {
	t.Helper()
	o, err := arch.Lookup(name)
	require.NoError(t, err)
	return o
}

// expand refines g and runs the expansion phase for the named target.
func expand(t *testing.T, g *graph.Graph, name string) Stats {
	t.Helper()
	canonicalize(t, g)
	return ExpansionPhase{Logger: zaptest.NewLogger(t)}.Run(g, target(t, name))
}

// nodesOf returns the live nodes of g of type T.
func nodesOf[T graph.Node](g *graph.Graph) []T {
	var out []T
	for _, n := range g.Nodes() {
		if m, ok := n.(T); ok {
			out = append(out, m)
		}
	}
	return out
}

var lirPackage = reflect.TypeOf(lir.Constant{}).PkgPath()

// lirNodes counts the live lir nodes of g.
func lirNodes(g *graph.Graph) int {
	count := 0
	for _, n := range g.Nodes() {
		if reflect.TypeOf(n).Elem().PkgPath() == lirPackage {
			count++
		}
	}
	return count
}

func interpret(t *testing.T, g *graph.Graph, args ...lir.Value) lir.Value {
	t.Helper()
	v, err := lir.Run(g, args...)
	require.NoError(t, err, "running\n%s", g)
	return v
}

func TestExpandFoldedConstant(t *testing.T) {
	g := graph.New("add")
	b := NewBuilder(g)
	b.Return(b.Binary(optable.OpAdd, b.Ints(1, 2, 3, 4), b.Ints(10, 20, 30, 40), nil))

	stats := expand(t, g, "avx2")
	require.Equal(t, Stats{Components: 1, Expanded: 1, Nodes: 1}, stats)
	require.Empty(t, nodesOf[Node](g))
	require.Len(t, nodesOf[*lir.Box](g), 1)

	v := interpret(t, g)
	require.True(t, v.Boxed)
	require.Equal(t, b.VectorClass(), v.Class)
	require.Equal(t, []int64{11, 22, 33, 44}, v.Vector.IntLanes())
}

func TestByteShift(t *testing.T) {
	cls := graph.VectorClass(simd.Int8, 16)
	build := func() *graph.Graph {
		g := graph.New("shr")
		b := NewBuilder(g, WithSpecies(simd.Int8, 16))
		b.Return(b.Shift(optable.OpURShift, b.Param(cls), b.Int(3), nil))
		return g
	}
	in := simd.Ints(simd.Int8, -128, 127, 1, 8, -1, 0, 64, 24, -128, 127, 1, 8, -1, 0, 64, 24)
	want := []int64{16, 15, 0, 1, 31, 0, 8, 3, 16, 15, 0, 1, 31, 0, 8, 3}

	t.Run("decomposed on avx512", func(t *testing.T) {
		g := build()
		require.Equal(t, 1, expand(t, g, "avx512").Expanded)

		convs := nodesOf[*lir.Convert](g)
		require.Len(t, convs, 2)
		require.Equal(t, optable.ZeroExtend, convs[0].Op)
		require.Equal(t, simd.Vector(simd.Int16, 16), convs[0].Shape())
		require.Equal(t, optable.Narrow, convs[1].Op)
		require.Equal(t, simd.Vector(simd.Int8, 16), convs[1].Shape())

		shifts := nodesOf[*lir.Shift](g)
		require.Len(t, shifts, 1)
		require.Equal(t, simd.Vector(simd.Int16, 16), shifts[0].Shape())
		require.Equal(t, 8, shifts[0].CountBits)

		v := interpret(t, g, lir.Boxed(cls, in))
		if diff := cmp.Diff(want, v.Vector.IntLanes()); diff != "" {
			t.Errorf("shifted lanes mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("left as a call on avx2", func(t *testing.T) {
		g := build()
		stats := expand(t, g, "avx2")
		require.Equal(t, 0, stats.Expanded)
		require.Zero(t, lirNodes(g))
		require.Equal(t, 1, LowerToCalls(g))
		calls := nodesOf[*graph.Invoke](g)
		require.Len(t, calls, 1)
		require.Equal(t, "broadcastInt", calls[0].Method)
	})
}

func TestCompareMirrored(t *testing.T) {
	g := graph.New("gt")
	b := NewBuilder(g, WithSpecies(simd.Int32, 2))
	x, y := b.Param(b.VectorClass()), b.Param(b.VectorClass())
	b.Return(b.Compare(optable.BTGt, x, y, nil))
	require.Equal(t, 1, expand(t, g, "avx2").Expanded)

	cmps := nodesOf[*lir.Compare](g)
	require.Len(t, cmps, 1)
	require.Equal(t, optable.Canonical{Cond: optable.CanonicalLT, Mirror: true}, cmps[0].Cond)

	v := interpret(t, g, lir.Boxed(b.VectorClass(), simd.Ints(simd.Int32, 5, 1)), lir.Boxed(b.VectorClass(), simd.Ints(simd.Int32, 3, 2)))
	require.Equal(t, b.MaskClass(), v.Class)
	require.Equal(t, []bool{true, false}, v.Vector.BoolLanes())
}

func TestMaskTests(t *testing.T) {
	testCases := []struct {
		name string
		code int
		in   []bool
		want bool
	}{
		{"all true", optable.TestAllTrue, []bool{true, true, true, true}, true},
		{"not all true", optable.TestAllTrue, []bool{true, true, false, true}, false},
		{"any true", optable.TestAnyTrue, []bool{false, false, false, true}, true},
		{"none true", optable.TestAnyTrue, []bool{false, false, false, false}, false},
	}
	for _, tc := range testCases {
		for _, name := range []string{"avx2", "avx512", "sve256"} {
			t.Run(tc.name+"/"+name, func(t *testing.T) {
				g := graph.New(tc.name)
				b := NewBuilder(g)
				b.Return(b.MaskTest(tc.code, b.Param(b.MaskClass())))
				require.Equal(t, 1, expand(t, g, name).Expanded)
				require.Len(t, nodesOf[*lir.MaskTest](g), 1)

				v := interpret(t, g, lir.Boxed(b.MaskClass(), simd.Bools(simd.Int32, tc.in...)))
				require.Equal(t, tc.want, v.Bool())
			})
		}
	}
}

func TestBlockedChainLowersToCalls(t *testing.T) {
	g := graph.New("chain")
	b := NewBuilder(g, WithSpecies(simd.Int8, 16))
	src, dst := b.ArrayParam(simd.Int8), b.ArrayParam(simd.Int8)
	v := b.Load(src, b.Int(0), nil)
	s := b.Shift(optable.OpLShift, v, b.Int(1), nil)
	b.Store(dst, b.Int(0), s, nil)
	b.Return(nil)

	stats := expand(t, g, "avx2")
	require.Equal(t, Stats{Components: 1}, stats)
	require.Zero(t, lirNodes(g))

	require.Equal(t, 3, LowerToCalls(g))
	var methods []string
	for _, n := range g.Schedule() {
		if call, ok := n.(*graph.Invoke); ok {
			methods = append(methods, call.Method)
		}
	}
	require.Equal(t, []string{"load", "broadcastInt", "store"}, methods)
	require.Empty(t, nodesOf[Node](g))
}

func TestUnresolvedComponentIsLeft(t *testing.T) {
	g := graph.New("opaque")
	b := NewBuilder(g, WithClassTokens(opaqueTokens))
	x := b.Param(graph.AbstractVector(simd.Int32))
	b.Return(b.Unary(optable.OpNeg, x, nil))

	stats := expand(t, g, "avx512")
	require.Equal(t, 0, stats.Expanded)
	require.Zero(t, lirNodes(g))
}

func TestEscapingValueBlocksExpansion(t *testing.T) {
	g := graph.New("escape")
	b := NewBuilder(g)
	x := b.Param(b.VectorClass())
	sum := b.Binary(optable.OpAdd, x, x, nil)
	graph.AddFixed(g, graph.NewInvoke("consume", graph.VoidStamp{}, sum))
	b.Return(sum)

	require.Equal(t, 0, expand(t, g, "avx2").Expanded)
	require.Zero(t, lirNodes(g))
}

// TestMaskedLanesKeepFirstOperand checks that every masked lane-wise
// operation selects disabled lanes the same way.
func TestMaskedLanesKeepFirstOperand(t *testing.T) {
	testCases := []struct {
		name  string
		elem  simd.Kind
		build func(b *Builder, x, y, m graph.Node) graph.Node
		x, y  *simd.Constant
		want  []int64
	}{
		{"binary", simd.Int32, func(b *Builder, x, y, m graph.Node) graph.Node {
			return b.Binary(optable.OpAdd, x, y, m)
		}, simd.Ints(simd.Int32, 1, 2, 3, 4), simd.Ints(simd.Int32, 10, 20, 30, 40), []int64{11, 2, 33, 4}},
		{"unary", simd.Int32, func(b *Builder, x, _, m graph.Node) graph.Node {
			return b.Unary(optable.OpNeg, x, m)
		}, simd.Ints(simd.Int32, 1, 2, 3, 4), simd.Ints(simd.Int32, 0, 0, 0, 0), []int64{-1, 2, -3, 4}},
		{"shift", simd.Int32, func(b *Builder, x, _, m graph.Node) graph.Node {
			return b.Shift(optable.OpLShift, x, b.Int(2), m)
		}, simd.Ints(simd.Int32, 1, 2, 3, 4), simd.Ints(simd.Int32, 0, 0, 0, 0), []int64{4, 2, 12, 4}},
		{"ternary", simd.Float32, func(b *Builder, x, y, m graph.Node) graph.Node {
			fma := b.Ternary(optable.OpFMA, x, y, y, m)
			return b.Convert(optable.OpCast, fma, simd.Int32, 4)
		}, simd.Floats(simd.Float32, 1, 2, 3, 4), simd.Floats(simd.Float32, 2, 2, 2, 2), []int64{4, 2, 8, 4}},
		{"blend", simd.Int32, func(b *Builder, x, y, m graph.Node) graph.Node {
			return b.Blend(x, y, m)
		}, simd.Ints(simd.Int32, 1, 2, 3, 4), simd.Ints(simd.Int32, 10, 20, 30, 40), []int64{10, 2, 30, 4}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := graph.New(tc.name)
			b := NewBuilder(g, WithSpecies(tc.elem, 4))
			x, y := b.Param(b.VectorClass()), b.Param(b.VectorClass())
			m := b.Param(graph.MaskClass(tc.elem, 4))
			b.Return(tc.build(b, x, y, m))
			require.Equal(t, 1, expand(t, g, "avx2").Expanded)
			require.Len(t, nodesOf[*lir.Blend](g), 1)

			v := interpret(t, g,
				lir.Boxed(b.VectorClass(), tc.x),
				lir.Boxed(b.VectorClass(), tc.y),
				lir.Boxed(b.MaskClass(), simd.Bools(tc.elem, true, false, true, false)))
			require.Equal(t, tc.want, v.Vector.IntLanes())
		})
	}
}

func TestNarrowIntToFloat(t *testing.T) {
	testCases := []struct {
		name  string
		lanes int
		to    int
		in    []int64
		want  []float64
	}{
		{"same lanes", 8, 8, []int64{-1, 2, -128, 127, 0, 5, 6, 7}, []float64{-1, 2, -128, 127, 0, 5, 6, 7}},
		{"fewer lanes", 16, 4,
			[]int64{-1, 2, -128, 127, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9},
			[]float64{-1, 2, -128, 127}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := graph.New("i2f")
			b := NewBuilder(g, WithSpecies(simd.Int8, tc.lanes))
			b.Return(b.Convert(optable.OpCast, b.Param(b.VectorClass()), simd.Float32, tc.to))
			o := target(t, "avx2")
			require.Equal(t, 1, expand(t, g, "avx2").Expanded)

			convs := nodesOf[*lir.Convert](g)
			require.Len(t, convs, 2)
			require.Equal(t, optable.SignExtend, convs[0].Op)
			require.Equal(t, simd.Vector(simd.Int32, tc.to), convs[0].Shape())
			require.Equal(t, optable.SignedToFloat, convs[1].Op)
			require.Equal(t, simd.Vector(simd.Float32, tc.to), convs[1].Shape())
			for _, c := range convs {
				s := c.Shape()
				require.Equal(t, s.Lanes, o.SupportedMoveLength(s.Elem, s.Lanes), "%v does not fit avx2", s)
			}

			v := interpret(t, g, lir.Boxed(b.VectorClass(), simd.Ints(simd.Int8, tc.in...)))
			require.Equal(t, tc.want, v.Vector.FloatLanes())
		})
	}
}

// TestIndexPartiallyUpToLaneLimit checks that byte masks are only built
// from lane indices when every index and the bound fit a signed byte.
func TestIndexPartiallyUpToLaneLimit(t *testing.T) {
	o := arch.NewAArch64(true, 256)
	for _, tc := range []struct {
		lanes    int
		expanded int
	}{{64, 1}, {128, 0}} {
		t.Run(fmt.Sprint(tc.lanes), func(t *testing.T) {
			g := graph.New("upTo")
			b := NewBuilder(g, WithSpecies(simd.Int8, tc.lanes))
			b.Return(b.IndexPartiallyUpTo(b.ScalarParam(simd.Int64), b.ScalarParam(simd.Int64)))
			canonicalize(t, g)
			require.Equal(t, tc.expanded, ExpansionPhase{Logger: zaptest.NewLogger(t)}.Run(g, o).Expanded)
			if tc.expanded == 0 {
				require.Zero(t, lirNodes(g))
				return
			}
			v := interpret(t, g, lir.Int(simd.Int64, 10), lir.Int(simd.Int64, 13))
			want := make([]bool, tc.lanes)
			want[0], want[1], want[2] = true, true, true
			require.Equal(t, want, v.Vector.BoolLanes())
		})
	}
}

func TestTailLoop(t *testing.T) {
	// Copies src[off:] to dst[off:] up to length 6, as the tail of a
	// vectorized loop does.
	g := graph.New("tail")
	b := NewBuilder(g)
	src, dst := b.ArrayParam(simd.Int32), b.ArrayParam(simd.Int32)
	off, limit := b.ScalarParam(simd.Int64), b.ScalarParam(simd.Int64)
	offset := b.ScalarParam(simd.Int32)
	m := b.IndexPartiallyUpTo(off, limit)
	v := b.Load(src, offset, m)
	b.Store(dst, offset, v, m)
	b.Return(nil)
	require.Equal(t, 1, expand(t, g, "avx2").Expanded)
	require.Len(t, nodesOf[*lir.MaskedRead](g), 1)
	require.Len(t, nodesOf[*lir.MaskedWrite](g), 1)

	in := lir.IntArray(simd.Int32, 1, 2, 3, 4, 5, 6)
	out := lir.IntArray(simd.Int32, 0, 0, 0, 0, 0, 0)
	interpret(t, g, lir.ArrayValue(in), lir.ArrayValue(out), lir.Int(simd.Int64, 4), lir.Int(simd.Int64, 6), lir.Int(simd.Int32, 4))
	require.Equal(t, []int64{0, 0, 0, 0, 5, 6}, out.Ints())
}

func TestMaskedReduction(t *testing.T) {
	g := graph.New("sum")
	b := NewBuilder(g)
	x, m := b.Param(b.VectorClass()), b.Param(b.MaskClass())
	b.Return(b.Reduction(optable.OpMin, x, m))
	require.Equal(t, 1, expand(t, g, "avx2").Expanded)

	v := interpret(t, g,
		lir.Boxed(b.VectorClass(), simd.Ints(simd.Int32, 4, -7, 2, 9)),
		lir.Boxed(b.MaskClass(), simd.Bools(simd.Int32, true, false, true, true)))
	require.Equal(t, int64(2), v.Int())
}

func TestRearrangeAndExtract(t *testing.T) {
	g := graph.New("rearrange")
	b := NewBuilder(g)
	x, m := b.Param(b.VectorClass()), b.Param(b.MaskClass())
	shuffle := b.Vector(b.ShuffleClass(), simd.Ints(simd.Int32, 3, 2, 1, 0))
	r := b.Rearrange(x, shuffle, m)
	b.Return(b.Extract(b.Insert(r, 0, b.Long(100)), 1))
	require.Equal(t, 1, expand(t, g, "avx2").Expanded)
	require.Len(t, nodesOf[*lir.Permute](g), 1)

	run := func(mask ...bool) int64 {
		return interpret(t, g,
			lir.Boxed(b.VectorClass(), simd.Ints(simd.Int32, 1, 2, 3, 4)),
			lir.Boxed(b.MaskClass(), simd.Bools(simd.Int32, mask...))).Int()
	}
	require.Equal(t, int64(3), run(true, true, true, true))
	require.Equal(t, int64(0), run(true, false, true, true), "disabled lanes are zero")
}

func TestBroadcastAndCount(t *testing.T) {
	g := graph.New("bits")
	b := NewBuilder(g)
	bits := b.ScalarParam(simd.Int64)
	b.Return(b.MaskReduction(optable.OpMaskTrueCount, b.FromBits(bits, optable.ModeBitsToMask, true)))
	require.Equal(t, 1, expand(t, g, "avx512").Expanded)
	require.Len(t, nodesOf[*lir.BitsToMask](g), 1)

	v := interpret(t, g, lir.Int(simd.Int64, 0b1011))
	require.Equal(t, int64(3), v.Int())
}

func TestCompressNeedsAVX512(t *testing.T) {
	build := func() *graph.Graph {
		g := graph.New("compress")
		b := NewBuilder(g)
		x, m := b.Param(b.VectorClass()), b.Param(b.MaskClass())
		b.Return(b.CompressExpand(optable.OpCompress, x, m))
		return g
	}
	require.Equal(t, 0, expand(t, build(), "avx2").Expanded)

	g := build()
	require.Equal(t, 1, expand(t, g, "avx512").Expanded)
	v := interpret(t, g,
		lir.Boxed(graph.VectorClass(simd.Int32, 4), simd.Ints(simd.Int32, 1, 2, 3, 4)),
		lir.Boxed(graph.MaskClass(simd.Int32, 4), simd.Bools(simd.Int32, false, true, false, true)))
	require.Equal(t, []int64{2, 4, 0, 0}, v.Vector.IntLanes())
}

func TestIndependentComponents(t *testing.T) {
	g := graph.New("two")
	b := NewBuilder(g)
	x := b.Param(b.VectorClass())
	b.Store(b.ArrayParam(simd.Int32), b.Int(0), b.Unary(optable.OpAbs, x, nil), nil)
	b.Store(b.ArrayParam(simd.Int32), b.Int(0), b.Unary(optable.OpNeg, x, nil), nil)
	b.Return(nil)

	stats := expand(t, g, "avx2")
	require.Equal(t, 1, stats.Components, "both chains read x")
	require.Equal(t, 4, stats.Nodes)
}
