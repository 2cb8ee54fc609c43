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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

// canonicalize refines g until it converges.
func canonicalize(t *testing.T, g *graph.Graph) {
	t.Helper()
	stats := graph.Canonicalize(g, 32, PhiSpeciesSimplification)
	require.True(t, stats.Converged, "canonicalization of %s did not converge", g.Name)
}

// opaqueTokens passes class tokens as values the compiler cannot see
// through.
func opaqueTokens(g *graph.Graph, _ graph.Class) graph.Node {
	return graph.AddFixed(g, graph.NewInvoke("species", graph.ObjectStamp{Class: graph.ClassOfClass}))
}

// folded returns the constant value computed by the node returned by r.
func folded(t *testing.T, r *graph.Return) *simd.Constant {
	t.Helper()
	n, ok := r.Result().(Node)
	require.True(t, ok, "result is %s", graph.Format(r.Result()))
	require.NotNil(t, n.Constant(), "%s did not fold", graph.Format(n))
	return n.Constant()
}

// scalar returns the constant that the sink returned by r folded to.
func scalar(t *testing.T, r *graph.Return) *graph.Const {
	t.Helper()
	c, ok := r.Result().(*graph.Const)
	require.True(t, ok, "result is %s", graph.Format(r.Result()))
	return c
}

func TestFoldLaneWise(t *testing.T) {
	testCases := []struct {
		name  string
		elem  simd.Kind
		build func(b *Builder) graph.Node
		want  []int64
	}{
		{"add", simd.Int32, func(b *Builder) graph.Node {
			return b.Binary(optable.OpAdd, b.Ints(1, 2, 3, 4), b.Ints(10, 20, 30, 40), nil)
		}, []int64{11, 22, 33, 44}},
		{"neg", simd.Int32, func(b *Builder) graph.Node {
			return b.Unary(optable.OpNeg, b.Ints(1, -2, 3, 0), nil)
		}, []int64{-1, 2, -3, 0}},
		{"shift count wraps", simd.Int32, func(b *Builder) graph.Node {
			return b.Shift(optable.OpLShift, b.Ints(1, 2, 3, -1), b.Int(33), nil)
		}, []int64{2, 4, 6, -2}},
		{"unsigned byte shift", simd.Int8, func(b *Builder) graph.Node {
			return b.Shift(optable.OpURShift, b.Ints(-128, 127, 8, -1), b.Int(3), nil)
		}, []int64{16, 15, 1, 31}},
		{"blend", simd.Int32, func(b *Builder) graph.Node {
			return b.Blend(b.Ints(1, 2, 3, 4), b.Ints(5, 6, 7, 8), b.Bools(true, false, false, true))
		}, []int64{5, 2, 3, 8}},
		{"rearrange wraps indices", simd.Int32, func(b *Builder) graph.Node {
			shuffle := b.Vector(b.ShuffleClass(), simd.Ints(simd.Int32, 3, 5, -1, 0))
			return b.Rearrange(b.Ints(1, 2, 3, 4), shuffle, nil)
		}, []int64{4, 2, 4, 1}},
		{"insert", simd.Int32, func(b *Builder) graph.Node {
			return b.Insert(b.Ints(1, 2, 3, 4), 2, b.Long(-9))
		}, []int64{1, 2, -9, 4}},
		{"broadcast bits", simd.Int32, func(b *Builder) graph.Node {
			return b.FromBits(b.Long(7), optable.ModeBroadcast, false)
		}, []int64{7, 7, 7, 7}},
		{"narrowing cast", simd.Int32, func(b *Builder) graph.Node {
			return b.Convert(optable.OpCast, b.Ints(1, 300, -1, 4), simd.Int8, 4)
		}, []int64{1, 44, -1, 4}},
		{"widening cast zero-fills", simd.Int32, func(b *Builder) graph.Node {
			return b.Convert(optable.OpCast, b.Ints(-1, 2, 3, 4), simd.Int64, 8)
		}, []int64{-1, 2, 3, 4, 0, 0, 0, 0}},
		{"reinterpret", simd.Int32, func(b *Builder) graph.Node {
			return b.Convert(optable.OpReinterpret, b.Ints(0x04030201, 0, 0, -1), simd.Int8, 16)
		}, []int64{1, 2, 3, 4, 0, 0, 0, 0, 0, 0, 0, 0, -1, -1, -1, -1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := graph.New(tc.name)
			b := NewBuilder(g, WithSpecies(tc.elem, 4))
			r := b.Return(tc.build(b))
			canonicalize(t, g)
			if diff := cmp.Diff(tc.want, folded(t, r).IntLanes()); diff != "" {
				t.Errorf("lanes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFoldFloat(t *testing.T) {
	g := graph.New("fma")
	b := NewBuilder(g, WithSpecies(simd.Float32, 4))
	fma := b.Ternary(optable.OpFMA, b.Floats(1, 2, 3, 4), b.Floats(2, 2, 2, 2), b.Floats(0.5, 0, -1, 0), nil)
	r := b.Return(b.Convert(optable.OpCast, fma, simd.Int32, 4))
	canonicalize(t, g)
	require.Equal(t, []int64{2, 4, 5, 8}, folded(t, r).IntLanes())
}

func TestFoldMasks(t *testing.T) {
	testCases := []struct {
		name  string
		build func(b *Builder) graph.Node
		want  []bool
	}{
		{"greater than", func(b *Builder) graph.Node {
			return b.Compare(optable.BTGt, b.Ints(5, 1, 3, 3), b.Ints(3, 2, 3, 4), nil)
		}, []bool{true, false, false, false}},
		{"unsigned less than", func(b *Builder) graph.Node {
			return b.Compare(optable.BTUlt, b.Ints(-1, 1, 0, 2), b.Ints(1, -1, 0, 3), nil)
		}, []bool{false, true, false, true}},
		{"mask and", func(b *Builder) graph.Node {
			return b.MaskBinary(optable.OpAnd, b.Bools(true, true, false, false), b.Bools(true, false, true, false))
		}, []bool{true, false, false, false}},
		{"index partially up to", func(b *Builder) graph.Node {
			return b.IndexPartiallyUpTo(b.Long(2), b.Long(5))
		}, []bool{true, true, true, false}},
		{"index partially up to near overflow", func(b *Builder) graph.Node {
			return b.IndexPartiallyUpTo(b.Long(math.MaxInt64-1), b.Long(math.MaxInt64))
		}, []bool{true, false, false, false}},
		{"index partially up to from far below", func(b *Builder) graph.Node {
			return b.IndexPartiallyUpTo(b.Long(math.MinInt64), b.Long(math.MaxInt64))
		}, []bool{true, true, true, true}},
		{"index partially up to past the limit", func(b *Builder) graph.Node {
			return b.IndexPartiallyUpTo(b.Long(7), b.Long(5))
		}, []bool{false, false, false, false}},
		{"bits to mask", func(b *Builder) graph.Node {
			return b.FromBits(b.Long(0b0101), optable.ModeBitsToMask, true)
		}, []bool{true, false, true, false}},
		{"broadcast mask", func(b *Builder) graph.Node {
			return b.FromBits(b.Long(2), optable.ModeBroadcast, true)
		}, []bool{true, true, true, true}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := graph.New(tc.name)
			b := NewBuilder(g)
			r := b.Return(tc.build(b))
			canonicalize(t, g)
			c := folded(t, r)
			require.True(t, c.Shape().IsMask())
			require.Equal(t, tc.want, c.BoolLanes())
		})
	}
}

func TestFoldSinks(t *testing.T) {
	testCases := []struct {
		name  string
		build func(b *Builder) graph.Node
		want  *graph.Const
	}{
		{"all true", func(b *Builder) graph.Node {
			return b.MaskTest(optable.TestAllTrue, b.Bools(true, true, true, true))
		}, graph.NewBool(true)},
		{"not all true", func(b *Builder) graph.Node {
			return b.MaskTest(optable.TestAllTrue, b.Bools(true, false, true, true))
		}, graph.NewBool(false)},
		{"any true", func(b *Builder) graph.Node {
			return b.MaskTest(optable.TestAnyTrue, b.Bools(false, false, true, false))
		}, graph.NewBool(true)},
		{"true count", func(b *Builder) graph.Node {
			return b.MaskReduction(optable.OpMaskTrueCount, b.Bools(true, false, true, true))
		}, graph.NewInt(simd.Int64, 3)},
		{"first true", func(b *Builder) graph.Node {
			return b.MaskReduction(optable.OpMaskFirstTrue, b.Bools(false, false, true, true))
		}, graph.NewInt(simd.Int64, 2)},
		{"to long", func(b *Builder) graph.Node {
			return b.MaskReduction(optable.OpMaskToLong, b.Bools(true, false, true, true))
		}, graph.NewInt(simd.Int64, 0b1101)},
		{"extract sign-extends", func(b *Builder) graph.Node {
			return b.Extract(b.Ints(1, -2, 3, 4), 1)
		}, graph.NewInt(simd.Int64, -2)},
		{"reduce add", func(b *Builder) graph.Node {
			return b.Reduction(optable.OpAdd, b.Ints(1, 2, 3, 4), nil)
		}, graph.NewInt(simd.Int64, 10)},
		{"reduce max", func(b *Builder) graph.Node {
			return b.Reduction(optable.OpMax, b.Ints(1, -2, 7, 4), nil)
		}, graph.NewInt(simd.Int64, 7)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := graph.New(tc.name)
			b := NewBuilder(g)
			r := b.Return(tc.build(b))
			canonicalize(t, g)
			c := scalar(t, r)
			require.Equal(t, tc.want.Kind, c.Kind)
			require.Equal(t, tc.want.Bits, c.Bits)
		})
	}
}

func TestExtractFloatKeepsBits(t *testing.T) {
	g := graph.New("extract")
	b := NewBuilder(g, WithSpecies(simd.Float32, 4))
	r := b.Return(b.Extract(b.Floats(1.5, 2, 3, 4), 0))
	canonicalize(t, g)
	c := scalar(t, r)
	require.Equal(t, uint64(math.Float32bits(1.5)), c.Bits)
}

func TestNoFoldWhenMasked(t *testing.T) {
	g := graph.New("masked")
	b := NewBuilder(g)
	r := b.Return(b.Binary(optable.OpAdd, b.Ints(1, 2, 3, 4), b.Ints(1, 1, 1, 1), b.Bools(true, false, true, false)))
	canonicalize(t, g)
	n := r.Result().(*Binary)
	require.Equal(t, optable.Add, n.Op)
	require.Nil(t, n.Constant())
}

func TestNoFoldDivisionByZero(t *testing.T) {
	g := graph.New("div")
	b := NewBuilder(g)
	r := b.Return(b.Binary(optable.OpDiv, b.Ints(1, 2, 3, 4), b.Ints(1, 0, 1, 1), nil))
	canonicalize(t, g)
	n := r.Result().(*Binary)
	require.True(t, n.Shape().Resolved())
	require.Nil(t, n.Constant())
}

func TestRefinement(t *testing.T) {
	t.Run("resolves from tokens", func(t *testing.T) {
		g := graph.New("tokens")
		b := NewBuilder(g)
		x := b.Param(graph.AbstractVector(simd.Int32))
		r := b.Return(b.Unary(optable.OpAbs, x, nil))
		canonicalize(t, g)
		n := r.Result().(*Unary)
		require.Equal(t, graph.ObjectStamp{Class: b.VectorClass(), Exact: true}, n.Species())
		require.Equal(t, b.Shape(), n.Shape())
		require.Equal(t, optable.Abs, n.Op)
	})

	t.Run("resolves from the receiver", func(t *testing.T) {
		g := graph.New("receiver")
		b := NewBuilder(g, WithClassTokens(opaqueTokens))
		x := b.Param(graph.VectorClass(simd.Int32, 4))
		r := b.Return(b.Unary(optable.OpAbs, x, nil))
		canonicalize(t, g)
		n := r.Result().(*Unary)
		require.True(t, n.Species().Exact)
		require.Equal(t, simd.Vector(simd.Int32, 4), n.Shape())
	})

	t.Run("stays unresolved", func(t *testing.T) {
		g := graph.New("opaque")
		b := NewBuilder(g, WithClassTokens(opaqueTokens))
		x := b.Param(graph.AbstractVector(simd.Int32))
		r := b.Return(b.Unary(optable.OpAbs, x, nil))
		canonicalize(t, g)
		n := r.Result().(*Unary)
		require.False(t, n.Species().Exact)
		require.False(t, n.Shape().Resolved())
		require.Equal(t, optable.ArithInvalid, n.Op)
	})

	t.Run("is stable", func(t *testing.T) {
		g := graph.New("stable")
		b := NewBuilder(g)
		x := b.Param(graph.AbstractVector(simd.Int32))
		r := b.Return(b.Binary(optable.OpAdd, x, x, nil))
		canonicalize(t, g)
		n := r.Result().(*Binary)
		require.Same(t, n, n.Canonical(g), "a refined node is stable")

		// A fresh node over the same arguments refines to the same fields.
		again := NewBinary(graph.AbstractVector(simd.Int32), n.Inputs()...).Canonical(g).(*Binary)
		require.Equal(t, n.Species(), again.Species())
		require.Equal(t, n.Shape(), again.Shape())
		require.Equal(t, n.Op, again.Op)
	})

	// Once resolved, fields survive their tokens becoming unknown.
	t.Run("is monotonic", func(t *testing.T) {
		g := graph.New("monotonic")
		b := NewBuilder(g)
		x := b.Param(graph.AbstractVector(simd.Int32))
		m := b.Param(graph.AbstractMask(simd.Int32))
		sum := b.Return(b.Binary(optable.OpAdd, x, x, nil))
		count := b.Return(b.MaskReduction(optable.OpMaskTrueCount, m))
		canonicalize(t, g)

		unknown := func(n graph.Node, tokens ...int) {
			for _, i := range tokens {
				g.SetInput(n, i, b.ScalarParam(simd.Int32))
			}
		}

		add := sum.Result().(*Binary)
		wantSpecies, wantShape := add.Species(), add.Shape()
		require.True(t, wantSpecies.Exact)
		unknown(add, 0, 1, 2, 3, 4)
		refined, ok := add.Canonical(g).(*Binary)
		require.True(t, ok)
		require.Equal(t, optable.Add, refined.Op)
		require.Equal(t, wantShape, refined.Shape())
		require.Equal(t, wantSpecies, refined.Species())

		trues := count.Result().(*MaskReduction)
		wantSpecies, wantShape = trues.Species(), trues.Shape()
		require.True(t, wantSpecies.Exact)
		unknown(trues, 0, 1, 2, 3)
		reduced, ok := trues.Canonical(g).(*MaskReduction)
		require.True(t, ok)
		require.Equal(t, optable.TrueCount, reduced.Op)
		require.Equal(t, wantShape, reduced.Shape())
		require.Equal(t, wantSpecies, reduced.Species())
	})
}

func TestNewRejectsWrongArity(t *testing.T) {
	g := graph.New("arity")
	b := NewBuilder(g)
	err := func() (err error) {
		defer fault.Catch(&err)
		NewUnary(graph.AbstractVector(simd.Int32), b.Int(optable.OpAbs))
		return nil
	}()
	require.Error(t, err)
	require.True(t, fault.Is(err))
}

func TestIntegerTernaryFaults(t *testing.T) {
	g := graph.New("ternary")
	b := NewBuilder(g)
	b.Return(b.Ternary(optable.OpFMA, b.Ints(1, 2, 3, 4), b.Ints(1, 2, 3, 4), b.Ints(1, 2, 3, 4), nil))
	err := func() (err error) {
		defer fault.Catch(&err)
		graph.Canonicalize(g, 8)
		return nil
	}()
	require.True(t, fault.Is(err), "got %v", err)
}

func TestShuffled(t *testing.T) {
	v := simd.Ints(simd.Int16, 10, 11, 12, 13, 14, 15, 16, 17)
	idx := simd.Ints(simd.Int16, 7, 8, 9, -1, 0, 15, 3, 4)
	require.Equal(t, []int64{17, 10, 11, 17, 10, 17, 13, 14}, Shuffled(v, idx).IntLanes())

	err := func() (err error) {
		defer fault.Catch(&err)
		Shuffled(simd.Ints(simd.Int32, 1, 2, 3), simd.Ints(simd.Int32, 0, 1, 2))
		return nil
	}()
	require.True(t, fault.Is(err))
}
