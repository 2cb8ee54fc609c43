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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

var (
	i32x4 = simd.Vector(simd.Int32, 4)
	i8x4  = simd.Vector(simd.Int8, 4)
)

func vecParam(g *graph.Graph, index int, s simd.Shape) *graph.Param {
	return graph.Add(g, graph.NewParam(index, graph.VectorStamp{Shape: s}))
}

// run returns the vector returned by g.
func run(t *testing.T, g *graph.Graph, args ...Value) *simd.Constant {
	t.Helper()
	v, err := Run(g, args...)
	require.NoError(t, err)
	require.NotNil(t, v.Vector, "vector result")
	return v.Vector
}

func TestLaneWise(t *testing.T) {
	x := simd.Ints(simd.Int32, 1, 2, 3, 4)
	y := simd.Ints(simd.Int32, 10, 20, 30, 40)

	testCases := []struct {
		name  string
		build func(g *graph.Graph, a, b graph.Node) graph.Node
		want  []int64
	}{
		{"add", func(g *graph.Graph, a, b graph.Node) graph.Node {
			return graph.Add(g, NewBinary(optable.Add, a, b))
		}, []int64{11, 22, 33, 44}},
		{"neg", func(g *graph.Graph, a, _ graph.Node) graph.Node {
			return graph.Add(g, NewUnary(optable.Neg, a))
		}, []int64{-1, -2, -3, -4}},
		{"broadcast", func(g *graph.Graph, _, _ graph.Node) graph.Node {
			return graph.Add(g, NewBroadcast(i32x4, graph.Add(g, graph.NewInt(simd.Int32, 7))))
		}, []int64{7, 7, 7, 7}},
		{"iota", func(g *graph.Graph, _, _ graph.Node) graph.Node {
			return graph.Add(g, NewIota(i32x4))
		}, []int64{0, 1, 2, 3}},
		{"insert", func(g *graph.Graph, a, _ graph.Node) graph.Node {
			return graph.Add(g, NewInsert(a, 2, graph.Add(g, graph.NewInt(simd.Int32, -9))))
		}, []int64{1, 2, -9, 4}},
		{"permute wraps indices", func(g *graph.Graph, a, _ graph.Node) graph.Node {
			idx := graph.Add(g, NewConstant(simd.Ints(simd.Int32, 3, 5, -1, 0)))
			return graph.Add(g, NewPermute(a, idx))
		}, []int64{4, 2, 4, 1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := graph.New(tc.name)
			a, b := vecParam(g, 0, i32x4), vecParam(g, 1, i32x4)
			graph.AddFixed(g, graph.NewReturn(tc.build(g, a, b)))
			got := run(t, g, Vec(x), Vec(y))
			if diff := cmp.Diff(tc.want, got.IntLanes()); diff != "" {
				t.Errorf("lanes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWidenedByteShift(t *testing.T) {
	g := graph.New("shr8")
	v := vecParam(g, 0, i8x4)
	wide := graph.Add(g, NewConvert(optable.ZeroExtend, simd.Vector(simd.Int16, 4), v))
	three := graph.Add(g, graph.NewInt(simd.Int32, 3))
	shifted := graph.Add(g, NewShiftMasked(optable.Shr, wide, three, 8))
	narrow := graph.Add(g, NewConvert(optable.Narrow, i8x4, shifted))
	graph.AddFixed(g, graph.NewReturn(narrow))

	got := run(t, g, Vec(simd.Generate(i8x4, func(i int) uint64 { return 0b1000_0000 >> i })))
	require.Equal(t, []uint64{16, 8, 4, 2}, got.RawLanes())

	// The count is masked to the byte width before widening applies.
	require.Equal(t, "shr,count&7", shifted.Detail())
}

func TestCompareMirrored(t *testing.T) {
	gt, ok := optable.Canonicalize(optable.GT, false)
	require.True(t, ok)
	require.True(t, gt.Mirror)

	g := graph.New("gt")
	x := vecParam(g, 0, simd.Vector(simd.Int32, 2))
	y := vecParam(g, 1, simd.Vector(simd.Int32, 2))
	cmpNode := graph.Add(g, NewCompare(gt, x, y, simd.ReprPredicate))
	graph.AddFixed(g, graph.NewReturn(cmpNode))

	got := run(t, g, Vec(simd.Ints(simd.Int32, 5, 1)), Vec(simd.Ints(simd.Int32, 3, 2)))
	require.Equal(t, []bool{true, false}, got.BoolLanes())
	require.Equal(t, simd.ReprPredicate, got.Shape().Repr)
}

func TestBlendAndMasks(t *testing.T) {
	mask := simd.Bools(simd.Int32, true, false, false, true).WithShape(simd.Mask(simd.Int32, 4).WithRepr(simd.ReprBitmask))

	g := graph.New("blend")
	f, tr := vecParam(g, 0, i32x4), vecParam(g, 1, i32x4)
	m := graph.Add(g, NewConstant(mask))
	blend := graph.Add(g, NewBlend(f, tr, m))
	graph.AddFixed(g, graph.NewReturn(blend))

	got := run(t, g, Vec(simd.Ints(simd.Int32, 1, 2, 3, 4)), Vec(simd.Ints(simd.Int32, 10, 20, 30, 40)))
	require.Equal(t, []int64{10, 2, 3, 40}, got.IntLanes())

	t.Run("mask reductions", func(t *testing.T) {
		testCases := []struct {
			op   optable.MaskReduceOp
			want int64
		}{
			{optable.TrueCount, 2},
			{optable.FirstTrue, 0},
			{optable.LastTrue, 3},
			{optable.ToLong, 0b1001},
		}
		for _, tc := range testCases {
			g := graph.New("reduce")
			m := graph.Add(g, NewConstant(mask))
			r := graph.Add(g, NewMaskReduce(tc.op, m))
			graph.AddFixed(g, graph.NewReturn(r))
			v, err := Run(g)
			require.NoError(t, err)
			require.Equal(t, tc.want, v.Int(), tc.op.String())
		}
	})

	t.Run("bits to mask", func(t *testing.T) {
		g := graph.New("bits")
		bits := graph.Add(g, graph.NewInt(simd.Int64, 0b0110))
		m := graph.Add(g, NewBitsToMask(simd.Mask(simd.Int32, 4).WithRepr(simd.ReprPredicate), bits))
		conv := graph.Add(g, NewMaskConvert(m, simd.Mask(simd.Float32, 4).WithRepr(simd.ReprBitmask)))
		graph.AddFixed(g, graph.NewReturn(conv))
		got := run(t, g)
		require.Equal(t, []bool{false, true, true, false}, got.BoolLanes())
		require.Equal(t, simd.ReprBitmask, got.Shape().Repr)
		require.Equal(t, simd.Float32, got.Shape().MaskOf)
	})
}

func TestMemory(t *testing.T) {
	mask := simd.Bools(simd.Int32, true, false, true, false).WithShape(simd.Mask(simd.Int32, 4).WithRepr(simd.ReprPredicate))
	build := func(masked bool) *graph.Graph {
		g := graph.New("copy")
		src := graph.Add(g, graph.NewParam(0, graph.ArrayStamp{Elem: simd.Int32}))
		dst := graph.Add(g, graph.NewParam(1, graph.ArrayStamp{Elem: simd.Int32}))
		off := graph.Add(g, graph.NewInt(simd.Int32, 1))
		if masked {
			m := graph.Add(g, NewConstant(mask))
			v := graph.AddFixed(g, NewMaskedRead(i32x4, src, off, m))
			graph.AddFixed(g, NewMaskedWrite(dst, off, v, m))
		} else {
			v := graph.AddFixed(g, NewRead(i32x4, src, off))
			graph.AddFixed(g, NewWrite(dst, off, v))
		}
		graph.AddFixed(g, graph.NewReturn(nil))
		return g
	}

	t.Run("plain", func(t *testing.T) {
		src := IntArray(simd.Int32, 0, 1, 2, 3, 4)
		dst := IntArray(simd.Int32, 0, 0, 0, 0, 0)
		_, err := Run(build(false), ArrayValue(src), ArrayValue(dst))
		require.NoError(t, err)
		require.Equal(t, []int64{0, 1, 2, 3, 4}, dst.Ints())
	})

	t.Run("masked", func(t *testing.T) {
		src := IntArray(simd.Int32, 0, 1, 2, 3, 4)
		dst := IntArray(simd.Int32, -1, -1, -1, -1, -1)
		_, err := Run(build(true), ArrayValue(src), ArrayValue(dst))
		require.NoError(t, err)
		require.Equal(t, []int64{-1, 1, -1, 3, -1}, dst.Ints())
	})

	t.Run("out of bounds", func(t *testing.T) {
		src := IntArray(simd.Int32, 0, 1, 2)
		dst := IntArray(simd.Int32, 0, 0, 0)
		_, err := Run(build(false), ArrayValue(src), ArrayValue(dst))
		require.ErrorContains(t, err, "out of bounds")
	})

	t.Run("masked lanes are not accessed", func(t *testing.T) {
		// Lanes 1 and 3 of the mask are off, so only indices 1 and 3 are read.
		src := IntArray(simd.Int32, 0, 1, 2, 3)
		dst := IntArray(simd.Int32, 0, 0, 0, 0)
		_, err := Run(build(true), ArrayValue(src), ArrayValue(dst))
		require.NoError(t, err)
	})
}

func TestBoxing(t *testing.T) {
	cls := graph.VectorClass(simd.Int32, 4)
	g := graph.New("box")
	obj := graph.Add(g, graph.NewParam(0, graph.ObjectStamp{Class: cls, Exact: true}))
	v := graph.AddFixed(g, NewUnbox(i32x4, obj))
	doubled := graph.Add(g, NewBinary(optable.Add, v, v))
	box := graph.AddFixed(g, NewBox(cls, doubled))
	graph.AddFixed(g, graph.NewReturn(box))

	out, err := Run(g, Boxed(cls, simd.Ints(simd.Int32, 1, 2, 3, 4)))
	require.NoError(t, err)
	require.True(t, out.Boxed)
	require.Equal(t, cls, out.Class)
	require.Equal(t, []int64{2, 4, 6, 8}, out.Vector.IntLanes())

	_, err = Run(g, Null)
	require.ErrorContains(t, err, "unboxing null")
}

func TestConvertAndReinterpret(t *testing.T) {
	t.Run("fewer lanes converts the low lanes", func(t *testing.T) {
		g := graph.New("l2i")
		v := vecParam(g, 0, simd.Vector(simd.Int64, 4))
		c := graph.Add(g, NewConvert(optable.Narrow, simd.Vector(simd.Int32, 2), v))
		graph.AddFixed(g, graph.NewReturn(c))
		got := run(t, g, Vec(simd.Ints(simd.Int64, 1<<32+5, -1, 7, 8)))
		require.Equal(t, []int64{5, -1}, got.IntLanes())
	})

	t.Run("more lanes zero fills", func(t *testing.T) {
		g := graph.New("b2f")
		v := vecParam(g, 0, simd.Vector(simd.Int32, 2))
		c := graph.Add(g, NewConvert(optable.SignedToFloat, simd.Vector(simd.Float32, 4), v))
		graph.AddFixed(g, graph.NewReturn(c))
		got := run(t, g, Vec(simd.Ints(simd.Int32, -3, 4)))
		require.Equal(t, []float64{-3, 4, 0, 0}, got.FloatLanes())
	})

	t.Run("reinterpret is little endian", func(t *testing.T) {
		c := Reinterpreted(simd.Ints(simd.Int32, 0x04030201, 0x08070605), simd.Vector(simd.Int8, 8))
		require.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8}, c.IntLanes())
		back := Reinterpreted(c, simd.Vector(simd.Int64, 1))
		require.Equal(t, uint64(0x0807060504030201), back.Bits(0))
	})
}

func TestCompressLanes(t *testing.T) {
	v := simd.Ints(simd.Int32, 1, 2, 3, 4)
	mask := []bool{false, true, false, true}
	require.Equal(t, []int64{2, 4, 0, 0}, CompressLanes(optable.Compress, v, mask).IntLanes())
	require.Equal(t, []int64{0, 1, 0, 2}, CompressLanes(optable.Expand, v, mask).IntLanes())
}

func TestCoercedScalars(t *testing.T) {
	g := graph.New("extract")
	v := vecParam(g, 0, i8x4)
	e := graph.Add(g, NewExtract(v, 1))
	graph.AddFixed(g, graph.NewReturn(e))
	out, err := Run(g, Vec(simd.Ints(simd.Int8, 1, -2, 3, 4)))
	require.NoError(t, err)
	require.Equal(t, int64(-2), out.Int(), "integer lanes are sign extended")

	g = graph.New("sum")
	f := vecParam(g, 0, simd.Vector(simd.Float64, 2))
	r := graph.Add(g, NewReduce(optable.Add, f))
	graph.AddFixed(g, graph.NewReturn(r))
	out, err = Run(g, Vec(simd.Floats(simd.Float64, 1.5, 2)))
	require.NoError(t, err)
	require.Equal(t, 3.5, simd.AsFloat(simd.Float64, out.Bits), "float results keep their bits")
}

func TestErrors(t *testing.T) {
	t.Run("guard", func(t *testing.T) {
		g := graph.New("guard")
		graph.AddFixed(g, graph.NewGuard("bounds", graph.Add(g, graph.NewBool(false))))
		graph.AddFixed(g, graph.NewReturn(nil))
		_, err := Run(g)
		require.ErrorContains(t, err, `guard "bounds" failed`)
	})

	t.Run("calls", func(t *testing.T) {
		g := graph.New("call")
		x := graph.Add(g, graph.NewParam(0, graph.PrimitiveStamp{Kind: simd.Int32}))
		call := graph.AddFixed(g, graph.NewInvoke("twice", graph.PrimitiveStamp{Kind: simd.Int32}, x))
		graph.AddFixed(g, graph.NewReturn(call))

		_, err := Run(g, Int(simd.Int32, 4))
		require.ErrorContains(t, err, "no implementation for call to twice")

		in := Interpreter{Calls: map[string]CallFunc{
			"twice": func(args []Value) (Value, error) { return Int(simd.Int32, 2*args[0].Int()), nil },
		}}
		out, err := in.Run(g, Int(simd.Int32, 4))
		require.NoError(t, err)
		require.Equal(t, int64(8), out.Int())
	})

	t.Run("division by zero", func(t *testing.T) {
		g := graph.New("div")
		x, y := vecParam(g, 0, i32x4), vecParam(g, 1, i32x4)
		graph.AddFixed(g, graph.NewReturn(graph.Add(g, NewBinary(optable.Div, x, y))))
		_, err := Run(g, Vec(simd.Ints(simd.Int32, 1, 2, 3, 4)), Vec(simd.Ints(simd.Int32, 1, 0, 1, 1)))
		require.ErrorContains(t, err, "division by zero")
	})
}
