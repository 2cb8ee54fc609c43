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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/lir"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

// accumulate builds acc = init; loop { acc = acc op x }; return acc, with
// class tokens the compiler cannot see through.
func accumulate(t *testing.T, receiverIsPhi bool) (*Builder, *graph.Return) {
	t.Helper()
	g := graph.New("accumulate")
	b := NewBuilder(g, WithClassTokens(opaqueTokens))
	init := b.Param(b.VectorClass())
	x := b.Param(b.VectorClass())
	phi := graph.Add(g, graph.NewPhi(0, graph.ObjectStamp{Class: graph.AbstractVector(simd.Int32)}, init))
	var sum *Binary
	if receiverIsPhi {
		sum = b.Binary(optable.OpAdd, phi, x, nil)
	} else {
		sum = b.Binary(optable.OpAdd, x, phi, nil)
	}
	g.AppendInput(phi, sum)
	exit := graph.Add(g, graph.NewProxy(0, phi))
	return b, b.Return(exit)
}

func loopPhi(t *testing.T, g *graph.Graph) *graph.Phi {
	t.Helper()
	phis := nodesOf[*graph.Phi](g)
	require.Len(t, phis, 1)
	return phis[0]
}

func TestPhiSpeciesSimplification(t *testing.T) {
	t.Run("loop through receivers", func(t *testing.T) {
		b, _ := accumulate(t, true)
		g := b.Graph()
		canonicalize(t, g)

		phi := loopPhi(t, g)
		require.Equal(t, graph.ObjectStamp{Class: b.VectorClass(), Exact: true}, phi.Stamp())
		sums := nodesOf[*Binary](g)
		require.Len(t, sums, 1)
		require.Equal(t, b.Shape(), sums[0].Shape())
		require.Equal(t, optable.Add, sums[0].Op)
	})

	t.Run("back edge not derived from the phi's class", func(t *testing.T) {
		// The sum takes the class of x, which is exact anyway; the phi
		// itself is not the receiver, so it stays as declared.
		b, _ := accumulate(t, false)
		g := b.Graph()
		canonicalize(t, g)
		require.False(t, loopPhi(t, g).Stamp().(graph.ObjectStamp).Exact)
	})

	t.Run("ignores non-vector phis", func(t *testing.T) {
		g := graph.New("scalar")
		zero := graph.Add(g, graph.NewInt(simd.Int32, 0))
		phi := graph.Add(g, graph.NewPhi(0, graph.PrimitiveStamp{Kind: simd.Int32}, zero))
		g.AppendInput(phi, phi)
		require.Nil(t, PhiSpeciesSimplification(g, phi))
	})
}

func TestExpandLoop(t *testing.T) {
	b, r := accumulate(t, true)
	g := b.Graph()
	stats := expand(t, g, "avx2")
	require.Equal(t, 1, stats.Expanded)
	require.Empty(t, nodesOf[Node](g))

	phi := loopPhi(t, g)
	require.Equal(t, graph.VectorStamp{Shape: b.Shape()}, phi.Stamp())
	require.Len(t, phi.Inputs(), 2)
	_, isUnbox := phi.Input(0).(*lir.Unbox)
	require.True(t, isUnbox, "entry is %s", graph.Format(phi.Input(0)))
	sum, isBinary := phi.Input(1).(*lir.Binary)
	require.True(t, isBinary, "back edge is %s", graph.Format(phi.Input(1)))
	require.Same(t, phi, sum.Input(0))

	box, ok := r.Result().(*lir.Box)
	require.True(t, ok, "result is %s", graph.Format(r.Result()))
	require.Equal(t, b.VectorClass(), box.Class)
	exit, ok := box.Input(0).(*graph.Proxy)
	require.True(t, ok)
	require.Same(t, phi, exit.Value())
}

func TestMismatchedPhiBlocksExpansion(t *testing.T) {
	g := graph.New("mismatch")
	b := NewBuilder(g)
	wide := b.Param(graph.VectorClass(simd.Int32, 8))
	phi := graph.Add(g, graph.NewPhi(0, graph.ObjectStamp{Class: graph.AbstractVector(simd.Int32)}, wide))
	sum := b.Binary(optable.OpAdd, b.Param(b.VectorClass()), b.Param(b.VectorClass()), nil)
	g.AppendInput(phi, sum)
	b.Return(graph.Add(g, graph.NewProxy(0, phi)))

	require.Equal(t, 0, expand(t, g, "avx2").Expanded)
	require.Zero(t, lirNodes(g))
}
