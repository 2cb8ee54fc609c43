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

package compile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/ajroetker/vecapi/arch"
	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/graph"
	"github.com/ajroetker/vecapi/lir"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
	"github.com/ajroetker/vecapi/vectorapi"
)

var byteVector = graph.VectorClass(simd.Int8, 16)

func target(t *testing.T, name string) arch.Oracle {
	t.Helper()
	o, err := arch.Lookup(name)
	require.NoError(t, err)
	return o
}

func foldedAdd(name string) *graph.Graph {
	g := graph.New(name)
	b := vectorapi.NewBuilder(g)
	b.Return(b.Binary(optable.OpAdd, b.Ints(1, 2, 3, 4), b.Ints(10, 20, 30, 40), nil))
	return g
}

func byteShift(name string) *graph.Graph {
	g := graph.New(name)
	b := vectorapi.NewBuilder(g, vectorapi.WithSpecies(simd.Int8, 16))
	b.Return(b.Shift(optable.OpURShift, b.Param(byteVector), b.Int(3), nil))
	return g
}

func paramAdd(name string) *graph.Graph {
	g := graph.New(name)
	b := vectorapi.NewBuilder(g)
	b.Return(b.Binary(optable.OpAdd, b.Param(b.VectorClass()), b.Param(b.VectorClass()), nil))
	return g
}

// integerFMA faults while folding: fused multiply-add is float only.
func integerFMA(name string) *graph.Graph {
	g := graph.New(name)
	b := vectorapi.NewBuilder(g)
	x := b.Ints(1, 2, 3, 4)
	b.Return(b.Ternary(optable.OpFMA, x, x, x, nil))
	return g
}

func TestMethod(t *testing.T) {
	testCases := []struct {
		name      string
		build     func(string) *graph.Graph
		arch      string
		opts      []Option
		expansion vectorapi.Stats
		calls     int
	}{
		{"folded", foldedAdd, "avx2", nil, vectorapi.Stats{Components: 1, Expanded: 1, Nodes: 1}, 0},
		{"byte shift on avx512", byteShift, "avx512", nil, vectorapi.Stats{Components: 1, Expanded: 1, Nodes: 1}, 0},
		{"byte shift on avx2", byteShift, "avx2", nil, vectorapi.Stats{Components: 1}, 1},
		{"without expansion", byteShift, "avx512", []Option{WithoutExpansion()}, vectorapi.Stats{}, 1},
		{"scalar target", paramAdd, "scalar", nil, vectorapi.Stats{Components: 1}, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := tc.build(tc.name)
			opts := append([]Option{WithLogger(zaptest.NewLogger(t))}, tc.opts...)
			res, err := Method(g, target(t, tc.arch), opts...)
			require.NoError(t, err)
			require.Equal(t, tc.name, res.Method)
			require.Equal(t, tc.arch, res.Target)
			require.True(t, res.Canonical.Converged)
			require.Equal(t, tc.expansion, res.Expansion)
			require.Equal(t, tc.calls, res.Calls)
			for _, n := range g.Nodes() {
				_, isOp := n.(vectorapi.Node)
				require.False(t, isOp, "operation %s left after compiling", graph.Format(n))
			}
		})
	}
}

func TestMethodResultRuns(t *testing.T) {
	g := byteShift("shr")
	_, err := Method(g, target(t, "avx512"), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	in := simd.Ints(simd.Int8, -128, 127, 1, 8, -1, 0, 64, 24, -128, 127, 1, 8, -1, 0, 64, 24)
	v, err := lir.Run(g, lir.Boxed(byteVector, in))
	require.NoError(t, err)
	want := []int64{16, 15, 0, 1, 31, 0, 8, 3, 16, 15, 0, 1, 31, 0, 8, 3}
	if diff := cmp.Diff(want, v.Vector.IntLanes()); diff != "" {
		t.Errorf("shifted lanes mismatch (-want +got):\n%s", diff)
	}
}

func TestMethodRoundLimit(t *testing.T) {
	res, err := Method(foldedAdd("add"), target(t, "avx2"), WithMaxCanonicalizeRounds(1))
	require.NoError(t, err)
	require.Equal(t, 1, res.Canonical.Rounds)
}

func TestMethodFault(t *testing.T) {
	_, err := Method(integerFMA("fma"), target(t, "avx512"))
	require.Error(t, err)
	require.True(t, fault.Is(err), "got %v", err)
	require.Contains(t, err.Error(), "compiling fma for avx512")
}

func TestBatch(t *testing.T) {
	var graphs []*graph.Graph
	for i := range 12 {
		build := []func(string) *graph.Graph{foldedAdd, byteShift, paramAdd}[i%3]
		graphs = append(graphs, build(fmt.Sprintf("m%d", i)))
	}
	graphs = append(graphs, integerFMA("bad"))

	results, err := Batch(context.Background(), target(t, "avx512"), graphs,
		WithParallelism(4), WithLogger(zaptest.NewLogger(t)))
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 1)
	require.True(t, fault.Is(errs[0]))
	require.Contains(t, errs[0].Error(), "bad")

	require.Len(t, results, len(graphs))
	for i, res := range results[:12] {
		require.Equal(t, fmt.Sprintf("m%d", i), res.Method)
		require.Equal(t, 1, res.Expansion.Expanded, "method %s", res.Method)
		require.Zero(t, res.Calls)
	}
}

func TestBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	graphs := []*graph.Graph{foldedAdd("a"), foldedAdd("b")}
	results, err := Batch(ctx, target(t, "avx2"), graphs)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, "a", results[0].Method)
	require.Zero(t, results[0].Expansion)
}

func TestService(t *testing.T) {
	svc := NewService(target(t, "avx512"), WithParallelism(3), WithLogger(zaptest.NewLogger(t)))
	defer svc.Close()
	require.Equal(t, 3, svc.NumWorkers())

	for round := range 3 {
		var graphs []*graph.Graph
		for i := range 10 {
			graphs = append(graphs, byteShift(fmt.Sprintf("r%d/m%d", round, i)))
		}
		results, err := svc.CompileAll(context.Background(), graphs)
		require.NoError(t, err)
		for i, res := range results {
			require.Equal(t, graphs[i].Name, res.Method)
			require.Equal(t, 1, res.Expansion.Expanded)
		}
	}
	require.Positive(t, svc.Oracle().Len())

	_, err := svc.Compile(context.Background(), integerFMA("bad"))
	require.True(t, fault.Is(err))
}

func TestServiceAfterClose(t *testing.T) {
	svc := NewService(target(t, "avx2"), WithParallelism(2))
	svc.Close()
	svc.Close()

	res, err := svc.Compile(context.Background(), foldedAdd("late"))
	require.NoError(t, err)
	require.Equal(t, 1, res.Expansion.Expanded)
}

func TestServiceCancelled(t *testing.T) {
	svc := NewService(target(t, "avx2"), WithParallelism(2))
	defer svc.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.CompileAll(ctx, []*graph.Graph{foldedAdd("a"), foldedAdd("b"), foldedAdd("c")})
	require.True(t, errors.Is(err, context.Canceled))
	require.Len(t, multierr.Errors(err), 3)
}
