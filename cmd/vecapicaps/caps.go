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
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/ajroetker/vecapi/arch"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

// laneKinds are the element kinds of the vector API species.
var laneKinds = []simd.Kind{simd.Int8, simd.Int16, simd.Int32, simd.Int64, simd.Float32, simd.Float64}

type capability struct {
	name  string
	query func(o arch.Oracle, k simd.Kind, maxLen int) int
}

var capabilities = []capability{
	{"move", arch.Oracle.SupportedMoveLength},
	{"masked", arch.Oracle.SupportedMaskedMoveLength},
	{"add", func(o arch.Oracle, k simd.Kind, n int) int {
		return arithLength(o, k, n, optable.OpAdd)
	}},
	{"mul", func(o arch.Oracle, k simd.Kind, n int) int {
		return arithLength(o, k, n, optable.OpMul)
	}},
	{"min", func(o arch.Oracle, k simd.Kind, n int) int {
		return arithLength(o, k, n, optable.OpMin)
	}},
	{"shl", func(o arch.Oracle, k simd.Kind, n int) int {
		op, ok := optable.Shift(optable.OpLShift, k)
		if !ok {
			return 0
		}
		return o.SupportedShiftLength(k, n, op)
	}},
	{"lt", func(o arch.Oracle, k simd.Kind, n int) int {
		return o.SupportedCompareLength(k, optable.CanonicalLT, n)
	}},
	{"blend", arch.Oracle.SupportedBlendLength},
	{"permute", arch.Oracle.SupportedPermuteLength},
	{"compress", arch.Oracle.SupportedCompressExpandLength},
	{"mask", arch.Oracle.SupportedMaskLogicLength},
	{"reduce", func(o arch.Oracle, k simd.Kind, n int) int {
		op, ok := optable.Reduction(optable.OpAdd, k)
		if !ok {
			return 0
		}
		return o.SupportedReductionLength(k, n, op)
	}},
}

func arithLength(o arch.Oracle, k simd.Kind, maxLen, opcode int) int {
	op, ok := optable.Binary(opcode, k)
	if !ok {
		return 0
	}
	return o.SupportedArithmeticLength(k, maxLen, op)
}

// printCapabilities writes one row per lane kind with the largest lane
// count o supports for each capability, or "-" if none.
func printCapabilities(w io.Writer, o arch.Oracle, maxLen int) {
	fmt.Fprintf(w, "%s: %d-byte vectors, masks as %s\n", o.Name(), o.MaxVectorBytes(), arch.Repr(o))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "kind\t")
	for _, c := range capabilities {
		fmt.Fprintf(tw, "%s\t", c.name)
	}
	fmt.Fprintln(tw)
	for _, k := range laneKinds {
		fmt.Fprintf(tw, "%s\t", k)
		for _, c := range capabilities {
			cell := "-"
			if n := c.query(o, k, maxLen); n > 0 {
				cell = strconv.Itoa(n)
			}
			fmt.Fprintf(tw, "%s\t", cell)
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}
