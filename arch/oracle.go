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

// Package arch models what a compilation target can do with vectors.
//
// An Oracle answers queries of the form "for this element kind, this
// operation and at most maxLen lanes, how many lanes can the target process
// in one instruction?". The answer equals maxLen when the request is fully
// supported; any smaller value, including 0, means the caller must not
// expand the operation at the requested width.
//
// Oracles are immutable once constructed and safe for concurrent use by
// independent compilations.
package arch

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

// Oracle is the capability model of a target architecture.
//
// Element kinds passed for mask operations are the kinds the mask selects,
// never simd.Logic.
type Oracle interface {
	// Name identifies the target, e.g. "avx2" or "neon".
	Name() string

	// MaxVectorBytes is the widest vector register in bytes, 0 if the target
	// has no vector unit.
	MaxVectorBytes() int

	// LogicVectorsAreBitmasks reports whether masks live in ordinary vector
	// registers as all-ones/all-zeros lanes (true) or in dedicated predicate
	// registers (false).
	LogicVectorsAreBitmasks() bool

	// SupportedMoveLength covers loads, stores, constant materialization,
	// broadcasts and lane insert/extract.
	SupportedMoveLength(elem simd.Kind, maxLen int) int
	SupportedMaskedMoveLength(elem simd.Kind, maxLen int) int
	SupportedArithmeticLength(elem simd.Kind, maxLen int, op optable.ArithOp) int
	SupportedShiftLength(elem simd.Kind, maxLen int, op optable.ShiftOp) int
	SupportedConvertLength(to, from simd.Kind, maxLen int, op optable.ConvertOp) int
	SupportedCompareLength(elem simd.Kind, cond optable.CanonicalCondition, maxLen int) int
	SupportedBlendLength(elem simd.Kind, maxLen int) int
	SupportedPermuteLength(elem simd.Kind, maxLen int) int
	SupportedCompressExpandLength(elem simd.Kind, maxLen int) int

	// SupportedMaskLogicLength covers mask and/or/xor/not, mask tests,
	// mask reductions and conversions between mask representations.
	SupportedMaskLogicLength(elem simd.Kind, maxLen int) int

	// SupportedReductionLength covers reducing all lanes to one scalar.
	SupportedReductionLength(elem simd.Kind, maxLen int, op optable.ArithOp) int
}

// Repr returns the mask representation used by o.
func Repr(o Oracle) simd.LogicRepr {
	if o.LogicVectorsAreBitmasks() {
		return simd.ReprBitmask
	}
	return simd.ReprPredicate
}

// fitLength returns the largest power-of-two lane count not above maxLen
// whose vector fits in [minBytes, maxBytes]. Vectors need at least two lanes.
func fitLength(elem simd.Kind, maxLen, minBytes, maxBytes int) int {
	if elem == simd.Invalid || elem.IsLogic() || maxLen < 2 {
		return 0
	}
	n := min(maxLen, maxBytes/elem.Bytes())
	if n < 2 {
		return 0
	}
	n = 1 << (bits.Len(uint(n)) - 1)
	if n*elem.Bytes() < minBytes {
		return 0
	}
	return n
}

// scalar is a target without a vector unit.
type scalar struct{}

// Scalar returns an oracle that supports nothing. Every operation node
// compiled against it falls back to a call.
func Scalar() Oracle { return scalar{} }

func (scalar) Name() string                                                            { return "scalar" }
func (scalar) MaxVectorBytes() int                                                     { return 0 }
func (scalar) LogicVectorsAreBitmasks() bool                                           { return true }
func (scalar) SupportedMoveLength(simd.Kind, int) int                                  { return 0 }
func (scalar) SupportedMaskedMoveLength(simd.Kind, int) int                            { return 0 }
func (scalar) SupportedArithmeticLength(simd.Kind, int, optable.ArithOp) int           { return 0 }
func (scalar) SupportedShiftLength(simd.Kind, int, optable.ShiftOp) int                { return 0 }
func (scalar) SupportedConvertLength(simd.Kind, simd.Kind, int, optable.ConvertOp) int { return 0 }
func (scalar) SupportedCompareLength(simd.Kind, optable.CanonicalCondition, int) int   { return 0 }
func (scalar) SupportedBlendLength(simd.Kind, int) int                                 { return 0 }
func (scalar) SupportedPermuteLength(simd.Kind, int) int                               { return 0 }
func (scalar) SupportedCompressExpandLength(simd.Kind, int) int                        { return 0 }
func (scalar) SupportedMaskLogicLength(simd.Kind, int) int                             { return 0 }
func (scalar) SupportedReductionLength(simd.Kind, int, optable.ArithOp) int            { return 0 }

var named = map[string]func() Oracle{
	"scalar": Scalar,
	"avx":    func() Oracle { return NewAMD64(AVXFeatures...) },
	"avx2":   func() Oracle { return NewAMD64(AVX2Features...) },
	"avx512": func() Oracle { return NewAMD64(AVX512Features...) },
	"neon":   func() Oracle { return NewAArch64(false, 16) },
	"sve256": func() Oracle { return NewAArch64(true, 32) },
	"sve512": func() Oracle { return NewAArch64(true, 64) },
	"host":   Host,
}

// Names returns the target names accepted by Lookup, sorted.
func Names() []string {
	names := lo.Keys(named)
	slices.Sort(names)
	return names
}

// Lookup returns the oracle for a target name such as "avx2" or "neon".
func Lookup(name string) (Oracle, error) {
	ctor, ok := named[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown target %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}
