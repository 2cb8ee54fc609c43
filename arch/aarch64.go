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

package arch

import (
	"fmt"

	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

// AArch64 is the capability model of an ARMv8 CPU: NEON (128-bit, masks as
// bitmasks) or SVE (scalable, masks as predicate registers).
type AArch64 struct {
	sve         bool
	vectorBytes int
}

// NewAArch64 returns the oracle for a NEON target (sve false, vectorBytes
// ignored and fixed at 16) or an SVE target with the given vector length.
func NewAArch64(sve bool, vectorBytes int) *AArch64 {
	if !sve || vectorBytes < 16 {
		vectorBytes = 16
	}
	return &AArch64{sve: sve, vectorBytes: vectorBytes}
}

func (a *AArch64) Name() string {
	if a.sve {
		return fmt.Sprintf("sve%d", a.vectorBytes*8)
	}
	return "neon"
}

func (a *AArch64) MaxVectorBytes() int { return a.vectorBytes }

func (a *AArch64) LogicVectorsAreBitmasks() bool { return !a.sve }

func (a *AArch64) fit(elem simd.Kind, maxLen int) int {
	return fitLength(elem, maxLen, 8, a.vectorBytes)
}

func (a *AArch64) SupportedMoveLength(elem simd.Kind, maxLen int) int {
	return a.fit(elem, maxLen)
}

// SupportedMaskedMoveLength: NEON has no masked loads or stores.
func (a *AArch64) SupportedMaskedMoveLength(elem simd.Kind, maxLen int) int {
	if !a.sve {
		return 0
	}
	return a.fit(elem, maxLen)
}

func (a *AArch64) SupportedArithmeticLength(elem simd.Kind, maxLen int, op optable.ArithOp) int {
	if elem.IsFloat() {
		switch op {
		case optable.Add, optable.Sub, optable.Mul, optable.Div, optable.Min, optable.Max,
			optable.Abs, optable.Neg, optable.Sqrt, optable.FMA:
			return a.fit(elem, maxLen)
		}
		return 0
	}
	if !elem.IsInteger() {
		return 0
	}
	switch op {
	case optable.Add, optable.Sub, optable.Neg, optable.Abs, optable.And, optable.Or, optable.Xor,
		optable.LeadingZeros:
		return a.fit(elem, maxLen)
	case optable.Mul, optable.Min, optable.Max, optable.UMin, optable.UMax:
		// NEON lacks 64-bit lane multiply and min/max.
		if elem.Bits() == 64 && !a.sve {
			return 0
		}
		return a.fit(elem, maxLen)
	case optable.BitCount:
		if elem.Bits() != 8 && !a.sve {
			return 0
		}
		return a.fit(elem, maxLen)
	case optable.Div:
		if !a.sve || elem.Bits() < 32 {
			return 0
		}
		return a.fit(elem, maxLen)
	}
	return 0
}

// SupportedShiftLength: shifts exist for every integer lane width, bytes
// included.
func (a *AArch64) SupportedShiftLength(elem simd.Kind, maxLen int, op optable.ShiftOp) int {
	if !elem.IsInteger() || op == optable.ShiftInvalid {
		return 0
	}
	return a.fit(elem, maxLen)
}

func (a *AArch64) SupportedConvertLength(to, from simd.Kind, maxLen int, op optable.ConvertOp) int {
	n := min(a.fit(to, maxLen), a.fit(from, maxLen))
	if n == 0 {
		return 0
	}
	switch op {
	case optable.SignedToFloat, optable.UnsignedToFloat, optable.FloatToInt:
		// scvtf/ucvtf/fcvtzs operate on lanes of equal width.
		if to.Bits() != from.Bits() {
			return 0
		}
	case optable.ConvertInvalid:
		return 0
	}
	return n
}

func (a *AArch64) SupportedCompareLength(elem simd.Kind, cond optable.CanonicalCondition, maxLen int) int {
	if elem.IsFloat() && cond == optable.CanonicalBT {
		return 0
	}
	return a.fit(elem, maxLen)
}

func (a *AArch64) SupportedBlendLength(elem simd.Kind, maxLen int) int {
	return a.fit(elem, maxLen)
}

func (a *AArch64) SupportedPermuteLength(elem simd.Kind, maxLen int) int {
	return a.fit(elem, maxLen)
}

// SupportedCompressExpandLength: SVE compact handles 32- and 64-bit lanes.
func (a *AArch64) SupportedCompressExpandLength(elem simd.Kind, maxLen int) int {
	if !a.sve || elem.Bits() < 32 {
		return 0
	}
	return a.fit(elem, maxLen)
}

func (a *AArch64) SupportedMaskLogicLength(elem simd.Kind, maxLen int) int {
	return a.fit(elem, maxLen)
}

func (a *AArch64) SupportedReductionLength(elem simd.Kind, maxLen int, op optable.ArithOp) int {
	switch op {
	case optable.Add, optable.Min, optable.Max, optable.And, optable.Or, optable.Xor:
		return a.SupportedArithmeticLength(elem, maxLen, op)
	case optable.Mul:
		// No across-lanes multiply.
		return 0
	}
	return 0
}
