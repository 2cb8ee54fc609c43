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
	"strings"

	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

// Feature is an x86-64 instruction set extension.
type Feature uint16

const (
	SSE2 Feature = 1 << iota
	SSE41
	SSE42
	AVX
	AVX2
	FMA
	AVX512F
	AVX512BW
	AVX512VL
	AVX512DQ
	AVX512CD
	AVX512VBMI
	AVX512VBMI2
	AVX512VPOPCNTDQ
)

var featureNames = []struct {
	f    Feature
	name string
}{
	{SSE2, "sse2"},
	{SSE41, "sse4.1"},
	{SSE42, "sse4.2"},
	{AVX, "avx"},
	{AVX2, "avx2"},
	{FMA, "fma"},
	{AVX512F, "avx512f"},
	{AVX512BW, "avx512bw"},
	{AVX512VL, "avx512vl"},
	{AVX512DQ, "avx512dq"},
	{AVX512CD, "avx512cd"},
	{AVX512VBMI, "avx512vbmi"},
	{AVX512VBMI2, "avx512vbmi2"},
	{AVX512VPOPCNTDQ, "avx512vpopcntdq"},
}

// String lists the set features, e.g. "sse2+avx+avx2".
func (f Feature) String() string {
	var parts []string
	for _, fn := range featureNames {
		if f&fn.f != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Common feature levels.
var (
	AVXFeatures    = []Feature{SSE2, SSE41, SSE42, AVX}
	AVX2Features   = []Feature{SSE2, SSE41, SSE42, AVX, AVX2, FMA}
	AVX512Features = []Feature{SSE2, SSE41, SSE42, AVX, AVX2, FMA,
		AVX512F, AVX512BW, AVX512VL, AVX512DQ, AVX512CD}
)

// AMD64 is the capability model of an x86-64 CPU with a given feature set.
//
// Targets below AVX are not vectorized at all. Vector widths follow the
// register file: 16 bytes (XMM), 32 bytes (YMM, integer ops need AVX2) and
// 64 bytes (ZMM, sub-word integer ops need AVX512BW).
type AMD64 struct {
	features Feature
}

// NewAMD64 returns the oracle for a CPU with the given features.
func NewAMD64(features ...Feature) *AMD64 {
	var f Feature
	for _, x := range features {
		f |= x
	}
	return &AMD64{features: f}
}

// Has reports whether all of want are available.
func (a *AMD64) Has(want Feature) bool {
	return a.features&want == want
}

// Features returns the feature set.
func (a *AMD64) Features() Feature {
	return a.features
}

func (a *AMD64) Name() string {
	switch {
	case a.fullAVX512():
		return "avx512"
	case a.Has(AVX512F):
		return "avx512f"
	case a.Has(AVX2):
		return "avx2"
	case a.Has(AVX):
		return "avx"
	default:
		return "sse"
	}
}

func (a *AMD64) fullAVX512() bool {
	return a.Has(AVX512F | AVX512BW | AVX512VL | AVX512DQ)
}

func (a *AMD64) MaxVectorBytes() int {
	switch {
	case !a.Has(AVX):
		return 0
	case a.Has(AVX512F):
		return 64
	default:
		return 32
	}
}

// LogicVectorsAreBitmasks is true unless the full AVX-512 opmask support is
// available, in which case masks live in k registers.
func (a *AMD64) LogicVectorsAreBitmasks() bool {
	return !a.fullAVX512()
}

// moveBytes is the widest vector for plain data movement of elem.
func (a *AMD64) moveBytes(simd.Kind) int {
	return a.MaxVectorBytes()
}

// floatBytes is the widest vector for float arithmetic.
func (a *AMD64) floatBytes() int {
	return a.MaxVectorBytes()
}

// intBytes is the widest vector for integer arithmetic on elem.
func (a *AMD64) intBytes(elem simd.Kind) int {
	switch {
	case !a.Has(AVX):
		return 0
	case a.Has(AVX512F) && (elem.Bits() >= 32 || a.Has(AVX512BW)):
		return 64
	case a.Has(AVX2):
		return 32
	default:
		return 16
	}
}

// vl reports whether an AVX-512 instruction can be used at the given width:
// 64-byte forms need only the base extension, narrower ones also need VL.
func (a *AMD64) vl(ext Feature, bytes int) bool {
	if bytes >= 64 {
		return a.Has(ext)
	}
	return a.Has(ext | AVX512VL)
}

func (a *AMD64) fit(elem simd.Kind, maxLen, maxBytes int) int {
	return fitLength(elem, maxLen, 4, maxBytes)
}

// fitWhen fits maxLen to maxBytes and then checks cond at the resulting
// width.
func (a *AMD64) fitWhen(elem simd.Kind, maxLen, maxBytes int, cond func(bytes int) bool) int {
	n := a.fit(elem, maxLen, maxBytes)
	if n == 0 || !cond(n*elem.Bytes()) {
		return 0
	}
	return n
}

func (a *AMD64) SupportedMoveLength(elem simd.Kind, maxLen int) int {
	return a.fit(elem, maxLen, a.moveBytes(elem))
}

// SupportedMaskedMoveLength: AVX has masked moves for 32- and 64-bit lanes
// (vmaskmov); sub-word lanes need AVX512BW.
func (a *AMD64) SupportedMaskedMoveLength(elem simd.Kind, maxLen int) int {
	if elem.Bits() >= 32 {
		return a.fitWhen(elem, maxLen, a.moveBytes(elem), func(b int) bool {
			return b <= 32 || a.Has(AVX512F)
		})
	}
	return a.fitWhen(elem, maxLen, a.moveBytes(elem), func(b int) bool { return a.vl(AVX512BW, b) })
}

func (a *AMD64) SupportedArithmeticLength(elem simd.Kind, maxLen int, op optable.ArithOp) int {
	if elem.IsFloat() {
		switch op {
		case optable.Add, optable.Sub, optable.Mul, optable.Div, optable.Min, optable.Max,
			optable.Abs, optable.Neg, optable.Sqrt:
			return a.fit(elem, maxLen, a.floatBytes())
		case optable.FMA:
			if !a.Has(FMA) {
				return 0
			}
			return a.fit(elem, maxLen, a.floatBytes())
		}
		return 0
	}
	if !elem.IsInteger() {
		return 0
	}
	w := elem.Bits()
	bytes := a.intBytes(elem)
	switch op {
	case optable.Add, optable.Sub, optable.Neg, optable.And, optable.Or, optable.Xor:
		return a.fit(elem, maxLen, bytes)
	case optable.Mul:
		switch w {
		case 8:
			return 0
		case 64:
			return a.fitWhen(elem, maxLen, bytes, func(b int) bool { return a.vl(AVX512DQ, b) })
		}
		return a.fit(elem, maxLen, bytes)
	case optable.Min, optable.Max, optable.UMin, optable.UMax, optable.Abs:
		if w == 64 {
			return a.fitWhen(elem, maxLen, bytes, func(b int) bool { return a.vl(AVX512F, b) })
		}
		return a.fit(elem, maxLen, bytes)
	case optable.BitCount:
		if w < 32 {
			return 0
		}
		return a.fitWhen(elem, maxLen, bytes, func(b int) bool { return a.vl(AVX512VPOPCNTDQ, b) })
	case optable.LeadingZeros:
		if w < 32 {
			return 0
		}
		return a.fitWhen(elem, maxLen, bytes, func(b int) bool { return a.vl(AVX512CD, b) })
	}
	// Integer division and trailing zero count have no vector instruction.
	return 0
}

// SupportedShiftLength: x86 has no byte shifts, so 8-bit lanes report a
// single lane. Arithmetic right shifts of 64-bit lanes need AVX-512.
func (a *AMD64) SupportedShiftLength(elem simd.Kind, maxLen int, op optable.ShiftOp) int {
	if !elem.IsInteger() || op == optable.ShiftInvalid {
		return 0
	}
	if elem.Bits() == 8 {
		return min(maxLen, 1)
	}
	if elem.Bits() == 64 && op == optable.Sar {
		return a.fitWhen(elem, maxLen, a.intBytes(elem), func(b int) bool { return a.vl(AVX512F, b) })
	}
	return a.fit(elem, maxLen, a.intBytes(elem))
}

func (a *AMD64) SupportedConvertLength(to, from simd.Kind, maxLen int, op optable.ConvertOp) int {
	wide := max(to.Bytes(), from.Bytes())
	bytesFor := func(k simd.Kind) int {
		if k.IsFloat() {
			return a.floatBytes()
		}
		return a.intBytes(k)
	}
	n := min(a.fit(to, maxLen, bytesFor(to)), a.fit(from, maxLen, bytesFor(from)))
	if n == 0 {
		return 0
	}
	ok := false
	switch op {
	case optable.Identity, optable.BitCast, optable.FloatWiden, optable.FloatNarrow:
		ok = true
	case optable.SignExtend, optable.ZeroExtend:
		ok = a.Has(SSE41)
	case optable.Narrow:
		// vpmov*: dword and qword sources need AVX512F, word sources AVX512BW.
		if from.Bits() == 16 {
			ok = a.vl(AVX512BW, n*wide)
		} else {
			ok = a.vl(AVX512F, n*wide)
		}
	case optable.SignedToFloat:
		switch from.Bits() {
		case 32:
			ok = true
		case 64:
			ok = a.vl(AVX512DQ, n*wide)
		}
	case optable.UnsignedToFloat:
		switch from.Bits() {
		case 32:
			ok = a.vl(AVX512F, n*wide)
		case 64:
			ok = a.vl(AVX512DQ, n*wide)
		}
	case optable.FloatToInt:
		switch to.Bits() {
		case 32:
			ok = true
		case 64:
			ok = a.vl(AVX512DQ, n*wide)
		}
	}
	if !ok {
		return 0
	}
	return n
}

// SupportedCompareLength: equality and signed less-than exist for every
// lane width; unsigned comparisons need AVX-512 (vpcmpu).
func (a *AMD64) SupportedCompareLength(elem simd.Kind, cond optable.CanonicalCondition, maxLen int) int {
	if elem.IsFloat() {
		if cond == optable.CanonicalBT {
			return 0
		}
		return a.fit(elem, maxLen, a.floatBytes())
	}
	bytes := a.intBytes(elem)
	if cond == optable.CanonicalBT {
		ext := AVX512F
		if elem.Bits() < 32 {
			ext = AVX512BW
		}
		return a.fitWhen(elem, maxLen, bytes, func(b int) bool { return a.vl(ext, b) })
	}
	return a.fit(elem, maxLen, bytes)
}

func (a *AMD64) SupportedBlendLength(elem simd.Kind, maxLen int) int {
	if elem.IsFloat() {
		return a.fit(elem, maxLen, a.floatBytes())
	}
	return a.fit(elem, maxLen, a.intBytes(elem))
}

// SupportedPermuteLength: pshufb handles any 16-byte permutation; wider
// vectors need lane-crossing permutes (vpermd/vpermq, vpermw, vpermb).
func (a *AMD64) SupportedPermuteLength(elem simd.Kind, maxLen int) int {
	return a.fitWhen(elem, maxLen, a.intBytes(elem.SameWidthInt()), func(b int) bool {
		if b <= 16 {
			return true
		}
		switch elem.Bits() {
		case 8:
			return a.vl(AVX512VBMI, b)
		case 16:
			return a.vl(AVX512BW, b)
		default:
			return b == 32 || a.Has(AVX512F)
		}
	})
}

func (a *AMD64) SupportedCompressExpandLength(elem simd.Kind, maxLen int) int {
	ext := AVX512F
	if elem.Bits() < 32 {
		ext = AVX512VBMI2
	}
	return a.fitWhen(elem, maxLen, a.moveBytes(elem), func(b int) bool { return a.vl(ext, b) })
}

func (a *AMD64) SupportedMaskLogicLength(elem simd.Kind, maxLen int) int {
	return a.fit(elem, maxLen, a.intBytes(elem.SameWidthInt()))
}

func (a *AMD64) SupportedReductionLength(elem simd.Kind, maxLen int, op optable.ArithOp) int {
	switch op {
	case optable.Add, optable.Mul, optable.Min, optable.Max, optable.And, optable.Or, optable.Xor:
		return a.SupportedArithmeticLength(elem, maxLen, op)
	}
	return 0
}
