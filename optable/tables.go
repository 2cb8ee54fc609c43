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

package optable

import (
	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/simd"
)

// API opcodes, as passed in the integer opcode argument of the portable
// vector API entry points.
const (
	OpAbs           = 0
	OpNeg           = 1
	OpSqrt          = 2
	OpBitCount      = 3
	OpAdd           = 4
	OpSub           = 5
	OpMul           = 6
	OpDiv           = 7
	OpMin           = 8
	OpMax           = 9
	OpAnd           = 10
	OpOr            = 11
	OpXor           = 12
	OpFMA           = 13
	OpLShift        = 14
	OpRShift        = 15
	OpURShift       = 16
	OpCast          = 17
	OpUCast         = 18
	OpReinterpret   = 19
	OpMaskLastTrue  = 20
	OpMaskFirstTrue = 21
	OpMaskTrueCount = 22
	OpMaskToLong    = 23
	OpExpand        = 24
	OpCompress      = 25
	OpTZCount       = 29
	OpLZCount       = 30
	OpUMin          = 33
	OpUMax          = 34
)

// API comparison codes.
const (
	BTEq       = 0
	BTGt       = 1
	BTOverflow = 2
	BTLt       = 3
	BTNe       = 4
	BTLe       = 5
	BTGe       = 7

	// BTUnsigned is or-ed into an ordering code to compare as unsigned.
	BTUnsigned = 16
	BTUlt      = BTUnsigned | BTLt
	BTUgt      = BTUnsigned | BTGt
	BTUle      = BTUnsigned | BTLe
	BTUge      = BTUnsigned | BTGe
)

// API mask test codes reuse the comparison codes.
const (
	TestAnyTrue = BTNe
	TestAllTrue = BTOverflow
)

// API modes of the bits-coerced constructor.
const (
	ModeBroadcast  = 0
	ModeBitsToMask = 1
)

var (
	intUnary = map[int]ArithOp{
		OpAbs:      Abs,
		OpNeg:      Neg,
		OpBitCount: BitCount,
		OpTZCount:  TrailingZeros,
		OpLZCount:  LeadingZeros,
	}
	floatUnary = map[int]ArithOp{
		OpAbs:  Abs,
		OpNeg:  Neg,
		OpSqrt: Sqrt,
	}

	intBinary = map[int]ArithOp{
		OpAdd:  Add,
		OpSub:  Sub,
		OpMul:  Mul,
		OpDiv:  Div,
		OpMin:  Min,
		OpMax:  Max,
		OpUMin: UMin,
		OpUMax: UMax,
		OpAnd:  And,
		OpOr:   Or,
		OpXor:  Xor,
	}
	floatBinary = map[int]ArithOp{
		OpAdd: Add,
		OpSub: Sub,
		OpMul: Mul,
		OpDiv: Div,
		OpMin: Min,
		OpMax: Max,
	}
	logicBinary = map[int]ArithOp{
		OpAnd: And,
		OpOr:  Or,
		OpXor: Xor,
	}

	floatTernary = map[int]ArithOp{
		OpFMA: FMA,
	}

	shiftOps = map[int]ShiftOp{
		OpLShift:  Shl,
		OpRShift:  Sar,
		OpURShift: Shr,
	}

	convertKinds = map[int]ConvertKind{
		OpCast:        Cast,
		OpUCast:       UCast,
		OpReinterpret: Reinterpret,
	}

	conditions = map[int]Condition{
		BTEq:  EQ,
		BTNe:  NE,
		BTLt:  LT,
		BTLe:  LE,
		BTGt:  GT,
		BTGe:  GE,
		BTUlt: ULT,
		BTUle: ULE,
		BTUgt: UGT,
		BTUge: UGE,
	}

	maskReductions = map[int]MaskReduceOp{
		OpMaskTrueCount: TrueCount,
		OpMaskFirstTrue: FirstTrue,
		OpMaskLastTrue:  LastTrue,
		OpMaskToLong:    ToLong,
	}

	maskTests = map[int]MaskTestOp{
		TestAllTrue: AllTrue,
		TestAnyTrue: AnyTrue,
	}

	compressOps = map[int]CompressOp{
		OpCompress: Compress,
		OpExpand:   Expand,
	}

	intReductions = map[int]ArithOp{
		OpAdd: Add,
		OpMul: Mul,
		OpMin: Min,
		OpMax: Max,
		OpAnd: And,
		OpOr:  Or,
		OpXor: Xor,
	}
	floatReductions = map[int]ArithOp{
		OpAdd: Add,
		OpMul: Mul,
		OpMin: Min,
		OpMax: Max,
	}
)

// Unary returns the unary op for opcode on lanes of kind k.
func Unary(opcode int, k simd.Kind) (ArithOp, bool) {
	switch {
	case k.IsFloat():
		op, ok := floatUnary[opcode]
		return op, ok
	case k.IsInteger():
		op, ok := intUnary[opcode]
		return op, ok
	}
	return ArithInvalid, false
}

// Binary returns the binary op for opcode on lanes of kind k. Mask lanes
// support the logical ops only.
func Binary(opcode int, k simd.Kind) (ArithOp, bool) {
	var table map[int]ArithOp
	switch {
	case k.IsFloat():
		table = floatBinary
	case k.IsInteger():
		table = intBinary
	case k.IsLogic():
		table = logicBinary
	default:
		return ArithInvalid, false
	}
	op, ok := table[opcode]
	return op, ok
}

// Ternary returns the ternary op for opcode on float lanes. There are no
// integer ternary ops; reaching one is an internal-consistency violation.
func Ternary(opcode int, k simd.Kind) (ArithOp, bool) {
	fault.Guarantee(k.IsFloat(), "unexpected integer ternary op %d on %v lanes", opcode, k)
	op, ok := floatTernary[opcode]
	return op, ok
}

// Shift returns the shift op for opcode. Only integer lanes can be shifted.
func Shift(opcode int, k simd.Kind) (ShiftOp, bool) {
	if !k.IsInteger() {
		return ShiftInvalid, false
	}
	op, ok := shiftOps[opcode]
	return op, ok
}

// Compare returns the condition for an API comparison code on lanes of kind
// k. Unsigned comparisons are rejected for float lanes.
func Compare(code int, k simd.Kind) (Condition, bool) {
	c, ok := conditions[code]
	if !ok || (k.IsFloat() && c.IsUnsigned()) {
		return CondInvalid, false
	}
	return c, true
}

// MaskReduction returns the mask reduction for opcode.
func MaskReduction(opcode int) (MaskReduceOp, bool) {
	op, ok := maskReductions[opcode]
	return op, ok
}

// MaskTest returns the mask test for an API test code.
func MaskTest(code int) (MaskTestOp, bool) {
	op, ok := maskTests[code]
	return op, ok
}

// CompressExpand returns the compress/expand op for opcode.
func CompressExpand(opcode int) (CompressOp, bool) {
	op, ok := compressOps[opcode]
	return op, ok
}

// Reduction returns the lane reduction op for opcode on lanes of kind k.
func Reduction(opcode int, k simd.Kind) (ArithOp, bool) {
	switch {
	case k.IsFloat():
		op, ok := floatReductions[opcode]
		return op, ok
	case k.IsInteger():
		op, ok := intReductions[opcode]
		return op, ok
	}
	return ArithInvalid, false
}

// Convert resolves an API conversion opcode for lanes of kind from to lanes
// of kind to. Reinterpretation resolves to a bit cast only between kinds of
// equal width; wider or narrower reinterpretations change the lane count
// and are handled by the caller.
func Convert(opcode int, from, to simd.Kind) (ConvertOp, bool) {
	kind, ok := convertKinds[opcode]
	if !ok {
		return ConvertInvalid, false
	}
	op := ResolveConvert(kind, from, to)
	return op, op != ConvertInvalid
}

// ConversionKind returns the conversion request named by an API opcode.
func ConversionKind(opcode int) (ConvertKind, bool) {
	k, ok := convertKinds[opcode]
	return k, ok
}

// ResolveConvert returns the concrete conversion for a conversion request.
func ResolveConvert(kind ConvertKind, from, to simd.Kind) ConvertOp {
	if from == simd.Invalid || to == simd.Invalid || from.IsLogic() || to.IsLogic() {
		return ConvertInvalid
	}
	if kind == Reinterpret {
		if from.Bits() != to.Bits() {
			return ConvertInvalid
		}
		if from == to {
			return Identity
		}
		return BitCast
	}
	signed := kind == Cast
	switch {
	case from.IsInteger() && to.IsInteger():
		switch {
		case from.Bits() == to.Bits():
			return Identity
		case from.Bits() > to.Bits():
			return Narrow
		case signed && from.IsSigned():
			return SignExtend
		default:
			return ZeroExtend
		}
	case from.IsInteger() && to.IsFloat():
		if signed && from.IsSigned() {
			return SignedToFloat
		}
		return UnsignedToFloat
	case from.IsFloat() && to.IsInteger():
		return FloatToInt
	default:
		switch {
		case from == to:
			return Identity
		case from.Bits() < to.Bits():
			return FloatWiden
		default:
			return FloatNarrow
		}
	}
}
