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

// Package optable maps the integer opcodes of the portable vector API to the
// internal operation tags used by the intrinsification engine, and defines the
// scalar lane semantics of every tag.
//
// All tables are immutable package-level values initialized once at startup,
// so lookups are safe from concurrent compilations. Each tag type has a zero
// value meaning "unresolved".
package optable

import "fmt"

// ArithOp is an elementwise arithmetic or logical operation, shared by the
// unary, binary, ternary and lane-reduction node kinds.
type ArithOp uint8

const (
	ArithInvalid ArithOp = iota

	// Unary.
	Abs
	Neg
	Sqrt
	BitCount
	TrailingZeros
	LeadingZeros

	// Binary.
	Add
	Sub
	Mul
	Div
	Min
	Max
	UMin
	UMax
	And
	Or
	Xor

	// Ternary.
	FMA
)

var arithNames = [...]string{
	ArithInvalid:  "invalid",
	Abs:           "abs",
	Neg:           "neg",
	Sqrt:          "sqrt",
	BitCount:      "bitcount",
	TrailingZeros: "tzcnt",
	LeadingZeros:  "lzcnt",
	Add:           "add",
	Sub:           "sub",
	Mul:           "mul",
	Div:           "div",
	Min:           "min",
	Max:           "max",
	UMin:          "umin",
	UMax:          "umax",
	And:           "and",
	Or:            "or",
	Xor:           "xor",
	FMA:           "fma",
}

func (op ArithOp) String() string {
	if int(op) < len(arithNames) {
		return arithNames[op]
	}
	return fmt.Sprintf("ArithOp(%d)", op)
}

// Arity returns the number of vector operands op takes.
func (op ArithOp) Arity() int {
	switch {
	case op >= Abs && op <= LeadingZeros:
		return 1
	case op >= Add && op <= Xor:
		return 2
	case op == FMA:
		return 3
	default:
		return 0
	}
}

// ShiftOp is a shift of every lane by a scalar count.
type ShiftOp uint8

const (
	ShiftInvalid ShiftOp = iota
	// Shl shifts left.
	Shl
	// Sar shifts right, replicating the sign bit.
	Sar
	// Shr shifts right, filling with zeros.
	Shr
)

func (op ShiftOp) String() string {
	switch op {
	case Shl:
		return "shl"
	case Sar:
		return "sar"
	case Shr:
		return "shr"
	default:
		return "invalid"
	}
}

// ConvertKind is the API-level conversion request.
type ConvertKind uint8

const (
	ConvertKindInvalid ConvertKind = iota
	// Cast converts lane values, treating integer inputs as signed.
	Cast
	// UCast converts lane values, treating integer inputs as unsigned.
	UCast
	// Reinterpret reuses the bits of the input vector.
	Reinterpret
)

func (k ConvertKind) String() string {
	switch k {
	case Cast:
		return "cast"
	case UCast:
		return "ucast"
	case Reinterpret:
		return "reinterpret"
	default:
		return "invalid"
	}
}

// ConvertOp is a concrete lane conversion between two element kinds.
type ConvertOp uint8

const (
	ConvertInvalid ConvertOp = iota
	// Identity converts between kinds of the same width and class.
	Identity
	SignExtend
	ZeroExtend
	Narrow
	SignedToFloat
	UnsignedToFloat
	FloatToInt
	FloatWiden
	FloatNarrow
	// BitCast reinterprets lane bits of equal width.
	BitCast
)

var convertNames = [...]string{
	ConvertInvalid:  "invalid",
	Identity:        "identity",
	SignExtend:      "sext",
	ZeroExtend:      "zext",
	Narrow:          "narrow",
	SignedToFloat:   "s2f",
	UnsignedToFloat: "u2f",
	FloatToInt:      "f2i",
	FloatWiden:      "fwiden",
	FloatNarrow:     "fnarrow",
	BitCast:         "bitcast",
}

func (op ConvertOp) String() string {
	if int(op) < len(convertNames) {
		return convertNames[op]
	}
	return fmt.Sprintf("ConvertOp(%d)", op)
}

// MaskReduceOp reduces a mask to a scalar.
type MaskReduceOp uint8

const (
	MaskReduceInvalid MaskReduceOp = iota
	// TrueCount counts set lanes.
	TrueCount
	// FirstTrue returns the lowest set lane index, or the lane count if none.
	FirstTrue
	// LastTrue returns the highest set lane index, or -1 if none.
	LastTrue
	// ToLong packs lane i into bit i of a 64-bit integer.
	ToLong
)

func (op MaskReduceOp) String() string {
	switch op {
	case TrueCount:
		return "truecount"
	case FirstTrue:
		return "firsttrue"
	case LastTrue:
		return "lasttrue"
	case ToLong:
		return "tolong"
	default:
		return "invalid"
	}
}

// MaskTestOp tests a mask and yields a boolean.
type MaskTestOp uint8

const (
	MaskTestInvalid MaskTestOp = iota
	AllTrue
	AnyTrue
)

func (op MaskTestOp) String() string {
	switch op {
	case AllTrue:
		return "alltrue"
	case AnyTrue:
		return "anytrue"
	default:
		return "invalid"
	}
}

// CompressOp selects between compress and expand.
type CompressOp uint8

const (
	CompressInvalid CompressOp = iota
	// Compress packs the selected lanes towards lane 0, zeroing the rest.
	Compress
	// Expand scatters the low lanes into the selected positions, zeroing the rest.
	Expand
)

func (op CompressOp) String() string {
	switch op {
	case Compress:
		return "compress"
	case Expand:
		return "expand"
	default:
		return "invalid"
	}
}
