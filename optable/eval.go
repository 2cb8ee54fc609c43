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
	"math"
	"math/bits"

	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/simd"
)

// Scalar lane semantics. Every function takes and returns raw lane bits as
// defined by package simd. Integer arithmetic wraps; float arithmetic follows
// IEEE 754 in the lane's own precision.

// Apply1 evaluates a unary op on one lane of kind k.
func (op ArithOp) Apply1(k simd.Kind, a uint64) uint64 {
	if k.IsFloat() {
		return evalFloatUnary(op, k, a)
	}
	fault.Guarantee(k.IsInteger(), "unary %v on %v lanes", op, k)
	w := k.Bits()
	switch op {
	case Abs:
		v := simd.AsInt(k, a)
		if v < 0 {
			v = -v
		}
		return simd.FromInt(k, v)
	case Neg:
		return simd.FromInt(k, -simd.AsInt(k, a))
	case BitCount:
		return uint64(bits.OnesCount64(simd.Truncate(k, a)))
	case TrailingZeros:
		return uint64(min(bits.TrailingZeros64(simd.Truncate(k, a)), w))
	case LeadingZeros:
		return uint64(bits.LeadingZeros64(simd.Truncate(k, a)) - (64 - w))
	}
	panic(fault.Unreachable(op))
}

func evalFloatUnary(op ArithOp, k simd.Kind, a uint64) uint64 {
	if k == simd.Float32 {
		x := math.Float32frombits(uint32(a))
		var r float32
		switch op {
		case Abs:
			r = float32(math.Abs(float64(x)))
		case Neg:
			r = -x
		case Sqrt:
			r = float32(math.Sqrt(float64(x)))
		default:
			panic(fault.Unreachable(op))
		}
		return uint64(math.Float32bits(r))
	}
	x := math.Float64frombits(a)
	switch op {
	case Abs:
		return math.Float64bits(math.Abs(x))
	case Neg:
		return math.Float64bits(-x)
	case Sqrt:
		return math.Float64bits(math.Sqrt(x))
	}
	panic(fault.Unreachable(op))
}

// Apply2 evaluates a binary op on two lanes of kind k. It returns false when
// the result is not defined at compile time (integer division by zero).
func (op ArithOp) Apply2(k simd.Kind, a, b uint64) (uint64, bool) {
	switch {
	case k.IsFloat():
		return evalFloatBinary(op, k, a, b), true
	case k.IsLogic():
		switch op {
		case And:
			return a & b & 1, true
		case Or:
			return (a | b) & 1, true
		case Xor:
			return (a ^ b) & 1, true
		}
		panic(fault.Unreachable(op))
	}
	fault.Guarantee(k.IsInteger(), "binary %v on %v lanes", op, k)
	x, y := simd.AsInt(k, a), simd.AsInt(k, b)
	ux, uy := simd.Truncate(k, a), simd.Truncate(k, b)
	switch op {
	case Add:
		return simd.FromInt(k, x+y), true
	case Sub:
		return simd.FromInt(k, x-y), true
	case Mul:
		return simd.FromInt(k, x*y), true
	case Div:
		if y == 0 {
			return 0, false
		}
		if k.IsUnsigned() {
			return simd.Truncate(k, ux/uy), true
		}
		if y == -1 {
			// Avoids the MinInt64 / -1 trap; wraps like the hardware.
			return simd.FromInt(k, -x), true
		}
		return simd.FromInt(k, x/y), true
	case Min:
		return simd.FromInt(k, min(x, y)), true
	case Max:
		return simd.FromInt(k, max(x, y)), true
	case UMin:
		return min(ux, uy), true
	case UMax:
		return max(ux, uy), true
	case And:
		return ux & uy, true
	case Or:
		return ux | uy, true
	case Xor:
		return ux ^ uy, true
	}
	panic(fault.Unreachable(op))
}

func evalFloatBinary(op ArithOp, k simd.Kind, a, b uint64) uint64 {
	if k == simd.Float32 {
		x, y := math.Float32frombits(uint32(a)), math.Float32frombits(uint32(b))
		var r float32
		switch op {
		case Add:
			r = x + y
		case Sub:
			r = x - y
		case Mul:
			r = x * y
		case Div:
			r = x / y
		case Min:
			r = float32(math.Min(float64(x), float64(y)))
		case Max:
			r = float32(math.Max(float64(x), float64(y)))
		default:
			panic(fault.Unreachable(op))
		}
		return uint64(math.Float32bits(r))
	}
	x, y := math.Float64frombits(a), math.Float64frombits(b)
	var r float64
	switch op {
	case Add:
		r = x + y
	case Sub:
		r = x - y
	case Mul:
		r = x * y
	case Div:
		r = x / y
	case Min:
		r = math.Min(x, y)
	case Max:
		r = math.Max(x, y)
	default:
		panic(fault.Unreachable(op))
	}
	return math.Float64bits(r)
}

// Apply3 evaluates a ternary op. Only float FMA is defined.
func (op ArithOp) Apply3(k simd.Kind, a, b, c uint64) uint64 {
	fault.Guarantee(op == FMA && k.IsFloat(), "ternary %v on %v lanes", op, k)
	if k == simd.Float32 {
		x := float64(math.Float32frombits(uint32(a)))
		y := float64(math.Float32frombits(uint32(b)))
		z := float64(math.Float32frombits(uint32(c)))
		return uint64(math.Float32bits(float32(math.FMA(x, y, z))))
	}
	return math.Float64bits(math.FMA(math.Float64frombits(a), math.Float64frombits(b), math.Float64frombits(c)))
}

// Identity returns the neutral element of a lane reduction by op.
func (op ArithOp) Identity(k simd.Kind) uint64 {
	switch op {
	case Add, Or, Xor, UMax:
		return simd.FromInt(k, 0)
	case Mul:
		return simd.FromInt(k, 1)
	case And, UMin:
		return simd.Truncate(k, math.MaxUint64)
	case Min:
		if k.IsFloat() {
			return simd.FromFloat(k, math.Inf(1))
		}
		return simd.FromInt(k, simd.MaxInt(k))
	case Max:
		if k.IsFloat() {
			return simd.FromFloat(k, math.Inf(-1))
		}
		return simd.FromInt(k, simd.MinInt(k))
	}
	panic(fault.Unreachable(op))
}

// Reduce folds lanes in index order starting from the identity of op.
func (op ArithOp) Reduce(k simd.Kind, lanes []uint64) uint64 {
	acc := op.Identity(k)
	for _, l := range lanes {
		acc, _ = op.Apply2(k, acc, l)
	}
	return acc
}

// Apply shifts lane a of kind k by count. The count is masked to the lane
// width, so shifting by the width or more wraps around.
func (op ShiftOp) Apply(k simd.Kind, a uint64, count int64) uint64 {
	fault.Guarantee(k.IsInteger(), "shift %v on %v lanes", op, k)
	n := uint(count) & uint(k.Bits()-1)
	switch op {
	case Shl:
		return simd.Truncate(k, a<<n)
	case Sar:
		return simd.FromInt(k, simd.AsInt(k, a)>>n)
	case Shr:
		return simd.Truncate(k, a) >> n
	}
	panic(fault.Unreachable(op))
}

// Compare evaluates condition c on two lanes of kind k with the API's float
// semantics (see Requested).
func (c Condition) Compare(k simd.Kind, a, b uint64) bool {
	switch {
	case k.IsFloat():
		return Requested(c).Eval(simd.AsFloat(k, a), simd.AsFloat(k, b))
	case c.IsUnsigned():
		ua, ub := simd.Truncate(k, a), simd.Truncate(k, b)
		switch c {
		case ULT:
			return ua < ub
		case ULE:
			return ua <= ub
		case UGT:
			return ua > ub
		case UGE:
			return ua >= ub
		}
	default:
		x, y := simd.AsInt(k, a), simd.AsInt(k, b)
		switch c {
		case EQ:
			return x == y
		case NE:
			return x != y
		case LT:
			return x < y
		case LE:
			return x <= y
		case GT:
			return x > y
		case GE:
			return x >= y
		}
	}
	panic(fault.Unreachable(c))
}

// Eval applies a canonical comparison, honoring its mirror, negate and
// unordered flags.
func (cc Canonical) Eval(k simd.Kind, a, b uint64) bool {
	if cc.Mirror {
		a, b = b, a
	}
	var r bool
	switch {
	case k.IsFloat():
		x, y := simd.AsFloat(k, a), simd.AsFloat(k, b)
		if x != x || y != y {
			r = cc.UnorderedIsTrue
		} else if cc.Cond == CanonicalEQ {
			r = x == y
		} else {
			r = x < y
		}
	case cc.Cond == CanonicalEQ:
		r = simd.Truncate(k, a) == simd.Truncate(k, b)
	case cc.Cond == CanonicalBT:
		r = simd.Truncate(k, a) < simd.Truncate(k, b)
	default:
		r = simd.AsInt(k, a) < simd.AsInt(k, b)
	}
	return r != cc.Negate
}

// Apply converts lane a from kind from to kind to.
func (op ConvertOp) Apply(from, to simd.Kind, a uint64) uint64 {
	switch op {
	case Identity, BitCast:
		return simd.Truncate(to, a)
	case SignExtend:
		return simd.FromInt(to, simd.AsInt(from.SameWidthInt(), a))
	case ZeroExtend:
		return simd.Truncate(to, simd.Truncate(from, a))
	case Narrow:
		return simd.Truncate(to, a)
	case SignedToFloat:
		return simd.FromFloat(to, float64(simd.AsInt(from.SameWidthInt(), a)))
	case UnsignedToFloat:
		return simd.FromFloat(to, float64(simd.Truncate(from, a)))
	case FloatToInt:
		return simd.FromInt(to, simd.SaturatingFloatToInt(to, simd.AsFloat(from, a)))
	case FloatWiden, FloatNarrow:
		return simd.FromFloat(to, simd.AsFloat(from, a))
	}
	panic(fault.Unreachable(op))
}

// Apply reduces a mask to a scalar.
func (op MaskReduceOp) Apply(lanes []bool) int64 {
	switch op {
	case TrueCount:
		n := int64(0)
		for _, l := range lanes {
			if l {
				n++
			}
		}
		return n
	case FirstTrue:
		for i, l := range lanes {
			if l {
				return int64(i)
			}
		}
		return int64(len(lanes))
	case LastTrue:
		for i := len(lanes) - 1; i >= 0; i-- {
			if lanes[i] {
				return int64(i)
			}
		}
		return -1
	case ToLong:
		var v uint64
		for i, l := range lanes {
			if l && i < 64 {
				v |= 1 << i
			}
		}
		return int64(v)
	}
	panic(fault.Unreachable(op))
}

// Apply tests a mask.
func (op MaskTestOp) Apply(lanes []bool) bool {
	switch op {
	case AllTrue:
		for _, l := range lanes {
			if !l {
				return false
			}
		}
		return true
	case AnyTrue:
		for _, l := range lanes {
			if l {
				return true
			}
		}
		return false
	}
	panic(fault.Unreachable(op))
}
