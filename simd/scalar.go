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

package simd

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Lane values are stored as raw bits in a uint64, truncated to the lane
// width. The helpers below move between raw bits and Go values for a given
// kind.

func signExtend[T constraints.Signed](bits uint64) int64 {
	return int64(T(bits))
}

func zeroExtend[T constraints.Unsigned](bits uint64) uint64 {
	return uint64(T(bits))
}

// Truncate keeps the low k.Bits() bits of bits.
func Truncate(k Kind, bits uint64) uint64 {
	switch k.Bits() {
	case 1:
		return bits & 1
	case 8:
		return zeroExtend[uint8](bits)
	case 16:
		return zeroExtend[uint16](bits)
	case 32:
		return zeroExtend[uint32](bits)
	default:
		return bits
	}
}

// AsInt interprets bits as a lane of kind k and returns it as an int64,
// sign-extending signed kinds and zero-extending unsigned ones. Float lanes
// are converted by value.
func AsInt(k Kind, bits uint64) int64 {
	switch k {
	case Int8:
		return signExtend[int8](bits)
	case Int16:
		return signExtend[int16](bits)
	case Int32:
		return signExtend[int32](bits)
	case Int64:
		return int64(bits)
	case Uint8, Uint16, Uint32, Uint64, Logic:
		return int64(Truncate(k, bits))
	case Float32, Float64:
		return int64(AsFloat(k, bits))
	default:
		return 0
	}
}

// AsFloat interprets bits as a lane of kind k and returns it as a float64.
// Integer lanes are converted by value.
func AsFloat(k Kind, bits uint64) float64 {
	switch k {
	case Float32:
		return float64(math.Float32frombits(uint32(bits)))
	case Float64:
		return math.Float64frombits(bits)
	case Uint64:
		return float64(bits)
	default:
		return float64(AsInt(k, bits))
	}
}

// FromInt encodes v as a lane of kind k, with two's-complement wraparound
// for integer kinds and a value conversion for float kinds.
func FromInt(k Kind, v int64) uint64 {
	switch k {
	case Float32, Float64:
		return FromFloat(k, float64(v))
	case Logic:
		if v != 0 {
			return 1
		}
		return 0
	default:
		return Truncate(k, uint64(v))
	}
}

// FromFloat encodes f as a lane of kind k. For integer kinds the value is
// converted with saturation and NaN mapped to zero.
func FromFloat(k Kind, f float64) uint64 {
	switch k {
	case Float32:
		return uint64(math.Float32bits(float32(f)))
	case Float64:
		return math.Float64bits(f)
	default:
		return FromInt(k, SaturatingFloatToInt(k, f))
	}
}

// FromBool encodes a logic lane.
func FromBool(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// MinInt and MaxInt return the representable range of integer kind k as
// int64 values. For Uint64 MaxInt is clamped to math.MaxInt64.
func MinInt(k Kind) int64 {
	if k.IsUnsigned() {
		return 0
	}
	return -1 << (k.Bits() - 1)
}

func MaxInt(k Kind) int64 {
	if k == Uint64 {
		return math.MaxInt64
	}
	if k.IsUnsigned() {
		return 1<<k.Bits() - 1
	}
	return 1<<(k.Bits()-1) - 1
}

// SaturatingFloatToInt converts f to integer kind k: NaN becomes 0 and out
// of range values clamp to the nearest bound.
func SaturatingFloatToInt(k Kind, f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f <= float64(MinInt(k)):
		return MinInt(k)
	case f >= float64(MaxInt(k)):
		return MaxInt(k)
	default:
		return int64(f)
	}
}
