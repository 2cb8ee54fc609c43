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

// Package simd describes the layout of vector values: element kinds, lane
// descriptors (shapes) and compile-time constant lane values.
//
// A Shape is the pair (element kind, lane count). For logical (mask) vectors
// the shape also records which element kind the mask selects and how the
// target represents it, either as an integer bitmask vector or as a dedicated
// predicate register. The representation is resolved lazily, once the target
// architecture is known.
package simd

import (
	"fmt"

	"github.com/ajroetker/vecapi/fault"
)

// Kind is the element kind of a vector lane.
type Kind uint8

const (
	// Invalid is the zero Kind; it marks an unresolved element kind.
	Invalid Kind = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	// Logic is a boolean lane of a mask vector.
	Logic
)

var kindNames = [...]string{
	Invalid: "invalid",
	Int8:    "i8",
	Int16:   "i16",
	Int32:   "i32",
	Int64:   "i64",
	Uint8:   "u8",
	Uint16:  "u16",
	Uint32:  "u32",
	Uint64:  "u64",
	Float32: "f32",
	Float64: "f64",
	Logic:   "bool",
}

// String returns a short name such as "i32" or "f64".
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Bits returns the width of one lane in bits. Logic lanes are one bit wide.
func (k Kind) Bits() int {
	switch k {
	case Int8, Uint8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32, Float32:
		return 32
	case Int64, Uint64, Float64:
		return 64
	case Logic:
		return 1
	default:
		return 0
	}
}

// Bytes returns the width of one lane in bytes, at least 1.
func (k Kind) Bytes() int {
	return max(k.Bits()/8, 1)
}

// IsInteger reports whether k is a signed or unsigned integer kind.
func (k Kind) IsInteger() bool {
	return k >= Int8 && k <= Uint64
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool {
	return k >= Int8 && k <= Int64
}

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool {
	return k >= Uint8 && k <= Uint64
}

// IsFloat reports whether k is Float32 or Float64.
func (k Kind) IsFloat() bool {
	return k == Float32 || k == Float64
}

// IsLogic reports whether k is Logic.
func (k Kind) IsLogic() bool {
	return k == Logic
}

// IntOfWidth returns the integer kind with the given width and signedness,
// or Invalid if there is none.
func IntOfWidth(bits int, signed bool) Kind {
	var k Kind
	switch bits {
	case 8:
		k = Int8
	case 16:
		k = Int16
	case 32:
		k = Int32
	case 64:
		k = Int64
	default:
		return Invalid
	}
	if !signed {
		k += Uint8 - Int8
	}
	return k
}

// Widen returns the integer kind twice as wide as k with the same
// signedness, or Invalid for 64-bit and non-integer kinds.
func (k Kind) Widen() Kind {
	if !k.IsInteger() || k.Bits() == 64 {
		return Invalid
	}
	return IntOfWidth(k.Bits()*2, k.IsSigned())
}

// SameWidthInt returns the signed integer kind of the same width as k.
// It is the lane kind of a bitmask for a mask over k.
func (k Kind) SameWidthInt() Kind {
	if k.IsLogic() || k == Invalid {
		return Invalid
	}
	return IntOfWidth(k.Bits(), true)
}

// LogicRepr is how a target represents logical (mask) vectors.
type LogicRepr uint8

const (
	// ReprUnresolved means the target is not yet known.
	ReprUnresolved LogicRepr = iota
	// ReprBitmask represents a mask as an integer vector with all bits of a
	// lane set (true) or clear (false), lanes as wide as the masked element.
	ReprBitmask
	// ReprPredicate represents a mask in a dedicated predicate register with
	// one bit per lane.
	ReprPredicate
)

func (r LogicRepr) String() string {
	switch r {
	case ReprBitmask:
		return "bitmask"
	case ReprPredicate:
		return "predicate"
	default:
		return "unresolved"
	}
}

// Shape is a lane descriptor: element kind and lane count.
//
// The zero Shape is unresolved. A resolved Shape always has Lanes > 0.
type Shape struct {
	// Elem is the lane kind. Logic for masks.
	Elem Kind

	// Lanes is the number of lanes.
	Lanes int

	// MaskOf is the element kind a mask selects; Invalid unless Elem is Logic.
	MaskOf Kind

	// Repr is the target representation of a mask; ReprUnresolved unless Elem
	// is Logic and the target is known.
	Repr LogicRepr
}

// Vector returns the shape of a data vector.
func Vector(elem Kind, lanes int) Shape {
	fault.Guarantee(lanes > 0, "vector shape with %d lanes", lanes)
	fault.Guarantee(elem != Invalid && !elem.IsLogic(), "vector shape with element kind %v", elem)
	return Shape{Elem: elem, Lanes: lanes}
}

// Mask returns the shape of a mask over lanes of kind of.
func Mask(of Kind, lanes int) Shape {
	fault.Guarantee(lanes > 0, "mask shape with %d lanes", lanes)
	fault.Guarantee(of != Invalid && !of.IsLogic(), "mask over element kind %v", of)
	return Shape{Elem: Logic, Lanes: lanes, MaskOf: of}
}

// Resolved reports whether the shape is known.
func (s Shape) Resolved() bool {
	return s.Lanes > 0
}

// IsMask reports whether s describes a logical vector.
func (s Shape) IsMask() bool {
	return s.Elem.IsLogic()
}

// WithRepr returns s with the given mask representation. Non-mask shapes are
// returned unchanged.
func (s Shape) WithRepr(r LogicRepr) Shape {
	if !s.IsMask() {
		return s
	}
	s.Repr = r
	return s
}

// WithLanes returns s with a different lane count.
func (s Shape) WithLanes(lanes int) Shape {
	fault.Guarantee(lanes > 0, "shape with %d lanes", lanes)
	s.Lanes = lanes
	return s
}

// WithElem returns a data shape with the same lane count and element kind k.
func (s Shape) WithElem(k Kind) Shape {
	return Vector(k, s.Lanes)
}

// ElementKind returns the kind whose width determines the storage of one
// lane: the element kind for data vectors and the masked kind for masks.
func (s Shape) ElementKind() Kind {
	if s.IsMask() {
		return s.MaskOf
	}
	return s.Elem
}

// LaneBits returns the storage width of one lane. Bitmask (and unresolved)
// masks are as wide as the element they select; predicates use one bit.
func (s Shape) LaneBits() int {
	if s.IsMask() {
		if s.Repr == ReprPredicate {
			return 1
		}
		return s.MaskOf.Bits()
	}
	return s.Elem.Bits()
}

// Bytes returns the storage size of the whole vector, rounded up to a byte.
func (s Shape) Bytes() int {
	return (s.Lanes*s.LaneBits() + 7) / 8
}

// BitmaskShape returns the integer vector shape that stores mask s as a
// bitmask.
func (s Shape) BitmaskShape() Shape {
	fault.Guarantee(s.IsMask(), "bitmask shape of non-mask %v", s)
	return Vector(s.MaskOf.SameWidthInt(), s.Lanes)
}

// Compatible reports whether two shapes describe the same lanes, ignoring
// an unresolved mask representation on either side.
func (s Shape) Compatible(o Shape) bool {
	if s.Elem != o.Elem || s.Lanes != o.Lanes || s.MaskOf != o.MaskOf {
		return false
	}
	return s.Repr == o.Repr || s.Repr == ReprUnresolved || o.Repr == ReprUnresolved
}

// String returns a compact description such as "<4 x i32>" or
// "<8 x bool(f32) bitmask>".
func (s Shape) String() string {
	if !s.Resolved() {
		return "<unresolved>"
	}
	if s.IsMask() {
		if s.Repr == ReprUnresolved {
			return fmt.Sprintf("<%d x bool(%v)>", s.Lanes, s.MaskOf)
		}
		return fmt.Sprintf("<%d x bool(%v) %v>", s.Lanes, s.MaskOf, s.Repr)
	}
	return fmt.Sprintf("<%d x %v>", s.Lanes, s.Elem)
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
