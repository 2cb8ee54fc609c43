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
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ajroetker/vecapi/fault"
)

// Constant is a compile-time vector constant: one scalar per lane.
//
// Constants are immutable. Mask constants hold 0 or 1 per lane regardless
// of the target representation recorded in their shape.
type Constant struct {
	shape Shape
	lanes []uint64
}

// FromBits builds a constant from raw lane bits, truncating each lane to the
// lane width. The slice is copied.
func FromBits(s Shape, bits []uint64) *Constant {
	fault.Guarantee(s.Resolved(), "constant with unresolved shape")
	fault.Guarantee(len(bits) == s.Lanes, "constant of shape %v with %d lanes", s, len(bits))
	lanes := make([]uint64, len(bits))
	for i, b := range bits {
		lanes[i] = Truncate(s.Elem, b)
	}
	return &Constant{shape: s, lanes: lanes}
}

// Generate builds a constant of shape s whose lane i has raw bits f(i).
func Generate(s Shape, f func(i int) uint64) *Constant {
	fault.Guarantee(s.Resolved(), "constant with unresolved shape")
	lanes := make([]uint64, s.Lanes)
	for i := range lanes {
		lanes[i] = Truncate(s.Elem, f(i))
	}
	return &Constant{shape: s, lanes: lanes}
}

// Broadcast builds a constant with every lane set to bits.
func Broadcast(s Shape, bits uint64) *Constant {
	return Generate(s, func(int) uint64 { return bits })
}

// Ints builds an integer (or float, by value) vector constant of kind k.
func Ints(k Kind, vals ...int64) *Constant {
	return Generate(Vector(k, len(vals)), func(i int) uint64 { return FromInt(k, vals[i]) })
}

// Floats builds a vector constant of kind k from float64 values.
func Floats(k Kind, vals ...float64) *Constant {
	return Generate(Vector(k, len(vals)), func(i int) uint64 { return FromFloat(k, vals[i]) })
}

// Bools builds a mask constant over element kind of.
func Bools(of Kind, vals ...bool) *Constant {
	return Generate(Mask(of, len(vals)), func(i int) uint64 { return FromBool(vals[i]) })
}

// Shape returns the lane descriptor of c.
func (c *Constant) Shape() Shape {
	return c.shape
}

// Len returns the number of lanes.
func (c *Constant) Len() int {
	return len(c.lanes)
}

// Bits returns the raw bits of lane i.
func (c *Constant) Bits(i int) uint64 {
	return c.lanes[i]
}

// Int returns lane i as an int64 (see AsInt).
func (c *Constant) Int(i int) int64 {
	return AsInt(c.shape.Elem, c.lanes[i])
}

// Float returns lane i as a float64 (see AsFloat).
func (c *Constant) Float(i int) float64 {
	return AsFloat(c.shape.Elem, c.lanes[i])
}

// Bool returns lane i as a boolean: a mask lane that is set, or a non-zero
// data lane.
func (c *Constant) Bool(i int) bool {
	return c.lanes[i] != 0
}

// RawLanes returns a copy of all lanes' raw bits.
func (c *Constant) RawLanes() []uint64 {
	return slices.Clone(c.lanes)
}

// IntLanes returns all lanes as int64 values.
func (c *Constant) IntLanes() []int64 {
	out := make([]int64, len(c.lanes))
	for i := range out {
		out[i] = c.Int(i)
	}
	return out
}

// FloatLanes returns all lanes as float64 values.
func (c *Constant) FloatLanes() []float64 {
	out := make([]float64, len(c.lanes))
	for i := range out {
		out[i] = c.Float(i)
	}
	return out
}

// BoolLanes returns all lanes as booleans.
func (c *Constant) BoolLanes() []bool {
	out := make([]bool, len(c.lanes))
	for i := range out {
		out[i] = c.Bool(i)
	}
	return out
}

// WithShape returns a constant with the same lanes and a compatible shape,
// typically to record a resolved mask representation.
func (c *Constant) WithShape(s Shape) *Constant {
	fault.Guarantee(s.Compatible(c.shape), "reshaping constant %v to %v", c.shape, s)
	return &Constant{shape: s, lanes: c.lanes}
}

// Equal reports whether both constants have the same compatible shape and
// identical lane bits.
func (c *Constant) Equal(o *Constant) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.shape.Compatible(o.shape) && slices.Equal(c.lanes, o.lanes)
}

func (c *Constant) String() string {
	var sb strings.Builder
	sb.WriteString(c.shape.String())
	sb.WriteString("[")
	for i := range c.lanes {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch {
		case c.shape.IsMask():
			sb.WriteString(strconv.FormatBool(c.Bool(i)))
		case c.shape.Elem.IsFloat():
			sb.WriteString(strconv.FormatFloat(c.Float(i), 'g', -1, 64))
		case c.shape.Elem == Uint64:
			fmt.Fprintf(&sb, "%d", c.lanes[i])
		default:
			fmt.Fprintf(&sb, "%d", c.Int(i))
		}
	}
	sb.WriteString("]")
	return sb.String()
}
