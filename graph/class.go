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

package graph

import (
	"fmt"
	"strings"

	"github.com/ajroetker/vecapi/simd"
)

// Category groups the classes of the vector API.
type Category uint8

const (
	CategoryOther Category = iota
	CategoryVector
	CategoryMask
	CategoryShuffle
	// CategoryElement is the class of a lane element, used as the element
	// class token of API calls.
	CategoryElement
)

// Class is a class of the vector API, or another class of interest.
//
// Concrete vector classes fix element kind and lane count ("Int128Vector"
// has 4 int lanes). Abstract classes leave the lane count open
// ("IntVector"), or the element kind too ("Vector").
type Class struct {
	Name     string
	Category Category
	Elem     simd.Kind
	Lanes    int
}

var (
	// ClassOfClass is the class of class tokens.
	ClassOfClass = Class{Name: "Class"}

	// Object is the root class.
	Object = Class{Name: "Object"}
)

var elemNames = map[simd.Kind]string{
	simd.Int8:    "Byte",
	simd.Int16:   "Short",
	simd.Int32:   "Int",
	simd.Int64:   "Long",
	simd.Uint8:   "UByte",
	simd.Uint16:  "UShort",
	simd.Uint32:  "UInt",
	simd.Uint64:  "ULong",
	simd.Float32: "Float",
	simd.Float64: "Double",
}

func className(elem simd.Kind, lanes int, suffix string) string {
	prefix := elemNames[elem]
	if lanes == 0 {
		return prefix + suffix
	}
	return fmt.Sprintf("%s%d%s", prefix, lanes*elem.Bits(), suffix)
}

// VectorClass returns the concrete vector class with the given lanes.
func VectorClass(elem simd.Kind, lanes int) Class {
	return Class{Name: className(elem, lanes, "Vector"), Category: CategoryVector, Elem: elem, Lanes: lanes}
}

// MaskClass returns the concrete mask class over lanes of kind elem.
func MaskClass(elem simd.Kind, lanes int) Class {
	return Class{Name: className(elem, lanes, "Mask"), Category: CategoryMask, Elem: elem, Lanes: lanes}
}

// ShuffleClass returns the concrete shuffle class for vectors of kind elem.
func ShuffleClass(elem simd.Kind, lanes int) Class {
	return Class{Name: className(elem, lanes, "Shuffle"), Category: CategoryShuffle, Elem: elem, Lanes: lanes}
}

// AbstractVector returns the abstract vector class of elem, or the root
// vector class if elem is Invalid.
func AbstractVector(elem simd.Kind) Class {
	return Class{Name: className(elem, 0, "Vector"), Category: CategoryVector, Elem: elem}
}

// AbstractMask returns the abstract mask class of elem.
func AbstractMask(elem simd.Kind) Class {
	return Class{Name: className(elem, 0, "Mask"), Category: CategoryMask, Elem: elem}
}

// ElementClass returns the class token of a lane element kind.
func ElementClass(k simd.Kind) Class {
	return Class{Name: strings.ToLower(elemNames[k]), Category: CategoryElement, Elem: k}
}

// IsAbstract reports whether c leaves the lane count open.
func (c Class) IsAbstract() bool {
	return c.Lanes == 0
}

// IsVectorAPI reports whether c is a vector, mask or shuffle class.
func (c Class) IsVectorAPI() bool {
	return c.Category == CategoryVector || c.Category == CategoryMask || c.Category == CategoryShuffle
}

// Shape returns the lane descriptor of a concrete vector API class. Masks
// get an unresolved representation; shuffles are vectors of lane indices
// as wide as the shuffled element.
func (c Class) Shape() (simd.Shape, bool) {
	if c.IsAbstract() || c.Elem == simd.Invalid {
		return simd.Shape{}, false
	}
	switch c.Category {
	case CategoryVector:
		return simd.Vector(c.Elem, c.Lanes), true
	case CategoryMask:
		return simd.Mask(c.Elem, c.Lanes), true
	case CategoryShuffle:
		return simd.Vector(c.Elem.SameWidthInt(), c.Lanes), true
	}
	return simd.Shape{}, false
}

// IsSubclassOf reports whether c is o or a subclass of o.
func (c Class) IsSubclassOf(o Class) bool {
	switch {
	case c == o || o == Object:
		return true
	case c.Category != o.Category || !o.IsAbstract():
		return false
	case o.Elem == simd.Invalid:
		return true
	}
	return c.Elem == o.Elem
}

// CommonSuperclass returns the most specific class both a and b belong to.
func CommonSuperclass(a, b Class) Class {
	switch {
	case a.IsSubclassOf(b):
		return b
	case b.IsSubclassOf(a):
		return a
	case a.Category != b.Category || !a.IsVectorAPI():
		return Object
	case a.Elem == b.Elem:
		return Class{Name: className(a.Elem, 0, categorySuffix[a.Category]), Category: a.Category, Elem: a.Elem}
	}
	return Class{Name: categorySuffix[a.Category], Category: a.Category}
}

var categorySuffix = map[Category]string{
	CategoryVector:  "Vector",
	CategoryMask:    "Mask",
	CategoryShuffle: "Shuffle",
}

func (c Class) String() string {
	return c.Name
}
