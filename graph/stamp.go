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

	"github.com/ajroetker/vecapi/simd"
)

// Stamp is the abstract value of a node.
type Stamp interface {
	fmt.Stringer
	stamp()
}

// VoidStamp is the stamp of nodes that produce no value.
type VoidStamp struct{}

// PrimitiveStamp is a scalar value. Booleans use simd.Logic.
type PrimitiveStamp struct {
	Kind simd.Kind
}

// ObjectStamp is a reference to an object of class Class, or a subclass
// when Exact is false.
type ObjectStamp struct {
	Class Class
	Exact bool
}

// VectorStamp is an unboxed SIMD value of the given shape.
type VectorStamp struct {
	Shape simd.Shape
}

// ArrayStamp is a reference to a primitive array.
type ArrayStamp struct {
	Elem simd.Kind
}

func (VoidStamp) stamp()      {}
func (PrimitiveStamp) stamp() {}
func (ObjectStamp) stamp()    {}
func (VectorStamp) stamp()    {}
func (ArrayStamp) stamp()     {}

func (VoidStamp) String() string        { return "void" }
func (s PrimitiveStamp) String() string { return s.Kind.String() }
func (s VectorStamp) String() string    { return s.Shape.String() }
func (s ArrayStamp) String() string     { return s.Elem.String() + "[]" }

func (s ObjectStamp) String() string {
	if s.Exact {
		return s.Class.Name + "!"
	}
	return s.Class.Name
}

// Unrestricted drops the exactness of object stamps.
func Unrestricted(s Stamp) Stamp {
	if o, ok := s.(ObjectStamp); ok {
		o.Exact = false
		return o
	}
	return s
}

// IsPrimitive reports whether s is a scalar stamp.
func IsPrimitive(s Stamp) bool {
	_, ok := s.(PrimitiveStamp)
	return ok
}

// ExactClass returns the class of an exact object stamp.
func ExactClass(s Stamp) (Class, bool) {
	o, ok := s.(ObjectStamp)
	if !ok || !o.Exact {
		return Class{}, false
	}
	return o.Class, true
}

// Meet returns the most precise stamp describing values of both a and b.
// It returns false if they are of unrelated kinds.
func Meet(a, b Stamp) (Stamp, bool) {
	oa, okA := a.(ObjectStamp)
	ob, okB := b.(ObjectStamp)
	if !okA || !okB {
		return a, a == b
	}
	if oa.Class == ob.Class {
		oa.Exact = oa.Exact && ob.Exact
		return oa, true
	}
	return ObjectStamp{Class: CommonSuperclass(oa.Class, ob.Class)}, true
}
