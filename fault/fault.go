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

// Package fault reports internal-consistency violations inside a compilation.
//
// A violation means the surrounding compiler reached a state the vector
// intrinsification engine does not support (for example an integer ternary
// operation or a shuffle over a non power-of-two lane count). Continuing could
// emit wrong code, so violations abort the current compilation: they panic
// with an *Error, and the compilation driver converts that panic back into an
// ordinary error with Catch.
//
// Benign conditions (an operand that is not yet constant, a target that lacks
// an instruction) are never reported through this package.
package fault

import (
	"errors"
	"fmt"
)

// Error is an internal-consistency violation.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return "internal consistency violation: " + e.Msg
}

// Fatalf aborts the current compilation.
func Fatalf(format string, args ...any) {
	panic(&Error{Msg: fmt.Sprintf(format, args...)})
}

// Guarantee aborts the current compilation if cond is false.
func Guarantee(cond bool, format string, args ...any) {
	if !cond {
		Fatalf(format, args...)
	}
}

// Unreachable returns the violation for a switch that met an unexpected
// value. Callers panic with it so the compiler sees a terminating statement:
//
//	panic(fault.Unreachable(op))
func Unreachable(v any) *Error {
	return &Error{Msg: fmt.Sprintf("should not reach here: unexpected value %v", v)}
}

// Catch recovers a panic raised by Fatalf and stores it in *err.
// Panics that are not *Error are re-raised.
//
// Usage:
//
//	func compile(g *graph.Graph) (err error) {
//	    defer fault.Catch(&err)
//	    ...
//	}
func Catch(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if fe, ok := r.(*Error); ok {
		*err = fe
		return
	}
	panic(r)
}

// Is reports whether err is, or wraps, an internal-consistency violation.
func Is(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}
