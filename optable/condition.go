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

// Condition is a lane comparison requested by the API.
type Condition uint8

const (
	CondInvalid Condition = iota
	EQ
	NE
	LT
	LE
	GT
	GE
	// ULT, ULE, UGT and UGE compare integer lanes as unsigned.
	ULT
	ULE
	UGT
	UGE
)

var condNames = [...]string{
	CondInvalid: "invalid",
	EQ:          "==",
	NE:          "!=",
	LT:          "<",
	LE:          "<=",
	GT:          ">",
	GE:          ">=",
	ULT:         "|<|",
	ULE:         "|<=|",
	UGT:         "|>|",
	UGE:         "|>=|",
}

func (c Condition) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return "invalid"
}

// IsUnsigned reports whether c compares integers as unsigned.
func (c Condition) IsUnsigned() bool {
	return c >= ULT && c <= UGE
}

// Negate returns the condition that holds exactly when c does not (for
// ordered inputs).
func (c Condition) Negate() Condition {
	switch c {
	case EQ:
		return NE
	case NE:
		return EQ
	case LT:
		return GE
	case GE:
		return LT
	case LE:
		return GT
	case GT:
		return LE
	case ULT:
		return UGE
	case UGE:
		return ULT
	case ULE:
		return UGT
	case UGT:
		return ULE
	default:
		return CondInvalid
	}
}

// Mirror returns the condition obtained by swapping the operands.
func (c Condition) Mirror() Condition {
	switch c {
	case LT:
		return GT
	case GT:
		return LT
	case LE:
		return GE
	case GE:
		return LE
	case ULT:
		return UGT
	case UGT:
		return ULT
	case ULE:
		return UGE
	case UGE:
		return ULE
	default:
		return c
	}
}

// FloatCondition is a condition together with its result on unordered
// (NaN) inputs.
type FloatCondition struct {
	Cond            Condition
	UnorderedIsTrue bool
}

// Requested returns the float semantics of an API comparison: every
// condition is false on NaN except inequality, which is true.
func Requested(c Condition) FloatCondition {
	return FloatCondition{Cond: c, UnorderedIsTrue: c == NE}
}

// Negate returns the logical negation. Negating an ordered comparison yields
// an unordered one and vice versa; negating twice is the identity.
func (f FloatCondition) Negate() FloatCondition {
	return FloatCondition{Cond: f.Cond.Negate(), UnorderedIsTrue: !f.UnorderedIsTrue}
}

// Eval applies f to two float lanes.
func (f FloatCondition) Eval(a, b float64) bool {
	if a != a || b != b {
		return f.UnorderedIsTrue
	}
	return evalOrdered(f.Cond, a, b)
}

// CanonicalCondition is one of the comparisons hardware offers natively.
type CanonicalCondition uint8

const (
	CanonicalInvalid CanonicalCondition = iota
	CanonicalEQ
	CanonicalLT
	// CanonicalBT is unsigned less-than ("below").
	CanonicalBT
)

func (c CanonicalCondition) String() string {
	switch c {
	case CanonicalEQ:
		return "EQ"
	case CanonicalLT:
		return "LT"
	case CanonicalBT:
		return "BT"
	default:
		return "invalid"
	}
}

// Canonical describes how to evaluate a requested condition with a
// canonical one: compare (y, x) instead of (x, y) when Mirror is set,
// then logically negate the result when Negate is set. For float lanes the
// canonical comparison must evaluate to UnorderedIsTrue on NaN inputs.
type Canonical struct {
	Cond            CanonicalCondition
	Mirror          bool
	Negate          bool
	UnorderedIsTrue bool
}

var canonicalTable = map[Condition]Canonical{
	EQ:  {Cond: CanonicalEQ},
	NE:  {Cond: CanonicalEQ, Negate: true},
	LT:  {Cond: CanonicalLT},
	LE:  {Cond: CanonicalLT, Mirror: true, Negate: true},
	GT:  {Cond: CanonicalLT, Mirror: true},
	GE:  {Cond: CanonicalLT, Negate: true},
	ULT: {Cond: CanonicalBT},
	ULE: {Cond: CanonicalBT, Mirror: true, Negate: true},
	UGT: {Cond: CanonicalBT, Mirror: true},
	UGE: {Cond: CanonicalBT, Negate: true},
}

// Canonicalize maps a requested condition to a canonical one. For float
// lanes the unordered result of the canonical comparison is chosen so that
// the overall result keeps the requested NaN semantics through the negation.
func Canonicalize(c Condition, float bool) (Canonical, bool) {
	canon, ok := canonicalTable[c]
	if !ok || (float && c.IsUnsigned()) {
		return Canonical{}, false
	}
	if float {
		canon.UnorderedIsTrue = Requested(c).UnorderedIsTrue != canon.Negate
	}
	return canon, true
}

func evalOrdered(c Condition, a, b float64) bool {
	switch c {
	case EQ:
		return a == b
	case NE:
		return a != b
	case LT:
		return a < b
	case LE:
		return a <= b
	case GT:
		return a > b
	case GE:
		return a >= b
	default:
		return false
	}
}
