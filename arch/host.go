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

package arch

import (
	"math/bits"
	"os"
	"strconv"
	"sync"

	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

const (
	// NoSimdEnvVar forces Host to return the scalar oracle.
	NoSimdEnvVar = "VECAPI_NO_SIMD"

	// MaxVectorBytesEnvVar caps the vector width of the host oracle.
	MaxVectorBytesEnvVar = "VECAPI_MAX_VECTOR_BYTES"
)

// NoSimdEnv checks if the VECAPI_NO_SIMD environment variable is set.
// Any non-empty value other than a false boolean counts as set.
func NoSimdEnv() bool {
	val := os.Getenv(NoSimdEnvVar)
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

var (
	hostOnce   sync.Once
	hostOracle Oracle
)

// Host returns the oracle for the CPU running this process, detected once.
func Host() Oracle {
	hostOnce.Do(func() {
		if NoSimdEnv() {
			hostOracle = Scalar()
			return
		}
		hostOracle = detectHost()
		if v := os.Getenv(MaxVectorBytesEnvVar); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				hostOracle = Clamp(hostOracle, n)
			}
		}
	})
	return hostOracle
}

// clamped limits another oracle to vectors of at most maxBytes.
type clamped struct {
	Oracle
	maxBytes int
}

// Clamp returns an oracle that answers like o but never reports vectors
// wider than maxBytes.
func Clamp(o Oracle, maxBytes int) Oracle {
	if maxBytes >= o.MaxVectorBytes() {
		return o
	}
	return &clamped{Oracle: o, maxBytes: maxBytes}
}

func (c *clamped) MaxVectorBytes() int { return c.maxBytes }

// limit caps n at the largest power-of-two lane count of elem that fits.
func (c *clamped) limit(elem simd.Kind, n int) int {
	lanes := c.maxBytes / max(elem.Bytes(), 1)
	if lanes < 1 {
		return 0
	}
	return min(n, 1<<(bits.Len(uint(lanes))-1))
}

func (c *clamped) SupportedMoveLength(elem simd.Kind, maxLen int) int {
	return c.limit(elem, c.Oracle.SupportedMoveLength(elem, maxLen))
}

func (c *clamped) SupportedMaskedMoveLength(elem simd.Kind, maxLen int) int {
	return c.limit(elem, c.Oracle.SupportedMaskedMoveLength(elem, maxLen))
}

func (c *clamped) SupportedArithmeticLength(elem simd.Kind, maxLen int, op optable.ArithOp) int {
	return c.limit(elem, c.Oracle.SupportedArithmeticLength(elem, maxLen, op))
}

func (c *clamped) SupportedShiftLength(elem simd.Kind, maxLen int, op optable.ShiftOp) int {
	return c.limit(elem, c.Oracle.SupportedShiftLength(elem, maxLen, op))
}

func (c *clamped) SupportedConvertLength(to, from simd.Kind, maxLen int, op optable.ConvertOp) int {
	n := c.Oracle.SupportedConvertLength(to, from, maxLen, op)
	return c.limit(from, c.limit(to, n))
}

func (c *clamped) SupportedCompareLength(elem simd.Kind, cond optable.CanonicalCondition, maxLen int) int {
	return c.limit(elem, c.Oracle.SupportedCompareLength(elem, cond, maxLen))
}

func (c *clamped) SupportedBlendLength(elem simd.Kind, maxLen int) int {
	return c.limit(elem, c.Oracle.SupportedBlendLength(elem, maxLen))
}

func (c *clamped) SupportedPermuteLength(elem simd.Kind, maxLen int) int {
	return c.limit(elem, c.Oracle.SupportedPermuteLength(elem, maxLen))
}

func (c *clamped) SupportedCompressExpandLength(elem simd.Kind, maxLen int) int {
	return c.limit(elem, c.Oracle.SupportedCompressExpandLength(elem, maxLen))
}

func (c *clamped) SupportedMaskLogicLength(elem simd.Kind, maxLen int) int {
	return c.limit(elem, c.Oracle.SupportedMaskLogicLength(elem, maxLen))
}

func (c *clamped) SupportedReductionLength(elem simd.Kind, maxLen int, op optable.ArithOp) int {
	return c.limit(elem, c.Oracle.SupportedReductionLength(elem, maxLen, op))
}
