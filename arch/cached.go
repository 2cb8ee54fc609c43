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
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ajroetker/vecapi/fault"
	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

type query uint8

const (
	queryMove query = iota
	queryMaskedMove
	queryArithmetic
	queryShift
	queryConvert
	queryCompare
	queryBlend
	queryPermute
	queryCompressExpand
	queryMaskLogic
	queryReduction
)

type cacheKey struct {
	q      query
	elem   simd.Kind
	from   simd.Kind
	maxLen int
	op     uint8
}

// CachedOracle memoizes the answers of another oracle. Compilations of a
// long-running service ask the same questions over and over; the cache is
// bounded and safe for concurrent use.
type CachedOracle struct {
	Oracle
	cache *lru.Cache[cacheKey, int]
}

// Cached wraps o with an LRU cache of the given number of entries.
func Cached(o Oracle, size int) *CachedOracle {
	if c, ok := o.(*CachedOracle); ok {
		o = c.Oracle
	}
	cache, err := lru.New[cacheKey, int](size)
	fault.Guarantee(err == nil, "oracle cache of size %d: %v", size, err)
	return &CachedOracle{Oracle: o, cache: cache}
}

// Len returns the number of cached answers.
func (c *CachedOracle) Len() int {
	return c.cache.Len()
}

func (c *CachedOracle) lookup(k cacheKey, compute func() int) int {
	if v, ok := c.cache.Get(k); ok {
		return v
	}
	v := compute()
	c.cache.Add(k, v)
	return v
}

func (c *CachedOracle) SupportedMoveLength(elem simd.Kind, maxLen int) int {
	return c.lookup(cacheKey{q: queryMove, elem: elem, maxLen: maxLen}, func() int {
		return c.Oracle.SupportedMoveLength(elem, maxLen)
	})
}

func (c *CachedOracle) SupportedMaskedMoveLength(elem simd.Kind, maxLen int) int {
	return c.lookup(cacheKey{q: queryMaskedMove, elem: elem, maxLen: maxLen}, func() int {
		return c.Oracle.SupportedMaskedMoveLength(elem, maxLen)
	})
}

func (c *CachedOracle) SupportedArithmeticLength(elem simd.Kind, maxLen int, op optable.ArithOp) int {
	return c.lookup(cacheKey{q: queryArithmetic, elem: elem, maxLen: maxLen, op: uint8(op)}, func() int {
		return c.Oracle.SupportedArithmeticLength(elem, maxLen, op)
	})
}

func (c *CachedOracle) SupportedShiftLength(elem simd.Kind, maxLen int, op optable.ShiftOp) int {
	return c.lookup(cacheKey{q: queryShift, elem: elem, maxLen: maxLen, op: uint8(op)}, func() int {
		return c.Oracle.SupportedShiftLength(elem, maxLen, op)
	})
}

func (c *CachedOracle) SupportedConvertLength(to, from simd.Kind, maxLen int, op optable.ConvertOp) int {
	return c.lookup(cacheKey{q: queryConvert, elem: to, from: from, maxLen: maxLen, op: uint8(op)}, func() int {
		return c.Oracle.SupportedConvertLength(to, from, maxLen, op)
	})
}

func (c *CachedOracle) SupportedCompareLength(elem simd.Kind, cond optable.CanonicalCondition, maxLen int) int {
	return c.lookup(cacheKey{q: queryCompare, elem: elem, maxLen: maxLen, op: uint8(cond)}, func() int {
		return c.Oracle.SupportedCompareLength(elem, cond, maxLen)
	})
}

func (c *CachedOracle) SupportedBlendLength(elem simd.Kind, maxLen int) int {
	return c.lookup(cacheKey{q: queryBlend, elem: elem, maxLen: maxLen}, func() int {
		return c.Oracle.SupportedBlendLength(elem, maxLen)
	})
}

func (c *CachedOracle) SupportedPermuteLength(elem simd.Kind, maxLen int) int {
	return c.lookup(cacheKey{q: queryPermute, elem: elem, maxLen: maxLen}, func() int {
		return c.Oracle.SupportedPermuteLength(elem, maxLen)
	})
}

func (c *CachedOracle) SupportedCompressExpandLength(elem simd.Kind, maxLen int) int {
	return c.lookup(cacheKey{q: queryCompressExpand, elem: elem, maxLen: maxLen}, func() int {
		return c.Oracle.SupportedCompressExpandLength(elem, maxLen)
	})
}

func (c *CachedOracle) SupportedMaskLogicLength(elem simd.Kind, maxLen int) int {
	return c.lookup(cacheKey{q: queryMaskLogic, elem: elem, maxLen: maxLen}, func() int {
		return c.Oracle.SupportedMaskLogicLength(elem, maxLen)
	})
}

func (c *CachedOracle) SupportedReductionLength(elem simd.Kind, maxLen int, op optable.ArithOp) int {
	return c.lookup(cacheKey{q: queryReduction, elem: elem, maxLen: maxLen, op: uint8(op)}, func() int {
		return c.Oracle.SupportedReductionLength(elem, maxLen, op)
	})
}
