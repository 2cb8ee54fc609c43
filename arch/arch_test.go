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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/vecapi/optable"
	"github.com/ajroetker/vecapi/simd"
)

func TestFitLength(t *testing.T) {
	tests := []struct {
		name     string
		elem     simd.Kind
		maxLen   int
		maxBytes int
		want     int
	}{
		{"fits", simd.Int32, 4, 16, 4},
		{"too wide", simd.Int32, 16, 32, 8},
		{"not a power of two", simd.Int32, 6, 64, 4},
		{"single lane", simd.Int64, 1, 64, 0},
		{"below minimum", simd.Int8, 2, 64, 0},
		{"logic", simd.Logic, 8, 64, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fitLength(tt.elem, tt.maxLen, 4, tt.maxBytes); got != tt.want {
				t.Errorf("fitLength(%v, %d, %d) = %d, want %d", tt.elem, tt.maxLen, tt.maxBytes, got, tt.want)
			}
		})
	}
}

func TestAMD64(t *testing.T) {
	avx2 := NewAMD64(AVX2Features...)
	avx512 := NewAMD64(AVX512Features...)

	require.Equal(t, "avx2", avx2.Name())
	require.Equal(t, "avx512", avx512.Name())
	require.True(t, avx2.LogicVectorsAreBitmasks())
	require.False(t, avx512.LogicVectorsAreBitmasks())
	require.Equal(t, 32, avx2.MaxVectorBytes())

	// Arithmetic is capped at the register width.
	require.Equal(t, 8, avx2.SupportedArithmeticLength(simd.Int32, 8, optable.Add))
	require.Equal(t, 8, avx2.SupportedArithmeticLength(simd.Int32, 16, optable.Add))
	require.Equal(t, 16, avx512.SupportedArithmeticLength(simd.Int32, 16, optable.Add))
	require.Equal(t, 0, avx2.SupportedArithmeticLength(simd.Int32, 8, optable.Div))
	require.Equal(t, 0, avx2.SupportedArithmeticLength(simd.Int64, 4, optable.Min))
	require.Equal(t, 4, avx512.SupportedArithmeticLength(simd.Int64, 4, optable.Min))
	require.Equal(t, 8, avx2.SupportedArithmeticLength(simd.Float32, 8, optable.FMA))
	require.Equal(t, 0, NewAMD64(AVXFeatures...).SupportedArithmeticLength(simd.Float32, 8, optable.FMA))

	// No byte shifts anywhere on x86.
	require.Equal(t, 1, avx2.SupportedShiftLength(simd.Int8, 16, optable.Shr))
	require.Equal(t, 1, avx512.SupportedShiftLength(simd.Int8, 16, optable.Shr))
	require.Equal(t, 16, avx2.SupportedShiftLength(simd.Int16, 16, optable.Shr))
	require.Equal(t, 0, avx2.SupportedShiftLength(simd.Int64, 4, optable.Sar))
	require.Equal(t, 4, avx512.SupportedShiftLength(simd.Int64, 4, optable.Sar))

	// Narrowing needs AVX-512.
	require.Equal(t, 0, avx2.SupportedConvertLength(simd.Int8, simd.Int16, 16, optable.Narrow))
	require.Equal(t, 16, avx512.SupportedConvertLength(simd.Int8, simd.Int16, 16, optable.Narrow))
	require.Equal(t, 16, avx2.SupportedConvertLength(simd.Int16, simd.Int8, 16, optable.ZeroExtend))
	require.Equal(t, 0, avx2.SupportedConvertLength(simd.Float32, simd.Int8, 8, optable.SignedToFloat))
	require.Equal(t, 8, avx2.SupportedConvertLength(simd.Float32, simd.Int32, 8, optable.SignedToFloat))

	require.Equal(t, 8, avx2.SupportedCompareLength(simd.Int32, optable.CanonicalLT, 8))
	require.Equal(t, 0, avx2.SupportedCompareLength(simd.Int32, optable.CanonicalBT, 8))
	require.Equal(t, 8, avx512.SupportedCompareLength(simd.Int32, optable.CanonicalBT, 8))

	require.Equal(t, 0, avx2.SupportedCompressExpandLength(simd.Int32, 8))
	require.Equal(t, 8, avx512.SupportedCompressExpandLength(simd.Int32, 8))
	require.Equal(t, 0, avx512.SupportedCompressExpandLength(simd.Int8, 16))

	require.Equal(t, 16, avx2.SupportedPermuteLength(simd.Int8, 16))
	require.Equal(t, 0, avx2.SupportedPermuteLength(simd.Int8, 32))
	require.Equal(t, 8, avx2.SupportedPermuteLength(simd.Float32, 8))

	require.Equal(t, 8, avx2.SupportedMaskedMoveLength(simd.Int32, 8))
	require.Equal(t, 0, avx2.SupportedMaskedMoveLength(simd.Int16, 8))

	// Below AVX nothing is vectorized.
	sse := NewAMD64(SSE2, SSE41)
	require.Equal(t, 0, sse.SupportedMoveLength(simd.Int32, 4))
	require.Equal(t, "sse2+sse4.1", sse.Features().String())
}

func TestAArch64(t *testing.T) {
	neon := NewAArch64(false, 64)
	sve := NewAArch64(true, 32)

	require.Equal(t, "neon", neon.Name())
	require.Equal(t, 16, neon.MaxVectorBytes())
	require.Equal(t, "sve256", sve.Name())
	require.True(t, neon.LogicVectorsAreBitmasks())
	require.False(t, sve.LogicVectorsAreBitmasks())

	require.Equal(t, 16, neon.SupportedShiftLength(simd.Int8, 16, optable.Shr))
	require.Equal(t, 0, neon.SupportedArithmeticLength(simd.Int64, 2, optable.Mul))
	require.Equal(t, 4, sve.SupportedArithmeticLength(simd.Int64, 4, optable.Mul))
	require.Equal(t, 0, neon.SupportedMaskedMoveLength(simd.Int32, 4))
	require.Equal(t, 0, neon.SupportedConvertLength(simd.Float32, simd.Int16, 4, optable.SignedToFloat))
	require.Equal(t, 4, neon.SupportedConvertLength(simd.Float32, simd.Int32, 4, optable.SignedToFloat))
	require.Equal(t, 8, sve.SupportedCompressExpandLength(simd.Float32, 8))
}

func TestScalar(t *testing.T) {
	s := Scalar()
	require.Equal(t, 0, s.SupportedMoveLength(simd.Int32, 4))
	require.Equal(t, 0, s.SupportedArithmeticLength(simd.Int32, 4, optable.Add))
	require.Equal(t, simd.ReprBitmask, Repr(s))
}

func TestCached(t *testing.T) {
	base := NewAMD64(AVX2Features...)
	c := Cached(base, 64)
	require.Equal(t, 0, c.Len())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 8, c.SupportedArithmeticLength(simd.Int32, 8, optable.Add))
			assert.Equal(t, 1, c.SupportedShiftLength(simd.Int8, 16, optable.Shl))
		}()
	}
	wg.Wait()
	require.Equal(t, 2, c.Len())
	require.Equal(t, base.Name(), c.Name())
	require.True(t, c.LogicVectorsAreBitmasks())

	// Wrapping twice does not stack caches.
	require.Same(t, Oracle(base), Cached(c, 8).Oracle)
}

func TestClamp(t *testing.T) {
	o := Clamp(NewAMD64(AVX512Features...), 16)
	require.Equal(t, 16, o.MaxVectorBytes())
	require.Equal(t, 4, o.SupportedArithmeticLength(simd.Int32, 16, optable.Add))
	require.Equal(t, 4, o.SupportedArithmeticLength(simd.Int32, 4, optable.Add))
	require.False(t, o.LogicVectorsAreBitmasks())

	wide := NewAMD64(AVX2Features...)
	require.Same(t, Oracle(wide), Clamp(wide, 64))
}

func TestLookup(t *testing.T) {
	o, err := Lookup("AVX2")
	require.NoError(t, err)
	require.Equal(t, "avx2", o.Name())

	_, err = Lookup("riscv")
	require.ErrorContains(t, err, "unknown target")
	require.Contains(t, Names(), "neon")
}

func TestNoSimdEnv(t *testing.T) {
	t.Setenv(NoSimdEnvVar, "")
	require.False(t, NoSimdEnv())
	t.Setenv(NoSimdEnvVar, "1")
	require.True(t, NoSimdEnv())
	t.Setenv(NoSimdEnvVar, "false")
	require.False(t, NoSimdEnv())
	t.Setenv(NoSimdEnvVar, "yes")
	require.True(t, NoSimdEnv())
}
