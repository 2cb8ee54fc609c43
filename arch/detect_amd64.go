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

//go:build amd64

package arch

import "golang.org/x/sys/cpu"

func detectHost() Oracle {
	var features []Feature
	add := func(has bool, f Feature) {
		if has {
			features = append(features, f)
		}
	}
	add(cpu.X86.HasSSE2, SSE2)
	add(cpu.X86.HasSSE41, SSE41)
	add(cpu.X86.HasSSE42, SSE42)
	add(cpu.X86.HasAVX, AVX)
	add(cpu.X86.HasAVX2, AVX2)
	add(cpu.X86.HasFMA, FMA)

	// HasAVX512 covers OS support for the opmask and ZMM state.
	if cpu.X86.HasAVX512 {
		add(cpu.X86.HasAVX512F, AVX512F)
		add(cpu.X86.HasAVX512BW, AVX512BW)
		add(cpu.X86.HasAVX512VL, AVX512VL)
		add(cpu.X86.HasAVX512DQ, AVX512DQ)
		add(cpu.X86.HasAVX512CD, AVX512CD)
		add(cpu.X86.HasAVX512VBMI, AVX512VBMI)
		add(cpu.X86.HasAVX512VBMI2, AVX512VBMI2)
		add(cpu.X86.HasAVX512VPOPCNTDQ, AVX512VPOPCNTDQ)
	}
	return NewAMD64(features...)
}
