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

//go:build arm64

package arch

import "golang.org/x/sys/cpu"

func detectHost() Oracle {
	// ASIMD is part of the ARMv8-A base architecture; check anyway.
	if !cpu.ARM64.HasASIMD {
		return Scalar()
	}
	// The SVE vector length is not exposed by x/sys/cpu; 128 bits is the
	// architectural minimum, so it is always safe to assume.
	if cpu.ARM64.HasSVE {
		return NewAArch64(true, 16)
	}
	return NewAArch64(false, 16)
}
