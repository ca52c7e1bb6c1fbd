// Copyright 2025 go-variant Authors
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

package variant

import "strings"

// Flags is the set of instruction-set extensions visible to a build target
// or reported by a CPU.
type Flags struct {
	AVX2  bool
	SSE42 bool
	SSE3  bool
	// ARMNeon and ARMNeonLegacy are the two spellings under which NEON
	// support is announced (__ARM_NEON and __ARM_NEON__). Either selects NEON.
	ARMNeon       bool
	ARMNeonLegacy bool
}

// Resolve selects the variant for f. The first matching rule wins:
// AVX2, then SSE4.2, then SSE3, then either NEON flag, then X86.
func Resolve(f Flags) Variant {
	switch {
	case f.AVX2:
		return AVX2
	case f.SSE42:
		return SSE4
	case f.SSE3:
		return SSE3
	case f.ARMNeon || f.ARMNeonLegacy:
		return NEON
	default:
		return X86
	}
}

// Resolve is shorthand for Resolve(f).
func (f Flags) Resolve() Variant {
	return Resolve(f)
}

func (f Flags) String() string {
	var names []string
	if f.AVX2 {
		names = append(names, "avx2")
	}
	if f.SSE42 {
		names = append(names, "sse4.2")
	}
	if f.SSE3 {
		names = append(names, "sse3")
	}
	if f.ARMNeon {
		names = append(names, "neon")
	}
	if f.ARMNeonLegacy {
		names = append(names, "neon-legacy")
	}
	return "{" + strings.Join(names, ",") + "}"
}
