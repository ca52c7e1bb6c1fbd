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

// Package variant selects the SIMD specialization a routine is bound to.
//
// Every specialized routine R is provided under a decorated name R_<tag>,
// where tag is one of avx2, sse4, sse3, neon or x86. Exactly one tag is
// chosen per build target by a fixed first-match-wins priority over the
// instruction-set extensions available:
//
//	AVX2 > SSE4.2 > SSE3 > ARM NEON > x86 (fallback)
//
// The selection happens in two places:
//
//   - At compile time, BuildVariant is fixed by build constraints
//     (amd64.v2, amd64.v3, arm64, ...) and FullName decorates a stem with it.
//     cmd/variantgen emits build-constrained wrappers that bind R to R_<tag>
//     for each target, so an unrecognized target fails to compile.
//   - At run time, Current is chosen once from the CPU flags reported by a
//     Detector, and a Table dispatches to the best registered
//     implementation.
//
// Set VARIANT_NO_SIMD=1 to force the x86 fallback at run time, or
// VARIANT_TARGET=<tag> to force a specific variant.
package variant
