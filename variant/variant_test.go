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

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allFlags enumerates every combination of the five feature flags.
func allFlags() []Flags {
	var out []Flags
	for bits := 0; bits < 1<<5; bits++ {
		out = append(out, Flags{
			AVX2:          bits&1 != 0,
			SSE42:         bits&2 != 0,
			SSE3:          bits&4 != 0,
			ARMNeon:       bits&8 != 0,
			ARMNeonLegacy: bits&16 != 0,
		})
	}
	return out
}

func TestResolveScenarios(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		want  string
	}{
		{"avx2 with sse4.2", Flags{AVX2: true, SSE42: true}, "avx2"},
		{"sse4.2 with sse3", Flags{SSE42: true, SSE3: true}, "sse4"},
		{"sse3 only", Flags{SSE3: true}, "sse3"},
		{"arm neon", Flags{ARMNeon: true}, "neon"},
		{"arm neon legacy spelling", Flags{ARMNeonLegacy: true}, "neon"},
		{"none", Flags{}, "x86"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.flags).Tag())
			assert.Equal(t, tt.want, tt.flags.Resolve().Tag())
		})
	}
}

func TestResolvePriority(t *testing.T) {
	for _, f := range allFlags() {
		t.Run(f.String(), func(t *testing.T) {
			got := Resolve(f)
			var want Variant
			switch {
			case f.AVX2:
				want = AVX2
			case f.SSE42:
				want = SSE4
			case f.SSE3:
				want = SSE3
			case f.ARMNeon || f.ARMNeonLegacy:
				want = NEON
			default:
				want = X86
			}
			assert.Equal(t, want, got)
			// Pure function of the flags.
			assert.Equal(t, got, Resolve(f))
		})
	}
}

func TestResolveAVX2Dominates(t *testing.T) {
	for _, f := range allFlags() {
		if f.AVX2 {
			assert.Equal(t, AVX2, Resolve(f), "flags %s", f)
		}
	}
}

func TestVariantTags(t *testing.T) {
	tests := []struct {
		v      Variant
		tag    string
		suffix string
	}{
		{AVX2, "avx2", "_avx2"},
		{SSE4, "sse4", "_sse4"},
		{SSE3, "sse3", "_sse3"},
		{NEON, "neon", "_neon"},
		{X86, "x86", "_x86"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.tag, tt.v.Tag())
			assert.Equal(t, tt.tag, tt.v.String())
			assert.Equal(t, tt.suffix, tt.v.Suffix())
			assert.Equal(t, "checkBulk"+tt.suffix, tt.v.Decorate("checkBulk"))

			got, err := ParseVariant(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.v, got)
		})
	}
}

func TestParseVariantUnknown(t *testing.T) {
	for _, tag := range []string{"", "avx512", "AVX2", "sse4.2", "generic"} {
		_, err := ParseVariant(tag)
		assert.ErrorIs(t, err, ErrUnknownVariant, "tag %q", tag)
	}
}

func TestVariantsPriorityOrder(t *testing.T) {
	assert.Equal(t, []Variant{AVX2, SSE4, SSE3, NEON, X86}, Variants())

	// Callers cannot mutate the package order.
	vs := Variants()
	vs[0] = X86
	assert.Equal(t, AVX2, Variants()[0])
}

func TestInvalidVariant(t *testing.T) {
	v := Variant(42)
	assert.False(t, v.Valid())
	assert.Equal(t, "variant(42)", v.Tag())
	assert.Equal(t, []Variant{X86}, v.Fallbacks())
}

func TestFallbacks(t *testing.T) {
	tests := []struct {
		v    Variant
		want []Variant
	}{
		{AVX2, []Variant{AVX2, SSE4, SSE3, X86}},
		{SSE4, []Variant{SSE4, SSE3, X86}},
		{SSE3, []Variant{SSE3, X86}},
		{NEON, []Variant{NEON, X86}},
		{X86, []Variant{X86}},
	}

	for _, tt := range tests {
		t.Run(tt.v.Tag(), func(t *testing.T) {
			got := tt.v.Fallbacks()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, X86, got[len(got)-1])
		})
	}
}

func TestValidStem(t *testing.T) {
	for _, stem := range []string{"checkBulk", "_x", "R", "insert_bulk"} {
		assert.NoError(t, ValidStem(stem), stem)
	}
	for _, stem := range []string{"", "1abc", "a-b", "func", "a b"} {
		assert.ErrorIs(t, ValidStem(stem), ErrInvalidStem, stem)
	}
}

func TestBuildVariant(t *testing.T) {
	assert.Equal(t, Resolve(BuildFlags()), BuildVariant)
	assert.Equal(t, BuildVariant.Decorate("checkBulk"), FullName("checkBulk"))

	switch runtime.GOARCH {
	case "arm64":
		assert.Equal(t, NEON, BuildVariant)
	case "amd64":
		assert.Contains(t, []Variant{AVX2, SSE4, X86}, BuildVariant)
	case "386":
		assert.Equal(t, X86, BuildVariant)
	}

	v, err := StrictBuildVariant()
	if BuildRecognized() {
		require.NoError(t, err)
		assert.Equal(t, BuildVariant, v)
	} else {
		assert.ErrorIs(t, err, ErrUnrecognizedTarget)
	}
}

func TestFlagsString(t *testing.T) {
	assert.Equal(t, "{}", Flags{}.String())
	assert.Equal(t, "{avx2,sse4.2,sse3}", Flags{AVX2: true, SSE42: true, SSE3: true}.String())
	assert.Equal(t, "{neon,neon-legacy}", Flags{ARMNeon: true, ARMNeonLegacy: true}.String())
}

func ExampleResolve() {
	v := Resolve(Flags{SSE42: true, SSE3: true})
	fmt.Println(v.Decorate("checkBulk"))
	// Output: checkBulk_sse4
}

