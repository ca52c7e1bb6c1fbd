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
	"errors"
	"fmt"
	"go/token"
)

// Variant identifies one SIMD specialization of a routine.
type Variant uint8

// Variants ordered from lowest to highest priority.
const (
	// X86 is the generic fallback. It is also selected on targets with no
	// recognized extension, including non-x86 ones.
	X86 Variant = iota
	// NEON is ARM Advanced SIMD.
	NEON
	// SSE3 is x86 SSE3.
	SSE3
	// SSE4 is x86 SSE4.2.
	SSE4
	// AVX2 is x86 AVX2.
	AVX2
)

var (
	// ErrUnknownVariant is returned when a tag does not name a variant.
	ErrUnknownVariant = errors.New("unknown variant")
	// ErrInvalidStem is returned when a stem is not a valid identifier.
	ErrInvalidStem = errors.New("invalid name stem")
)

var tags = [...]string{
	X86:  "x86",
	NEON: "neon",
	SSE3: "sse3",
	SSE4: "sse4",
	AVX2: "avx2",
}

// priority lists every variant, best first.
var priority = []Variant{AVX2, SSE4, SSE3, NEON, X86}

// Variants returns all variants in selection priority order, best first.
func Variants() []Variant {
	out := make([]Variant, len(priority))
	copy(out, priority)
	return out
}

// Tag returns the suffix tag of the variant ("avx2", "sse4", "sse3", "neon"
// or "x86").
func (v Variant) Tag() string {
	if int(v) < len(tags) {
		return tags[v]
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

func (v Variant) String() string {
	return v.Tag()
}

// Valid reports whether v is one of the defined variants.
func (v Variant) Valid() bool {
	return int(v) < len(tags)
}

// Suffix returns the name suffix for the variant (e.g., "_avx2").
func (v Variant) Suffix() string {
	return "_" + v.Tag()
}

// Decorate returns stem with the variant suffix appended.
func (v Variant) Decorate(stem string) string {
	return stem + v.Suffix()
}

// Fallbacks returns the variants whose code can run wherever v was selected,
// best first. The chain always ends with X86.
func (v Variant) Fallbacks() []Variant {
	switch v {
	case AVX2:
		return []Variant{AVX2, SSE4, SSE3, X86}
	case SSE4:
		return []Variant{SSE4, SSE3, X86}
	case SSE3:
		return []Variant{SSE3, X86}
	case NEON:
		return []Variant{NEON, X86}
	default:
		return []Variant{X86}
	}
}

// Arch returns the GOARCH family the variant targets. X86 returns "" since
// the fallback is not tied to an architecture.
func (v Variant) Arch() string {
	switch v {
	case AVX2, SSE4, SSE3:
		return "amd64"
	case NEON:
		return "arm64"
	default:
		return ""
	}
}

// ParseVariant returns the variant named by tag.
func ParseVariant(tag string) (Variant, error) {
	for i, t := range tags {
		if t == tag {
			return Variant(i), nil
		}
	}
	return X86, fmt.Errorf("%w: %q (valid: avx2, sse4, sse3, neon, x86)", ErrUnknownVariant, tag)
}

// ValidStem returns an error wrapping ErrInvalidStem unless stem is a valid
// Go identifier.
func ValidStem(stem string) error {
	if !token.IsIdentifier(stem) {
		return fmt.Errorf("%w: %q", ErrInvalidStem, stem)
	}
	return nil
}

// FullName decorates stem with the variant selected for the current build
// target.
func FullName(stem string) string {
	return BuildVariant.Decorate(stem)
}
