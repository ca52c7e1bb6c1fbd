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
	"os"
	"slices"
	"strconv"
	"sync/atomic"
)

// Environment variables read once at package initialization.
const (
	// NoSimdEnvVar forces the X86 fallback when set to a true value.
	NoSimdEnvVar = "VARIANT_NO_SIMD"
	// TargetEnvVar forces a variant by tag. Only variants the running CPU
	// can execute are honored.
	TargetEnvVar = "VARIANT_TARGET"
)

var (
	current      atomic.Uint32
	currentFlags Flags
	detected     bool
	envErr       error
)

func init() {
	initCurrent(SysDetector{})
}

func initCurrent(d Detector) {
	envErr = nil
	currentFlags = Flags{}
	detected = false

	if NoSimdEnv() {
		current.Store(uint32(X86))
		return
	}

	best, flags, err := Detect(d)
	if err == nil {
		currentFlags = flags
		detected = true
	}

	if tag := os.Getenv(TargetEnvVar); tag != "" {
		v, err := ParseVariant(tag)
		switch {
		case err != nil:
			envErr = fmt.Errorf("%s: %w", TargetEnvVar, err)
		case !slices.Contains(best.Fallbacks(), v):
			envErr = fmt.Errorf("%s: variant %s cannot run where %s was detected", TargetEnvVar, v, best)
		default:
			best = v
		}
	}
	current.Store(uint32(best))
}

// NoSimdEnv reports whether VARIANT_NO_SIMD requests the X86 fallback.
func NoSimdEnv() bool {
	val := os.Getenv(NoSimdEnvVar)
	if val == "" {
		return false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		// Any other non-empty value disables SIMD.
		return true
	}
	return b
}

// Current returns the variant selected for the running CPU.
func Current() Variant {
	return Variant(current.Load())
}

// CurrentFlags returns the flags detected at initialization. They are zero
// when detection was skipped or unavailable.
func CurrentFlags() Flags {
	return currentFlags
}

// Detected reports whether Current was derived from CPU detection.
func Detected() bool {
	return detected
}

// EnvError returns the error from an ignored VARIANT_TARGET value, if any.
func EnvError() error {
	return envErr
}

// SetForced overrides Current until the returned function is called. It is
// meant for tests that exercise every variant of a Table.
//
//	defer variant.SetForced(variant.X86)()
func SetForced(v Variant) (restore func()) {
	prev := current.Swap(uint32(v))
	return func() {
		current.Store(prev)
	}
}
