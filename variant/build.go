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
	"runtime"
)

// ErrUnrecognizedTarget is returned when the build target exposes none of the
// recognized extensions and is not an x86 target, so the x86 fallback name
// would not describe the compiled code.
var ErrUnrecognizedTarget = errors.New("unrecognized build target")

// BuildVariant is the variant selected from the extensions guaranteed by the
// build target (GOARCH and GOAMD64). It never changes at run time.
var BuildVariant = Resolve(buildFlags)

// BuildFlags returns the extensions the build target guarantees.
func BuildFlags() Flags {
	return buildFlags
}

// BuildRecognized reports whether the build target is one the selection
// rules know about. When false, BuildVariant is X86 by default only.
func BuildRecognized() bool {
	return buildRecognized
}

// StrictBuildVariant returns BuildVariant, or an error wrapping
// ErrUnrecognizedTarget when the target is not recognized.
func StrictBuildVariant() (Variant, error) {
	if !buildRecognized {
		return X86, fmt.Errorf("%w: GOARCH=%s", ErrUnrecognizedTarget, runtime.GOARCH)
	}
	return BuildVariant, nil
}
