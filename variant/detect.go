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

	"github.com/klauspost/cpuid/v2"
)

// ErrUndetectable is returned by a Detector on architectures where it cannot
// report instruction-set extensions.
var ErrUndetectable = errors.New("cpu feature detection unavailable")

// Detector reports the instruction-set extensions of the running CPU.
type Detector interface {
	Detect() (Flags, error)
}

// SysDetector reads CPU features through golang.org/x/sys/cpu.
type SysDetector struct{}

// Detect implements Detector.
func (SysDetector) Detect() (Flags, error) {
	f, ok := sysFlags()
	if !ok {
		return Flags{}, fmt.Errorf("%w: GOARCH=%s", ErrUndetectable, runtime.GOARCH)
	}
	return f, nil
}

// CPUIDDetector reads CPU features through github.com/klauspost/cpuid/v2.
type CPUIDDetector struct{}

// Detect implements Detector.
func (CPUIDDetector) Detect() (Flags, error) {
	switch runtime.GOARCH {
	case "amd64", "386", "arm64":
	default:
		return Flags{}, fmt.Errorf("%w: GOARCH=%s", ErrUndetectable, runtime.GOARCH)
	}
	return Flags{
		AVX2:    cpuid.CPU.Supports(cpuid.AVX2),
		SSE42:   cpuid.CPU.Supports(cpuid.SSE42),
		SSE3:    cpuid.CPU.Supports(cpuid.SSE3),
		ARMNeon: cpuid.CPU.Supports(cpuid.ASIMD),
	}, nil
}

// DetectorByName returns the detector registered under name ("sys" or
// "cpuid").
func DetectorByName(name string) (Detector, error) {
	switch name {
	case "sys", "":
		return SysDetector{}, nil
	case "cpuid":
		return CPUIDDetector{}, nil
	default:
		return nil, fmt.Errorf("unknown detector: %s (valid: sys, cpuid)", name)
	}
}

// Detect runs d and resolves the reported flags.
func Detect(d Detector) (Variant, Flags, error) {
	f, err := d.Detect()
	if err != nil {
		return X86, Flags{}, err
	}
	return Resolve(f), f, nil
}
