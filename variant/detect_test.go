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
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSysDetector(t *testing.T) {
	f, err := SysDetector{}.Detect()
	switch runtime.GOARCH {
	case "amd64", "386":
		require.NoError(t, err)
		assert.False(t, f.ARMNeon || f.ARMNeonLegacy)
	case "arm64":
		require.NoError(t, err)
		assert.True(t, f.ARMNeon, "ASIMD is mandatory on arm64")
		assert.False(t, f.AVX2 || f.SSE42 || f.SSE3)
	case "arm":
		require.NoError(t, err)
		assert.False(t, f.ARMNeon)
	default:
		assert.ErrorIs(t, err, ErrUndetectable)
	}
}

func TestDetectorsAgree(t *testing.T) {
	sys, sysFlags, sysErr := Detect(SysDetector{})
	id, idFlags, idErr := Detect(CPUIDDetector{})
	if sysErr != nil || idErr != nil {
		t.Skipf("detection unavailable: sys=%v cpuid=%v", sysErr, idErr)
	}
	assert.Equal(t, sys, id, "sys=%s cpuid=%s", sysFlags, idFlags)
}

func TestCurrentNeverExceedsDetection(t *testing.T) {
	best, _, err := Detect(SysDetector{})
	if err != nil {
		best = X86
	}
	assert.Contains(t, best.Fallbacks(), Current())
}

func TestDetectorByName(t *testing.T) {
	tests := []struct {
		name    string
		want    Detector
		wantErr bool
	}{
		{"sys", SysDetector{}, false},
		{"", SysDetector{}, false},
		{"cpuid", CPUIDDetector{}, false},
		{"cpuinfo", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectorByName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectError(t *testing.T) {
	boom := errors.New("boom")
	v, f, err := Detect(fakeDetector{flags: Flags{AVX2: true}, err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, X86, v)
	assert.Equal(t, Flags{}, f)
}
