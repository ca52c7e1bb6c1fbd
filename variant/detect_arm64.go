//go:build arm64

package variant

import "golang.org/x/sys/cpu"

func sysFlags() (Flags, bool) {
	return Flags{ARMNeon: cpu.ARM64.HasASIMD}, true
}
