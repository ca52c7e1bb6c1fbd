//go:build arm

package variant

import "golang.org/x/sys/cpu"

// 32-bit ARM reports NEON under its original name.
func sysFlags() (Flags, bool) {
	return Flags{ARMNeonLegacy: cpu.ARM.HasNEON}, true
}
