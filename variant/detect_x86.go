//go:build amd64 || 386

package variant

import "golang.org/x/sys/cpu"

func sysFlags() (Flags, bool) {
	return Flags{
		AVX2:  cpu.X86.HasAVX2,
		SSE42: cpu.X86.HasSSE42,
		SSE3:  cpu.X86.HasSSE3,
	}, true
}
