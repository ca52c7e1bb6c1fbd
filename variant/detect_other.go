//go:build !amd64 && !386 && !arm64 && !arm

package variant

func sysFlags() (Flags, bool) {
	return Flags{}, false
}
