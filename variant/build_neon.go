//go:build arm64

package variant

// ASIMD is mandatory on ARMv8.
var buildFlags = Flags{ARMNeon: true}

const buildRecognized = true
