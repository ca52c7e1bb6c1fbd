//go:build !amd64 && !arm64 && !386

package variant

// Other targets have no recognized extension. BuildVariant falls back to X86
// and StrictBuildVariant reports the target as unrecognized.
var buildFlags = Flags{}

const buildRecognized = false
