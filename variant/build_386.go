//go:build 386

package variant

var buildFlags = Flags{}

const buildRecognized = true
