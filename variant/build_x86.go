//go:build amd64 && !amd64.v2

package variant

// GOAMD64=v1 only guarantees SSE2.
var buildFlags = Flags{}

const buildRecognized = true
