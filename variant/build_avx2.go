//go:build amd64.v3

package variant

// GOAMD64=v3 and above guarantee AVX2 and everything below it.
var buildFlags = Flags{AVX2: true, SSE42: true, SSE3: true}

const buildRecognized = true
