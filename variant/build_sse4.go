//go:build amd64.v2 && !amd64.v3

package variant

// GOAMD64=v2 guarantees SSE3, SSSE3, SSE4.1 and SSE4.2.
var buildFlags = Flags{SSE42: true, SSE3: true}

const buildRecognized = true
