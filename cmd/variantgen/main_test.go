package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-variant/variant"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"avx2 wins", []string{"resolve", "--avx2", "--sse42"}, "avx2\n"},
		{"sse4 over sse3", []string{"resolve", "--sse42", "--sse3"}, "sse4\n"},
		{"sse3", []string{"resolve", "--sse3"}, "sse3\n"},
		{"neon", []string{"resolve", "--neon"}, "neon\n"},
		{"neon legacy", []string{"resolve", "--neon-legacy"}, "neon\n"},
		{"fallback", []string{"resolve"}, "x86\n"},
		{"stems", []string{"resolve", "--sse42", "--sse3", "checkBulk", "insertBulk"}, "checkBulk_sse4\ninsertBulk_sse4\n"},
		{"build", []string{"resolve", "--build", "R"}, variant.BuildVariant.Decorate("R") + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCommandDetect(t *testing.T) {
	for _, d := range []string{"sys", "cpuid"} {
		t.Run(d, func(t *testing.T) {
			got, err := execute(t, "resolve", "--detect", "--detector", d)
			require.NoError(t, err)
			_, err = variant.ParseVariant(strings.TrimSpace(got))
			assert.NoError(t, err)
		})
	}
}

func TestResolveCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"exclusive sources", []string{"resolve", "--detect", "--build"}},
		{"invalid stem", []string{"resolve", "--avx2", "1abc"}},
		{"unknown detector", []string{"resolve", "--detect", "--detector", "procfs"}},
		{"bad log level", []string{"--log.level", "trace", "resolve"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestResolveStrictBuild(t *testing.T) {
	got, err := execute(t, "resolve", "--build", "--strict")
	if variant.BuildRecognized() {
		require.NoError(t, err)
		assert.Equal(t, variant.BuildVariant.Tag()+"\n", got)
	} else {
		assert.ErrorIs(t, err, variant.ErrUnrecognizedTarget)
	}
}

func TestTargetsCommand(t *testing.T) {
	got, err := execute(t, "targets")
	require.NoError(t, err)

	for _, want := range []string{"avx2", "_sse4", "SSE3", "neon", "x86", "amd64.v3", "(amd64 && !amd64.v2) || 386", "arm64,arm"} {
		assert.Contains(t, got, want)
	}
	// Priority order is preserved in the listing.
	assert.Less(t, strings.Index(got, "_avx2"), strings.Index(got, "_sse4"))
	assert.Less(t, strings.Index(got, "_sse3"), strings.Index(got, "_neon"))
	assert.Less(t, strings.Index(got, "_neon"), strings.Index(got, "_x86"))

	got, err = execute(t, "targets", "--allow-fallback")
	require.NoError(t, err)
	assert.Contains(t, got, "(!amd64 && !arm64)")
}

func TestGenCommandFlags(t *testing.T) {
	dir := writePkg(t, sumPkg())

	got, err := execute(t, "gen", "--dir", dir, "--stems", "sum", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, got, "=== "+filepath.Join(dir, "zz_variant_avx2.go"))
	assert.Contains(t, got, "return sum_avx2(xs)")

	_, err = execute(t, "gen", "--dir", dir, "--stems", "sum", "--mode", "runtime", "--prefix", "zz_sum")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "zz_sum_amd64.go"))
	assert.NoError(t, err)
}

func TestGenCommandConfig(t *testing.T) {
	root := t.TempDir()
	pkgDir := filepath.Join(root, "demo")
	require.NoError(t, os.Mkdir(pkgDir, 0o755))
	for name, src := range sumPkg() {
		require.NoError(t, os.WriteFile(filepath.Join(pkgDir, name), []byte(src), 0o644))
	}

	cfg := filepath.Join(root, "variantgen.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`allow_fallback: true
packages:
  - dir: demo
    stems: [sum]
    mode: runtime
`), 0o644))

	_, err := execute(t, "--config", cfg, "gen")
	require.NoError(t, err)

	other, err := os.ReadFile(filepath.Join(pkgDir, "zz_dispatch_other.go"))
	require.NoError(t, err, "allow_fallback from the config file adds the other file")
	assert.Contains(t, string(other), "Register(variant.X86, sum_x86)")
}

func TestGenCommandFailsLoudly(t *testing.T) {
	dir := writePkg(t, map[string]string{"f.go": "package demo\n\nfunc f_avx2() {}\n"})

	_, err := execute(t, "gen", "--dir", dir, "--stems", "f")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "f_x86 is not defined")

	_, err = execute(t, "gen")
	assert.ErrorContains(t, err, "no packages configured")
}
