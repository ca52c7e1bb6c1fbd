package main

import (
	"fmt"

	"github.com/ajroetker/go-variant/variant"
)

// BuildContext is the subset of a go/build context that decides which files
// of a package are compiled for a target.
type BuildContext struct {
	GOARCH   string
	ToolTags []string // "amd64.v2", ... satisfied by the target
}

func (c BuildContext) String() string {
	if len(c.ToolTags) == 0 {
		return c.GOARCH
	}
	return fmt.Sprintf("%s%v", c.GOARCH, c.ToolTags)
}

// otherContext stands in for architectures with no recognized extension.
// Files constrained to one specific such architecture are not considered.
var otherContext = BuildContext{GOARCH: "riscv64"}

var (
	amd64v1 = BuildContext{GOARCH: "amd64", ToolTags: []string{"amd64.v1"}}
	amd64v2 = BuildContext{GOARCH: "amd64", ToolTags: []string{"amd64.v1", "amd64.v2"}}
	amd64v3 = BuildContext{GOARCH: "amd64", ToolTags: []string{"amd64.v1", "amd64.v2", "amd64.v3"}}
	ctx386  = BuildContext{GOARCH: "386"}
	arm64   = BuildContext{GOARCH: "arm64"}
	arm     = BuildContext{GOARCH: "arm"}
)

// StaticTarget binds a routine to one variant for every build whose
// constraint matches BuildTag.
type StaticTarget struct {
	Variant  variant.Variant
	BuildTag string
	// Contexts are checked for the presence of the variant's implementation.
	Contexts []BuildContext
}

// StaticTargets returns the static binding targets in priority order. SSE3
// has no static target: no GOAMD64 level guarantees SSE3 without SSE4.2.
//
// Without allowFallback, builds for unrecognized architectures get no
// binding at all and fail to compile.
func StaticTargets(allowFallback bool) []StaticTarget {
	x86 := StaticTarget{
		Variant:  variant.X86,
		BuildTag: "(amd64 && !amd64.v2) || 386",
		Contexts: []BuildContext{amd64v1, ctx386},
	}
	if allowFallback {
		x86.BuildTag = "(amd64 && !amd64.v2) || (!amd64 && !arm64)"
		x86.Contexts = append(x86.Contexts, otherContext)
	}
	return []StaticTarget{
		{Variant: variant.AVX2, BuildTag: "amd64.v3", Contexts: []BuildContext{amd64v3}},
		{Variant: variant.SSE4, BuildTag: "amd64.v2 && !amd64.v3", Contexts: []BuildContext{amd64v2}},
		{Variant: variant.NEON, BuildTag: "arm64", Contexts: []BuildContext{arm64}},
		x86,
	}
}

// ArchGroup is one file of runtime dispatch registrations.
type ArchGroup struct {
	Name       string // file suffix
	BuildTag   string
	Context    BuildContext
	Candidates []variant.Variant // in priority order, always ending in X86
}

// RuntimeGroups returns the architectures runtime dispatch files are
// generated for.
func RuntimeGroups(allowFallback bool) []ArchGroup {
	x86 := []variant.Variant{variant.AVX2, variant.SSE4, variant.SSE3, variant.X86}
	neon := []variant.Variant{variant.NEON, variant.X86}
	groups := []ArchGroup{
		{Name: "amd64", BuildTag: "amd64", Context: amd64v1, Candidates: x86},
		{Name: "386", BuildTag: "386", Context: ctx386, Candidates: x86},
		{Name: "arm64", BuildTag: "arm64", Context: arm64, Candidates: neon},
		{Name: "arm", BuildTag: "arm", Context: arm, Candidates: neon},
	}
	if allowFallback {
		groups = append(groups, ArchGroup{
			Name:       "other",
			BuildTag:   "!amd64 && !386 && !arm64 && !arm",
			Context:    otherContext,
			Candidates: []variant.Variant{variant.X86},
		})
	}
	return groups
}

// Mode selects how stems are bound to their variants.
type Mode string

const (
	// ModeStatic emits build-constrained wrappers; the variant is fixed by
	// GOARCH and GOAMD64.
	ModeStatic Mode = "static"
	// ModeRuntime emits variant.Table registrations resolved at init from
	// the running CPU.
	ModeRuntime Mode = "runtime"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStatic, "":
		return ModeStatic, nil
	case ModeRuntime:
		return ModeRuntime, nil
	default:
		return "", fmt.Errorf("unknown mode: %s (valid: static, runtime)", s)
	}
}

// staticTagFor returns the build constraint of v's static target, or "" when
// v has none.
func staticTagFor(v variant.Variant, allowFallback bool) string {
	for _, t := range StaticTargets(allowFallback) {
		if t.Variant == v {
			return t.BuildTag
		}
	}
	return ""
}
