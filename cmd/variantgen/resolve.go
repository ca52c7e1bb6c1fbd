package main

import (
	"fmt"
	"runtime"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-variant/variant"
)

type resolveOpts struct {
	flags    variant.Flags
	detect   bool
	build    bool
	strict   bool
	detector string
}

func newResolveCmd(c *cli) *cobra.Command {
	var o resolveOpts
	cmd := &cobra.Command{
		Use:   "resolve [stem...]",
		Short: "Print the selected variant tag, or the decorated name of each stem",
		RunE: func(cmd *cobra.Command, stems []string) error {
			for _, stem := range stems {
				if err := variant.ValidStem(stem); err != nil {
					return err
				}
			}
			v, err := o.resolve(c.logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(stems) == 0 {
				fmt.Fprintln(out, v.Tag())
				return nil
			}
			for _, stem := range stems {
				fmt.Fprintln(out, v.Decorate(stem))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&o.flags.AVX2, "avx2", false, "AVX2 is available")
	f.BoolVar(&o.flags.SSE42, "sse42", false, "SSE4.2 is available")
	f.BoolVar(&o.flags.SSE3, "sse3", false, "SSE3 is available")
	f.BoolVar(&o.flags.ARMNeon, "neon", false, "ARM NEON is available")
	f.BoolVar(&o.flags.ARMNeonLegacy, "neon-legacy", false, "ARM NEON is available (legacy spelling)")
	f.BoolVar(&o.detect, "detect", false, "detect the flags of the running CPU")
	f.StringVar(&o.detector, "detector", "sys", "detector used by --detect: sys or cpuid")
	f.BoolVar(&o.build, "build", false, "use the variant this binary was compiled for")
	f.BoolVar(&o.strict, "strict", false, "fail instead of falling back when the target cannot be resolved")
	cmd.MarkFlagsMutuallyExclusive("detect", "build")
	return cmd
}

func (o resolveOpts) resolve(logger log.Logger) (variant.Variant, error) {
	switch {
	case o.build:
		if o.strict {
			return variant.StrictBuildVariant()
		}
		if !variant.BuildRecognized() {
			level.Warn(logger).Log("msg", "unrecognized build target, using fallback", "goarch", runtime.GOARCH)
		}
		return variant.BuildVariant, nil

	case o.detect:
		d, err := variant.DetectorByName(o.detector)
		if err != nil {
			return variant.X86, err
		}
		v, flags, err := variant.Detect(d)
		if err != nil {
			if o.strict {
				return variant.X86, err
			}
			level.Warn(logger).Log("msg", "detection failed, using fallback", "err", err)
			return variant.X86, nil
		}
		level.Debug(logger).Log("msg", "detected", "detector", o.detector, "flags", flags, "variant", v)
		return v, nil

	default:
		return variant.Resolve(o.flags), nil
	}
}
