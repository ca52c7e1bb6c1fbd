package main

import (
	"fmt"
	"path/filepath"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

func newGenCmd(c *cli) *cobra.Command {
	var (
		dirs []string
		pc   PackageConfig
	)
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate variant bindings for packages",
		Long: `Generate variant bindings for the stems of one or more packages.

Packages come from --dir (each gets --stems, --mode, --prefix and --tag-const)
and from the "packages" list of the --config file. Relative directories in the
config file are resolved against the file's directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.v.BindPFlag("allow_fallback", cmd.Flags().Lookup("allow-fallback")); err != nil {
				return err
			}
			if err := c.v.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run")); err != nil {
				return err
			}

			pkgs, err := c.configPackages()
			if err != nil {
				return err
			}
			for _, dir := range dirs {
				p := pc
				p.Dir = dir
				pkgs = append(pkgs, p)
			}

			g := &Generator{
				Logger:        c.logger,
				AllowFallback: c.v.GetBool("allow_fallback"),
				DryRun:        c.v.GetBool("dry_run"),
				Out:           cmd.OutOrStdout(),
			}
			level.Debug(c.logger).Log("msg", "generating", "packages", len(pkgs), "allow_fallback", g.AllowFallback)
			if err := g.Run(cmd.Context(), pkgs); err != nil {
				level.Error(c.logger).Log("msg", "generation failed", "err", err)
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&dirs, "dir", nil, "package directory (repeatable)")
	f.StringSliceVar(&pc.Stems, "stems", nil, "routine stems to bind, comma separated")
	f.StringVar(&pc.Mode, "mode", string(ModeStatic), "binding mode: static or runtime")
	f.StringVar(&pc.Prefix, "prefix", "", "generated file prefix (default zz_variant or zz_dispatch)")
	f.StringVar(&pc.TagConst, "tag-const", "", `name of the bound-tag constant in static mode, "-" to omit (default variantTag)`)
	f.Bool("allow-fallback", false, "bind the x86 fallback on unrecognized architectures instead of failing the build")
	f.Bool("dry-run", false, "print generated files instead of writing them")
	return cmd
}

// configPackages returns the packages listed in the config file.
func (c *cli) configPackages() ([]PackageConfig, error) {
	var pkgs []PackageConfig
	if err := c.v.UnmarshalKey("packages", &pkgs); err != nil {
		return nil, fmt.Errorf("decode packages: %w", err)
	}
	base := ""
	if used := c.v.ConfigFileUsed(); used != "" {
		base = filepath.Dir(used)
	}
	for i := range pkgs {
		if pkgs[i].Dir == "" {
			pkgs[i].Dir = "."
		}
		if base != "" && !filepath.IsAbs(pkgs[i].Dir) {
			pkgs[i].Dir = filepath.Join(base, pkgs[i].Dir)
		}
	}
	return pkgs, nil
}
