// Command variantgen binds routines to their SIMD variant implementations.
//
// A package provides a routine R as R_avx2, R_sse4, R_sse3, R_neon and
// R_x86 (only R_x86 is mandatory). variantgen generates the files that make
// R callable:
//
//	//go:generate go run github.com/ajroetker/go-variant/cmd/variantgen gen -dir . -stems R
//
// In static mode (the default) one file per target binds R to the variant
// its build constraint guarantees, and builds for unrecognized architectures
// fail with "undefined: R" unless -allow-fallback is given. In runtime mode
// R is chosen at init from the running CPU through a variant.Table.
//
// Usage:
//
//	variantgen resolve [--avx2] [--sse42] [--sse3] [--neon] [stem...]
//	variantgen resolve --detect [--detector sys|cpuid] [stem...]
//	variantgen resolve --build [--strict] [stem...]
//	variantgen targets
//	variantgen gen --dir DIR --stems A,B [--mode static|runtime]
//	variantgen gen --config variantgen.yaml
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli holds state shared by the subcommands.
type cli struct {
	v      *viper.Viper
	logger log.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New(), logger: log.NewNopLogger()}

	root := &cobra.Command{
		Use:          "variantgen",
		Short:        "Bind routines to their SIMD variant implementations",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}
	root.PersistentFlags().String("config", "", "YAML config file (packages, allow_fallback)")
	root.PersistentFlags().String("log.level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newResolveCmd(c),
		newTargetsCmd(),
		newGenCmd(c),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	c.v.SetEnvPrefix("VARIANTGEN")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.v.AutomaticEnv()
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if path := c.v.GetString("config"); path != "" {
		c.v.SetConfigFile(path)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	logger, err := newLogger(cmd.ErrOrStderr(), c.v.GetString("log.level"))
	if err != nil {
		return err
	}
	c.logger = logger
	return nil
}

func newLogger(w io.Writer, lvl string) (log.Logger, error) {
	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "info", "":
		opt = level.AllowInfo()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return nil, fmt.Errorf("unknown log level: %s (valid: debug, info, warn, error)", lvl)
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, opt)
	return log.With(logger, "ts", log.DefaultTimestampUTC), nil
}
