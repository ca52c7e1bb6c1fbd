package main

import (
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-variant/variant"
)

func newTargetsCmd() *cobra.Command {
	var allowFallback bool
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List variants in selection priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "Variant", "Const", "Suffix", "Static constraint", "Runtime archs"})
			for i, v := range variant.Variants() {
				tag := staticTagFor(v, allowFallback)
				if tag == "" {
					tag = "-"
				}
				t.AppendRow(table.Row{i + 1, v.Tag(), constName(v), v.Suffix(), tag, runtimeArchs(v, allowFallback)})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&allowFallback, "allow-fallback", false, "show constraints as generated with --allow-fallback")
	return cmd
}

// runtimeArchs lists the runtime groups that can register v.
func runtimeArchs(v variant.Variant, allowFallback bool) string {
	var names []string
	for _, g := range RuntimeGroups(allowFallback) {
		if slices.Contains(g.Candidates, v) {
			names = append(names, g.Name)
		}
	}
	return strings.Join(names, ",")
}
