package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
	"github.com/DavinciInspired/H2Ready-Kit/internal/rules"
)

// #region rules
func rulesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rule documents",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [rules.yaml]",
		Short: "Validate a rule document (default: the configured one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.cfg.RulesPath
			if len(args) == 1 {
				path = args[0]
			}
			cfg, err := rules.LoadOrDefault(path)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "source   %s\n", cfg.Source)
			fmt.Fprintf(w, "version  %s\n", cfg.Version)
			fmt.Fprintf(w, "digest   %s\n", cfg.Digest)
			for _, c := range category.Order {
				fmt.Fprintf(w, "weight   %s %-22s %.2f\n", c, c.Name(), cfg.Weights[c])
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the embedded reference rule document",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.OutOrStdout().Write(rules.DefaultDocument())
		},
	})
	return cmd
}

// #endregion rules
