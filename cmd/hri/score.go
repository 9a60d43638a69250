package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
	"github.com/DavinciInspired/H2Ready-Kit/internal/engine"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
)

// #region score
func scoreCmd(g *globals) *cobra.Command {
	var (
		jsonOut    bool
		strict     bool
		allDrivers bool
	)
	cmd := &cobra.Command{
		Use:   "score [inputs.json|-]",
		Short: "Score one input record without persisting it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read inputs: %w", err)
			}
			in, err := decodeInputs(data)
			if err != nil {
				return err
			}
			if strict || g.cfg.StrictInputs {
				if err := segment.Validate(in); err != nil {
					return err
				}
			}
			e, err := g.engine()
			if err != nil {
				return err
			}
			r := e.Evaluate(in)
			if !allDrivers {
				r = r.ForCaller()
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), r)
			}
			printResult(cmd.OutOrStdout(), r)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of text")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject inputs outside declared ranges")
	cmd.Flags().BoolVar(&allDrivers, "all-drivers", false, "print every driver instead of the returned prefix")
	return cmd
}

func decodeInputs(data []byte) (segment.Inputs, error) {
	var in segment.Inputs
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return segment.Inputs{}, fmt.Errorf("decode inputs: %w", err)
	}
	return in, nil
}

func printResult(w io.Writer, r engine.Result) {
	fmt.Fprintf(w, "HRI %.2f  %s  (pre-gate %.2f, model %s)\n", r.HRI, r.ReadinessClass, r.PreGateHRI, r.ModelVersion)
	var pillars []string
	for _, c := range category.Order {
		pillars = append(pillars, fmt.Sprintf("%s=%.2f", c, r.Pillars[c]))
	}
	fmt.Fprintf(w, "Pillars  %s\n", strings.Join(pillars, " "))
	if len(r.Drivers) > 0 {
		fmt.Fprintln(w, "Drivers")
		for _, d := range r.Drivers {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
}

// #endregion score
