package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DavinciInspired/H2Ready-Kit/internal/transport"
)

// #region remote
func remoteCmd(g *globals) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Call a running hrid over gRPC",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "", "hrid address (default $HRI_GRPC_ADDR)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "per-call timeout")

	dial := func() (*transport.Client, context.Context, context.CancelFunc, error) {
		if addr == "" {
			addr = g.cfg.GRPCAddr
		}
		c, err := transport.Dial(addr)
		if err != nil {
			return nil, nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		return c, ctx, cancel, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "evaluate [inputs.json|-]",
		Short: "Score an input record on the server",
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
			c, ctx, cancel, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			defer cancel()
			out, err := c.Evaluate(ctx, in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "compute <segment-id>",
		Short: "Score and persist a stored segment on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			defer cancel()
			out, err := c.ComputeSegmentScore(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "latest [pipeline-id]",
		Short: "List segments with their newest score",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipelineID := ""
			if len(args) == 1 {
				pipelineID = args[0]
			}
			c, ctx, cancel, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			defer cancel()
			rows, err := c.LatestScores(ctx, pipelineID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "pipelines",
		Short: "List pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ctx, cancel, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			defer cancel()
			pipes, err := c.ListPipelines(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pipes)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "segments [pipeline-id]",
		Short: "List segments, optionally for one pipeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipelineID := ""
			if len(args) == 1 {
				pipelineID = args[0]
			}
			c, ctx, cancel, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			defer cancel()
			segs, err := c.ListSegments(ctx, pipelineID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), segs)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "inputs <segment-id>",
		Short: "Print a segment's recorded inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			defer cancel()
			in, err := c.GetInputs(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), in)
		},
	})
	return cmd
}

// #endregion remote
