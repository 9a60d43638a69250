package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DavinciInspired/H2Ready-Kit/internal/bulk"
	"github.com/DavinciInspired/H2Ready-Kit/internal/logging"
)

// #region import
func importCmd(g *globals) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "import <segments.csv>",
		Short: "Create pipelines and segments and merge their inputs from CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			st, err := g.store()
			if err != nil {
				return err
			}
			defer st.Close()

			cfg := bulk.DefaultImportConfig()
			cfg.Strict = strict || g.cfg.StrictInputs
			rep, err := bulk.NewImporter(st, cfg, g.logger()).Import(f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject rows outside declared ranges")
	return cmd
}

// #endregion import

// #region compute
func computeCmd(g *globals) *cobra.Command {
	var (
		segmentID string
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "compute [pipeline-id]",
		Short: "Score and persist every segment of a pipeline, or one segment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (segmentID == "") {
				return fmt.Errorf("give either a pipeline id or --segment")
			}
			svc, st, err := g.service()
			if err != nil {
				return err
			}
			defer st.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SEGMENT\tSCORE ID\tHRI\tCLASS\tGATES")

			if segmentID != "" {
				rec, res, err := svc.ComputeSegment(segmentID)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%d\n", segmentID, rec.ID, res.HRI, res.ReadinessClass, len(res.Gates))
				return w.Flush()
			}

			if workers <= 0 {
				workers = g.cfg.Workers
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			outcomes, err := svc.ComputePipeline(ctx, args[0], workers)
			for _, o := range outcomes {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%d\n", o.Segment.ID, o.Record.ID, o.Result.HRI, o.Result.ReadinessClass, len(o.Result.Gates))
			}
			if ferr := w.Flush(); err == nil {
				err = ferr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&segmentID, "segment", "", "score a single segment")
	cmd.Flags().IntVar(&workers, "workers", 0, "batch workers (default $HRI_WORKERS)")
	return cmd
}

// #endregion compute

// #region inspect
func inspectCmd(g *globals) *cobra.Command {
	var (
		pipelineID string
		segmentID  string
		provenance bool
		last       int
		jsonOut    bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show latest scores, a segment's score history, or the provenance log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := g.store()
			if err != nil {
				return err
			}
			defer st.Close()
			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

			switch {
			case provenance:
				entries, err := logging.ListEntries(st.DB(), last)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(out, entries)
				}
				fmt.Fprintln(w, "ID\tSEGMENT\tSCORE ID\tHRI\tCLASS\tDIGEST\tCREATED")
				for _, e := range entries {
					fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%.12s\t%s\n",
						e.ID, e.SegmentID, e.ScoreID, e.HRI, e.ReadinessClass, e.RulesDigest, e.CreatedAt.Format("2006-01-02 15:04:05"))
				}

			case segmentID != "":
				scores, err := st.ListScores(segmentID, last)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(out, scores)
				}
				fmt.Fprintln(w, "SCORE ID\tHRI\tCLASS\tMODEL\tCREATED")
				for _, s := range scores {
					fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\t%s\n",
						s.ID, s.HRI, s.ReadinessClass, s.ModelVersion, s.CreatedAt.Format("2006-01-02 15:04:05"))
				}

			default:
				rows, err := st.LatestScores(pipelineID)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(out, rows)
				}
				fmt.Fprintln(w, "PIPELINE\tSEGMENT\tSTART KM\tEND KM\tHRI\tCLASS")
				for _, r := range rows {
					hri, class := "-", "-"
					if r.Score != nil {
						hri, class = fmt.Sprintf("%.2f", r.Score.HRI), r.Score.ReadinessClass
					}
					fmt.Fprintf(w, "%s\t%s\t%.3f\t%.3f\t%s\t%s\n",
						r.Segment.PipelineID, r.Segment.ID, r.Segment.StartKM, r.Segment.EndKM, hri, class)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&pipelineID, "pipeline", "", "limit latest scores to one pipeline")
	cmd.Flags().StringVar(&segmentID, "segment", "", "show score history for one segment")
	cmd.Flags().BoolVar(&provenance, "provenance", false, "show the provenance log")
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent entries")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of a table")
	cmd.AddCommand(inspectPipelinesCmd(g), inspectSegmentsCmd(g), inspectInputsCmd(g))
	return cmd
}

func inspectPipelinesCmd(g *globals) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "pipelines",
		Short: "List pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := g.store()
			if err != nil {
				return err
			}
			defer st.Close()
			pipes, err := st.ListPipelines()
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), pipes)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PIPELINE\tNAME\tOPERATOR\tREGION")
			for _, p := range pipes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Operator, p.Region)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of a table")
	return cmd
}

func inspectSegmentsCmd(g *globals) *cobra.Command {
	var (
		pipelineID string
		jsonOut    bool
	)
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "List segments, optionally for one pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := g.store()
			if err != nil {
				return err
			}
			defer st.Close()
			segs, err := st.ListSegments(pipelineID)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), segs)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PIPELINE\tSEGMENT\tSTART KM\tEND KM")
			for _, s := range segs {
				fmt.Fprintf(w, "%s\t%s\t%.3f\t%.3f\n", s.PipelineID, s.ID, s.StartKM, s.EndKM)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&pipelineID, "pipeline", "", "limit to one pipeline")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of a table")
	return cmd
}

func inspectInputsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "inputs <segment-id>",
		Short: "Print a segment's recorded inputs as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := g.store()
			if err != nil {
				return err
			}
			defer st.Close()
			in, err := st.GetInputs(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), in)
		},
	}
}

// #endregion inspect
