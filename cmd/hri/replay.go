package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DavinciInspired/H2Ready-Kit/internal/logging"
	"github.com/DavinciInspired/H2Ready-Kit/internal/replay"
)

// #region replay
func replayCmd(g *globals) *cobra.Command {
	var (
		fixturePath string
		fromDB      bool
		last        int
		exportPath  string
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run recorded cases and report drift",
		Long: `Replay evaluates a JSON fixture (--fixture) or the recorded provenance log
(--from-db) under the configured rules and compares each outcome with the
expectation. Any mismatch makes the command exit non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (fixturePath == "") == !fromDB {
				return fmt.Errorf("give exactly one of --fixture or --from-db")
			}

			var cases []replay.Case
			if fixturePath != "" {
				f, err := replay.LoadFixture(fixturePath)
				if err != nil {
					return err
				}
				cases = f.Cases
			} else {
				st, err := g.store()
				if err != nil {
					return err
				}
				entries, err := logging.ListEntries(st.DB(), last)
				st.Close()
				if err != nil {
					return err
				}
				if cases, err = replay.FromProvenance(entries); err != nil {
					return err
				}
			}

			if exportPath != "" {
				fx := &replay.Fixture{Description: "exported provenance", Cases: cases}
				if err := replay.WriteFixture(exportPath, fx); err != nil {
					return err
				}
			}

			e, err := g.engine()
			if err != nil {
				return err
			}
			s := replay.Summarize(replay.Replay(e, cases, replay.DefaultReplayConfig()))

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Cases: %d | Passed: %d | Failed: %d | Rules changed: %d\n",
				s.Total, s.Passed, s.Failed, s.DigestChanged)
			for _, f := range s.Failures {
				fmt.Fprintf(w, "  FAIL %s\n", f)
			}
			if s.Failed > 0 {
				return fmt.Errorf("%d of %d cases drifted", s.Failed, s.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "path to fixture JSON")
	cmd.Flags().BoolVar(&fromDB, "from-db", false, "replay the provenance log of --db")
	cmd.Flags().IntVar(&last, "last", 1000, "with --from-db, replay the N most recent entries")
	cmd.Flags().StringVar(&exportPath, "export", "", "also write the replayed cases as a fixture")
	return cmd
}

// #endregion replay
