// Package main provides the hri command line: local scoring, rule checks,
// bulk import, pipeline computation, inspection and replay.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DavinciInspired/H2Ready-Kit/internal/config"
	"github.com/DavinciInspired/H2Ready-Kit/internal/engine"
	"github.com/DavinciInspired/H2Ready-Kit/internal/logging"
	"github.com/DavinciInspired/H2Ready-Kit/internal/metrics"
	"github.com/DavinciInspired/H2Ready-Kit/internal/rules"
	"github.com/DavinciInspired/H2Ready-Kit/internal/scoring"
	"github.com/DavinciInspired/H2Ready-Kit/internal/store"
)

const (
	Version = "0.1.0"
	appName = "hri"
)

// #region main
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for a rejected rule document and 1 for anything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case rules.IsConfigError(err):
		return 2
	default:
		return 1
	}
}

// #endregion main

// #region root
// globals holds the flags shared by every subcommand. Unset flags fall back
// to the HRI_* environment.
type globals struct {
	cfg       config.Config
	dbPath    string
	rulesPath string
	logLevel  string
}

func rootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Hydrogen Readiness Index tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = g.dbPath
			}
			if cmd.Flags().Changed("rules") {
				cfg.RulesPath = g.rulesPath
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = g.logLevel
			}
			g.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database path (default $HRI_DB)")
	cmd.PersistentFlags().StringVar(&g.rulesPath, "rules", "", "rules YAML (default $HRI_RULES or the embedded table)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		scoreCmd(g),
		rulesCmd(g),
		importCmd(g),
		computeCmd(g),
		inspectCmd(g),
		replayCmd(g),
		remoteCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// #endregion root

// #region helpers
func (g *globals) logger() *slog.Logger {
	return logging.NewLogger(g.cfg.LogLevel, g.cfg.LogFormat, os.Stderr)
}

func (g *globals) engine() (*engine.Engine, error) {
	cfg, err := rules.LoadOrDefault(g.cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg), nil
}

func (g *globals) store() (*store.Store, error) {
	return store.NewStore(g.cfg.DBPath)
}

// service opens the store and builds a scoring service. The caller closes
// the returned store.
func (g *globals) service() (*scoring.Service, *store.Store, error) {
	e, err := g.engine()
	if err != nil {
		return nil, nil, err
	}
	st, err := g.store()
	if err != nil {
		return nil, nil, err
	}
	return scoring.NewService(e, st, metrics.NewRecorder(), g.logger()), st, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
