// Package cli implements the apihistory command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/apihistory/pkg/logging"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	logLevel  string
	logFormat string
}

func (g *globalFlags) logger(cmd *cobra.Command) *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(g.logLevel),
		Format: logging.ParseFormat(g.logFormat),
		Output: cmd.ErrOrStderr(),
	})
}

// NewRootCommand builds the apihistory command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "apihistory",
		Short: "Replay and inspect recorded API interaction histories",
		Long: `apihistory loads a history fixture (YAML or JSON), applies its entries,
translations and steps, and prints the resulting server records.

Fixtures list client/server pairs keyed by id, per-locale translation overlays
and mutation steps such as remove, replace and reloadServer.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format: text, json")

	root.AddCommand(newReplayCommand(g))
	root.AddCommand(newQueryCommand(g))
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
