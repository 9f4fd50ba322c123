package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/apihistory/pkg/fixture"
	"github.com/getmockd/apihistory/pkg/history"
)

type replayFlags struct {
	file    string
	locale  string
	fields  []string
	where   string
	clients bool
	output  string
}

func newReplayCommand(g *globalFlags) *cobra.Command {
	f := &replayFlags{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Build a history from a fixture and print its records",
		Example: `  # Print every server record
  apihistory replay -f pets.yaml

  # Spanish view of the female-owned entries, names only
  apihistory replay -f pets.yaml --locale sp --where 'owner.gender == "female"' --fields id,name

  # Client records as YAML
  apihistory replay -f pets.yaml --clients -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var fields []string
			if cmd.Flags().Changed("fields") {
				fields = f.fields
				if fields == nil {
					fields = []string{}
				}
			}
			return runReplay(cmd, g, f, fields)
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Fixture file (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&f.locale, "locale", "", "Show translated server records for this locale")
	cmd.Flags().StringSliceVar(&f.fields, "fields", nil, "Fields to show (default: the fixture's defaultFields)")
	cmd.Flags().StringVar(&f.where, "where", "", "Only show entries whose server record matches this expression")
	cmd.Flags().BoolVar(&f.clients, "clients", false, "Show client records instead of server records")
	cmd.Flags().StringVarP(&f.output, "output", "o", "json", "Output format: json, yaml")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runReplay(cmd *cobra.Command, g *globalFlags, f *replayFlags, fields []string) error {
	if err := checkOutputFormat(f.output); err != nil {
		return err
	}

	h, err := loadHistory(cmd, g, f.file)
	if err != nil {
		return err
	}

	var positions []int
	if f.where != "" {
		positions, err = h.Where(f.where)
		if err != nil {
			return err
		}
	}

	var records []history.Record
	switch {
	case f.clients:
		records = pick(h.ListClients(), positions)
	case f.locale != "":
		records = pick(h.ListTranslatedServers(f.locale, fields), positions)
	default:
		records, err = h.ListServers(fields, positions)
		if err != nil {
			return err
		}
	}

	return writeOutput(cmd.OutOrStdout(), f.output, records)
}

func loadHistory(cmd *cobra.Command, g *globalFlags, path string) (*history.History, error) {
	fx, err := fixture.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	logger := g.logger(cmd)
	h, err := fx.Build(history.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("history loaded", "file", path, "entries", h.Len())
	return h, nil
}

// pick keeps the records at positions, in that order. A nil positions keeps all.
func pick(records []history.Record, positions []int) []history.Record {
	if positions == nil {
		return records
	}
	out := make([]history.Record, len(positions))
	for i, pos := range positions {
		out[i] = records[pos]
	}
	return out
}
