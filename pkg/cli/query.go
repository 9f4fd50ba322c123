package cli

import (
	"github.com/spf13/cobra"
)

type queryFlags struct {
	file   string
	index  int
	path   string
	output string
}

func newQueryCommand(g *globalFlags) *cobra.Command {
	f := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Evaluate a JSONPath against one server record",
		Example: `  apihistory query -f pets.yaml --index 0 --path '$.owner.gender'`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(f.output); err != nil {
				return err
			}
			h, err := loadHistory(cmd, g, f.file)
			if err != nil {
				return err
			}
			values, err := h.Lookup(f.index, f.path)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), f.output, values)
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Fixture file (.yaml, .yml or .json)")
	cmd.Flags().IntVar(&f.index, "index", 0, "Entry position")
	cmd.Flags().StringVar(&f.path, "path", "$", "JSONPath expression")
	cmd.Flags().StringVarP(&f.output, "output", "o", "json", "Output format: json, yaml")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
