package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glyphtech/symscan/internal/pipeline"
)

var vectorCmd = &cobra.Command{
	Use:   "vector <drawing.pdf>",
	Short: "Cluster repeated vector shapes into symbol groups",
	Long: `Vector extracts the drawn geometry of every page, filters out
marks that cannot be symbols, and groups identically-shaped primitives.
Each group is labeled from nearby text when the page has a text layer.`,
	Args: cobra.ExactArgs(1),
	RunE: runVector,
}

func init() {
	vectorCmd.Flags().Int("min-count", 0, "minimum occurrences for a reported group")
	vectorCmd.Flags().Int("workers", 0, "page-level parallelism (default NumCPU)")
	vectorCmd.Flags().StringP("format", "f", "", "output format (json, text)")
	vectorCmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")

	rootCmd.AddCommand(vectorCmd)
}

func runVector(cmd *cobra.Command, args []string) error {
	b := pipeline.NewBuilder().
		WithConfig(globalConfig.Pipeline).
		WithLogger(globalLogger)
	if v, _ := cmd.Flags().GetInt("min-count"); v > 0 {
		b = b.WithMinCount(v)
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		b = b.WithWorkers(v)
	}
	pl, err := b.Build()
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	result, err := pl.ExtractVector(cmd.Context(), args[0], nil)
	if err != nil {
		return err
	}

	return writeResult(cmd, func(w io.Writer, format string) error {
		if format == "text" {
			for _, p := range result.Pages {
				if _, err := fmt.Fprintf(w, "page %d:\n", p.Page); err != nil {
					return err
				}
				for _, s := range p.Symbols {
					if _, err := fmt.Fprintf(w, "  %-30s %d\n", s.Name, s.Count); err != nil {
						return err
					}
				}
			}
			return nil
		}
		return result.WriteJSON(w)
	})
}
