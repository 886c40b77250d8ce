package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/glyphtech/symscan/internal/batch"
	"github.com/glyphtech/symscan/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir-or-pdf>...",
	Short: "Count symbols across many PDF drawings",
	Long: `Batch runs the symbol counter over every PDF found in the given
files and directories. Templates come from --templates and are shared
by all files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("templates", "t", "", "directory of template images (required)")
	batchCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	batchCmd.Flags().StringSlice("include", nil, "only process files matching these base-name patterns")
	batchCmd.Flags().StringSlice("exclude", nil, "skip files matching these base-name patterns")
	batchCmd.Flags().Int("file-workers", 1, "files processed concurrently")
	batchCmd.Flags().Bool("continue-on-error", false, "record failed files and keep going")
	batchCmd.Flags().Float64("threshold", 0.75, "minimum template match score")
	batchCmd.Flags().Float64("dpi", 0, "rasterization resolution (default from config)")
	batchCmd.Flags().Float64Slice("scales", nil, "template scales to try")
	batchCmd.Flags().Float64Slice("rotations", nil, "template rotations in degrees")
	batchCmd.Flags().Int("workers", 0, "page-level parallelism per file (default NumCPU)")
	batchCmd.Flags().StringP("format", "f", "", "output format (json, csv, text)")
	batchCmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")
	_ = batchCmd.MarkFlagRequired("templates")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	recursive, _ := cmd.Flags().GetBool("recursive")
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	fileWorkers, _ := cmd.Flags().GetInt("file-workers")
	keepGoing, _ := cmd.Flags().GetBool("continue-on-error")

	cfg := batch.Config{
		Recursive:       recursive,
		IncludePatterns: include,
		ExcludePatterns: exclude,
		Workers:         fileWorkers,
		ContinueOnError: keepGoing,
	}
	files, err := batch.DiscoverPDFs(args, cfg)
	if err != nil {
		return err
	}

	b := pipeline.NewBuilder().
		WithConfig(globalConfig.Pipeline).
		WithLogger(globalLogger)
	if cmd.Flags().Changed("threshold") {
		v, _ := cmd.Flags().GetFloat64("threshold")
		b = b.WithThreshold(v)
	}
	if v, _ := cmd.Flags().GetFloat64("dpi"); v > 0 {
		b = b.WithDPI(v)
	}
	if v, _ := cmd.Flags().GetFloat64Slice("scales"); len(v) > 0 {
		b = b.WithScales(v)
	}
	if v, _ := cmd.Flags().GetFloat64Slice("rotations"); len(v) > 0 {
		b = b.WithRotations(v)
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		b = b.WithWorkers(v)
	}
	pl, err := b.Build()
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	dir, _ := cmd.Flags().GetString("templates")
	templates, err := pipeline.LoadTemplateDir(dir)
	if err != nil {
		return err
	}

	result, err := batch.Run(cmd.Context(), pl, templates, files, cfg, globalLogger)
	if err != nil {
		return err
	}

	return writeResult(cmd, func(w io.Writer, format string) error {
		switch format {
		case "csv":
			return result.WriteCSV(w)
		case "text":
			return result.WriteText(w)
		default:
			return result.WriteJSON(w)
		}
	})
}
