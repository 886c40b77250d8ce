package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/glyphtech/symscan/internal/pipeline"
)

var countCmd = &cobra.Command{
	Use:   "count <drawing.pdf>",
	Short: "Count symbol occurrences in a PDF drawing",
	Long: `Count searches every page of a PDF drawing for the given symbol
templates. Templates are image files; each file's name becomes the
reported symbol name. Without --templates, templates are discovered
from the document itself using --source.`,
	Args: cobra.ExactArgs(1),
	RunE: runCount,
}

func init() {
	countCmd.Flags().StringP("templates", "t", "", "directory of template images")
	countCmd.Flags().String("source", "", "discover templates from the document (vector or raster)")
	countCmd.Flags().Int("page", 1, "page mined for discovered templates (1-based)")
	countCmd.Flags().Float64("dpi", 0, "rasterization resolution (default from config)")
	countCmd.Flags().Float64("threshold", 0.75, "minimum template match score")
	countCmd.Flags().Float64Slice("scales", nil, "template scales to try")
	countCmd.Flags().Float64Slice("rotations", nil, "template rotations in degrees")
	countCmd.Flags().Int("min-count", 0, "minimum occurrences for a reported symbol")
	countCmd.Flags().Int("workers", 0, "page-level parallelism (default NumCPU)")
	countCmd.Flags().String("ml-model", "", "ONNX model for learned detection")
	countCmd.Flags().StringP("format", "f", "", "output format (json, csv, text)")
	countCmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")
	countCmd.Flags().String("annotate", "", "directory for annotated page images")
	countCmd.Flags().Bool("save-crops", false, "with --annotate, also save each detection crop")

	rootCmd.AddCommand(countCmd)
}

func runCount(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]

	b := pipeline.NewBuilder().
		WithConfig(globalConfig.Pipeline).
		WithLogger(globalLogger)
	if v, _ := cmd.Flags().GetFloat64("dpi"); v > 0 {
		b = b.WithDPI(v)
	}
	if cmd.Flags().Changed("threshold") {
		v, _ := cmd.Flags().GetFloat64("threshold")
		b = b.WithThreshold(v)
	}
	if v, _ := cmd.Flags().GetFloat64Slice("scales"); len(v) > 0 {
		b = b.WithScales(v)
	}
	if v, _ := cmd.Flags().GetFloat64Slice("rotations"); len(v) > 0 {
		b = b.WithRotations(v)
	}
	if v, _ := cmd.Flags().GetInt("min-count"); v > 0 {
		b = b.WithMinCount(v)
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		b = b.WithWorkers(v)
	}
	if v, _ := cmd.Flags().GetString("ml-model"); v != "" {
		b = b.WithMLModelPath(v)
	}
	pl, err := b.Build()
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	templates, err := resolveTemplates(cmd, pl, pdfPath)
	if err != nil {
		return err
	}

	result, err := pl.CountSymbols(cmd.Context(), pdfPath, templates, nil)
	if err != nil {
		return err
	}
	globalLogger.Info("counting finished",
		"file", pdfPath, "symbols", result.TotalCount(), "failed_pages", len(result.PageErrors))

	if dir, _ := cmd.Flags().GetString("annotate"); dir != "" {
		saveCrops, _ := cmd.Flags().GetBool("save-crops")
		paths, err := pl.Annotate(cmd.Context(), pdfPath, result, pipeline.AnnotateOptions{
			Dir:       dir,
			SaveCrops: saveCrops,
		})
		if err != nil {
			return fmt.Errorf("annotation failed: %w", err)
		}
		globalLogger.Info("annotations written", "dir", dir, "files", len(paths))
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

func resolveTemplates(cmd *cobra.Command, pl *pipeline.Pipeline, pdfPath string) ([]pipeline.Template, error) {
	dir, _ := cmd.Flags().GetString("templates")
	source, _ := cmd.Flags().GetString("source")
	switch {
	case dir != "" && source != "":
		return nil, fmt.Errorf("--templates and --source are mutually exclusive")
	case dir != "":
		return pipeline.LoadTemplateDir(dir)
	case source != "":
		page, _ := cmd.Flags().GetInt("page")
		if page < 1 {
			return nil, fmt.Errorf("--page must be at least 1")
		}
		return pl.DiscoverTemplates(cmd.Context(), pdfPath, page-1, pipeline.TemplateSource(source))
	default:
		return nil, pipeline.ErrNoTemplates
	}
}

// writeResult renders to --output or stdout in the configured format.
func writeResult(cmd *cobra.Command, render func(io.Writer, string) error) error {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = globalConfig.Output.Format
	}
	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		outPath = globalConfig.Output.File
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return render(w, format)
}
