package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glyphtech/symscan/internal/pipeline"
	"github.com/glyphtech/symscan/internal/utils"
)

var templatesCmd = &cobra.Command{
	Use:   "templates <drawing.pdf>",
	Short: "Discover symbol templates from a drawing and save them as images",
	Long: `Templates mines one page of a drawing for symbol exemplars and
writes each as a PNG. Vector discovery renders clustered geometry;
raster discovery cuts connected ink regions out of the rendered page.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplates,
}

func init() {
	templatesCmd.Flags().String("source", string(pipeline.TemplateSourceVector),
		"discovery strategy (vector or raster)")
	templatesCmd.Flags().Int("page", 1, "page to mine (1-based)")
	templatesCmd.Flags().StringP("output", "o", "templates", "directory for template images")

	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	pl, err := pipeline.NewBuilder().
		WithConfig(globalConfig.Pipeline).
		WithLogger(globalLogger).
		Build()
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	page, _ := cmd.Flags().GetInt("page")
	if page < 1 {
		return fmt.Errorf("--page must be at least 1")
	}
	source, _ := cmd.Flags().GetString("source")
	templates, err := pl.DiscoverTemplates(cmd.Context(), args[0], page-1, pipeline.TemplateSource(source))
	if err != nil {
		return err
	}

	outDir, _ := cmd.Flags().GetString("output")
	for _, t := range templates {
		path := filepath.Join(outDir, t.Name+".png")
		if err := utils.SaveImagePNG(t.Image, path); err != nil {
			return err
		}
		globalLogger.Info("template saved", "name", t.Name, "path", path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d templates to %s\n", len(templates), outDir)
	return nil
}
