package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glyphtech/symscan/internal/config"
)

var (
	globalConfig *config.Config
	globalLogger *slog.Logger
	cfgFile      string
)

var rootCmd = &cobra.Command{
	Use:   "symscan",
	Short: "Symbol detection and counting for engineering drawings",
	Long: `symscan locates and counts schematic symbols in PDF engineering
drawings. It clusters repeated vector shapes, matches raster templates
across scales and rotations, and reports per-page symbol counts with
confidence scores.

Examples:
  symscan count drawing.pdf --templates ./symbols
  symscan vector drawing.pdf --format json
  symscan serve --port 8080`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/symscan, /etc/symscan)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}
		globalLogger = globalConfig.NewLogger()
	}
}

func initConfig() {
	loader := config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = loader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = loader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
}
