package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glyphtech/symscan/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP detection server",
	Long: `Serve exposes detection over HTTP: synchronous counting and vector
extraction, asynchronous jobs with websocket progress streaming, plus
health and Prometheus metrics endpoints.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "0.0.0.0", "listen address")
	serveCmd.Flags().Int("port", 8080, "listen port")
	serveCmd.Flags().Int("max-upload-mb", 64, "maximum upload size in megabytes")
	serveCmd.Flags().Float64("rate-limit", 0, "requests per second per client (0 disables)")
	serveCmd.Flags().String("store", "", "job store backend (memory or badger)")
	serveCmd.Flags().String("store-dir", "", "badger data directory")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.max_upload_mb", serveCmd.Flags().Lookup("max-upload-mb"))
	_ = viper.BindPFlag("server.rate_limit", serveCmd.Flags().Lookup("rate-limit"))
	_ = viper.BindPFlag("store.backend", serveCmd.Flags().Lookup("store"))
	_ = viper.BindPFlag("store.dir", serveCmd.Flags().Lookup("store-dir"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("host") {
		globalConfig.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		globalConfig.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("max-upload-mb") {
		globalConfig.Server.MaxUploadMB, _ = cmd.Flags().GetInt("max-upload-mb")
	}
	if cmd.Flags().Changed("rate-limit") {
		globalConfig.Server.RateLimit, _ = cmd.Flags().GetFloat64("rate-limit")
	}
	if cmd.Flags().Changed("store") {
		globalConfig.Store.Backend, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("store-dir") {
		globalConfig.Store.Dir, _ = cmd.Flags().GetString("store-dir")
	}

	srv, err := server.New(globalConfig, globalLogger)
	if err != nil {
		return err
	}
	defer func() { _ = srv.Close() }()

	return srv.ListenAndServe()
}
