package cmd

import (
	"log/slog"

	"github.com/MeKo-Tech/grainscan/internal/config"
	"github.com/MeKo-Tech/grainscan/internal/server"
	"github.com/MeKo-Tech/grainscan/internal/version"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the grain analysis HTTP server",
	Long: `Start an HTTP server that analyzes uploaded images.

Endpoints:
  GET  /health          health check
  POST /v1/analyze      multipart upload (field "image"), returns json, csv,
                        yaml, text or an overlay PNG (?format=...)
  GET  /v1/analyze/ws   WebSocket streaming one message per grain
  GET  /metrics         Prometheus metrics

Analysis flags set the server defaults; requests may override threshold,
invert, keep_border, min_pixels and thickness.

Examples:
  grainscan serve
  grainscan serve --host 0.0.0.0 --port 9000 --cors-origin https://lab.example
  grainscan serve --invert --max-upload-size 100`,
	RunE: runServeCommand,
}

// applyServerFlags copies explicitly set server flags onto cfg.
func applyServerFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("host") {
		cfg.Server.Host, _ = f.GetString("host")
	}
	if f.Changed("port") {
		cfg.Server.Port, _ = f.GetInt("port")
	}
	if f.Changed("cors-origin") {
		cfg.Server.CORSOrigin, _ = f.GetString("cors-origin")
	}
	if f.Changed("max-upload-size") {
		cfg.Server.MaxUploadMB, _ = f.GetInt("max-upload-size")
	}
	if f.Changed("timeout") {
		cfg.Server.TimeoutSec, _ = f.GetInt("timeout")
	}
	if f.Changed("shutdown-timeout") {
		cfg.Server.ShutdownTimeout, _ = f.GetInt("shutdown-timeout")
	}
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyAnalysisFlags(cmd, cfg)
	applyServerFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}
	pcfg, err := cfg.ToPipelineConfig()
	if err != nil {
		return err
	}

	slog.Info("Starting grainscan server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"cors_origin", cfg.Server.CORSOrigin,
		"max_upload_mb", cfg.Server.MaxUploadMB,
		"timeout_sec", cfg.Server.TimeoutSec)

	return server.Run(cmd.Context(), server.Config{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		CORSOrigin:         cfg.Server.CORSOrigin,
		MaxUploadMB:        int64(cfg.Server.MaxUploadMB),
		TimeoutSec:         cfg.Server.TimeoutSec,
		ShutdownTimeoutSec: cfg.Server.ShutdownTimeout,
		Pipeline:           pcfg,
		Version:            version.Version,
		Logger:             slog.Default(),
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addAnalysisFlags(serveCmd)

	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "allowed CORS origin")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "graceful shutdown timeout in seconds")
}
