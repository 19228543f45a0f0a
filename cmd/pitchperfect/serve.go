package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/amishk599/pitchperfect/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Serve proposal generation over HTTP; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath, logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}
	if err := cfg.Inference.RequireAPIKey(); err != nil {
		logger.Error("missing credential", "error", err)
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("config loaded",
		"endpoint", cfg.Inference.Endpoint,
		"timeout", cfg.Inference.Timeout.String(),
		"template", cfg.Prompt.Template,
		"max_upload_bytes", cfg.Extract.MaxUploadBytes,
	)

	srv := server.New(
		server.Options{
			Addr:           addr,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			MaxUploadBytes: cfg.Extract.MaxUploadBytes,
		},
		newPipeline(cfg, logger),
		server.Defaults{
			Profile:     cfg.Profile,
			Template:    cfg.Prompt.Template,
			Urgency:     cfg.Prompt.Urgency,
			MatchSkills: cfg.Prompt.MatchSkills,
			Filename:    cfg.Output.Filename,
		},
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}
