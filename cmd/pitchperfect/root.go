package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/pitchperfect/internal/config"
	"github.com/amishk599/pitchperfect/internal/extract"
	"github.com/amishk599/pitchperfect/internal/inference"
	"github.com/amishk599/pitchperfect/internal/model"
	"github.com/amishk599/pitchperfect/internal/pipeline"
	"github.com/amishk599/pitchperfect/internal/ratelimit"
	"github.com/amishk599/pitchperfect/internal/retry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "pitchperfect",
	Short: "Freelance proposal writer",
	Long:  "PitchPerfect turns a job post and your profile into a tailored freelance proposal.",
	// Errors are reported by the commands in user terms; cobra's own
	// "Error:" line and usage dump would repeat them.
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; the environment may already carry HF_TOKEN.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: PITCHPERFECT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > PITCHPERFECT_CONFIG env var > "./config.yaml"
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	cfg, used, err := config.Resolve(path)
	if err != nil {
		return nil, err
	}
	if used == "" {
		logger.Debug("no config file found, using defaults")
	} else {
		logger.Debug("config loaded", "path", used)
	}
	return cfg, nil
}

// setupLogger logs to stderr so stdout carries only command output.
func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExtractor(cfg *config.Config) *extract.Extractor {
	return extract.New(extract.Options{
		SkipEmptyParagraphs: cfg.Extract.SkipEmptyParagraphs,
		MaxBytes:            cfg.Extract.MaxUploadBytes,
	})
}

func newGenerator(cfg *config.Config, logger *slog.Logger) model.Generator {
	inf := cfg.Inference
	httpClient := &http.Client{Timeout: inf.Timeout}
	client := inference.NewHFClient(inf.Endpoint, inf.APIKey, httpClient, logger).
		WithOptions(inference.Options{WaitForModel: inf.WaitForModel, UseCache: inf.UseCache})
	var gen model.Generator = client
	if inf.MinInterval > 0 {
		gen = ratelimit.NewRateLimitedGenerator(client, ratelimit.NewLimiter(inf.MinInterval), inf.Endpoint)
	}
	return retry.NewRetryGenerator(gen, inf.MaxRetries, inf.RetryDelay, inf.MaxRetryDelay, logger)
}

func newPipeline(cfg *config.Config, logger *slog.Logger) *pipeline.Pipeline {
	return pipeline.New(newExtractor(cfg), newGenerator(cfg, logger), cfg.Inference.Parameters, logger)
}

// fail prints the user-facing message for err and returns it for the exit
// status.
func fail(logger *slog.Logger, err error) error {
	logger.Debug("command failed", "kind", model.ErrorKind(err), "error", err)
	fmt.Fprintln(os.Stderr, model.UserMessage(err))
	return err
}
