package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"medtranslate/internal/api"
	"medtranslate/internal/callback"
	"medtranslate/internal/logger"
	"medtranslate/internal/speech"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MedTranslate HTTP API",
	Long: `Start the HTTP API serving /upload, /process, /translate and /synthesize.

The server stops gracefully on SIGINT or SIGTERM, finishing in-flight
requests and synthesis callbacks first.

Environment variables:
  STORAGE_BUCKET   - Bucket for uploads and synthesized speech (required)
  HTTP_ADDR        - Listen address (default :8080)
  OCR_PROVIDER     - rekognition, vision or documentai
  TRANSLATION_PROVIDER - aws or openai`,
	Example: `  # Serve on the default address
  medtranslate serve

  # Serve on another port with a shorter shutdown grace period
  medtranslate serve --addr :9090 --grace 10`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().Int("grace", 30, "Graceful shutdown period in seconds")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	grace, _ := cmd.Flags().GetInt("grace")

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	svc, err := loadServices(baseCtx, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	addr := svc.cfg.HTTPAddr
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}

	trackCtx, stopTracking := context.WithCancel(baseCtx)
	defer stopTracking()
	tracker := speech.NewTracker(trackCtx, svc.speech, callback.NewClient(svc.cfg.CallbackTimeout))
	router := api.NewRouter(svc.gateway, svc.orchestrator(tracker), api.Config{
		RequestTimeout: svc.cfg.HTTPRequestTimeout,
		MaxUploadBytes: svc.cfg.MaxUploadBytes(),
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server error")
			return err
		}
	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(grace)*time.Second)
	defer cancel()

	drain(ctx, srv, tracker, stopTracking)

	log.Info().Msg("Server stopped")
	return nil
}

// drain stops accepting requests, then cancels pending trackers so each one
// posts its callback before ctx expires.
func drain(ctx context.Context, srv *http.Server, tracker *speech.Tracker, stopTracking context.CancelFunc) {
	log := logger.WithComponent("serve")

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			log.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	stopTracking()
	if err := tracker.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Synthesis callbacks still pending at shutdown")
	}
}
