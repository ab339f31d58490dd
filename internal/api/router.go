// Package api exposes the upload, processing, translation and speech
// workflows over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"medtranslate/internal/pipeline"
	"medtranslate/pkg/models"
)

// Uploader stores uploaded documents.
type Uploader interface {
	Upload(ctx context.Context, data []byte, originalName string) (*models.StoredObject, error)
}

// Workflows is the pipeline behind the processing, translation and speech
// routes.
type Workflows interface {
	Process(ctx context.Context, req pipeline.ProcessRequest) (*models.ProcessResult, error)
	Translate(ctx context.Context, req pipeline.TranslateRequest) (*models.TranslationResult, error)
	Synthesize(ctx context.Context, req pipeline.SynthesizeRequest) (string, error)
	StartSynthesis(ctx context.Context, req pipeline.SynthesizeRequest) (*models.SynthesisTask, error)
	SynthesisStatus(ctx context.Context, taskID string) (*models.SynthesisTask, error)
}

// Config holds HTTP settings.
type Config struct {
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

// NewRouter creates the API router with all routes configured.
func NewRouter(uploader Uploader, workflows Workflows, cfg Config) http.Handler {
	h := &Handler{
		uploader:  uploader,
		workflows: workflows,
		maxUpload: cfg.MaxUploadBytes,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS)
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Put("/upload/{fileName}", h.UploadRaw)
	r.Post("/upload", h.UploadMultipart)
	r.Post("/process", h.Process)
	r.Post("/translate", h.Translate)
	r.Post("/synthesize", h.Synthesize)
	r.Get("/synthesize/{taskId}", h.SynthesisStatus)

	return r
}
