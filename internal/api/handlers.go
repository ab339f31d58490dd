package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medtranslate/internal/logger"
	"medtranslate/internal/pipeline"
	"medtranslate/internal/storage"
	"medtranslate/pkg/models"
)

// Handler serves the API routes.
type Handler struct {
	uploader  Uploader
	workflows Workflows
	maxUpload int64
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	Message string `json:"message"`
	FileID  string `json:"fileId"`
	FileURL string `json:"fileUrl"`
}

// SynthesizeResponse is returned by a synchronous synthesis.
type SynthesizeResponse struct {
	SpeechURL string `json:"speechUrl"`
}

// TaskResponse reports an asynchronous synthesis task.
type TaskResponse struct {
	models.SynthesisTask
	SpeechURL string `json:"speechUrl,omitempty"`
}

// UploadRaw handles PUT /upload/{fileName} with the file as the request body.
func (h *Handler) UploadRaw(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "fileName")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUpload))
	if err != nil {
		h.writeReadError(w, err)
		return
	}

	h.store(w, r, data, name)
}

// UploadMultipart handles POST /upload with a multipart "file" field.
func (h *Handler) UploadMultipart(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeReadError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeReadError(w, err)
		return
	}

	h.store(w, r, data, header.Filename)
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request, data []byte, name string) {
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "No file provided.")
		return
	}

	obj, err := h.uploader.Upload(r.Context(), data, name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrEmptyObject) {
			status = http.StatusBadRequest
		}
		logger.Ctx(r.Context()).Error().Err(err).Str("file_name", name).Msg("Upload failed")
		writeError(w, status, fmt.Sprintf("Failed to upload file: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Message: fmt.Sprintf("The file %s was uploaded successfully.", name),
		FileID:  obj.Key,
		FileURL: obj.PublicURL,
	})
}

func (h *Handler) writeReadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d byte limit.", tooLarge.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read file: %v", err))
}

// Process handles POST /process.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ProcessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	result, err := h.workflows.Process(r.Context(), req)
	if err != nil {
		writeStageError(w, r, err, "Processing failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Translate handles POST /translate.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var req pipeline.TranslateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	result, err := h.workflows.Translate(r.Context(), req)
	if err != nil {
		writeStageError(w, r, err, "Translation failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Synthesize handles POST /synthesize. With "async" set it answers 202 with
// the task instead of waiting for the audio.
func (h *Handler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req pipeline.SynthesizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.Async {
		task, err := h.workflows.StartSynthesis(r.Context(), req)
		if err != nil {
			writeStageError(w, r, err, "Speech synthesis failed")
			return
		}
		writeJSON(w, http.StatusAccepted, TaskResponse{SynthesisTask: *task})
		return
	}

	url, err := h.workflows.Synthesize(r.Context(), req)
	if err != nil {
		writeStageError(w, r, err, "Speech synthesis failed")
		return
	}
	writeJSON(w, http.StatusOK, SynthesizeResponse{SpeechURL: url})
}

// SynthesisStatus handles GET /synthesize/{taskId}.
func (h *Handler) SynthesisStatus(w http.ResponseWriter, r *http.Request) {
	task, err := h.workflows.SynthesisStatus(r.Context(), chi.URLParam(r, "taskId"))
	if err != nil {
		writeStageError(w, r, err, "Status lookup failed")
		return
	}

	resp := TaskResponse{SynthesisTask: *task}
	if task.Status == models.SynthesisCompleted {
		resp.SpeechURL = task.OutputURI
	}
	writeJSON(w, http.StatusOK, resp)
}
