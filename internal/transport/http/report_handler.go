// Package http exposes the processing pipeline over HTTP: upload a
// holdings workbook, run the batch pipeline, download the processed report.
package http

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"fundcli/internal/config"
	"fundcli/internal/dataprocessing"
	apperrors "fundcli/internal/errors"
)

// ReportHandler handles upload, processing, and report download requests.
type ReportHandler struct {
	processor      *dataprocessing.Processor
	paths          *config.Paths
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewReportHandler creates a report handler.
func NewReportHandler(processor *dataprocessing.Processor, paths *config.Paths, logger *slog.Logger, maxUploadBytes int64) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		processor:      processor,
		paths:          paths,
		logger:         logger.With(slog.String("component", "report_handler")),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the report routes.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/process", h.ProcessUpload)
	r.Get("/download/{filename}", h.DownloadReport)
	r.Get("/health", h.Health)

	return r
}

// processResponse is the success payload for an upload.
type processResponse struct {
	JobID       string                 `json:"job_id"`
	OutputFile  string                 `json:"output_file"`
	DownloadURL string                 `json:"download_url"`
	Result      *dataprocessing.Result `json:"result"`
}

// errorResponse is the failure payload. MissingColumns is populated for
// schema errors so callers can show which headers to fix.
type errorResponse struct {
	Error          string   `json:"error"`
	Type           string   `json:"type"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	FoundColumns   []string `json:"found_columns,omitempty"`
}

// ProcessUpload handles POST /process: accepts a multipart .xlsx upload,
// runs the pipeline, and returns the download location.
func (h *ReportHandler) ProcessUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	started := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, errorResponse{
			Error: "multipart field \"file\" is required",
			Type:  "BAD_REQUEST",
		})
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		h.renderError(w, r, http.StatusBadRequest, errorResponse{
			Error: "only .xlsx uploads are supported",
			Type:  "BAD_REQUEST",
		})
		return
	}

	jobID := uuid.New().String()
	uploadPath := h.paths.GetUploadPath(jobID + ".xlsx")
	outputName := jobID + "_processed.xlsx"
	outputPath := h.paths.GetReportPath(outputName)

	if err := saveUpload(uploadPath, file); err != nil {
		h.logger.ErrorContext(ctx, "failed to store upload",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, errorResponse{
			Error: "failed to store uploaded file",
			Type:  "STORAGE",
		})
		observeRun("failed", time.Since(started))
		return
	}

	h.logger.InfoContext(ctx, "upload accepted",
		slog.String("job_id", jobID),
		slog.String("filename", header.Filename),
		slog.Int64("size_bytes", header.Size))

	result, err := h.processor.Process(ctx, uploadPath, outputPath)
	if err != nil {
		h.renderPipelineError(w, r, jobID, err)
		observeRun("failed", time.Since(started))
		return
	}
	observeRun("ok", time.Since(started))

	render.Status(r, http.StatusOK)
	render.JSON(w, r, processResponse{
		JobID:       jobID,
		OutputFile:  outputName,
		DownloadURL: "/api/reports/download/" + outputName,
		Result:      result,
	})
}

// DownloadReport handles GET /download/{filename}.
func (h *ReportHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || filename != filepath.Base(filename) {
		h.renderError(w, r, http.StatusBadRequest, errorResponse{
			Error: "invalid filename",
			Type:  "BAD_REQUEST",
		})
		return
	}

	path := h.paths.GetReportPath(filename)
	if _, err := os.Stat(path); err != nil {
		h.renderError(w, r, http.StatusNotFound, errorResponse{
			Error: "report not found: " + filename,
			Type:  "NOT_FOUND",
		})
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

// Health handles GET /health.
func (h *ReportHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// renderPipelineError maps the pipeline error taxonomy onto HTTP statuses.
func (h *ReportHandler) renderPipelineError(w http.ResponseWriter, r *http.Request, jobID string, err error) {
	h.logger.ErrorContext(r.Context(), "processing run failed",
		slog.String("job_id", jobID),
		slog.String("error", err.Error()))

	resp := errorResponse{Error: err.Error(), Type: "INTERNAL"}
	status := http.StatusInternalServerError

	switch {
	case apperrors.IsType(err, apperrors.ErrTypeSchema):
		status = http.StatusUnprocessableEntity
		resp.Type = string(apperrors.ErrTypeSchema)
		if missing, found, ok := apperrors.SchemaDetails(err); ok {
			resp.MissingColumns = missing
			resp.FoundColumns = found
		}
	case apperrors.IsType(err, apperrors.ErrTypeEmptyInput):
		status = http.StatusUnprocessableEntity
		resp.Type = string(apperrors.ErrTypeEmptyInput)
	case apperrors.IsType(err, apperrors.ErrTypeParsing):
		status = http.StatusBadRequest
		resp.Type = string(apperrors.ErrTypeParsing)
	case apperrors.IsType(err, apperrors.ErrTypeWrite):
		resp.Type = string(apperrors.ErrTypeWrite)
	case apperrors.IsType(err, apperrors.ErrTypePrerequisite):
		resp.Type = string(apperrors.ErrTypePrerequisite)
	}

	h.renderError(w, r, status, resp)
}

func (h *ReportHandler) renderError(w http.ResponseWriter, r *http.Request, status int, resp errorResponse) {
	render.Status(r, status)
	render.JSON(w, r, resp)
}

func saveUpload(path string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
