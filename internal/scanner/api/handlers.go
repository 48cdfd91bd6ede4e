package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/biznesyordam/scanner-service/internal/database"
	"github.com/biznesyordam/scanner-service/internal/models"
	"github.com/biznesyordam/scanner-service/internal/scanner/events"
	"github.com/biznesyordam/scanner-service/internal/scanner/jobs"
	"github.com/biznesyordam/scanner-service/internal/scanner/pipeline"
	"github.com/biznesyordam/scanner-service/internal/scanner/recognition"
)

type Handlers struct {
	pipeline   *pipeline.Pipeline
	recognizer *recognition.Client
	scans      *database.ScanRepository
	publisher  *events.Publisher
	jobs       *jobs.Manager
	logger     *slog.Logger
}

func NewHandlers(
	pl *pipeline.Pipeline,
	recognizer *recognition.Client,
	scans *database.ScanRepository,
	publisher *events.Publisher,
	jobManager *jobs.Manager,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		pipeline:   pl,
		recognizer: recognizer,
		scans:      scans,
		publisher:  publisher,
		jobs:       jobManager,
		logger:     logger,
	}
}

const upstreamDownMessage = "AI xizmati vaqtincha ishlamayapti. Keyinroq urinib ko'ring"

// ScanImage handles multipart image uploads for product recognition.
func (h *Handlers) ScanImage(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		h.respondError(w, http.StatusBadRequest, "file is empty or unreadable")
		return
	}

	language := r.FormValue("language")
	imageBase64 := base64.StdEncoding.EncodeToString(data)

	_, product, err := h.recognizer.AnalyzeBase64(r.Context(), imageBase64, language)
	if err != nil {
		h.logger.Error("image recognition failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, upstreamDownMessage)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"product": product,
	})
}

// AnalyzeBase64Request is the JSON body of the base64 recognition endpoint.
type AnalyzeBase64Request struct {
	ImageBase64 string `json:"image_base64"`
	Language    string `json:"language"`
}

// AnalyzeBase64 proxies to the recognition service and returns its envelope
// verbatim. Recognition failures are surfaced, never replaced by a
// fabricated product.
func (h *Handlers) AnalyzeBase64(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeBase64Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	raw, _, err := h.recognizer.AnalyzeBase64(r.Context(), req.ImageBase64, req.Language)
	if err != nil {
		if errors.Is(err, recognition.ErrMissingImage) {
			h.respondError(w, http.StatusBadRequest, "image_base64 is required")
			return
		}
		h.logger.Error("recognition call failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, upstreamDownMessage)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// FullProcess runs the complete pipeline for one product.
func (h *Handlers) FullProcess(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.pipeline.Process(r.Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidCostPrice) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("pipeline failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.recordScan(r, req, result)

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// recordScan persists history and publishes the lifecycle event.
// History is best effort: a storage failure never fails the scan response.
func (h *Handlers) recordScan(r *http.Request, req pipeline.Request, result *models.ScanResult) {
	if h.scans == nil {
		return
	}

	scan := jobs.NewScanRecord(req, result, "api")

	ctx := r.Context()
	if err := h.scans.Insert(ctx, scan); err != nil {
		h.logger.Error("failed to record scan", "error", err)
		return
	}

	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishScanCompleted(ctx, &events.ScanCompletedPayload{
		ScanID:          scan.ID.String(),
		PartnerID:       scan.PartnerID,
		ProductName:     scan.ProductName,
		Brand:           scan.Brand,
		Category:        scan.Category,
		SKU:             scan.SKU,
		IKPUCode:        scan.IKPUCode,
		OptimalPrice:    scan.OptimalPrice,
		ActualMargin:    scan.ActualMargin,
		SEOScore:        scan.SEOScore,
		ValidationScore: scan.ValidationScore,
		Source:          "api",
	}); err != nil {
		h.logger.Error("failed to publish scan event", "error", err)
	}
}

// ValidateTextRequest is the JSON body of the lightweight text validator.
type ValidateTextRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

type validateTextResponse struct {
	Success bool `json:"success"`
	pipeline.TextValidation
}

// ValidateText checks raw listing fields without running the pipeline.
func (h *Handlers) ValidateText(w http.ResponseWriter, r *http.Request) {
	var req ValidateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	validation := pipeline.ValidateText(req.Title, req.Description, req.Keywords)
	h.respondJSON(w, http.StatusOK, validateTextResponse{
		Success:        true,
		TextValidation: validation,
	})
}

// ListScans returns the most recent scan history entries.
func (h *Handlers) ListScans(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	scans, err := h.scans.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list scans", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list scans")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"scans":   scans,
	})
}

// GetScan returns one scan history entry.
func (h *Handlers) GetScan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "scanID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid scan ID")
		return
	}

	scan, err := h.scans.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrScanNotFound) {
		h.respondError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get scan", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get scan")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"scan":    scan,
	})
}

// GetStats returns aggregate scan statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scans.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to get stats", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// CreateJobRequest is a new batch job submission.
type CreateJobRequest struct {
	PartnerID string             `json:"partner_id"`
	Items     []pipeline.Request `json:"items"`
}

// CreateJobResponse confirms batch job creation.
type CreateJobResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateJob enqueues a batch processing job.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.jobs.CreateJob(r.Context(), req.PartnerID, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrEmptyBatch),
			errors.Is(err, jobs.ErrBatchTooLarge),
			errors.Is(err, pipeline.ErrInvalidCostPrice):
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to create job", "error", err)
			h.respondError(w, http.StatusInternalServerError, "failed to create job")
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, CreateJobResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Message: "Job created successfully",
	})
}

// GetJob handles job status retrieval
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.respondError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

// ListJobs handles listing all jobs
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobList, err := h.jobs.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	h.respondJSON(w, http.StatusOK, jobList)
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
