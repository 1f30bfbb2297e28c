package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/application/services"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	apperrors "github.com/zatekoja/Patientrecordanonymizationdesign/pkg/errors"
)

// BatchService defines the interface for batch pipeline operations
type BatchService interface {
	ProcessBatch(ctx context.Context, batch []entities.RawRecord, hctx entities.HospitalContext, opts services.PipelineOptions) (*entities.BatchResult, error)
}

// BatchRequest is the ingestion payload for one batch of raw records.
type BatchRequest struct {
	Hospital     entities.HospitalContext `json:"hospital"`
	Records      []entities.RawRecord     `json:"records"`
	K            int                      `json:"k,omitempty"`
	Strict       bool                     `json:"strict,omitempty"`
	ResourceType string                   `json:"resource_type,omitempty"`
}

// BatchHandler handles batch ingestion requests
type BatchHandler struct {
	service BatchService
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(service BatchService) *BatchHandler {
	return &BatchHandler{
		service: service,
	}
}

// ProcessBatch handles POST /api/v1/batches. The request body is the only
// place identifiable data ever appears; the response carries anonymized
// output and provenance only.
func (h *BatchHandler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if len(req.Records) == 0 {
		respondWithError(w, http.StatusBadRequest, "records are required")
		return
	}
	if req.Hospital.Country == "" {
		respondWithError(w, http.StatusBadRequest, "hospital country is required")
		return
	}

	result, err := h.service.ProcessBatch(r.Context(), req.Records, req.Hospital, services.PipelineOptions{
		K:            req.K,
		Strict:       req.Strict,
		ResourceType: req.ResourceType,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

// respondWithAppError maps pipeline error types onto HTTP status codes.
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeInvalidInput, apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		case apperrors.ErrorTypeMissingAttribute:
			respondWithError(w, http.StatusUnprocessableEntity, appErr.Message)
			return
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		case apperrors.ErrorTypeExternal:
			respondWithError(w, http.StatusBadGateway, appErr.Message)
			return
		}
	}
	respondWithError(w, http.StatusInternalServerError, "failed to process batch")
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
