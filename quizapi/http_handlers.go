// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mobiletoly/go-quizsync/internal/auth"
)

const maxSubmitBodyBytes = 1 << 20

// HTTPHandlers exposes the submission service over HTTP. Routes other than the status
// endpoint expect JWTAuth.Middleware in front of them.
type HTTPHandlers struct {
	service *SubmissionService
	logger  *slog.Logger
}

// NewHTTPHandlers creates a new instance of quiz handlers
func NewHTTPHandlers(service *SubmissionService, logger *slog.Logger) *HTTPHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandlers{
		service: service,
		logger:  logger,
	}
}

// Register mounts the handlers on mux, wrapping the authenticated routes with jwtAuth
func (h *HTTPHandlers) Register(mux *http.ServeMux, jwtAuth *JWTAuth) {
	mux.Handle("POST /quiz/submissions", jwtAuth.Middleware(http.HandlerFunc(h.HandleSubmit)))
	mux.Handle("GET /quiz/quizzes", jwtAuth.Middleware(http.HandlerFunc(h.HandleListQuizzes)))
	mux.HandleFunc("GET /status", h.HandleStatus)
}

// HandleSubmit accepts one completed answer set
func (h *HTTPHandlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST method is allowed")
		return
	}

	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication_failed", "missing participant identity")
		return
	}

	var req SubmitAnswersRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse submission")
		return
	}

	resp, err := h.service.Submit(r.Context(), identity.ParticipantID, identity.DeviceID, &req)
	if err != nil {
		h.logger.Error("Failed to process submission", "error", err,
			"submission_id", req.SubmissionID, "participant_id", identity.ParticipantID)
		writeError(w, http.StatusInternalServerError, ReasonInternalError, "Failed to process submission")
		return
	}

	h.writeJSON(w, resp)
}

// HandleListQuizzes returns quiz content for offline caching
func (h *HTTPHandlers) HandleListQuizzes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET method is allowed")
		return
	}

	quizzes, err := h.service.Quizzes(r.Context())
	if err != nil {
		h.logger.Error("Failed to list quizzes", "error", err)
		writeError(w, http.StatusInternalServerError, ReasonInternalError, "Failed to list quizzes")
		return
	}

	h.writeJSON(w, QuizListResponse{Quizzes: quizzes})
}

// HandleStatus reports service health
func (h *HTTPHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.logger.Error("Status check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "unavailable", "Service unavailable")
		return
	}
	h.writeJSON(w, status)
}

func (h *HTTPHandlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError writes a standardized error response
func writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}
