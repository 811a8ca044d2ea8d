package patient

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"medical-portal/internal/auth"
)

type Handler struct {
	svc    Service
	logger *zap.Logger
}

func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// GetMe returns the caller's patient record.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	rec, err := h.svc.Fetch(r.Context(), ident.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, ErrNotFound.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("fetch patient record failed", zap.Error(err))
		http.Error(w, "failed to load patient record", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

type saveRequest struct {
	Draft
	// ExpectedUpdatedAt, when set, makes the save fail with 409 if the
	// stored record changed since it was fetched.
	ExpectedUpdatedAt time.Time `json:"expectedUpdatedAt,omitempty"`
}

// SaveMe performs the full-document overwrite of the caller's record.
func (h *Handler) SaveMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.Save(r.Context(), ident.ID, req.Draft, req.ExpectedUpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrConflict):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("save patient record failed", zap.Error(err))
			http.Error(w, "failed to save patient record", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/patients/me", h.GetMe)
	r.Put("/patients/me", h.SaveMe)
}
