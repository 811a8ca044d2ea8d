package report

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"medical-portal/internal/auth"
	"medical-portal/internal/patient"
)

type Handler struct {
	svc      *Service
	patients patient.Service
	logger   *zap.Logger
}

func NewHandler(svc *Service, patients patient.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, patients: patients, logger: logger}
}

// Download streams the caller's profile as a PDF attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	rec, err := h.patients.Fetch(r.Context(), ident.ID)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			http.Error(w, patient.ErrNotFound.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("fetch for report failed", zap.Error(err))
		http.Error(w, "failed to load patient record", http.StatusInternalServerError)
		return
	}

	data, err := h.svc.RenderProfile(ident, rec)
	if err != nil {
		h.logger.Error("report generation failed", zap.Error(err))
		http.Error(w, "failed to generate report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="profile_%s.pdf"`, ident.ID))
	w.Write(data)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/patients/me/report", h.Download)
}
