package reportshandler

import (
	"encoding/csv"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hraccess/internal/domain/access"
	"hraccess/internal/domain/reports"
	"hraccess/internal/transport/http/api"
	"hraccess/internal/transport/http/middleware"
)

// Handler serves the periodic user-access review: who can open which
// dashboard and with which operations, as JSON, CSV, or PDF.
type Handler struct {
	Service *reports.Service
	Access  *access.Service
}

func NewHandler(service *reports.Service, accessSvc *access.Service) *Handler {
	return &Handler{Service: service, Access: accessSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	guard := middleware.RequireOperation(h.Access.Resolver(), h.Access, access.DashboardAdmin, access.OpRead)
	r.Route("/reports", func(r chi.Router) {
		r.With(guard).Get("/access-review", h.handleAccessReview)
		r.With(guard).Get("/access-review.csv", h.handleAccessReviewCSV)
		r.With(guard).Get("/access-review.pdf", h.handleAccessReviewPDF)
	})
}

func (h *Handler) handleAccessReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.Service.AccessReview(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build access review", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, review, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAccessReviewCSV(w http.ResponseWriter, r *http.Request) {
	review, err := h.Service.AccessReview(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build access review", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=access-review.csv")
	writer := csv.NewWriter(w)
	for _, row := range reports.CSVRecords(review) {
		if err := writer.Write(row); err != nil {
			slog.Warn("access review csv row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("access review csv flush failed", "err", err)
	}
}

func (h *Handler) handleAccessReviewPDF(w http.ResponseWriter, r *http.Request) {
	review, err := h.Service.AccessReview(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build access review", middleware.GetRequestID(r.Context()))
		return
	}

	payload, err := reports.RenderPDF(review)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render access review pdf", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=access-review.pdf")
	if _, err := w.Write(payload); err != nil {
		slog.Warn("access review pdf write failed", "err", err)
	}
}
