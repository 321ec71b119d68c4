package accesshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hraccess/internal/domain/access"
	"hraccess/internal/transport/http/api"
	"hraccess/internal/transport/http/middleware"
)

type Handler struct {
	Service *access.Service
}

func NewHandler(service *access.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/access", func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated(h.Service))
		r.Get("/dashboards", h.handleDashboards)
		r.Get("/check", h.handleCheck)
		r.Get("/goals/context", h.handleGoalContext)
	})
}

// handleDashboards returns the dashboards the caller can open, in layout
// order, with the caller's per-operation flags for each.
func (h *Handler) handleDashboards(w http.ResponseWriter, r *http.Request) {
	snap, ok := middleware.GetSnapshot(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	resolver := h.Service.Resolver()
	type entry struct {
		access.Dashboard
		Operations map[access.Operation]bool `json:"operations"`
	}
	dashboards := resolver.AccessibleDashboards(snap)
	out := make([]entry, 0, len(dashboards))
	for _, dashboard := range dashboards {
		ops := map[access.Operation]bool{}
		for _, op := range []access.Operation{access.OpCreate, access.OpRead, access.OpUpdate, access.OpDelete} {
			ops[op] = resolver.CanPerformOperation(snap, dashboard.ID, "", op)
		}
		out = append(out, entry{Dashboard: dashboard, Operations: ops})
	}

	api.Success(w, map[string]any{"dashboards": out}, middleware.GetRequestID(r.Context()))
}

// handleCheck answers one access question. With only a dashboard it decides
// dashboard access; a page narrows it to that page; an operation narrows it
// to one CRUD action.
func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	snap, ok := middleware.GetSnapshot(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	dashboardID := r.URL.Query().Get("dashboard")
	if dashboardID == "" {
		api.Fail(w, http.StatusBadRequest, "missing_dashboard", "dashboard query parameter is required", middleware.GetRequestID(r.Context()))
		return
	}
	pageID := r.URL.Query().Get("page")
	rawOp := r.URL.Query().Get("operation")

	resolver := h.Service.Resolver()
	var allowed bool
	switch {
	case rawOp != "":
		op, ok := access.ParseOperation(rawOp)
		if !ok {
			api.Fail(w, http.StatusBadRequest, "invalid_operation", "operation must be create, read, update, or delete", middleware.GetRequestID(r.Context()))
			return
		}
		allowed = resolver.CanPerformOperation(snap, dashboardID, pageID, op)
	case pageID != "":
		allowed = resolver.CanAccessPage(snap, dashboardID, pageID)
	default:
		allowed = resolver.CanAccessDashboard(snap, dashboardID)
	}

	api.Success(w, map[string]any{
		"dashboard": dashboardID,
		"page":      pageID,
		"operation": rawOp,
		"allowed":   allowed,
	}, middleware.GetRequestID(r.Context()))
}

// handleGoalContext resolves the contextual KRA access table for one goal
// record as seen from one tab.
func (h *Handler) handleGoalContext(w http.ResponseWriter, r *http.Request) {
	snap, ok := middleware.GetSnapshot(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	scope, ok := access.ParseGoalContext(r.URL.Query().Get("scope"))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_scope", "scope must be team or all", middleware.GetRequestID(r.Context()))
		return
	}
	ref := access.GoalRef{
		EmployeeID: r.URL.Query().Get("employeeId"),
		AssignedBy: r.URL.Query().Get("assignedBy"),
	}

	api.Success(w, access.ResolveGoalAccess(snap, ref, scope), middleware.GetRequestID(r.Context()))
}
