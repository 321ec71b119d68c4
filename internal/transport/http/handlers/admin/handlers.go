package adminhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hraccess/internal/domain/access"
	"hraccess/internal/domain/audit"
	"hraccess/internal/domain/directory"
	"hraccess/internal/platform/validate"
	"hraccess/internal/transport/http/api"
	"hraccess/internal/transport/http/middleware"
	"hraccess/internal/transport/http/shared"
)

// Handler exposes role and user administration. Every route is gated on the
// admin dashboard with the CRUD operation matching the HTTP method, so an
// operator granted read-only admin access can browse but not change anything.
type Handler struct {
	Directory *directory.Service
	Access    *access.Service
	Audit     *audit.Service
}

func NewHandler(dir *directory.Service, accessSvc *access.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Directory: dir, Access: accessSvc, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	resolver := h.Access.Resolver()
	read := middleware.RequireOperation(resolver, h.Access, access.DashboardAdmin, access.OpRead)
	create := middleware.RequireOperation(resolver, h.Access, access.DashboardAdmin, access.OpCreate)
	update := middleware.RequireOperation(resolver, h.Access, access.DashboardAdmin, access.OpUpdate)
	del := middleware.RequireOperation(resolver, h.Access, access.DashboardAdmin, access.OpDelete)

	r.Route("/admin", func(r chi.Router) {
		r.Route("/roles", func(r chi.Router) {
			r.With(read).Get("/", h.handleListRoles)
			r.With(create).Post("/", h.handleCreateRole)
			r.Route("/{roleID}", func(r chi.Router) {
				r.With(read).Get("/", h.handleGetRole)
				r.With(update).Put("/", h.handleUpdateRole)
				r.With(del).Delete("/", h.handleDeleteRole)
			})
		})
		r.Route("/users", func(r chi.Router) {
			r.With(read).Get("/", h.handleListUsers)
			r.With(create).Post("/", h.handleCreateUser)
			r.Route("/{userID}", func(r chi.Router) {
				r.With(read).Get("/", h.handleGetUser)
				r.With(update).Put("/primary-role", h.handleSetPrimaryRole)
				r.With(update).Put("/super-admin", h.handleSetSuperAdmin)
				r.With(update).Put("/overrides", h.handleSetOverrides)
				r.With(update).Post("/roles/{roleID}", h.handleAssignRole)
				r.With(update).Delete("/roles/{roleID}", h.handleRemoveRole)
			})
		})
	})
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Directory.ListRoles(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_list_failed", "failed to list roles", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, roles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.Directory.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		h.fail(w, r, err, "role_get_failed", "failed to load role")
		return
	}
	api.Success(w, role, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var input directory.RoleInput
	if !decodeBody(w, r, &input) {
		return
	}

	roleID, err := h.Directory.CreateRole(r.Context(), input)
	if err != nil {
		h.fail(w, r, err, "role_create_failed", "failed to create role")
		return
	}

	h.record(r, "role.create", "role", roleID, nil, input)
	api.Created(w, map[string]string{"id": roleID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	var input directory.RoleInput
	if !decodeBody(w, r, &input) {
		return
	}

	before, err := h.Directory.GetRole(r.Context(), roleID)
	if err != nil {
		h.fail(w, r, err, "role_get_failed", "failed to load role")
		return
	}

	if err := h.Directory.UpdateRole(r.Context(), roleID, input); err != nil {
		h.fail(w, r, err, "role_update_failed", "failed to update role")
		return
	}

	h.record(r, "role.update", "role", roleID, before, input)
	api.Success(w, map[string]string{"id": roleID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	if err := h.Directory.DeleteRole(r.Context(), roleID); err != nil {
		h.fail(w, r, err, "role_delete_failed", "failed to delete role")
		return
	}

	h.record(r, "role.delete", "role", roleID, nil, nil)
	api.Success(w, map[string]string{"id": roleID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	total, err := h.Directory.CountUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to count users", middleware.GetRequestID(r.Context()))
		return
	}
	users, err := h.Directory.ListUsers(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Directory.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err, "user_get_failed", "failed to load user")
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var input directory.CreateUserInput
	if !decodeBody(w, r, &input) {
		return
	}

	userID, err := h.Directory.CreateUser(r.Context(), input)
	if err != nil {
		h.fail(w, r, err, "user_create_failed", "failed to create user")
		return
	}

	h.record(r, "user.create", "user", userID, nil, input)
	api.Created(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetPrimaryRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var input struct {
		RoleID string `json:"roleId" validate:"required,uuid4"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	if err := h.Directory.SetPrimaryRole(r.Context(), userID, input.RoleID); err != nil {
		h.fail(w, r, err, "user_update_failed", "failed to set primary role")
		return
	}

	h.record(r, "user.set_primary_role", "user", userID, nil, input)
	api.Success(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetSuperAdmin(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var input struct {
		Enabled bool `json:"enabled"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	if err := h.Directory.SetSuperAdmin(r.Context(), userID, input.Enabled); err != nil {
		h.fail(w, r, err, "user_update_failed", "failed to set super admin flag")
		return
	}

	h.record(r, "user.set_super_admin", "user", userID, nil, input)
	api.Success(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetOverrides(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var input access.ExtraPermissions
	if !decodeBody(w, r, &input) {
		return
	}

	before, err := h.Directory.GetUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "user_get_failed", "failed to load user")
		return
	}

	if err := h.Directory.SetOverrides(r.Context(), userID, input); err != nil {
		h.fail(w, r, err, "user_update_failed", "failed to set permission overrides")
		return
	}

	h.record(r, "user.set_overrides", "user", userID, before.Extra, input)
	api.Success(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	roleID := chi.URLParam(r, "roleID")
	if err := h.Directory.AssignRole(r.Context(), userID, roleID); err != nil {
		h.fail(w, r, err, "user_update_failed", "failed to assign role")
		return
	}

	h.record(r, "user.assign_role", "user", userID, nil, map[string]string{"roleId": roleID})
	api.Success(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	roleID := chi.URLParam(r, "roleID")
	if err := h.Directory.RemoveRole(r.Context(), userID, roleID); err != nil {
		h.fail(w, r, err, "user_update_failed", "failed to remove role")
		return
	}

	h.record(r, "user.remove_role", "user", userID, map[string]string{"roleId": roleID}, nil)
	api.Success(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

// decodeBody parses the JSON body and runs struct validation, writing the
// error response itself when either step fails.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return false
	}
	if issues := validate.Struct(dst); len(issues) > 0 {
		reasons := make([]string, 0, len(issues))
		for _, issue := range issues {
			reasons = append(reasons, issue.Field+" "+issue.Reason)
		}
		api.Fail(w, http.StatusBadRequest, "validation_failed", strings.Join(reasons, "; "), middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, directory.ErrRoleNotFound), errors.Is(err, directory.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, directory.ErrDuplicateRole), errors.Is(err, directory.ErrDuplicateEmail), errors.Is(err, directory.ErrRoleInUse):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, directory.ErrUnknownTarget):
		api.Fail(w, http.StatusBadRequest, "unknown_target", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}

// record writes the audit trail entry for one mutation. Audit failures never
// fail the request.
func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	actorID := ""
	if user, ok := middleware.GetUser(r.Context()); ok {
		actorID = user.UserID
	}
	if err := h.Audit.Record(r.Context(), actorID, action, entityType, entityID,
		middleware.GetRequestID(r.Context()), clientIP(r), before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return fwd
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
