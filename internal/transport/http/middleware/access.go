package middleware

import (
	"context"
	"errors"
	"net/http"

	"hraccess/internal/domain/access"
	"hraccess/internal/transport/http/api"
)

// SnapshotSource loads the caller's permission snapshot. Satisfied by
// access.Service.
type SnapshotSource interface {
	Snapshot(ctx context.Context, userID string) (*access.Snapshot, error)
}

// RequireAuthenticated loads the caller's snapshot and rejects anonymous or
// unknown users. Handlers downstream read the snapshot with GetSnapshot.
func RequireAuthenticated(source SnapshotSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap, ok := loadSnapshot(w, r, source)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(withSnapshot(r.Context(), snap)))
		})
	}
}

// RequireDashboard gates a route on dashboard access.
func RequireDashboard(resolver *access.Resolver, source SnapshotSource, dashboardID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap, ok := loadSnapshot(w, r, source)
			if !ok {
				return
			}
			if !resolver.CanAccessDashboard(snap, dashboardID) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r.WithContext(withSnapshot(r.Context(), snap)))
		})
	}
}

// RequireOperation gates a route on one CRUD operation against a dashboard.
func RequireOperation(resolver *access.Resolver, source SnapshotSource, dashboardID string, op access.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap, ok := loadSnapshot(w, r, source)
			if !ok {
				return
			}
			if !resolver.CanPerformOperation(snap, dashboardID, "", op) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r.WithContext(withSnapshot(r.Context(), snap)))
		})
	}
}

func loadSnapshot(w http.ResponseWriter, r *http.Request, source SnapshotSource) (*access.Snapshot, bool) {
	if snap, ok := GetSnapshot(r.Context()); ok {
		return snap, true
	}

	user, ok := GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
		return nil, false
	}

	snap, err := source.Snapshot(r.Context(), user.UserID)
	if errors.Is(err, access.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "unknown user", GetRequestID(r.Context()))
		return nil, false
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "snapshot_failed", "permission lookup failed", GetRequestID(r.Context()))
		return nil, false
	}
	return snap, true
}
