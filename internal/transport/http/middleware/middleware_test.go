package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hraccess/internal/auth"
	"hraccess/internal/domain/access"
	"hraccess/internal/transport/http/api"
)

type fakeSnapshotSource struct {
	snapshots map[string]*access.Snapshot
	err       error
	calls     int
}

func (f *fakeSnapshotSource) Snapshot(_ context.Context, userID string) (*access.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	snap, ok := f.snapshots[userID]
	if !ok {
		return nil, access.ErrUserNotFound
	}
	return snap, nil
}

func guardConfig() access.Config {
	return access.Config{
		Dashboards: []access.Dashboard{
			{ID: "self", Name: "My Workspace", Pages: []access.Page{{ID: "profile", Path: "/self/profile"}}},
			{ID: "kra", Name: "Goals"},
		},
		RoleDashboards: map[string][]string{
			access.RoleEmployee: {"self"},
		},
	}
}

func employeeSnapshot(userID string) *access.Snapshot {
	return &access.Snapshot{
		User:  &access.User{ID: userID, PrimaryRole: access.RoleEmployee},
		Roles: []access.Role{{ID: "r-emp", Name: access.RoleEmployee}},
	}
}

func authedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/self", nil)
	ctx := WithUser(req.Context(), auth.UserContext{UserID: userID, RoleName: access.RoleEmployee})
	return req.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) api.Envelope {
	t.Helper()
	var envelope api.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope
}

func TestAuthAttachesUserFromBearerToken(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u-1", RoleName: "employee"}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var got auth.UserContext
	var ok bool
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !ok {
		t.Fatal("expected user in context")
	}
	if got.UserID != "u-1" || got.RoleName != "employee" {
		t.Fatalf("unexpected user context: %+v", got)
	}
}

func TestAuthPassesThroughAnonymously(t *testing.T) {
	for name, header := range map[string]string{
		"missing header": "",
		"bad scheme":     "Basic abc123",
		"garbage token":  "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			called := false
			handler := Auth("test-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				if _, ok := GetUser(r.Context()); ok {
					t.Fatal("expected no user in context")
				}
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			if !called {
				t.Fatal("next handler not called")
			}
		})
	}
}

func TestRequireAuthenticatedRejectsAnonymous(t *testing.T) {
	source := &fakeSnapshotSource{}
	handler := RequireAuthenticated(source)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/self", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Error == nil || envelope.Error.Code != "unauthorized" {
		t.Fatalf("unexpected error payload: %+v", envelope.Error)
	}
}

func TestRequireAuthenticatedRejectsUnknownUser(t *testing.T) {
	source := &fakeSnapshotSource{snapshots: map[string]*access.Snapshot{}}
	handler := RequireAuthenticated(source)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("u-gone"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthenticatedLoadsSnapshotOnce(t *testing.T) {
	source := &fakeSnapshotSource{snapshots: map[string]*access.Snapshot{
		"u-1": employeeSnapshot("u-1"),
	}}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, ok := GetSnapshot(r.Context())
		if !ok || snap.User.ID != "u-1" {
			t.Fatal("expected snapshot in context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAuthenticated(source)(RequireAuthenticated(source)(inner))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("u-1"))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if source.calls != 1 {
		t.Fatalf("expected a single store lookup, got %d", source.calls)
	}
}

func TestRequireDashboardDecisions(t *testing.T) {
	resolver := access.NewResolver(guardConfig())
	source := &fakeSnapshotSource{snapshots: map[string]*access.Snapshot{
		"u-1": employeeSnapshot("u-1"),
	}}

	tests := []struct {
		name       string
		dashboard  string
		wantStatus int
	}{
		{name: "granted by role default", dashboard: "self", wantStatus: http.StatusOK},
		{name: "denied outside role defaults", dashboard: "kra", wantStatus: http.StatusForbidden},
		{name: "unknown dashboard denied", dashboard: "no_such", wantStatus: http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequireDashboard(resolver, source, tc.dashboard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authedRequest("u-1"))
			if rec.Code != tc.wantStatus {
				t.Fatalf("dashboard %s: expected %d, got %d", tc.dashboard, tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestRequireOperationDecisions(t *testing.T) {
	resolver := access.NewResolver(guardConfig())
	source := &fakeSnapshotSource{snapshots: map[string]*access.Snapshot{
		"u-1": employeeSnapshot("u-1"),
	}}

	allow := RequireOperation(resolver, source, "self", access.OpUpdate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	allow.ServeHTTP(rec, authedRequest("u-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected update on self allowed, got %d", rec.Code)
	}

	deny := RequireOperation(resolver, source, "self", access.OpDelete)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	rec = httptest.NewRecorder()
	deny.ServeHTTP(rec, authedRequest("u-1"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected delete on self forbidden, got %d", rec.Code)
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("expected a generated request id")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Fatalf("header %q does not match context id %q", got, seen)
	}
}

func TestRequestIDPreservesInbound(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetRequestID(r.Context()); got != "req-42" {
			t.Fatalf("expected inbound id preserved, got %q", got)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	handler := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest("u-1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("u-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimitKeysByActor(t *testing.T) {
	handler := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("u-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first actor: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("u-2"))
	if rec.Code != http.StatusOK {
		t.Fatalf("second actor should have its own bucket, got %d", rec.Code)
	}
}

func TestAdminMutationRateLimitIgnoresReads(t *testing.T) {
	handler := AdminMutationRateLimit(4, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/roles", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("read %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/roles", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first mutation: expected 200, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second mutation: expected 429, got %d", rec.Code)
	}
}

func TestClientIPKeyPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.9")
	if got := clientIPKey(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}

	req.Header.Del("X-Forwarded-For")
	if got := clientIPKey(req); got != "10.0.0.9" {
		t.Fatalf("expected remote host, got %q", got)
	}
}
