package directory

import (
	"errors"
	"testing"

	"hraccess/internal/domain/access"
)

func smallConfig() access.Config {
	return access.Config{
		Dashboards: []access.Dashboard{
			{ID: "self", Name: "My Workspace", Pages: []access.Page{{ID: "profile", Path: "/self/profile"}}},
			{ID: "kra", Name: "Goals", Pages: []access.Page{{ID: "evaluations", Path: "/kra/evaluations"}}},
		},
		RoleDashboards: map[string][]string{access.RoleEmployee: {"self"}},
	}
}

func TestValidateMatricesAcceptsKnownTargets(t *testing.T) {
	err := ValidateMatrices(smallConfig(),
		map[string]access.Flags{"kra": {Read: true}},
		map[string]map[string]access.Flags{"kra": {"evaluations": {View: true}}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateMatricesRejectsUnknownDashboard(t *testing.T) {
	err := ValidateMatrices(smallConfig(), map[string]access.Flags{"payroll": {Read: true}}, nil)
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
}

func TestValidateMatricesRejectsUnknownPage(t *testing.T) {
	err := ValidateMatrices(smallConfig(), nil,
		map[string]map[string]access.Flags{"kra": {"scores": {View: true}}},
	)
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
}

func TestValidateOverrides(t *testing.T) {
	extra := access.ExtraPermissions{
		Dashboards: map[string]bool{"kra": false},
		Pages:      map[string]map[string]bool{"kra": {"evaluations": true}},
		CRUD:       map[string]map[access.Operation]bool{"self": {access.OpUpdate: true}},
	}
	if err := ValidateOverrides(smallConfig(), extra); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	extra.CRUD["payroll"] = map[access.Operation]bool{access.OpRead: true}
	if err := ValidateOverrides(smallConfig(), extra); !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
}

func TestNormalizeRoleName(t *testing.T) {
	if got := normalizeRoleName("  Team Lead "); got != "team lead" {
		t.Fatalf("expected lowercased trimmed name, got %q", got)
	}
}
