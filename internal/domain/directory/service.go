package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hraccess/internal/domain/access"
)

type Service struct {
	store StoreAPI
	cfg   access.Config
}

func NewService(store StoreAPI, cfg access.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

func (s *Service) ListRoles(ctx context.Context) ([]access.Role, error) {
	return s.store.ListRoles(ctx)
}

func (s *Service) GetRole(ctx context.Context, roleID string) (access.Role, error) {
	return s.store.GetRole(ctx, roleID)
}

func (s *Service) CreateRole(ctx context.Context, input RoleInput) (string, error) {
	dashJSON, pageJSON, err := s.encodeMatrices(input)
	if err != nil {
		return "", err
	}
	return s.store.CreateRole(ctx, normalizeRoleName(input.Name), strings.TrimSpace(input.Description), dashJSON, pageJSON)
}

func (s *Service) UpdateRole(ctx context.Context, roleID string, input RoleInput) error {
	dashJSON, pageJSON, err := s.encodeMatrices(input)
	if err != nil {
		return err
	}
	return s.store.UpdateRole(ctx, roleID, normalizeRoleName(input.Name), strings.TrimSpace(input.Description), dashJSON, pageJSON)
}

func (s *Service) DeleteRole(ctx context.Context, roleID string) error {
	count, err := s.store.RoleUserCount(ctx, roleID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRoleInUse
	}
	return s.store.DeleteRole(ctx, roleID)
}

func (s *Service) CountUsers(ctx context.Context) (int, error) {
	return s.store.CountUsers(ctx)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]UserRecord, error) {
	return s.store.ListUsers(ctx, limit, offset)
}

func (s *Service) GetUser(ctx context.Context, userID string) (UserRecord, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (string, error) {
	return s.store.CreateUser(ctx, strings.ToLower(strings.TrimSpace(input.Email)), strings.TrimSpace(input.FullName), input.RoleID)
}

func (s *Service) SetPrimaryRole(ctx context.Context, userID, roleID string) error {
	return s.store.SetPrimaryRole(ctx, userID, roleID)
}

func (s *Service) SetSuperAdmin(ctx context.Context, userID string, enabled bool) error {
	return s.store.SetSuperAdmin(ctx, userID, enabled)
}

// SetOverrides replaces a user's explicit per-user permission entries after
// checking every referenced dashboard and page against the static layout.
func (s *Service) SetOverrides(ctx context.Context, userID string, extra access.ExtraPermissions) error {
	if err := ValidateOverrides(s.cfg, extra); err != nil {
		return err
	}
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return err
	}
	return s.store.SetOverrides(ctx, userID, extraJSON)
}

func (s *Service) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return err
	}
	return s.store.AssignRole(ctx, userID, roleID)
}

func (s *Service) RemoveRole(ctx context.Context, userID, roleID string) error {
	return s.store.RemoveRole(ctx, userID, roleID)
}

func (s *Service) encodeMatrices(input RoleInput) ([]byte, []byte, error) {
	if err := ValidateMatrices(s.cfg, input.DashboardPermissions, input.PagePermissions); err != nil {
		return nil, nil, err
	}
	dashJSON, err := json.Marshal(orEmptyFlags(input.DashboardPermissions))
	if err != nil {
		return nil, nil, err
	}
	pageJSON, err := json.Marshal(orEmptyPages(input.PagePermissions))
	if err != nil {
		return nil, nil, err
	}
	return dashJSON, pageJSON, nil
}

// ValidateMatrices rejects role matrices that point at dashboards or pages
// missing from the static layout, so typos surface at write time instead of
// silently resolving to deny forever.
func ValidateMatrices(cfg access.Config, dashboards map[string]access.Flags, pages map[string]map[string]access.Flags) error {
	for dashboardID := range dashboards {
		if !cfg.HasDashboard(dashboardID) {
			return fmt.Errorf("%w: dashboard %s", ErrUnknownTarget, dashboardID)
		}
	}
	for dashboardID, pageFlags := range pages {
		if !cfg.HasDashboard(dashboardID) {
			return fmt.Errorf("%w: dashboard %s", ErrUnknownTarget, dashboardID)
		}
		for pageID := range pageFlags {
			if !cfg.HasPage(dashboardID, pageID) {
				return fmt.Errorf("%w: page %s/%s", ErrUnknownTarget, dashboardID, pageID)
			}
		}
	}
	return nil
}

// ValidateOverrides applies the same unknown-target check to per-user
// explicit entries.
func ValidateOverrides(cfg access.Config, extra access.ExtraPermissions) error {
	for dashboardID := range extra.Dashboards {
		if !cfg.HasDashboard(dashboardID) {
			return fmt.Errorf("%w: dashboard %s", ErrUnknownTarget, dashboardID)
		}
	}
	for dashboardID := range extra.DepartmentDashboards {
		if !cfg.HasDashboard(dashboardID) {
			return fmt.Errorf("%w: dashboard %s", ErrUnknownTarget, dashboardID)
		}
	}
	for dashboardID, pages := range extra.Pages {
		if !cfg.HasDashboard(dashboardID) {
			return fmt.Errorf("%w: dashboard %s", ErrUnknownTarget, dashboardID)
		}
		for pageID := range pages {
			if !cfg.HasPage(dashboardID, pageID) {
				return fmt.Errorf("%w: page %s/%s", ErrUnknownTarget, dashboardID, pageID)
			}
		}
	}
	for dashboardID := range extra.CRUD {
		if !cfg.HasDashboard(dashboardID) {
			return fmt.Errorf("%w: dashboard %s", ErrUnknownTarget, dashboardID)
		}
	}
	for dashboardID := range extra.DepartmentCRUD {
		if !cfg.HasDashboard(dashboardID) {
			return fmt.Errorf("%w: dashboard %s", ErrUnknownTarget, dashboardID)
		}
	}
	return nil
}

func normalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func orEmptyFlags(m map[string]access.Flags) map[string]access.Flags {
	if m == nil {
		return map[string]access.Flags{}
	}
	return m
}

func orEmptyPages(m map[string]map[string]access.Flags) map[string]map[string]access.Flags {
	if m == nil {
		return map[string]map[string]access.Flags{}
	}
	return m
}
