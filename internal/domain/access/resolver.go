package access

import "strings"

// Resolver answers dashboard, page, and CRUD access questions for one user
// snapshot. It is a pure decision procedure: no I/O, no mutation, safe to
// call on every request. Every undetermined input (nil snapshot, unknown
// dashboard or page id, malformed operation) resolves to deny.
//
// Decision order, uniform across the three question shapes:
//
//  1. unknown dashboard/page id: deny
//  2. super-admin short-circuit: grant
//  3. explicit per-user override: terminal in either direction
//  4. page enablement: a page enabled for the user or any held role unlocks
//     every operation on that page, beating narrower CRUD denials
//  5. role-derived flags, OR-folded across held roles
//  6. per-role static fallback from the role name mapping
//  7. deny
type Resolver struct {
	cfg Config
}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

func (r *Resolver) Config() Config {
	return r.cfg
}

func (r *Resolver) CanAccessDashboard(s *Snapshot, dashboardID string) bool {
	if s == nil || s.User == nil || !r.cfg.HasDashboard(dashboardID) {
		return false
	}
	if isSuperAdmin(s) {
		return true
	}
	if allowed, ok := s.User.Extra.Dashboards[dashboardID]; ok {
		return allowed
	}
	if s.User.Extra.DepartmentDashboards[dashboardID] {
		return true
	}

	allowed := false
	for _, role := range s.Roles {
		allowed = allowed || r.roleDashboardAccess(role, dashboardID)
	}
	return allowed
}

func (r *Resolver) CanAccessPage(s *Snapshot, dashboardID, pageID string) bool {
	if s == nil || s.User == nil || !r.cfg.HasPage(dashboardID, pageID) {
		return false
	}
	if isSuperAdmin(s) {
		return true
	}
	if allowed, ok := s.User.Extra.Pages[dashboardID][pageID]; ok {
		return allowed
	}
	// A dashboard-level override covers its pages when no page-level entry
	// says otherwise.
	if allowed, ok := s.User.Extra.Dashboards[dashboardID]; ok {
		return allowed
	}

	allowed := false
	for _, role := range s.Roles {
		if flags, ok := role.PagePermissions[dashboardID][pageID]; ok {
			allowed = allowed || flags.View || flags.Read
			continue
		}
		// Pages inherit from the dashboard when the role has no page entry.
		allowed = allowed || r.roleDashboardAccess(role, dashboardID)
	}
	return allowed
}

// CanPerformOperation decides one CRUD operation on a dashboard, or on one of
// its pages when pageID is non-empty.
func (r *Resolver) CanPerformOperation(s *Snapshot, dashboardID, pageID string, op Operation) bool {
	if s == nil || s.User == nil {
		return false
	}
	if _, ok := ParseOperation(string(op)); !ok {
		return false
	}
	if pageID != "" {
		if !r.cfg.HasPage(dashboardID, pageID) {
			return false
		}
	} else if !r.cfg.HasDashboard(dashboardID) {
		return false
	}
	if isSuperAdmin(s) {
		return true
	}

	if pageID != "" {
		// Page enablement is coarser than the per-operation CRUD matrix:
		// once a page is switched on for the user or for any held role,
		// every operation on it is allowed.
		if enabled, ok := s.User.Extra.Pages[dashboardID][pageID]; ok {
			return enabled
		}
		for _, role := range s.Roles {
			if flags, ok := role.PagePermissions[dashboardID][pageID]; ok && (flags.View || flags.Read) {
				return true
			}
		}
	}

	if allowed, ok := s.User.Extra.CRUD[dashboardID][op]; ok {
		return allowed
	}
	if s.User.Extra.DepartmentCRUD[dashboardID][op] {
		return true
	}

	allowed := false
	for _, role := range s.Roles {
		allowed = allowed || r.roleOperationAccess(role, dashboardID, pageID, op)
	}
	return allowed
}

// AccessibleDashboards returns the caller's dashboards in configuration
// order. A nil or anonymous snapshot yields an empty list.
func (r *Resolver) AccessibleDashboards(s *Snapshot) []Dashboard {
	out := make([]Dashboard, 0, len(r.cfg.Dashboards))
	if s == nil || s.User == nil {
		return out
	}
	for _, dashboard := range r.cfg.Dashboards {
		if r.CanAccessDashboard(s, dashboard.ID) {
			out = append(out, dashboard)
		}
	}
	return out
}

// roleDashboardAccess is one role's contribution to a dashboard access
// question. An entry with every flag false is an explicit per-role denial:
// it suppresses the static fallback for this role without silencing other
// held roles.
func (r *Resolver) roleDashboardAccess(role Role, dashboardID string) bool {
	if flags, ok := role.DashboardPermissions[dashboardID]; ok {
		return flags.View || flags.Read
	}
	return r.cfg.roleDefaultsInclude(role.Name, dashboardID)
}

func (r *Resolver) roleOperationAccess(role Role, dashboardID, pageID string, op Operation) bool {
	if pageID != "" {
		if flags, ok := role.PagePermissions[dashboardID][pageID]; ok {
			return flags.Allows(op)
		}
	}
	if flags, ok := role.DashboardPermissions[dashboardID]; ok {
		return flags.Allows(op)
	}
	return r.fallbackOperation(role.Name, dashboardID, op)
}

// fallbackOperation applies the static-mapping CRUD defaults: read-only for
// most roles, and for the plain employee role read/create/update on the self
// dashboard and nothing anywhere else.
func (r *Resolver) fallbackOperation(roleName, dashboardID string, op Operation) bool {
	if !r.cfg.roleDefaultsInclude(roleName, dashboardID) {
		return false
	}
	if equalsRole(roleName, RoleEmployee) {
		if dashboardID != DashboardSelf {
			return false
		}
		return op == OpRead || op == OpCreate || op == OpUpdate
	}
	return op == OpRead
}

func equalsRole(name, want string) bool {
	return strings.EqualFold(strings.TrimSpace(name), want)
}

// isSuperAdmin is evaluated before every other rule and is not overridable
// by an explicit per-user denial.
func isSuperAdmin(s *Snapshot) bool {
	if s == nil || s.User == nil {
		return false
	}
	if s.User.IsSuperAdmin {
		return true
	}
	return s.HoldsRole(RoleAdmin) || s.HoldsRole(RoleSuperAdmin)
}
