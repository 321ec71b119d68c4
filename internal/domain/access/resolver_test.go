package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hraccess/internal/domain/access"
)

func testConfig() access.Config {
	return access.Config{
		Dashboards: []access.Dashboard{
			{ID: "self", Name: "My Workspace", Pages: []access.Page{
				{ID: "profile", Path: "/self/profile"},
				{ID: "payslips", Path: "/self/payslips"},
			}},
			{ID: "kra", Name: "Goals", Pages: []access.Page{
				{ID: "assignments", Path: "/kra/assignments"},
				{ID: "evaluations", Path: "/kra/evaluations"},
			}},
			{ID: "asset_management", Name: "Assets", Pages: []access.Page{
				{ID: "inventory", Path: "/assets/inventory"},
			}},
		},
		RoleDashboards: map[string][]string{
			access.RoleEmployee: {"self"},
			access.RoleManager:  {"self", "kra"},
			access.RoleHR:       {"self", "kra", "asset_management"},
		},
	}
}

func snapshot(user *access.User, roles ...access.Role) *access.Snapshot {
	return &access.Snapshot{User: user, Roles: roles}
}

func roleNamed(name string) access.Role {
	return access.Role{ID: "role-" + name, Name: name}
}

func TestAbsentUserDeniesEverything(t *testing.T) {
	r := access.NewResolver(testConfig())

	assert.False(t, r.CanAccessDashboard(nil, "self"))
	assert.False(t, r.CanAccessPage(nil, "self", "profile"))
	assert.False(t, r.CanPerformOperation(nil, "self", "", access.OpRead))
	assert.Empty(t, r.AccessibleDashboards(nil))

	anonymous := &access.Snapshot{}
	assert.False(t, r.CanAccessDashboard(anonymous, "self"))
	assert.Empty(t, r.AccessibleDashboards(anonymous))
}

func TestUnknownIdentifiersDeny(t *testing.T) {
	r := access.NewResolver(testConfig())
	s := snapshot(&access.User{ID: "u1", PrimaryRole: access.RoleHR}, roleNamed(access.RoleHR))

	assert.False(t, r.CanAccessDashboard(s, "payroll"))
	assert.False(t, r.CanAccessPage(s, "self", "timesheets"))
	assert.False(t, r.CanAccessPage(s, "payroll", "profile"))
	assert.False(t, r.CanPerformOperation(s, "payroll", "", access.OpRead))
	assert.False(t, r.CanPerformOperation(s, "self", "", access.Operation("approve")))
}

func TestSuperAdminShortCircuit(t *testing.T) {
	r := access.NewResolver(testConfig())
	user := &access.User{
		ID:           "u1",
		PrimaryRole:  access.RoleEmployee,
		IsSuperAdmin: true,
		// Explicit denials must not restrict a super admin.
		Extra: access.ExtraPermissions{
			Dashboards: map[string]bool{"kra": false},
			Pages:      map[string]map[string]bool{"kra": {"evaluations": false}},
			CRUD:       map[string]map[access.Operation]bool{"kra": {access.OpDelete: false}},
		},
	}
	s := snapshot(user, roleNamed(access.RoleEmployee))

	for _, dashboard := range testConfig().Dashboards {
		assert.True(t, r.CanAccessDashboard(s, dashboard.ID), dashboard.ID)
		for _, page := range dashboard.Pages {
			assert.True(t, r.CanAccessPage(s, dashboard.ID, page.ID))
		}
		for _, op := range []access.Operation{access.OpCreate, access.OpRead, access.OpUpdate, access.OpDelete} {
			assert.True(t, r.CanPerformOperation(s, dashboard.ID, "", op))
		}
	}
	assert.Len(t, r.AccessibleDashboards(s), 3)
}

func TestAdminRoleNameShortCircuits(t *testing.T) {
	r := access.NewResolver(testConfig())
	s := snapshot(&access.User{ID: "u1", PrimaryRole: access.RoleEmployee},
		roleNamed(access.RoleEmployee), roleNamed(access.RoleAdmin))

	assert.True(t, r.CanAccessDashboard(s, "asset_management"))
	assert.True(t, r.CanPerformOperation(s, "kra", "evaluations", access.OpDelete))
}

func TestExplicitOverrideBeatsRoleGrants(t *testing.T) {
	r := access.NewResolver(testConfig())
	hr := access.Role{
		ID:   "role-hr",
		Name: access.RoleHR,
		DashboardPermissions: map[string]access.Flags{
			"kra": {Read: true, Write: true, View: true, Delete: true},
		},
	}
	user := &access.User{
		ID:          "u1",
		PrimaryRole: access.RoleHR,
		Extra: access.ExtraPermissions{
			Dashboards: map[string]bool{"kra": false},
		},
	}
	s := snapshot(user, hr)

	assert.False(t, r.CanAccessDashboard(s, "kra"), "explicit false wins over role grant")

	user.Extra.Dashboards["kra"] = true
	assert.True(t, r.CanAccessDashboard(s, "kra"))

	// An explicit grant needs no role backing at all.
	bare := snapshot(&access.User{
		ID:          "u2",
		PrimaryRole: access.RoleEmployee,
		Extra:       access.ExtraPermissions{Dashboards: map[string]bool{"asset_management": true}},
	}, roleNamed(access.RoleEmployee))
	assert.True(t, r.CanAccessDashboard(bare, "asset_management"))
}

func TestRoleAggregationIsUnion(t *testing.T) {
	r := access.NewResolver(testConfig())
	denying := access.Role{
		ID:   "role-1",
		Name: "support",
		// All-false entry: explicit per-role denial.
		DashboardPermissions: map[string]access.Flags{"kra": {}},
	}
	granting := access.Role{
		ID:                   "role-2",
		Name:                 "auditor",
		DashboardPermissions: map[string]access.Flags{"kra": {View: true}},
	}

	s := snapshot(&access.User{ID: "u1", PrimaryRole: "support"}, denying, granting)
	assert.True(t, r.CanAccessDashboard(s, "kra"), "any granting role wins the union")

	alone := snapshot(&access.User{ID: "u1", PrimaryRole: "support"}, denying)
	assert.False(t, r.CanAccessDashboard(alone, "kra"))
}

func TestRoleDenialSuppressesOwnFallbackOnly(t *testing.T) {
	r := access.NewResolver(testConfig())
	// Manager would reach kra through the static mapping, but an explicit
	// all-false entry on the role shuts that path for this role.
	manager := access.Role{
		ID:                   "role-mgr",
		Name:                 access.RoleManager,
		DashboardPermissions: map[string]access.Flags{"kra": {}},
	}
	s := snapshot(&access.User{ID: "u1", PrimaryRole: access.RoleManager}, manager)
	assert.False(t, r.CanAccessDashboard(s, "kra"))

	// A second role without any entry still falls back to the mapping.
	withHR := snapshot(&access.User{ID: "u1", PrimaryRole: access.RoleManager}, manager, roleNamed(access.RoleHR))
	assert.True(t, r.CanAccessDashboard(withHR, "kra"))
}

func TestEmployeeStaticFallback(t *testing.T) {
	r := access.NewResolver(testConfig())
	s := snapshot(&access.User{ID: "u1", PrimaryRole: access.RoleEmployee}, roleNamed(access.RoleEmployee))

	assert.True(t, r.CanAccessDashboard(s, "self"))
	assert.False(t, r.CanAccessDashboard(s, "kra"))
	assert.False(t, r.CanAccessDashboard(s, "asset_management"))

	assert.True(t, r.CanPerformOperation(s, "self", "", access.OpRead))
	assert.True(t, r.CanPerformOperation(s, "self", "", access.OpCreate))
	assert.True(t, r.CanPerformOperation(s, "self", "", access.OpUpdate))
	assert.False(t, r.CanPerformOperation(s, "self", "", access.OpDelete))

	for _, op := range []access.Operation{access.OpCreate, access.OpRead, access.OpUpdate, access.OpDelete} {
		assert.False(t, r.CanPerformOperation(s, "kra", "", op), op)
	}

	dashboards := r.AccessibleDashboards(s)
	require.Len(t, dashboards, 1)
	assert.Equal(t, "self", dashboards[0].ID)
}

func TestNonEmployeeStaticFallbackIsReadOnly(t *testing.T) {
	r := access.NewResolver(testConfig())
	s := snapshot(&access.User{ID: "u1", PrimaryRole: access.RoleManager}, roleNamed(access.RoleManager))

	assert.True(t, r.CanAccessDashboard(s, "kra"))
	assert.True(t, r.CanPerformOperation(s, "kra", "", access.OpRead))
	assert.False(t, r.CanPerformOperation(s, "kra", "", access.OpCreate))
	assert.False(t, r.CanPerformOperation(s, "kra", "", access.OpUpdate))
	assert.False(t, r.CanPerformOperation(s, "kra", "", access.OpDelete))
}

func TestWriteFlagGovernsCreateAndUpdate(t *testing.T) {
	r := access.NewResolver(testConfig())
	writer := access.Role{
		ID:                   "role-w",
		Name:                 "editor",
		DashboardPermissions: map[string]access.Flags{"kra": {Read: true, Write: true}},
	}
	s := snapshot(&access.User{ID: "u1", PrimaryRole: "editor"}, writer)

	assert.True(t, r.CanPerformOperation(s, "kra", "", access.OpCreate))
	assert.True(t, r.CanPerformOperation(s, "kra", "", access.OpUpdate))
	assert.True(t, r.CanPerformOperation(s, "kra", "", access.OpRead))
	assert.False(t, r.CanPerformOperation(s, "kra", "", access.OpDelete))
}

func TestPageEnablementUnlocksAllOperations(t *testing.T) {
	r := access.NewResolver(testConfig())

	// Explicit user-level page grant beats an explicit CRUD denial.
	user := &access.User{
		ID:          "u1",
		PrimaryRole: access.RoleEmployee,
		Extra: access.ExtraPermissions{
			Pages: map[string]map[string]bool{"kra": {"evaluations": true}},
			CRUD:  map[string]map[access.Operation]bool{"kra": {access.OpDelete: false}},
		},
	}
	s := snapshot(user, roleNamed(access.RoleEmployee))
	assert.True(t, r.CanPerformOperation(s, "kra", "evaluations", access.OpDelete))

	// Role-level page grant does the same.
	reviewer := access.Role{
		ID:   "role-rev",
		Name: "reviewer",
		PagePermissions: map[string]map[string]access.Flags{
			"kra": {"evaluations": {View: true}},
		},
	}
	viaRole := snapshot(&access.User{
		ID:          "u2",
		PrimaryRole: "reviewer",
		Extra: access.ExtraPermissions{
			CRUD: map[string]map[access.Operation]bool{"kra": {access.OpDelete: false}},
		},
	}, reviewer)
	assert.True(t, r.CanPerformOperation(viaRole, "kra", "evaluations", access.OpDelete))

	// An explicit page denial is terminal.
	user.Extra.Pages["kra"]["evaluations"] = false
	assert.False(t, r.CanPerformOperation(s, "kra", "evaluations", access.OpRead))
	assert.False(t, r.CanAccessPage(s, "kra", "evaluations"))
}

func TestPageInheritsDashboardAccess(t *testing.T) {
	r := access.NewResolver(testConfig())
	hr := access.Role{
		ID:                   "role-hr",
		Name:                 access.RoleHR,
		DashboardPermissions: map[string]access.Flags{"kra": {View: true}},
	}
	s := snapshot(&access.User{ID: "u1", PrimaryRole: access.RoleHR}, hr)

	assert.True(t, r.CanAccessPage(s, "kra", "assignments"), "no page entry inherits dashboard grant")

	hr.PagePermissions = map[string]map[string]access.Flags{
		"kra": {"assignments": {}},
	}
	denied := snapshot(&access.User{ID: "u1", PrimaryRole: access.RoleHR}, hr)
	assert.False(t, r.CanAccessPage(denied, "kra", "assignments"), "all-false page entry denies for this role")
	assert.True(t, r.CanAccessPage(denied, "kra", "evaluations"))
}

func TestDepartmentGrantsAreGrantOnly(t *testing.T) {
	r := access.NewResolver(testConfig())
	user := &access.User{
		ID:          "u1",
		PrimaryRole: access.RoleEmployee,
		Extra: access.ExtraPermissions{
			DepartmentDashboards: map[string]bool{"asset_management": true},
			DepartmentCRUD: map[string]map[access.Operation]bool{
				"asset_management": {access.OpUpdate: true},
			},
		},
	}
	s := snapshot(user, roleNamed(access.RoleEmployee))

	assert.True(t, r.CanAccessDashboard(s, "asset_management"))
	assert.True(t, r.CanPerformOperation(s, "asset_management", "", access.OpUpdate))
	assert.False(t, r.CanPerformOperation(s, "asset_management", "", access.OpDelete))
}

func TestResolverIsIdempotent(t *testing.T) {
	r := access.NewResolver(testConfig())
	s := snapshot(&access.User{
		ID:          "u1",
		PrimaryRole: access.RoleManager,
		Extra: access.ExtraPermissions{
			Dashboards: map[string]bool{"asset_management": true},
		},
	}, roleNamed(access.RoleManager))

	first := r.AccessibleDashboards(s)
	second := r.AccessibleDashboards(s)
	assert.Equal(t, first, second)
	for range 3 {
		assert.True(t, r.CanAccessDashboard(s, "kra"))
		assert.True(t, r.CanPerformOperation(s, "self", "", access.OpRead))
	}
}

func TestAccessibleDashboardsKeepConfigOrder(t *testing.T) {
	r := access.NewResolver(testConfig())
	s := snapshot(&access.User{ID: "u1", PrimaryRole: access.RoleHR}, roleNamed(access.RoleHR))

	dashboards := r.AccessibleDashboards(s)
	require.Len(t, dashboards, 3)
	assert.Equal(t, "self", dashboards[0].ID)
	assert.Equal(t, "kra", dashboards[1].ID)
	assert.Equal(t, "asset_management", dashboards[2].ID)
}
