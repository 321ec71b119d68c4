package access

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type Page struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type Dashboard struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Pages []Page `json:"pages,omitempty"`
}

// Config is the static dashboard layout plus the role-name fallback mapping.
// It is built once at startup and passed into the resolver by value; nothing
// mutates it afterwards.
type Config struct {
	Dashboards     []Dashboard         `json:"dashboards"`
	RoleDashboards map[string][]string `json:"roleDashboards"`
}

const (
	DashboardSelf       = "self"
	DashboardEmployees  = "employee_management"
	DashboardKRA        = "kra"
	DashboardLeave      = "leave_management"
	DashboardAssets     = "asset_management"
	DashboardFinance    = "finance"
	DashboardGrievances = "grievances"
	DashboardReferrals  = "referrals"
	DashboardAdmin      = "admin"
)

// DefaultConfig mirrors the HR portal's dashboard layout.
func DefaultConfig() Config {
	return Config{
		Dashboards: []Dashboard{
			{ID: DashboardSelf, Name: "My Workspace", Pages: []Page{
				{ID: "profile", Path: "/self/profile"},
				{ID: "leave_applications", Path: "/self/leave"},
				{ID: "my_goals", Path: "/self/goals"},
				{ID: "payslips", Path: "/self/payslips"},
			}},
			{ID: DashboardEmployees, Name: "Employee Management", Pages: []Page{
				{ID: "employees", Path: "/employees"},
				{ID: "departments", Path: "/employees/departments"},
				{ID: "documents", Path: "/employees/documents"},
			}},
			{ID: DashboardKRA, Name: "Goals & KRA", Pages: []Page{
				{ID: "assignments", Path: "/kra/assignments"},
				{ID: "evaluations", Path: "/kra/evaluations"},
				{ID: "templates", Path: "/kra/templates"},
			}},
			{ID: DashboardLeave, Name: "Leave Management", Pages: []Page{
				{ID: "requests", Path: "/leave/requests"},
				{ID: "balances", Path: "/leave/balances"},
				{ID: "holidays", Path: "/leave/holidays"},
			}},
			{ID: DashboardAssets, Name: "Assets & VMs", Pages: []Page{
				{ID: "inventory", Path: "/assets/inventory"},
				{ID: "assignments", Path: "/assets/assignments"},
				{ID: "virtual_machines", Path: "/assets/vms"},
			}},
			{ID: DashboardFinance, Name: "Finance", Pages: []Page{
				{ID: "payroll", Path: "/finance/payroll"},
				{ID: "reimbursements", Path: "/finance/reimbursements"},
			}},
			{ID: DashboardGrievances, Name: "Grievances", Pages: []Page{
				{ID: "tickets", Path: "/grievances/tickets"},
			}},
			{ID: DashboardReferrals, Name: "Referrals", Pages: []Page{
				{ID: "openings", Path: "/referrals/openings"},
				{ID: "submissions", Path: "/referrals/submissions"},
			}},
			{ID: DashboardAdmin, Name: "Administration", Pages: []Page{
				{ID: "users", Path: "/admin/users"},
				{ID: "roles", Path: "/admin/roles"},
				{ID: "audit", Path: "/admin/audit"},
			}},
		},
		RoleDashboards: map[string][]string{
			RoleEmployee: {DashboardSelf},
			RoleManager:  {DashboardSelf, DashboardKRA, DashboardLeave, DashboardReferrals},
			RoleHR: {
				DashboardSelf, DashboardEmployees, DashboardKRA, DashboardLeave,
				DashboardGrievances, DashboardReferrals,
			},
			RoleFinance: {DashboardSelf, DashboardFinance},
			RoleAdmin: {
				DashboardSelf, DashboardEmployees, DashboardKRA, DashboardLeave,
				DashboardAssets, DashboardFinance, DashboardGrievances,
				DashboardReferrals, DashboardAdmin,
			},
		},
	}
}

// LoadConfigFile reads a JSON dashboard layout to substitute for the default.
func LoadConfigFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("dashboard config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("dashboard config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.Dashboards) == 0 {
		return fmt.Errorf("no dashboards defined")
	}
	seen := map[string]struct{}{}
	for _, dashboard := range c.Dashboards {
		id := strings.TrimSpace(dashboard.ID)
		if id == "" {
			return fmt.Errorf("dashboard with empty id")
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate dashboard id %s", id)
		}
		seen[id] = struct{}{}

		pages := map[string]struct{}{}
		for _, page := range dashboard.Pages {
			pid := strings.TrimSpace(page.ID)
			if pid == "" {
				return fmt.Errorf("dashboard %s has a page with empty id", id)
			}
			if _, ok := pages[pid]; ok {
				return fmt.Errorf("dashboard %s has duplicate page id %s", id, pid)
			}
			pages[pid] = struct{}{}
		}
	}
	for role, dashboards := range c.RoleDashboards {
		for _, id := range dashboards {
			if _, ok := seen[id]; !ok {
				return fmt.Errorf("role %s maps to unknown dashboard %s", role, id)
			}
		}
	}
	return nil
}

func (c Config) FindDashboard(id string) (Dashboard, bool) {
	for _, dashboard := range c.Dashboards {
		if dashboard.ID == id {
			return dashboard, true
		}
	}
	return Dashboard{}, false
}

func (c Config) HasDashboard(id string) bool {
	_, ok := c.FindDashboard(id)
	return ok
}

func (c Config) HasPage(dashboardID, pageID string) bool {
	dashboard, ok := c.FindDashboard(dashboardID)
	if !ok {
		return false
	}
	for _, page := range dashboard.Pages {
		if page.ID == pageID {
			return true
		}
	}
	return false
}

func (c Config) roleDefaultsInclude(roleName, dashboardID string) bool {
	for _, id := range c.RoleDashboards[strings.ToLower(strings.TrimSpace(roleName))] {
		if id == dashboardID {
			return true
		}
	}
	return false
}
