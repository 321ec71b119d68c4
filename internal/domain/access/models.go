package access

import "strings"

type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ParseOperation normalizes a raw operation name. Unknown values return
// false so callers can fail closed instead of guessing.
func ParseOperation(raw string) (Operation, bool) {
	switch Operation(strings.ToLower(strings.TrimSpace(raw))) {
	case OpCreate:
		return OpCreate, true
	case OpRead:
		return OpRead, true
	case OpUpdate:
		return OpUpdate, true
	case OpDelete:
		return OpDelete, true
	}
	return "", false
}

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleHR         = "hr"
	RoleManager    = "manager"
	RoleFinance    = "finance"
	RoleEmployee   = "employee"
)

// Flags is the coarse permission entry stored per role for one dashboard or
// one page. Write governs both create and update.
type Flags struct {
	Read   bool `json:"read"`
	Write  bool `json:"write"`
	View   bool `json:"view"`
	Delete bool `json:"delete"`
}

func (f Flags) Allows(op Operation) bool {
	switch op {
	case OpCreate, OpUpdate:
		return f.Write
	case OpRead:
		return f.Read
	case OpDelete:
		return f.Delete
	}
	return false
}

// Any reports whether the entry grants anything at all. An entry that exists
// with every flag false is an explicit per-role denial.
func (f Flags) Any() bool {
	return f.Read || f.Write || f.View || f.Delete
}

// ExtraPermissions holds explicit per-user overrides. Key presence carries
// meaning: an absent entry falls through to role-derived permissions, an
// explicit false is a terminal denial.
type ExtraPermissions struct {
	Dashboards           map[string]bool               `json:"dashboards,omitempty"`
	Pages                map[string]map[string]bool    `json:"pages,omitempty"`
	CRUD                 map[string]map[Operation]bool `json:"crud,omitempty"`
	DepartmentDashboards map[string]bool               `json:"departmentDashboards,omitempty"`
	DepartmentCRUD       map[string]map[Operation]bool `json:"departmentCrud,omitempty"`
}

type Role struct {
	ID                   string                      `json:"id"`
	Name                 string                      `json:"name"`
	Description          string                      `json:"description,omitempty"`
	DashboardPermissions map[string]Flags            `json:"dashboardPermissions,omitempty"`
	PagePermissions      map[string]map[string]Flags `json:"pagePermissions,omitempty"`
}

type User struct {
	ID                string           `json:"id"`
	Email             string           `json:"email"`
	FullName          string           `json:"fullName"`
	PrimaryRole       string           `json:"primaryRole"`
	AdditionalRoleIDs []string         `json:"additionalRoleIds,omitempty"`
	IsSuperAdmin      bool             `json:"isSuperAdmin"`
	Extra             ExtraPermissions `json:"extraPermissions"`
}

// Snapshot is one user plus every role they hold (primary first, additional
// roles deduplicated), as loaded by the store. The resolver treats it as an
// immutable value.
type Snapshot struct {
	User  *User
	Roles []Role
}

// HoldsRole reports whether the snapshot carries the named role, either as
// the primary role or among the additional ones.
func (s *Snapshot) HoldsRole(name string) bool {
	if s == nil || s.User == nil {
		return false
	}
	if strings.EqualFold(s.User.PrimaryRole, name) {
		return true
	}
	for _, role := range s.Roles {
		if strings.EqualFold(role.Name, name) {
			return true
		}
	}
	return false
}
