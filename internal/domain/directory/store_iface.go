package directory

import (
	"context"

	"hraccess/internal/domain/access"
)

type StoreAPI interface {
	ListRoles(ctx context.Context) ([]access.Role, error)
	GetRole(ctx context.Context, roleID string) (access.Role, error)
	CreateRole(ctx context.Context, name, description string, dashboardJSON, pageJSON []byte) (string, error)
	UpdateRole(ctx context.Context, roleID, name, description string, dashboardJSON, pageJSON []byte) error
	DeleteRole(ctx context.Context, roleID string) error
	RoleUserCount(ctx context.Context, roleID string) (int, error)

	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context, limit, offset int) ([]UserRecord, error)
	GetUser(ctx context.Context, userID string) (UserRecord, error)
	CreateUser(ctx context.Context, email, fullName, roleID string) (string, error)
	SetPrimaryRole(ctx context.Context, userID, roleID string) error
	SetSuperAdmin(ctx context.Context, userID string, enabled bool) error
	SetOverrides(ctx context.Context, userID string, extraJSON []byte) error
	AssignRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
}
