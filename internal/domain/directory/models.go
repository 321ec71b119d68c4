package directory

import (
	"time"

	"hraccess/internal/domain/access"
)

type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UserRecord struct {
	ID              string                  `json:"id"`
	Email           string                  `json:"email"`
	FullName        string                  `json:"fullName"`
	Status          string                  `json:"status"`
	IsSuperAdmin    bool                    `json:"isSuperAdmin"`
	PrimaryRole     RoleRef                 `json:"primaryRole"`
	AdditionalRoles []RoleRef               `json:"additionalRoles,omitempty"`
	Extra           access.ExtraPermissions `json:"extraPermissions"`
	CreatedAt       time.Time               `json:"createdAt"`
}

type RoleInput struct {
	Name                 string                             `json:"name" validate:"required,min=2,max=64"`
	Description          string                             `json:"description" validate:"max=256"`
	DashboardPermissions map[string]access.Flags            `json:"dashboardPermissions"`
	PagePermissions      map[string]map[string]access.Flags `json:"pagePermissions"`
}

type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required,min=2,max=128"`
	RoleID   string `json:"roleId" validate:"required,uuid4"`
}
