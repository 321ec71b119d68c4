package db

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"hraccess/internal/auth"
	"hraccess/internal/domain/access"
	"hraccess/internal/platform/config"
)

// Seed creates the built-in roles and the bootstrap super admin. It is
// idempotent: existing rows are left alone, so operator edits survive
// restarts.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, layout access.Config) error {
	if err := ensureRoles(ctx, pool, layout); err != nil {
		return err
	}
	return ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool, layout access.Config) error {
	for _, roleName := range []string{
		access.RoleSuperAdmin, access.RoleAdmin, access.RoleHR,
		access.RoleManager, access.RoleFinance, access.RoleEmployee,
	} {
		var id string
		err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", roleName).Scan(&id)
		if err == nil {
			continue
		}

		matrix, err := defaultMatrix(layout, roleName)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, `
      INSERT INTO roles (name, dashboard_permissions, page_permissions)
      VALUES ($1, $2, '{}')
      ON CONFLICT (name) DO NOTHING
    `, roleName, matrix); err != nil {
			return err
		}
	}
	return nil
}

// defaultMatrix materialises the role-name fallback mapping as an explicit
// dashboard matrix, so seeded roles show their grants in the admin UI instead
// of relying on the implicit defaults.
func defaultMatrix(layout access.Config, roleName string) ([]byte, error) {
	matrix := map[string]access.Flags{}
	for _, dashboardID := range layout.RoleDashboards[roleName] {
		flags := access.Flags{Read: true, View: true}
		if roleName == access.RoleEmployee && dashboardID == access.DashboardSelf {
			flags.Write = true
		}
		matrix[dashboardID] = flags
	}
	return json.Marshal(matrix)
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	var roleID string
	if err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", access.RoleSuperAdmin).Scan(&roleID); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return pool.QueryRow(ctx, `
    INSERT INTO users (email, full_name, password_hash, role_id, is_super_admin)
    VALUES ($1, 'System Administrator', $2, $3, TRUE)
    RETURNING id
  `, email, hash, roleID).Scan(&id)
}
