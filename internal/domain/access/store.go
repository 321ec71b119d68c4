package access

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// SnapshotByUserID loads one user with their primary role and every
// additional role, deduplicated, ready for the resolver.
func (s *Store) SnapshotByUserID(ctx context.Context, userID string) (*Snapshot, error) {
	var (
		user      User
		primary   Role
		extraJSON []byte
		dashJSON  []byte
		pageJSON  []byte
	)
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.email, u.full_name, u.is_super_admin, u.extra_permissions,
           r.id, r.name, r.description, r.dashboard_permissions, r.page_permissions
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1 AND u.status = 'active'
  `, userID).Scan(
		&user.ID, &user.Email, &user.FullName, &user.IsSuperAdmin, &extraJSON,
		&primary.ID, &primary.Name, &primary.Description, &dashJSON, &pageJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := unmarshalInto(extraJSON, &user.Extra); err != nil {
		return nil, fmt.Errorf("user %s extra permissions: %w", userID, err)
	}
	if err := decodeRoleMatrices(&primary, dashJSON, pageJSON); err != nil {
		return nil, err
	}
	user.PrimaryRole = primary.Name

	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.name, r.description, r.dashboard_permissions, r.page_permissions
    FROM user_roles ur
    JOIN roles r ON ur.role_id = r.id
    WHERE ur.user_id = $1
    ORDER BY r.name
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []Role{primary}
	seen := map[string]struct{}{primary.ID: {}}
	for rows.Next() {
		var (
			role Role
			dash []byte
			page []byte
		)
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &dash, &page); err != nil {
			return nil, err
		}
		if _, ok := seen[role.ID]; ok {
			continue
		}
		if err := decodeRoleMatrices(&role, dash, page); err != nil {
			return nil, err
		}
		seen[role.ID] = struct{}{}
		user.AdditionalRoleIDs = append(user.AdditionalRoleIDs, role.ID)
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Snapshot{User: &user, Roles: roles}, nil
}

func (s *Store) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM users WHERE status = 'active' ORDER BY email")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func decodeRoleMatrices(role *Role, dashJSON, pageJSON []byte) error {
	if err := unmarshalInto(dashJSON, &role.DashboardPermissions); err != nil {
		return fmt.Errorf("role %s dashboard permissions: %w", role.Name, err)
	}
	if err := unmarshalInto(pageJSON, &role.PagePermissions); err != nil {
		return fmt.Errorf("role %s page permissions: %w", role.Name, err)
	}
	return nil
}

func unmarshalInto(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}
