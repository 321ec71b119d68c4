package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hraccess/internal/domain/access"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListRoles(ctx context.Context) ([]access.Role, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, description, dashboard_permissions, page_permissions
    FROM roles
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []access.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *Store) GetRole(ctx context.Context, roleID string) (access.Role, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, name, description, dashboard_permissions, page_permissions
    FROM roles
    WHERE id = $1
  `, roleID)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return access.Role{}, ErrRoleNotFound
	}
	return role, err
}

func (s *Store) CreateRole(ctx context.Context, name, description string, dashboardJSON, pageJSON []byte) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO roles (name, description, dashboard_permissions, page_permissions)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, name, description, dashboardJSON, pageJSON).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDuplicateRole
	}
	return id, err
}

func (s *Store) UpdateRole(ctx context.Context, roleID, name, description string, dashboardJSON, pageJSON []byte) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE roles
    SET name = $1, description = $2, dashboard_permissions = $3, page_permissions = $4, updated_at = now()
    WHERE id = $5
  `, name, description, dashboardJSON, pageJSON, roleID)
	if isUniqueViolation(err) {
		return ErrDuplicateRole
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM roles WHERE id = $1", roleID)
	if isForeignKeyViolation(err) {
		return ErrRoleInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func (s *Store) RoleUserCount(ctx context.Context, roleID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT (SELECT COUNT(1) FROM users WHERE role_id = $1)
         + (SELECT COUNT(1) FROM user_roles WHERE role_id = $1)
  `, roleID).Scan(&count)
	return count, err
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users").Scan(&count)
	return count, err
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]UserRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.email, u.full_name, u.status, u.is_super_admin, u.extra_permissions, u.created_at,
           r.id, r.name
    FROM users u
    JOIN roles r ON u.role_id = r.id
    ORDER BY u.email
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range users {
		held, err := s.additionalRoles(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].AdditionalRoles = held
	}
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (UserRecord, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT u.id, u.email, u.full_name, u.status, u.is_super_admin, u.extra_permissions, u.created_at,
           r.id, r.name
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1
  `, userID)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserRecord{}, ErrUserNotFound
	}
	if err != nil {
		return UserRecord{}, err
	}
	user.AdditionalRoles, err = s.additionalRoles(ctx, userID)
	return user, err
}

func (s *Store) CreateUser(ctx context.Context, email, fullName, roleID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, full_name, role_id)
    VALUES ($1, $2, $3)
    RETURNING id
  `, email, fullName, roleID).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDuplicateEmail
	}
	if isForeignKeyViolation(err) {
		return "", ErrRoleNotFound
	}
	return id, err
}

func (s *Store) SetPrimaryRole(ctx context.Context, userID, roleID string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET role_id = $1, updated_at = now() WHERE id = $2", roleID, userID)
	if isForeignKeyViolation(err) {
		return ErrRoleNotFound
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) SetSuperAdmin(ctx context.Context, userID string, enabled bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET is_super_admin = $1, updated_at = now() WHERE id = $2", enabled, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) SetOverrides(ctx context.Context, userID string, extraJSON []byte) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET extra_permissions = $1, updated_at = now() WHERE id = $2", extraJSON, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) AssignRole(ctx context.Context, userID, roleID string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO user_roles (user_id, role_id)
    VALUES ($1, $2)
    ON CONFLICT (user_id, role_id) DO NOTHING
  `, userID, roleID)
	if isForeignKeyViolation(err) {
		return ErrRoleNotFound
	}
	return err
}

func (s *Store) RemoveRole(ctx context.Context, userID, roleID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2", userID, roleID)
	return err
}

func (s *Store) additionalRoles(ctx context.Context, userID string) ([]RoleRef, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.name
    FROM user_roles ur
    JOIN roles r ON ur.role_id = r.id
    WHERE ur.user_id = $1
    ORDER BY r.name
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []RoleRef
	for rows.Next() {
		var ref RoleRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func scanRole(row pgx.Row) (access.Role, error) {
	var (
		role     access.Role
		dashJSON []byte
		pageJSON []byte
	)
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &dashJSON, &pageJSON); err != nil {
		return access.Role{}, err
	}
	if len(dashJSON) > 0 {
		if err := json.Unmarshal(dashJSON, &role.DashboardPermissions); err != nil {
			return access.Role{}, fmt.Errorf("role %s dashboard permissions: %w", role.Name, err)
		}
	}
	if len(pageJSON) > 0 {
		if err := json.Unmarshal(pageJSON, &role.PagePermissions); err != nil {
			return access.Role{}, fmt.Errorf("role %s page permissions: %w", role.Name, err)
		}
	}
	return role, nil
}

func scanUser(row pgx.Row) (UserRecord, error) {
	var (
		user      UserRecord
		extraJSON []byte
	)
	err := row.Scan(
		&user.ID, &user.Email, &user.FullName, &user.Status, &user.IsSuperAdmin, &extraJSON, &user.CreatedAt,
		&user.PrimaryRole.ID, &user.PrimaryRole.Name,
	)
	if err != nil {
		return UserRecord{}, err
	}
	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &user.Extra); err != nil {
			return UserRecord{}, fmt.Errorf("user %s extra permissions: %w", user.ID, err)
		}
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
