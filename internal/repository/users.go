package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/galhr/portal/backend/internal/domain"
)

const userColumns = `id, email, name, role, department, phone_number, password_hash, created_at, version`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	user := &domain.User{}
	var department, phone sql.NullString
	dst := []any{&user.ID, &user.Email, &user.Name, &user.Role, &department, &phone, &user.PasswordHash, &user.CreatedAt, &user.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	user.Department = department.String
	user.PhoneNumber = phone.String
	return user, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	user, err := scanUser(r.dbpool.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	user, err := scanUser(r.dbpool.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (email, name, role, department, phone_number, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	args := []any{user.Email, user.Name, user.Role, nullString(user.Department), nullString(user.PhoneNumber), user.PasswordHash}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.CreatedAt, &user.Version); err != nil {
		return translate(err)
	}
	return nil
}

// UpdateUser writes every mutable column if user.Version is still current.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET
			email = $1,
			name = $2,
			role = $3,
			department = $4,
			phone_number = $5,
			password_hash = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	args := []any{user.Email, user.Name, user.Role, nullString(user.Department), nullString(user.PhoneNumber), user.PasswordHash, user.ID, user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrEditConflict
		}
		return translate(err)
	}
	return nil
}

// DeleteUser removes the user; entries go with it through ON DELETE CASCADE.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]*domain.UserWithEntryCount, error) {
	query := `
		SELECT u.id, u.email, u.name, u.role, u.department, u.phone_number, u.password_hash, u.created_at, u.version,
			(SELECT COUNT(*) FROM entries e WHERE e.owner_id = u.id)
		FROM users u
		ORDER BY u.created_at DESC, u.id DESC
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.UserWithEntryCount, 0)
	for rows.Next() {
		u := &domain.UserWithEntryCount{User: &domain.User{}}
		var department, phone sql.NullString
		dst := []any{&u.ID, &u.Email, &u.Name, &u.Role, &department, &phone, &u.PasswordHash, &u.CreatedAt, &u.Version, &u.EntryCount}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		u.Department = department.String
		u.PhoneNumber = phone.String
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *Repository) CountUsersByRole(ctx context.Context) (map[domain.Role]int, error) {
	query := `SELECT role, COUNT(*) FROM users GROUP BY role`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Role]int, len(domain.Roles))
	for _, role := range domain.Roles {
		counts[role] = 0
	}
	for rows.Next() {
		var role domain.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}

	return counts, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
