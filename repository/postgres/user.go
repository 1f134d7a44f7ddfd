package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/firelater/authcore/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// userSelect aggregates role names into the row so a login needs a single
// round trip.
const userSelect = `
	SELECT u.id, u.tenant_id, u.email, u.password_hash, u.status, u.email_verified,
	       u.failed_login_attempts, u.locked_until, u.last_login_at, u.created_at, u.updated_at,
	       COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id
`

func (r *UserRepository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (model.User, error) {
	// Exact match as stored. The (tenant_id, email) uniqueness constraint
	// is case-sensitive, so a folded comparison could match more than one
	// row; any normalization belongs to the caller before the lookup.
	query := userSelect + `
		WHERE u.tenant_id = $1 AND u.email = $2
		GROUP BY u.id`

	user, err := r.scanUser(r.db.QueryRow(ctx, query, tenantID, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := userSelect + `
		WHERE u.id = $1
		GROUP BY u.id`

	user, err := r.scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) UpdateLoginAttempts(ctx context.Context, id uuid.UUID, attempts int, lockedUntil *time.Time) error {
	query := `UPDATE users SET failed_login_attempts = $2, locked_until = $3, updated_at = NOW()
			  WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, attempts, lockedUntil); err != nil {
		return fmt.Errorf("failed to update login attempts: %w", err)
	}
	return nil
}

func (r *UserRepository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET failed_login_attempts = 0, locked_until = NULL,
			  last_login_at = NOW(), updated_at = NOW()
			  WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// UpdatePasswordHash also clears the lockout state: a successful reset
// proves control of the mailbox, so the counter starts over.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, failed_login_attempts = 0,
			  locked_until = NULL, updated_at = NOW()
			  WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, passwordHash); err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return nil
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET email_verified = TRUE, updated_at = NOW()
			  WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}

func (r *UserRepository) GetPermissions(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		JOIN users u ON u.id = ur.user_id
		WHERE u.id = $1 AND u.tenant_id = $2
		ORDER BY p.name`

	rows, err := r.db.Query(ctx, query, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions: %w", err)
	}
	defer rows.Close()

	perms := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read permissions: %w", err)
	}

	return perms, nil
}

func (r *UserRepository) scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.Status, &user.EmailVerified,
		&user.FailedLoginAttempts, &user.LockedUntil, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
		&user.Roles,
	)
	return user, err
}
