package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStatus is the account lifecycle state as stored. Only "active"
// accounts may authenticate; every other value is rejected uniformly.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusPending  UserStatus = "pending"
)

// User is the credential record for one tenant-scoped account.
// PasswordHash is nil for externally-authenticated (SSO) accounts.
type User struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	Email               string
	PasswordHash        *string
	Status              UserStatus
	EmailVerified       bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	Roles               []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Locked reports whether a lockout window is still open at now.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// UserStore defines the durable credential-store operations this subsystem
// needs. Lookups are tenant-scoped and return the user joined with role
// names. Records are never deleted here.
type UserStore interface {
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	// UpdateLoginAttempts persists the failed-attempt counter and, when the
	// threshold was reached, the lockout expiry.
	UpdateLoginAttempts(ctx context.Context, id uuid.UUID, attempts int, lockedUntil *time.Time) error
	// RecordLogin resets the failed-attempt counter, clears any lockout,
	// and stamps the last-login time.
	RecordLogin(ctx context.Context, id uuid.UUID) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	// GetPermissions resolves the authoritative permission names for a user
	// through its roles. The cached copy in front of this is never
	// authoritative.
	GetPermissions(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error)
}
