//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/firelater/authcore/model"
	repo "github.com/firelater/authcore/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "authcore_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/authcore_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func seedTenant(t *testing.T, ctx context.Context, conn *repo.Connection, slug string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := conn.Exec(ctx, `INSERT INTO tenants (id, slug, name) VALUES ($1, $2, $3)`, id, slug, slug)
	require.NoError(t, err)
	return id
}

func seedUser(t *testing.T, ctx context.Context, conn *repo.Connection, tenantID uuid.UUID, email string, hash *string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := conn.Exec(ctx,
		`INSERT INTO users (id, tenant_id, email, password_hash, status) VALUES ($1, $2, $3, $4, 'active')`,
		id, tenantID, email, hash)
	require.NoError(t, err)
	return id
}

func TestTenantRepository_Resolve(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	tr := repo.NewTenantRepository(conn)
	tenantID := seedTenant(t, ctx, conn, "resolve-acme")

	tenant, err := tr.Resolve(ctx, "resolve-acme")
	require.NoError(t, err)
	require.Equal(t, tenantID, tenant.ID)
	require.Equal(t, "resolve-acme", tenant.Slug)

	_, err = tr.Resolve(ctx, "no-such-tenant")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	tenantID := seedTenant(t, ctx, conn, "users-acme")
	hash := "$2a$04$fakehashforintegrationxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	userID := seedUser(t, ctx, conn, tenantID, "bob@example.com", &hash)

	t.Run("get_by_email_matches_exactly_as_stored", func(t *testing.T) {
		user, err := ur.GetByEmail(ctx, tenantID, "bob@example.com")
		require.NoError(t, err)
		require.Equal(t, userID, user.ID)
		require.NotNil(t, user.PasswordHash)
		require.Equal(t, model.UserStatusActive, user.Status)
		require.Empty(t, user.Roles)

		// the email column is case-sensitive and so is the lookup: with
		// both casings stored as distinct rows a folded comparison would
		// pick one arbitrarily
		_, err = ur.GetByEmail(ctx, tenantID, "Bob@Example.COM")
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("get_by_email_is_tenant_scoped", func(t *testing.T) {
		otherTenant := seedTenant(t, ctx, conn, "users-globex")
		_, err := ur.GetByEmail(ctx, otherTenant, "bob@example.com")
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("login_attempts_roundtrip", func(t *testing.T) {
		lockedUntil := time.Now().Add(30 * time.Minute).UTC()
		require.NoError(t, ur.UpdateLoginAttempts(ctx, userID, 5, &lockedUntil))

		user, err := ur.GetByID(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, 5, user.FailedLoginAttempts)
		require.NotNil(t, user.LockedUntil)
		require.WithinDuration(t, lockedUntil, *user.LockedUntil, time.Second)

		require.NoError(t, ur.RecordLogin(ctx, userID))
		user, err = ur.GetByID(ctx, userID)
		require.NoError(t, err)
		require.Zero(t, user.FailedLoginAttempts)
		require.Nil(t, user.LockedUntil)
		require.NotNil(t, user.LastLoginAt)
	})

	t.Run("password_update_clears_lockout", func(t *testing.T) {
		lockedUntil := time.Now().Add(30 * time.Minute)
		require.NoError(t, ur.UpdateLoginAttempts(ctx, userID, 5, &lockedUntil))
		require.NoError(t, ur.UpdatePasswordHash(ctx, userID, "$2a$04$anotherfakehashxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"))

		user, err := ur.GetByID(ctx, userID)
		require.NoError(t, err)
		require.Zero(t, user.FailedLoginAttempts)
		require.Nil(t, user.LockedUntil)
	})

	t.Run("mark_email_verified", func(t *testing.T) {
		require.NoError(t, ur.MarkEmailVerified(ctx, userID))
		user, err := ur.GetByID(ctx, userID)
		require.NoError(t, err)
		require.True(t, user.EmailVerified)
	})

	t.Run("roles_and_permissions", func(t *testing.T) {
		roleID := uuid.New()
		_, err := conn.Exec(ctx, `INSERT INTO roles (id, tenant_id, name) VALUES ($1, $2, 'agent')`, roleID, tenantID)
		require.NoError(t, err)
		_, err = conn.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID)
		require.NoError(t, err)

		permID := uuid.New()
		_, err = conn.Exec(ctx, `INSERT INTO permissions (id, name) VALUES ($1, 'tickets.read')`, permID)
		require.NoError(t, err)
		_, err = conn.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, permID)
		require.NoError(t, err)

		user, err := ur.GetByID(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, []string{"agent"}, user.Roles)

		perms, err := ur.GetPermissions(ctx, tenantID, userID)
		require.NoError(t, err)
		require.Equal(t, []string{"tickets.read"}, perms)

		// the permission query is tenant scoped too
		otherTenant := seedTenant(t, ctx, conn, "perms-globex")
		perms, err = ur.GetPermissions(ctx, otherTenant, userID)
		require.NoError(t, err)
		require.Empty(t, perms)
	})
}

func TestRefreshTokenRepository_RedeemOnce(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	rr := repo.NewRefreshTokenRepository(conn)
	tenantID := seedTenant(t, ctx, conn, "refresh-acme")
	userID := seedUser(t, ctx, conn, tenantID, "refresh@example.com", nil)

	token := model.RefreshToken{
		ID:          uuid.New(),
		TokenDigest: "digest-redeem-once",
		UserID:      userID,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, rr.Create(ctx, token))

	redeemed, err := rr.Redeem(ctx, token.TokenDigest)
	require.NoError(t, err)
	require.Equal(t, userID, redeemed.UserID)
	require.NotNil(t, redeemed.RevokedAt)

	// the same digest cannot be redeemed twice
	_, err = rr.Redeem(ctx, token.TokenDigest)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestRefreshTokenRepository_ExpiredNotRedeemable(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	rr := repo.NewRefreshTokenRepository(conn)
	tenantID := seedTenant(t, ctx, conn, "expired-acme")
	userID := seedUser(t, ctx, conn, tenantID, "expired@example.com", nil)

	require.NoError(t, rr.Create(ctx, model.RefreshToken{
		ID:          uuid.New(),
		TokenDigest: "digest-expired",
		UserID:      userID,
		ExpiresAt:   time.Now().Add(-time.Minute),
	}))

	_, err = rr.Redeem(ctx, "digest-expired")
	require.ErrorIs(t, err, model.ErrNotFound)

	// retention GC removes it entirely
	require.NoError(t, rr.DeleteExpired(ctx, time.Now()))
	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT count(*) FROM refresh_tokens WHERE token_digest = 'digest-expired'`).Scan(&count))
	require.Zero(t, count)
}

func TestRefreshTokenRepository_RevokeAllByUser(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	rr := repo.NewRefreshTokenRepository(conn)
	tenantID := seedTenant(t, ctx, conn, "revoke-acme")
	userID := seedUser(t, ctx, conn, tenantID, "revoke@example.com", nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, rr.Create(ctx, model.RefreshToken{
			ID:          uuid.New(),
			TokenDigest: fmt.Sprintf("digest-revoke-%d", i),
			UserID:      userID,
			ExpiresAt:   time.Now().Add(time.Hour),
		}))
	}

	require.NoError(t, rr.RevokeAllByUser(ctx, userID))

	for i := 0; i < 3; i++ {
		_, err := rr.Redeem(ctx, fmt.Sprintf("digest-revoke-%d", i))
		require.ErrorIs(t, err, model.ErrNotFound)
	}

	// revoking an unknown digest is a quiet no-op
	require.NoError(t, rr.RevokeByDigest(ctx, "digest-never-issued"))
}

func TestVerificationTokenRepository_SingleLiveToken(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	vr := repo.NewVerificationTokenRepository(conn)
	tenantID := seedTenant(t, ctx, conn, "verify-acme")
	userID := seedUser(t, ctx, conn, tenantID, "verify@example.com", nil)

	first := model.VerificationToken{ID: uuid.New(), UserID: userID, TokenDigest: "verify-first", ExpiresAt: time.Now().Add(24 * time.Hour)}
	require.NoError(t, vr.Replace(ctx, first))

	// replacing drops the prior row for the user
	second := model.VerificationToken{ID: uuid.New(), UserID: userID, TokenDigest: "verify-second", ExpiresAt: time.Now().Add(24 * time.Hour)}
	require.NoError(t, vr.Replace(ctx, second))

	_, err = vr.GetByDigest(ctx, "verify-first")
	require.ErrorIs(t, err, model.ErrNotFound)

	got, err := vr.GetByDigest(ctx, "verify-second")
	require.NoError(t, err)
	require.Equal(t, userID, got.UserID)
	require.Nil(t, got.ConsumedAt)
}

func TestVerificationTokenRepository_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	vr := repo.NewVerificationTokenRepository(conn)
	tenantID := seedTenant(t, ctx, conn, "consume-acme")
	userID := seedUser(t, ctx, conn, tenantID, "consume@example.com", nil)

	token := model.VerificationToken{ID: uuid.New(), UserID: userID, TokenDigest: "verify-consume", ExpiresAt: time.Now().Add(24 * time.Hour)}
	require.NoError(t, vr.Replace(ctx, token))

	require.NoError(t, vr.Consume(ctx, token.TokenDigest))
	require.ErrorIs(t, vr.Consume(ctx, token.TokenDigest), model.ErrNotFound)

	// the consumed row is retained for audit
	var count int
	require.NoError(t, conn.QueryRow(ctx,
		`SELECT count(*) FROM verification_tokens WHERE token_digest = 'verify-consume' AND consumed_at IS NOT NULL`).Scan(&count))
	require.Equal(t, 1, count)
}
