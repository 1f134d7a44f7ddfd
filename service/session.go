package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/firelater/authcore/logger"
	"github.com/firelater/authcore/model"
)

// SessionOptions are the credential-lifecycle tunables. Zero values fall
// back to the documented defaults.
type SessionOptions struct {
	FailedAttemptLimit int
	LockoutDuration    time.Duration
	RefreshTTL         time.Duration
	RefreshRetention   time.Duration
	PermissionCacheTTL time.Duration
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.FailedAttemptLimit <= 0 {
		o.FailedAttemptLimit = 5
	}
	if o.LockoutDuration <= 0 {
		o.LockoutDuration = 30 * time.Minute
	}
	if o.RefreshTTL <= 0 {
		o.RefreshTTL = 30 * 24 * time.Hour
	}
	if o.RefreshRetention <= 0 {
		o.RefreshRetention = 60 * 24 * time.Hour
	}
	if o.PermissionCacheTTL <= 0 {
		o.PermissionCacheTTL = 5 * time.Minute
	}
	return o
}

// UserProfile is the minimal projection returned to the route layer after
// a successful login. It never carries credential material.
type UserProfile struct {
	ID            uuid.UUID
	Email         string
	EmailVerified bool
	Roles         []string
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         UserProfile
}

// TokenPair is the outcome of a successful refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Session orchestrates login, refresh rotation, logout, and the lockout
// state machine over the tenant-partitioned credential store.
type Session struct {
	tenants       model.TenantResolver
	users         model.UserStore
	refreshTokens model.RefreshTokenStore
	cache         model.Cache
	hasher        model.PasswordHasher
	tokens        model.TokenManager
	source        model.TokenSource
	opts          SessionOptions
	logger        *logger.Logger

	// dummyDigest equalizes the cost of "unknown account" with "wrong
	// password" so login latency does not reveal account existence.
	dummyDigest string

	now func() time.Time
}

func NewSession(
	tenants model.TenantResolver,
	users model.UserStore,
	refreshTokens model.RefreshTokenStore,
	cache model.Cache,
	hasher model.PasswordHasher,
	tokens model.TokenManager,
	source model.TokenSource,
	logger *logger.Logger,
	opts SessionOptions,
) *Session {
	dummy, err := hasher.Hash("authcore.timing.filler")
	if err != nil {
		dummy = ""
	}

	return &Session{
		tenants:       tenants,
		users:         users,
		refreshTokens: refreshTokens,
		cache:         cache,
		hasher:        hasher,
		tokens:        tokens,
		source:        source,
		opts:          opts.withDefaults(),
		logger:        logger,
		dummyDigest:   dummy,
		now:           time.Now,
	}
}

// Login authenticates a tenant-scoped user by email and password.
//
// Unknown accounts and wrong passwords share the same base message;
// lockout state is deliberately disclosed, attempts counts included.
func (s *Session) Login(ctx context.Context, tenantSlug, email, passwd string) (LoginResult, error) {
	tenant, err := s.tenants.Resolve(ctx, tenantSlug)
	if err != nil {
		return LoginResult{}, tenantError(err)
	}

	user, err := s.users.GetByEmail(ctx, tenant.ID, email)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Debug("session: login for unknown account", "tenant", tenant.Slug)
		s.hasher.Verify(passwd, s.dummyDigest)
		return LoginResult{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	now := s.now()
	if user.Status != model.UserStatusActive {
		return LoginResult{}, model.ErrAccountNotActive
	}
	if user.Locked(now) {
		return LoginResult{}, lockedError(*user.LockedUntil, now)
	}
	if user.PasswordHash == nil {
		return LoginResult{}, model.ErrSSOOnlyAccount
	}

	if !s.hasher.Verify(passwd, *user.PasswordHash) {
		return LoginResult{}, s.registerFailedAttempt(ctx, user, now)
	}

	if err := s.users.RecordLogin(ctx, user.ID); err != nil {
		return LoginResult{}, fmt.Errorf("failed to record login: %w", err)
	}

	access, refresh, err := s.issueTokens(ctx, tenant.ID, user)
	if err != nil {
		return LoginResult{}, err
	}

	s.logger.Info("session: login succeeded", "tenant", tenant.Slug, "user_id", user.ID)

	return LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User: UserProfile{
			ID:            user.ID,
			Email:         user.Email,
			EmailVerified: user.EmailVerified,
			Roles:         user.Roles,
		},
	}, nil
}

// Refresh redeems a refresh token and rotates it. The redemption is a
// conditional revoke in the store, so a replayed token fails no matter how
// closely the replay follows the first redemption.
func (s *Session) Refresh(ctx context.Context, rawToken, tenantSlug string) (TokenPair, error) {
	tenant, err := s.tenants.Resolve(ctx, tenantSlug)
	if err != nil {
		return TokenPair{}, tenantError(err)
	}

	rt, err := s.refreshTokens.Redeem(ctx, s.source.Digest(rawToken))
	if errors.Is(err, model.ErrNotFound) {
		return TokenPair{}, model.ErrInvalidRefreshToken
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to redeem refresh token: %w", err)
	}

	user, err := s.users.GetByID(ctx, rt.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return TokenPair{}, model.ErrInvalidRefreshToken
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	if user.TenantID != tenant.ID {
		s.logger.Warn("session: refresh token presented under wrong tenant",
			"tenant", tenant.Slug,
			"user_id", user.ID)
		return TokenPair{}, model.ErrInvalidRefreshToken
	}
	if user.Status != model.UserStatusActive {
		return TokenPair{}, model.ErrAccountNotActive
	}

	access, refresh, err := s.issueTokens(ctx, tenant.ID, user)
	if err != nil {
		return TokenPair{}, err
	}

	s.purgeExpiredAsync()

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes the presented refresh token. Logging out twice, or with
// a token that never existed, is not an error.
func (s *Session) Logout(ctx context.Context, rawToken, tenantSlug string) error {
	if _, err := s.tenants.Resolve(ctx, tenantSlug); err != nil {
		return tenantError(err)
	}

	if err := s.refreshTokens.RevokeByDigest(ctx, s.source.Digest(rawToken)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens bulk-revokes every live refresh token of a user,
// forcing re-authentication everywhere.
func (s *Session) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	if err := s.refreshTokens.RevokeAllByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}
	return nil
}

// ChangePassword verifies the old password, stores the new digest, and
// revokes all outstanding refresh tokens for the user.
func (s *Session) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.NewNotFound("User not found")
	}
	if err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	if user.PasswordHash == nil {
		return model.ErrNoLocalPassword
	}
	if !s.hasher.Verify(oldPassword, *user.PasswordHash) {
		return model.ErrInvalidCredentials
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, digest); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.RevokeAllUserTokens(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("session: password changed", "user_id", userID)
	return nil
}

// Permissions returns the user's permission names through the read-through
// cache. The cache is a pure optimization: any miss or cache failure falls
// back to the store, so behavior is identical with the cache absent.
func (s *Session) Permissions(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error) {
	key := permissionsKey(tenantID, userID)

	if data, err := s.cache.Get(ctx, key); err == nil {
		var perms []string
		if jsonErr := json.Unmarshal(data, &perms); jsonErr == nil {
			return perms, nil
		}
	} else if !errors.Is(err, model.ErrCacheMiss) {
		s.logger.Debug("session: permission cache read failed", "error", err.Error())
	}

	perms, err := s.users.GetPermissions(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}

	if data, err := json.Marshal(perms); err == nil {
		if err := s.cache.Set(ctx, key, data, s.opts.PermissionCacheTTL); err != nil {
			s.logger.Debug("session: permission cache write failed", "error", err.Error())
		}
	}

	return perms, nil
}

// PurgeExpired deletes refresh-token rows whose expiry fell out of the
// retention window. Revocation state enforces security; this is bookkeeping.
func (s *Session) PurgeExpired(ctx context.Context) error {
	cutoff := s.now().Add(-s.opts.RefreshRetention)
	if err := s.refreshTokens.DeleteExpired(ctx, cutoff); err != nil {
		return fmt.Errorf("failed to purge expired refresh tokens: %w", err)
	}
	return nil
}

func (s *Session) issueTokens(ctx context.Context, tenantID uuid.UUID, user model.User) (string, string, error) {
	access, err := s.tokens.GenerateAccessToken(model.AccessClaims{
		TenantID: tenantID,
		UserID:   user.ID,
		Email:    user.Email,
		Roles:    user.Roles,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to issue access token: %w", err)
	}

	raw, digest, err := s.source.Issue()
	if err != nil {
		return "", "", fmt.Errorf("failed to issue refresh token: %w", err)
	}

	now := s.now()
	rt := model.RefreshToken{
		ID:          uuid.New(),
		TokenDigest: digest,
		UserID:      user.ID,
		ExpiresAt:   now.Add(s.opts.RefreshTTL),
		CreatedAt:   now,
	}
	if err := s.refreshTokens.Create(ctx, rt); err != nil {
		return "", "", fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return access, raw, nil
}

func (s *Session) registerFailedAttempt(ctx context.Context, user model.User, now time.Time) error {
	attempts := user.FailedLoginAttempts + 1

	if attempts >= s.opts.FailedAttemptLimit {
		lockedUntil := now.Add(s.opts.LockoutDuration)
		if err := s.users.UpdateLoginAttempts(ctx, user.ID, attempts, &lockedUntil); err != nil {
			return fmt.Errorf("failed to persist lockout: %w", err)
		}
		s.logger.Info("session: account locked", "user_id", user.ID, "attempts", attempts)
		return model.NewUnauthorizedf(
			"Account is locked due to too many failed login attempts. Try again in %d minutes",
			int(s.opts.LockoutDuration.Minutes()))
	}

	if err := s.users.UpdateLoginAttempts(ctx, user.ID, attempts, nil); err != nil {
		return fmt.Errorf("failed to persist failed attempt: %w", err)
	}
	return model.NewUnauthorizedf("Invalid email or password. %d attempts remaining",
		s.opts.FailedAttemptLimit-attempts)
}

// purgeExpiredAsync runs retention GC detached from the request, best
// effort.
func (s *Session) purgeExpiredAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.PurgeExpired(ctx); err != nil {
			s.logger.Debug("session: refresh token purge failed", "error", err.Error())
		}
	}()
}

func lockedError(lockedUntil, now time.Time) error {
	minutes := int(math.Ceil(lockedUntil.Sub(now).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return model.NewUnauthorizedf("Account is locked. Try again in %d minutes", minutes)
}

func tenantError(err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrTenantNotFound
	}
	return fmt.Errorf("failed to resolve tenant: %w", err)
}

func permissionsKey(tenantID, userID uuid.UUID) string {
	return fmt.Sprintf("permissions:%s:%s", tenantID, userID)
}
