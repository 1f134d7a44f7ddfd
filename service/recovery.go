package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/firelater/authcore/logger"
	"github.com/firelater/authcore/model"
)

// RecoveryOptions are the account-recovery tunables. Zero values fall back
// to the documented defaults.
type RecoveryOptions struct {
	ResetTokenTTL  time.Duration
	VerifyTokenTTL time.Duration

	// BaseURL is the application origin embedded in emailed links.
	BaseURL string
}

func (o RecoveryOptions) withDefaults() RecoveryOptions {
	if o.ResetTokenTTL <= 0 {
		o.ResetTokenTTL = time.Hour
	}
	if o.VerifyTokenTTL <= 0 {
		o.VerifyTokenTTL = 24 * time.Hour
	}
	if o.BaseURL == "" {
		o.BaseURL = "http://localhost:3000"
	}
	return o
}

// outcome distinguishes a completed recovery step from the deliberate
// anti-enumeration no-op, so the silent branch is explicit instead of a
// buried early return.
type outcome int

const (
	outcomeDone outcome = iota
	outcomeSilentNoOp
)

// resetClaim is the payload staged in the cache for one password-reset
// token, keyed by the token digest.
type resetClaim struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// Recovery orchestrates password reset and email verification. Reset
// tokens live only in the cache and expire with it; verification tokens
// are durable rows consumed at most once.
type Recovery struct {
	tenants       model.TenantResolver
	users         model.UserStore
	verifications model.VerificationTokenStore
	refreshTokens model.RefreshTokenStore
	cache         model.Cache
	hasher        model.PasswordHasher
	source        model.TokenSource
	notifier      model.Notifier
	opts          RecoveryOptions
	logger        *logger.Logger

	now func() time.Time
}

func NewRecovery(
	tenants model.TenantResolver,
	users model.UserStore,
	verifications model.VerificationTokenStore,
	refreshTokens model.RefreshTokenStore,
	cache model.Cache,
	hasher model.PasswordHasher,
	source model.TokenSource,
	notifier model.Notifier,
	logger *logger.Logger,
	opts RecoveryOptions,
) *Recovery {
	return &Recovery{
		tenants:       tenants,
		users:         users,
		verifications: verifications,
		refreshTokens: refreshTokens,
		cache:         cache,
		hasher:        hasher,
		source:        source,
		notifier:      notifier,
		opts:          opts.withDefaults(),
		logger:        logger,
		now:           time.Now,
	}
}

// RequestPasswordReset stages a single-use reset token and emails the
// reset link. Unknown tenants and unknown emails succeed silently so the
// endpoint cannot be used to enumerate accounts.
func (r *Recovery) RequestPasswordReset(ctx context.Context, tenantSlug, email string) error {
	out, err := r.startPasswordReset(ctx, tenantSlug, email)
	if err != nil {
		return err
	}
	if out == outcomeSilentNoOp {
		r.logger.Debug("recovery: reset requested for unknown account", "tenant", tenantSlug)
	}
	return nil
}

func (r *Recovery) startPasswordReset(ctx context.Context, tenantSlug, email string) (outcome, error) {
	tenant, err := r.tenants.Resolve(ctx, tenantSlug)
	if errors.Is(err, model.ErrNotFound) {
		return outcomeSilentNoOp, nil
	}
	if err != nil {
		return outcomeDone, fmt.Errorf("failed to resolve tenant: %w", err)
	}

	user, err := r.users.GetByEmail(ctx, tenant.ID, email)
	if errors.Is(err, model.ErrNotFound) {
		return outcomeSilentNoOp, nil
	}
	if err != nil {
		return outcomeDone, fmt.Errorf("failed to get user by email: %w", err)
	}

	raw, digest, err := r.source.Issue()
	if err != nil {
		return outcomeDone, fmt.Errorf("failed to issue reset token: %w", err)
	}

	staged, err := json.Marshal(resetClaim{UserID: user.ID, Email: user.Email})
	if err != nil {
		return outcomeDone, fmt.Errorf("failed to encode reset claim: %w", err)
	}
	if err := r.cache.Set(ctx, resetKey(tenant.ID, digest), staged, r.opts.ResetTokenTTL); err != nil {
		return outcomeDone, fmt.Errorf("failed to stage reset token: %w", err)
	}

	r.send(ctx, model.EmailPasswordReset, user.Email, map[string]string{
		"reset_url": fmt.Sprintf("%s/reset-password?token=%s", r.opts.BaseURL, raw),
	})

	r.logger.Info("recovery: reset token issued", "tenant", tenant.Slug, "user_id", user.ID)
	return outcomeDone, nil
}

// ResetPassword redeems a staged reset token, stores the new password
// digest, and revokes every refresh token of the user. The cache read is
// destructive, so a token redeems at most once.
func (r *Recovery) ResetPassword(ctx context.Context, tenantSlug, rawToken, newPassword string) error {
	tenant, err := r.tenants.Resolve(ctx, tenantSlug)
	if err != nil {
		return tenantError(err)
	}

	staged, err := r.cache.GetDel(ctx, resetKey(tenant.ID, r.source.Digest(rawToken)))
	if errors.Is(err, model.ErrCacheMiss) {
		return model.ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	var claim resetClaim
	if err := json.Unmarshal(staged, &claim); err != nil {
		return fmt.Errorf("failed to decode reset claim: %w", err)
	}

	digest, err := r.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := r.users.UpdatePasswordHash(ctx, claim.UserID, digest); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := r.refreshTokens.RevokeAllByUser(ctx, claim.UserID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	r.logger.Info("recovery: password reset", "user_id", claim.UserID)
	return nil
}

// CreateEmailVerificationToken issues a verification token for the user,
// replacing any outstanding one, and returns the raw token for delivery.
func (r *Recovery) CreateEmailVerificationToken(ctx context.Context, userID uuid.UUID) (string, error) {
	raw, digest, err := r.source.Issue()
	if err != nil {
		return "", fmt.Errorf("failed to issue verification token: %w", err)
	}

	now := r.now()
	vt := model.VerificationToken{
		ID:          uuid.New(),
		UserID:      userID,
		TokenDigest: digest,
		ExpiresAt:   now.Add(r.opts.VerifyTokenTTL),
		CreatedAt:   now,
	}
	if err := r.verifications.Replace(ctx, vt); err != nil {
		return "", fmt.Errorf("failed to store verification token: %w", err)
	}

	return raw, nil
}

// VerifyEmail consumes a verification token and marks the user's email
// verified, returning the verified address. The consume is a conditional
// update, so concurrent redemptions pick a single winner.
func (r *Recovery) VerifyEmail(ctx context.Context, tenantSlug, rawToken string) (string, error) {
	tenant, err := r.tenants.Resolve(ctx, tenantSlug)
	if err != nil {
		return "", tenantError(err)
	}

	vt, err := r.verifications.GetByDigest(ctx, r.source.Digest(rawToken))
	if errors.Is(err, model.ErrNotFound) {
		return "", model.ErrInvalidVerificationToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to get verification token: %w", err)
	}

	user, err := r.users.GetByID(ctx, vt.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return "", model.ErrInvalidVerificationToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user by id: %w", err)
	}
	if user.TenantID != tenant.ID {
		return "", model.ErrInvalidVerificationToken
	}
	if user.EmailVerified {
		return "", model.ErrEmailAlreadyVerified
	}

	if err := r.verifications.Consume(ctx, vt.TokenDigest); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrInvalidVerificationToken
		}
		return "", fmt.Errorf("failed to consume verification token: %w", err)
	}
	if err := r.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return "", fmt.Errorf("failed to mark email verified: %w", err)
	}

	r.logger.Info("recovery: email verified", "user_id", user.ID)
	return user.Email, nil
}

// ResendVerificationEmail issues a fresh verification token and emails the
// link. Unknown tenants and emails succeed silently; an already verified
// address is reported, since the caller proved they control it.
func (r *Recovery) ResendVerificationEmail(ctx context.Context, tenantSlug, email string) error {
	out, err := r.resendVerification(ctx, tenantSlug, email)
	if err != nil {
		return err
	}
	if out == outcomeSilentNoOp {
		r.logger.Debug("recovery: verification resend for unknown account", "tenant", tenantSlug)
	}
	return nil
}

func (r *Recovery) resendVerification(ctx context.Context, tenantSlug, email string) (outcome, error) {
	tenant, err := r.tenants.Resolve(ctx, tenantSlug)
	if errors.Is(err, model.ErrNotFound) {
		return outcomeSilentNoOp, nil
	}
	if err != nil {
		return outcomeDone, fmt.Errorf("failed to resolve tenant: %w", err)
	}

	user, err := r.users.GetByEmail(ctx, tenant.ID, email)
	if errors.Is(err, model.ErrNotFound) {
		return outcomeSilentNoOp, nil
	}
	if err != nil {
		return outcomeDone, fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.EmailVerified {
		return outcomeDone, model.ErrEmailAlreadyVerified
	}

	raw, err := r.CreateEmailVerificationToken(ctx, user.ID)
	if err != nil {
		return outcomeDone, err
	}

	r.send(ctx, model.EmailVerification, user.Email, map[string]string{
		"verify_url": fmt.Sprintf("%s/verify-email?token=%s", r.opts.BaseURL, raw),
	})
	return outcomeDone, nil
}

// send delivers a notification without letting delivery failures undo the
// state transition that already happened.
func (r *Recovery) send(ctx context.Context, emailType model.EmailType, recipient string, data map[string]string) {
	if err := r.notifier.Send(ctx, emailType, recipient, data); err != nil {
		r.logger.Warn("recovery: email send failed", "type", string(emailType), "error", err.Error())
	}
}

func resetKey(tenantID uuid.UUID, digest string) string {
	return fmt.Sprintf("password_reset:%s:%s", tenantID, digest)
}
