// Package authcore is the credential and session lifecycle subsystem of
// the support backend: tenant-scoped login with lockout, refresh-token
// rotation, password reset, and email verification. The HTTP surface,
// SSO, and user administration live in the host application; it consumes
// this package through the Session and Recovery managers.
package authcore

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	rediscache "github.com/firelater/authcore/cache/redis"
	"github.com/firelater/authcore/config"
	"github.com/firelater/authcore/logger"
	"github.com/firelater/authcore/model"
	"github.com/firelater/authcore/password"
	"github.com/firelater/authcore/repository/postgres"
	"github.com/firelater/authcore/service"
	"github.com/firelater/authcore/token"
)

// Core bundles the wired managers and owns the backing connections.
type Core struct {
	Session  *service.Session
	Recovery *service.Recovery

	db    *postgres.Connection
	redis *goredis.Client
}

// New connects to postgres and redis, runs migrations, and wires the
// managers. The notifier is supplied by the host since email delivery is
// deployment specific.
func New(ctx context.Context, cfg *config.Config, notifier model.Notifier, log *logger.Logger) (*Core, error) {
	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	tenants := postgres.NewTenantRepository(db)
	users := postgres.NewUserRepository(db)
	refreshTokens := postgres.NewRefreshTokenRepository(db)
	verifications := postgres.NewVerificationTokenRepository(db)

	cache := rediscache.New(redisClient)
	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	tokens := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	source := token.NewGenerator()

	session := service.NewSession(tenants, users, refreshTokens, cache, hasher, tokens, source, log, service.SessionOptions{
		FailedAttemptLimit: cfg.Auth.FailedAttemptLimit,
		LockoutDuration:    cfg.Auth.LockoutDuration,
		RefreshTTL:         cfg.Auth.RefreshTTL,
		RefreshRetention:   cfg.Auth.RefreshRetention,
		PermissionCacheTTL: cfg.Auth.PermissionCacheTTL,
	})

	recovery := service.NewRecovery(tenants, users, verifications, refreshTokens, cache, hasher, source, notifier, log, service.RecoveryOptions{
		ResetTokenTTL:  cfg.Auth.ResetTokenTTL,
		VerifyTokenTTL: cfg.Auth.VerifyTokenTTL,
		BaseURL:        cfg.App.BaseURL,
	})

	return &Core{
		Session:  session,
		Recovery: recovery,
		db:       db,
		redis:    redisClient,
	}, nil
}

// Close releases the postgres pool and the redis client.
func (c *Core) Close() error {
	var firstErr error
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
