package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/shindan/pkg/adapters/memory"
	"github.com/aretw0/shindan/pkg/adapters/redis"
	"github.com/aretw0/shindan/pkg/persistence/middleware"
	"github.com/aretw0/shindan/pkg/ports"
	"github.com/aretw0/shindan/pkg/session"
)

// EnvSessionKey supplies the session encryption key when no flag is given.
const EnvSessionKey = "SHINDAN_SESSION_KEY"

// SessionOptions selects the session backend of the server surfaces.
type SessionOptions struct {
	// RedisAddr enables the Redis store and distributed locker when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// TTL expires idle Redis sessions. Zero keeps them forever.
	TTL time.Duration

	// EncryptionKey seals stored sessions with AES-256-GCM when set (hex, 32 bytes).
	EncryptionKey string
	// FallbackKeys open sessions sealed before a key rotation.
	FallbackKeys []string
}

func (o SessionOptions) middlewares() ([]middleware.Middleware, error) {
	if o.EncryptionKey == "" {
		if len(o.FallbackKeys) > 0 {
			return nil, fmt.Errorf("fallback session keys need an active key")
		}
		return nil, nil
	}

	active, err := middleware.ParseKey(o.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid session key: %w", err)
	}
	cfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, s := range o.FallbackKeys {
		k, err := middleware.ParseKey(s)
		if err != nil {
			return nil, fmt.Errorf("invalid fallback session key %d: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, k)
	}

	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		return nil, err
	}
	return []middleware.Middleware{mw}, nil
}

// NewSessionManager builds a session manager for nav. The returned func releases the backend.
func NewSessionManager(ctx context.Context, nav session.Navigator, opts SessionOptions, logger *slog.Logger) (*session.Manager, func() error, error) {
	mws, err := opts.middlewares()
	if err != nil {
		return nil, nil, err
	}
	if len(mws) > 0 {
		logger.Info("session encryption enabled", "fallback_keys", len(opts.FallbackKeys))
	}

	if opts.RedisAddr == "" {
		logger.Info("using in-memory session store")
		var store ports.SessionStore = memory.NewStore()
		mgr := session.NewManager(nav, middleware.Chain(store, mws...), session.WithLogger(logger))
		return mgr, func() error { return nil }, nil
	}

	store := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, redis.WithTTL(opts.TTL))
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.RedisAddr, err)
	}
	logger.Info("using redis session store", "addr", opts.RedisAddr, "ttl", opts.TTL)

	mgr := session.NewManager(nav, middleware.Chain(store, mws...),
		session.WithLogger(logger),
		session.WithLocker(redis.NewLocker(store.Client(), redis.DefaultPrefix)),
	)
	return mgr, store.Close, nil
}
