package cli

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/aretw0/reel/internal/config"
	"github.com/aretw0/reel/pkg/adapters/file"
	"github.com/aretw0/reel/pkg/adapters/memory"
	"github.com/aretw0/reel/pkg/adapters/redis"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/persistence/middleware"
	"github.com/aretw0/reel/pkg/ports"
	"github.com/aretw0/reel/pkg/session"
)

// NewSessions builds the session manager of the configured backend. Redis
// sessions are also guarded by a distributed lock so that several servers
// can share them.
func NewSessions(s *config.Settings, c *Components) (*session.Manager, io.Closer, error) {
	opts := []session.Option{session.WithLogger(c.Logger)}
	var store ports.StateStore
	var closer io.Closer = nopCloser{}

	switch s.Sessions.Backend {
	case "memory":
		store = memory.NewStore()
	case "file":
		store = file.New(s.Sessions.Path)
	case "redis":
		rs := redis.New(s.Redis.Addr, s.Redis.Password, s.Redis.DB,
			redis.WithPrefix(s.Redis.Prefix),
			redis.WithTTL(s.Redis.TTL),
		)
		store, closer = rs, rs
		opts = append(opts, session.WithLocker(redis.NewLocker(rs.Client(), s.Redis.Prefix)))
	default:
		return nil, nil, fmt.Errorf("%w: sessions backend %q", domain.ErrUnsupportedSource, s.Sessions.Backend)
	}

	mws, err := storeMiddleware(s.Sessions)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	store = middleware.Chain(store, mws...)

	c.Logger.Debug("session store ready", "backend", s.Sessions.Backend,
		"encrypted", s.Sessions.Key != "", "redact", len(s.Sessions.Redact))
	return session.NewManager(store, opts...), closer, nil
}

// storeMiddleware masks before it encrypts.
func storeMiddleware(cfg config.Sessions) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.Key == "" {
		return mws, nil
	}
	enc := middleware.EncryptionConfig{}
	var err error
	if enc.ActiveKey, err = hex.DecodeString(cfg.Key); err != nil {
		return nil, fmt.Errorf("invalid session key: %w", err)
	}
	for _, k := range cfg.FallbackKeys {
		key, err := hex.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("invalid fallback session key: %w", err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	sealer, err := middleware.NewEncryptionMiddleware(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to configure session encryption: %w", err)
	}
	return append(mws, sealer), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
