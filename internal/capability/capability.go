// Package capability performs one-time feature detection of livestore
// collaborators and turns the result into an explicit descriptor.
//
// Unavailable collaborators are not errors: a Redis server that does not
// answer, or a file store whose directory cannot be created, is logged once
// and leaves the corresponding collaborator nil so containers degrade to
// memory-only persistence or single-context mode.
package capability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dyluth/livestore/internal/config"
	"github.com/dyluth/livestore/pkg/bus"
	"github.com/dyluth/livestore/pkg/livestore"
	"github.com/dyluth/livestore/pkg/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// PingTimeout bounds the Redis availability probe.
const PingTimeout = 2 * time.Second

// Modes reported for display
const (
	ModeUnavailable = "unavailable"
	ModeDisabled    = "none"
)

// Capabilities is the detected set of collaborators.
type Capabilities struct {
	Store     livestore.Store
	Transport livestore.Transport
	Codec     livestore.Codec

	StoreMode     string // Backend actually in use, or ModeUnavailable / ModeDisabled
	TransportMode string
	Scope         string // Session scope of the store

	rdb *redis.Client
}

// Options returns the livestore options installing the detected collaborators.
func (c *Capabilities) Options() []livestore.Option {
	return []livestore.Option{
		livestore.WithCapabilities(livestore.Capabilities{
			Store:     c.Store,
			Transport: c.Transport,
		}),
		livestore.WithCodec(c.Codec),
	}
}

// Close releases the Redis client, if one was opened.
// Containers created from these capabilities must be closed first.
func (c *Capabilities) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Detect probes the collaborators named by cfg.
// busOpts are passed to the transport (typically an error handler).
// It fails only on configuration errors such as an unparsable Redis URL.
func Detect(ctx context.Context, cfg *config.Config, logger zerolog.Logger, busOpts ...bus.Option) (*Capabilities, error) {
	caps := &Capabilities{
		Codec:         codecFor(cfg.Codec),
		Scope:         scopeFor(cfg),
		StoreMode:     ModeDisabled,
		TransportMode: ModeDisabled,
	}

	// Phase 1: Redis availability
	if cfg.UsesRedis() {
		rdb, err := connectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			var urlErr *urlError
			if errors.As(err, &urlErr) {
				return nil, err
			}
			logger.Warn().Err(err).Str("url", cfg.Redis.URL).Msg("redis unavailable, redis backends disabled")
		}
		caps.rdb = rdb
	}

	// Phase 2: Persistence
	switch cfg.Persistence.Backend {
	case config.BackendRedis:
		if caps.rdb == nil {
			caps.StoreMode = ModeUnavailable
			break
		}
		store, err := session.NewRedis(caps.rdb, cfg.Namespace, caps.Scope, session.WithTTL(cfg.Persistence.TTL))
		if err != nil {
			_ = caps.Close()
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		caps.Store = store
		caps.StoreMode = config.BackendRedis
	case config.BackendFile:
		if err := os.MkdirAll(filepath.Dir(cfg.Persistence.Path), 0o755); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Persistence.Path).Msg("file store unavailable, persistence disabled")
			caps.StoreMode = ModeUnavailable
			break
		}
		caps.Store = session.NewFile(cfg.Persistence.Path)
		caps.StoreMode = config.BackendFile
	case config.BackendMemory:
		caps.Store = session.NewMemory()
		caps.StoreMode = config.BackendMemory
	}

	// Phase 3: Transport
	switch cfg.Transport.Backend {
	case config.BackendRedis:
		if caps.rdb == nil {
			caps.TransportMode = ModeUnavailable
			break
		}
		transport, err := bus.NewRedis(caps.rdb, cfg.Namespace, busOpts...)
		if err != nil {
			_ = caps.Close()
			return nil, fmt.Errorf("failed to create redis transport: %w", err)
		}
		caps.Transport = transport
		caps.TransportMode = config.BackendRedis
	case config.BackendMemory:
		caps.Transport = bus.NewHub(busOpts...)
		caps.TransportMode = config.BackendMemory
	}

	logger.Debug().
		Str("store", caps.StoreMode).
		Str("transport", caps.TransportMode).
		Str("scope", caps.Scope).
		Str("codec", cfg.Codec).
		Msg("capabilities detected")

	return caps, nil
}

type urlError struct{ err error }

func (e *urlError) Error() string { return e.err.Error() }
func (e *urlError) Unwrap() error { return e.err }

// connectRedis returns a pinged client, or an error when Redis is unreachable.
// An unparsable URL is reported as *urlError.
func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, &urlError{err: fmt.Errorf("invalid redis url: %w", err)}
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis not accessible: %w", err)
	}
	return rdb, nil
}

func codecFor(name string) livestore.Codec {
	if name == config.CodecMsgpack {
		return livestore.MsgpackCodec{}
	}
	return livestore.JSONCodec{}
}

// scopeFor returns the configured session scope, defaulting to the hostname
// so a restarted process on the same machine finds its previous values.
func scopeFor(cfg *config.Config) string {
	if cfg.Persistence.Scope != "" {
		return cfg.Persistence.Scope
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "local"
	}
	return host
}
