package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/livestore/internal/capability"
	"github.com/dyluth/livestore/internal/config"
	"github.com/dyluth/livestore/internal/printer"
	"github.com/dyluth/livestore/internal/watch"
	"github.com/dyluth/livestore/pkg/bus"
	"github.com/dyluth/livestore/pkg/livestore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// settlePoll is how often a settling container is checked for a peer answer
const settlePoll = 10 * time.Millisecond

// liveValue is an open container plus the capabilities backing it
type liveValue struct {
	*livestore.Container[any]
	caps   *capability.Capabilities
	logger zerolog.Logger
}

func (v *liveValue) Close() {
	if err := v.Container.Close(); err != nil {
		v.logger.Warn().Err(err).Str("id", v.ID()).Msg("failed to close channel")
	}
	if err := v.caps.Close(); err != nil {
		v.logger.Warn().Err(err).Msg("failed to close redis client")
	}
}

// loadConfig resolves configuration: file (or defaults), then environment, then flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"Invalid configuration",
			err.Error(),
			map[string]string{"Config": configPath},
			[]string{"Fix the file, or point --config at a different one"},
		)
	}

	cfg.ApplyEnv()
	if redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if namespace != "" {
		cfg.Namespace = namespace
	}
	if scope != "" {
		cfg.Persistence.Scope = scope
	}

	if err := cfg.Validate(); err != nil {
		return nil, printer.Error("Invalid configuration", err.Error(), nil)
	}
	return cfg, nil
}

// openValue detects capabilities and opens the container for id.
// It then waits up to --settle for a peer to answer when nothing was persisted.
func openValue(ctx context.Context, id string, initial any) (*liveValue, error) {
	if id == "" {
		return nil, printer.Error("Value id is required", "The id cannot be empty.", nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// Transport goroutines log through this copy, never the global logger.
	logger := log.Logger
	caps, err := capability.Detect(ctx, cfg, logger, bus.WithErrorHandler(func(err error) {
		logger.Warn().Err(err).Str("id", id).Msg("message handling failed")
	}))
	if err != nil {
		return nil, printer.ErrorWithContext(
			"Cannot connect to Redis",
			err.Error(),
			map[string]string{"URL": cfg.Redis.URL},
			[]string{"Check --redis-url or " + config.EnvRedisURL},
		)
	}

	if caps.StoreMode == capability.ModeUnavailable || caps.TransportMode == capability.ModeUnavailable {
		printer.Warning("running degraded (store: %s, transport: %s)\n", caps.StoreMode, caps.TransportMode)
	}

	container, err := livestore.New(ctx, id, initial, caps.Options()...)
	if err != nil {
		_ = caps.Close()
		if livestore.IsSerializationError(err) {
			return nil, printer.Error(
				fmt.Sprintf("Stored value for %q is unreadable", id),
				err.Error(),
				[]string{"Overwrite it with 'livestore set'", "Check that every peer uses the same codec"},
			)
		}
		return nil, printer.Error(fmt.Sprintf("Failed to open %q", id), err.Error(), nil)
	}

	v := &liveValue{Container: container, caps: caps, logger: logger}
	if err := v.settle(ctx); err != nil {
		v.Close()
		return nil, err
	}

	logger.Debug().Str("id", id).Str("origin", container.Origin().String()).Msg("value opened")
	return v, nil
}

// settle gives peers a chance to answer HYDRATE before the value is used.
// Without an answer the initial value stands.
func (v *liveValue) settle(ctx context.Context) error {
	if v.caps.Transport == nil || settle <= 0 {
		return nil
	}

	err := watch.Until(ctx, settlePoll, settle, func() bool {
		return v.Origin() != livestore.OriginInitial
	})
	if errors.Is(err, watch.ErrTimeout) {
		return nil
	}
	return err
}
