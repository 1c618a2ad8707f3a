package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/educypnishi/embassydemo/internal/availability"
	"github.com/educypnishi/embassydemo/internal/config"
	"github.com/educypnishi/embassydemo/internal/redis"
	"github.com/educypnishi/embassydemo/internal/session"
)

type Infra struct {
	Slots    *availability.Store
	Sessions session.Store
	Redis    *redis.Client
}

// setupInfra opens the slot-table file and chooses the session backend:
// Redis when configured, otherwise in-memory. The slot-table watcher is
// started here so file edits made while the server runs are picked up.
func setupInfra(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Infra, error) {
	slots, err := availability.Open(cfg.DataPath, cfg.HeavyLoad, log)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := slots.Watch(ctx); err != nil {
			log.Warn().Err(err).Msg("slot table watch unavailable")
		}
	}()

	log.Info().Str("path", cfg.DataPath).Msg("slot table ready")

	infra := &Infra{
		Slots:    slots,
		Sessions: session.NewMemoryStore(),
	}

	if cfg.RedisAddr != "" {
		redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}

		infra.Redis = redisClient
		infra.Sessions = session.NewRedisStore(redisClient.Client, session.TTL)

		log.Info().Str("addr", cfg.RedisAddr).Msg("redis ready")
	}

	return infra, nil
}

func (i *Infra) Close() error {
	if i.Redis != nil {
		return i.Redis.Close()
	}
	return nil
}
