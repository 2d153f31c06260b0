package app

import (
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/earthnet/frame-survey/internal/clients/chain"
	"github.com/earthnet/frame-survey/internal/clients/neynar"
	"github.com/earthnet/frame-survey/internal/clients/pinata"
	"github.com/earthnet/frame-survey/internal/clients/redis"
	"github.com/earthnet/frame-survey/internal/platform/logger"
	"github.com/earthnet/frame-survey/internal/temporalx"
)

type Clients struct {
	Neynar neynar.Client
	Pinata pinata.Client
	Chain  chain.Client
	// Cache is nil when REDIS_ADDR is unset.
	Cache redis.BlobCache
	// Temporal is nil when TEMPORAL_ADDRESS is unset.
	Temporal temporalsdkclient.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	hub, err := neynar.New(log, cfg.Neynar)
	if err != nil {
		return Clients{}, fmt.Errorf("init neynar client: %w", err)
	}
	pin, err := pinata.New(log, cfg.Pinata)
	if err != nil {
		return Clients{}, fmt.Errorf("init pinata client: %w", err)
	}
	relay, err := chain.New(log, cfg.Chain)
	if err != nil {
		return Clients{}, fmt.Errorf("init chain relay client: %w", err)
	}

	out := Clients{Neynar: hub, Pinata: pin, Chain: relay}

	if cfg.Redis.Addr != "" {
		cache, err := redis.NewBlobCache(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis cache: %w", err)
		}
		out.Cache = cache
	}

	tc, err := temporalx.NewClient(log, cfg.Temporal)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init temporal client: %w", err)
	}
	out.Temporal = tc

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
}
