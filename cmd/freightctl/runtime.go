package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/iota-freight/modules/freight"
	"github.com/iota-uz/iota-freight/modules/freight/services"
	"github.com/iota-uz/iota-freight/pkg/composables"
	"github.com/iota-uz/iota-freight/pkg/configuration"
	"github.com/iota-uz/iota-freight/pkg/eventbus"
	"github.com/iota-uz/iota-freight/pkg/logging"
)

// runtime holds the services of one CLI invocation.
type runtime struct {
	ctx    context.Context
	pool   *pgxpool.Pool
	redis  *redis.Client
	holds  *services.HoldService
	lanes  *services.LanePromotionService
	review *services.ReviewService
	loads  *services.LoadService
}

func connectDB(ctx context.Context, conf *configuration.Configuration) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, withCode(exitDB, errors.Wrap(err, "db connect failed"))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, withCode(exitDB, errors.Wrap(err, "db ping failed"))
	}
	return pool, nil
}

func newRuntime(ctx context.Context) (*runtime, error) {
	conf := configuration.Use()
	logger := logging.ConsoleLogger(conf.LogrusLogLevel())

	pool, err := connectDB(ctx, conf)
	if err != nil {
		return nil, err
	}
	rt := &runtime{pool: pool}

	if conf.RedisURL != "" {
		opts, err := redis.ParseURL(conf.RedisURL)
		if err != nil {
			rt.close()
			return nil, withCode(exitUsage, errors.Wrap(err, "invalid REDIS_URL"))
		}
		rt.redis = redis.NewClient(opts)
	}

	deps, err := freight.NewDependencies(&freight.ModuleOptions{
		Config:        conf.Freight,
		OutboxEnabled: conf.Outbox.Enabled,
		Redis:         rt.redis,
	}, eventbus.NewEventPublisher(logger))
	if err != nil {
		rt.close()
		return nil, withCode(exitUsage, err)
	}

	rt.holds = services.NewHoldService(deps)
	rt.lanes = services.NewLanePromotionService(deps)
	rt.review = services.NewReviewService(deps)
	rt.loads = services.NewLoadService(deps)

	ctx = composables.WithPool(ctx, pool)
	rt.ctx = composables.WithLogger(ctx, logger.WithField("component", "freightctl"))
	return rt, nil
}

func (rt *runtime) close() {
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
}
