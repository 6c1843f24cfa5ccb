package modules

import (
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/iota-freight/modules/freight"
	"github.com/iota-uz/iota-freight/pkg/application"
	"github.com/iota-uz/iota-freight/pkg/configuration"
)

// BuiltInModules returns the modules served by the API binary.
func BuiltInModules(conf *configuration.Configuration, redisClient *redis.Client, rateLimit mux.MiddlewareFunc) []application.Module {
	return []application.Module{
		freight.NewModule(&freight.ModuleOptions{
			Config:             conf.Freight,
			OutboxEnabled:      conf.Outbox.Enabled,
			OrganizationHeader: conf.OrganizationHeader,
			ActorHeader:        conf.ActorHeader,
			Redis:              redisClient,
			RateLimit:          rateLimit,
		}),
	}
}
