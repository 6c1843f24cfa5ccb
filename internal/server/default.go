package server

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/iota-uz/iota-freight/pkg/application"
	"github.com/iota-uz/iota-freight/pkg/configuration"
	"github.com/iota-uz/iota-freight/pkg/constants"
	"github.com/iota-uz/iota-freight/pkg/middleware"
	"github.com/iota-uz/iota-freight/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default installs the shared middleware stack and returns the HTTP server
// for every registered controller.
func Default(options *DefaultOptions) *server.HTTPServer {
	conf := options.Configuration
	app := options.Application

	app.RegisterMiddleware(
		middleware.WithLogger(options.Logger, middleware.LoggerOptions{
			RequestIDHeader: conf.RequestIDHeader,
			RealIPHeader:    conf.RealIPHeader,
		}),

		middleware.TracedMiddleware("database"),
		middleware.Provide(constants.AppKey, app),
		middleware.Provide(constants.PoolKey, options.Pool),

		middleware.TracedMiddleware("cors"),
		middleware.Cors(conf.CorsAllowedOrigins()...),
	)
	return server.NewHTTPServer(app)
}

// RateLimiter builds the API rate limit middleware. A redis store is used
// when a client is given, falling back to memory if it cannot be created.
func RateLimiter(logger *logrus.Logger, rate string, client *redis.Client) (mux.MiddlewareFunc, error) {
	var store limiter.Store
	if client != nil {
		var err error
		store, err = middleware.NewRedisStore(client)
		if err != nil {
			logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
			store = nil
		}
	}
	if store == nil {
		store = middleware.NewMemoryStore()
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		Rate:  rate,
		Store: store,
	})
}
