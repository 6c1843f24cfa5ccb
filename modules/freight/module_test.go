package freight

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-freight/modules/freight/services"
	"github.com/iota-uz/iota-freight/pkg/application"
	"github.com/iota-uz/iota-freight/pkg/configuration"
)

func testOptions() *ModuleOptions {
	return &ModuleOptions{
		Config: configuration.FreightOptions{
			OutboxTable:     "public.freight_outbox",
			ReviewBadgeTTL:  30 * time.Second,
			LaneTermMonths:  12,
			DefaultCurrency: "USD",
			DefaultRateType: "Flat Rate",
			AuditEnabled:    true,
			PODMaxBytes:     1 << 20,
		},
		OutboxEnabled: true,
	}
}

func TestNewDependencies_OutboxAndCache(t *testing.T) {
	deps, err := NewDependencies(testOptions(), nil)
	require.NoError(t, err)
	require.NotNil(t, deps.Outbox)
	require.Equal(t, pgx.Identifier{"public", "freight_outbox"}, deps.Options.OutboxTable)
	require.Nil(t, deps.ReviewCache)
	require.True(t, deps.Options.AuditEnabled)

	opts := testOptions()
	opts.OutboxEnabled = false
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })
	opts.Redis = client
	deps, err = NewDependencies(opts, nil)
	require.NoError(t, err)
	require.Nil(t, deps.Outbox)
	require.Nil(t, deps.Options.OutboxTable)
	require.NotNil(t, deps.ReviewCache)
}

func TestNewDependencies_RejectsBadOutboxTable(t *testing.T) {
	opts := testOptions()
	opts.Config.OutboxTable = "public.freight-outbox"

	_, err := NewDependencies(opts, nil)
	require.Error(t, err)

	_, err = NewDependencies(nil, nil)
	require.Error(t, err)
}

func TestModule_RegistersServicesAndController(t *testing.T) {
	app := application.New(&application.ApplicationOptions{Logger: logrus.New()})

	require.NoError(t, application.Load(app, NewModule(testOptions())))

	require.IsType(t, &services.HoldService{}, app.Service(services.HoldService{}))
	require.IsType(t, &services.LanePromotionService{}, app.Service(services.LanePromotionService{}))
	require.IsType(t, &services.ReviewService{}, app.Service(services.ReviewService{}))
	require.IsType(t, &services.LoadService{}, app.Service(services.LoadService{}))

	controllers := app.Controllers()
	require.Len(t, controllers, 1)
	require.Equal(t, "/freight/api", controllers[0].Key())
}
