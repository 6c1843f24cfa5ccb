package freight

import (
	"embed"
	"fmt"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/iota-freight/modules/freight/infrastructure/cache"
	"github.com/iota-uz/iota-freight/modules/freight/infrastructure/persistence"
	"github.com/iota-uz/iota-freight/modules/freight/presentation/controllers"
	"github.com/iota-uz/iota-freight/modules/freight/services"
	"github.com/iota-uz/iota-freight/pkg/application"
	"github.com/iota-uz/iota-freight/pkg/configuration"
	"github.com/iota-uz/iota-freight/pkg/eventbus"
	"github.com/iota-uz/iota-freight/pkg/outbox"
)

//go:embed infrastructure/persistence/migrations/*.sql
var MigrationFiles embed.FS

type ModuleOptions struct {
	Config             configuration.FreightOptions
	OutboxEnabled      bool
	OrganizationHeader string
	ActorHeader        string
	// Redis backs the review badge cache; nil disables caching.
	Redis     *redis.Client
	RateLimit mux.MiddlewareFunc
}

func NewModule(opts *ModuleOptions) application.Module {
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	deps, err := NewDependencies(m.options, app.EventPublisher())
	if err != nil {
		return err
	}

	app.Migrations().RegisterSchema(&MigrationFiles)
	app.RegisterServices(
		services.NewHoldService(deps),
		services.NewLanePromotionService(deps),
		services.NewReviewService(deps),
		services.NewLoadService(deps),
	)
	app.RegisterControllers(
		controllers.NewFreightAPIController(app, controllers.APIOptions{
			OrganizationHeader: m.options.OrganizationHeader,
			ActorHeader:        m.options.ActorHeader,
			PODMaxBytes:        m.options.Config.PODMaxBytes,
			RateLimit:          m.options.RateLimit,
		}),
	)
	return nil
}

func (m *Module) Name() string {
	return "freight"
}

// NewDependencies wires the postgres repositories and side channels the
// freight services share. The CLI uses it directly, without an Application.
func NewDependencies(opts *ModuleOptions, bus eventbus.EventBus) (services.Dependencies, error) {
	if opts == nil {
		return services.Dependencies{}, fmt.Errorf("freight: module options are required")
	}
	cfg := opts.Config

	deps := services.Dependencies{
		Loads:       persistence.NewLoadRepository(),
		Payables:    persistence.NewPayableRepository(),
		Settlements: persistence.NewSettlementRepository(),
		Lanes:       persistence.NewContractLaneRepository(),
		Customers:   persistence.NewCustomerRepository(),
		Memberships: persistence.NewMembershipRepository(),
		Audit:       persistence.NewAuditRepository(),
		Documents:   persistence.NewPODDocumentRepository(),
		EventBus:    bus,
		Options: services.Options{
			AuditEnabled:    cfg.AuditEnabled,
			LaneTermMonths:  cfg.LaneTermMonths,
			DefaultCurrency: cfg.DefaultCurrency,
			DefaultRateType: cfg.DefaultRateType,
			PODMaxBytes:     cfg.PODMaxBytes,
		},
	}

	if opts.OutboxEnabled {
		table, err := outbox.ParseIdentifier(cfg.OutboxTable)
		if err != nil {
			return services.Dependencies{}, fmt.Errorf("freight: outbox table: %w", err)
		}
		deps.Outbox = outbox.NewPublisher()
		deps.Options.OutboxTable = table
	}
	if opts.Redis != nil {
		deps.ReviewCache = cache.NewReviewBadgeCache(opts.Redis, cfg.ReviewBadgeTTL)
	}
	return deps, nil
}
