package application

import (
	"context"
	"database/sql"
	"embed"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/iota-freight/pkg/eventbus"
)

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

// MigrationManager collects embedded goose migrations from modules.
type MigrationManager interface {
	RegisterSchema(migrations ...*embed.FS)
	Run(ctx context.Context, db *sql.DB) error
	Status(ctx context.Context, db *sql.DB) error
}

// Application with a dynamically extendable service registry.
type Application interface {
	DB() *pgxpool.Pool
	EventPublisher() eventbus.EventBus
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	Migrations() MigrationManager
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
}

type Module interface {
	Name() string
	Register(app Application) error
}
