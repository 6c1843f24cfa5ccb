package configuration

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-freight/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the given env files from the working directory, falling back
// to the nearest directory containing go.mod when none are found there.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root, ok := findModuleRoot(); ok {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, envFiles []string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func findModuleRoot() (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		if parent := filepath.Dir(dir); parent == dir {
			return "", false
		}
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"iota_freight"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type LokiOptions struct {
	AppName string `env:"LOKI_APP_NAME" envDefault:"freight"`
	LogPath string `env:"LOG_PATH" envDefault:"./logs/app.log"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"freight"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type AuthzOptions struct {
	ModelPath      string `env:"AUTHZ_MODEL_PATH" envDefault:"config/access/model.conf"`
	PolicyPath     string `env:"AUTHZ_POLICY_PATH" envDefault:"config/access/policy.csv"`
	FlagConfigPath string `env:"AUTHZ_FLAG_CONFIG" envDefault:"config/access/authz_flags.yaml"`
	Mode           string `env:"AUTHZ_MODE" envDefault:"shadow"`

	// ObjectModes overrides Mode per object, e.g. "freight.lanes:enforce".
	ObjectModes map[string]string `env:"AUTHZ_OBJECT_MODES"`
}

type OutboxOptions struct {
	Enabled bool `env:"OUTBOX_ENABLED" envDefault:"true"`
}

type FreightOptions struct {
	OutboxTable     string        `env:"FREIGHT_OUTBOX_TABLE" envDefault:"public.freight_outbox"`
	ReviewBadgeTTL  time.Duration `env:"FREIGHT_REVIEW_BADGE_TTL" envDefault:"30s"`
	LaneTermMonths  int           `env:"FREIGHT_LANE_TERM_MONTHS" envDefault:"12"`
	DefaultCurrency string        `env:"FREIGHT_DEFAULT_CURRENCY" envDefault:"USD"`
	DefaultRateType string        `env:"FREIGHT_DEFAULT_RATE_TYPE" envDefault:"Flat Rate"`
	AuditEnabled    bool          `env:"FREIGHT_AUDIT_ENABLED" envDefault:"true"`
	RateLimit       string        `env:"FREIGHT_RATE_LIMIT" envDefault:"100-S"`
	PODMaxBytes     int64         `env:"FREIGHT_POD_MAX_BYTES" envDefault:"10485760"`
}

// Validate checks the freight engine configuration for errors
func (f *FreightOptions) Validate() error {
	if f.LaneTermMonths <= 0 {
		return fmt.Errorf("FREIGHT_LANE_TERM_MONTHS must be positive, got %d", f.LaneTermMonths)
	}
	if f.ReviewBadgeTTL < 0 {
		return fmt.Errorf("FREIGHT_REVIEW_BADGE_TTL must be non-negative, got %s", f.ReviewBadgeTTL)
	}
	if len(strings.TrimSpace(f.DefaultCurrency)) != 3 {
		return fmt.Errorf("FREIGHT_DEFAULT_CURRENCY must be an ISO 4217 code, got %q", f.DefaultCurrency)
	}
	if strings.TrimSpace(f.OutboxTable) == "" {
		return fmt.Errorf("FREIGHT_OUTBOX_TABLE is required")
	}
	if f.PODMaxBytes <= 0 {
		return fmt.Errorf("FREIGHT_POD_MAX_BYTES must be positive, got %d", f.PODMaxBytes)
	}
	return nil
}

type Configuration struct {
	Database      DatabaseOptions
	Loki          LokiOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	Authz         AuthzOptions
	Outbox        OutboxOptions
	Freight       FreightOptions

	RedisURL         string `env:"REDIS_URL" envDefault:""`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	Domain           string `env:"DOMAIN" envDefault:"localhost"`
	Origin           string `env:"ORIGIN" envDefault:"http://localhost:3200"`
	CorsOrigins      string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	// Freight API will look for this header in the request, if it's not present, it will generate a random uuidv4
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	RealIPHeader    string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`
	// Headers set by the identity gateway in front of the API.
	OrganizationHeader string `env:"ORGANIZATION_HEADER" envDefault:"X-Organization-ID"`
	ActorHeader        string `env:"ACTOR_HEADER" envDefault:"X-Actor-ID"`

	// RLS enforcement mode (disabled/enforce).
	RLSEnforce string `env:"RLS_ENFORCE" envDefault:"disabled"`

	logFile io.Closer
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) Scheme() string {
	if c.GoAppEnvironment == Production {
		return "https"
	}
	return "http"
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Freight.Validate(); err != nil {
		return fmt.Errorf("freight configuration error: %w", err)
	}
	if err := c.validateRLS(); err != nil {
		return err
	}
	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.Loki.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	if os.Getenv("ORIGIN") == "" {
		if c.GoAppEnvironment == "development" {
			c.Origin = fmt.Sprintf("%s://%s:%d", c.Scheme(), c.Domain, c.ServerPort)
		} else {
			c.Origin = fmt.Sprintf("%s://%s", c.Scheme(), c.Domain)
		}
	}

	return nil
}

func (c *Configuration) validateRLS() error {
	mode := strings.ToLower(strings.TrimSpace(c.RLSEnforce))
	if mode == "" {
		mode = "disabled"
	}
	switch mode {
	case "disabled", "enforce":
	default:
		return fmt.Errorf("invalid RLS_ENFORCE=%q (expected disabled|enforce)", c.RLSEnforce)
	}

	if mode == "enforce" && strings.EqualFold(strings.TrimSpace(c.Database.User), "postgres") {
		return fmt.Errorf("RLS_ENFORCE=enforce requires a non-superuser DB_USER (postgres will bypass RLS)")
	}

	c.RLSEnforce = mode
	return nil
}

// CorsAllowedOrigins splits CORS_ORIGINS on commas and whitespace.
func (c *Configuration) CorsAllowedOrigins() []string {
	return strings.FieldsFunc(c.CorsOrigins, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
