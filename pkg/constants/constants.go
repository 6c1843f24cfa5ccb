package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	TxKey       ContextKey = "tx"
	PoolKey     ContextKey = "pool"
	LoggerKey   ContextKey = "logger"
	TenantIDKey ContextKey = "tenant_id"
	RequestKey  ContextKey = "request_id"
	AppKey      ContextKey = "app"
)

// Validate is the shared struct validator used by DTOs.
var Validate = validator.New(validator.WithRequiredStructEnabled())
