package composables

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-freight/pkg/constants"
)

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the request logger, or nil when none is attached.
func UseLogger(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return nil
	}
	switch typed := ctx.Value(constants.LoggerKey).(type) {
	case *logrus.Entry:
		return typed
	case *logrus.Logger:
		return logrus.NewEntry(typed)
	default:
		return nil
	}
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, constants.RequestKey, requestID)
}

func UseRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(constants.RequestKey).(string)
	return requestID
}
