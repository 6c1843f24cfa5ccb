package outbox

import (
	"fmt"

	"github.com/iota-uz/iota-freight/pkg/serrors"
)

var (
	// ErrInvalidConfig covers table names and other wiring mistakes.
	ErrInvalidConfig = serrors.NewError("OUTBOX_INVALID_CONFIG", "invalid outbox configuration", "")
	// ErrInvalidMessage covers messages missing their tenant, topic or event id.
	ErrInvalidMessage = serrors.NewError("OUTBOX_INVALID_MESSAGE", "invalid outbox message", "")
)

func invalidConfig(msg string, args ...any) error {
	return fmt.Errorf("%w: "+msg, append([]any{ErrInvalidConfig}, args...)...)
}

func invalidMessage(field, topic string) error {
	return ErrInvalidMessage.WithTemplateData(map[string]string{"field": field, "topic": topic})
}
