package transport

import (
	"betstream/domain/event"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateEvent checks a tagged event variant at the transport boundary.
// Components downstream can rely on well-formed payloads and never
// re-validate.
func validateEvent(e event.ChannelEvent) error {
	if e == nil {
		return fmt.Errorf("nil event")
	}
	if e.Channel() == "" {
		return fmt.Errorf("event without channel: %T", e)
	}
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid %T: %w", e, err)
	}
	return nil
}
