package otelhandlers

import (
	"github.com/observekit/observation-go/observation"
)

// handlerConfig holds the settings shared by all handlers in this package.
type handlerConfig struct {
	supports func(c *observation.Context) bool
}

// HandlerOption defines a functional option for configuring a handler.
type HandlerOption func(*handlerConfig)

// WithSupportsContext restricts a handler to contexts matched by the given
// predicate. The predicate must be pure and cheap; it is evaluated once per
// observation, at start. By default every context is supported.
func WithSupportsContext(predicate func(c *observation.Context) bool) HandlerOption {
	return func(cfg *handlerConfig) {
		if predicate != nil {
			cfg.supports = predicate
		}
	}
}

func buildHandlerConfig(opts ...HandlerOption) handlerConfig {
	cfg := handlerConfig{
		supports: func(*observation.Context) bool { return true },
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}
