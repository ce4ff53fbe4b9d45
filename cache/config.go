package cache

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/memocache/observe"
)

// DefaultCapacity is the capacity used by DefaultConfig.
const DefaultCapacity = 128

// Config configures a Cache.
type Config struct {
	// Name identifies the cache in logs, spans and health checks.
	// Default: "default"
	Name string

	// Capacity is the maximum number of live entries. Must be positive.
	Capacity int
}

// DefaultConfig returns the default cache configuration.
// Name: "default", Capacity: 128
func DefaultConfig() Config {
	return Config{
		Name:     "default",
		Capacity: DefaultCapacity,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, c.Capacity)
	}
	if strings.ContainsAny(c.Name, "\n\r") {
		return fmt.Errorf("cache: name must not contain newlines: %q", c.Name)
	}
	return nil
}

// Option configures optional Cache collaborators.
type Option func(*options)

type options struct {
	logger     observe.Logger
	middleware *observe.Middleware
}

// WithLogger sets the logger used for eviction and transaction events.
// A nil logger disables logging.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMiddleware instruments every compute function invocation with the
// given tracing, metrics and logging middleware.
func WithMiddleware(m *observe.Middleware) Option {
	return func(o *options) {
		o.middleware = m
	}
}
