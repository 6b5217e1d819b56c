package config

import (
	"context"
)

// Loader provides configuration loading capabilities. It abstracts the source
// of configuration so file and environment sources can be layered.
type Loader interface {
	// Load retrieves and parses the configuration from the underlying source.
	// It returns the parsed configuration or an error if loading fails.
	Load(ctx context.Context) (*Config, error)
}

// DefaultLoader returns Default() and never fails. It terminates a chain of
// layered loaders.
type DefaultLoader struct{}

// Load returns the default configuration.
func (DefaultLoader) Load(context.Context) (*Config, error) { return Default(), nil }
