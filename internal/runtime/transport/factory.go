package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/drblury/playerflow/internal/runtime/config"
	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
	newtransport "github.com/drblury/playerflow/transport"

	// Import all transport packages to register them.
	_ "github.com/drblury/playerflow/transport/transports"
)

// Transport is the publisher (and optional subscriber) of one run.
type Transport = newtransport.Transport

// Factory abstracts how playerflow opens the transport of a run.
type Factory interface {
	Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error)
	// Capabilities reports what the named transport declares and whether it
	// is known at all.
	Capabilities(name string) (Capabilities, bool)
}

// DefaultFactory returns the built-in transport factory that uses the
// modular transport registry.
func DefaultFactory() Factory {
	return registryFactory{registry: newtransport.DefaultRegistry}
}

// RegistryFactory returns a factory backed by the given registry.
func RegistryFactory(registry *newtransport.Registry) Factory {
	return registryFactory{registry: registry}
}

type registryFactory struct {
	registry *newtransport.Registry
}

func (f registryFactory) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	if conf == nil {
		return Transport{}, errspkg.ErrConfigRequired
	}
	return f.registry.Build(ctx, conf, logger)
}

func (f registryFactory) Capabilities(name string) (Capabilities, bool) {
	return f.registry.GetCapabilities(name), f.registry.Has(name)
}
