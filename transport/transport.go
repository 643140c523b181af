// Package transport defines the core types for playerflow transports.
// Each transport implementation (rabbitmq, postgres, sqlite, io, channel) lives
// in its own sub-package and registers itself with the transport registry.
package transport

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport is what a builder hands to the pipeline. Subscriber is optional;
// publish-only sinks leave it nil.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber

	// OnClose releases resources the publisher does not own, such as a shared
	// broker connection. It runs after the publisher and subscriber are closed.
	OnClose func() error
}

// Close closes every part of the transport and joins their errors.
func (t Transport) Close() error {
	var errs []error
	if t.Publisher != nil {
		errs = append(errs, t.Publisher.Close())
	}
	if t.Subscriber != nil {
		errs = append(errs, t.Subscriber.Close())
	}
	if t.OnClose != nil {
		errs = append(errs, t.OnClose())
	}
	return errors.Join(errs...)
}

// Builder is the function signature for creating a transport from config.
// Each transport package provides a Builder that it registers on import.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config provides the configuration values needed by transports.
// This interface allows transports to access only the config they need
// without depending on the full config package.
type Config interface {
	// GetPubSubSystem returns the transport type name.
	GetPubSubSystem() string

	// RabbitMQ. URIs are tried in order until one connects.
	GetRabbitMQURIs() []string
	GetExchangeType() string
	GetDeclareExchange() bool

	// IO
	GetIOFile() string

	// SQLite
	GetSQLiteFile() string

	// PostgreSQL
	GetPostgresURL() string

	// GetOutboxSchema names the schema (postgres) or table prefix (sqlite) of
	// the outbox table.
	GetOutboxSchema() string
}

// CapabilitiesProvider is implemented by transports that can report their capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
