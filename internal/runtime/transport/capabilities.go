// Package transport connects the runtime to the modular transports under
// github.com/drblury/playerflow/transport.
package transport

import (
	newtransport "github.com/drblury/playerflow/transport"
)

// Capabilities is an alias for the modular transport Capabilities.
type Capabilities = newtransport.Capabilities

// Predefined capability sets, aliased from the transport package.
var (
	ChannelCapabilities  = newtransport.ChannelCapabilities
	RabbitMQCapabilities = newtransport.RabbitMQCapabilities
	SQLiteCapabilities   = newtransport.SQLiteCapabilities
	PostgresCapabilities = newtransport.PostgresCapabilities
	IOCapabilities       = newtransport.IOCapabilities
)

// GetCapabilities returns the capabilities for a transport by name.
func GetCapabilities(transportName string) Capabilities {
	return newtransport.GetCapabilities(transportName)
}
