package transport

// Capabilities describes the features supported by a transport backend.
type Capabilities struct {
	// SupportsTransactions indicates a single Publish call is all-or-nothing:
	// either every message of the call becomes visible or none does.
	SupportsTransactions bool

	// SupportsOrdering indicates messages of one Publish call keep their order.
	SupportsOrdering bool

	// SupportsBatching indicates the transport writes a Publish call as one
	// batch rather than message by message.
	SupportsBatching bool

	// SupportsHeaders indicates message metadata is delivered as headers next
	// to the payload.
	SupportsHeaders bool

	// SupportsDurability indicates published messages survive a restart of
	// the process and of the target.
	SupportsDurability bool

	// MaxMessageSize is the maximum message size in bytes (0 = unlimited/unknown).
	MaxMessageSize int64

	// Name is the human-readable name of the transport.
	Name string
}

// AtomicPublish returns true if a failed batch leaves nothing behind.
func (c Capabilities) AtomicPublish() bool {
	return c.SupportsTransactions
}

// Predefined capability sets for the built-in transports.
var (
	// ChannelCapabilities for the in-memory Go channel transport. A subscriber
	// sees messages as they are published, so a failed batch can be partial.
	ChannelCapabilities = Capabilities{
		Name:                 "channel",
		SupportsTransactions: false,
		SupportsOrdering:     true,
		SupportsBatching:     false,
		SupportsHeaders:      true,
		SupportsDurability:   false,
	}

	// RabbitMQCapabilities for the RabbitMQ/AMQP transport publishing inside
	// an AMQP transaction.
	RabbitMQCapabilities = Capabilities{
		Name:                 "rabbitmq",
		SupportsTransactions: true,
		SupportsOrdering:     true,
		SupportsBatching:     true,
		SupportsHeaders:      true,
		SupportsDurability:   true,
		MaxMessageSize:       134217728, // RabbitMQ default max_message_size, 128MB
	}

	// PostgresCapabilities for the PostgreSQL outbox.
	PostgresCapabilities = Capabilities{
		Name:                 "postgres",
		SupportsTransactions: true,
		SupportsOrdering:     true,
		SupportsBatching:     true,
		SupportsHeaders:      true,
		SupportsDurability:   true,
	}

	// SQLiteCapabilities for the SQLite outbox.
	SQLiteCapabilities = Capabilities{
		Name:                 "sqlite",
		SupportsTransactions: true,
		SupportsOrdering:     true,
		SupportsBatching:     true,
		SupportsHeaders:      true,
		SupportsDurability:   true,
	}

	// IOCapabilities for the JSON lines file sink. Batches are appended by
	// replacing the file atomically.
	IOCapabilities = Capabilities{
		Name:                 "io",
		SupportsTransactions: true,
		SupportsOrdering:     true,
		SupportsBatching:     true,
		SupportsHeaders:      true,
		SupportsDurability:   true,
	}
)

// GetCapabilities returns the capabilities for a transport by name.
// Uses the registry to look up capabilities registered by each transport package.
// Returns a zero Capabilities struct if the transport is unknown.
func GetCapabilities(transportName string) Capabilities {
	return DefaultRegistry.GetCapabilities(transportName)
}
