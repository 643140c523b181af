package rabbitmq

import (
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	amqp091 "github.com/rabbitmq/amqp091-go"
)

// ExchangeChannel is the part of an AMQP channel the topology builder uses.
type ExchangeChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	ExchangeDeclarePassive(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
}

// TopologyBuilder only touches the exchange. By default it checks that the
// exchange exists with a passive declare, which also works for the reserved
// amq.* exchanges; with Declare set it creates the exchange if missing.
type TopologyBuilder struct {
	amqp.DefaultTopologyBuilder
	Declare bool
}

func (b *TopologyBuilder) ExchangeDeclare(channel *amqp091.Channel, exchangeName string, config amqp.Config) error {
	return b.declare(channel, exchangeName, config.Exchange)
}

func (b *TopologyBuilder) declare(channel ExchangeChannel, exchangeName string, exchange amqp.ExchangeConfig) error {
	if b.Declare {
		return channel.ExchangeDeclare(
			exchangeName,
			exchange.Type,
			exchange.Durable,
			exchange.AutoDeleted,
			exchange.Internal,
			exchange.NoWait,
			exchange.Arguments,
		)
	}
	return channel.ExchangeDeclarePassive(
		exchangeName,
		exchange.Type,
		exchange.Durable,
		exchange.AutoDeleted,
		exchange.Internal,
		exchange.NoWait,
		exchange.Arguments,
	)
}
