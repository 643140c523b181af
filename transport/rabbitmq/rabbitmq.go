// Package rabbitmq provides the RabbitMQ/AMQP transport for playerflow.
//
// Every Publish call runs inside an AMQP transaction: the channel is put in
// tx mode, each message is published to the exchange with an empty routing
// key, and the transaction is committed. Any failure rolls the whole call back.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/drblury/playerflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "rabbitmq"

const (
	// ContentType is set on every published message.
	ContentType = "application/json"
	// MessageIDHeader carries the message UUID. It doubles as the idempotency
	// header consumers deduplicate on.
	MessageIDHeader = "id"
	// DefaultExchangeType matches the pre-declared amq.headers exchange.
	DefaultExchangeType = amqp091.ExchangeHeaders
)

// ConnectionFactory allows overriding the connection creation for testing.
var ConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
	return amqp.NewConnection(cfg, logger)
}

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
	return amqp.NewPublisherWithConnection(cfg, logger, conn)
}

// CloseConnection allows overriding how the shared connection is released.
var CloseConnection = func(conn *amqp.ConnectionWrapper) error {
	return conn.Close()
}

func init() {
	Register()
}

// Register registers the RabbitMQ transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.RabbitMQCapabilities)
}

// Build connects to the first reachable broker of cfg.GetRabbitMQURIs(), in
// order, and returns a transactional publisher on that connection.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	uris := cfg.GetRabbitMQURIs()
	if len(uris) == 0 {
		return transport.Transport{}, errors.New("rabbitmq: no broker URI configured")
	}

	conn, uri, err := connect(ctx, uris, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	amqpConfig := NewConfig(uri, cfg.GetExchangeType(), cfg.GetDeclareExchange())
	publisher, err := PublisherFactory(amqpConfig, logger, conn)
	if err != nil {
		_ = CloseConnection(conn)
		return transport.Transport{}, fmt.Errorf("rabbitmq: create publisher: %w", err)
	}

	return transport.Transport{
		Publisher: publisher,
		OnClose:   func() error { return CloseConnection(conn) },
	}, nil
}

func connect(ctx context.Context, uris []string, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, string, error) {
	var errs []error
	for _, uri := range uris {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		conn, err := ConnectionFactory(amqp.ConnectionConfig{
			AmqpURI:   uri,
			Reconnect: amqp.DefaultReconnectConfig(),
		}, logger)
		if err == nil {
			logger.Debug("Connected to RabbitMQ", watermill.LogFields{"host": redactedHost(uri)})
			return conn, uri, nil
		}

		logger.Info("RabbitMQ host unreachable, trying next", watermill.LogFields{
			"host":  redactedHost(uri),
			"error": err.Error(),
		})
		errs = append(errs, fmt.Errorf("%s: %w", redactedHost(uri), err))
	}
	return nil, "", fmt.Errorf("rabbitmq: no reachable broker: %w", errors.Join(errs...))
}

// NewConfig returns the publisher configuration: the topic is the exchange
// name, messages go out with an empty routing key, non-mandatory, inside a
// transaction.
func NewConfig(uri, exchangeType string, declareExchange bool) amqp.Config {
	if exchangeType == "" {
		exchangeType = DefaultExchangeType
	}

	cfg := amqp.NewDurablePubSubConfig(uri, amqp.GenerateQueueNameTopicName)
	cfg.Exchange.Type = exchangeType
	cfg.Exchange.Durable = true
	cfg.Publish.Mandatory = false
	cfg.Publish.Immediate = false
	cfg.Publish.Transactional = true
	cfg.Marshaler = NewMarshaler()
	cfg.TopologyBuilder = &TopologyBuilder{Declare: declareExchange}
	return cfg
}

// NewMarshaler keeps message metadata as the only application headers. The
// message UUID travels in the "id" header and as the AMQP message-id.
func NewMarshaler() amqp.DefaultMarshaler {
	return amqp.DefaultMarshaler{
		MessageUUIDHeaderKey: MessageIDHeader,
		PostprocessPublishing: func(p amqp091.Publishing) amqp091.Publishing {
			p.ContentType = ContentType
			if id, ok := p.Headers[MessageIDHeader].(string); ok {
				p.MessageId = id
			}
			return p
		},
	}
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.RabbitMQCapabilities
}

func redactedHost(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "invalid-uri"
	}
	return u.Host
}
