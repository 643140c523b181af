// Package postgres provides a PostgreSQL outbox transport for playerflow.
// Events are inserted into <schema>.outbox_events inside one transaction per
// batch; a separate relay forwards them to the broker.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/drblury/playerflow/transport"
	"github.com/drblury/playerflow/transport/outbox"
)

// TransportName is the name used to register this transport.
const TransportName = "postgres"

// Dialect is the PostgreSQL flavour of the outbox SQL.
var Dialect = outbox.Dialect{
	Name: TransportName,
	Table: func(schema string) string {
		return schema + ".outbox_events"
	},
	Schema: func(schema string) []string {
		// #nosec G201 - schema name is validated by outbox.New
		return []string{
			fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.outbox_events (
		id BIGSERIAL PRIMARY KEY,
		uuid TEXT NOT NULL UNIQUE,
		topic TEXT NOT NULL,
		payload BYTEA NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, schema),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_outbox_events_topic ON %s.outbox_events(topic, id)`, schema),
		}
	},
	Insert: func(table string) string {
		return fmt.Sprintf(`INSERT INTO %s (uuid, topic, payload, metadata) VALUES ($1, $2, $3, $4)`, table)
	},
	Select: func(table string) string {
		return fmt.Sprintf(`SELECT uuid, payload, metadata FROM %s WHERE topic = $1 ORDER BY id`, table)
	},
}

// OpenDB allows overriding how the database handle is created for testing.
var OpenDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

func init() {
	Register()
}

// Register registers the PostgreSQL transport and its "postgresql" alias
// with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.PostgresCapabilities)
	transport.RegisterWithCapabilities("postgresql", Build, transport.PostgresCapabilities)
}

// Config holds PostgreSQL-specific configuration.
type Config struct {
	// ConnectionString is the PostgreSQL connection string.
	ConnectionString string
	// SchemaName is the schema holding the outbox table. Defaults to "playerflow".
	SchemaName string
	// MaxOpenConns sets the maximum number of open connections to the database.
	MaxOpenConns int
	// MaxIdleConns sets the maximum number of idle connections.
	MaxIdleConns int
}

func (c Config) withDefaults() Config {
	if c.SchemaName == "" {
		c.SchemaName = outbox.DefaultSchema
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 4
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 2
	}
	return c
}

// Build creates a PostgreSQL outbox transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	pub, err := New(ctx, Config{
		ConnectionString: cfg.GetPostgresURL(),
		SchemaName:       cfg.GetOutboxSchema(),
	}, logger)
	if err != nil {
		return transport.Transport{}, err
	}
	return transport.Transport{Publisher: pub}, nil
}

// New connects to PostgreSQL and prepares the outbox table.
func New(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (*outbox.Publisher, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("PostgreSQL connection string is required")
	}
	cfg = cfg.withDefaults()

	db, err := OpenDB(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	pub, err := outbox.New(ctx, db, Dialect, cfg.SchemaName, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return pub, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.PostgresCapabilities
}
