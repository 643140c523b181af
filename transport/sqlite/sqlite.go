// Package sqlite provides a SQLite outbox transport for playerflow, backed by
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/drblury/playerflow/transport"
	"github.com/drblury/playerflow/transport/outbox"
)

// TransportName is the name used to register this transport.
const TransportName = "sqlite"

// DefaultFilePath is used when no database file is configured.
const DefaultFilePath = "playerflow.db"

// Dialect is the SQLite flavour of the outbox SQL. SQLite has no schemas, so
// the schema name becomes a table prefix.
var Dialect = outbox.Dialect{
	Name: TransportName,
	Table: func(schema string) string {
		return schema + "_outbox_events"
	},
	Schema: func(schema string) []string {
		table := schema + "_outbox_events"
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT NOT NULL UNIQUE,
		topic TEXT NOT NULL,
		payload BLOB NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_topic ON %[1]s(topic, id)`, table),
		}
	},
	Insert: func(table string) string {
		return fmt.Sprintf(`INSERT INTO %s (uuid, topic, payload, metadata) VALUES (?, ?, ?, ?)`, table)
	},
	Select: func(table string) string {
		return fmt.Sprintf(`SELECT uuid, payload, metadata FROM %s WHERE topic = ? ORDER BY id`, table)
	},
}

func init() {
	Register()
}

// Register registers the SQLite transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.SQLiteCapabilities)
}

// Config holds SQLite-specific configuration.
type Config struct {
	// FilePath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database (useful for testing).
	FilePath string
	// TablePrefix prefixes the outbox table name. Defaults to "playerflow".
	TablePrefix string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.FilePath) == "" {
		c.FilePath = DefaultFilePath
	}
	if c.TablePrefix == "" {
		c.TablePrefix = outbox.DefaultSchema
	}
	return c
}

// Build creates a SQLite outbox transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	pub, err := New(ctx, Config{
		FilePath:    cfg.GetSQLiteFile(),
		TablePrefix: cfg.GetOutboxSchema(),
	}, logger)
	if err != nil {
		return transport.Transport{}, err
	}
	return transport.Transport{Publisher: pub}, nil
}

// New opens the database file and prepares the outbox table.
func New(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (*outbox.Publisher, error) {
	cfg = cfg.withDefaults()

	dsn := cfg.FilePath
	if dsn != ":memory:" {
		dsn = filepath.Clean(dsn)
	}
	dsn += "?_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	pub, err := outbox.New(ctx, db, Dialect, cfg.TablePrefix, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return pub, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.SQLiteCapabilities
}
