// Package outbox implements a transactional outbox publisher on database/sql.
// Every Publish call inserts its messages inside one SQL transaction, so a
// relay reading the table sees either the whole batch or nothing.
package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/playerflow/internal/runtime/jsoncodec"
)

// DefaultSchema is used when no schema name is configured.
const DefaultSchema = "playerflow"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect holds the SQL that differs between databases.
type Dialect struct {
	Name string
	// Table returns the qualified outbox table name for a schema.
	Table func(schema string) string
	// Schema returns the DDL statements creating the outbox table.
	Schema func(schema string) []string
	// Insert returns the insert statement taking uuid, topic, payload and
	// metadata, in that order.
	Insert func(table string) string
	// Select returns the query listing uuid, payload and metadata of one
	// topic in insertion order.
	Select func(table string) string
}

// Stored is one row of the outbox.
type Stored struct {
	UUID     string
	Topic    string
	Payload  []byte
	Metadata message.Metadata
}

// Publisher writes messages to the outbox table.
type Publisher struct {
	db      *sql.DB
	dialect Dialect
	table   string
	logger  watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// New prepares the outbox table in schema and returns a publisher that owns
// db and closes it on Close.
func New(ctx context.Context, db *sql.DB, dialect Dialect, schema string, logger watermill.LoggerAdapter) (*Publisher, error) {
	if db == nil {
		return nil, errors.New("outbox: database is required")
	}
	if schema == "" {
		schema = DefaultSchema
	}
	if !identifierPattern.MatchString(schema) {
		return nil, fmt.Errorf("outbox: invalid schema name %q", schema)
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	p := &Publisher{
		db:      db,
		dialect: dialect,
		table:   dialect.Table(schema),
		logger:  logger,
	}
	for _, stmt := range dialect.Schema(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("outbox: initialize %s schema: %w", dialect.Name, err)
		}
	}
	return p, nil
}

// Table returns the qualified table name the publisher writes to.
func (p *Publisher) Table() string {
	return p.table
}

// Publish inserts messages in order inside a single transaction. The context
// of the first message bounds the transaction.
func (p *Publisher) Publish(topic string, messages ...*message.Message) (err error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.New("outbox: publisher is closed")
	}
	if len(messages) == 0 {
		return nil
	}

	ctx := messages[0].Context()
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("outbox: begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			p.logger.Error("Failed to roll back outbox transaction", rbErr, nil)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, p.dialect.Insert(p.table))
	if err != nil {
		return fmt.Errorf("outbox: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, msg := range messages {
		metadata, err := jsoncodec.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("outbox: encode metadata of %s: %w", msg.UUID, err)
		}
		if _, err := stmt.ExecContext(ctx, msg.UUID, topic, msg.Payload, string(metadata)); err != nil {
			return fmt.Errorf("outbox: insert %s: %w", msg.UUID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("outbox: commit: %w", err)
	}
	p.logger.Debug("Outbox batch committed", watermill.LogFields{
		"table":    p.table,
		"topic":    topic,
		"messages": len(messages),
	})
	return nil
}

// Read returns the stored messages of topic in insertion order.
func (p *Publisher) Read(ctx context.Context, topic string) ([]Stored, error) {
	rows, err := p.db.QueryContext(ctx, p.dialect.Select(p.table), topic)
	if err != nil {
		return nil, fmt.Errorf("outbox: query: %w", err)
	}
	defer rows.Close()

	var out []Stored
	for rows.Next() {
		var (
			s        Stored
			metadata string
		)
		if err := rows.Scan(&s.UUID, &s.Payload, &metadata); err != nil {
			return nil, fmt.Errorf("outbox: scan: %w", err)
		}
		if err := jsoncodec.Unmarshal([]byte(metadata), &s.Metadata); err != nil {
			return nil, fmt.Errorf("outbox: decode metadata of %s: %w", s.UUID, err)
		}
		s.Topic = topic
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the underlying database. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
