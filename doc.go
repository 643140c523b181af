// Package playerflow turns XML player registration documents into events and
// publishes them as one all-or-nothing batch. It reads the target transport
// (RabbitMQ, a PostgreSQL or SQLite outbox, a JSON lines file, or Go channels)
// from Config, loads and validates the document before any connection is
// opened, and tags every message with id, filename and file-hash headers.
//
// Service runs the whole pipeline: NewService takes a Config and a logger,
// and PublishFile loads the document, parses its records, maps them to
// events and flushes the batch. The individual stages are exported as well
// (ParseDocument, NewRecordParser, DefaultEventMapper, PublishEvents) for
// programs that bring their own document source or publisher.
//
// # Transports
//
// Playerflow ships 5 transports:
//   - rabbitmq: publishes to an exchange inside an AMQP transaction, with
//     client-side failover across hostnames
//   - postgres: inserts into <schema>.outbox_events in one SQL transaction
//   - sqlite: the same outbox on an embedded database
//   - io: appends JSON lines to a file, replacing it atomically
//   - channel: in-memory Go channels for tests; not transactional, so it
//     is refused unless AllowNonTransactional is set
//
// # Records and events
//
// Each child of the <players> root is decoded into a Record by the record
// registry. Unknown, invalid and duplicate records are logged and skipped;
// they never fail the batch. The event mapper turns a PlayerRegistration
// into a registration event followed, when the player has achievements, by
// an achievements event. HandleRecords replaces or adds mappings.
//
// # Observability
//
// Logging goes through ServiceLogger, backed by log/slog. Metrics counts
// records, events and publish batches on a Prometheus registry and can write
// them to a textfile after each run. PublishFile is traced with
// OpenTelemetry.
package playerflow
