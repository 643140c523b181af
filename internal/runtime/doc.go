/*
Package runtime publishes the events of player registration documents.

# Pipeline

One PublishFile call runs these stages in order:

  - document/: reads the XML file and checks it is well formed, rooted at
    <players> and not empty. Nothing is sent when this fails.
  - fingerprint/: MD5 of the file, sent as the file-hash header.
  - records/: decodes each child element into a Record. Unknown, invalid and
    duplicate elements are logged and skipped.
  - events/: maps each record to its events. A player registration yields a
    registration event and, when the player has achievements, an
    achievements event right after it.
  - publisher.go: serializes the events and hands all of them to the
    transport in one Publish call.

Parsing and mapping are lazy iter.Seq stages; the publisher collects the
whole batch before it writes anything.

# Transports

The transport is picked by name from the registry in
github.com/drblury/playerflow/transport. Transports that cannot publish a
batch atomically are refused unless Config.AllowNonTransactional is set.

# Observability

Metrics (metrics.go) counts records by kind and outcome, events by type and
publish batches by transport. PublishFile, document loading and the batch
flush each run in an OpenTelemetry span.

# Sub-packages

  - config/: configuration, loading and validation
  - errors/: sentinel errors and error types
  - ids/: message UUIDs and run ULIDs
  - jsoncodec/: JSON marshaling
  - logging/: logger interface and adapters
  - metadata/: message header helpers
  - transport/: transport factory used by the service

# Usage Example

	conf, err := config.Load("", map[string]any{
		"rabbitmq.hostnames": []string{"rabbit-1", "rabbit-2"},
	})
	if err != nil {
		return err
	}

	svc, err := runtime.NewService(conf, logger, runtime.ServiceDependencies{})
	if err != nil {
		return err
	}

	n, err := svc.PublishFile(ctx, "players.xml")
*/
package runtime
