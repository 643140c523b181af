// Command playerflow publishes the player registration events of an XML
// document to RabbitMQ or one of the outbox sinks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	runtimepkg "github.com/drblury/playerflow/internal/runtime"
	configpkg "github.com/drblury/playerflow/internal/runtime/config"
	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
	loggingpkg "github.com/drblury/playerflow/internal/runtime/logging"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// flagKeys maps command line flags onto configuration keys. Only flags given
// on the command line override the file and environment.
var flagKeys = map[string]string{
	"transport":               "transport",
	"username":                "rabbitmq.username",
	"password":                "rabbitmq.password",
	"vhost":                   "rabbitmq.vhost",
	"port":                    "rabbitmq.port",
	"rabbitmq-url":            "rabbitmq.url",
	"exchange-name":           "exchange.name",
	"exchange-type":           "exchange.type",
	"declare-exchange":        "exchange.declare",
	"output":                  "io.file",
	"sqlite-file":             "sqlite.file",
	"postgres-url":            "postgres.url",
	"outbox-schema":           "outbox.schema",
	"allow-non-transactional": "allow_non_transactional",
	"metrics-file":            "metrics.file",
	"log-level":               "log.level",
	"log-format":              "log.format",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("playerflow", flag.ContinueOnError)
	fs.SetOutput(stderr)

	filePath := fs.String("file", "", "XML document to publish (required)")
	configPath := fs.String("config", "", "optional YAML configuration file")
	var hostnames []string
	fs.Func("hostnames", "RabbitMQ hostname, repeatable or comma-separated; tried in order", func(value string) error {
		hostnames = append(hostnames, splitHostnames(value)...)
		return nil
	})
	fs.String("transport", configpkg.DefaultPubSubSystem, "transport: rabbitmq, postgres, sqlite, io or channel")
	fs.String("username", configpkg.DefaultUsername, "RabbitMQ username")
	fs.String("password", configpkg.DefaultPassword, "RabbitMQ password")
	fs.String("vhost", configpkg.DefaultVirtualHost, "RabbitMQ virtual host")
	fs.Int("port", configpkg.DefaultRabbitMQPort, "RabbitMQ port")
	fs.String("rabbitmq-url", "", "full AMQP URL, overrides --hostnames")
	fs.String("exchange-name", configpkg.DefaultExchangeName, "exchange the events are published to")
	fs.String("exchange-type", configpkg.DefaultExchangeType, "exchange type")
	fs.Bool("declare-exchange", false, "declare the exchange instead of checking it exists")
	fs.String("output", configpkg.DefaultIOFile, "JSON lines file written by the io transport")
	fs.String("sqlite-file", configpkg.DefaultSQLiteFile, "outbox database of the sqlite transport")
	fs.String("postgres-url", "", "connection string of the postgres transport")
	fs.String("outbox-schema", configpkg.DefaultSchemaName, "outbox schema (postgres) or table prefix (sqlite)")
	fs.Bool("allow-non-transactional", false, "allow transports that cannot publish a batch atomically")
	fs.String("metrics-file", "", "write Prometheus metrics to this file after the run")
	fs.String("log-level", "info", "log level: trace, debug, info, warn or error")
	fs.String("log-format", "text", "log format: text or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "playerflow: unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return exitUsage
	}
	if *filePath == "" {
		fmt.Fprintln(stderr, "playerflow: --file is required")
		fs.Usage()
		return exitUsage
	}

	overrides := map[string]any{}
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = f.Value.(flag.Getter).Get()
		}
	})
	if len(hostnames) > 0 {
		overrides["rabbitmq.hostnames"] = hostnames
	}

	conf, err := configpkg.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(stderr, "playerflow: %v\n", err)
		var validationErr errspkg.ConfigValidationError
		if errors.As(err, &validationErr) {
			return exitUsage
		}
		return exitError
	}

	level, err := loggingpkg.ParseLevel(conf.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "playerflow: %v\n", err)
		return exitUsage
	}
	logger := loggingpkg.NewSlogServiceLogger(loggingpkg.NewSlogLogger(stderr, conf.LogFormat, level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := runtimepkg.NewService(conf, logger, runtimepkg.ServiceDependencies{})
	if err != nil {
		fmt.Fprintf(stderr, "playerflow: %v\n", err)
		return exitError
	}

	n, err := svc.PublishFile(ctx, *filePath)
	if err != nil {
		fmt.Fprintf(stderr, "playerflow: %v\n", err)
		return exitError
	}
	fmt.Fprintf(stdout, "Published %d events\n", n)
	return exitOK
}

func splitHostnames(value string) []string {
	var out []string
	for _, host := range strings.Split(value, ",") {
		if host = strings.TrimSpace(host); host != "" {
			out = append(out, host)
		}
	}
	return out
}
