package runtime

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/drblury/playerflow/internal/runtime/config"
	"github.com/drblury/playerflow/internal/runtime/document"
	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
	eventspkg "github.com/drblury/playerflow/internal/runtime/events"
	"github.com/drblury/playerflow/internal/runtime/fingerprint"
	idspkg "github.com/drblury/playerflow/internal/runtime/ids"
	loggingpkg "github.com/drblury/playerflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/playerflow/internal/runtime/metadata"
	"github.com/drblury/playerflow/internal/runtime/records"
	transportpkg "github.com/drblury/playerflow/internal/runtime/transport"
)

const tracerName = "playerflow"

// ServiceDependencies holds the optional collaborators that the Service can use.
// Leave fields nil to get the defaults.
type ServiceDependencies struct {
	TransportFactory transportpkg.Factory
	Records          *records.Registry
	Metrics          *Metrics
	TracerProvider   trace.TracerProvider
}

// Service publishes the events of player registration documents. Each
// PublishFile call opens its own transport and closes it before returning.
type Service struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	factory transportpkg.Factory
	records *records.Registry
	metrics *Metrics
	tracer  trace.Tracer
}

// NewService constructs a Service for the supplied configuration.
func NewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, deps ServiceDependencies) (*Service, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}

	s := &Service{
		Conf:    conf,
		Logger:  log,
		factory: deps.TransportFactory,
		records: deps.Records,
		metrics: deps.Metrics,
	}
	if s.factory == nil {
		s.factory = transportpkg.DefaultFactory()
	}
	if s.records == nil {
		s.records = records.DefaultRegistry()
	}
	if s.metrics == nil {
		m, err := NewMetrics(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		s.metrics = m
	}
	if deps.TracerProvider != nil {
		s.tracer = deps.TracerProvider.Tracer(tracerName)
	} else {
		s.tracer = otel.Tracer(tracerName)
	}

	log.Debug("Creating publish service", loggingpkg.LogFields{
		"transport": conf.PubSubSystem,
		"config":    conf,
	})
	return s, nil
}

// Metrics returns the collectors updated by PublishFile.
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// PublishFile reads the document at path and publishes its events as one
// batch. Document errors are returned before any transport is opened.
func (s *Service) PublishFile(ctx context.Context, path string) (published int, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	transportName := s.Conf.PubSubSystem
	log := s.Logger.With(loggingpkg.LogFields{
		"run_id": idspkg.CreateULID(),
		"file":   path,
	})

	ctx, span := s.tracer.Start(ctx, "playerflow.PublishFile", trace.WithAttributes(
		attribute.String("playerflow.file", path),
		attribute.String("playerflow.transport", transportName),
	))
	defer func() {
		span.SetAttributes(attribute.Int("playerflow.events", published))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.writeMetrics(log)
	}()

	doc, fileHash, err := s.loadDocument(ctx, path)
	if err != nil {
		log.Error("Failed to load document", err, nil)
		return 0, err
	}
	log = log.With(loggingpkg.LogFields{"file_hash": fileHash})

	// Unknown transports fall through to Build, which reports them.
	caps, known := s.factory.Capabilities(transportName)
	if known && !caps.AtomicPublish() && !s.Conf.AllowNonTransactional {
		err = fmt.Errorf("%w: %s", errspkg.ErrNonTransactionalTransport, caps.Name)
		log.Error("Refusing transport", err, nil)
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tr, err := s.factory.Build(ctx, s.Conf, loggingpkg.NewWatermillAdapter(log))
	if err != nil {
		log.Error("Failed to open transport", err, nil)
		return 0, err
	}
	defer func() {
		if closeErr := tr.Close(); closeErr != nil {
			log.Error("Failed to close transport", closeErr, nil)
		}
	}()

	parser := records.NewParser(s.records, log, s.metrics)
	mapper := eventspkg.DefaultMapper(log, s.metrics)
	md := metadatapkg.ForFile(doc.Filename(), fileHash)

	published, err = s.flush(ctx, caps.Name, tr.Publisher, mapper.Map(parser.Parse(doc)), md)
	if err != nil {
		log.Error("Failed to publish events", err, nil)
		return 0, err
	}

	log.Info(fmt.Sprintf("Published %d events", published), loggingpkg.LogFields{
		"events":   published,
		"exchange": s.Conf.ExchangeName,
	})
	return published, nil
}

func (s *Service) loadDocument(ctx context.Context, path string) (*document.Document, string, error) {
	_, span := s.tracer.Start(ctx, "playerflow.LoadDocument")
	defer span.End()

	doc, err := document.Load(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	fileHash, err := fingerprint.File(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	span.SetAttributes(
		attribute.Int("playerflow.nodes", len(doc.Nodes)),
		attribute.String("playerflow.file_hash", fileHash),
	)
	return doc, fileHash, nil
}

func (s *Service) flush(ctx context.Context, transportName string, publisher message.Publisher, events iter.Seq[eventspkg.Event], md metadatapkg.Metadata) (int, error) {
	ctx, span := s.tracer.Start(ctx, "playerflow.Publish", trace.WithAttributes(
		attribute.String("playerflow.exchange", s.Conf.ExchangeName),
	))
	defer span.End()

	start := time.Now()
	n, err := PublishEvents(ctx, publisher, s.Conf.ExchangeName, events, md)

	var publishErr *errspkg.PublishError
	if errors.As(err, &publishErr) {
		publishErr.Transport = transportName
		s.metrics.ObservePublish(transportName, time.Since(start), err)
	} else if n > 0 {
		s.metrics.ObservePublish(transportName, time.Since(start), nil)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Int("playerflow.events", n))
	return n, err
}

func (s *Service) writeMetrics(log loggingpkg.ServiceLogger) {
	if s.Conf.MetricsFile == "" {
		return
	}
	if err := s.metrics.WriteToTextfile(s.Conf.MetricsFile); err != nil {
		log.Error("Failed to write metrics file", err, loggingpkg.LogFields{"path": s.Conf.MetricsFile})
	}
}
