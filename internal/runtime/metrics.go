package runtime

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	eventspkg "github.com/drblury/playerflow/internal/runtime/events"
	"github.com/drblury/playerflow/internal/runtime/records"
)

// OutcomeUnmapped labels records that no event handler accepted.
const OutcomeUnmapped records.Outcome = "unmapped"

// Metrics counts what one service run parsed, mapped and published. It
// satisfies both records.Observer and events.Observer.
type Metrics struct {
	registry *prometheus.Registry

	recordsTotal    *prometheus.CounterVec
	eventsTotal     *prometheus.CounterVec
	batchesTotal    *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "playerflow",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewMetrics creates the collectors and registers them on registry. A nil
// registry gets a fresh one. Metrics built on the same registry share their
// collectors.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry:     registry,
		recordsTotal: newCounterVec("records_total", "Document nodes seen by the record parser, by kind and outcome", []string{"kind", "outcome"}),
		eventsTotal:  newCounterVec("events_total", "Events produced by the event mapper", []string{"event_type"}),
		batchesTotal: newCounterVec("publish_batches_total", "Publish batches by transport and result", []string{"transport", "result"}),
		publishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "playerflow",
				Name:      "publish_duration_seconds",
				Help:      "Time spent flushing one batch to the transport",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"transport"},
		),
	}

	var err error
	if m.recordsTotal, err = register(registry, m.recordsTotal); err != nil {
		return nil, err
	}
	if m.eventsTotal, err = register(registry, m.eventsTotal); err != nil {
		return nil, err
	}
	if m.batchesTotal, err = register(registry, m.batchesTotal); err != nil {
		return nil, err
	}
	if m.publishDuration, err = register(registry, m.publishDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to registry, reusing the collector already registered
// under the same descriptor.
func register[C prometheus.Collector](registry prometheus.Registerer, c C) (C, error) {
	if err := registry.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRecord implements records.Observer.
func (m *Metrics) ObserveRecord(kind string, outcome records.Outcome) {
	m.recordsTotal.WithLabelValues(kind, string(outcome)).Inc()
}

// ObserveEvent implements events.Observer.
func (m *Metrics) ObserveEvent(t eventspkg.Type) {
	m.eventsTotal.WithLabelValues(string(t)).Inc()
}

// ObserveUnmappedRecord implements events.Observer.
func (m *Metrics) ObserveUnmappedRecord(recordType string) {
	m.recordsTotal.WithLabelValues(recordType, string(OutcomeUnmapped)).Inc()
}

// ObservePublish records the result and duration of one batch flush.
func (m *Metrics) ObservePublish(transport string, took time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.batchesTotal.WithLabelValues(transport, result).Inc()
	m.publishDuration.WithLabelValues(transport).Observe(took.Seconds())
}

// WriteToTextfile writes the metrics in the text exposition format, for the
// node exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
