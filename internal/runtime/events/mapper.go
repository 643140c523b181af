package events

import (
	"fmt"
	"iter"
	"reflect"

	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
	"github.com/drblury/playerflow/internal/runtime/logging"
	"github.com/drblury/playerflow/internal/runtime/records"
)

// Observer is told about every event produced and every record that had no
// handler.
type Observer interface {
	ObserveEvent(eventType Type)
	ObserveUnmappedRecord(recordType string)
}

type nopObserver struct{}

func (nopObserver) ObserveEvent(Type)            {}
func (nopObserver) ObserveUnmappedRecord(string) {}

type handlerFunc func(records.Record) []Event

// Mapper dispatches records to handlers keyed by the record's dynamic type.
type Mapper struct {
	handlers map[reflect.Type]handlerFunc
	log      logging.ServiceLogger
	observer Observer
}

// NewMapper returns a mapper without handlers. Use Handle to add them or
// DefaultMapper for the built-in set.
func NewMapper(log logging.ServiceLogger, observer Observer) *Mapper {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Mapper{
		handlers: make(map[reflect.Type]handlerFunc),
		log:      log,
		observer: observer,
	}
}

// DefaultMapper handles every record kind in records.DefaultRegistry.
func DefaultMapper(log logging.ServiceLogger, observer Observer) *Mapper {
	m := NewMapper(log, observer)
	Handle(m, FromPlayerRegistration)
	return m
}

// Handle registers fn for records of type R, replacing any previous handler.
func Handle[R records.Record](m *Mapper, fn func(R) []Event) {
	m.handlers[reflect.TypeFor[R]()] = func(r records.Record) []Event {
		return fn(r.(R))
	}
}

// Map yields the events of every record in order. Records without a handler
// are logged and skipped.
func (m *Mapper) Map(recs iter.Seq[records.Record]) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for record := range recs {
			if record == nil {
				continue
			}
			handler, ok := m.handlers[reflect.TypeOf(record)]
			if !ok {
				recordType := fmt.Sprintf("%T", record)
				m.observer.ObserveUnmappedRecord(recordType)
				m.log.Error("Skipping record", errspkg.ErrUnknownRecordType, logging.LogFields{
					"record_type": recordType,
					"record_id":   record.RecordID(),
				})
				continue
			}

			for _, event := range handler(record) {
				m.observer.ObserveEvent(event.Type())
				if !yield(event) {
					return
				}
			}
		}
	}
}
