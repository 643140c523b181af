package records

import (
	"encoding/xml"
	"fmt"
	"iter"

	"github.com/drblury/playerflow/internal/runtime/document"
	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
	"github.com/drblury/playerflow/internal/runtime/logging"
)

// Outcome classifies what happened to a document node.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeUnknown   Outcome = "unknown"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeDuplicate Outcome = "duplicate"
)

// Observer is told about every node the parser looks at.
type Observer interface {
	ObserveRecord(kind string, outcome Outcome)
}

type nopObserver struct{}

func (nopObserver) ObserveRecord(string, Outcome) {}

// Parser decodes document nodes into records. Unknown, invalid and duplicate
// nodes are logged and skipped.
type Parser struct {
	registry *Registry
	log      logging.ServiceLogger
	observer Observer
}

// NewParser falls back to DefaultRegistry, a no-op logger and a no-op
// observer for nil arguments.
func NewParser(registry *Registry, log logging.ServiceLogger, observer Observer) *Parser {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Parser{registry: registry, log: log, observer: observer}
}

// Parse yields the valid, first-seen records of doc in document order. Each
// call starts with empty duplicate tracking.
func (p *Parser) Parse(doc *document.Document) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		if doc == nil {
			return
		}
		seen := make(map[string]map[string]struct{})

		for _, node := range doc.Nodes {
			record, ok := p.decode(node, seen)
			if !ok {
				continue
			}
			if !yield(record) {
				return
			}
		}
	}
}

func (p *Parser) decode(node document.Node, seen map[string]map[string]struct{}) (Record, bool) {
	kind := node.Name()

	factory, ok := p.registry.Lookup(kind)
	if !ok {
		p.reject(node, OutcomeUnknown, errspkg.ErrUnknownNode)
		return nil, false
	}

	record := factory()
	if err := xml.Unmarshal(node.OuterXML(), record); err != nil {
		p.reject(node, OutcomeInvalid, fmt.Errorf("%w: %w", errspkg.ErrInvalidNode, err))
		return nil, false
	}
	if !record.IsValid() {
		p.reject(node, OutcomeInvalid, errspkg.ErrInvalidNode)
		return nil, false
	}

	ids, ok := seen[kind]
	if !ok {
		ids = make(map[string]struct{})
		seen[kind] = ids
	}
	if _, dup := ids[record.RecordID()]; dup {
		p.reject(node, OutcomeDuplicate, errspkg.ErrDuplicateNode)
		return nil, false
	}
	ids[record.RecordID()] = struct{}{}

	p.observer.ObserveRecord(kind, OutcomeAccepted)
	return record, true
}

func (p *Parser) reject(node document.Node, outcome Outcome, err error) {
	p.observer.ObserveRecord(node.Name(), outcome)
	p.log.Error("Skipping node", err, logging.LogFields{
		"kind":    node.Name(),
		"outcome": string(outcome),
		"node":    node.String(),
	})
}
