package playerflow

import (
	"iter"

	runtimepkg "github.com/drblury/playerflow/internal/runtime"
	configpkg "github.com/drblury/playerflow/internal/runtime/config"
	"github.com/drblury/playerflow/internal/runtime/document"
	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
	eventspkg "github.com/drblury/playerflow/internal/runtime/events"
	"github.com/drblury/playerflow/internal/runtime/fingerprint"
	idspkg "github.com/drblury/playerflow/internal/runtime/ids"
	jsoncodec "github.com/drblury/playerflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/playerflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/playerflow/internal/runtime/metadata"
	"github.com/drblury/playerflow/internal/runtime/records"
	transportpkg "github.com/drblury/playerflow/internal/runtime/transport"
	newtransport "github.com/drblury/playerflow/transport"
)

type (
	Config              = configpkg.Config
	Service             = runtimepkg.Service
	ServiceDependencies = runtimepkg.ServiceDependencies
	Metrics             = runtimepkg.Metrics
	Transport           = transportpkg.Transport
	TransportFactory    = transportpkg.Factory

	Document = document.Document

	Record             = records.Record
	RecordFactory      = records.Factory
	RecordRegistry     = records.Registry
	RecordOutcome      = records.Outcome
	PlayerRegistration = records.PlayerRegistration
	Achievement        = records.Achievement

	Event                   = eventspkg.Event
	EventType               = eventspkg.Type
	EventMapper             = eventspkg.Mapper
	PlayerRegistrationEvent = eventspkg.PlayerRegistrationEvent
	PlayerAchievementsEvent = eventspkg.PlayerAchievementsEvent

	Metadata = metadatapkg.Metadata

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	PublishError          = errspkg.PublishError
	ConfigValidationError = errspkg.ConfigValidationError

	// Transport capabilities
	Capabilities = transportpkg.Capabilities

	// Modular transport types
	TransportBuilder  = newtransport.Builder
	TransportConfig   = newtransport.Config
	TransportRegistry = newtransport.Registry
)

var (
	NewService     = runtimepkg.NewService
	NewMetrics     = runtimepkg.NewMetrics
	LoadConfig     = configpkg.Load
	ValidateConfig = configpkg.ValidateConfig

	LoadDocument  = document.Load
	ParseDocument = document.Parse

	NewRecordRegistry     = records.NewRegistry
	DefaultRecordRegistry = records.DefaultRegistry
	NewRecordParser       = records.NewParser
	NewPlayerRegistration = records.NewPlayerRegistration

	NewEventMapper          = eventspkg.NewMapper
	DefaultEventMapper      = eventspkg.DefaultMapper
	RegistrationEvent       = eventspkg.RegistrationEvent
	AchievementsEvent       = eventspkg.AchievementsEvent
	NewMessageFromEvent     = runtimepkg.NewMessageFromEvent
	PublishEvents           = runtimepkg.PublishEvents
	FileFingerprint         = fingerprint.File
	FingerprintBytes        = fingerprint.Bytes
	MetadataForFile         = metadatapkg.ForFile
	NewMetadata             = metadatapkg.New
	DefaultTransportFactory = transportpkg.DefaultFactory

	// Transport capabilities
	GetCapabilities = transportpkg.GetCapabilities

	// Modular transport registry. Built-in transports register themselves
	// when github.com/drblury/playerflow/transport/transports is imported.
	DefaultTransportRegistry = newtransport.DefaultRegistry
	RegisterTransport        = newtransport.Register
	BuildTransport           = newtransport.Build

	Marshal   = jsoncodec.Marshal
	Unmarshal = jsoncodec.Unmarshal
	Encode    = jsoncodec.Encode
	Decode    = jsoncodec.Decode

	ErrDocumentNotFound          = errspkg.ErrDocumentNotFound
	ErrMalformedDocument         = errspkg.ErrMalformedDocument
	ErrInvalidRoot               = errspkg.ErrInvalidRoot
	ErrEmptyDocument             = errspkg.ErrEmptyDocument
	ErrPublishFailed             = errspkg.ErrPublishFailed
	ErrPublisherRequired         = errspkg.ErrPublisherRequired
	ErrTopicRequired             = errspkg.ErrTopicRequired
	ErrConfigRequired            = errspkg.ErrConfigRequired
	ErrLoggerRequired            = errspkg.ErrLoggerRequired
	ErrEventRequired             = errspkg.ErrEventRequired
	ErrNonTransactionalTransport = errspkg.ErrNonTransactionalTransport

	NewSlogLogger        = loggingpkg.NewSlogLogger
	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	ParseLogLevel        = loggingpkg.ParseLevel

	CreateULID   = idspkg.CreateULID
	NewMessageID = idspkg.NewMessageID
)

// Event types and header keys.
const (
	EventTypePlayerRegistration = eventspkg.TypePlayerRegistration
	EventTypePlayerAchievements = eventspkg.TypePlayerAchievements

	MetadataKeyID       = metadatapkg.KeyID
	MetadataKeyFilename = metadatapkg.KeyFilename
	MetadataKeyFileHash = metadatapkg.KeyFileHash
)

// HandleRecords registers fn as the event mapping for records of type R.
func HandleRecords[R Record](m *EventMapper, fn func(R) []Event) {
	eventspkg.Handle(m, fn)
}

// DocumentEvents parses doc with the default record registry and maps the
// records with the default mapper. Nothing is logged or counted.
func DocumentEvents(doc *Document) iter.Seq[Event] {
	parser := records.NewParser(nil, nil, nil)
	return eventspkg.DefaultMapper(nil, nil).Map(parser.Parse(doc))
}
